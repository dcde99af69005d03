// Package authserver hosts the gateway's own OAuth 2.1 authorization
// server: discovery, dynamic client registration, the authorize endpoint,
// the upstream callback, and the token endpoint.
package authserver

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/ory/fosite"
)

// PublicClientID is the fixed client every caller ends up using: this
// gateway never issues client secrets, since every client is public and
// authenticates solely via PKCE.
const PublicClientID = "mcp-public-client"

// LoopbackClient is a fosite.Client that matches redirect URIs per RFC 8252
// §7.3: native apps bind to an ephemeral loopback port, so the authorization
// server must accept any port on a registered loopback host rather than
// requiring an exact redirect URI match.
type LoopbackClient struct {
	*fosite.DefaultClient
}

// NewLoopbackClient wraps client with loopback-aware redirect matching.
func NewLoopbackClient(client *fosite.DefaultClient) *LoopbackClient {
	return &LoopbackClient{DefaultClient: client}
}

// MatchRedirectURI reports whether requestedURI matches one of the client's
// registered URIs, honoring loopback port flexibility.
func (c *LoopbackClient) MatchRedirectURI(requestedURI string) bool {
	for _, registered := range c.GetRedirectURIs() {
		if matchesRedirectURI(requestedURI, registered) {
			return true
		}
	}
	return false
}

func matchesRedirectURI(requestedURI, registeredURI string) bool {
	if requestedURI == registeredURI {
		return true
	}
	return matchesAsLoopback(requestedURI, registeredURI)
}

func matchesAsLoopback(requestedURI, registeredURI string) bool {
	requested, err := url.Parse(requestedURI)
	if err != nil {
		return false
	}
	registered, err := url.Parse(registeredURI)
	if err != nil {
		return false
	}
	if requested.Scheme != "http" || registered.Scheme != "http" {
		return false
	}
	if !IsLoopbackHost(requested.Hostname()) || !IsLoopbackHost(registered.Hostname()) {
		return false
	}
	if !strings.EqualFold(requested.Hostname(), registered.Hostname()) {
		return false
	}
	if requested.Path != registered.Path || requested.RawQuery != registered.RawQuery {
		return false
	}
	return true
}

// IsLoopbackHost reports whether hostname is "localhost", "127.0.0.1", or
// "::1" — the loopback hosts RFC 8252 §7.3 allows any port on.
func IsLoopbackHost(hostname string) bool {
	if strings.EqualFold(hostname, "localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}

// customSchemePattern matches a bare custom URI scheme token, e.g. "myapp:".
// Any syntactically valid custom scheme is accepted for native-app redirect
// URIs (the HTTPS/loopback-HTTP rules above cover the web and localhost
// cases).
var customSchemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:$`)

// IsAllowedRedirectURI applies the gateway's redirect-URI policy,
// symmetrically enforced at both dynamic registration and the authorize
// endpoint: HTTPS is always allowed; HTTP is allowed only when the host is
// a loopback address; any other syntactically valid custom scheme is
// allowed.
func IsAllowedRedirectURI(rawURI string) bool {
	u, err := url.Parse(rawURI)
	if err != nil || u.Scheme == "" {
		return false
	}
	switch u.Scheme {
	case "https":
		return true
	case "http":
		return IsLoopbackHost(u.Hostname())
	default:
		return customSchemePattern.MatchString(u.Scheme + ":")
	}
}

// ClientRegistry holds the one fixed public client, whose set of
// registered redirect URIs grows with each dynamic registration.
// Registrations are process-scoped and lost on restart; callers
// re-register after a deploy.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*LoopbackClient
}

// NewClientRegistry constructs a registry pre-seeded with PublicClientID,
// accepting any allowed redirect URI (the fixed client is not bound to a
// closed redirect-URI set the way a dynamically registered client is).
func NewClientRegistry() *ClientRegistry {
	r := &ClientRegistry{clients: make(map[string]*LoopbackClient)}
	r.clients[PublicClientID] = NewLoopbackClient(&fosite.DefaultClient{
		ID:            PublicClientID,
		Public:        true,
		RedirectURIs:  nil, // nil means "match policy only", see MatchRedirectURI's fallback.
		ResponseTypes: []string{"code"},
		GrantTypes:    []string{"authorization_code", "refresh_token"},
		Scopes:        []string{"read", "identity"},
	})
	return r
}

// Get returns the client for id, or nil if unregistered.
func (r *ClientRegistry) Get(id string) *LoopbackClient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[id]
}

// Register adds redirectURIs to the fixed public client's registered
// redirect URIs, returning the fixed public client id: registration never mints a fresh client id or
// secret — every caller shares the one public client identity, scoped only
// by which redirect URIs it is allowed to use.
//
// redirectURIs must all satisfy IsAllowedRedirectURI; callers validate this
// before calling Register.
func (r *ClientRegistry) Register(redirectURIs []string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.clients[PublicClientID]
	merged := mergeUnique(existing.GetRedirectURIs(), redirectURIs)
	r.clients[PublicClientID] = NewLoopbackClient(&fosite.DefaultClient{
		ID:            PublicClientID,
		Public:        true,
		RedirectURIs:  merged,
		ResponseTypes: []string{"code"},
		GrantTypes:    []string{"authorization_code", "refresh_token"},
		Scopes:        []string{"read", "identity"},
	})
	return PublicClientID
}

// MatchRedirectURI reports whether requestedURI is acceptable for client
// id: either it matches a previously registered URI, or no URIs have been
// registered yet and requestedURI independently satisfies the redirect
// policy — the same policy registration enforces, applied at the authorize
// endpoint even for a client that never called /oauth/register.
func (r *ClientRegistry) MatchRedirectURI(id, requestedURI string) bool {
	client := r.Get(id)
	if client == nil {
		return false
	}
	if len(client.GetRedirectURIs()) == 0 {
		return IsAllowedRedirectURI(requestedURI)
	}
	return client.MatchRedirectURI(requestedURI)
}

func mergeUnique(existing, added []string) []string {
	seen := make(map[string]bool, len(existing)+len(added))
	out := make([]string, 0, len(existing)+len(added))
	for _, v := range append(existing, added...) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

var _ fosite.Client = (*LoopbackClient)(nil)
