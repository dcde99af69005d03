package authserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mcpgw/reddit-gateway/pkg/bearer"
	"github.com/mcpgw/reddit-gateway/pkg/logger"
	"github.com/mcpgw/reddit-gateway/pkg/oauthstate"
	"github.com/mcpgw/reddit-gateway/pkg/upstream"
)

// AuthServer is the HTTP surface of the gateway's OAuth 2.1 authorization
// server: discovery, dynamic client registration, authorize, the upstream
// callback, and the token endpoint. It is stateless beyond the collaborators
// it's constructed with.
type AuthServer struct {
	issuer              string
	resourceID          string
	upstreamCallbackURL string
	store               oauthstate.Store
	codec               *bearer.Codec
	clients             *ClientRegistry
	upstreamAuth        upstream.UpstreamAuthClient
	statements          *softwareStatementVerifier
}

// Params bundles AuthServer's construction-time collaborators.
type Params struct {
	// Issuer is this server's own absolute base URL, used both as the
	// OAuth "iss" claim and to build discovery document endpoint URLs.
	Issuer string
	// ResourceID is the protected-resource identifier advertised in the
	// protected-resource metadata document; typically equal to Issuer.
	ResourceID string
	// UpstreamCallbackURL is the gateway's own registered redirect URI
	// with the upstream IdP, e.g. "https://gw.example.com/oauth/reddit/callback".
	UpstreamCallbackURL string
	Store               oauthstate.Store
	Codec               *bearer.Codec
	UpstreamAuth        upstream.UpstreamAuthClient
	// SoftwareStatementKey is an optional PEM-encoded RSA public key. When
	// set, a registration request carrying a software_statement is only
	// accepted if it verifies against this key; an absent field is still
	// accepted since RFC 7591 treats it as optional. Left empty, no
	// deployment-level trust anchor is configured and the field is ignored
	// entirely.
	SoftwareStatementKey string
}

// New constructs an AuthServer with a fresh ClientRegistry seeded with the
// one fixed public client.
func New(p Params) *AuthServer {
	statements, err := newSoftwareStatementVerifier(p.SoftwareStatementKey)
	if err != nil {
		// An unparsable operator-supplied trust anchor is a misconfiguration,
		// not a per-request error; fail open by disabling the check (software
		// statements are then accepted unverified) rather than rejecting
		// every registration.
		logger.Errorf("authserver: disabling software statement verification: %v", err)
		statements = &softwareStatementVerifier{}
	}
	return &AuthServer{
		issuer:              p.Issuer,
		resourceID:          p.ResourceID,
		upstreamCallbackURL: p.UpstreamCallbackURL,
		store:               p.Store,
		codec:               p.Codec,
		clients:             NewClientRegistry(),
		upstreamAuth:        p.UpstreamAuth,
		statements:          statements,
	}
}

// WellKnownRouter mounts the two discovery documents. These are typically
// served at the bare root (/.well-known/...) rather than under /oauth, so
// callers mount this separately from Router.
func (s *AuthServer) WellKnownRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/oauth-authorization-server", s.handleAuthServerMetadata)
	r.Get("/oauth-protected-resource", s.handleProtectedResourceMetadata)
	return r
}

// Router mounts the OAuth endpoints proper: register, authorize, the
// upstream callback, and token.
func (s *AuthServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/register", s.handleRegister)
	r.Get("/authorize", s.handleAuthorize)
	r.Get("/reddit/callback", s.handleUpstreamCallback)
	r.Post("/token", s.handleToken)
	return r
}

// ResourceMetadataURL is the absolute URL pointed to by the 401
// WWW-Authenticate header on /mcp.
func (s *AuthServer) ResourceMetadataURL() string {
	return s.issuer + "/.well-known/oauth-protected-resource"
}

// Codec exposes the bearer codec for the MCP middleware chain.
func (s *AuthServer) Codec() *bearer.Codec {
	return s.codec
}
