package authserver

import "testing"

func TestIsAllowedRedirectURIHTTPSAlwaysAllowed(t *testing.T) {
	if !IsAllowedRedirectURI("https://example.com/cb") {
		t.Error("expected https redirect URI to be allowed")
	}
}

func TestIsAllowedRedirectURIHTTPOnlyForLoopback(t *testing.T) {
	cases := []struct {
		uri   string
		allow bool
	}{
		{"http://127.0.0.1:3000/cb", true},
		{"http://localhost:5173/cb", true},
		{"http://[::1]:8080/cb", true},
		{"http://example.com/cb", false},
	}
	for _, c := range cases {
		if got := IsAllowedRedirectURI(c.uri); got != c.allow {
			t.Errorf("IsAllowedRedirectURI(%q) = %v, want %v", c.uri, got, c.allow)
		}
	}
}

func TestIsAllowedRedirectURICustomScheme(t *testing.T) {
	if !IsAllowedRedirectURI("myapp://cb") {
		t.Error("expected custom scheme redirect URI to be allowed")
	}
	if IsAllowedRedirectURI("not a uri at all") {
		t.Error("expected malformed URI to be rejected")
	}
}

func TestLoopbackClientMatchesAnyPort(t *testing.T) {
	reg := NewClientRegistry()
	reg.Register([]string{"http://127.0.0.1:3000/cb"})

	if !reg.MatchRedirectURI(PublicClientID, "http://127.0.0.1:54321/cb") {
		t.Error("expected a different ephemeral port on the same loopback host to match")
	}
	if reg.MatchRedirectURI(PublicClientID, "http://127.0.0.1:3000/other-path") {
		t.Error("expected a mismatched path to fail")
	}
}

func TestClientRegistryUnregisteredClientFallsBackToPolicy(t *testing.T) {
	reg := NewClientRegistry()
	// No redirect URIs registered yet: falls back to IsAllowedRedirectURI.
	if !reg.MatchRedirectURI(PublicClientID, "https://example.com/cb") {
		t.Error("expected an https redirect URI to pass the fallback policy")
	}
	if reg.MatchRedirectURI(PublicClientID, "http://example.com/cb") {
		t.Error("expected non-loopback http redirect URI to fail the fallback policy")
	}
}

func TestClientRegistryUnknownClientIDFailsMatch(t *testing.T) {
	reg := NewClientRegistry()
	if reg.MatchRedirectURI("does-not-exist", "https://example.com/cb") {
		t.Error("expected unknown client id to fail match")
	}
}
