package authserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthServerMetadataDocument(t *testing.T) {
	srv := newTestServer(t, &fakeUpstream{})
	req := httptest.NewRequest(http.MethodGet, "/oauth-authorization-server", nil)
	rec := httptest.NewRecorder()
	srv.WellKnownRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var doc authServerMetadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "https://gw.example.com", doc.Issuer)
	assert.Equal(t, "https://gw.example.com/oauth/authorize", doc.AuthorizationEndpoint)
	assert.Equal(t, "https://gw.example.com/oauth/token", doc.TokenEndpoint)
	assert.Equal(t, []string{"S256"}, doc.CodeChallengeMethodsSupported)
	assert.Equal(t, []string{"none"}, doc.TokenEndpointAuthMethods)
	assert.Equal(t, []string{"authorization_code", "refresh_token"}, doc.GrantTypesSupported)
}

func TestProtectedResourceMetadataBindsResourceToIssuer(t *testing.T) {
	srv := newTestServer(t, &fakeUpstream{})
	req := httptest.NewRequest(http.MethodGet, "/oauth-protected-resource", nil)
	rec := httptest.NewRecorder()
	srv.WellKnownRouter().ServeHTTP(rec, req)

	var doc protectedResourceMetadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "https://gw.example.com", doc.Resource)
	assert.Equal(t, []string{"https://gw.example.com"}, doc.AuthorizationServers)
}

func TestUpstreamCallbackAccessDenied(t *testing.T) {
	srv := newTestServer(t, &fakeUpstream{})
	req := httptest.NewRequest(http.MethodGet, "/reddit/callback?error=access_denied&state=k:n", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, "access_denied", extractField(t, rec.Body.Bytes(), "error"))
}

func TestTokenRejectsUnsupportedGrantType(t *testing.T) {
	srv := newTestServer(t, &fakeUpstream{})
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(url.Values{
		"grant_type": {"client_credentials"},
	}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, "unsupported_grant_type", extractField(t, rec.Body.Bytes(), "error"))
}

func TestRegisterReturnsFixedPublicClientID(t *testing.T) {
	srv := newTestServer(t, &fakeUpstream{})
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"redirect_uris":["myapp://cb"]}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp registerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, PublicClientID, resp.ClientID)
	assert.Equal(t, "none", resp.TokenEndpointAuthMethod)
}

func TestRegisterRejectsDisallowedRedirectURI(t *testing.T) {
	srv := newTestServer(t, &fakeUpstream{})
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"redirect_uris":["http://example.com/cb"]}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", extractField(t, rec.Body.Bytes(), "error"))
}
