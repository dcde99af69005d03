package authserver

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatementKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pemStr := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	return priv, pemStr
}

func signStatement(t *testing.T, priv *rsa.PrivateKey, softwareID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":         "trusted-publisher",
		"software_id": softwareID,
	})
	signed, err := token.SignedString(priv)
	require.NoError(t, err)
	return signed
}

func TestSoftwareStatementVerifierDisabledWithoutTrustAnchor(t *testing.T) {
	v, err := newSoftwareStatementVerifier("")
	require.NoError(t, err)
	assert.False(t, v.enabled())
}

func TestSoftwareStatementVerifierRejectsBadPEM(t *testing.T) {
	_, err := newSoftwareStatementVerifier("not pem at all")
	assert.Error(t, err)
}

func TestSoftwareStatementVerifyAcceptsTrustedSigner(t *testing.T) {
	priv, pemStr := newStatementKeyPair(t)
	v, err := newSoftwareStatementVerifier(pemStr)
	require.NoError(t, err)
	require.True(t, v.enabled())

	softwareID, err := v.verify(signStatement(t, priv, "app-1"))
	require.NoError(t, err)
	assert.Equal(t, "app-1", softwareID)
}

func TestSoftwareStatementVerifyRejectsUntrustedSigner(t *testing.T) {
	_, pemStr := newStatementKeyPair(t)
	otherPriv, _ := newStatementKeyPair(t)

	v, err := newSoftwareStatementVerifier(pemStr)
	require.NoError(t, err)
	_, err = v.verify(signStatement(t, otherPriv, "app-1"))
	assert.Error(t, err)
}

func TestRegisterRejectsUnverifiableStatementWhenAnchorConfigured(t *testing.T) {
	_, pemStr := newStatementKeyPair(t)
	otherPriv, _ := newStatementKeyPair(t)

	srv := newTestServer(t, &fakeUpstream{})
	statements, err := newSoftwareStatementVerifier(pemStr)
	require.NoError(t, err)
	srv.statements = statements

	body := `{"redirect_uris":["https://app.example.com/cb"],"software_statement":"` +
		signStatement(t, otherPriv, "app-1") + `"}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterIgnoresStatementWhenNoAnchorConfigured(t *testing.T) {
	otherPriv, _ := newStatementKeyPair(t)
	srv := newTestServer(t, &fakeUpstream{})

	body := `{"redirect_uris":["https://app.example.com/cb"],"software_statement":"` +
		signStatement(t, otherPriv, "app-1") + `"}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}
