package authserver

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// softwareStatementVerifier checks the optional RFC 7591 software_statement
// field on a registration request: a JWT, signed by a trusted software
// publisher, asserting facts about the client that the gateway itself has
// no way to observe directly (its name, its vendor, a stable software id).
// A deployment that never configures a trust anchor simply skips the check
// and registers clients on RedirectURIs alone, as handleRegister already did.
type softwareStatementVerifier struct {
	key interface{}
}

// newSoftwareStatementVerifier parses pemPublicKey as a PEM-encoded RSA
// public key. An empty pemPublicKey disables verification.
func newSoftwareStatementVerifier(pemPublicKey string) (*softwareStatementVerifier, error) {
	if pemPublicKey == "" {
		return &softwareStatementVerifier{}, nil
	}
	block, _ := pem.Decode([]byte(pemPublicKey))
	if block == nil {
		return nil, errors.New("authserver: software statement trust anchor is not valid PEM")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("authserver: parsing software statement trust anchor: %w", err)
	}
	return &softwareStatementVerifier{key: pub}, nil
}

// enabled reports whether a trust anchor was configured.
func (v *softwareStatementVerifier) enabled() bool {
	return v != nil && v.key != nil
}

// verify checks statement's signature and standard claims, returning the
// asserted software_id on success.
func (v *softwareStatementVerifier) verify(statement string) (string, error) {
	token, err := jwt.Parse([]byte(statement), jwt.WithKey(jwa.RS256(), v.key))
	if err != nil {
		return "", fmt.Errorf("authserver: software statement failed verification: %w", err)
	}
	var softwareID string
	if token.Has("software_id") {
		_ = token.Get("software_id", &softwareID)
	}
	return softwareID, nil
}
