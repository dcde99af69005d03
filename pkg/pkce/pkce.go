// Package pkce implements RFC 7636 Proof Key for Code Exchange, S256 method only.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// Method is the only PKCE challenge method this gateway accepts.
const Method = "S256"

// Params holds a generated verifier/challenge pair, exposed for callers
// (tests, CLI helpers) that need to drive a full authorization-code flow.
type Params struct {
	CodeVerifier  string
	CodeChallenge string
}

// GenerateParams produces a fresh RFC 7636 verifier/challenge pair.
func GenerateParams() (*Params, error) {
	verifierBytes := make([]byte, 32)
	if _, err := rand.Read(verifierBytes); err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(verifierBytes)

	return &Params{
		CodeVerifier:  verifier,
		CodeChallenge: Challenge(verifier),
	}, nil
}

// Challenge derives the S256 code challenge for a given verifier:
// base64url_nopad(sha256(verifier)).
func Challenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// Verify reports whether verifier hashes to the given stored challenge,
// using a constant-time comparison to avoid leaking timing information
// about how much of the challenge matched.
func Verify(verifier, storedChallenge string) bool {
	computed := Challenge(verifier)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedChallenge)) == 1
}

// GenerateState generates a random opaque state/nonce value suitable for
// CSRF protection or as the upstream-state nonce.
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
