// Package bearer mints and verifies the gateway's own bearer tokens.
//
// A bearer token is a signed envelope carrying the upstream's access and
// refresh token pair, so that a single gateway-issued credential is enough
// to route a caller's MCP request through to the upstream API without the
// server holding any session-keyed token store beyond the refresh-token
// table described in pkg/oauthstate.
package bearer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultLifetime is the nominal lifetime of a minted bearer token, matching
// the reference upstream's access-token lifetime.
const DefaultLifetime = 24 * time.Hour

// Sentinel errors surfaced by Verify. Callers map these to the OAuth
// "invalid_token" error kind; the underlying cause is never echoed verbatim
// to the caller.
var (
	ErrMalformed        = errors.New("bearer: malformed token")
	ErrBadSignature     = errors.New("bearer: signature verification failed")
	ErrExpired          = errors.New("bearer: token expired")
	ErrNotYetValid      = errors.New("bearer: token not yet valid")
	ErrIssuerMismatch   = errors.New("bearer: issuer mismatch")
	ErrAudienceMismatch = errors.New("bearer: audience mismatch")
)

// Claims is the payload carried inside a bearer token.
type Claims struct {
	jwt.RegisteredClaims
	UpstreamAccessToken  string `json:"upstream_access_token"`
	UpstreamRefreshToken string `json:"upstream_refresh_token"`
}

// Codec mints and verifies bearer tokens for a single issuer/audience pair,
// signed with a symmetric secret. The secret is read-only after
// construction; Codec holds no other mutable state.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	lifetime time.Duration
}

// NewCodec constructs a Codec. secret must be at least 32 bytes.
func NewCodec(secret []byte, issuer, audience string, lifetime time.Duration) (*Codec, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("bearer: signing secret must be at least 32 bytes, got %d", len(secret))
	}
	if issuer == "" {
		return nil, errors.New("bearer: issuer is required")
	}
	if audience == "" {
		return nil, errors.New("bearer: audience is required")
	}
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	// Copy the secret so the Codec is insulated from the caller mutating the
	// backing array after construction.
	owned := make([]byte, len(secret))
	copy(owned, secret)
	return &Codec{secret: owned, issuer: issuer, audience: audience, lifetime: lifetime}, nil
}

// Mint signs a new bearer token for subject (the upstream user id), carrying
// the upstream access/refresh token pair. now is threaded through explicitly
// so callers can produce deterministic tokens in tests.
func (c *Codec) Mint(subject, upstreamAccess, upstreamRefresh string, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
		},
		UpstreamAccessToken:  upstreamAccess,
		UpstreamRefreshToken: upstreamRefresh,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("bearer: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and registered claims of tokenString as of
// now, returning the decoded Claims on success.
func (c *Codec) Verify(tokenString string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !token.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuerMismatch
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrAudienceMismatch
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
