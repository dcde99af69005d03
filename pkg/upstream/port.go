// Package upstream defines the narrow collaborator interfaces the core
// depends on for everything upstream-specific, plus a concrete
// implementation against Reddit's OAuth2 API as the reference upstream.
package upstream

import (
	"context"
	"time"
)

// Credentials is the upstream access/refresh token pair the gateway's
// bearer token carries. ExpiresAt is the upstream access token's own expiry,
// used to decide whether a proactive refresh is due.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// NearExpiry reports whether the credential's access token expires within
// window of now — the trigger for a proactive refresh.
func (c Credentials) NearExpiry(now time.Time, window time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !c.ExpiresAt.After(now.Add(window))
}

// ExchangeResult is what UpstreamAuthClient.ExchangeCode returns.
type ExchangeResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// RefreshResult is what UpstreamAuthClient.Refresh returns. Some upstreams
// (Reddit included) do not rotate the refresh token on refresh; RefreshToken
// is empty in that case and callers must keep the prior one.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// UpstreamAuthClient exchanges upstream authorization codes for upstream
// tokens and resolves the upstream's canonical user id. Implementations are
// authentication-only — they know nothing about sessions or bearer tokens.
type UpstreamAuthClient interface {
	// AuthorizeURL returns the URL to redirect the user agent to, carrying
	// state as the upstream's own state parameter.
	AuthorizeURL(state string) string

	// ExchangeCode redeems an upstream authorization code for an upstream
	// token pair. Fails with apierror.KindUpstreamError on non-2xx.
	ExchangeCode(ctx context.Context, code, redirectURI string) (ExchangeResult, error)

	// Refresh redeems a refresh token for a fresh upstream access token.
	// Fails with apierror.KindUpstreamError on non-2xx.
	Refresh(ctx context.Context, refreshToken string) (RefreshResult, error)

	// IdentifyUser resolves the upstream's canonical user identifier for
	// accessToken. Failures here are fatal to the in-flight flow.
	IdentifyUser(ctx context.Context, accessToken string) (string, error)
}

// UpstreamApiPort is the façade upstream-sensitive tools and resources call
// through. It is never used by AuthServer or SessionTable — only by
// McpInstance's tool/resource execution path.
type UpstreamApiPort interface {
	// GetPost fetches a single post by fullname, as a loosely-typed document
	// the tool layer shapes into its own response. Comments are not
	// fetched, and permalinks are not accepted.
	GetPost(ctx context.Context, creds Credentials, id string) (map[string]any, error)

	// SearchSubreddit runs a search scoped to subreddit, returning up to
	// limit matching posts.
	SearchSubreddit(ctx context.Context, creds Credentials, subreddit, query string, limit int) ([]map[string]any, error)

	// SubredditAbout fetches a subreddit's "about" document, backing the
	// reddit://subreddit/{name}/about resource.
	SubredditAbout(ctx context.Context, creds Credentials, subreddit string) (map[string]any, error)
}
