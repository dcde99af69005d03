package upstream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
	"github.com/mcpgw/reddit-gateway/pkg/logger"
	"github.com/mcpgw/reddit-gateway/pkg/ratelimit"
)

const (
	redditAuthURL     = "https://www.reddit.com/api/v1/authorize"
	redditTokenURL    = "https://www.reddit.com/api/v1/access_token"
	redditAPIBase     = "https://oauth.reddit.com"
	redditIdentityURL = redditAPIBase + "/api/v1/me"
)

// RedditClient is the reference UpstreamAuthClient/UpstreamApiPort
// implementation. One instance is shared process-wide; its pacer enforces a
// baseline request rate across every session, since Reddit's rate limit is
// scoped to the gateway's own app credentials, not to the end user.
type RedditClient struct {
	oauthCfg    oauth2.Config
	userAgent   string
	httpc       *http.Client
	pacer       *ratelimit.Pacer
	apiBase     string
	identityURL string
}

// Config holds the fields RedditClient needs beyond the OAuth client
// id/secret/redirect, which are passed explicitly to NewRedditClient.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	UserAgent    string
	Scopes       []string
}

// NewRedditClient constructs a RedditClient paced at ~1 request/second with
// a burst of 1, matching the concurrency model's baseline.
func NewRedditClient(cfg Config) *RedditClient {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"identity", "read"}
	}
	return &RedditClient{
		oauthCfg: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   redditAuthURL,
				TokenURL:  redditTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		userAgent:   cfg.UserAgent,
		httpc:       &http.Client{Timeout: 15 * time.Second},
		pacer:       ratelimit.NewPacer(1, 1),
		apiBase:     redditAPIBase,
		identityURL: redditIdentityURL,
	}
}

// WithTestEndpoints overrides the API base and identity URL, for tests that
// need to point the client at a local httptest server instead of Reddit.
func (c *RedditClient) WithTestEndpoints(apiBase, identityURL string) *RedditClient {
	c.apiBase = apiBase
	c.identityURL = identityURL
	return c
}

// AuthorizeURL implements UpstreamAuthClient.
func (c *RedditClient) AuthorizeURL(state string) string {
	return c.oauthCfg.AuthCodeURL(state, oauth2.SetAuthURLParam("duration", "permanent"))
}

// ExchangeCode implements UpstreamAuthClient.
func (c *RedditClient) ExchangeCode(ctx context.Context, code, redirectURI string) (ExchangeResult, error) {
	cfg := c.oauthCfg
	cfg.RedirectURL = redirectURI
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.userAgentClient())

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		logger.Warnw("upstream: authorization code exchange failed", "error", err)
		return ExchangeResult{}, apierror.New(apierror.KindUpstreamError, "upstream token exchange failed")
	}
	return ExchangeResult{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    time.Until(tok.Expiry),
	}, nil
}

// Refresh implements UpstreamAuthClient.
func (c *RedditClient) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.userAgentClient())
	src := c.oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		logger.Warnw("upstream: refresh failed", "error", err)
		return RefreshResult{}, apierror.New(apierror.KindUpstreamError, "upstream token refresh failed")
	}
	return RefreshResult{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    time.Until(tok.Expiry),
	}, nil
}

// IdentifyUser implements UpstreamAuthClient.
func (c *RedditClient) IdentifyUser(ctx context.Context, accessToken string) (string, error) {
	body, err := c.getAuthed(ctx, Credentials{AccessToken: accessToken}, c.identityURL)
	if err != nil {
		return "", err
	}
	name := gjson.GetBytes(body, "name").String()
	if name == "" {
		return "", apierror.New(apierror.KindUpstreamError, "upstream identity response missing name")
	}
	return name, nil
}

// GetPost implements UpstreamApiPort.
func (c *RedditClient) GetPost(ctx context.Context, creds Credentials, id string) (map[string]any, error) {
	url := fmt.Sprintf("%s/api/info?id=%s", c.apiBase, id)
	return c.getJSONObject(ctx, creds, url)
}

// SearchSubreddit implements UpstreamApiPort.
func (c *RedditClient) SearchSubreddit(ctx context.Context, creds Credentials, subreddit, query string, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = 25
	}
	url := fmt.Sprintf("%s/r/%s/search?q=%s&restrict_sr=1&limit=%d", c.apiBase, subreddit, query, limit)
	body, err := c.getAuthed(ctx, creds, url)
	if err != nil {
		return nil, err
	}
	var posts []map[string]any
	for _, child := range gjson.GetBytes(body, "data.children").Array() {
		if data, ok := child.Get("data").Value().(map[string]any); ok {
			posts = append(posts, data)
		}
	}
	return posts, nil
}

// SubredditAbout implements UpstreamApiPort.
func (c *RedditClient) SubredditAbout(ctx context.Context, creds Credentials, subreddit string) (map[string]any, error) {
	url := fmt.Sprintf("%s/r/%s/about", c.apiBase, subreddit)
	return c.getJSONObject(ctx, creds, url)
}

func (c *RedditClient) getJSONObject(ctx context.Context, creds Credentials, url string) (map[string]any, error) {
	body, err := c.getAuthed(ctx, creds, url)
	if err != nil {
		return nil, err
	}
	data := gjson.GetBytes(body, "data")
	obj, ok := data.Value().(map[string]any)
	if !ok {
		return nil, apierror.New(apierror.KindUpstreamError, "unexpected upstream response shape")
	}
	return obj, nil
}

func (c *RedditClient) getAuthed(ctx context.Context, creds Credentials, url string) ([]byte, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, apierror.New(apierror.KindUpstreamError, "upstream call pacing cancelled")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apierror.New(apierror.KindServerError, "failed to build upstream request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	if creds.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		logger.Warnw("upstream: request failed", "url", url, "error", err)
		return nil, apierror.New(apierror.KindUpstreamError, "upstream request failed")
	}
	defer resp.Body.Close()

	body, err := readAllLimited(resp.Body)
	if err != nil {
		return nil, apierror.New(apierror.KindUpstreamError, "failed reading upstream response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warnw("upstream: non-2xx response", "url", url, "status", resp.StatusCode)
		return nil, apierror.New(apierror.KindUpstreamError, fmt.Sprintf("upstream returned status %d", resp.StatusCode))
	}
	return body, nil
}

// userAgentClient returns an *http.Client that stamps the configured
// User-Agent on every request the oauth2 package issues internally (token
// exchange and refresh), which oauth2.Config itself has no hook for.
func (c *RedditClient) userAgentClient() *http.Client {
	return &http.Client{
		Timeout: c.httpc.Timeout,
		Transport: userAgentRoundTripper{
			next:      http.DefaultTransport,
			userAgent: c.userAgent,
		},
	}
}

type userAgentRoundTripper struct {
	next      http.RoundTripper
	userAgent string
}

func (rt userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.Header.Set("User-Agent", rt.userAgent)
	return rt.next.RoundTrip(cloned)
}

var _ UpstreamAuthClient = (*RedditClient)(nil)
var _ UpstreamApiPort = (*RedditClient)(nil)
