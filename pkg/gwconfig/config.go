// Package gwconfig loads the gateway's process configuration: an immutable
// Config assembled once at startup from environment variables (prefix
// MCPGW_) and an optional config file via spf13/viper, with a fatal error
// on any missing required field.
package gwconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the immutable process configuration. Every field here is read
// once at startup; nothing in the core ever mutates it.
type Config struct {
	// Issuer is this gateway's own absolute base URL: the OAuth "iss"
	// claim and the root discovery document endpoints are built from it.
	Issuer string
	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string
	// UpstreamCallbackURL is the gateway's own registered redirect URI
	// with the upstream IdP. Defaults to Issuer + "/oauth/reddit/callback".
	UpstreamCallbackURL string
	// UpstreamClientID/UpstreamClientSecret are the gateway's own OAuth
	// client credentials registered with the upstream.
	UpstreamClientID     string
	UpstreamClientSecret string
	// UpstreamUserAgent is sent on every upstream request; Reddit's API
	// policy requires a distinctive, non-generic user agent.
	UpstreamUserAgent string
	// SigningSecret signs bearer tokens. Invariant: at least 32 bytes.
	SigningSecret []byte
	// RateLimitWindow/RateLimitCeiling configure the edge fixed-window
	// limiter applied to the MCP endpoint.
	RateLimitWindow  time.Duration
	RateLimitCeiling int
	// RedisURL, if set, switches OAuthStateStore to the Redis-backed
	// implementation instead of the in-memory default.
	RedisURL string
	// SoftwareStatementPublicKey, if set, is a PEM-encoded RSA public key
	// dynamic client registration requests' optional software_statement
	// must verify against. Left empty, the field is accepted unverified.
	SoftwareStatementPublicKey string
}

// envPrefix is the viper environment variable prefix.
const envPrefix = "MCPGW"

// requiredKeys are the variables whose absence is a fatal startup error.
var requiredKeys = []string{
	"upstream_client_id",
	"upstream_client_secret",
	"signing_secret",
}

// Load builds a Config from the environment (and configFile, if non-empty),
// applying defaults for every optional field. It returns an error naming
// every missing required field at once, rather than failing on the first.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", "0.0.0.0:3000")
	v.SetDefault("upstream_user_agent", "reddit-gateway/1.0 (by /u/mcpgw)")
	v.SetDefault("rate_limit_window", 60*time.Second)
	v.SetDefault("rate_limit_ceiling", 100)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("gwconfig: reading config file %s: %w", configFile, err)
		}
	}

	var missing []string
	for _, key := range requiredKeys {
		if v.GetString(key) == "" {
			missing = append(missing, strings.ToUpper(envPrefix+"_"+key))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("gwconfig: missing required configuration: %s", strings.Join(missing, ", "))
	}

	issuer := v.GetString("issuer")
	if issuer == "" {
		issuer = "http://" + v.GetString("listen_addr")
	}
	issuer = strings.TrimSuffix(issuer, "/")

	callback := v.GetString("upstream_callback_url")
	if callback == "" {
		callback = issuer + "/oauth/reddit/callback"
	}

	secret := v.GetString("signing_secret")
	if len(secret) < 32 {
		return nil, fmt.Errorf("gwconfig: %s_SIGNING_SECRET must be at least 32 bytes, got %d", envPrefix, len(secret))
	}

	cfg := &Config{
		Issuer:                     issuer,
		ListenAddr:                 v.GetString("listen_addr"),
		UpstreamCallbackURL:        callback,
		UpstreamClientID:           v.GetString("upstream_client_id"),
		UpstreamClientSecret:       v.GetString("upstream_client_secret"),
		UpstreamUserAgent:          v.GetString("upstream_user_agent"),
		SigningSecret:              []byte(secret),
		RateLimitWindow:            v.GetDuration("rate_limit_window"),
		RateLimitCeiling:           v.GetInt("rate_limit_ceiling"),
		RedisURL:                   v.GetString("redis_url"),
		SoftwareStatementPublicKey: v.GetString("software_statement_public_key"),
	}
	return cfg, nil
}
