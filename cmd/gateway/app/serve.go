package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mcpgw/reddit-gateway/pkg/authserver"
	"github.com/mcpgw/reddit-gateway/pkg/bearer"
	"github.com/mcpgw/reddit-gateway/pkg/gwconfig"
	"github.com/mcpgw/reddit-gateway/pkg/logger"
	"github.com/mcpgw/reddit-gateway/pkg/mcpengine"
	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
	"github.com/mcpgw/reddit-gateway/pkg/mcpserver"
	"github.com/mcpgw/reddit-gateway/pkg/middleware"
	"github.com/mcpgw/reddit-gateway/pkg/oauthstate"
	"github.com/mcpgw/reddit-gateway/pkg/ratelimit"
	"github.com/mcpgw/reddit-gateway/pkg/redditregistry"
	"github.com/mcpgw/reddit-gateway/pkg/session"
	"github.com/mcpgw/reddit-gateway/pkg/streamtransport"
	"github.com/mcpgw/reddit-gateway/pkg/telemetry"
	"github.com/mcpgw/reddit-gateway/pkg/upstream"
)

const defaultGracefulTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP gateway HTTP server",
		Long: `Start the MCP gateway: the OAuth 2.1 authorization server, the
streaming-HTTP /mcp endpoint, and the liveness/index routes, all bound
to the address configured via MCPGW_LISTEN_ADDR.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := gwconfig.Load(viper.GetString("config"))
	if err != nil {
		logger.Errorf("configuration error: %v", err)
		os.Exit(1)
	}

	codec, err := bearer.NewCodec(cfg.SigningSecret, cfg.Issuer, cfg.Issuer, bearer.DefaultLifetime)
	if err != nil {
		return err
	}

	store, closeStore := newStore(cfg)
	defer closeStore()

	redditAuth := upstream.NewRedditClient(upstream.Config{
		ClientID:     cfg.UpstreamClientID,
		ClientSecret: cfg.UpstreamClientSecret,
		RedirectURL:  cfg.UpstreamCallbackURL,
		UserAgent:    cfg.UpstreamUserAgent,
	})

	auth := authserver.New(authserver.Params{
		Issuer:               cfg.Issuer,
		ResourceID:           cfg.Issuer,
		UpstreamCallbackURL:  cfg.UpstreamCallbackURL,
		Store:                store,
		Codec:                codec,
		UpstreamAuth:         redditAuth,
		SoftwareStatementKey: cfg.SoftwareStatementPublicKey,
	})

	limiter := ratelimit.New(cfg.RateLimitWindow, cfg.RateLimitCeiling)

	sessions := session.NewTable(session.DefaultIdleTTL, session.DefaultJanitorInterval, sessionFactory(redditAuth))
	defer sessions.Shutdown()

	mcpSrv := mcpserver.New(sessions)

	chain := middleware.Config{
		Codec:               codec,
		Limiter:             limiter,
		ResourceMetadataURL: auth.ResourceMetadataURL(),
	}

	metrics := telemetry.New()
	metrics.RegisterSessionGauge(sessions.Len)

	root := chi.NewRouter()
	root.Mount("/.well-known", metrics.HTTPMiddleware("/.well-known")(auth.WellKnownRouter()))
	root.Mount("/oauth", metrics.HTTPMiddleware("/oauth")(auth.Router()))
	root.Mount("/mcp", metrics.HTTPMiddleware("/mcp")(middleware.Chain(chain, mcpSrv.Router())))
	root.Handle("/metrics", metrics.Handler())
	root.Get("/health", mcpserver.NewHealthHandler(sessions))
	root.Get("/", mcpserver.IndexHandler(cfg.Issuer))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("gateway listening on %s (issuer %s)", cfg.ListenAddr, cfg.Issuer)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down gateway...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
		return err
	}
	logger.Info("gateway shutdown complete")
	return nil
}

// newStore selects the oauthstate backend: Redis when MCPGW_REDIS_URL is
// set, the in-memory default otherwise.
func newStore(cfg *gwconfig.Config) (oauthstate.Store, func()) {
	if cfg.RedisURL == "" {
		mem := oauthstate.NewMemory()
		return mem, func() { _ = mem.Close() }
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatalf("invalid MCPGW_REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	rs := oauthstate.NewRedisStore(client)
	logger.Info("oauthstate: using Redis-backed store for session affinity hints")
	return rs, func() {
		_ = rs.Close()
		_ = client.Close()
	}
}

// sessionFactory builds the per-session Instance + Transport pair, wiring
// the reference Reddit registries and the sampling_example continuation.
// Construction is two-phase: the tool registry's SamplingRequester closure
// must call back into the very instance that owns it, so the instance
// variable is declared first and assigned after.
func sessionFactory(api upstream.UpstreamApiPort) session.Factory {
	return func(sessionID string) (*mcpengine.Instance, *streamtransport.Transport) {
		t := streamtransport.New()

		// inst is assigned after construction; the closure below captures
		// the variable, not its (still-nil) value, so it safely resolves
		// to the live instance once a tool actually invokes it.
		var inst *mcpengine.Instance
		tools := redditregistry.NewTools(api, func(ctx context.Context, params mcpprotocol.CreateMessageParams) (mcpprotocol.CreateMessageResult, error) {
			return inst.RequestSampling(ctx, params)
		})
		prompts := redditregistry.NewPrompts()
		resources := redditregistry.NewResources(api)

		inst = mcpengine.New(mcpengine.Params{
			SessionID: sessionID,
			Transport: t,
			Tools:     tools,
			Prompts:   prompts,
			Resources: resources,
		})
		inst.RegisterContinuation("suggest_action", redditregistry.SuggestActionContinuation())

		return inst, t
	}
}
