// Package middleware implements the middleware chain applied to the /mcp
// endpoint in fixed order: bearer verification, rate limiting,
// protocol-version checking, and a request-size cap. The chain publishes
// verified claims into the request-scoped context for downstream handlers.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
	"github.com/mcpgw/reddit-gateway/pkg/bearer"
	"github.com/mcpgw/reddit-gateway/pkg/logger"
	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
	"github.com/mcpgw/reddit-gateway/pkg/ratelimit"
)

type claimsContextKey struct{}

// ClaimsFromContext recovers the verified bearer claims a prior BearerCheck
// stage published, for use by downstream handlers that need the caller's
// upstream credentials.
func ClaimsFromContext(ctx context.Context) (*bearer.Claims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(*bearer.Claims)
	return c, ok
}

// Config bundles the chain's construction-time collaborators.
type Config struct {
	Codec               *bearer.Codec
	Limiter             *ratelimit.FixedWindow
	ResourceMetadataURL string
	MaxBodyBytes        int64
}

// DefaultMaxBodyBytes caps request bodies at 10 MiB unless configured otherwise.
const DefaultMaxBodyBytes = 10 << 20

// Chain wraps next with BearerCheck, RateLimit, ProtocolVersionCheck, and
// RequestSizeCap, in that fixed order.
func Chain(cfg Config, next http.Handler) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	h := next
	h = requestSizeCap(cfg.MaxBodyBytes, h)
	h = protocolVersionCheck(h)
	h = rateLimit(cfg.Limiter, h)
	h = bearerCheck(cfg.Codec, cfg.ResourceMetadataURL, h)
	return h
}

// bearerCheck is stage 1: extract and verify the Authorization bearer
// token, publishing its claims into the request context on success.
func bearerCheck(codec *bearer.Codec, resourceMetadataURL string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(authz, "Bearer ")
		if !ok || token == "" {
			writeUnauthenticated(w, r, resourceMetadataURL, apierror.New(apierror.KindInvalidToken, "missing bearer token"))
			return
		}

		claims, err := codec.Verify(token, time.Now())
		if err != nil {
			writeUnauthenticated(w, r, resourceMetadataURL, apierror.New(apierror.KindInvalidToken, "invalid or expired bearer token"))
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// isStreamingAccept reports whether the caller's Accept header signals it
// wants a streaming connection, in which case a 401 is framed as a
// one-shot stream event rather than a bare status code a streaming client
// would misread as a transport failure.
func isStreamingAccept(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

func writeUnauthenticated(w http.ResponseWriter, r *http.Request, resourceMetadataURL string, err error) {
	if isStreamingAccept(r) {
		writeStreamedAuthError(w, err)
		return
	}
	w.Header().Set("WWW-Authenticate", `Bearer resource_metadata="`+resourceMetadataURL+`"`)
	apierror.WriteOAuth(w, err)
}

// writeStreamedAuthError opens the stream (so the client's transport layer
// sees a live connection, not a dropped one) and pushes a single JSON-RPC
// error frame before closing.
func writeStreamedAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json-seq")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusOK)
	resp := mcpprotocol.NewErrorResponse(nil, err)
	if flusher, ok := w.(http.Flusher); ok {
		enc := json.NewEncoder(w)
		_ = enc.Encode(resp)
		flusher.Flush()
	}
}

// rateLimit is stage 2: a fixed-window counter per remote address.
func rateLimit(limiter *ratelimit.FixedWindow, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !limiter.Allow(key) {
			w.Header().Set("Retry-After", formatRetryAfter(limiter.ResetAt(key)))
			apierror.WriteOAuth(w, apierror.New(apierror.KindRateLimited, "rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if host, _, err := splitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// protocolVersionCheck is stage 3: if the caller sent an MCP-Protocol-Version
// header, it must match this server's declared version.
func protocolVersionCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := r.Header.Get("MCP-Protocol-Version")
		if v != "" && v != mcpprotocol.ProtocolVersion {
			logger.Warnw("middleware: protocol version mismatch", "got", v, "want", mcpprotocol.ProtocolVersion)
			writeJSONRPCError(w, apierror.New(apierror.KindInvalidRequest, "unsupported MCP-Protocol-Version "+v))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestSizeCap is stage 4: caps the request body at maxBytes, returning
// 413 if exceeded.
func requestSizeCap(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxBytes {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}

func writeJSONRPCError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	resp := mcpprotocol.NewErrorResponse(nil, err)
	_ = json.NewEncoder(w).Encode(resp)
}
