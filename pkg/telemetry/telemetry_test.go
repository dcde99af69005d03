package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddlewareCountsRequestsByRouteAndCode(t *testing.T) {
	m := New()
	handler := m.HTTPMiddleware("/mcp")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("/mcp", "202"))
	assert.Equal(t, 3.0, got)
}

func TestHTTPMiddlewareDefaultsStatusToOK(t *testing.T) {
	m := New()
	handler := m.HTTPMiddleware("/health")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok")) // implicit 200, no explicit WriteHeader
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("/health", "200"))
	assert.Equal(t, 1.0, got)
}

func TestHTTPMiddlewarePreservesFlusher(t *testing.T) {
	m := New()
	var sawFlusher bool
	handler := m.HTTPMiddleware("/mcp")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, sawFlusher = w.(http.Flusher)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.True(t, sawFlusher, "instrumented writer must keep http.Flusher for the stream leg")
}

func TestSessionGaugeReadsCountOnScrape(t *testing.T) {
	m := New()
	live := 0
	m.RegisterSessionGauge(func() int { return live })

	live = 7
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gateway_active_sessions 7")
}

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	m := New()
	handler := m.HTTPMiddleware("/oauth")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/oauth/token", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"gateway_http_requests_total",
		"gateway_http_request_duration_seconds",
		"go_goroutines", // runtime collector is registered too
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape body missing %q", want)
		}
	}
}
