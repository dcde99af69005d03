package mcpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeLenCounter struct{ n int }

func (f fakeLenCounter) Len() int { return f.n }

func TestHealthHandlerReportsActiveSessionsAndCapabilities(t *testing.T) {
	h := NewHealthHandler(fakeLenCounter{n: 3})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if got := body["active_sessions"].(float64); got != 3 {
		t.Errorf("active_sessions = %v, want 3", got)
	}
	caps, ok := body["capabilities"].(map[string]any)
	if !ok {
		t.Fatalf("capabilities = %+v", body["capabilities"])
	}
	for _, key := range []string{"tools", "prompts", "resources", "sampling"} {
		if caps[key] != true {
			t.Errorf("capabilities[%q] = %v, want true", key, caps[key])
		}
	}
}

func TestIndexHandlerNamesEveryEndpointAbsolutely(t *testing.T) {
	h := IndexHandler("https://gw.example")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	endpoints, ok := body["endpoints"].(map[string]any)
	if !ok {
		t.Fatalf("endpoints = %+v", body["endpoints"])
	}
	want := map[string]string{
		"authorization_server_metadata": "https://gw.example/.well-known/oauth-authorization-server",
		"protected_resource_metadata":   "https://gw.example/.well-known/oauth-protected-resource",
		"register":                      "https://gw.example/oauth/register",
		"authorize":                     "https://gw.example/oauth/authorize",
		"token":                         "https://gw.example/oauth/token",
		"mcp":                           "https://gw.example/mcp",
		"health":                        "https://gw.example/health",
		"metrics":                       "https://gw.example/metrics",
	}
	for key, wantURL := range want {
		if endpoints[key] != wantURL {
			t.Errorf("endpoints[%q] = %v, want %q", key, endpoints[key], wantURL)
		}
	}
}
