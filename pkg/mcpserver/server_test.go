package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mcpgw/reddit-gateway/pkg/mcpengine"
	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
	"github.com/mcpgw/reddit-gateway/pkg/registry"
	"github.com/mcpgw/reddit-gateway/pkg/session"
	"github.com/mcpgw/reddit-gateway/pkg/streamtransport"
)

func testTable(t *testing.T) *session.Table {
	t.Helper()
	tools := registry.NewInMemoryTools(registry.ToolSpec{
		Name:        "echo",
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Execute: func(_ context.Context, _ registry.HandlerContext, args json.RawMessage) (mcpprotocol.CallToolResult, error) {
			return mcpprotocol.CallToolResult{Content: []mcpprotocol.ContentBlock{{Type: "text", Text: string(args)}}}, nil
		},
	})
	factory := func(sessionID string) (*mcpengine.Instance, *streamtransport.Transport) {
		tr := streamtransport.New()
		inst := mcpengine.New(mcpengine.Params{
			SessionID: sessionID,
			Transport: tr,
			Tools:     tools,
			Prompts:   registry.NewInMemoryPrompts(),
			Resources: registry.NewInMemoryResources(),
		})
		return inst, tr
	}
	tbl := session.NewTable(time.Hour, time.Hour, factory)
	t.Cleanup(tbl.Shutdown)
	return tbl
}

func TestHandleRequestMintsSessionAndDispatches(t *testing.T) {
	srv := New(testTable(t))
	body := []byte(`{"jsonrpc":"2.0","id":"1","method":"tools/list"}`)
	req := httptest.NewRequest(http.MethodPost, "/", bytesReader(body))
	rr := httptest.NewRecorder()

	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rr.Code)
	}
	sessionID := rr.Header().Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("expected Mcp-Session-Id header to be set on a fresh session")
	}

	var resp mcpprotocol.Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("resp.Error = %+v", resp.Error)
	}
}

func TestHandleRequestRebindsExistingSession(t *testing.T) {
	srv := New(testTable(t))

	first := httptest.NewRequest(http.MethodPost, "/", bytesReader([]byte(`{"jsonrpc":"2.0","id":"1","method":"tools/list"}`)))
	rr1 := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr1, first)
	sessionID := rr1.Header().Get("Mcp-Session-Id")

	second := httptest.NewRequest(http.MethodPost, "/", bytesReader([]byte(`{"jsonrpc":"2.0","id":"2","method":"tools/list"}`)))
	second.Header.Set("Mcp-Session-Id", sessionID)
	rr2 := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr2, second)

	if rr2.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rr2.Code)
	}
	if got := rr2.Header().Get("Mcp-Session-Id"); got != sessionID {
		t.Errorf("Mcp-Session-Id = %q, want %q", got, sessionID)
	}
}

func TestHandleRequestUnknownSessionIdIsNotFound(t *testing.T) {
	srv := New(testTable(t))
	req := httptest.NewRequest(http.MethodPost, "/", bytesReader([]byte(`{"jsonrpc":"2.0","id":"1","method":"tools/list"}`)))
	req.Header.Set("Mcp-Session-Id", "does-not-exist")
	rr := httptest.NewRecorder()

	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Code = %d, want 404", rr.Code)
	}
}

func TestHandleRequestNotificationReturnsAcceptedWithNoBody(t *testing.T) {
	srv := New(testTable(t))
	req := httptest.NewRequest(http.MethodPost, "/", bytesReader([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
	rr := httptest.NewRecorder()

	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Errorf("Code = %d, want 202", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", rr.Body.String())
	}
}

func TestHandleStreamClosesWhenContextCanceled(t *testing.T) {
	srv := New(testTable(t))
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	rr := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.Router().ServeHTTP(rr, req)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handleStream did not return after context cancellation")
	}
	if rr.Code != http.StatusOK {
		t.Errorf("Code = %d, want 200", rr.Code)
	}
}

// TestStreamDisconnectRetiresSession verifies that once the client drops
// its stream, requests carrying the old session id fail with
// session_not_found.
func TestStreamDisconnectRetiresSession(t *testing.T) {
	srv := New(testTable(t))

	first := httptest.NewRequest(http.MethodPost, "/", bytesReader([]byte(`{"jsonrpc":"2.0","id":"1","method":"tools/list"}`)))
	rr1 := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr1, first)
	sessionID := rr1.Header().Get("Mcp-Session-Id")

	ctx, cancel := context.WithCancel(context.Background())
	streamReq := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	streamReq.Header.Set("Mcp-Session-Id", sessionID)
	streamDone := make(chan struct{})
	go func() {
		srv.Router().ServeHTTP(httptest.NewRecorder(), streamReq)
		close(streamDone)
	}()

	cancel()
	select {
	case <-streamDone:
	case <-time.After(time.Second):
		t.Fatal("stream handler did not return after disconnect")
	}

	after := httptest.NewRequest(http.MethodPost, "/", bytesReader([]byte(`{"jsonrpc":"2.0","id":"2","method":"tools/list"}`)))
	after.Header.Set("Mcp-Session-Id", sessionID)
	rr2 := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr2, after)

	if rr2.Code != http.StatusNotFound {
		t.Errorf("Code = %d, want 404 after stream disconnect", rr2.Code)
	}
	var resp mcpprotocol.Response
	if err := json.Unmarshal(rr2.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("expected a JSON-RPC session_not_found error body")
	}
}

func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}
