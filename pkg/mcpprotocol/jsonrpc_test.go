package mcpprotocol

import (
	"encoding/json"
	"testing"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
)

func TestRequestIsNotificationWhenIDAbsent(t *testing.T) {
	req := Request{JSONRPC: "2.0", Method: "notifications/initialized"}
	if !req.IsNotification() {
		t.Error("IsNotification() = false, want true for an id-less request")
	}
}

func TestRequestIsNotRequestWhenIDPresent(t *testing.T) {
	req := Request{JSONRPC: "2.0", ID: json.RawMessage(`"1"`), Method: "tools/list"}
	if req.IsNotification() {
		t.Error("IsNotification() = true, want false when an id is present")
	}
}

func TestNewResponseMarshalsResult(t *testing.T) {
	resp, err := NewResponse(json.RawMessage(`"42"`), ToolsListResult{Tools: []Tool{{Name: "search_subreddit"}}})
	if err != nil {
		t.Fatalf("NewResponse() = %v", err)
	}
	var decoded ToolsListResult
	if err := json.Unmarshal(resp.Result, &decoded); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(decoded.Tools) != 1 || decoded.Tools[0].Name != "search_subreddit" {
		t.Errorf("decoded = %+v", decoded)
	}
	if string(resp.ID) != `"42"` {
		t.Errorf("ID = %s, want \"42\"", resp.ID)
	}
}

func TestNewErrorResponseNeverLeaksRawCause(t *testing.T) {
	resp := NewErrorResponse(json.RawMessage(`"7"`), errString("database exploded"))
	if resp.Error == nil {
		t.Fatal("Error = nil, want a JSONRPCError")
	}
	if resp.Error.Message == "database exploded" {
		t.Error("raw cause leaked into JSON-RPC error message")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Code = %d, want -32000 for a non-apierror cause", resp.Error.Code)
	}
}

func TestNewErrorResponseCarriesApierrorKind(t *testing.T) {
	resp := NewErrorResponse(json.RawMessage(`"7"`), apierror.New(apierror.KindInvalidArguments, "bad args").WithPaths([]string{"/limit"}))
	if resp.Error.Code != -32602 {
		t.Errorf("Code = %d, want -32602", resp.Error.Code)
	}
}

func TestNewNotificationHasNoID(t *testing.T) {
	note, err := NewNotification("notifications/progress", ProgressParams{ProgressToken: "abc", Progress: 0.5})
	if err != nil {
		t.Fatalf("NewNotification() = %v", err)
	}
	raw, err := json.Marshal(note)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, present := generic["id"]; present {
		t.Error("notification JSON carries an id field")
	}
}

type errString string

func (e errString) Error() string { return string(e) }
