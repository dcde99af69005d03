// Package mcpprotocol defines the JSON-RPC envelope and MCP message shapes
// that flow over StreamTransport: client-initiated requests and their
// responses, server-initiated requests (sampling) and their replies, and
// one-way notifications.
package mcpprotocol

import (
	"encoding/json"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
)

// ProtocolVersion is the MCP protocol version this gateway declares and
// checks against an inbound MCP-Protocol-Version header, when present.
const ProtocolVersion = "2025-06-18"

// RequestID is a JSON-RPC id: a string, a number, or absent (notification).
// MCP implementations commonly mint string ids; json.RawMessage lets this
// type round-trip whatever shape a client actually sent.
type RequestID = json.RawMessage

// Request is a JSON-RPC request or notification arriving on the client's
// side of the stream. ID is nil for a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      RequestID       `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether r carries no id and therefore expects no response.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is a JSON-RPC response the server sends back on the stream,
// either for a client-initiated request (Result/Error keyed by the
// client's id) or as the envelope around the client's reply to a
// server-initiated sampling request (same shape, id matches the
// correlation id the server minted).
type Response struct {
	JSONRPC string                 `json:"jsonrpc"`
	ID      RequestID              `json:"id"`
	Result  json.RawMessage        `json:"result,omitempty"`
	Error   *apierror.JSONRPCError `json:"error,omitempty"`
}

// ServerRequest is a server-initiated request (currently only
// sampling/createMessage) pushed down the stream toward the client.
type ServerRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      RequestID       `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Notification is a one-way, fire-and-forget server-to-client event. It
// carries no id and expects no reply.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewResponse builds a successful Response carrying result, marshaled.
func NewResponse(id RequestID, result any) (*Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Response{JSONRPC: "2.0", ID: id, Result: raw}, nil
}

// NewErrorResponse builds an error Response from err, rendered through
// apierror.ToJSONRPC so no raw cause ever reaches the wire.
func NewErrorResponse(id RequestID, err error) *Response {
	rpcErr := apierror.ToJSONRPC(err)
	return &Response{JSONRPC: "2.0", ID: id, Error: &rpcErr}
}

// NewNotification builds a Notification carrying params, marshaled.
func NewNotification(method string, params any) (*Notification, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return &Notification{JSONRPC: "2.0", Method: method, Params: raw}, nil
}
