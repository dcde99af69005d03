// Package apierror defines the error kinds visible at the gateway's two
// boundaries — OAuth endpoints and the MCP JSON-RPC endpoint — and the
// helpers that render them without ever leaking the underlying cause.
package apierror

import (
	"encoding/json"
	"net/http"
)

// Kind is one of the canonical error codes the gateway surfaces at its
// boundary. Kinds are stable strings; callers match on them with ==, never
// by parsing a human-readable description.
type Kind string

// The full set of boundary error kinds.
const (
	KindInvalidRequest         Kind = "invalid_request"
	KindUnsupportedResponse    Kind = "unsupported_response_type"
	KindUnsupportedGrant       Kind = "unsupported_grant_type"
	KindInvalidGrant           Kind = "invalid_grant"
	KindInvalidToken           Kind = "invalid_token"
	KindAccessDenied           Kind = "access_denied"
	KindUpstreamError          Kind = "upstream_error"
	KindAuthenticationRequired Kind = "authentication_required"
	KindSessionNotFound        Kind = "session_not_found"
	KindInvalidArguments       Kind = "invalid_arguments"
	KindNotFound               Kind = "not_found"
	KindDeadlineExceeded       Kind = "deadline_exceeded"
	KindTransportClosed        Kind = "transport_closed"
	KindRateLimited            Kind = "rate_limited"
	KindServerError            Kind = "server_error"
)

// Error is the gateway's boundary error type: a stable Kind plus a
// human-readable description that is always safe to render to a caller —
// never the underlying Go error's own message unless it was already vetted.
type Error struct {
	Kind        Kind
	Description string
	// Paths names the offending JSON-pointer-ish paths for KindInvalidArguments.
	Paths []string
}

func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Description
}

// New constructs an Error.
func New(kind Kind, description string) *Error {
	return &Error{Kind: kind, Description: description}
}

// WithPaths attaches offending argument paths, used for KindInvalidArguments.
func (e *Error) WithPaths(paths []string) *Error {
	e.Paths = paths
	return e
}

// httpStatus maps a Kind to the HTTP status code used for OAuth JSON
// responses per RFC 6749 §5.2 and this gateway's own extensions.
func httpStatus(kind Kind) int {
	switch kind {
	case KindInvalidToken:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindAccessDenied:
		return http.StatusForbidden
	case KindUpstreamError, KindServerError:
		return http.StatusBadGateway
	case KindNotFound, KindSessionNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// oauthBody is the RFC 6749 §5.2 error response shape.
type oauthBody struct {
	Error            Kind     `json:"error"`
	ErrorDescription string   `json:"error_description,omitempty"`
	Paths            []string `json:"paths,omitempty"`
}

// WriteOAuth renders err as a JSON OAuth error body with the matching HTTP
// status code. If err is not an *Error, it is reported as KindServerError
// with no detail leaked.
func WriteOAuth(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*Error)
	if !ok {
		apiErr = New(KindServerError, "internal error")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus(apiErr.Kind))
	_ = json.NewEncoder(w).Encode(oauthBody{
		Error:            apiErr.Kind,
		ErrorDescription: apiErr.Description,
		Paths:            apiErr.Paths,
	})
}

// JSONRPCError is the {code, message, data} error object of a JSON-RPC
// response, used on the /mcp endpoint.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// jsonrpcCode maps a Kind to a JSON-RPC error code. The MCP-specific kinds
// get codes in the -32000 "server error" reserved band; malformed-request
// kinds reuse the standard JSON-RPC codes.
func jsonrpcCode(kind Kind) int {
	switch kind {
	case KindInvalidArguments, KindInvalidRequest:
		return -32602 // Invalid params
	case KindNotFound:
		return -32601 // Method/resource not found
	case KindAuthenticationRequired:
		return -32001
	case KindSessionNotFound:
		return -32002
	case KindDeadlineExceeded:
		return -32003
	case KindTransportClosed:
		return -32004
	case KindRateLimited:
		return -32005
	case KindUpstreamError:
		return -32006
	default:
		return -32000
	}
}

// ToJSONRPC converts err into a JSON-RPC error object. Non-*Error values are
// reported as KindServerError with no detail leaked.
func ToJSONRPC(err error) JSONRPCError {
	apiErr, ok := err.(*Error)
	if !ok {
		apiErr = New(KindServerError, "internal error")
	}
	var data any
	if len(apiErr.Paths) > 0 {
		data = map[string]any{"paths": apiErr.Paths}
	}
	return JSONRPCError{
		Code:    jsonrpcCode(apiErr.Kind),
		Message: apiErr.Error(),
		Data:    data,
	}
}
