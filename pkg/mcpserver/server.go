// Package mcpserver wires the session table, protocol engine, and stream
// transport onto the authenticated /mcp endpoint: the streaming-HTTP
// surface a bound caller's JSON-RPC traffic flows through.
package mcpserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mcpgw/reddit-gateway/pkg/logger"
	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
	"github.com/mcpgw/reddit-gateway/pkg/middleware"
	"github.com/mcpgw/reddit-gateway/pkg/session"
	"github.com/mcpgw/reddit-gateway/pkg/upstream"
)

// Server is the /mcp HTTP surface: session binding, request dispatch, and
// the server-push stream.
type Server struct {
	table *session.Table
}

// New constructs a Server backed by table.
func New(table *session.Table) *Server {
	return &Server{table: table}
}

// Router mounts the single /mcp route: POST for request/reply traffic,
// GET for the server-push stream.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handleStream)
	r.Post("/", s.handleRequest)
	return r
}

// bindSession resolves the session for r, binding the caller's verified
// upstream credentials onto it, and echoes the session id header.
func (s *Server) bindSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	requestedID := r.Header.Get("Mcp-Session-Id")
	sess, mintedID, err := s.table.BindOrCreate(requestedID)
	if err != nil {
		writeSessionError(w, err)
		return nil, false
	}
	w.Header().Set("Mcp-Session-Id", mintedID)
	w.Header().Add("Access-Control-Expose-Headers", "Mcp-Session-Id")

	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		sess.Instance().SetCredentials(upstream.Credentials{
			AccessToken:  claims.UpstreamAccessToken,
			RefreshToken: claims.UpstreamRefreshToken,
			ExpiresAt:    claims.ExpiresAt.Time,
		})
	}
	return sess, true
}

// handleRequest implements the POST leg: one JSON-RPC message in, at most
// one JSON-RPC message out, dispatched through the session's McpInstance.
// A client's reply to a server-initiated sampling request also arrives
// this way; Dispatch classifies it and produces no synchronous body.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.bindSession(w, r)
	if !ok {
		return
	}

	body, err := readBody(r)
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	out := sess.Instance().Dispatch(r.Context(), body)
	w.Header().Set("Content-Type", "application/json")
	if out == nil {
		// Notification or sampling reply: fire-and-forget, no synchronous body.
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// handleStream implements the GET leg: the long-lived server-push channel
// that carries notifications and server-initiated sampling requests for
// the bound session.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.bindSession(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/json-seq")
	w.WriteHeader(http.StatusOK)
	if canFlush {
		flusher.Flush()
	}

	transport := sess.Transport()
	ctx := r.Context()
	enc := json.NewEncoder(w)
	for {
		select {
		case frame := <-transport.Outbound():
			if err := enc.Encode(json.RawMessage(frame.Payload)); err != nil {
				logger.Warnw("mcpserver: failed writing stream frame", "session_id", sess.ID(), "error", err)
				s.table.Remove(sess.ID())
				return
			}
			if canFlush {
				flusher.Flush()
			}
		case <-ctx.Done():
			// The client dropped the stream: retire the session so its
			// outstanding sampling calls resolve transport_closed and later
			// requests carrying this id fail session_not_found.
			s.table.Remove(sess.ID())
			return
		case <-transport.Done():
			return
		}
	}
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func writeSessionError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(mcpprotocol.NewErrorResponse(nil, err))
}
