// Package session implements the concurrent map from session id to
// Session: a single-caller MCP engine and its streaming transport,
// addressed by a server-minted id, reaped by a background janitor once
// idle past its TTL.
package session

import (
	"sync"
	"time"

	"github.com/mcpgw/reddit-gateway/pkg/mcpengine"
	"github.com/mcpgw/reddit-gateway/pkg/streamtransport"
)

// Session is one caller's bound MCP engine and transport.
type Session struct {
	id        string
	instance  *mcpengine.Instance
	transport *streamtransport.Transport
	createdAt time.Time

	mu        sync.Mutex
	updatedAt time.Time
	closed    bool
}

// ID returns the session's server-minted id.
func (s *Session) ID() string { return s.id }

// Instance returns the session's MCP protocol engine.
func (s *Session) Instance() *mcpengine.Instance { return s.instance }

// Transport returns the session's streaming transport.
func (s *Session) Transport() *streamtransport.Transport { return s.transport }

// CreatedAt returns when the session was first bound.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the session's last-touched timestamp.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// touch advances the last-touched timestamp to now, under the session's own
// guard rather than the table's lock.
func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedAt = now
}

// idleFor reports how long the session has gone untouched as of now.
func (s *Session) idleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.updatedAt)
}

// Close closes the session's transport and engine. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.instance.Close()
	s.transport.Close()
}
