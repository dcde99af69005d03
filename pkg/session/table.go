package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
	"github.com/mcpgw/reddit-gateway/pkg/logger"
	"github.com/mcpgw/reddit-gateway/pkg/mcpengine"
	"github.com/mcpgw/reddit-gateway/pkg/streamtransport"
)

// A session is evicted once idle past DefaultIdleTTL; the janitor visits
// every DefaultJanitorInterval.
const (
	DefaultIdleTTL         = 60 * time.Minute
	DefaultJanitorInterval = 5 * time.Minute
)

// Factory builds the McpInstance + Transport pair for a freshly bound
// session id. Supplied by the caller (cmd/gateway) so Table stays agnostic
// of which registries back a given deployment.
type Factory func(sessionID string) (*mcpengine.Instance, *streamtransport.Transport)

// Table is the concurrent session → Session map, with a background janitor
// that evicts sessions idle past ttl.
type Table struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	factory  Factory
	now      func() time.Time

	janitorInterval time.Duration
	stopOnce        sync.Once
	stopCh          chan struct{}
	doneCh          chan struct{}
}

// NewTable constructs a Table and starts its janitor goroutine.
func NewTable(ttl, janitorInterval time.Duration, factory Factory) *Table {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	if janitorInterval <= 0 {
		janitorInterval = DefaultJanitorInterval
	}
	t := &Table{
		sessions:        make(map[string]*Session),
		ttl:             ttl,
		factory:         factory,
		now:             time.Now,
		janitorInterval: janitorInterval,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
	go t.janitorLoop()
	return t
}

// BindOrCreate resolves the session for a request: if requestedID is
// empty, a fresh session is minted and returned alongside its new id; if
// requestedID names an existing session, that Session is returned with its
// last-touched timestamp refreshed. An unknown requestedID fails with
// apierror.KindSessionNotFound.
func (t *Table) BindOrCreate(requestedID string) (sess *Session, mintedID string, err error) {
	now := t.now()

	if requestedID == "" {
		id := uuid.NewString()
		inst, transport := t.factory(id)
		sess = &Session{
			id:        id,
			instance:  inst,
			transport: transport,
			createdAt: now,
			updatedAt: now,
		}
		t.mu.Lock()
		t.sessions[id] = sess
		t.mu.Unlock()
		return sess, id, nil
	}

	t.mu.RLock()
	sess, ok := t.sessions[requestedID]
	t.mu.RUnlock()
	if !ok {
		return nil, "", apierror.New(apierror.KindSessionNotFound, "unknown session id "+requestedID)
	}
	sess.touch(now)
	return sess, requestedID, nil
}

// GetByID looks up a session without touching it. The /mcp handlers,
// notifications included, resolve sessions through BindOrCreate instead,
// which refreshes the last-touched timestamp.
func (t *Table) GetByID(id string) (*Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	return s, ok
}

// Remove closes the session for id and drops it from the table, used when a
// caller's stream disconnects: outstanding sampling calls resolve
// transport_closed and later requests carrying id fail session_not_found.
// Removing an unknown id is a no-op.
func (t *Table) Remove(id string) {
	t.mu.Lock()
	s, ok := t.sessions[id]
	if ok {
		delete(t.sessions, id)
	}
	t.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Len reports the number of live sessions, for health/diagnostics.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

func (t *Table) janitorLoop() {
	defer close(t.doneCh)
	ticker := time.NewTicker(t.janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.sweepOnce()
		case <-t.stopCh:
			return
		}
	}
}

// sweepOnce evicts every session idle past ttl, closing its transport and
// engine before removing it from the table. Exported indirectly via the
// janitor loop; also called directly by tests.
func (t *Table) sweepOnce() {
	now := t.now()
	var evicted []*Session

	t.mu.Lock()
	for id, s := range t.sessions {
		if s.idleFor(now) > t.ttl {
			evicted = append(evicted, s)
			delete(t.sessions, id)
		}
	}
	t.mu.Unlock()

	for _, s := range evicted {
		logger.Infow("session: evicting idle session", "session_id", s.id, "idle_for", s.idleFor(now))
		s.Close()
	}
}

// Shutdown closes every live session and stops the janitor.
func (t *Table) Shutdown() {
	t.stopOnce.Do(func() { close(t.stopCh) })
	<-t.doneCh

	t.mu.Lock()
	sessions := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		sessions = append(sessions, s)
	}
	t.sessions = make(map[string]*Session)
	t.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
