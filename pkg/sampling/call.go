// Package sampling implements the rendezvous primitive backing the
// server-initiated sampling/createMessage round-trip: the server asks its
// client to run an LLM and suspends until the client replies, the
// transport closes, or a deadline elapses — whichever comes first, and
// exactly once.
package sampling

import (
	"sync"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
)

// Outcome is the single resolution of a Call: either a client reply, or a
// terminal error (deadline_exceeded, transport_closed).
type Outcome struct {
	Result mcpprotocol.CreateMessageResult
	Err    error
}

// Call is one in-flight sampling/createMessage round-trip. It resolves
// exactly once; later attempts to resolve it are no-ops, matching the data
// model's "exactly one resolution" invariant.
type Call struct {
	CorrelationID string
	Params        mcpprotocol.CreateMessageParams
	Callback      string

	mu      sync.Mutex
	done    bool
	outcome Outcome
	waiters chan struct{}
}

func newCall(correlationID string, params mcpprotocol.CreateMessageParams) *Call {
	return &Call{
		CorrelationID: correlationID,
		Params:        params,
		Callback:      params.Meta.Callback,
		waiters:       make(chan struct{}),
	}
}

// resolve settles the call with outcome if it has not already settled,
// reporting whether this call was the one that did so.
func (c *Call) resolve(outcome Outcome) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return false
	}
	c.done = true
	c.outcome = outcome
	close(c.waiters)
	return true
}

// Wait blocks until the call resolves, returning its outcome.
func (c *Call) Wait() Outcome {
	<-c.waiters
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Manager tracks the set of in-flight Calls for a single McpInstance,
// keyed by correlation id.
type Manager struct {
	mu    sync.Mutex
	calls map[string]*Call
	next  func() string
}

// NewManager constructs an empty Manager. nextID mints correlation ids
// unique within the owning instance.
func NewManager(nextID func() string) *Manager {
	return &Manager{calls: make(map[string]*Call), next: nextID}
}

// Begin registers a new Call for params and returns it; the caller is
// responsible for emitting the server-initiated request on the transport
// and, eventually, calling Wait.
func (m *Manager) Begin(params mcpprotocol.CreateMessageParams) *Call {
	call := newCall(m.next(), params)
	m.mu.Lock()
	m.calls[call.CorrelationID] = call
	m.mu.Unlock()
	return call
}

// Resolve settles the call identified by correlationID with a client reply,
// returning the call's callback tag (possibly empty) so the caller can
// dispatch a continuation. Returns apierror.KindNotFound if no such call is
// outstanding (already resolved or unknown id) so callers can log and
// ignore a stray reply.
func (m *Manager) Resolve(correlationID string, result mcpprotocol.CreateMessageResult) (string, error) {
	m.mu.Lock()
	call, ok := m.calls[correlationID]
	if ok {
		delete(m.calls, correlationID)
	}
	m.mu.Unlock()
	if !ok {
		return "", apierror.New(apierror.KindNotFound, "no sampling call outstanding for correlation id")
	}
	call.resolve(Outcome{Result: result})
	return call.Callback, nil
}

// Cancel settles the call identified by correlationID with err (typically
// deadline_exceeded), removing it from the tracked set.
func (m *Manager) Cancel(correlationID string, err error) {
	m.mu.Lock()
	call, ok := m.calls[correlationID]
	if ok {
		delete(m.calls, correlationID)
	}
	m.mu.Unlock()
	if ok {
		call.resolve(Outcome{Err: err})
	}
}

// CloseAll resolves every outstanding call with err, used when the owning
// transport closes and every pending resolver must fail with
// transport_closed.
func (m *Manager) CloseAll(err error) {
	m.mu.Lock()
	calls := make([]*Call, 0, len(m.calls))
	for _, call := range m.calls {
		calls = append(calls, call)
	}
	m.calls = make(map[string]*Call)
	m.mu.Unlock()
	for _, call := range calls {
		call.resolve(Outcome{Err: err})
	}
}

// Len reports how many calls are currently outstanding, for tests.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
