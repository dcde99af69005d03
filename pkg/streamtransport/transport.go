// Package streamtransport implements the bidirectional framing over a
// session's streaming HTTP connection: the client's request body carries
// JSON-RPC requests, the response channel carries a mixture of responses,
// server-initiated requests, and notifications, each tagged so the client
// can correlate.
//
// Transport itself is protocol-agnostic: it frames bytes in and out and
// owns the open/closed lifecycle. Routing decisions (is this inbound frame
// a request, a notification, or a reply to a server-initiated request) are
// made by the caller (pkg/mcpengine), which is what keeps this package a
// pure plumbing layer.
package streamtransport

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
)

// DefaultOutboundBuffer bounds how many unflushed frames Transport will
// queue before Send blocks.
const DefaultOutboundBuffer = 64

// Frame is one line this transport pushes to the client: a JSON-RPC
// Response, ServerRequest, or Notification, pre-marshaled by the caller.
type Frame struct {
	Payload json.RawMessage
}

// Transport is one session's bidirectional stream. It is safe for
// concurrent use: one goroutine typically drains Outbound() while request
// handlers call Send/Close concurrently.
type Transport struct {
	outbound chan Frame
	closed   atomic.Bool
	closeCh  chan struct{}
	closeMu  sync.Mutex

	correlationSeq atomic.Uint64
}

// New constructs an open Transport with a bounded outbound buffer.
func New() *Transport {
	return &Transport{
		outbound: make(chan Frame, DefaultOutboundBuffer),
		closeCh:  make(chan struct{}),
	}
}

// NextCorrelationID mints a correlation id unique within this transport's
// lifetime, used to tag a server-initiated request (sampling/createMessage).
func (t *Transport) NextCorrelationID() string {
	n := t.correlationSeq.Add(1)
	return "srv-" + itoa(n)
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Send pushes a pre-marshaled frame onto the outbound channel. It fails
// with apierror.KindTransportClosed if the transport has already closed.
func (t *Transport) Send(payload json.RawMessage) error {
	if t.closed.Load() {
		return apierror.New(apierror.KindTransportClosed, "stream transport is closed")
	}
	select {
	case t.outbound <- Frame{Payload: payload}:
		return nil
	case <-t.closeCh:
		return apierror.New(apierror.KindTransportClosed, "stream transport is closed")
	}
}

// Outbound returns the channel the HTTP handler drains to push frames to
// the client. The channel is never closed — consumers select on Done to
// learn the transport has shut down, since closing a channel with
// concurrent senders would panic.
func (t *Transport) Outbound() <-chan Frame {
	return t.outbound
}

// Done is closed the moment Close is called, usable as a select case by
// anything waiting on transport lifetime (e.g. the HTTP handler's request
// context).
func (t *Transport) Done() <-chan struct{} {
	return t.closeCh
}

// IsClosed reports whether Close has been called.
func (t *Transport) IsClosed() bool {
	return t.closed.Load()
}

// Close marks the transport closed and stops accepting new frames. It is
// idempotent and safe to call concurrently. Resolving outstanding sampling
// calls is the session's job (the engine's Close runs before this one), not
// the transport's.
func (t *Transport) Close() {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed.Swap(true) {
		return
	}
	close(t.closeCh)
}
