// Package mcpengine implements Instance, the single-caller protocol
// engine: it dispatches JSON-RPC-shaped MCP methods through the
// collaborator registries (tools, prompts, resources) and drives the
// server-initiated sampling round-trip.
//
// An Instance's only mutable outer dependency is the credential snapshot
// bound to it; a fresher credential pair replaces the snapshot atomically
// rather than mutating session state in place.
package mcpengine

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
	"github.com/mcpgw/reddit-gateway/pkg/logger"
	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
	"github.com/mcpgw/reddit-gateway/pkg/registry"
	"github.com/mcpgw/reddit-gateway/pkg/sampling"
	"github.com/mcpgw/reddit-gateway/pkg/streamtransport"
	"github.com/mcpgw/reddit-gateway/pkg/upstream"
)

// Continuation interprets a completed sampling round-trip's result payload
// and produces the sampling/complete notification params. Unknown callback
// tags are logged and ignored — non-fatal to the originating request chain.
type Continuation func(ctx context.Context, result mcpprotocol.CreateMessageResult) (mcpprotocol.SamplingCompleteParams, error)

// Params bundles Instance's construction-time collaborators.
type Params struct {
	SessionID string
	Transport *streamtransport.Transport
	Tools     registry.ToolRegistry
	Prompts   registry.PromptRegistry
	Resources registry.ResourceRegistry
}

// Instance is one session's MCP protocol engine.
type Instance struct {
	sessionID string
	transport *streamtransport.Transport
	tools     registry.ToolRegistry
	prompts   registry.PromptRegistry
	resources registry.ResourceRegistry
	sampler   *sampling.Manager

	credsMu  sync.RWMutex
	creds    upstream.Credentials
	hasCreds bool

	continuationsMu sync.RWMutex
	continuations   map[string]Continuation
}

// New constructs an Instance wired to its transport and registries.
func New(p Params) *Instance {
	t := p.Transport
	inst := &Instance{
		sessionID:     p.SessionID,
		transport:     t,
		tools:         p.Tools,
		prompts:       p.Prompts,
		resources:     p.Resources,
		continuations: make(map[string]Continuation),
	}
	inst.sampler = sampling.NewManager(t.NextCorrelationID)
	return inst
}

// RegisterContinuation wires a named continuation, dispatched when a
// sampling reply carrying a matching `_meta.callback` tag resolves.
func (inst *Instance) RegisterContinuation(name string, c Continuation) {
	inst.continuationsMu.Lock()
	defer inst.continuationsMu.Unlock()
	inst.continuations[name] = c
}

// SetCredentials replaces the session's upstream credential snapshot.
// Credentials never weaken: callers are expected to only ever pass a
// fresher pair, never an empty one, once one has been bound.
func (inst *Instance) SetCredentials(creds upstream.Credentials) {
	inst.credsMu.Lock()
	defer inst.credsMu.Unlock()
	inst.creds = creds
	inst.hasCreds = true
}

func (inst *Instance) credentialSnapshot() (upstream.Credentials, bool) {
	inst.credsMu.RLock()
	defer inst.credsMu.RUnlock()
	return inst.creds, inst.hasCreds
}

// Close fails every outstanding sampling call with transport_closed, the
// first step of the session-close cascade.
func (inst *Instance) Close() {
	inst.sampler.CloseAll(apierror.New(apierror.KindTransportClosed, "session transport closed"))
}

// peekEnvelope is used to classify an inbound frame without committing to
// either shape, per streamtransport's protocol-agnostic framing.
type peekEnvelope struct {
	Method *string         `json:"method"`
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// Dispatch routes one inbound frame: a client-initiated request or
// notification, or a client's reply to a server-initiated sampling
// request. It returns the raw bytes to push back on the transport, if
// any (notifications and sampling replies produce no synchronous reply).
func (inst *Instance) Dispatch(ctx context.Context, raw []byte) []byte {
	var peek peekEnvelope
	if err := json.Unmarshal(raw, &peek); err != nil {
		resp := mcpprotocol.NewErrorResponse(nil, apierror.New(apierror.KindInvalidRequest, "malformed JSON-RPC frame"))
		out, _ := json.Marshal(resp)
		return out
	}

	if peek.Method == nil && len(peek.ID) > 0 {
		inst.handleSamplingReply(ctx, peek)
		return nil
	}

	var req mcpprotocol.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		resp := mcpprotocol.NewErrorResponse(nil, apierror.New(apierror.KindInvalidRequest, "malformed JSON-RPC request"))
		out, _ := json.Marshal(resp)
		return out
	}

	result, err := inst.handleMethod(ctx, &req)
	if req.IsNotification() {
		if err != nil {
			logger.Warnw("mcpengine: notification handler failed", "method", req.Method, "error", err)
		}
		return nil
	}

	var resp *mcpprotocol.Response
	if err != nil {
		resp = mcpprotocol.NewErrorResponse(req.ID, err)
	} else {
		resp, err = mcpprotocol.NewResponse(req.ID, result)
		if err != nil {
			resp = mcpprotocol.NewErrorResponse(req.ID, apierror.New(apierror.KindServerError, "failed to render response"))
		}
	}
	out, _ := json.Marshal(resp)
	return out
}

func (inst *Instance) handleSamplingReply(ctx context.Context, peek peekEnvelope) {
	id := idKey(peek.ID)
	if len(peek.Error) > 0 {
		inst.sampler.Cancel(id, apierror.New(apierror.KindUpstreamError, "client reported a sampling error"))
		return
	}
	var result mcpprotocol.CreateMessageResult
	if err := json.Unmarshal(peek.Result, &result); err != nil {
		inst.sampler.Cancel(id, apierror.New(apierror.KindInvalidRequest, "malformed sampling result"))
		return
	}
	callback, err := inst.sampler.Resolve(id, result)
	if err != nil {
		logger.Warnw("mcpengine: sampling reply had no matching call", "correlation_id", id)
		return
	}
	if callback == "" {
		return
	}
	inst.dispatchContinuation(ctx, callback, result)
}

func (inst *Instance) dispatchContinuation(ctx context.Context, name string, result mcpprotocol.CreateMessageResult) {
	inst.continuationsMu.RLock()
	cont, ok := inst.continuations[name]
	inst.continuationsMu.RUnlock()
	if !ok {
		logger.Warnw("mcpengine: unknown sampling callback tag, ignoring", "callback", name)
		return
	}
	params, err := cont(ctx, result)
	if err != nil {
		params = mcpprotocol.SamplingCompleteParams{Callback: name, Error: err.Error()}
	}
	notif, err := mcpprotocol.NewNotification("sampling/complete", params)
	if err != nil {
		logger.Warnw("mcpengine: failed to build sampling/complete notification", "error", err)
		return
	}
	out, err := json.Marshal(notif)
	if err != nil {
		return
	}
	if err := inst.transport.Send(out); err != nil {
		logger.Warnw("mcpengine: failed to emit sampling/complete", "error", err)
	}
}

func (inst *Instance) handleMethod(ctx context.Context, req *mcpprotocol.Request) (any, error) {
	switch req.Method {
	case "tools/list":
		return inst.toolsList(), nil
	case "tools/call":
		return inst.toolsCall(ctx, req.Params)
	case "prompts/list":
		return inst.promptsList(), nil
	case "prompts/get":
		return inst.promptsGet(ctx, req.Params)
	case "resources/list":
		return inst.resourcesList(), nil
	case "resources/read":
		return inst.resourcesRead(ctx, req.Params)
	default:
		return nil, apierror.New(apierror.KindNotFound, "unknown method "+req.Method)
	}
}

// RequestSampling drives the sampling round-trip on behalf of a tool
// executor: it mints a correlation id, pushes the server-initiated request,
// and suspends until the client replies, ctx is canceled, or the transport
// closes.
func (inst *Instance) RequestSampling(ctx context.Context, params mcpprotocol.CreateMessageParams) (mcpprotocol.CreateMessageResult, error) {
	if params.MaxTokens == 0 {
		params.MaxTokens = mcpprotocol.DefaultMaxTokens
	}
	call := inst.sampler.Begin(params)

	rawParams, err := json.Marshal(params)
	if err != nil {
		inst.sampler.Cancel(call.CorrelationID, err)
		return mcpprotocol.CreateMessageResult{}, apierror.New(apierror.KindServerError, "failed to encode sampling request")
	}
	idJSON, _ := json.Marshal(call.CorrelationID)
	serverReq := mcpprotocol.ServerRequest{
		JSONRPC: "2.0",
		ID:      idJSON,
		Method:  "sampling/createMessage",
		Params:  rawParams,
	}
	out, err := json.Marshal(serverReq)
	if err != nil {
		inst.sampler.Cancel(call.CorrelationID, err)
		return mcpprotocol.CreateMessageResult{}, apierror.New(apierror.KindServerError, "failed to encode sampling request")
	}
	if err := inst.transport.Send(out); err != nil {
		inst.sampler.Cancel(call.CorrelationID, err)
		return mcpprotocol.CreateMessageResult{}, err
	}

	resultCh := make(chan sampling.Outcome, 1)
	go func() { resultCh <- call.Wait() }()

	select {
	case outcome := <-resultCh:
		if outcome.Err != nil {
			return mcpprotocol.CreateMessageResult{}, outcome.Err
		}
		return outcome.Result, nil
	case <-ctx.Done():
		inst.sampler.Cancel(call.CorrelationID, apierror.New(apierror.KindDeadlineExceeded, "sampling call deadline exceeded"))
		return mcpprotocol.CreateMessageResult{}, apierror.New(apierror.KindDeadlineExceeded, "sampling call deadline exceeded")
	}
}

// idKey canonicalizes a JSON-RPC id (string or number) into the string form
// used to key sampling.Manager's correlation table.
func idKey(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strconv.Quote(string(raw))
}
