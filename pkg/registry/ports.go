// Package registry defines the three content-catalog collaborator ports
// the core depends on — ToolRegistry, PromptRegistry, ResourceRegistry —
// plus in-memory reference implementations that exercise them end to end
// against the reference Reddit upstream.
//
// None of these are core: the core (pkg/mcpengine) only ever calls through
// the interfaces in this file. A deployer of the gateway in front of a
// different upstream replaces the concrete registries in this package,
// never pkg/mcpengine.
package registry

import (
	"context"
	"encoding/json"

	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
	"github.com/mcpgw/reddit-gateway/pkg/upstream"
)

// HandlerContext is what a tool executor or a credential-gated resource
// reader is given at call time: the session's current credential snapshot,
// the session id (for logging/correlation), and a progress emitter that
// pushes a notifications/progress frame on the session's transport.
type HandlerContext struct {
	Credentials    upstream.Credentials
	HasCredentials bool
	SessionID      string
	ProgressToken  string
	EmitProgress   func(percent float64, message string)
}

// ToolExecutor runs one tools/call invocation. args is the raw JSON
// arguments object, already validated against the tool's declared schema.
type ToolExecutor func(ctx context.Context, hctx HandlerContext, args json.RawMessage) (mcpprotocol.CallToolResult, error)

// ToolSpec is one registered tool: its manifest entry plus its executor.
type ToolSpec struct {
	Name             string
	Description      string
	InputSchema      json.RawMessage
	RequiresUpstream bool
	Execute          ToolExecutor
}

// ToolRegistry enumerates tools and resolves a name to its executor.
type ToolRegistry interface {
	List() []mcpprotocol.Tool
	Resolve(name string) (ToolSpec, bool)
}

// ResourceReader fetches the body for a resource URI.
type ResourceReader func(ctx context.Context, creds upstream.Credentials) (string, error)

// ResourceSpec is one registered resource.
type ResourceSpec struct {
	URI              string
	Name             string
	MimeType         string
	RequiresUpstream bool
	Read             ResourceReader
}

// ResourceRegistry enumerates resources and resolves a URI to its reader.
type ResourceRegistry interface {
	List() []mcpprotocol.Resource
	Resolve(uri string) (ResourceSpec, bool)
}

// PromptMessageTemplate is one message in a prompt's template, with
// `{{name}}` argument placeholders and `{{resource_key}}` resource
// placeholders substituted at render time (pkg/mcpengine owns the
// substitution logic since it is the only component with both a
// PromptRegistry and a ResourceRegistry in hand).
type PromptMessageTemplate struct {
	Role string
	Text string
}

// PromptSpec is one registered prompt.
type PromptSpec struct {
	Name        string
	Description string
	Arguments   []mcpprotocol.PromptArgument
	Messages    []PromptMessageTemplate
	// ResourceRefs maps a `{{resource_<key>}}` placeholder's key to the
	// resource URI it injects, e.g. {"thread": "reddit://subreddit/golang/about"}.
	ResourceRefs map[string]string
}

// PromptRegistry enumerates prompts and resolves a name to its template.
type PromptRegistry interface {
	List() []mcpprotocol.Prompt
	Resolve(name string) (PromptSpec, bool)
}
