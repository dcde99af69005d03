package mcpprotocol

import "encoding/json"

// Tool is one entry in the manifest returned by tools/list.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ToolsListResult is the result of tools/list: the manifest, sorted by name.
type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}

// ContentBlock is one element of a tool/prompt result's content array. Type
// is "text" for every content block this gateway produces; Text carries the
// rendered body.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// RequestMeta carries MCP's standard `_meta` envelope fields relevant to
// this gateway: the progress token a client attaches to a request it wants
// progress notifications for.
type RequestMeta struct {
	ProgressToken string `json:"progressToken,omitempty"`
}

// CallToolParams is tools/call's params.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Meta      RequestMeta     `json:"_meta,omitempty"`
}

// ProgressParams is the payload of a notifications/progress event.
type ProgressParams struct {
	ProgressToken string  `json:"progressToken"`
	Progress      float64 `json:"progress"`
	Total         float64 `json:"total,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// SamplingCompleteParams is the payload of a sampling/complete
// notification emitted once a callback continuation finishes validating a
// sampling reply.
type SamplingCompleteParams struct {
	Callback string `json:"callback"`
	Content  string `json:"content,omitempty"`
	Error    string `json:"error,omitempty"`
}

// CallToolResult is tools/call's result.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// Prompt is one entry in the catalog returned by prompts/list.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptArgument declares one placeholder a prompt template accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// PromptsListResult is the result of prompts/list.
type PromptsListResult struct {
	Prompts []Prompt `json:"prompts"`
}

// GetPromptParams is prompts/get's params.
type GetPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// PromptMessage is one rendered message in a GetPromptResult.
type PromptMessage struct {
	Role    string       `json:"role"`
	Content ContentBlock `json:"content"`
}

// GetPromptResult is the result of prompts/get.
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// Resource is one entry in the catalog returned by resources/list.
type Resource struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType,omitempty"`
}

// ResourcesListResult is the result of resources/list.
type ResourcesListResult struct {
	Resources []Resource `json:"resources"`
}

// ReadResourceParams is resources/read's params.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ResourceContents is one element of a ReadResourceResult's contents array.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

// ReadResourceResult is the result of resources/read.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// Role values for sampling messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SamplingMessage is one role-tagged message in a createMessage request.
type SamplingMessage struct {
	Role    string       `json:"role"`
	Content ContentBlock `json:"content"`
}

// ModelHint names a preferred model family; model-preference hints are
// advisory only, per the MCP sampling spec.
type ModelHint struct {
	Name string `json:"name,omitempty"`
}

// ModelPreferences carries the generation-parameter model hints.
type ModelPreferences struct {
	Hints                []ModelHint `json:"hints,omitempty"`
	CostPriority         float64     `json:"costPriority,omitempty"`
	SpeedPriority        float64     `json:"speedPriority,omitempty"`
	IntelligencePriority float64     `json:"intelligencePriority,omitempty"`
}

// CreateMessageMeta carries the callback tag that routes a sampling reply to
// a server-side continuation.
type CreateMessageMeta struct {
	Callback string `json:"callback,omitempty"`
}

// CreateMessageParams is the payload of a server-initiated
// sampling/createMessage request.
type CreateMessageParams struct {
	Messages         []SamplingMessage `json:"messages"`
	SystemPrompt     string            `json:"systemPrompt,omitempty"`
	MaxTokens        int               `json:"maxTokens,omitempty"`
	Temperature      float64           `json:"temperature,omitempty"`
	TopP             float64           `json:"topP,omitempty"`
	TopK             int               `json:"topK,omitempty"`
	StopSequences    []string          `json:"stopSequences,omitempty"`
	ModelPreferences *ModelPreferences `json:"modelPreferences,omitempty"`
	Meta             CreateMessageMeta `json:"_meta,omitempty"`
}

// DefaultMaxTokens applies when a createMessage request sets no max-tokens
// limit of its own.
const DefaultMaxTokens = 8192

// CreateMessageResult is what the client returns once its LLM has produced
// a completion for a server-initiated sampling/createMessage request.
type CreateMessageResult struct {
	Role       string       `json:"role"`
	Content    ContentBlock `json:"content"`
	Model      string       `json:"model,omitempty"`
	StopReason string       `json:"stopReason,omitempty"`
}
