package mcpengine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
	"github.com/mcpgw/reddit-gateway/pkg/registry"
	"github.com/mcpgw/reddit-gateway/pkg/schema"
)

func (inst *Instance) toolsList() mcpprotocol.ToolsListResult {
	return mcpprotocol.ToolsListResult{Tools: inst.tools.List()}
}

func (inst *Instance) toolsCall(ctx context.Context, rawParams json.RawMessage) (mcpprotocol.CallToolResult, error) {
	var params mcpprotocol.CallToolParams
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return mcpprotocol.CallToolResult{}, apierror.New(apierror.KindInvalidRequest, "malformed tools/call params")
	}

	spec, ok := inst.tools.Resolve(params.Name)
	if !ok {
		return mcpprotocol.CallToolResult{}, apierror.New(apierror.KindNotFound, "unknown tool "+params.Name)
	}

	creds, hasCreds := inst.credentialSnapshot()
	if spec.RequiresUpstream && !hasCreds {
		return mcpprotocol.CallToolResult{}, apierror.New(apierror.KindAuthenticationRequired, "tool "+params.Name+" requires upstream credentials")
	}

	if err := schema.Validate(spec.InputSchema, params.Arguments); err != nil {
		return mcpprotocol.CallToolResult{}, err
	}

	hctx := registry.HandlerContext{
		Credentials:    creds,
		HasCredentials: hasCreds,
		SessionID:      inst.sessionID,
		ProgressToken:  params.Meta.ProgressToken,
		EmitProgress:   inst.progressEmitter(params.Meta.ProgressToken),
	}
	return spec.Execute(ctx, hctx, params.Arguments)
}

// progressEmitter returns nil if the caller attached no progress token
// (progress notifications are opt-in per call), otherwise a closure that
// pushes a notifications/progress frame on this session's transport.
func (inst *Instance) progressEmitter(token string) func(percent float64, message string) {
	if token == "" {
		return nil
	}
	return func(percent float64, message string) {
		notif, err := mcpprotocol.NewNotification("notifications/progress", mcpprotocol.ProgressParams{
			ProgressToken: token,
			Progress:      percent,
			Total:         1.0,
			Message:       message,
		})
		if err != nil {
			return
		}
		out, err := json.Marshal(notif)
		if err != nil {
			return
		}
		_ = inst.transport.Send(out)
	}
}

func (inst *Instance) promptsList() mcpprotocol.PromptsListResult {
	return mcpprotocol.PromptsListResult{Prompts: inst.prompts.List()}
}

func (inst *Instance) promptsGet(ctx context.Context, rawParams json.RawMessage) (mcpprotocol.GetPromptResult, error) {
	var params mcpprotocol.GetPromptParams
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return mcpprotocol.GetPromptResult{}, apierror.New(apierror.KindInvalidRequest, "malformed prompts/get params")
	}

	spec, ok := inst.prompts.Resolve(params.Name)
	if !ok {
		return mcpprotocol.GetPromptResult{}, apierror.New(apierror.KindNotFound, "unknown prompt "+params.Name)
	}

	var missing []string
	for _, arg := range spec.Arguments {
		if arg.Required {
			if _, ok := params.Arguments[arg.Name]; !ok {
				missing = append(missing, arg.Name)
			}
		}
	}
	if len(missing) > 0 {
		return mcpprotocol.GetPromptResult{}, apierror.New(apierror.KindInvalidArguments, "missing required prompt arguments").WithPaths(missing)
	}

	resourceBodies := inst.renderResourceRefs(ctx, spec.ResourceRefs, params.Arguments)

	messages := make([]mcpprotocol.PromptMessage, 0, len(spec.Messages))
	for _, tmpl := range spec.Messages {
		text := substitutePlaceholders(tmpl.Text, params.Arguments, resourceBodies)
		messages = append(messages, mcpprotocol.PromptMessage{
			Role:    tmpl.Role,
			Content: mcpprotocol.ContentBlock{Type: "text", Text: text},
		})
	}

	return mcpprotocol.GetPromptResult{Description: spec.Description, Messages: messages}, nil
}

// renderResourceRefs resolves each declared resource reference to its
// body, substituting prompt arguments into the reference's own URI
// template first (e.g. "reddit://subreddit/{{subreddit}}/about"). A
// resource that fails to resolve — unknown URI, or upstream credentials
// required but absent — is silently omitted: injection is best-effort.
func (inst *Instance) renderResourceRefs(ctx context.Context, refs map[string]string, args map[string]string) map[string]string {
	bodies := make(map[string]string, len(refs))
	creds, hasCreds := inst.credentialSnapshot()
	for key, uriTemplate := range refs {
		uri := substitutePlaceholders(uriTemplate, args, nil)
		resSpec, ok := inst.resources.Resolve(uri)
		if !ok {
			continue
		}
		if resSpec.RequiresUpstream && !hasCreds {
			continue
		}
		body, err := resSpec.Read(ctx, creds)
		if err != nil {
			continue
		}
		bodies[key] = body
	}
	return bodies
}

// substitutePlaceholders replaces every "{{name}}" with args["name"] and
// every "{{resource_key}}" with resources["key"], leaving anything
// unmatched untouched.
func substitutePlaceholders(text string, args map[string]string, resources map[string]string) string {
	for name, value := range args {
		text = strings.ReplaceAll(text, "{{"+name+"}}", value)
	}
	for key, value := range resources {
		text = strings.ReplaceAll(text, "{{resource_"+key+"}}", value)
	}
	return text
}

func (inst *Instance) resourcesList() mcpprotocol.ResourcesListResult {
	return mcpprotocol.ResourcesListResult{Resources: inst.resources.List()}
}

func (inst *Instance) resourcesRead(ctx context.Context, rawParams json.RawMessage) (mcpprotocol.ReadResourceResult, error) {
	var params mcpprotocol.ReadResourceParams
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return mcpprotocol.ReadResourceResult{}, apierror.New(apierror.KindInvalidRequest, "malformed resources/read params")
	}

	spec, ok := inst.resources.Resolve(params.URI)
	if !ok {
		return mcpprotocol.ReadResourceResult{}, apierror.New(apierror.KindNotFound, "unknown resource "+params.URI)
	}

	creds, hasCreds := inst.credentialSnapshot()
	if spec.RequiresUpstream && !hasCreds {
		return mcpprotocol.ReadResourceResult{}, apierror.New(apierror.KindAuthenticationRequired, "resource "+params.URI+" requires upstream credentials")
	}

	body, err := spec.Read(ctx, creds)
	if err != nil {
		return mcpprotocol.ReadResourceResult{}, err
	}

	return mcpprotocol.ReadResourceResult{
		Contents: []mcpprotocol.ResourceContents{
			{URI: spec.URI, MimeType: spec.MimeType, Text: body},
		},
	}, nil
}
