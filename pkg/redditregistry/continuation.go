package redditregistry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
	"github.com/mcpgw/reddit-gateway/pkg/mcpengine"
	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
	"github.com/mcpgw/reddit-gateway/pkg/schema"
)

// suggestActionSchema is the declared output schema the suggest_action
// continuation validates a sampling reply's text content against:
// {action, reasoning, content}.
var suggestActionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"action": {"type": "string"},
		"reasoning": {"type": "string"},
		"content": {"type": "string"}
	},
	"required": ["action", "content"],
	"additionalProperties": true
}`)

// SuggestActionContinuation is the reference continuation named by
// sampling_example's `_meta.callback`. It validates the sampling reply's
// text content against suggestActionSchema and renders a
// sampling/complete notification payload.
func SuggestActionContinuation() mcpengine.Continuation {
	return func(_ context.Context, result mcpprotocol.CreateMessageResult) (mcpprotocol.SamplingCompleteParams, error) {
		raw := json.RawMessage(result.Content.Text)
		if err := schema.Validate(suggestActionSchema, raw); err != nil {
			return mcpprotocol.SamplingCompleteParams{}, apierror.New(apierror.KindInvalidArguments, fmt.Sprintf("sampling reply did not match suggest_action schema: %v", err))
		}
		return mcpprotocol.SamplingCompleteParams{
			Callback: "suggest_action",
			Content:  result.Content.Text,
		}, nil
	}
}
