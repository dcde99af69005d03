package redditregistry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
	"github.com/mcpgw/reddit-gateway/pkg/registry"
	"github.com/mcpgw/reddit-gateway/pkg/upstream"
)

var getPostSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"id": {"type": "string", "description": "a post fullname, e.g. t3_abc123"}
	},
	"required": ["id"],
	"additionalProperties": false
}`)

var searchSubredditSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"subreddit": {"type": "string"},
		"query": {"type": "string"},
		"limit": {"type": "integer", "minimum": 1, "maximum": 100}
	},
	"required": ["subreddit", "query"],
	"additionalProperties": false
}`)

var samplingExampleSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"text": {"type": "string", "description": "text for the model to summarize"}
	},
	"required": ["text"],
	"additionalProperties": false
}`)

// SamplingRequester is the narrow capability a tool needs to drive the
// sampling round-trip; pkg/mcpengine supplies the concrete implementation
// via a closure over the owning instance.
type SamplingRequester func(ctx context.Context, params mcpprotocol.CreateMessageParams) (mcpprotocol.CreateMessageResult, error)

// NewTools builds the reference ToolRegistry: get_post and
// search_subreddit exercise UpstreamApiPort; sampling_example exists
// solely to drive the sampling round-trip end to end.
func NewTools(api upstream.UpstreamApiPort, requestSampling SamplingRequester) *registry.InMemoryTools {
	return registry.NewInMemoryTools(
		registry.ToolSpec{
			Name:             "get_post",
			Description:      "Fetch a single Reddit post by fullname.",
			InputSchema:      getPostSchema,
			RequiresUpstream: true,
			Execute:          getPostExecutor(api),
		},
		registry.ToolSpec{
			Name:             "search_subreddit",
			Description:      "Search a subreddit for posts matching a query.",
			InputSchema:      searchSubredditSchema,
			RequiresUpstream: true,
			Execute:          searchSubredditExecutor(api),
		},
		registry.ToolSpec{
			Name:             "sampling_example",
			Description:      "Summarize arbitrary text via a server-initiated LLM sampling round-trip.",
			InputSchema:      samplingExampleSchema,
			RequiresUpstream: false,
			Execute:          samplingExampleExecutor(requestSampling),
		},
	)
}

type getPostArgs struct {
	ID string `json:"id"`
}

func getPostExecutor(api upstream.UpstreamApiPort) registry.ToolExecutor {
	return func(ctx context.Context, hctx registry.HandlerContext, args json.RawMessage) (mcpprotocol.CallToolResult, error) {
		var a getPostArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return mcpprotocol.CallToolResult{}, apierror.New(apierror.KindInvalidArguments, "malformed arguments")
		}
		if hctx.EmitProgress != nil {
			hctx.EmitProgress(0.5, "fetching post from reddit")
		}
		post, err := api.GetPost(ctx, hctx.Credentials, a.ID)
		if err != nil {
			return mcpprotocol.CallToolResult{}, err
		}
		return textResult(post)
	}
}

type searchSubredditArgs struct {
	Subreddit string `json:"subreddit"`
	Query     string `json:"query"`
	Limit     int    `json:"limit"`
}

func searchSubredditExecutor(api upstream.UpstreamApiPort) registry.ToolExecutor {
	return func(ctx context.Context, hctx registry.HandlerContext, args json.RawMessage) (mcpprotocol.CallToolResult, error) {
		var a searchSubredditArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return mcpprotocol.CallToolResult{}, apierror.New(apierror.KindInvalidArguments, "malformed arguments")
		}
		if hctx.EmitProgress != nil {
			hctx.EmitProgress(0.5, fmt.Sprintf("searching r/%s", a.Subreddit))
		}
		posts, err := api.SearchSubreddit(ctx, hctx.Credentials, a.Subreddit, a.Query, a.Limit)
		if err != nil {
			return mcpprotocol.CallToolResult{}, err
		}
		return textResult(posts)
	}
}

type samplingExampleArgs struct {
	Text string `json:"text"`
}

// samplingExampleExecutor synthesizes a createMessage request with a
// callback tag and waits for the round-trip to complete before returning a
// summary of what happened to the caller.
func samplingExampleExecutor(requestSampling SamplingRequester) registry.ToolExecutor {
	return func(ctx context.Context, hctx registry.HandlerContext, args json.RawMessage) (mcpprotocol.CallToolResult, error) {
		var a samplingExampleArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return mcpprotocol.CallToolResult{}, apierror.New(apierror.KindInvalidArguments, "malformed arguments")
		}

		params := mcpprotocol.CreateMessageParams{
			Messages: []mcpprotocol.SamplingMessage{
				{
					Role:    mcpprotocol.RoleUser,
					Content: mcpprotocol.ContentBlock{Type: "text", Text: "Summarize: " + a.Text},
				},
			},
			MaxTokens: mcpprotocol.DefaultMaxTokens,
			Meta:      mcpprotocol.CreateMessageMeta{Callback: "suggest_action"},
		}

		result, err := requestSampling(ctx, params)
		if err != nil {
			return mcpprotocol.CallToolResult{}, err
		}

		summary := fmt.Sprintf("sampling round-trip completed via model %q: %s", result.Model, result.Content.Text)
		return mcpprotocol.CallToolResult{
			Content: []mcpprotocol.ContentBlock{
				{Type: "text", Text: summary},
			},
		}, nil
	}
}

func textResult(v any) (mcpprotocol.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return mcpprotocol.CallToolResult{}, apierror.New(apierror.KindServerError, "failed to render tool result")
	}
	return mcpprotocol.CallToolResult{
		Content: []mcpprotocol.ContentBlock{{Type: "text", Text: string(body)}},
	}, nil
}
