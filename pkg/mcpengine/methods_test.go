package mcpengine

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
	"github.com/mcpgw/reddit-gateway/pkg/registry"
	"github.com/mcpgw/reddit-gateway/pkg/streamtransport"
	"github.com/mcpgw/reddit-gateway/pkg/upstream"
)

func rawParams(t *testing.T, s string) json.RawMessage {
	t.Helper()
	return json.RawMessage(s)
}

func TestPromptsGetSubstitutesArgumentsAndResources(t *testing.T) {
	tr := streamtransport.New()
	resources := registry.NewInMemoryResources(registry.ResourceSpec{
		URI:              "reddit://subreddit/golang/about",
		RequiresUpstream: true,
		Read: func(_ context.Context, _ upstream.Credentials) (string, error) {
			return `{"subscribers":123}`, nil
		},
	})
	prompts := registry.NewInMemoryPrompts(registry.PromptSpec{
		Name: "summarize_thread",
		Arguments: []mcpprotocol.PromptArgument{
			{Name: "subreddit", Required: true},
		},
		Messages: []registry.PromptMessageTemplate{
			{Role: "user", Text: "Summarize r/{{subreddit}}: {{resource_about}}"},
		},
		ResourceRefs: map[string]string{"about": "reddit://subreddit/{{subreddit}}/about"},
	})

	inst := New(Params{SessionID: "s", Transport: tr, Tools: registry.NewInMemoryTools(), Prompts: prompts, Resources: resources})
	inst.SetCredentials(upstream.Credentials{AccessToken: "tok"})

	result, err := inst.promptsGet(context.Background(), rawParams(t, `{"name":"summarize_thread","arguments":{"subreddit":"golang"}}`))
	if err != nil {
		t.Fatalf("promptsGet() = %v", err)
	}
	if len(result.Messages) != 1 {
		t.Fatalf("Messages = %+v", result.Messages)
	}
	text := result.Messages[0].Content.Text
	if !strings.Contains(text, "Summarize r/golang") {
		t.Errorf("text = %q, want it to contain %q", text, "Summarize r/golang")
	}
	if !strings.Contains(text, "subscribers") {
		t.Errorf("text = %q, want injected resource body", text)
	}
}

func TestPromptsGetMissingRequiredArgument(t *testing.T) {
	tr := streamtransport.New()
	prompts := registry.NewInMemoryPrompts(registry.PromptSpec{
		Name: "summarize_thread",
		Arguments: []mcpprotocol.PromptArgument{
			{Name: "subreddit", Required: true},
		},
	})
	inst := New(Params{SessionID: "s", Transport: tr, Tools: registry.NewInMemoryTools(), Prompts: prompts, Resources: registry.NewInMemoryResources()})

	_, err := inst.promptsGet(context.Background(), rawParams(t, `{"name":"summarize_thread","arguments":{}}`))
	if err == nil {
		t.Fatal("promptsGet() = nil, want a missing-argument error")
	}
}

func TestResourcesReadUnknownURIIsNotFound(t *testing.T) {
	tr := streamtransport.New()
	inst := New(Params{SessionID: "s", Transport: tr, Tools: registry.NewInMemoryTools(), Prompts: registry.NewInMemoryPrompts(), Resources: registry.NewInMemoryResources()})

	_, err := inst.resourcesRead(context.Background(), rawParams(t, `{"uri":"reddit://subreddit/golang/about"}`))
	if err == nil {
		t.Fatal("resourcesRead() = nil, want not_found for an unregistered resource")
	}
}

func TestResourcesReadRequiresCredentialsWhenSpecDemandsThem(t *testing.T) {
	tr := streamtransport.New()
	resources := registry.NewInMemoryResources(registry.ResourceSpec{
		URI:              "reddit://subreddit/golang/about",
		RequiresUpstream: true,
		Read: func(_ context.Context, _ upstream.Credentials) (string, error) {
			return "{}", nil
		},
	})
	inst := New(Params{SessionID: "s", Transport: tr, Tools: registry.NewInMemoryTools(), Prompts: registry.NewInMemoryPrompts(), Resources: resources})

	_, err := inst.resourcesRead(context.Background(), rawParams(t, `{"uri":"reddit://subreddit/golang/about"}`))
	if err == nil {
		t.Fatal("resourcesRead() = nil, want authentication_required without bound credentials")
	}

	inst.SetCredentials(upstream.Credentials{AccessToken: "tok"})
	if _, err := inst.resourcesRead(context.Background(), rawParams(t, `{"uri":"reddit://subreddit/golang/about"}`)); err != nil {
		t.Fatalf("resourcesRead() = %v after SetCredentials", err)
	}
}
