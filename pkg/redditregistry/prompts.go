package redditregistry

import (
	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
	"github.com/mcpgw/reddit-gateway/pkg/registry"
)

// NewPrompts builds the reference PromptRegistry: summarize_thread takes a
// subreddit name argument and injects that subreddit's About document
// under the `{{resource_about}}` placeholder, best-effort.
func NewPrompts() *registry.InMemoryPrompts {
	return registry.NewInMemoryPrompts(registry.PromptSpec{
		Name:        "summarize_thread",
		Description: "Summarize recent activity in a subreddit, given its About document as context.",
		Arguments: []mcpprotocol.PromptArgument{
			{Name: "subreddit", Description: "subreddit name, without r/", Required: true},
		},
		Messages: []registry.PromptMessageTemplate{
			{
				Role: mcpprotocol.RoleUser,
				Text: "Summarize what r/{{subreddit}} is about and what kind of posts do well there.\n\n" +
					"Reference material:\n{{resource_about}}",
			},
		},
		ResourceRefs: map[string]string{
			// The URI itself is a template; pkg/mcpengine substitutes
			// {{subreddit}} into it before resolving the resource, since
			// the resource to inject depends on the prompt's own arguments.
			"about": "reddit://subreddit/{{subreddit}}/about",
		},
	})
}
