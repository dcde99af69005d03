package registry

import (
	"testing"

	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
)

func TestInMemoryToolsListIsSortedByName(t *testing.T) {
	r := NewInMemoryTools(
		ToolSpec{Name: "search_subreddit"},
		ToolSpec{Name: "get_post"},
	)
	list := r.List()
	if len(list) != 2 || list[0].Name != "get_post" || list[1].Name != "search_subreddit" {
		t.Errorf("List() = %+v, want sorted [get_post, search_subreddit]", list)
	}
}

func TestInMemoryToolsResolveUnknownReturnsFalse(t *testing.T) {
	r := NewInMemoryTools(ToolSpec{Name: "get_post"})
	if _, ok := r.Resolve("does_not_exist"); ok {
		t.Error("Resolve() = true for an unregistered tool")
	}
	spec, ok := r.Resolve("get_post")
	if !ok || spec.Name != "get_post" {
		t.Errorf("Resolve(get_post) = %+v, %v", spec, ok)
	}
}

func TestInMemoryResourcesResolveByURI(t *testing.T) {
	r := NewInMemoryResources(
		ResourceSpec{URI: "reddit://subreddit/golang/about", Name: "golang"},
	)
	spec, ok := r.Resolve("reddit://subreddit/golang/about")
	if !ok || spec.Name != "golang" {
		t.Errorf("Resolve() = %+v, %v", spec, ok)
	}
	list := r.List()
	if len(list) != 1 || list[0].URI != "reddit://subreddit/golang/about" {
		t.Errorf("List() = %+v", list)
	}
}

func TestInMemoryPromptsListAndResolve(t *testing.T) {
	r := NewInMemoryPrompts(PromptSpec{
		Name: "summarize_thread",
		Arguments: []mcpprotocol.PromptArgument{
			{Name: "subreddit", Required: true},
		},
	})
	list := r.List()
	if len(list) != 1 || list[0].Name != "summarize_thread" {
		t.Errorf("List() = %+v", list)
	}
	spec, ok := r.Resolve("summarize_thread")
	if !ok || len(spec.Arguments) != 1 {
		t.Errorf("Resolve() = %+v, %v", spec, ok)
	}
}

func TestRegistryInterfacesSatisfied(t *testing.T) {
	var _ ToolRegistry = NewInMemoryTools()
	var _ ResourceRegistry = NewInMemoryResources()
	var _ PromptRegistry = NewInMemoryPrompts()
}
