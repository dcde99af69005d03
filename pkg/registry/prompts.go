package registry

import (
	"sort"
	"sync"

	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
)

// InMemoryPrompts is the reference PromptRegistry: a fixed, process-scoped
// catalog of PromptSpecs.
type InMemoryPrompts struct {
	mu    sync.RWMutex
	specs map[string]PromptSpec
}

// NewInMemoryPrompts constructs a registry seeded with specs.
func NewInMemoryPrompts(specs ...PromptSpec) *InMemoryPrompts {
	m := make(map[string]PromptSpec, len(specs))
	for _, s := range specs {
		m[s.Name] = s
	}
	return &InMemoryPrompts{specs: m}
}

// List implements PromptRegistry.
func (r *InMemoryPrompts) List() []mcpprotocol.Prompt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcpprotocol.Prompt, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, mcpprotocol.Prompt{
			Name:        s.Name,
			Description: s.Description,
			Arguments:   s.Arguments,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve implements PromptRegistry.
func (r *InMemoryPrompts) Resolve(name string) (PromptSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[name]
	return s, ok
}

var _ PromptRegistry = (*InMemoryPrompts)(nil)
