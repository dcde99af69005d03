package registry

import (
	"sort"
	"sync"

	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
)

// InMemoryTools is the reference ToolRegistry: a fixed, process-scoped
// table of ToolSpecs built at construction time. Tool sets are not mutated
// at runtime in this reference implementation.
type InMemoryTools struct {
	mu    sync.RWMutex
	specs map[string]ToolSpec
}

// NewInMemoryTools constructs a registry seeded with specs.
func NewInMemoryTools(specs ...ToolSpec) *InMemoryTools {
	m := make(map[string]ToolSpec, len(specs))
	for _, s := range specs {
		m[s.Name] = s
	}
	return &InMemoryTools{specs: m}
}

// List implements ToolRegistry; the manifest is sorted by tool name.
func (r *InMemoryTools) List() []mcpprotocol.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcpprotocol.Tool, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, mcpprotocol.Tool{
			Name:        s.Name,
			Description: s.Description,
			InputSchema: s.InputSchema,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve implements ToolRegistry.
func (r *InMemoryTools) Resolve(name string) (ToolSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[name]
	return s, ok
}

var _ ToolRegistry = (*InMemoryTools)(nil)
