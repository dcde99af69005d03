package registry

import (
	"sort"
	"sync"

	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
)

// InMemoryResources is the reference ResourceRegistry: a flat, fixed,
// process-scoped catalog of ResourceSpecs.
type InMemoryResources struct {
	mu    sync.RWMutex
	specs map[string]ResourceSpec
}

// NewInMemoryResources constructs a registry seeded with specs.
func NewInMemoryResources(specs ...ResourceSpec) *InMemoryResources {
	m := make(map[string]ResourceSpec, len(specs))
	for _, s := range specs {
		m[s.URI] = s
	}
	return &InMemoryResources{specs: m}
}

// List implements ResourceRegistry.
func (r *InMemoryResources) List() []mcpprotocol.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcpprotocol.Resource, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, mcpprotocol.Resource{URI: s.URI, Name: s.Name, MimeType: s.MimeType})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Resolve implements ResourceRegistry. The catalog is flat: unknown URIs
// are reported as not-found by the caller, never partially matched.
func (r *InMemoryResources) Resolve(uri string) (ResourceSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[uri]
	return s, ok
}

var _ ResourceRegistry = (*InMemoryResources)(nil)
