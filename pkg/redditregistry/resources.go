// Package redditregistry wires the reference Reddit upstream into the
// three content-catalog ports (pkg/registry): tools, prompts, resources.
// Nothing in pkg/mcpengine imports this package directly — it is assembled
// at process startup (cmd/gateway) and handed to McpInstance through the
// registry.* interfaces, keeping the core upstream-agnostic.
package redditregistry

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
	"github.com/mcpgw/reddit-gateway/pkg/registry"
	"github.com/mcpgw/reddit-gateway/pkg/upstream"
)

var subredditAboutPattern = regexp.MustCompile(`^reddit://subreddit/([A-Za-z0-9_]+)/about$`)

// Resources is a ResourceRegistry over a small set of featured subreddits
// (for resources/list) plus a dynamic reddit://subreddit/{name}/about
// resolver that serves any syntactically valid subreddit name (for
// resources/read and for prompt resource-injection) — the catalog stays
// flat (no hierarchical traversal), but a subreddit's About document is
// cheap enough to synthesize per request rather than enumerate in full.
type Resources struct {
	api      upstream.UpstreamApiPort
	mu       sync.RWMutex
	featured []string
}

// NewResources constructs a Resources registry seeded with featured
// subreddits shown in resources/list.
func NewResources(api upstream.UpstreamApiPort, featuredSubreddits ...string) *Resources {
	if len(featuredSubreddits) == 0 {
		featuredSubreddits = []string{"golang", "programming"}
	}
	return &Resources{api: api, featured: featuredSubreddits}
}

// List implements registry.ResourceRegistry.
func (r *Resources) List() []mcpprotocol.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcpprotocol.Resource, 0, len(r.featured))
	for _, name := range r.featured {
		out = append(out, mcpprotocol.Resource{
			URI:      subredditAboutURI(name),
			Name:     fmt.Sprintf("r/%s about", name),
			MimeType: "application/json",
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Resolve implements registry.ResourceRegistry, matching any
// reddit://subreddit/{name}/about URI dynamically.
func (r *Resources) Resolve(uri string) (registry.ResourceSpec, bool) {
	m := subredditAboutPattern.FindStringSubmatch(uri)
	if m == nil {
		return registry.ResourceSpec{}, false
	}
	subreddit := m[1]
	api := r.api
	return registry.ResourceSpec{
		URI:              uri,
		Name:             fmt.Sprintf("r/%s about", subreddit),
		MimeType:         "application/json",
		RequiresUpstream: true,
		Read: func(ctx context.Context, creds upstream.Credentials) (string, error) {
			about, err := api.SubredditAbout(ctx, creds, subreddit)
			if err != nil {
				return "", err
			}
			body, err := json.Marshal(about)
			if err != nil {
				return "", apierror.New(apierror.KindServerError, "failed to render resource body")
			}
			return string(body), nil
		},
	}, true
}

func subredditAboutURI(name string) string {
	return fmt.Sprintf("reddit://subreddit/%s/about", name)
}

var _ registry.ResourceRegistry = (*Resources)(nil)
