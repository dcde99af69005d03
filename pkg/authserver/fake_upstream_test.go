package authserver

import (
	"context"

	"github.com/mcpgw/reddit-gateway/pkg/upstream"
)

// fakeUpstream is a test double for upstream.UpstreamAuthClient, configured
// per test with canned results.
type fakeUpstream struct {
	exchangeResult upstream.ExchangeResult
	exchangeErr    error
	refreshResult  upstream.RefreshResult
	refreshErr     error
	userID         string
	identifyErr    error
}

func (f *fakeUpstream) AuthorizeURL(state string) string {
	return "https://upstream.example.com/authorize?state=" + state
}

func (f *fakeUpstream) ExchangeCode(_ context.Context, _, _ string) (upstream.ExchangeResult, error) {
	return f.exchangeResult, f.exchangeErr
}

func (f *fakeUpstream) Refresh(_ context.Context, _ string) (upstream.RefreshResult, error) {
	return f.refreshResult, f.refreshErr
}

func (f *fakeUpstream) IdentifyUser(_ context.Context, _ string) (string, error) {
	return f.userID, f.identifyErr
}

var _ upstream.UpstreamAuthClient = (*fakeUpstream)(nil)
