package authserver

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
	"github.com/mcpgw/reddit-gateway/pkg/logger"
	"github.com/mcpgw/reddit-gateway/pkg/oauthstate"
)

func (s *AuthServer) handleUpstreamCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	state := q.Get("state")
	upstreamErr := q.Get("error")

	if upstreamErr != "" {
		apierror.WriteOAuth(w, apierror.New(apierror.KindAccessDenied, "upstream declined authorization"))
		return
	}
	if code == "" || state == "" {
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, "missing code or state"))
		return
	}

	key, nonce, ok := strings.Cut(state, ":")
	if !ok {
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, "malformed state"))
		return
	}

	pending, err := s.store.TakePendingAuthorization(key)
	if err != nil {
		// Either unknown, already consumed by a racing callback, or expired.
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, "unknown or already-consumed authorization"))
		return
	}
	if pending.UpstreamNonce != nonce {
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, "state nonce mismatch"))
		return
	}

	exch, err := s.upstreamAuth.ExchangeCode(r.Context(), code, s.upstreamCallbackURL)
	if err != nil {
		apierror.WriteOAuth(w, err)
		return
	}

	userID, err := s.upstreamAuth.IdentifyUser(r.Context(), exch.AccessToken)
	if err != nil {
		logger.Warnw("authserver: failed to identify upstream user after token exchange", "error", err)
		apierror.WriteOAuth(w, apierror.New(apierror.KindUpstreamError, "failed to identify upstream user"))
		return
	}

	codeKey, err := s.store.PutAuthorizationCode(oauthstate.AuthorizationCode{
		CallerRedirectURI:   pending.CallerRedirectURI,
		CallerCodeChallenge: pending.CallerCodeChallenge,
		UpstreamUserID:      userID,
		UpstreamAccessToken: exch.AccessToken,
		UpstreamRefresh:     exch.RefreshToken,
		UpstreamExpiresAt:   time.Now().Add(exch.ExpiresIn),
	})
	if err != nil {
		apierror.WriteOAuth(w, apierror.New(apierror.KindServerError, "failed to finish authorization"))
		return
	}

	redirectTo, err := url.Parse(pending.CallerRedirectURI)
	if err != nil {
		apierror.WriteOAuth(w, apierror.New(apierror.KindServerError, "invalid stored redirect URI"))
		return
	}
	values := redirectTo.Query()
	values.Set("code", codeKey)
	values.Set("state", pending.CallerState)
	redirectTo.RawQuery = values.Encode()

	http.Redirect(w, r, redirectTo.String(), http.StatusFound)
}
