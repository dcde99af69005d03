package authserver

import (
	"net/http"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
	"github.com/mcpgw/reddit-gateway/pkg/oauthstate"
	"github.com/mcpgw/reddit-gateway/pkg/pkce"
)

func (s *AuthServer) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	responseType := q.Get("response_type")
	codeChallenge := q.Get("code_challenge")
	codeChallengeMethod := q.Get("code_challenge_method")
	state := q.Get("state")

	if clientID == "" || redirectURI == "" || codeChallenge == "" || state == "" {
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, "missing required parameter"))
		return
	}
	if responseType != "code" {
		apierror.WriteOAuth(w, apierror.New(apierror.KindUnsupportedResponse, "only response_type=code is supported"))
		return
	}
	if codeChallengeMethod != pkce.Method {
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, "only code_challenge_method=S256 is supported"))
		return
	}
	if s.clients.Get(clientID) == nil {
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, "unknown client_id"))
		return
	}
	if !s.clients.MatchRedirectURI(clientID, redirectURI) {
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, "redirect_uri is not permitted for this client"))
		return
	}

	nonce, err := pkce.GenerateState()
	if err != nil {
		apierror.WriteOAuth(w, apierror.New(apierror.KindServerError, "failed to start authorization"))
		return
	}

	key, err := s.store.PutPendingAuthorization(oauthstate.PendingAuthorization{
		CallerRedirectURI:   redirectURI,
		CallerCodeChallenge: codeChallenge,
		CallerState:         state,
		UpstreamNonce:       nonce,
	})
	if err != nil {
		apierror.WriteOAuth(w, apierror.New(apierror.KindServerError, "failed to start authorization"))
		return
	}

	upstreamState := key + ":" + nonce
	http.Redirect(w, r, s.upstreamAuth.AuthorizeURL(upstreamState), http.StatusFound)
}
