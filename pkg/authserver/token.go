package authserver

import (
	"net/http"
	"time"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
	"github.com/mcpgw/reddit-gateway/pkg/logger"
	"github.com/mcpgw/reddit-gateway/pkg/oauthstate"
	"github.com/mcpgw/reddit-gateway/pkg/pkce"
	"github.com/mcpgw/reddit-gateway/pkg/upstream"
)

// refreshNearExpiryWindow is the Open Question's resolution: refresh the
// upstream access token proactively only when its recorded expiry is within
// this window of the refresh_token grant's processing time.
const refreshNearExpiryWindow = 60 * time.Second

const bearerExpiresIn = 86400 // seconds; matches BearerToken's 24h lifetime.

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope"`
}

func (s *AuthServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, "malformed form body"))
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		s.handleAuthorizationCodeGrant(w, r)
	case "refresh_token":
		s.handleRefreshTokenGrant(w, r)
	case "":
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, "missing grant_type"))
	default:
		apierror.WriteOAuth(w, apierror.New(apierror.KindUnsupportedGrant, "unsupported grant_type"))
	}
}

func (s *AuthServer) handleAuthorizationCodeGrant(w http.ResponseWriter, r *http.Request) {
	code := r.PostForm.Get("code")
	redirectURI := r.PostForm.Get("redirect_uri")
	verifier := r.PostForm.Get("code_verifier")
	clientID := r.PostForm.Get("client_id")

	if code == "" || redirectURI == "" || verifier == "" || clientID == "" {
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, "missing required parameter"))
		return
	}

	row, err := s.store.TakeAuthorizationCode(code)
	if err != nil {
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidGrant, "unknown, expired, or already-redeemed code"))
		return
	}
	if row.CallerRedirectURI != redirectURI {
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidGrant, "redirect_uri does not match"))
		return
	}
	if !pkce.Verify(verifier, row.CallerCodeChallenge) {
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidGrant, "invalid code verifier"))
		return
	}

	now := time.Now()
	bearerToken, err := s.codec.Mint(row.UpstreamUserID, row.UpstreamAccessToken, row.UpstreamRefresh, now)
	if err != nil {
		apierror.WriteOAuth(w, apierror.New(apierror.KindServerError, "failed to mint token"))
		return
	}

	refreshKey, err := s.store.PutRefreshToken(oauthstate.RefreshTokenRecord{
		UpstreamUserID:      row.UpstreamUserID,
		UpstreamAccessToken: row.UpstreamAccessToken,
		UpstreamRefresh:     row.UpstreamRefresh,
		UpstreamExpiresAt:   row.UpstreamExpiresAt,
	})
	if err != nil {
		apierror.WriteOAuth(w, apierror.New(apierror.KindServerError, "failed to mint refresh token"))
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  bearerToken,
		TokenType:    "Bearer",
		ExpiresIn:    bearerExpiresIn,
		RefreshToken: refreshKey,
		Scope:        "read identity",
	})
}

func (s *AuthServer) handleRefreshTokenGrant(w http.ResponseWriter, r *http.Request) {
	refreshKey := r.PostForm.Get("refresh_token")
	if refreshKey == "" {
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, "missing refresh_token"))
		return
	}

	record, err := s.store.GetRefreshToken(refreshKey)
	if err != nil {
		apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidGrant, "unknown or expired refresh_token"))
		return
	}

	creds := upstream.Credentials{
		AccessToken:  record.UpstreamAccessToken,
		RefreshToken: record.UpstreamRefresh,
		ExpiresAt:    record.UpstreamExpiresAt,
	}
	now := time.Now()
	if creds.NearExpiry(now, refreshNearExpiryWindow) {
		refreshed, err := s.upstreamAuth.Refresh(r.Context(), record.UpstreamRefresh)
		if err != nil {
			// The caller's own refresh token is still valid; it is the
			// upstream leg that failed. Never report invalid_grant here.
			logger.Warnw("authserver: upstream refresh failed", "error", err)
			apierror.WriteOAuth(w, apierror.New(apierror.KindUpstreamError, "upstream token refresh failed"))
			return
		}
		record.UpstreamAccessToken = refreshed.AccessToken
		if refreshed.RefreshToken != "" {
			record.UpstreamRefresh = refreshed.RefreshToken
		}
		record.UpstreamExpiresAt = now.Add(refreshed.ExpiresIn)
		if err := s.store.UpdateRefreshToken(refreshKey, record); err != nil {
			apierror.WriteOAuth(w, apierror.New(apierror.KindServerError, "failed to persist refreshed upstream token"))
			return
		}
	}

	bearerToken, err := s.codec.Mint(record.UpstreamUserID, record.UpstreamAccessToken, record.UpstreamRefresh, time.Now())
	if err != nil {
		apierror.WriteOAuth(w, apierror.New(apierror.KindServerError, "failed to mint token"))
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: bearerToken,
		TokenType:   "Bearer",
		ExpiresIn:   bearerExpiresIn,
		Scope:       "read identity",
	})
}
