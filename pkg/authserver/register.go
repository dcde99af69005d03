package authserver

import (
	"encoding/json"
	"net/http"

	"github.com/mcpgw/reddit-gateway/pkg/apierror"
)

// registerRequest is the RFC 7591 Dynamic Client Registration request body,
// pared down to the fields this gateway actually consults.
type registerRequest struct {
	RedirectURIs      []string `json:"redirect_uris"`
	SoftwareStatement string   `json:"software_statement,omitempty"`
}

// registerResponse never carries a client secret: every registered client
// is public and authenticates via PKCE alone.
type registerResponse struct {
	ClientID                string   `json:"client_id"`
	RedirectURIs            []string `json:"redirect_uris,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
}

func (s *AuthServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, "malformed registration body"))
			return
		}
	}

	for _, uri := range req.RedirectURIs {
		if !IsAllowedRedirectURI(uri) {
			apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, "redirect_uri "+uri+" is not permitted"))
			return
		}
	}

	if req.SoftwareStatement != "" && s.statements.enabled() {
		if _, err := s.statements.verify(req.SoftwareStatement); err != nil {
			apierror.WriteOAuth(w, apierror.New(apierror.KindInvalidRequest, err.Error()))
			return
		}
	}

	clientID := s.clients.Register(req.RedirectURIs)
	client := s.clients.Get(clientID)

	writeJSON(w, http.StatusCreated, registerResponse{
		ClientID:                clientID,
		RedirectURIs:            client.GetRedirectURIs(),
		TokenEndpointAuthMethod: "none",
		GrantTypes:              []string{"authorization_code", "refresh_token"},
		ResponseTypes:           []string{"code"},
	})
}
