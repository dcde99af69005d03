package mcpserver

import (
	"encoding/json"
	"net/http"

	"github.com/mcpgw/reddit-gateway/pkg/mcpprotocol"
)

// tableLenCounter is the narrow capability the health handler needs from
// session.Table, kept as an interface so this file doesn't otherwise
// couple to the session package's concrete type.
type tableLenCounter interface {
	Len() int
}

// NewHealthHandler builds the liveness probe at GET /health: it reports
// process health and the capability flags a caller can use to detect what
// this deployment supports without a full discovery round-trip.
func NewHealthHandler(sessions tableLenCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSONHealth(w, http.StatusOK, map[string]any{
			"status":           "ok",
			"protocol_version": mcpprotocol.ProtocolVersion,
			"active_sessions":  sessions.Len(),
			"capabilities": map[string]bool{
				"tools":     true,
				"prompts":   true,
				"resources": true,
				"sampling":  true,
			},
		})
	}
}

// IndexHandler serves GET / with a service index naming every absolute
// endpoint URL this deployment exposes.
func IndexHandler(issuer string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSONHealth(w, http.StatusOK, map[string]any{
			"service": "reddit-gateway",
			"endpoints": map[string]string{
				"authorization_server_metadata": issuer + "/.well-known/oauth-authorization-server",
				"protected_resource_metadata":   issuer + "/.well-known/oauth-protected-resource",
				"register":                      issuer + "/oauth/register",
				"authorize":                     issuer + "/oauth/authorize",
				"token":                         issuer + "/oauth/token",
				"mcp":                           issuer + "/mcp",
				"health":                        issuer + "/health",
				"metrics":                       issuer + "/metrics",
			},
		})
	}
}

func writeJSONHealth(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
