package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/radbot/gateway/internal/mcp"
)

// requireAdminToken gates every /admin/* route behind a bearer token
// configured via the RADBOT_ADMIN_TOKEN environment variable. An empty
// AdminToken refuses every request rather than silently allowing one —
// the admin surface has no safe default.
func (h *handlers) requireAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.d.Config.AdminToken
		if token == "" {
			http.Error(w, "admin surface disabled: no admin token configured", http.StatusForbidden)
			return
		}
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if got == "" || got != token {
			http.Error(w, "invalid admin token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminConfigView implements GET /admin/config: the merged, live
// configuration view. Secrets (CredentialKey, AdminToken, PostgresDSN,
// APIKeys) are never marshaled — the config struct's json tags already
// exclude them ("-"), with APIKeys redacted explicitly below since it is
// a regular exported map.
func (h *handlers) adminConfigView(w http.ResponseWriter, r *http.Request) {
	snap := h.d.Config.Snapshot()
	snap.APIKeys = redactedKeys(snap.APIKeys)
	writeJSON(w, http.StatusOK, snap)
}

func redactedKeys(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k := range m {
		out[k] = "[redacted]"
	}
	return out
}

// listCredentials implements GET /admin/credentials: metadata only, never
// decrypted values (credential.Record never carries plaintext).
func (h *handlers) listCredentials(w http.ResponseWriter, r *http.Request) {
	if h.d.Credentials == nil {
		http.Error(w, "credential store not configured", http.StatusNotImplemented)
		return
	}
	recs, err := h.d.Credentials.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

type putCredentialRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Value       string `json:"value"`
}

// putCredential implements PUT /admin/credentials/{name}: encrypts and
// upserts a named secret.
func (h *handlers) putCredential(w http.ResponseWriter, r *http.Request) {
	if h.d.Credentials == nil {
		http.Error(w, "credential store not configured", http.StatusNotImplemented)
		return
	}
	var req putCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Value == "" {
		http.Error(w, "value is required", http.StatusBadRequest)
		return
	}
	name := urlParam(r, "name")
	if err := h.d.Credentials.Put(r.Context(), name, req.Type, req.Description, req.Value); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteCredential implements DELETE /admin/credentials/{name}.
func (h *handlers) deleteCredential(w http.ResponseWriter, r *http.Request) {
	if h.d.Credentials == nil {
		http.Error(w, "credential store not configured", http.StatusNotImplemented)
		return
	}
	if err := h.d.Credentials.Delete(r.Context(), urlParam(r, "name")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// adminMCPStatus implements GET /admin/mcp/servers: per-server connection
// status, surfaced straight from internal/mcp.Manager.ServerStatus.
func (h *handlers) adminMCPStatus(w http.ResponseWriter, r *http.Request) {
	if h.d.MCP == nil {
		writeJSON(w, http.StatusOK, []mcp.ServerStatus{})
		return
	}
	writeJSON(w, http.StatusOK, h.d.MCP.ServerStatus())
}
