package httpapi

import (
	"net/http"
)

type toolSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// listTools implements GET /api/tools?session_id=… : the tools visible to
// a session's current agent.
func (h *handlers) listTools(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	s, ok := h.d.Sessions.Get(sessionID)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	handles := h.d.Tools.ToolsFor(s.CurrentAgent())
	out := make([]toolSummary, 0, len(handles))
	for _, hd := range handles {
		out = append(out, toolSummary{Name: hd.Name, Description: hd.Description, Source: hd.Source.Kind})
	}
	writeJSON(w, http.StatusOK, out)
}

// agentInfo implements GET /api/agent-info: every agent's name and model
// mapping.
func (h *handlers) agentInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.d.Agents.Tree())
}
