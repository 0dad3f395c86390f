package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radbot/gateway/internal/eventbus"
	"github.com/radbot/gateway/internal/session"
)

type chatResponse struct {
	SessionID string          `json:"session_id"`
	Response  string          `json:"response"`
	Events    []session.Event `json:"events"`
}

// postChat implements POST /api/chat: form fields message, session_id?.
// A missing session_id creates a fresh session on the root agent.
func (h *handlers) postChat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	message := r.FormValue("message")
	if message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		s := h.d.Sessions.Create(session.RootAgent)
		sessionID = s.ID
	} else if _, ok := h.d.Sessions.Get(sessionID); !ok {
		h.d.Sessions.GetOrCreate(sessionID, session.RootAgent)
	}

	result, err := h.d.Runner.RunTurn(r.Context(), sessionID, message)
	if err != nil {
		h.d.logger().Warn("httpapi.chat.turn_failed", "session_id", sessionID, "error", err)
		http.Error(w, "turn failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	truncated := make([]session.Event, len(result.Events))
	for i, e := range result.Events {
		truncated[i] = eventbus.Truncate(e)
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: result.SessionID,
		Response:  result.Content,
		Events:    truncated,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
