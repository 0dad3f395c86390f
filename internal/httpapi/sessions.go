package httpapi

import (
	"net/http"

	"github.com/radbot/gateway/internal/store"
)

func (h *handlers) listSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.d.Sessions.List())
}

func (h *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}
	s := h.d.Sessions.Create(userID)
	writeJSON(w, http.StatusCreated, store.SessionSummary{
		ID: s.ID, UserID: s.UserID, CreatedAt: s.CreatedAt, LastActive: s.LastActive,
	})
}

func (h *handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if err := h.d.Sessions.Delete(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) resetSession(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if err := h.d.Sessions.Reset(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// sessionEvents returns the untruncated event log (scenario 6: the stored
// event is never mutated by WS truncation, only what a live subscriber
// receives is shortened).
func (h *handlers) sessionEvents(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	s, ok := h.d.Sessions.Get(id)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.Events())
}
