package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/radbot/gateway/internal/store"
)

func (h *handlers) listWebhookDefinitions(w http.ResponseWriter, r *http.Request) {
	if h.d.Webhooks == nil {
		http.Error(w, "webhook store not configured", http.StatusNotImplemented)
		return
	}
	recs, err := h.d.Webhooks.ListWebhookDefinitions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *handlers) createWebhookDefinition(w http.ResponseWriter, r *http.Request) {
	if h.d.Webhooks == nil {
		http.Error(w, "webhook store not configured", http.StatusNotImplemented)
		return
	}
	var rec store.WebhookDefinitionRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if rec.ID == "" {
		rec.ID = store.GenNewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := h.d.Webhooks.SaveWebhookDefinition(rec); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *handlers) deleteWebhookDefinition(w http.ResponseWriter, r *http.Request) {
	if h.d.Webhooks == nil {
		http.Error(w, "webhook store not configured", http.StatusNotImplemented)
		return
	}
	if err := h.d.Webhooks.DeleteWebhookDefinition(urlParam(r, "id")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// dispatchWebhook implements POST /webhooks/{slug}: looked
// up by slug, optionally HMAC-verified, run on a synthesized session.
func (h *handlers) dispatchWebhook(w http.ResponseWriter, r *http.Request) {
	if h.d.WebhookDisp == nil {
		http.Error(w, "webhook store not configured", http.StatusNotImplemented)
		return
	}
	h.d.WebhookDisp.Handle(w, r, urlParam(r, "slug"))
}
