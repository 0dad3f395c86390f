package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/radbot/gateway/internal/store"
)

func (h *handlers) listScheduledTasks(w http.ResponseWriter, r *http.Request) {
	if h.d.Scheduler == nil {
		http.Error(w, "scheduler store not configured", http.StatusNotImplemented)
		return
	}
	recs, err := h.d.Scheduler.ListScheduledTasks()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *handlers) createScheduledTask(w http.ResponseWriter, r *http.Request) {
	if h.d.Scheduler == nil {
		http.Error(w, "scheduler store not configured", http.StatusNotImplemented)
		return
	}
	var rec store.ScheduledTaskRecord
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
	if err := h.d.Scheduler.SaveScheduledTask(rec); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *handlers) updateScheduledTask(w http.ResponseWriter, r *http.Request) {
	if h.d.Scheduler == nil {
		http.Error(w, "scheduler store not configured", http.StatusNotImplemented)
		return
	}
	id := urlParam(r, "id")
	var rec store.ScheduledTaskRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	rec.ID = id
	if err := h.d.Scheduler.SaveScheduledTask(rec); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handlers) deleteScheduledTask(w http.ResponseWriter, r *http.Request) {
	if h.d.Scheduler == nil {
		http.Error(w, "scheduler store not configured", http.StatusNotImplemented)
		return
	}
	if err := h.d.Scheduler.DeleteScheduledTask(urlParam(r, "id")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
