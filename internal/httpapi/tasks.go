package httpapi

import "net/http"

// todoStub answers the /api/tasks CRUD surface. Todo project/task bodies
// are an external collaborator; the gateway exposes
// the route shape but has no domain logic of its own to run, so every verb
// reports 501 rather than faking a backing store.
func (h *handlers) todoStub(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "todo task storage is an external collaborator, not implemented by this gateway", http.StatusNotImplemented)
}
