package httpapi

import "net/http"

// ws implements GET /ws/{session_id}: upgrades the connection and hands it
// to internal/wsapi, which owns the chat/heartbeat/history/sync protocol.
func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
	if h.d.WS == nil {
		http.Error(w, "websocket surface not configured", http.StatusNotImplemented)
		return
	}
	h.d.WS.HandleWebSocket(w, r, urlParam(r, "session_id"))
}
