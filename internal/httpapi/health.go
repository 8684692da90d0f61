package httpapi

import (
	"net/http"
	"time"
)

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"connected_users": h.hub.Users(),
		"uptime":          time.Since(h.startedAt).Round(time.Second).String(),
	})
}
