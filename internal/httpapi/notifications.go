package httpapi

import (
	"log"
	"net/http"

	"github.com/studylink/tutor-app/internal/auth"
	"github.com/studylink/tutor-app/internal/store"
)

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	rows, err := h.notifications.ListForUser(r.Context(), identity.UserID)
	if err != nil {
		log.Printf("httpapi: [notifications] list: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if rows == nil {
		rows = []store.Notification{}
	}
	writeJSON(w, http.StatusOK, rows)
}
