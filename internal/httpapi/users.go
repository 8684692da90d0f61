package httpapi

import (
	"log"
	"net/http"

	"github.com/studylink/tutor-app/internal/auth"
	"github.com/studylink/tutor-app/internal/store"
)

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	u, err := h.users.GetByID(r.Context(), identity.UserID)
	if err != nil {
		log.Printf("httpapi: [me] lookup: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type updateProfileRequest struct {
	Name       string  `json:"name" validate:"required"`
	ProfilePic *string `json:"profile_pic"`
	Expertise  string  `json:"expertise"`
	Bio        string  `json:"bio"`
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var req updateProfileRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid profile payload")
		return
	}

	if err := h.users.UpdateProfile(r.Context(), identity.UserID, req.Name, req.ProfilePic, req.Expertise, req.Bio); err != nil {
		log.Printf("httpapi: [update profile] %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated"})
}

func (h *Handler) browse(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	tutors, err := h.users.ListTutors(r.Context(), identity.UserID)
	if err != nil {
		log.Printf("httpapi: [browse] %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if tutors == nil {
		tutors = []store.User{}
	}
	writeJSON(w, http.StatusOK, tutors)
}
