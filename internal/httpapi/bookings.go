package httpapi

import (
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/studylink/tutor-app/internal/auth"
	"github.com/studylink/tutor-app/internal/metrics"
	"github.com/studylink/tutor-app/internal/store"
)

type createBookingRequest struct {
	StudentID   int64  `json:"student_id" validate:"required"`
	TutorID     int64  `json:"tutor_id" validate:"required"`
	SessionTime string `json:"session_time" validate:"required"`
}

func parseSessionTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}

func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "student_id, tutor_id and session_time are required")
		return
	}

	sessionTime, err := parseSessionTime(req.SessionTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session_time")
		return
	}

	// Display reference for the confirmation screen, not a help-request key.
	refID := rand.Int63n(900000) + 100000
	meetLink := store.NewMeetLink()

	start := time.Now()
	id, err := h.bookings.Create(r.Context(), &refID, req.StudentID, req.TutorID, sessionTime, meetLink)
	metrics.MutationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Printf("httpapi: [booking] create: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	studentName, err := h.users.GetName(r.Context(), req.StudentID)
	if err != nil || studentName == "" {
		studentName = "Student"
	}
	tutorName, err := h.users.GetName(r.Context(), req.TutorID)
	if err != nil || tutorName == "" {
		tutorName = "Tutor"
	}
	h.notifier.BookingConfirmed(r.Context(), req.StudentID, req.TutorID, studentName, tutorName)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":      "Booking confirmed",
		"id":           id,
		"request_id":   refID,
		"meet_link":    meetLink,
		"session_time": sessionTime,
	})
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	rows, err := h.bookings.ListForUser(r.Context(), identity.UserID)
	if err != nil {
		log.Printf("httpapi: [sessions] list: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if rows == nil {
		rows = []store.Booking{}
	}
	writeJSON(w, http.StatusOK, rows)
}
