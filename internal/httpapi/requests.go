package httpapi

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/studylink/tutor-app/internal/auth"
	"github.com/studylink/tutor-app/internal/metrics"
	"github.com/studylink/tutor-app/internal/store"
)

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	rows, err := h.requests.ListAll(r.Context())
	if err != nil {
		log.Printf("httpapi: [requests] list: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if rows == nil {
		rows = []store.Request{}
	}
	writeJSON(w, http.StatusOK, rows)
}

type createRequestRequest struct {
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var req createRequestRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "subject and message are required")
		return
	}

	start := time.Now()
	created, err := h.requests.Create(r.Context(), identity.UserID, req.Subject, req.Message)
	metrics.MutationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Printf("httpapi: [requests] create: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.notifier.RequestPosted(r.Context(), identity.UserID, req.Subject)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Request posted",
		"request": created,
	})
}

type updateRequestRequest struct {
	Status  string `json:"status" validate:"required,oneof=open accepted declined"`
	TutorID int64  `json:"tutor_id"`
}

// updateRequest transitions a help request. Accepting one also creates a
// booking one day out and notifies the student.
func (h *Handler) updateRequest(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	var req updateRequestRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	existing, err := h.requests.Get(r.Context(), id)
	if err != nil {
		log.Printf("httpapi: [requests] get: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Request not found")
		return
	}

	if req.Status != store.RequestAccepted {
		if err := h.requests.SetStatus(r.Context(), id, req.Status); err != nil {
			log.Printf("httpapi: [requests] status: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Request updated"})
		return
	}

	tutorID := req.TutorID
	if tutorID == 0 {
		tutorID = identity.UserID
	}
	if err := h.requests.Accept(r.Context(), id, tutorID); err != nil {
		log.Printf("httpapi: [requests] accept: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	sessionTime := time.Now().Add(24 * time.Hour)
	meetLink := store.NewMeetLink()
	bookingID, err := h.bookings.Create(r.Context(), &id, existing.StudentID, tutorID, sessionTime, meetLink)
	if err != nil {
		log.Printf("httpapi: [requests] booking: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	tutorName, err := h.users.GetName(r.Context(), tutorID)
	if err != nil || tutorName == "" {
		tutorName = "Tutor"
	}
	h.notifier.RequestAccepted(r.Context(), existing.StudentID, tutorName, existing.Subject)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Request accepted",
		"booking_id":   bookingID,
		"meet_link":    meetLink,
		"session_time": sessionTime,
	})
}
