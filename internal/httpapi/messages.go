package httpapi

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/studylink/tutor-app/internal/auth"
	"github.com/studylink/tutor-app/internal/event"
	"github.com/studylink/tutor-app/internal/metrics"
	"github.com/studylink/tutor-app/internal/ratelimit"
	"github.com/studylink/tutor-app/internal/store"
)

const maxMessageLength = 2000

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	msgs, err := h.messages.ListForUser(r.Context(), identity.UserID)
	if err != nil {
		log.Printf("httpapi: [messages] list: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

type sendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required,max=2000"`
}

type newMessagePayload struct {
	Message *store.Message `json:"message"`
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	if h.limiter != nil {
		ok, err := h.limiter.Allow(r.Context(), strconv.FormatInt(identity.UserID, 10), ratelimit.RuleMessage)
		if err == nil && !ok {
			metrics.MessagesTotal.WithLabelValues("rate_limited").Inc()
			writeError(w, http.StatusTooManyRequests, "Too many messages, slow down")
			return
		}
	}

	var req sendMessageRequest
	if err := h.decodeValid(r, &req); err != nil {
		metrics.MessagesTotal.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "Message content is required and must be at most 2000 characters")
		return
	}

	start := time.Now()
	msg, err := h.messages.Create(r.Context(), identity.UserID, req.ReceiverID, req.Content)
	metrics.MutationLatency.Observe(time.Since(start).Seconds())
	if err == store.ErrUnknownParticipant {
		metrics.MessagesTotal.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "Receiver does not exist")
		return
	}
	if err != nil {
		log.Printf("httpapi: [messages] create: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	metrics.MessagesTotal.WithLabelValues("sent").Inc()

	// Push to both sides so every open conversation view updates, whether
	// the sender has other tabs open or not. Delivery failures are
	// invisible here: clients that miss the push reconcile via polling.
	payload, err := event.Marshal(event.TypeNewMessage, newMessagePayload{Message: msg})
	if err != nil {
		log.Printf("httpapi: [messages] marshal event: %v", err)
	} else {
		h.hub.Broadcast(req.ReceiverID, payload)
		if req.ReceiverID != identity.UserID {
			h.hub.Broadcast(identity.UserID, payload)
		}
		metrics.BroadcastsTotal.WithLabelValues(event.TypeNewMessage).Inc()
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Message sent",
		"data":    msg,
	})
}
