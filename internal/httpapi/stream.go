package httpapi

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/studylink/tutor-app/internal/auth"
	"github.com/studylink/tutor-app/internal/event"
	"github.com/studylink/tutor-app/internal/metrics"
)

// stream serves the SSE delivery channel. The connection stays open until
// the client goes away; the subscription is released on every exit path.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	// Tells nginx-style proxies not to buffer the stream.
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Buffered so a slow write never blocks Broadcast. If the buffer fills
	// the event is dropped; the polling fallback reconciles the gap.
	events := make(chan []byte, 16)
	unsubscribe := h.hub.Subscribe(identity.UserID, func(payload []byte) {
		select {
		case events <- payload:
		default:
		}
	})
	defer unsubscribe()

	metrics.OpenChannels.WithLabelValues("sse").Inc()
	defer metrics.OpenChannels.WithLabelValues("sse").Dec()

	connected, err := event.Marshal(event.TypeConnected, event.ConnectedPayload{UserID: identity.UserID})
	if err != nil {
		log.Printf("httpapi: [stream] marshal connected: %v", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", connected)
	flusher.Flush()

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-events:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
