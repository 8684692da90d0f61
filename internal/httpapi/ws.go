package httpapi

import (
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/studylink/tutor-app/internal/auth"
	"github.com/studylink/tutor-app/internal/event"
	"github.com/studylink/tutor-app/internal/metrics"
)

// wsConn wraps a WebSocket connection with a write mutex so the event
// goroutine and the keep-alive ticker do not interleave frame bytes.
type wsConn struct {
	conn net.Conn
	mu   sync.Mutex
}

func (c *wsConn) writeText(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wsutil.WriteServerMessage(c.conn, ws.OpText, data)
}

func (c *wsConn) writePing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wsutil.WriteServerMessage(c.conn, ws.OpPing, nil)
}

// streamWS serves the WebSocket delivery channel. It carries the same
// events as the SSE endpoint through the same registry; clients pick
// whichever transport suits them.
func (h *Handler) streamWS(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Printf("httpapi: [ws] upgrade: %v", err)
		return
	}
	c := &wsConn{conn: conn}
	defer conn.Close()

	events := make(chan []byte, 16)
	unsubscribe := h.hub.Subscribe(identity.UserID, func(payload []byte) {
		select {
		case events <- payload:
		default:
		}
	})
	defer unsubscribe()

	metrics.OpenChannels.WithLabelValues("ws").Inc()
	defer metrics.OpenChannels.WithLabelValues("ws").Dec()

	connected, err := event.Marshal(event.TypeConnected, event.ConnectedPayload{UserID: identity.UserID})
	if err != nil {
		log.Printf("httpapi: [ws] marshal connected: %v", err)
		return
	}
	if err := c.writeText(connected); err != nil {
		return
	}

	// Drain inbound frames so control frames are answered and a client
	// close is noticed promptly. Inbound data frames are ignored: all
	// mutations go through the REST endpoints.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := wsutil.ReadClientData(conn); err != nil {
				return
			}
		}
	}()

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-done:
			return
		case payload := <-events:
			if err := c.writeText(payload); err != nil {
				return
			}
		case <-keepAlive.C:
			if err := c.writePing(); err != nil {
				return
			}
		}
	}
}
