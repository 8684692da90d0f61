// Package hub implements the in-process subscription registry and event
// broadcaster behind the real-time delivery channels. It maps a user id to
// the set of currently open delivery listeners (one per connected tab) and
// fans each broadcast out to all of them synchronously.
//
// The hub is deliberately fire-and-forget: there is no queueing, no
// durability and no delivery across process boundaries. An event broadcast
// while a user has no open channel is lost; clients recover through the
// polling fallback, which re-fetches full collections from the database.
package hub

import (
	"log"
	"sync"
)

// ListenerFunc receives one serialized event payload per broadcast. It is
// invoked synchronously from Broadcast and must not block.
type ListenerFunc func(payload []byte)

// registration pairs a listener with its owning user. The pointer identity
// is what Subscribe hands back through the unsubscribe capability, so two
// registrations of the same function never collide.
type registration struct {
	userID int64
	fn     ListenerFunc
}

// Hub is the process-wide registry. A single instance is constructed at
// bootstrap and passed to every endpoint that needs it; there is no
// package-level state.
type Hub struct {
	mu        sync.RWMutex
	listeners map[int64]map[*registration]struct{}
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		listeners: make(map[int64]map[*registration]struct{}),
	}
}

// Subscribe registers fn under userID and returns the capability that
// removes exactly this registration. The returned function is safe to call
// from any goroutine and is a no-op after the first call; the user's entry
// is dropped entirely once its set empties. Every delivery channel must
// invoke the capability on every exit path, otherwise the registration
// leaks for the life of the process.
func (h *Hub) Subscribe(userID int64, fn ListenerFunc) (unsubscribe func()) {
	reg := &registration{userID: userID, fn: fn}

	h.mu.Lock()
	set, ok := h.listeners[userID]
	if !ok {
		set = make(map[*registration]struct{})
		h.listeners[userID] = set
	}
	set[reg] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.listeners[userID]; ok {
				delete(set, reg)
				if len(set) == 0 {
					delete(h.listeners, userID)
				}
			}
			h.mu.Unlock()
		})
	}
}

// Broadcast synchronously invokes every listener currently registered for
// userID with payload, in unspecified order. A user with no registrations
// is a silent no-op: nothing is queued and no error reaches the caller.
// A panicking listener is isolated so it cannot rob the remaining
// listeners of their delivery.
func (h *Hub) Broadcast(userID int64, payload []byte) {
	h.mu.RLock()
	set := h.listeners[userID]
	regs := make([]*registration, 0, len(set))
	for reg := range set {
		regs = append(regs, reg)
	}
	h.mu.RUnlock()

	for _, reg := range regs {
		reg.invoke(payload)
	}
}

func (r *registration) invoke(payload []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("hub: listener panic user=%d: %v", r.userID, rec)
		}
	}()
	r.fn(payload)
}

// Listeners returns the number of registrations currently held for userID.
func (h *Hub) Listeners(userID int64) int {
	h.mu.RLock()
	n := len(h.listeners[userID])
	h.mu.RUnlock()
	return n
}

// Users returns the number of distinct users with at least one open
// listener. Exposed on the health endpoint.
func (h *Hub) Users() int {
	h.mu.RLock()
	n := len(h.listeners)
	h.mu.RUnlock()
	return n
}
