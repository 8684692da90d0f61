// Package event defines the payloads pushed over the real-time delivery
// channels. All events are serialized as JSON and carry a "type"
// discriminator; consumers must tolerate types they do not know.
package event

import (
	"encoding/json"
	"fmt"
)

// Event types delivered to clients.
const (
	// TypeConnected is the first frame on every delivery channel. It carries
	// the resolved user id so the client can confirm session identity.
	TypeConnected = "connected"

	// TypeNewMessage announces a freshly persisted chat message to both the
	// sender and the receiver.
	TypeNewMessage = "new-message"
)

// Envelope holds the type discriminator and the raw JSON payload for
// deferred parsing into a concrete struct.
type Envelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON captures the full raw bytes and extracts only the "type"
// field so the rest of the payload can be decoded later. Unknown types are
// not an error: the polling fallback is the correctness backstop and a
// client may simply ignore frames it does not understand.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	e.Raw = make(json.RawMessage, len(data))
	copy(e.Raw, data)

	var partial struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("event: failed to unmarshal envelope: %w", err)
	}
	e.Type = partial.Type
	return nil
}

// ConnectedPayload is the body of the connected event.
type ConnectedPayload struct {
	UserID int64 `json:"userId"`
}

// Marshal encodes payload as JSON with the "type" field set to eventType.
// It is the single place the discriminator gets injected, so payload structs
// never need to carry it themselves.
func Marshal(eventType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("event: failed to marshal payload: %w", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("event: payload must encode to a JSON object: %w", err)
	}
	m["type"] = eventType

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("event: failed to marshal event: %w", err)
	}
	return out, nil
}
