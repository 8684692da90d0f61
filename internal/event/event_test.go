package event

import (
	"encoding/json"
	"testing"
)

func TestMarshalInjectsType(t *testing.T) {
	data, err := Marshal(TypeConnected, ConnectedPayload{UserID: 42})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if m["type"] != TypeConnected {
		t.Errorf("expected type %q, got %v", TypeConnected, m["type"])
	}
	if m["userId"] != float64(42) {
		t.Errorf("expected userId 42, got %v", m["userId"])
	}
}

func TestMarshalNonObjectPayload(t *testing.T) {
	if _, err := Marshal(TypeNewMessage, []int{1, 2, 3}); err == nil {
		t.Fatal("expected error for non-object payload")
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	data, err := Marshal(TypeNewMessage, map[string]interface{}{
		"message": map[string]interface{}{"content": "hi"},
	})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Type != TypeNewMessage {
		t.Errorf("expected type %q, got %q", TypeNewMessage, env.Type)
	}
	if len(env.Raw) == 0 {
		t.Error("expected raw payload to be captured")
	}
}

func TestEnvelopeToleratesUnknownType(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"type":"promo-banner","text":"hello"}`), &env); err != nil {
		t.Fatalf("unknown type should not be an error: %v", err)
	}
	if env.Type != "promo-banner" {
		t.Errorf("expected type to pass through, got %q", env.Type)
	}
}

func TestEnvelopeMissingTypeIsEmpty(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"text":"hello"}`), &env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Type != "" {
		t.Errorf("expected empty type, got %q", env.Type)
	}
}
