package notify

import (
	"context"
	"errors"
	"testing"
)

type recordedNote struct {
	userID  int64
	title   string
	partner *string
	credits int
}

type recordingStore struct {
	notes []recordedNote
	err   error
}

func (s *recordingStore) Create(_ context.Context, userID int64, title string, partner *string, credits int) error {
	if s.err != nil {
		return s.err
	}
	s.notes = append(s.notes, recordedNote{userID, title, partner, credits})
	return nil
}

func TestBookingConfirmedNotifiesBothParticipants(t *testing.T) {
	store := &recordingStore{}
	n := New(store)

	n.BookingConfirmed(context.Background(), 10, 20, "Sam", "Tina")

	if len(store.notes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(store.notes))
	}

	student, tutor := store.notes[0], store.notes[1]
	if student.userID != 10 || tutor.userID != 20 {
		t.Fatalf("wrong recipients: %d, %d", student.userID, tutor.userID)
	}
	if student.partner == nil || *student.partner != "Tina" {
		t.Errorf("student notification should name the tutor, got %v", student.partner)
	}
	if tutor.partner == nil || *tutor.partner != "Sam" {
		t.Errorf("tutor notification should name the student, got %v", tutor.partner)
	}
}

func TestCreateFailureIsSwallowed(t *testing.T) {
	store := &recordingStore{err: errors.New("insert failed")}
	n := New(store)

	// Must not panic and must not surface the error; the caller's mutation
	// already succeeded.
	n.PaymentProcessed(context.Background(), 1, 25.0, 2)
}

func TestPaymentProcessedCarriesCredits(t *testing.T) {
	store := &recordingStore{}
	n := New(store)

	n.PaymentProcessed(context.Background(), 1, 25.0, 2)

	if len(store.notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(store.notes))
	}
	note := store.notes[0]
	if note.credits != 2 {
		t.Errorf("credits = %d, want 2", note.credits)
	}
	if want := "Payment successful! $25.00 processed."; note.title != want {
		t.Errorf("title = %q, want %q", note.title, want)
	}
}
