// Package notify creates notification rows as side effects of mutations.
// Creation is best-effort by contract: a failed insert is logged and the
// parent mutation still succeeds — the user simply never sees that entry.
// Notifications are not pushed over the live channels; they surface on the
// client's next notification poll.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/studylink/tutor-app/internal/metrics"
)

// Store is the slice of the notification store the notifier writes through.
type Store interface {
	Create(ctx context.Context, userID int64, title string, partner *string, credits int) error
}

// Notifier fans mutation side effects out into per-user notification rows.
type Notifier struct {
	store Store
}

// New creates a Notifier writing through the given store.
func New(store Store) *Notifier {
	return &Notifier{store: store}
}

// BookingConfirmed records one notification for each participant of a new
// booking, each naming the counterpart.
func (n *Notifier) BookingConfirmed(ctx context.Context, studentID, tutorID int64, studentName, tutorName string) {
	n.create(ctx, studentID, "Booking confirmed! Your session has been scheduled.", &tutorName, 0)
	n.create(ctx, tutorID, "New booking! You have a session scheduled.", &studentName, 0)
}

// RequestPosted confirms to the poster that their help request is live.
func (n *Notifier) RequestPosted(ctx context.Context, userID int64, subject string) {
	title := fmt.Sprintf("Your request for %q has been posted successfully.", subject)
	n.create(ctx, userID, title, nil, 0)
}

// RequestAccepted tells the student a tutor picked up their request.
func (n *Notifier) RequestAccepted(ctx context.Context, studentID int64, tutorName, subject string) {
	title := fmt.Sprintf("Your request for %q was accepted.", subject)
	n.create(ctx, studentID, title, &tutorName, 0)
}

// PaymentProcessed records a successful mock payment and its credit grant.
func (n *Notifier) PaymentProcessed(ctx context.Context, userID int64, amount float64, credits int) {
	title := fmt.Sprintf("Payment successful! $%.2f processed.", amount)
	n.create(ctx, userID, title, nil, credits)
}

func (n *Notifier) create(ctx context.Context, userID int64, title string, partner *string, credits int) {
	if err := n.store.Create(ctx, userID, title, partner, credits); err != nil {
		log.Printf("notify: create for user=%d failed: %v", userID, err)
		return
	}
	metrics.NotificationsCreated.Inc()
}
