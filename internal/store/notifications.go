package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Notification is a read-only activity entry created as a side effect of a
// mutation (booking, request, payment). There is no acknowledge or delete.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Partner   *string   `json:"partner"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationStore manages notification rows.
type NotificationStore struct {
	db *sql.DB
}

// NewNotificationStore creates a notification store backed by the given
// database handle.
func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Create inserts one notification row.
func (s *NotificationStore) Create(ctx context.Context, userID int64, title string, partner *string, credits int) error {
	const query = `
		INSERT INTO notifications (user_id, title, partner, credits)
		VALUES ($1, $2, $3, $4)`

	if _, err := s.db.ExecContext(ctx, query, userID, title, partner, credits); err != nil {
		return fmt.Errorf("store: create notification: %w", err)
	}
	return nil
}

// ListForUser returns the user's notifications, newest first.
func (s *NotificationStore) ListForUser(ctx context.Context, userID int64) ([]Notification, error) {
	const query = `
		SELECT id, user_id, title, partner, credits, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list notifications: %w", err)
	}
	defer rows.Close()

	notifs := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Partner, &n.Credits, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: list notifications scan: %w", err)
		}
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}
