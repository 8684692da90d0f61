package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ErrUnknownParticipant is returned by Create when the sender or receiver
// id does not refer to an existing user.
var ErrUnknownParticipant = errors.New("store: message participant does not exist")

// Message is one chat message between two users. Rows are immutable and
// never deleted; created_at ascending defines conversation order.
// SenderName/ReceiverName are joined in for list views and for the
// new-message broadcast payload.
type Message struct {
	ID           int64     `json:"id"`
	SenderID     int64     `json:"sender_id"`
	ReceiverID   int64     `json:"receiver_id"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	SenderName   string    `json:"sender_name,omitempty"`
	ReceiverName string    `json:"receiver_name,omitempty"`
}

// MessageStore manages message rows.
type MessageStore struct {
	db *sql.DB
}

// NewMessageStore creates a message store backed by the given database handle.
func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Create inserts a message and returns the full row with the sender's name
// resolved, ready for broadcast.
func (s *MessageStore) Create(ctx context.Context, senderID, receiverID int64, content string) (*Message, error) {
	const query = `
		WITH inserted AS (
			INSERT INTO messages (sender_id, receiver_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, sender_id, receiver_id, content, created_at
		)
		SELECT i.id, i.sender_id, i.receiver_id, i.content, i.created_at, u.name
		FROM inserted i
		JOIN users u ON u.id = i.sender_id`

	var m Message
	err := s.db.QueryRowContext(ctx, query, senderID, receiverID, content).
		Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt, &m.SenderName)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return nil, ErrUnknownParticipant
		}
		return nil, fmt.Errorf("store: create message: %w", err)
	}
	return &m, nil
}

// ListForUser returns every message the user sent or received, with both
// participant names resolved, ordered oldest first. This is the full
// collection the polling fallback re-fetches each cycle.
func (s *MessageStore) ListForUser(ctx context.Context, userID int64) ([]Message, error) {
	const query = `
		SELECT m.id, m.sender_id, m.receiver_id, m.content, m.created_at,
		       sender.name, receiver.name
		FROM messages m
		JOIN users sender ON m.sender_id = sender.id
		JOIN users receiver ON m.receiver_id = receiver.id
		WHERE m.sender_id = $1 OR m.receiver_id = $1
		ORDER BY m.created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list messages: %w", err)
	}
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content,
			&m.CreatedAt, &m.SenderName, &m.ReceiverName); err != nil {
			return nil, fmt.Errorf("store: list messages scan: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
