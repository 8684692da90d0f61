package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Request statuses.
const (
	RequestOpen     = "open"
	RequestAccepted = "accepted"
	RequestDeclined = "declined"
)

// Request is a help request posted by a student, optionally claimed by a
// tutor when accepted.
type Request struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	TutorID   *int64    `json:"tutor_id"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// RequestStore manages help request rows.
type RequestStore struct {
	db *sql.DB
}

// NewRequestStore creates a request store backed by the given database handle.
func NewRequestStore(db *sql.DB) *RequestStore {
	return &RequestStore{db: db}
}

// Create inserts an open request and returns the full row.
func (s *RequestStore) Create(ctx context.Context, studentID int64, subject, message string) (*Request, error) {
	const query = `
		INSERT INTO requests (student_id, subject, message)
		VALUES ($1, $2, $3)
		RETURNING id, student_id, tutor_id, subject, message, status, created_at`

	var r Request
	err := s.db.QueryRowContext(ctx, query, studentID, subject, message).
		Scan(&r.ID, &r.StudentID, &r.TutorID, &r.Subject, &r.Message, &r.Status, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: create request: %w", err)
	}
	return &r, nil
}

// Get returns a request by id, or nil when it does not exist.
func (s *RequestStore) Get(ctx context.Context, id int64) (*Request, error) {
	const query = `
		SELECT id, student_id, tutor_id, subject, message, status, created_at
		FROM requests
		WHERE id = $1`

	var r Request
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&r.ID, &r.StudentID, &r.TutorID, &r.Subject, &r.Message, &r.Status, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get request: %w", err)
	}
	return &r, nil
}

// ListAll returns every request, newest first. The requests board is shared
// across all users.
func (s *RequestStore) ListAll(ctx context.Context) ([]Request, error) {
	const query = `
		SELECT id, student_id, tutor_id, subject, message, status, created_at
		FROM requests
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: list requests: %w", err)
	}
	defer rows.Close()

	reqs := []Request{}
	for rows.Next() {
		var r Request
		if err := rows.Scan(&r.ID, &r.StudentID, &r.TutorID, &r.Subject, &r.Message, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: list requests scan: %w", err)
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

// SetStatus updates a request's status without assigning a tutor.
func (s *RequestStore) SetStatus(ctx context.Context, id int64, status string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE requests SET status = $2 WHERE id = $1`, id, status); err != nil {
		return fmt.Errorf("store: set request status: %w", err)
	}
	return nil
}

// Accept marks a request accepted by the given tutor.
func (s *RequestStore) Accept(ctx context.Context, id, tutorID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE requests SET status = $2, tutor_id = $3 WHERE id = $1`,
		id, RequestAccepted, tutorID); err != nil {
		return fmt.Errorf("store: accept request: %w", err)
	}
	return nil
}
