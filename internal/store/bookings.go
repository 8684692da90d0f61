package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Booking is a scheduled tutoring session with a generated meeting link.
// Concurrent bookings for the same tutor slot are not guarded against; the
// insert is unconditional.
type Booking struct {
	ID          int64     `json:"id"`
	RequestID   *int64    `json:"request_id"`
	StudentID   int64     `json:"student_id"`
	TutorID     int64     `json:"tutor_id"`
	SessionTime time.Time `json:"session_time"`
	MeetLink    string    `json:"meet_link"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`

	StudentName string `json:"student_name,omitempty"`
	TutorName   string `json:"tutor_name,omitempty"`
}

// BookingStore manages booking rows.
type BookingStore struct {
	db *sql.DB
}

// NewBookingStore creates a booking store backed by the given database handle.
func NewBookingStore(db *sql.DB) *BookingStore {
	return &BookingStore{db: db}
}

// NewMeetLink generates a meeting URL for a session.
func NewMeetLink() string {
	return "https://meet.studylink.dev/" + uuid.New().String()[:8]
}

// Create inserts a booking and returns its id.
func (s *BookingStore) Create(ctx context.Context, requestID *int64, studentID, tutorID int64, sessionTime time.Time, meetLink string) (int64, error) {
	const query = `
		INSERT INTO bookings (request_id, student_id, tutor_id, session_time, meet_link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query, requestID, studentID, tutorID, sessionTime, meetLink).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: create booking: %w", err)
	}
	return id, nil
}

// ListForUser returns every booking the user participates in as student or
// tutor, latest session first, with both names resolved.
func (s *BookingStore) ListForUser(ctx context.Context, userID int64) ([]Booking, error) {
	const query = `
		SELECT b.id, b.request_id, b.student_id, b.tutor_id, b.session_time,
		       b.meet_link, b.status, b.created_at, student.name, tutor.name
		FROM bookings b
		JOIN users student ON b.student_id = student.id
		JOIN users tutor ON b.tutor_id = tutor.id
		WHERE b.student_id = $1 OR b.tutor_id = $1
		ORDER BY b.session_time DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []Booking{}
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.RequestID, &b.StudentID, &b.TutorID, &b.SessionTime,
			&b.MeetLink, &b.Status, &b.CreatedAt, &b.StudentName, &b.TutorName); err != nil {
			return nil, fmt.Errorf("store: list bookings scan: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
