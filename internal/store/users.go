package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ErrDuplicateEmail is returned by CreateUser when the email is taken.
var ErrDuplicateEmail = errors.New("store: email already registered")

// User is a student or tutor profile. PasswordHash is only populated by
// GetUserByEmail for login verification and is never serialized.
type User struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Expertise     string    `json:"expertise"`
	Bio           string    `json:"bio"`
	ProfilePic    *string   `json:"profile_pic"`
	CreditsEarned int       `json:"credits_earned"`
	CreditsSpent  int       `json:"credits_spent"`
	TotalCredits  int       `json:"total_credits"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserStore manages user rows.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store backed by the given database handle.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user and returns its id. New accounts start with 100
// credits. A duplicate email yields ErrDuplicateEmail.
func (s *UserStore) Create(ctx context.Context, name, email, passwordHash, expertise, bio string) (int64, error) {
	const query = `
		INSERT INTO users (name, email, password_hash, expertise, bio)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query, name, email, passwordHash, expertise, bio).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("store: create user: %w", err)
	}
	return id, nil
}

// GetByEmail fetches a user by email including the password hash, for login
// verification. Returns nil if no such user exists.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT id, name, email, password_hash, expertise, bio, profile_pic,
		       credits_earned, credits_spent, total_credits, created_at
		FROM users
		WHERE email = $1`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("store: get user by email: %w", err)
	}
	return u, nil
}

// GetByID fetches a user's profile. Returns nil if the user does not exist.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	const query = `
		SELECT id, name, email, password_hash, expertise, bio, profile_pic,
		       credits_earned, credits_spent, total_credits, created_at
		FROM users
		WHERE id = $1`

	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("store: get user by id: %w", err)
	}
	if u != nil {
		u.PasswordHash = ""
	}
	return u, nil
}

// UpdateProfile updates the mutable profile fields of a user.
func (s *UserStore) UpdateProfile(ctx context.Context, id int64, name string, profilePic *string, expertise, bio string) error {
	const query = `
		UPDATE users
		SET name = $2, profile_pic = $3, expertise = $4, bio = $5
		WHERE id = $1`

	if _, err := s.db.ExecContext(ctx, query, id, name, profilePic, expertise, bio); err != nil {
		return fmt.Errorf("store: update profile: %w", err)
	}
	return nil
}

// ListTutors returns every user other than excludeID, newest first. The
// browse page filters client-side by expertise.
func (s *UserStore) ListTutors(ctx context.Context, excludeID int64) ([]User, error) {
	const query = `
		SELECT id, name, email, password_hash, expertise, bio, profile_pic,
		       credits_earned, credits_spent, total_credits, created_at
		FROM users
		WHERE id <> $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, excludeID)
	if err != nil {
		return nil, fmt.Errorf("store: list tutors: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list tutors scan: %w", err)
		}
		u.PasswordHash = ""
		users = append(users, *u)
	}
	return users, rows.Err()
}

// GetName returns just the display name for a user id, or "" when the user
// does not exist.
func (s *UserStore) GetName(ctx context.Context, id int64) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM users WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get name: %w", err)
	}
	return name, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Expertise, &u.Bio,
		&u.ProfilePic, &u.CreditsEarned, &u.CreditsSpent, &u.TotalCredits, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
