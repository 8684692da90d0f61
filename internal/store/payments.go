package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Card is a saved (mock) payment card. Only the last four digits are kept.
type Card struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"-"`
	CardholderName string    `json:"cardholder_name"`
	CardLast4      string    `json:"card_last4"`
	ExpiryMonth    int       `json:"expiry_month"`
	ExpiryYear     int       `json:"expiry_year"`
	CreatedAt      time.Time `json:"created_at"`
}

// PaymentStore manages saved cards and mock transactions.
type PaymentStore struct {
	db *sql.DB
}

// NewPaymentStore creates a payment store backed by the given database handle.
func NewPaymentStore(db *sql.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

// SaveCard stores a card for the user. Only the last four digits of the
// number ever reach this method; the full number is discarded at the edge.
func (s *PaymentStore) SaveCard(ctx context.Context, userID int64, holder, last4 string, expiryMonth, expiryYear int) (int64, error) {
	const query = `
		INSERT INTO payments (user_id, cardholder_name, card_last4, expiry_month, expiry_year)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query, userID, holder, last4, expiryMonth, expiryYear).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: save card: %w", err)
	}
	return id, nil
}

// ListCards returns the user's saved cards, newest first.
func (s *PaymentStore) ListCards(ctx context.Context, userID int64) ([]Card, error) {
	const query = `
		SELECT id, user_id, cardholder_name, card_last4, expiry_month, expiry_year, created_at
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list cards: %w", err)
	}
	defer rows.Close()

	cards := []Card{}
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.ID, &c.UserID, &c.CardholderName, &c.CardLast4,
			&c.ExpiryMonth, &c.ExpiryYear, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: list cards scan: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// CardBelongsTo reports whether the card exists and is owned by the user.
func (s *PaymentStore) CardBelongsTo(ctx context.Context, cardID, userID int64) (bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM payments WHERE id = $1 AND user_id = $2`, cardID, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: card lookup: %w", err)
	}
	return true, nil
}

// CreateTransaction records a completed mock payment and returns its id.
// No card network is involved; the row is the whole "processing".
func (s *PaymentStore) CreateTransaction(ctx context.Context, userID, cardID int64, amount float64, description string) (int64, error) {
	const query = `
		INSERT INTO transactions (user_id, card_id, amount, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query, userID, cardID, amount, description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: create transaction: %w", err)
	}
	return id, nil
}
