package httpapi

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/studylink/tutor-app/internal/auth"
	"github.com/studylink/tutor-app/internal/metrics"
	"github.com/studylink/tutor-app/internal/store"
)

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	cards, err := h.payments.ListCards(r.Context(), identity.UserID)
	if err != nil {
		log.Printf("httpapi: [payment] list cards: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if cards == nil {
		cards = []store.Card{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"userId":   identity.UserID,
		"payments": cards,
	})
}

type saveCardRequest struct {
	Holder string `json:"holder" validate:"required"`
	Number string `json:"number" validate:"required,min=4"`
	Expiry string `json:"expiry" validate:"required"` // "MM/YY"
}

func (h *Handler) saveCard(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var req saveCardRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "holder, number and expiry are required")
		return
	}

	month, year, err := parseExpiry(req.Expiry)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expiry, expected MM/YY")
		return
	}

	// Only the last four digits are kept; the full number never leaves
	// this handler.
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, req.Number)
	if len(digits) < 4 {
		writeError(w, http.StatusBadRequest, "Invalid card number")
		return
	}
	last4 := digits[len(digits)-4:]

	id, err := h.payments.SaveCard(r.Context(), identity.UserID, req.Holder, last4, month, year)
	if err != nil {
		log.Printf("httpapi: [payment] save card: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     id,
		"holder": req.Holder,
		"number": "**** **** **** " + last4,
		"expiry": req.Expiry,
	})
}

func parseExpiry(expiry string) (month, year int, err error) {
	parts := strings.Split(expiry, "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("httpapi: malformed expiry %q", expiry)
	}
	month, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("httpapi: bad expiry month %q", parts[0])
	}
	year, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("httpapi: bad expiry year %q", parts[1])
	}
	return month, year, nil
}

type createPaymentRequest struct {
	CardID      int64   `json:"card_id" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description"`
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())

	var req createPaymentRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "card_id and a positive amount are required")
		return
	}

	owned, err := h.payments.CardBelongsTo(r.Context(), req.CardID, identity.UserID)
	if err != nil {
		log.Printf("httpapi: [payment] card check: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !owned {
		writeError(w, http.StatusNotFound, "Card not found")
		return
	}

	start := time.Now()
	txID, err := h.payments.CreateTransaction(r.Context(), identity.UserID, req.CardID, req.Amount, req.Description)
	metrics.MutationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Printf("httpapi: [payment] transaction: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Credit grant is amount-proportional: one credit per ten dollars.
	credits := int(req.Amount / 10)
	h.notifier.PaymentProcessed(r.Context(), identity.UserID, req.Amount, credits)

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":        true,
		"transaction_id": txID,
		"amount":         req.Amount,
		"status":         "completed",
	})
}
