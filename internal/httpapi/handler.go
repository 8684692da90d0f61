// Package httpapi exposes the marketplace over HTTP: account and profile
// endpoints, messaging with real-time delivery channels, help requests,
// bookings, notifications and mock payments.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/studylink/tutor-app/internal/auth"
	"github.com/studylink/tutor-app/internal/hub"
	"github.com/studylink/tutor-app/internal/metrics"
	"github.com/studylink/tutor-app/internal/notify"
	"github.com/studylink/tutor-app/internal/ratelimit"
	"github.com/studylink/tutor-app/internal/session"
	"github.com/studylink/tutor-app/internal/store"
)

// Store interfaces consumed by the handlers. The concrete implementations
// live in internal/store; tests substitute in-memory fakes.

// UserStore is the user persistence surface the API needs.
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash, expertise, bio string) (int64, error)
	GetByEmail(ctx context.Context, email string) (*store.User, error)
	GetByID(ctx context.Context, id int64) (*store.User, error)
	UpdateProfile(ctx context.Context, id int64, name string, profilePic *string, expertise, bio string) error
	ListTutors(ctx context.Context, excludeID int64) ([]store.User, error)
	GetName(ctx context.Context, id int64) (string, error)
}

// MessageStore is the message persistence surface the API needs.
type MessageStore interface {
	Create(ctx context.Context, senderID, receiverID int64, content string) (*store.Message, error)
	ListForUser(ctx context.Context, userID int64) ([]store.Message, error)
}

// NotificationStore is the notification persistence surface the API needs.
type NotificationStore interface {
	notify.Store
	ListForUser(ctx context.Context, userID int64) ([]store.Notification, error)
}

// BookingStore is the booking persistence surface the API needs.
type BookingStore interface {
	Create(ctx context.Context, requestID *int64, studentID, tutorID int64, sessionTime time.Time, meetLink string) (int64, error)
	ListForUser(ctx context.Context, userID int64) ([]store.Booking, error)
}

// RequestStore is the help-request persistence surface the API needs.
type RequestStore interface {
	Create(ctx context.Context, studentID int64, subject, message string) (*store.Request, error)
	Get(ctx context.Context, id int64) (*store.Request, error)
	ListAll(ctx context.Context) ([]store.Request, error)
	SetStatus(ctx context.Context, id int64, status string) error
	Accept(ctx context.Context, id, tutorID int64) error
}

// PaymentStore is the payment persistence surface the API needs.
type PaymentStore interface {
	SaveCard(ctx context.Context, userID int64, holder, last4 string, expiryMonth, expiryYear int) (int64, error)
	ListCards(ctx context.Context, userID int64) ([]store.Card, error)
	CardBelongsTo(ctx context.Context, cardID, userID int64) (bool, error)
	CreateTransaction(ctx context.Context, userID, cardID int64, amount float64, description string) (int64, error)
}

// SessionStore issues and resolves login sessions.
type SessionStore interface {
	Create(ctx context.Context, userID int64, name, email string) (string, error)
	Get(ctx context.Context, token string) (*session.Session, error)
	Refresh(ctx context.Context, token string) error
	Delete(ctx context.Context, token string) error
}

// RateLimiter throttles per-identifier actions. A nil limiter disables
// throttling (used by tests).
type RateLimiter interface {
	Allow(ctx context.Context, identifier string, rule ratelimit.Rule) (bool, error)
}

// Deps carries every collaborator the handler set needs. The hub is the
// single process-wide registry instance constructed at bootstrap.
type Deps struct {
	Users         UserStore
	Messages      MessageStore
	Notifications NotificationStore
	Bookings      BookingStore
	Requests      RequestStore
	Payments      PaymentStore
	Sessions      SessionStore
	Hub           *hub.Hub
	Limiter       RateLimiter

	// StreamKeepAlive overrides the default 30s keep-alive interval on
	// delivery channels.
	StreamKeepAlive time.Duration
}

// Handler holds the route handlers and their dependencies.
type Handler struct {
	users         UserStore
	messages      MessageStore
	notifications NotificationStore
	bookings      BookingStore
	requests      RequestStore
	payments      PaymentStore
	sessions      SessionStore
	hub           *hub.Hub
	limiter       RateLimiter
	notifier      *notify.Notifier
	validate      *validator.Validate
	keepAlive     time.Duration
	startedAt     time.Time
}

// New creates the handler set.
func New(deps Deps) *Handler {
	keepAlive := deps.StreamKeepAlive
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	return &Handler{
		users:         deps.Users,
		messages:      deps.Messages,
		notifications: deps.Notifications,
		bookings:      deps.Bookings,
		requests:      deps.Requests,
		payments:      deps.Payments,
		sessions:      deps.Sessions,
		hub:           deps.Hub,
		limiter:       deps.Limiter,
		notifier:      notify.New(deps.Notifications),
		validate:      validator.New(),
		keepAlive:     keepAlive,
		startedAt:     time.Now(),
	}
}

// Routes assembles the router. No global timeout middleware: the delivery
// channels hold their connections open indefinitely.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", h.signup)
		r.Post("/auth/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(h.sessions))

			r.Post("/auth/logout", h.logout)

			r.Get("/users/me", h.me)
			r.Patch("/users/me", h.updateMe)
			r.Get("/browse", h.browse)

			r.Get("/messages", h.listMessages)
			r.Post("/messages", h.sendMessage)
			r.Get("/messages/stream", h.stream)
			r.Get("/messages/ws", h.streamWS)

			r.Get("/notifications", h.listNotifications)

			r.Post("/booking", h.createBooking)
			r.Get("/sessions", h.listSessions)

			r.Get("/requests", h.listRequests)
			r.Post("/requests", h.createRequest)
			r.Put("/requests/{id}", h.updateRequest)

			r.Get("/payment", h.listPayments)
			r.Post("/payment", h.createPayment)
			r.Post("/payment/cards", h.saveCard)
		})
	})

	return r
}
