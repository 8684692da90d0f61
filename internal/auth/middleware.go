package auth

import (
	"context"
	"net/http"

	"github.com/studylink/tutor-app/internal/session"
)

// CookieName is the session cookie issued on login.
const CookieName = "studylink_session"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID int64
	Name   string
	Email  string
	Token  string
}

// SessionReader is the slice of the session store the middleware needs.
type SessionReader interface {
	Get(ctx context.Context, token string) (*session.Session, error)
	Refresh(ctx context.Context, token string) error
}

type contextKey int

const identityKey contextKey = iota

// FromContext returns the identity injected by RequireSession.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// WithIdentity returns a context carrying the given identity. Exported for
// handler tests that bypass the middleware.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// RequireSession rejects requests without a valid session cookie before any
// handler logic runs; no registry or database interaction happens for an
// unauthenticated caller. Valid sessions get their TTL refreshed and the
// resolved identity placed on the request context.
func RequireSession(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				http.Error(w, `{"error":"session lookup failed"}`, http.StatusInternalServerError)
				return
			}
			if sess == nil {
				unauthorized(w)
				return
			}

			_ = sessions.Refresh(r.Context(), cookie.Value)

			id := Identity{
				UserID: sess.UserID,
				Name:   sess.Name,
				Email:  sess.Email,
				Token:  cookie.Value,
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
}
