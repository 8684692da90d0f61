package httpapi

import (
	"log"
	"net"
	"net/http"

	"github.com/studylink/tutor-app/internal/auth"
	"github.com/studylink/tutor-app/internal/metrics"
	"github.com/studylink/tutor-app/internal/ratelimit"
	"github.com/studylink/tutor-app/internal/store"
)

type signupRequest struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Expertise string `json:"expertise"`
	Bio       string `json:"bio"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid signup payload")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("httpapi: [signup] hash: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	id, err := h.users.Create(r.Context(), req.Name, req.Email, hash, req.Expertise, req.Bio)
	if err == store.ErrDuplicateEmail {
		writeError(w, http.StatusConflict, "User with this email already exists")
		return
	}
	if err != nil {
		log.Printf("httpapi: [signup] create: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Signup successful",
		"userId":  id,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		ok, err := h.limiter.Allow(r.Context(), ip, ratelimit.RuleLogin)
		if err == nil && !ok {
			writeError(w, http.StatusTooManyRequests, "Too many login attempts")
			return
		}
	}

	var req loginRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid login payload")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("httpapi: [login] lookup: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.sessions.Create(r.Context(), u.ID, u.Name, u.Email)
	if err != nil {
		log.Printf("httpapi: [login] session: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	metrics.LoginsTotal.Inc()

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user": map[string]any{
			"id":    u.ID,
			"name":  u.Name,
			"email": u.Email,
		},
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if ok {
		if err := h.sessions.Delete(r.Context(), identity.Token); err != nil {
			log.Printf("httpapi: [logout] delete session: %v", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
