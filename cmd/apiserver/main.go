package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/studylink/tutor-app/internal/config"
	"github.com/studylink/tutor-app/internal/httpapi"
	"github.com/studylink/tutor-app/internal/hub"
	"github.com/studylink/tutor-app/internal/ratelimit"
	"github.com/studylink/tutor-app/internal/session"
	"github.com/studylink/tutor-app/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// --- Postgres ---
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// --- Redis ---
	sessions, err := session.NewStore(cfg.RedisAddr, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	defer sessions.Close()

	limiter := ratelimit.NewLimiter(sessions.Client())

	log.Printf("StudyLink API server starting")
	log.Printf("  listen_addr:      %s", cfg.ListenAddr)
	log.Printf("  redis_addr:       %s", cfg.RedisAddr)
	log.Printf("  session_ttl:      %s", cfg.SessionTTL)
	log.Printf("  stream_keepalive: %s", cfg.StreamKeepAlive)

	handler := httpapi.New(httpapi.Deps{
		Users:           store.NewUserStore(db),
		Messages:        store.NewMessageStore(db),
		Notifications:   store.NewNotificationStore(db),
		Bookings:        store.NewBookingStore(db),
		Requests:        store.NewRequestStore(db),
		Payments:        store.NewPaymentStore(db),
		Sessions:        sessions,
		Hub:             hub.New(),
		Limiter:         limiter,
		StreamKeepAlive: cfg.StreamKeepAlive,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Routes(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		// WriteTimeout stays zero: a deadline would sever the long-lived
		// delivery channels mid-stream.
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("received signal %v, initiating graceful shutdown...", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Printf("server stopped")
}
