package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix is the Redis key prefix for all session hashes.
const KeyPrefix = "login:"

// Session is the identity a valid token resolves to.
type Session struct {
	Token     string `redis:"token"`
	UserID    int64  `redis:"user_id"`
	Name      string `redis:"name"`
	Email     string `redis:"email"`
	CreatedAt int64  `redis:"created_at"` // unix timestamp
	LastSeen  int64  `redis:"last_seen"`  // unix timestamp
}

// Store manages login sessions in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store connected to Redis.
func NewStore(redisAddr string, ttl time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session: redis connection failed: %w", err)
	}

	return &Store{client: client, ttl: ttl}, nil
}

// Create issues a fresh token for the given user and stores the session
// hash with the configured TTL.
func (s *Store) Create(ctx context.Context, userID int64, name, email string) (string, error) {
	token := uuid.New().String()
	key := KeyPrefix + token
	now := time.Now().Unix()

	sess := map[string]interface{}{
		"token":      token,
		"user_id":    userID,
		"name":       name,
		"email":      email,
		"created_at": now,
		"last_seen":  now,
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, sess)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("session: create: %w", err)
	}
	return token, nil
}

// Get resolves a token to its session. Returns nil if the token is unknown
// or expired.
func (s *Store) Get(ctx context.Context, token string) (*Session, error) {
	key := KeyPrefix + token
	var sess Session
	if err := s.client.HGetAll(ctx, key).Scan(&sess); err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}
	if sess.Token == "" {
		return nil, nil // not found
	}
	return &sess, nil
}

// Refresh marks the session active and extends its TTL.
func (s *Store) Refresh(ctx context.Context, token string) error {
	key := KeyPrefix + token
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, "last_seen", time.Now().Unix())
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Delete removes a session, logging the user out.
func (s *Store) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, KeyPrefix+token).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client for use by other packages
// (e.g. the rate limiter).
func (s *Store) Client() *redis.Client {
	return s.client
}
