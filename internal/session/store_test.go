package session

import (
	"context"
	"testing"
	"time"
)

// newTestStore connects to a local Redis instance. Tests are skipped when
// Redis is not running.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore("localhost:6379", time.Minute)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, 42, "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	t.Cleanup(func() { store.Delete(ctx, token) })

	sess, err := store.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.UserID != 42 {
		t.Errorf("expected user_id 42, got %d", sess.UserID)
	}
	if sess.Name != "Ada" {
		t.Errorf("expected name Ada, got %q", sess.Name)
	}
}

func TestGetUnknownToken(t *testing.T) {
	store := newTestStore(t)

	sess, err := store.Get(context.Background(), "no-such-token")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil for unknown token, got %+v", sess)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, 7, "Bob", "bob@example.com")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if err := store.Delete(ctx, token); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	sess, err := store.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get() after delete error: %v", err)
	}
	if sess != nil {
		t.Errorf("expected session gone after delete, got %+v", sess)
	}
}
