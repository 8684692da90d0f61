package hub

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestBroadcastIsolationBetweenUsers(t *testing.T) {
	h := New()

	var gotA, gotB []string
	unsubA := h.Subscribe(1, func(p []byte) { gotA = append(gotA, string(p)) })
	unsubB := h.Subscribe(2, func(p []byte) { gotB = append(gotB, string(p)) })
	defer unsubA()
	defer unsubB()

	h.Broadcast(1, []byte("for-a"))

	if len(gotA) != 1 || gotA[0] != "for-a" {
		t.Errorf("user 1 listener: expected [for-a], got %v", gotA)
	}
	if len(gotB) != 0 {
		t.Errorf("user 2 listener must not fire for user 1 broadcast, got %v", gotB)
	}
}

func TestMultiListenerFanOut(t *testing.T) {
	h := New()
	const n = 5

	var calls int64
	unsubs := make([]func(), 0, n)
	for i := 0; i < n; i++ {
		unsubs = append(unsubs, h.Subscribe(7, func(p []byte) {
			if string(p) != "payload" {
				t.Errorf("unexpected payload %q", p)
			}
			atomic.AddInt64(&calls, 1)
		}))
	}
	defer func() {
		for _, u := range unsubs {
			u()
		}
	}()

	h.Broadcast(7, []byte("payload"))

	if calls != n {
		t.Errorf("expected exactly %d invocations, got %d", n, calls)
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	h := New()

	var calls int
	unsub := h.Subscribe(3, func(p []byte) { calls++ })

	unsub()
	unsub() // second call must be a no-op

	h.Broadcast(3, []byte("x"))

	if calls != 0 {
		t.Errorf("listener invoked after unsubscribe: %d calls", calls)
	}
	if got := h.Listeners(3); got != 0 {
		t.Errorf("expected 0 registrations after unsubscribe, got %d", got)
	}
}

func TestUnsubscribeRemovesOnlyOwnRegistration(t *testing.T) {
	h := New()

	var first, second int
	unsub1 := h.Subscribe(9, func(p []byte) { first++ })
	unsub2 := h.Subscribe(9, func(p []byte) { second++ })
	defer unsub2()

	unsub1()
	h.Broadcast(9, []byte("x"))

	if first != 0 {
		t.Errorf("unsubscribed listener fired %d times", first)
	}
	if second != 1 {
		t.Errorf("surviving listener expected 1 invocation, got %d", second)
	}
	if got := h.Listeners(9); got != 1 {
		t.Errorf("expected 1 remaining registration, got %d", got)
	}
}

func TestZeroListenerBroadcastIsNoOp(t *testing.T) {
	h := New()

	// Must not panic and must not create an entry.
	h.Broadcast(999, []byte("nobody-home"))

	if got := h.Users(); got != 0 {
		t.Errorf("expected 0 users, got %d", got)
	}
}

func TestPanickingListenerDoesNotBlockOthers(t *testing.T) {
	h := New()

	var delivered int
	unsub1 := h.Subscribe(4, func(p []byte) { panic("listener exploded") })
	unsub2 := h.Subscribe(4, func(p []byte) { delivered++ })
	defer unsub1()
	defer unsub2()

	h.Broadcast(4, []byte("x"))
	h.Broadcast(4, []byte("y"))

	if delivered != 2 {
		t.Errorf("healthy listener expected 2 deliveries, got %d", delivered)
	}
}

func TestUserEntryRemovedWhenEmpty(t *testing.T) {
	h := New()

	unsub := h.Subscribe(11, func(p []byte) {})
	if got := h.Users(); got != 1 {
		t.Fatalf("expected 1 user, got %d", got)
	}
	unsub()
	if got := h.Users(); got != 0 {
		t.Errorf("expected user entry to be dropped, got %d users", got)
	}
}

func TestConcurrentSubscribeBroadcastUnsubscribe(t *testing.T) {
	h := New()
	const goroutines = 50
	const rounds = 40

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			userID := int64(id % 4)
			for i := 0; i < rounds; i++ {
				unsub := h.Subscribe(userID, func(p []byte) {})
				h.Broadcast(userID, []byte(fmt.Sprintf("g%d-r%d", id, i)))
				unsub()
			}
		}(g)
	}
	wg.Wait()

	// Every registration paired with an unsubscribe; the registry must be empty.
	if got := h.Users(); got != 0 {
		t.Errorf("expected empty registry after churn, got %d users", got)
	}
}
