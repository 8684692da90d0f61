package client

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/studylink/tutor-app/internal/store"
)

// DefaultPollInterval matches the web frontend's conversation refresh rate.
const DefaultPollInterval = 2 * time.Second

// Poller is the fallback delivery path: it refetches the conversation list
// on an interval and reconciles it into a local snapshot, so updates arrive
// even when the live stream is down or an event was dropped.
type Poller struct {
	client   *Client
	interval time.Duration
	onChange func([]store.Message)

	mu    sync.Mutex
	local []store.Message
}

// NewPoller creates a poller over the given client. onChange is invoked with
// the reconciled snapshot after every successful fetch. A non-positive
// interval falls back to DefaultPollInterval.
func NewPoller(c *Client, interval time.Duration, onChange func([]store.Message)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{client: c, interval: interval, onChange: onChange}
}

// Run fetches immediately, then on every tick, until ctx is cancelled.
// Fetch errors are transient by contract: the snapshot keeps its last good
// state and the next tick retries.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// Seed installs an initial local snapshot, e.g. messages already collected
// from the live stream before polling starts.
func (p *Poller) Seed(msgs []store.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.local = mergeMessages(nil, msgs)
}

// Snapshot returns the current reconciled message list.
func (p *Poller) Snapshot() []store.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]store.Message, len(p.local))
	copy(out, p.local)
	return out
}

func (p *Poller) poll(ctx context.Context) {
	fetched, err := p.client.Messages(ctx)
	if err != nil {
		return
	}
	p.mu.Lock()
	p.local = mergeMessages(p.local, fetched)
	p.mu.Unlock()
	if p.onChange != nil {
		p.onChange(p.Snapshot())
	}
}

// mergeMessages reconciles a fetched conversation list into the local one.
// The server copy wins for any ID present in both; local entries the server
// does not know yet (optimistic sends, just-pushed events) are kept. The
// result is ordered by creation time, with ID as the tiebreaker.
func mergeMessages(local, fetched []store.Message) []store.Message {
	byID := make(map[int64]store.Message, len(local)+len(fetched))
	for _, m := range local {
		byID[m.ID] = m
	}
	for _, m := range fetched {
		byID[m.ID] = m
	}

	out := make([]store.Message, 0, len(byID))
	for _, m := range byID {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
