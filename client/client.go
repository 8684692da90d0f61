// Package client is a Go client for the StudyLink API. It keeps the session
// cookie across calls, exposes the REST surface the web frontend uses, and
// implements both delivery paths for conversation updates: the live SSE
// stream and the polling fallback.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/studylink/tutor-app/internal/event"
	"github.com/studylink/tutor-app/internal/store"
)

// Client talks to a StudyLink API server on behalf of one user.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL (e.g. "http://localhost:8080").
// The underlying HTTP client carries a cookie jar so the login session
// persists across calls.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("client: cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar},
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: marshal: %w", err)
		}
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return fmt.Errorf("client: request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("client: %s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("client: %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	return nil
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, name, email, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": name, "email": email, "password": password,
	}, nil)
}

// Login authenticates and stores the session cookie for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, nil)
}

// Logout drops the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// SendMessage sends a chat message to the given user.
func (c *Client) SendMessage(ctx context.Context, receiverID int64, content string) (*store.Message, error) {
	var resp struct {
		Data *store.Message `json:"data"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/messages", map[string]any{
		"receiver_id": receiverID, "content": content,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Messages fetches the caller's full conversation history.
func (c *Client) Messages(ctx context.Context) ([]store.Message, error) {
	var out []store.Message
	if err := c.doJSON(ctx, http.MethodGet, "/api/messages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Notifications fetches the caller's notifications, newest first.
func (c *Client) Notifications(ctx context.Context) ([]store.Notification, error) {
	var out []store.Notification
	if err := c.doJSON(ctx, http.MethodGet, "/api/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stream opens the SSE delivery channel and invokes fn for every event
// received, including the initial connected frame. It blocks until ctx is
// cancelled or the connection drops, and returns nil on a clean cancel.
func (c *Client) Stream(ctx context.Context, fn func(event.Envelope)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/messages/stream", nil)
	if err != nil {
		return fmt.Errorf("client: stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("client: stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("client: stream: status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		// Keep-alives arrive as comment lines; only data frames carry events.
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var env event.Envelope
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &env); err != nil {
			return fmt.Errorf("client: stream decode: %w", err)
		}
		fn(env)
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("client: stream read: %w", err)
	}
	return nil
}

// WaitForEvent streams until an event of the given type arrives or the
// timeout elapses. Handy for tests and scripts.
func (c *Client) WaitForEvent(ctx context.Context, eventType string, timeout time.Duration) (*event.Envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	found := make(chan event.Envelope, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- c.Stream(ctx, func(env event.Envelope) {
			if env.Type == eventType {
				select {
				case found <- env:
					cancel()
				default:
				}
			}
		})
	}()

	select {
	case env := <-found:
		return &env, nil
	case err := <-errc:
		if err != nil {
			return nil, err
		}
		// The stream can return nil right after the callback buffered the
		// event and cancelled; check the buffer before calling it a miss.
		select {
		case env := <-found:
			return &env, nil
		default:
		}
		return nil, fmt.Errorf("client: no %q event within %s", eventType, timeout)
	}
}
