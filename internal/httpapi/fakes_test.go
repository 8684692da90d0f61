package httpapi

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/studylink/tutor-app/internal/hub"
	"github.com/studylink/tutor-app/internal/session"
	"github.com/studylink/tutor-app/internal/store"
)

// In-memory stand-ins for the persistence layer. They hold their data behind
// a mutex so handler tests can hit them from the server goroutines.

type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*store.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{nextID: 1, users: make(map[int64]*store.User)}
}

func (f *fakeUsers) Create(_ context.Context, name, email, passwordHash, expertise, bio string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return 0, store.ErrDuplicateEmail
		}
	}
	id := f.nextID
	f.nextID++
	f.users[id] = &store.User{
		ID: id, Name: name, Email: email, PasswordHash: passwordHash,
		Expertise: expertise, Bio: bio, TotalCredits: 100, CreatedAt: time.Now(),
	}
	return id, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id int64, name string, profilePic *string, expertise, bio string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("no such user %d", id)
	}
	u.Name = name
	u.ProfilePic = profilePic
	u.Expertise = expertise
	u.Bio = bio
	return nil
}

func (f *fakeUsers) ListTutors(_ context.Context, excludeID int64) ([]store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.User
	for _, u := range f.users {
		if u.ID == excludeID {
			continue
		}
		cp := *u
		cp.PasswordHash = ""
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) GetName(_ context.Context, id int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u.Name, nil
	}
	return "", nil
}

type fakeMessages struct {
	mu     sync.Mutex
	nextID int64
	rows   []store.Message

	// users, when set, stands in for the foreign key constraint.
	users *fakeUsers
}

func newFakeMessages(users *fakeUsers) *fakeMessages {
	return &fakeMessages{nextID: 1, users: users}
}

func (f *fakeMessages) Create(ctx context.Context, senderID, receiverID int64, content string) (*store.Message, error) {
	if f.users != nil {
		if u, _ := f.users.GetByID(ctx, receiverID); u == nil {
			return nil, store.ErrUnknownParticipant
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := store.Message{
		ID: f.nextID, SenderID: senderID, ReceiverID: receiverID,
		Content: content, CreatedAt: time.Now(),
	}
	f.nextID++
	f.rows = append(f.rows, msg)
	return &msg, nil
}

func (f *fakeMessages) ListForUser(_ context.Context, userID int64) ([]store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Message
	for _, m := range f.rows {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeNotifications struct {
	mu     sync.Mutex
	nextID int64
	rows   []store.Notification
}

func newFakeNotifications() *fakeNotifications { return &fakeNotifications{nextID: 1} }

func (f *fakeNotifications) Create(_ context.Context, userID int64, title string, partner *string, credits int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, store.Notification{
		ID: f.nextID, UserID: userID, Title: title, Partner: partner,
		Credits: credits, CreatedAt: time.Now(),
	})
	f.nextID++
	return nil
}

func (f *fakeNotifications) ListForUser(_ context.Context, userID int64) ([]store.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Notification
	for _, n := range f.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeBookings struct {
	mu     sync.Mutex
	nextID int64
	rows   []store.Booking
}

func newFakeBookings() *fakeBookings { return &fakeBookings{nextID: 1} }

func (f *fakeBookings) Create(_ context.Context, requestID *int64, studentID, tutorID int64, sessionTime time.Time, meetLink string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.rows = append(f.rows, store.Booking{
		ID: id, RequestID: requestID, StudentID: studentID, TutorID: tutorID,
		SessionTime: sessionTime, MeetLink: meetLink, Status: "confirmed", CreatedAt: time.Now(),
	})
	return id, nil
}

func (f *fakeBookings) ListForUser(_ context.Context, userID int64) ([]store.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Booking
	for _, b := range f.rows {
		if b.StudentID == userID || b.TutorID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeRequests struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*store.Request
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{nextID: 1, rows: make(map[int64]*store.Request)}
}

func (f *fakeRequests) Create(_ context.Context, studentID int64, subject, message string) (*store.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req := &store.Request{
		ID: f.nextID, StudentID: studentID, Subject: subject, Message: message,
		Status: store.RequestOpen, CreatedAt: time.Now(),
	}
	f.nextID++
	f.rows[req.ID] = req
	cp := *req
	return &cp, nil
}

func (f *fakeRequests) Get(_ context.Context, id int64) (*store.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequests) ListAll(_ context.Context) ([]store.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Request
	for _, r := range f.rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRequests) SetStatus(_ context.Context, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req, ok := f.rows[id]; ok {
		req.Status = status
	}
	return nil
}

func (f *fakeRequests) Accept(_ context.Context, id, tutorID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req, ok := f.rows[id]; ok {
		req.Status = store.RequestAccepted
		req.TutorID = &tutorID
	}
	return nil
}

type fakePayments struct {
	mu     sync.Mutex
	nextID int64
	cards  []store.Card
}

func newFakePayments() *fakePayments { return &fakePayments{nextID: 1} }

func (f *fakePayments) addCard(userID int64, name, last4 string) int64 {
	id, _ := f.SaveCard(context.Background(), userID, name, last4, 12, 2030)
	return id
}

func (f *fakePayments) SaveCard(_ context.Context, userID int64, holder, last4 string, expiryMonth, expiryYear int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.cards = append(f.cards, store.Card{
		ID: id, UserID: userID, CardholderName: holder, CardLast4: last4,
		ExpiryMonth: expiryMonth, ExpiryYear: expiryYear, CreatedAt: time.Now(),
	})
	return id, nil
}

func (f *fakePayments) ListCards(_ context.Context, userID int64) ([]store.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Card
	for _, c := range f.cards {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakePayments) CardBelongsTo(_ context.Context, cardID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cards {
		if c.ID == cardID && c.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePayments) CreateTransaction(_ context.Context, userID, cardID int64, amount float64, description string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	return id, nil
}

type fakeSessions struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[string]*session.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{nextID: 1, sessions: make(map[string]*session.Session)}
}

func (f *fakeSessions) Create(_ context.Context, userID int64, name, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := fmt.Sprintf("tok-%d", f.nextID)
	f.nextID++
	now := time.Now().Unix()
	f.sessions[token] = &session.Session{
		Token: token, UserID: userID, Name: name, Email: email,
		CreatedAt: now, LastSeen: now,
	}
	return token, nil
}

func (f *fakeSessions) Get(_ context.Context, token string) (*session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[token]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (f *fakeSessions) Refresh(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sess, ok := f.sessions[token]; ok {
		sess.LastSeen = time.Now().Unix()
	}
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

// testEnv bundles a handler wired to fakes.
type testEnv struct {
	handler       *Handler
	hub           *hub.Hub
	users         *fakeUsers
	messages      *fakeMessages
	notifications *fakeNotifications
	bookings      *fakeBookings
	requests      *fakeRequests
	payments      *fakePayments
	sessions      *fakeSessions
}

func newTestEnv() *testEnv {
	users := newFakeUsers()
	env := &testEnv{
		hub:           hub.New(),
		users:         users,
		messages:      newFakeMessages(users),
		notifications: newFakeNotifications(),
		bookings:      newFakeBookings(),
		requests:      newFakeRequests(),
		payments:      newFakePayments(),
		sessions:      newFakeSessions(),
	}
	env.handler = New(Deps{
		Users:           env.users,
		Messages:        env.messages,
		Notifications:   env.notifications,
		Bookings:        env.bookings,
		Requests:        env.requests,
		Payments:        env.payments,
		Sessions:        env.sessions,
		Hub:             env.hub,
		StreamKeepAlive: 50 * time.Millisecond,
	})
	return env
}

// loginAs seeds a user and a session, returning the user ID and session token.
func (env *testEnv) loginAs(name, email string) (int64, string) {
	id, err := env.users.Create(context.Background(), name, email, "x", "", "")
	if err != nil {
		panic(err)
	}
	token, err := env.sessions.Create(context.Background(), id, name, email)
	if err != nil {
		panic(err)
	}
	return id, token
}
