package authkit

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/riodehq/authkit/internal/limiters"
	"github.com/riodehq/authkit/internal/stores"
	"github.com/riodehq/authkit/mail"
	"github.com/riodehq/authkit/password"
	"github.com/riodehq/authkit/session"
)

// mockUserStore is an in-memory UserStore with the same optimistic
// concurrency contract as a real implementation: Save rejects stale
// versions with ErrStoreConflict.
type mockUserStore struct {
	mu      sync.Mutex
	byID    map[string]User
	byUser  map[string]string
	byEmail map[string]string
}

func newMockUserStore(users ...*User) *mockUserStore {
	s := &mockUserStore{
		byID:    make(map[string]User),
		byUser:  make(map[string]string),
		byEmail: make(map[string]string),
	}
	for _, u := range users {
		s.put(u)
	}
	return s
}

func (s *mockUserStore) put(u *User) {
	if u.Version == 0 {
		u.Version = 1
	}
	s.byID[u.ID] = *u
	s.byUser[strings.ToLower(u.Username)] = u.ID
	s.byEmail[strings.ToLower(u.Email)] = u.ID
}

func (s *mockUserStore) FindByUsername(_ context.Context, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byUser[strings.ToLower(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := s.byID[id]
	return &u, nil
}

func (s *mockUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := s.byID[id]
	return &u, nil
}

func (s *mockUserStore) Save(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	if current.Version != user.Version {
		return ErrStoreConflict
	}

	user.Version++
	s.byID[user.ID] = *user
	return nil
}

// get returns the stored record for assertions.
func (s *mockUserStore) get(t *testing.T, id string) User {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		t.Fatalf("user %q not in store", id)
	}
	return u
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func newTestHasher(t *testing.T) *password.Argon2 {
	t.Helper()

	h, err := password.NewArgon2(password.Config{
		Memory:      65536,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return h
}

func newTestEngine(t *testing.T, rdb *redis.Client, store UserStore, hasher *password.Argon2) *Engine {
	t.Helper()

	return &Engine{
		config:       defaultConfig(),
		users:        store,
		passwordHash: hasher,
		sessionStore: session.NewStore(rdb, "ak"),
		tokenStore:   stores.NewTokenStore(rdb, ""),
		metrics:      NewMetrics(MetricsConfig{Enabled: true}),
	}
}

func seedUser(t *testing.T, hasher *password.Argon2, pass string) *User {
	t.Helper()

	hash, err := hasher.Hash(pass)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	return &User{
		ID:             "u1",
		Username:       "alice",
		Email:          "alice@example.com",
		PasswordHash:   hash,
		EmailConfirmed: true,
		Active:         true,
	}
}

func newThrottleForTest(rdb *redis.Client, cfg ThrottleConfig) *limiters.LoginThrottle {
	return limiters.NewLoginThrottle(rdb, limiters.LoginThrottleConfig{
		Enabled:     cfg.Enabled,
		MaxAttempts: cfg.MaxAttempts,
		Cooldown:    cfg.Cooldown,
	})
}

func newCaptureTransport() (mail.Transport, chan mail.Message) {
	delivered := make(chan mail.Message, 16)
	transport := mail.FuncTransport(func(_ context.Context, msg mail.Message) error {
		delivered <- msg
		return nil
	})
	return transport, delivered
}

// attachMailCapture wires an async mail dispatcher whose transport forwards
// every delivered message into the returned channel.
func attachMailCapture(t *testing.T, engine *Engine) chan mail.Message {
	t.Helper()

	transport, delivered := newCaptureTransport()
	engine.mailer = mail.NewDispatcher(mail.Config{BufferSize: 16}, transport)
	engine.links = mail.LinkBuilder{BaseURL: "http://app.test"}
	t.Cleanup(engine.mailer.Close)

	return delivered
}

func waitForMail(t *testing.T, delivered chan mail.Message) mail.Message {
	t.Helper()

	select {
	case msg := <-delivered:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mail delivery")
		return mail.Message{}
	}
}

// tokenFromMail extracts the raw token from the action link in a message body.
func tokenFromMail(t *testing.T, msg mail.Message) string {
	t.Helper()

	idx := strings.Index(msg.Body, "http")
	if idx < 0 {
		t.Fatalf("no link in mail body: %q", msg.Body)
	}

	link := strings.Fields(msg.Body[idx:])[0]
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse mail link %q: %v", link, err)
	}

	token := u.Query().Get("token")
	if token == "" {
		t.Fatalf("no token in mail link %q", link)
	}
	return token
}
