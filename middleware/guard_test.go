package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/riodehq/authkit"
	"github.com/riodehq/authkit/password"
)

type memStore struct {
	mu    sync.Mutex
	users map[string]authkit.User
}

func (s *memStore) find(match func(authkit.User) bool) (*authkit.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if match(u) {
			copied := u
			return &copied, nil
		}
	}
	return nil, authkit.ErrUserNotFound
}

func (s *memStore) FindByUsername(_ context.Context, username string) (*authkit.User, error) {
	return s.find(func(u authkit.User) bool { return strings.EqualFold(u.Username, username) })
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*authkit.User, error) {
	return s.find(func(u authkit.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *memStore) Save(_ context.Context, user *authkit.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return authkit.ErrUserNotFound
	}
	if current.Version != user.Version {
		return authkit.ErrStoreConflict
	}
	user.Version++
	s.users[user.ID] = *user
	return nil
}

func newGuardedEngine(t *testing.T) (*authkit.Engine, string) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	hasher, err := password.NewArgon2(password.Config{
		Memory:      65536,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	hash, err := hasher.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	store := &memStore{users: map[string]authkit.User{
		"u1": {
			ID:             "u1",
			Username:       "alice",
			Email:          "alice@example.com",
			PasswordHash:   hash,
			EmailConfirmed: true,
			Active:         true,
			Version:        1,
		},
	}}

	engine, err := authkit.New().
		WithRedis(rdb).
		WithUserStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	result, err := engine.Login(context.Background(), "alice", "correct-horse", false)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	return engine, result.SessionID
}

func TestGuardAcceptsBearerSession(t *testing.T) {
	engine, sessionID := newGuardedEngine(t)

	handler := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok := SessionFromContext(r.Context())
		if !ok || info.UserID != "u1" {
			t.Fatalf("missing session in context: %+v ok=%v", info, ok)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+sessionID)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGuardAcceptsCookieSession(t *testing.T) {
	engine, sessionID := newGuardedEngine(t)

	handler := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGuardRejectsMissingAndBogusSessions(t *testing.T) {
	engine, _ := newGuardedEngine(t)

	handler := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not run")
	}))

	// No credentials at all.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	// Unknown session ID.
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bogus-session")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bogus session, got %d", rec.Code)
	}
}
