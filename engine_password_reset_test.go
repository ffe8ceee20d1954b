package authkit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestForgotPasswordUnknownEmail(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	hasher := newTestHasher(t)
	engine := newTestEngine(t, rdb, newMockUserStore(), hasher)

	if err := engine.ForgotPassword(context.Background(), "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	store := newMockUserStore(seedUser(t, hasher, "old-password-123"))
	engine := newTestEngine(t, rdb, store, hasher)
	delivered := attachMailCapture(t, engine)

	if err := engine.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}

	msg := waitForMail(t, delivered)
	if msg.To != "alice@example.com" {
		t.Fatalf("mail sent to %q", msg.To)
	}
	token := tokenFromMail(t, msg)

	// Seed a live session; the reset must kill it.
	login, err := engine.Login(ctx, "alice", "old-password-123", false)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := engine.ResetPassword(ctx, "alice@example.com", token, "new-password-123"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	updated := store.get(t, "u1")
	ok, err := hasher.Verify("new-password-123", updated.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected new password to verify, ok=%v err=%v", ok, err)
	}

	if _, err := engine.ValidateSession(ctx, login.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session invalidated after reset, got %v", err)
	}

	// Replaying the consumed token fails.
	if err := engine.ResetPassword(ctx, "alice@example.com", token, "newer-password-123"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on replay, got %v", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	store := newMockUserStore(seedUser(t, hasher, "old-password-123"))
	engine := newTestEngine(t, rdb, store, hasher)
	engine.config.PasswordReset.TokenTTL = time.Minute
	delivered := attachMailCapture(t, engine)

	if err := engine.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	token := tokenFromMail(t, waitForMail(t, delivered))

	mr.FastForward(2 * time.Minute)

	if err := engine.ResetPassword(ctx, "alice@example.com", token, "new-password-123"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}

	// Password unchanged.
	ok, err := hasher.Verify("old-password-123", store.get(t, "u1").PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected old password to remain valid, ok=%v err=%v", ok, err)
	}
}

func TestResetPasswordPolicyDoesNotBurnToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	store := newMockUserStore(seedUser(t, hasher, "old-password-123"))
	engine := newTestEngine(t, rdb, store, hasher)
	delivered := attachMailCapture(t, engine)

	if err := engine.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	token := tokenFromMail(t, waitForMail(t, delivered))

	if err := engine.ResetPassword(ctx, "alice@example.com", token, "short"); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}

	// The policy rejection happened before the token was consumed.
	if err := engine.ResetPassword(ctx, "alice@example.com", token, "new-password-123"); err != nil {
		t.Fatalf("expected token still usable after policy rejection, got %v", err)
	}
}

func TestForgotPasswordReissueReplacesToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	store := newMockUserStore(seedUser(t, hasher, "old-password-123"))
	engine := newTestEngine(t, rdb, store, hasher)
	delivered := attachMailCapture(t, engine)

	if err := engine.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("first ForgotPassword failed: %v", err)
	}
	first := tokenFromMail(t, waitForMail(t, delivered))

	if err := engine.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("second ForgotPassword failed: %v", err)
	}
	second := tokenFromMail(t, waitForMail(t, delivered))

	if err := engine.ResetPassword(ctx, "alice@example.com", first, "new-password-123"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected superseded token to fail, got %v", err)
	}
	if err := engine.ResetPassword(ctx, "alice@example.com", second, "new-password-123"); err != nil {
		t.Fatalf("latest token failed: %v", err)
	}
}

func TestResetPasswordLeavesLockoutIntact(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	user := seedUser(t, hasher, "old-password-123")
	user.LockoutUntil = time.Now().Add(10 * time.Minute)
	store := newMockUserStore(user)
	engine := newTestEngine(t, rdb, store, hasher)
	delivered := attachMailCapture(t, engine)

	if err := engine.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	token := tokenFromMail(t, waitForMail(t, delivered))

	if err := engine.ResetPassword(ctx, "alice@example.com", token, "new-password-123"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if store.get(t, "u1").LockoutUntil.IsZero() {
		t.Fatal("expected lockout window untouched by password reset")
	}

	// New credentials inside the lockout window still bounce.
	if _, err := engine.Login(ctx, "alice", "new-password-123", false); !errors.Is(err, ErrLockedOut) {
		t.Fatalf("expected ErrLockedOut after reset during lockout, got %v", err)
	}
}

func TestVerifyResetRequest(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	hasher := newTestHasher(t)
	store := newMockUserStore(seedUser(t, hasher, "old-password-123"))
	engine := newTestEngine(t, rdb, store, hasher)

	if err := engine.VerifyResetRequest(ctx, "alice@example.com"); err != nil {
		t.Fatalf("VerifyResetRequest failed: %v", err)
	}
	if err := engine.VerifyResetRequest(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
