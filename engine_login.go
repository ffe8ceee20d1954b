package authkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riodehq/authkit/internal"
	"github.com/riodehq/authkit/internal/limiters"
	"github.com/riodehq/authkit/session"
)

// Login describes the login operation and its observable behavior.
//
// The identifier is tried as a username first, then as an email address.
// Account gates run in a fixed order before the password is verified:
// unconfirmed email, inactive account, then active lockout. A locked
// account fails with [ErrLockedOut] even when the password is correct.
// A wrong password advances the persistent failure counter; crossing the
// lockout threshold locks the account for the configured window. Success
// resets the counter, creates a session, and optionally issues a JWT
// access token.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, identifier, password string, rememberMe bool) (*LoginResult, error) {
	if e == nil || e.users == nil || e.passwordHash == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	ip := clientIPFromContext(ctx)

	if e.throttle != nil {
		if err := e.throttle.Check(ctx, identifier, ip); err != nil {
			if errors.Is(err, limiters.ErrLoginThrottled) {
				e.metricInc(MetricLoginThrottled)
				e.emitAudit(ctx, auditEventLoginThrottled, false, "", "", ErrLoginThrottled, func() map[string]string {
					return map[string]string{"identifier": identifier}
				})
				return nil, ErrLoginThrottled
			}
			return nil, fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
		}
	}

	if identifier == "" || password == "" {
		return nil, e.failLogin(ctx, identifier, "", ErrInvalidCredentials, "empty_input")
	}

	user, err := e.findByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Same failure surface as a wrong password.
			return nil, e.failLogin(ctx, identifier, "", ErrInvalidCredentials, "unknown_user")
		}
		return nil, err
	}

	if !user.EmailConfirmed {
		// Checked before the password so an unconfirmed account answers
		// identically for any credential.
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, "", ErrEmailNotConfirmed, nil)
		return nil, ErrEmailNotConfirmed
	}

	if !user.Active {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, "", ErrAccountInactive, nil)
		return nil, ErrAccountInactive
	}

	now := time.Now()
	if user.LockedOut(now) {
		e.metricInc(MetricLoginLockedOut)
		e.emitAudit(ctx, auditEventLoginLockedOut, false, user.ID, "", ErrLockedOut, func() map[string]string {
			return map[string]string{"lockout_until": user.LockoutUntil.UTC().Format(time.RFC3339)}
		})
		return nil, ErrLockedOut
	}

	match, err := e.passwordHash.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		locked, lerr := e.registerLoginFailure(ctx, user.Username)
		if lerr != nil {
			return nil, lerr
		}
		if locked {
			e.metricInc(MetricLockoutTriggered)
			e.emitAudit(ctx, auditEventLockoutTriggered, false, user.ID, "", nil, func() map[string]string {
				return map[string]string{"duration": e.config.Lockout.Duration.String()}
			})
		}
		return nil, e.failLogin(ctx, identifier, user.ID, ErrInvalidCredentials, "password_mismatch")
	}

	if user.FailedAttempts > 0 || !user.LockoutUntil.IsZero() {
		if err := e.clearLockoutState(ctx, user.Username); err != nil {
			return nil, err
		}
	}

	e.maybeRehash(ctx, user, password)

	if e.throttle != nil {
		// Best effort; a stale throttle counter expires on its own.
		_ = e.throttle.Reset(ctx, identifier, ip)
	}

	ttl := e.config.Session.TTL
	if rememberMe {
		ttl = e.config.Session.RememberTTL
	}

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	sess := &session.Session{
		SessionID:  sid.String(),
		UserID:     user.ID,
		Username:   user.Username,
		RememberMe: rememberMe,
		CreatedAt:  now.Unix(),
		ExpiresAt:  now.Add(ttl).Unix(),
	}
	if err := e.sessionStore.Save(ctx, sess, ttl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionBackendUnavailable, err)
	}
	e.metricInc(MetricSessionCreated)

	result := &LoginResult{
		UserID:    user.ID,
		SessionID: sess.SessionID,
		ExpiresAt: time.Unix(sess.ExpiresAt, 0),
	}

	if e.jwtManager != nil {
		token, err := e.jwtManager.CreateAccess(user.ID, sess.SessionID)
		if err != nil {
			return nil, fmt.Errorf("create access token: %w", err)
		}
		result.AccessToken = token
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, sess.SessionID, nil, func() map[string]string {
		return map[string]string{"remember_me": fmt.Sprintf("%t", rememberMe)}
	})

	return result, nil
}

// failLogin records a failed credential attempt: throttle increment,
// failure metric, audit event, and the caller's sentinel back out.
func (e *Engine) failLogin(ctx context.Context, identifier, userID string, sentinel error, reason string) error {
	if e.throttle != nil {
		_ = e.throttle.Increment(ctx, identifier, clientIPFromContext(ctx))
	}

	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, userID, "", sentinel, func() map[string]string {
		return map[string]string{"reason": reason}
	})

	return sentinel
}

// maybeRehash upgrades the stored hash when the configured Argon2 cost
// outgrew the parameters it was created with. Best effort; a failure here
// never blocks the sign-in.
func (e *Engine) maybeRehash(ctx context.Context, user *User, password string) {
	upgrade, err := e.passwordHash.NeedsUpgrade(user.PasswordHash)
	if err != nil || !upgrade {
		return
	}

	newHash, err := e.passwordHash.Hash(password)
	if err != nil {
		return
	}

	_, _ = e.updateUser(ctx,
		func(ctx context.Context) (*User, error) {
			return e.users.FindByUsername(ctx, user.Username)
		},
		func(u *User) error {
			u.PasswordHash = newHash
			return nil
		},
	)
}
