package authkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riodehq/authkit/internal"
	internalaudit "github.com/riodehq/authkit/internal/audit"
	"github.com/riodehq/authkit/internal/limiters"
	"github.com/riodehq/authkit/internal/stores"
	"github.com/riodehq/authkit/jwt"
	"github.com/riodehq/authkit/mail"
	"github.com/riodehq/authkit/password"
	"github.com/riodehq/authkit/session"
)

// Engine defines a public type used by authkit APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	users        UserStore
	passwordHash *password.Argon2
	tokenStore   *stores.TokenStore
	sessionStore *session.Store
	throttle     *limiters.LoginThrottle
	mailer       *mail.Dispatcher
	links        mail.LinkBuilder
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	jwtManager   *jwt.Manager
}

// Close drains the audit and mail dispatchers. Call it during shutdown;
// flows invoked after Close still complete, but their mail and audit
// output is dropped.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.mailer != nil {
		e.mailer.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditFailed reports audit events the sink could not accept.
func (e *Engine) AuditFailed() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Failed()
}

// MailDropped reports messages the mail dispatcher rejected at enqueue.
func (e *Engine) MailDropped() uint64 {
	if e == nil || e.mailer == nil {
		return 0
	}
	return e.mailer.Dropped()
}

// MailFailed reports messages the mail transport could not deliver.
func (e *Engine) MailFailed() uint64 {
	if e == nil || e.mailer == nil {
		return 0
	}
	return e.mailer.Failed()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Logout invalidates a session. Returns [ErrSessionNotFound] when no
// session exists for the given ID; logging out twice fails the second time.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}

	// Malformed IDs can never name a stored session; skip the lookup.
	if _, err := internal.ParseSessionID(sessionID); err != nil {
		e.emitAudit(ctx, auditEventLogoutSession, false, "", sessionID, ErrSessionNotFound, nil)
		return ErrSessionNotFound
	}

	sess, err := e.sessionStore.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			e.emitAudit(ctx, auditEventLogoutSession, false, "", sessionID, ErrSessionNotFound, nil)
			return ErrSessionNotFound
		}
		return fmt.Errorf("%w: %v", ErrSessionBackendUnavailable, err)
	}

	if err := e.sessionStore.Delete(ctx, sess.UserID, sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			// Lost the race with a concurrent logout.
			e.emitAudit(ctx, auditEventLogoutSession, false, sess.UserID, sessionID, ErrSessionNotFound, nil)
			return ErrSessionNotFound
		}
		return fmt.Errorf("%w: %v", ErrSessionBackendUnavailable, err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogoutSession, true, sess.UserID, sessionID, nil, nil)
	return nil
}

// ValidateSession resolves a session ID to its [SessionInfo]. Returns
// [ErrSessionNotFound] for unknown or expired sessions.
func (e *Engine) ValidateSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	if _, err := internal.ParseSessionID(sessionID); err != nil {
		return nil, ErrSessionNotFound
	}

	sess, err := e.sessionStore.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionBackendUnavailable, err)
	}

	return &SessionInfo{
		SessionID:  sess.SessionID,
		UserID:     sess.UserID,
		Username:   sess.Username,
		RememberMe: sess.RememberMe,
		CreatedAt:  time.Unix(sess.CreatedAt, 0),
		ExpiresAt:  time.Unix(sess.ExpiresAt, 0),
	}, nil
}

// findByIdentifier resolves a sign-in identifier: username lookup first,
// then email. First match wins.
func (e *Engine) findByIdentifier(ctx context.Context, identifier string) (*User, error) {
	user, err := e.users.FindByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	return e.users.FindByEmail(ctx, identifier)
}

// updateUser runs a read-modify-write against the user store, retrying on
// version conflicts so concurrent mutations of the same record (parallel
// failed logins, most commonly) never lose an update.
func (e *Engine) updateUser(
	ctx context.Context,
	load func(ctx context.Context) (*User, error),
	mutate func(*User) error,
) (*User, error) {
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		user, err := load(ctx)
		if err != nil {
			return nil, err
		}

		if err := mutate(user); err != nil {
			return nil, err
		}

		err = e.users.Save(ctx, user)
		if errors.Is(err, ErrStoreConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		return user, nil
	}

	return nil, ErrStoreConflict
}
