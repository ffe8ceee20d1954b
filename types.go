package authkit

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/riodehq/authkit/internal/audit"
	internalmetrics "github.com/riodehq/authkit/internal/metrics"
)

// User is the account record exchanged with the caller's [UserStore].
//
// The engine treats a loaded User as a working copy: it mutates the lockout
// and credential fields and hands the record back through [UserStore.Save].
// Version is an optimistic-concurrency counter owned by the store; Save
// implementations must reject writes whose Version no longer matches the
// stored row.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string

	EmailConfirmed bool
	Active         bool

	FailedAttempts int
	LockoutUntil   time.Time

	Version uint64
}

// LockedOut reports whether the account is inside an active lockout window.
func (u *User) LockedOut(now time.Time) bool {
	return !u.LockoutUntil.IsZero() && now.Before(u.LockoutUntil)
}

// UserStore is the interface callers implement to connect the engine to
// their user database. Lookups are case-insensitive exact matches. Both
// finders return [ErrUserNotFound] for unknown identifiers and wrap
// infrastructure failures in [ErrStoreUnavailable].
//
// Save persists credential and lockout mutations and must be safe under
// concurrent read-modify-write: implementations compare User.Version
// against the stored row and return [ErrStoreConflict] on mismatch, so two
// racing failure increments cannot silently collapse into one.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
}

// Purpose identifies what a single-use token is good for. A token issued
// for one purpose never validates for another.
type Purpose uint8

const (
	// PurposePasswordReset tokens authorize one password reset.
	PurposePasswordReset Purpose = iota + 1
	// PurposeEmailConfirm tokens authorize one email confirmation.
	PurposeEmailConfirm
)

// String returns the stable wire/audit name of the purpose.
func (p Purpose) String() string {
	switch p {
	case PurposePasswordReset:
		return "password_reset"
	case PurposeEmailConfirm:
		return "email_confirm"
	default:
		return "unknown"
	}
}

// LoginResult is returned by [Engine.Login] on success. AccessToken is
// empty unless JWT issuance is enabled in [Config.JWT].
type LoginResult struct {
	UserID    string
	SessionID string

	AccessToken string
	ExpiresAt   time.Time
}

// SessionInfo is the read-only view returned by [Engine.ValidateSession].
type SessionInfo struct {
	SessionID string
	UserID    string
	Username  string

	RememberMe bool
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a counter in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricLoginSuccess counts successful sign-ins.
	MetricLoginSuccess = MetricID(internalmetrics.MetricLoginSuccess)
	// MetricLoginFailure counts rejected sign-ins, any reason.
	MetricLoginFailure = MetricID(internalmetrics.MetricLoginFailure)
	// MetricLoginThrottled counts sign-ins rejected by the request throttle.
	MetricLoginThrottled = MetricID(internalmetrics.MetricLoginThrottled)
	// MetricLoginLockedOut counts sign-ins rejected by an active lockout.
	MetricLoginLockedOut = MetricID(internalmetrics.MetricLoginLockedOut)
	// MetricLockoutTriggered counts Normal->Locked transitions.
	MetricLockoutTriggered = MetricID(internalmetrics.MetricLockoutTriggered)
	// MetricLogout counts session invalidations via Logout.
	MetricLogout = MetricID(internalmetrics.MetricLogout)
	// MetricSessionCreated counts sessions established on login.
	MetricSessionCreated = MetricID(internalmetrics.MetricSessionCreated)
	// MetricResetRequest counts password reset token issuances.
	MetricResetRequest = MetricID(internalmetrics.MetricResetRequest)
	// MetricResetSuccess counts completed password resets.
	MetricResetSuccess = MetricID(internalmetrics.MetricResetSuccess)
	// MetricResetFailure counts rejected password reset confirmations.
	MetricResetFailure = MetricID(internalmetrics.MetricResetFailure)
	// MetricConfirmRequest counts email confirmation token issuances.
	MetricConfirmRequest = MetricID(internalmetrics.MetricConfirmRequest)
	// MetricConfirmSuccess counts completed email confirmations.
	MetricConfirmSuccess = MetricID(internalmetrics.MetricConfirmSuccess)
	// MetricConfirmFailure counts rejected email confirmations.
	MetricConfirmFailure = MetricID(internalmetrics.MetricConfirmFailure)
	// MetricMailEnqueued counts messages handed to the mail dispatcher.
	MetricMailEnqueued = MetricID(internalmetrics.MetricMailEnqueued)
	// MetricMailDropped counts messages the mail dispatcher could not send.
	MetricMailDropped = MetricID(internalmetrics.MetricMailDropped)
)

// Metrics holds the engine's atomic counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all counters.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance. When cfg.Enabled is false
// all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{Enabled: cfg.Enabled})
}
