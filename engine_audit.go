package authkit

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventLoginLockedOut       = "login_locked_out"
	auditEventLoginThrottled       = "login_throttled"
	auditEventLockoutTriggered     = "lockout_triggered"
	auditEventLogoutSession        = "logout_session"
	auditEventPasswordResetRequest = "password_reset_request"
	auditEventPasswordResetConfirm = "password_reset_confirm"
	auditEventPasswordResetReplay  = "password_reset_replay"
	auditEventEmailConfirmRequest  = "email_confirm_request"
	auditEventEmailConfirm         = "email_confirm"
	auditEventMailEnqueued         = "mail_enqueued"
	auditEventMailDropped          = "mail_dropped"
)

// AuditErrorCode defines a public type used by authkit APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrEmailNotConfirmed  AuditErrorCode = "email_not_confirmed"
	auditErrAccountInactive    AuditErrorCode = "account_inactive"
	auditErrLockedOut          AuditErrorCode = "locked_out"
	auditErrThrottled          AuditErrorCode = "throttled"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrAlreadyConfirmed   AuditErrorCode = "already_confirmed"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrSessionNotFound    AuditErrorCode = "session_not_found"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrEmailNotConfirmed):
		return auditErrEmailNotConfirmed
	case errors.Is(err, ErrAccountInactive):
		return auditErrAccountInactive
	case errors.Is(err, ErrLockedOut):
		return auditErrLockedOut
	case errors.Is(err, ErrLoginThrottled):
		return auditErrThrottled
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrAlreadyConfirmed):
		return auditErrAlreadyConfirmed
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrTokenBackendUnavailable),
		errors.Is(err, ErrSessionBackendUnavailable),
		errors.Is(err, ErrThrottleUnavailable),
		errors.Is(err, ErrMailUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
