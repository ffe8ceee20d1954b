package authkit

import (
	"context"
	"errors"
	"fmt"
)

// ForgotPassword describes the forgot-password operation and its observable behavior.
//
// It issues a single-use reset token for the account behind email and
// enqueues the reset mail. Returns [ErrUserNotFound] for unknown
// addresses; hiding account existence is left to the caller's surface.
// Re-requesting replaces the outstanding token, so only the latest mail
// works.
//
// ForgotPassword may return an error when input validation, dependency calls, or security checks fail.
// ForgotPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	if e == nil || e.users == nil || e.tokenStore == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricResetFailure)
			e.emitAudit(ctx, auditEventPasswordResetRequest, false, "", "", ErrUserNotFound, nil)
			return ErrUserNotFound
		}
		return err
	}

	rawToken, err := e.issueToken(ctx, user, PurposePasswordReset, e.config.PasswordReset.TokenTTL)
	if err != nil {
		return err
	}

	e.metricInc(MetricResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, user.ID, "", nil, nil)

	e.sendTokenMail(ctx, user, rawToken,
		e.config.PasswordReset.LinkPath,
		e.config.PasswordReset.Subject,
		e.config.PasswordReset.Template,
	)

	return nil
}

// VerifyResetRequest checks that a reset form may be shown for email.
// It only gates on account existence; the token itself is judged once,
// when [Engine.ResetPassword] consumes it.
func (e *Engine) VerifyResetRequest(ctx context.Context, email string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	if _, err := e.users.FindByEmail(ctx, email); err != nil {
		return err
	}
	return nil
}

// ResetPassword describes the reset-password operation and its observable behavior.
//
// The new password is policy-checked before the token is consumed, so a
// rejected password does not burn the single attempt. A consumed, expired,
// replayed, or mismatched token fails with [ErrTokenInvalid]. On success
// the password hash is replaced and every active session for the user is
// invalidated. The lockout state is deliberately left untouched.
//
// ResetPassword may return an error when input validation, dependency calls, or security checks fail.
// ResetPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	if e == nil || e.users == nil || e.tokenStore == nil || e.passwordHash == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricResetFailure)
			e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", "", ErrUserNotFound, nil)
			return ErrUserNotFound
		}
		return err
	}

	if len(newPassword) < e.config.Password.MinLength {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, user.ID, "", ErrPasswordPolicy, nil)
		return ErrPasswordPolicy
	}

	if err := e.consumeToken(ctx, user, PurposePasswordReset, token, e.config.PasswordReset.MaxAttempts); err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			e.metricInc(MetricResetFailure)
			e.emitAudit(ctx, auditEventPasswordResetReplay, false, user.ID, "", ErrTokenInvalid, nil)
		}
		return err
	}

	newHash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if _, err := e.updateUser(ctx,
		func(ctx context.Context) (*User, error) {
			return e.users.FindByEmail(ctx, email)
		},
		func(u *User) error {
			u.PasswordHash = newHash
			return nil
		},
	); err != nil {
		return err
	}

	// A password change orphans existing sessions; an attacker holding a
	// stolen session must not survive the reset.
	if e.sessionStore != nil {
		_ = e.sessionStore.DeleteAllForUser(ctx, user.ID)
	}

	e.metricInc(MetricResetSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, user.ID, "", nil, nil)

	return nil
}
