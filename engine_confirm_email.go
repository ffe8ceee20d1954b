package authkit

import (
	"context"
	"errors"
)

// RequestEmailConfirmation issues a single-use confirmation token for the
// account behind email and enqueues the confirmation mail. Returns
// [ErrUserNotFound] for unknown addresses and [ErrAlreadyConfirmed] when
// the address is already verified. Re-requesting replaces the outstanding
// token.
func (e *Engine) RequestEmailConfirmation(ctx context.Context, email string) error {
	if e == nil || e.users == nil || e.tokenStore == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricConfirmFailure)
			e.emitAudit(ctx, auditEventEmailConfirmRequest, false, "", "", ErrUserNotFound, nil)
			return ErrUserNotFound
		}
		return err
	}

	if user.EmailConfirmed {
		e.emitAudit(ctx, auditEventEmailConfirmRequest, false, user.ID, "", ErrAlreadyConfirmed, nil)
		return ErrAlreadyConfirmed
	}

	rawToken, err := e.issueToken(ctx, user, PurposeEmailConfirm, e.config.EmailConfirm.TokenTTL)
	if err != nil {
		return err
	}

	e.metricInc(MetricConfirmRequest)
	e.emitAudit(ctx, auditEventEmailConfirmRequest, true, user.ID, "", nil, nil)

	e.sendTokenMail(ctx, user, rawToken,
		e.config.EmailConfirm.LinkPath,
		e.config.EmailConfirm.Subject,
		e.config.EmailConfirm.Template,
	)

	return nil
}

// ConfirmEmail describes the confirm-email operation and its observable behavior.
//
// An already-confirmed address fails with [ErrAlreadyConfirmed] before the
// token is even looked at, so replaying a confirmation link is harmless
// but visibly rejected. A valid token flips the confirmed flag; the flow
// is idempotent in effect but not in response.
//
// ConfirmEmail may return an error when input validation, dependency calls, or security checks fail.
// ConfirmEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmEmail(ctx context.Context, email, token string) error {
	if e == nil || e.users == nil || e.tokenStore == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricConfirmFailure)
			e.emitAudit(ctx, auditEventEmailConfirm, false, "", "", ErrUserNotFound, nil)
			return ErrUserNotFound
		}
		return err
	}

	if user.EmailConfirmed {
		e.emitAudit(ctx, auditEventEmailConfirm, false, user.ID, "", ErrAlreadyConfirmed, nil)
		return ErrAlreadyConfirmed
	}

	if err := e.consumeToken(ctx, user, PurposeEmailConfirm, token, e.config.EmailConfirm.MaxAttempts); err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			e.metricInc(MetricConfirmFailure)
			e.emitAudit(ctx, auditEventEmailConfirm, false, user.ID, "", ErrTokenInvalid, nil)
		}
		return err
	}

	if _, err := e.updateUser(ctx,
		func(ctx context.Context) (*User, error) {
			return e.users.FindByEmail(ctx, email)
		},
		func(u *User) error {
			u.EmailConfirmed = true
			return nil
		},
	); err != nil {
		return err
	}

	e.metricInc(MetricConfirmSuccess)
	e.emitAudit(ctx, auditEventEmailConfirm, true, user.ID, "", nil, nil)

	return nil
}
