package authkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riodehq/authkit/internal"
	"github.com/riodehq/authkit/internal/stores"
	"github.com/riodehq/authkit/mail"
)

// issueToken mints a fresh single-use token for (purpose, user), persists
// its hash, and returns the raw value for the emailed link. Issuing again
// for the same pair replaces the outstanding token.
func (e *Engine) issueToken(ctx context.Context, user *User, purpose Purpose, ttl time.Duration) (string, error) {
	secret, err := internal.NewTokenSecret()
	if err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}

	record := &stores.TokenRecord{
		UserID:     user.ID,
		Purpose:    uint8(purpose),
		SecretHash: internal.HashTokenSecret(secret),
		ExpiresAt:  time.Now().Add(ttl).Unix(),
	}
	if err := e.tokenStore.Save(ctx, record, ttl); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenBackendUnavailable, err)
	}

	return internal.EncodeToken(secret), nil
}

// consumeToken validates and invalidates the outstanding token for
// (purpose, user). Every failure mode collapses to [ErrTokenInvalid] so a
// caller cannot probe which check failed; backend trouble surfaces as
// [ErrTokenBackendUnavailable].
func (e *Engine) consumeToken(ctx context.Context, user *User, purpose Purpose, rawToken string, maxAttempts int) error {
	secret, err := internal.DecodeToken(rawToken)
	if err != nil {
		return ErrTokenInvalid
	}

	_, err = e.tokenStore.Consume(ctx, uint8(purpose), user.ID, internal.HashTokenSecret(secret), maxAttempts)
	if err != nil {
		switch {
		case errors.Is(err, stores.ErrTokenNotFound),
			errors.Is(err, stores.ErrTokenSecretMismatch),
			errors.Is(err, stores.ErrTokenAttemptsExceeded):
			return ErrTokenInvalid
		default:
			return fmt.Errorf("%w: %v", ErrTokenBackendUnavailable, err)
		}
	}

	return nil
}

// sendTokenMail builds the action link for a raw token, renders the
// configured template, and enqueues the message. The enqueue outcome is
// audited but never fails the calling flow; delivery is asynchronous.
func (e *Engine) sendTokenMail(ctx context.Context, user *User, rawToken, linkPath, subject, template string) {
	if e.mailer == nil {
		return
	}

	link := e.links.Build(linkPath, user.Email, rawToken)
	msg := mail.Message{
		To:      user.Email,
		Subject: subject,
		Body:    mail.Render(template, link),
	}

	if e.mailer.Enqueue(ctx, msg) {
		e.metricInc(MetricMailEnqueued)
		e.emitAudit(ctx, auditEventMailEnqueued, true, user.ID, "", nil, func() map[string]string {
			return map[string]string{"subject": subject}
		})
		return
	}

	e.metricInc(MetricMailDropped)
	e.emitAudit(ctx, auditEventMailDropped, false, user.ID, "", ErrMailUnavailable, func() map[string]string {
		return map[string]string{"subject": subject}
	})
}
