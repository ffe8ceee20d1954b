package authkit

import (
	"context"
	"time"
)

// registerLoginFailure advances the persistent failure counter for the
// user and locks the account when the threshold is reached. The lock sets
// LockoutUntil and resets the counter, so counting starts fresh once the
// window passes. Runs as a CAS read-modify-write; concurrent failures each
// land.
func (e *Engine) registerLoginFailure(ctx context.Context, username string) (locked bool, err error) {
	_, err = e.updateUser(ctx,
		func(ctx context.Context) (*User, error) {
			return e.users.FindByUsername(ctx, username)
		},
		func(u *User) error {
			now := time.Now()
			if u.LockedOut(now) {
				// Already inside a lockout window; nothing to count.
				return nil
			}

			u.FailedAttempts++
			if u.FailedAttempts >= e.config.Lockout.Threshold {
				u.LockoutUntil = now.Add(e.config.Lockout.Duration)
				u.FailedAttempts = 0
				locked = true
			}
			return nil
		},
	)
	return locked, err
}

// clearLockoutState resets the failure counter and lock window after a
// successful sign-in. No-op write is skipped when the record is clean.
func (e *Engine) clearLockoutState(ctx context.Context, username string) error {
	_, err := e.updateUser(ctx,
		func(ctx context.Context) (*User, error) {
			return e.users.FindByUsername(ctx, username)
		},
		func(u *User) error {
			u.FailedAttempts = 0
			u.LockoutUntil = time.Time{}
			return nil
		},
	)
	return err
}
