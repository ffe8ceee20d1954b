package authkit

import "errors"

var (
	// ErrInvalidCredentials is returned by Login when the identifier does not
	// resolve to a user or the password does not match. Unknown identifiers are
	// folded into this error so Login never reveals account existence.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotConfirmed is returned by Login for accounts that have not
	// completed email confirmation, regardless of password correctness.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	// ErrAccountInactive is returned by Login for deactivated accounts.
	ErrAccountInactive = errors.New("account inactive")
	// ErrLockedOut is returned by Login while a lockout window is active,
	// even when the supplied password is correct.
	ErrLockedOut = errors.New("account locked out")
	// ErrUserNotFound is returned by the reset and confirmation flows when the
	// email does not resolve to a user. ForgotPassword surfaces it verbatim,
	// which leaks account existence; callers that care should mask it at the
	// presentation layer.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenInvalid covers every token rejection: unknown, expired, already
	// consumed, wrong purpose, wrong user. Callers cannot tell these apart.
	ErrTokenInvalid = errors.New("token invalid or expired")
	// ErrAlreadyConfirmed is returned by ConfirmEmail when the address is
	// already confirmed. Re-confirmation is rejected, not treated as success.
	ErrAlreadyConfirmed = errors.New("email already confirmed")
	// ErrPasswordPolicy is returned when a new password fails policy checks.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrSessionNotFound is returned by Logout and ValidateSession when no
	// session exists for the given ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrLoginThrottled is returned when the pre-auth request throttle for an
	// identifier/IP pair is exhausted.
	ErrLoginThrottled = errors.New("login rate limited")
	// ErrEngineNotReady is returned when the engine is missing a required
	// dependency. Use Builder.Build to get a validated engine.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrStoreConflict is returned by UserStore.Save when the record version
	// changed underneath the caller. The engine retries the read-modify-write.
	ErrStoreConflict = errors.New("user record version conflict")

	// ErrStoreUnavailable wraps user store infrastructure failures.
	ErrStoreUnavailable = errors.New("user store unavailable")
	// ErrTokenBackendUnavailable wraps token store infrastructure failures.
	ErrTokenBackendUnavailable = errors.New("token backend unavailable")
	// ErrSessionBackendUnavailable wraps session store infrastructure failures.
	ErrSessionBackendUnavailable = errors.New("session backend unavailable")
	// ErrThrottleUnavailable wraps login throttle infrastructure failures.
	ErrThrottleUnavailable = errors.New("throttle backend unavailable")
	// ErrMailUnavailable wraps mail dispatch failures that happen before the
	// message is handed to the async sender.
	ErrMailUnavailable = errors.New("mail transport unavailable")
)
