// Package authkit provides an authentication orchestration engine with
// credential verification, persistent lockout accounting, Redis-backed
// sessions, and single-use email tokens for password reset and address
// confirmation.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Engine], [Builder], [Config],
// the [UserStore] contract, and value types (LoginResult, SessionInfo,
// MetricsSnapshot, etc.). All internal coordination (token persistence,
// session encoding, throttling, audit dispatch) lives under internal/ and is
// never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its public API.
//   - Own the user database; accounts are loaded and saved through the
//     caller-supplied [UserStore].
//   - Deliver mail synchronously inside a flow; delivery always goes through
//     the async dispatcher.
//
// # Failure contract
//
// Expected authentication outcomes are sentinel errors ([ErrInvalidCredentials],
// [ErrLockedOut], [ErrTokenInvalid], ...) matched with errors.Is. Backend
// trouble surfaces as the *Unavailable sentinels wrapping the underlying
// error, so callers can distinguish "denied" from "broken".
package authkit
