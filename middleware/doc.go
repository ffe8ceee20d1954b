// Package middleware exposes HTTP middleware adapters built on top of
// authkit.Engine session validation.
//
// # Guards
//
//   - [Guard]: resolves the session from a cookie or Authorization header and
//     rejects the request when no valid session exists.
//
// The guard injects the validated [authkit.SessionInfo] into the request
// context for downstream handlers.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself; all decisions are delegated to
// Engine.ValidateSession.
//
// # What this package must NOT do
//
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from Engine.ValidateSession.
package middleware
