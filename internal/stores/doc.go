// Package stores provides the Redis-backed, short-lived record store for
// security-sensitive single-use tokens: password reset and email confirmation.
//
// # Design
//
// The store persists a versioned, binary-encoded record in Redis with a TTL,
// keyed by (purpose, user). Consume uses a WATCH/MULTI optimistic transaction
// with automatic retry on contention. Records are single-use: deleted on a
// successful match, and destroyed once the attempt limit is reached. Secret
// comparisons use constant-time compare.
//
// # Architecture boundaries
//
// This package owns persistence and concurrency control for transient token
// records. It does NOT generate secrets, send mail, or make authentication
// decisions; those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import authkit or any sibling internal package.
//   - Log or expose plaintext secrets; only the SHA-256 of the secret is persisted.
//   - Use non-constant-time comparisons for secret matching.
package stores
