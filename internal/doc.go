// Package internal contains helper utilities that are intentionally private to
// authkit, including secure random generation and token secret hashing.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - limiters: the pre-auth login throttle
//   - metrics: lock-free counters
//   - stores: Redis-backed single-use token records
//
// # What this package must NOT do
//
//   - Export types that appear in the public authkit API.
//   - Be imported by any package outside the authkit module.
package internal
