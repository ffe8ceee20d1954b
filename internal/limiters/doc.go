// Package limiters provides the Redis-backed request throttle that sits in
// front of credential verification.
//
// # Limiters
//
//   - [LoginThrottle]: per-identifier + per-IP rolling-window throttle for
//     sign-in requests.
//
// The throttle is independent of the per-account lockout kept on the user
// record: the throttle protects the backend from request floods, the lockout
// protects the account from credential guessing.
//
// # Architecture boundaries
//
// The limiter owns its own Redis key namespace and error types. Policy
// thresholds come from the Config struct supplied at construction time.
//
// # What this package must NOT do
//
//   - Import authkit or any sibling internal package.
//   - Make policy decisions beyond counting; the Engine decides consequences.
package limiters
