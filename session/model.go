package session

// Session defines a public type used by authkit APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session struct {
	SessionID string
	UserID    string
	Username  string

	RememberMe bool

	CreatedAt int64
	ExpiresAt int64
}
