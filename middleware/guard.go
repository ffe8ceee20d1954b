package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/riodehq/authkit"
)

// SessionCookieName is the cookie the guard reads the session ID from when
// no Authorization header is present.
const SessionCookieName = "session_id"

type sessionContextKey struct{}

// SessionFromContext returns the validated session injected by [Guard].
func SessionFromContext(ctx context.Context) (*authkit.SessionInfo, bool) {
	info, ok := ctx.Value(sessionContextKey{}).(*authkit.SessionInfo)
	return info, ok
}

// Guard returns middleware that rejects requests without a valid session.
// The session ID is taken from the Authorization header (Bearer scheme)
// when present, else from the session cookie.
func Guard(engine *authkit.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sessionID, ok := sessionIDFromRequest(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			info, err := engine.ValidateSession(r.Context(), sessionID)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionIDFromRequest(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	return cookie.Value, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
