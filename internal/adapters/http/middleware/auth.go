package middleware

import (
	"context"
	"net/http"
	"time"

	"tutorcenter/internal/adapters/session"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "tutorcenter_session"

// sessionContextKey is collision-proof: no other package can build this type.
type sessionContextKey struct{}

// CookieConfig controls how the session cookie is issued.
type CookieConfig struct {
	// Secure marks the cookie HTTPS-only. Enabled in production.
	Secure bool
}

// SessionFromContext extracts the resolved session from the request context.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(session.Session)
	return s, ok
}

// ContextWithSession returns a context carrying sess.
// The Guard uses it for every valid session; tests use it directly.
func ContextWithSession(ctx context.Context, sess session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionToken returns the raw cookie value, or "" when absent.
func SessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// SetSessionCookie issues the session cookie, expiring with the session.
func SetSessionCookie(w http.ResponseWriter, s session.Session, cfg CookieConfig) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
