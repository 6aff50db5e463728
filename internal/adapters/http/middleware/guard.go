package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainAccount "tutorcenter/internal/domain/account"
)

// Redirect targets used by the Guard.
const (
	LoginPath     = "/login"
	DashboardPath = "/user/dashboard"
	AdminPath     = "/admin"
)

// RedirectParam carries the originally requested path to the login page.
const RedirectParam = "redirect_url"

// publicExact are reachable without a session.
var publicExact = map[string]bool{
	"/login":           true,
	"/register":        true,
	"/reset-password":  true,
	"/forgot-password": true,
	"/logout":          true,
	"/healthz":         true,
	"/unauthorized":    true,
}

var publicPrefixes = []string{"/static/", "/_assets/"}

var publicSuffixes = []string{".ico", ".png", ".jpg", ".svg"}

// IsPublicPath reports whether path is in the public allowlist.
func IsPublicPath(path string) bool {
	if publicExact[path] {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, s := range publicSuffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

// IsAdminPath reports whether path lies in the back-office area.
// "/administrator" is not an admin path; "/admin" and "/admin/..." are.
func IsAdminPath(path string) bool {
	return path == AdminPath || strings.HasPrefix(path, AdminPath+"/")
}

// Decision is the Guard's verdict for one request.
type Decision struct {
	Allow bool
	// Location is the redirect target (path plus encoded query) when Allow is false.
	Location string
}

// AllowDecision lets the request through.
func AllowDecision() Decision {
	return Decision{Allow: true}
}

// RedirectTo builds a redirect decision to path with optional query params.
func RedirectTo(path string, params url.Values) Decision {
	loc := path
	if len(params) > 0 {
		loc += "?" + params.Encode()
	}
	return Decision{Location: loc}
}

// Decide applies the access policy. Rule order is significant:
//  1. public paths are always allowed
//  2. without a valid session, redirect to login remembering the path
//  3. admin paths require role admin or staff
//  4. everything else is allowed
//
// INVARIANT: pure; depends only on its arguments
func Decide(path string, res Resolution) Decision {
	if IsPublicPath(path) {
		return AllowDecision()
	}
	if res.Kind != ValidSession {
		return RedirectTo(LoginPath, url.Values{RedirectParam: {path}})
	}
	if IsAdminPath(path) && !domainAccount.IsBackOffice(res.Role()) {
		return RedirectTo(DashboardPath, nil)
	}
	return AllowDecision()
}

// Guard returns middleware that resolves the session and enforces Decide on
// every request before any handler runs. A valid session is placed in the
// request context and its cookie re-issued with the slid expiry; a stale
// cookie is cleared.
func Guard(resolver *Resolver, cookie CookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := resolver.Resolve(r.Context(), r)
			switch res.Kind {
			case ValidSession:
				SetSessionCookie(w, res.Session, cookie)
				r = r.WithContext(ContextWithSession(r.Context(), res.Session))
			case InvalidSession:
				ClearSessionCookie(w, cookie)
			}

			d := Decide(r.URL.Path, res)
			if !d.Allow {
				slog.Info("guard_redirect",
					"path", r.URL.Path,
					"session", res.Kind.String(),
					"role", res.Role(),
					"location", d.Location,
				)
				http.Redirect(w, r, d.Location, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
