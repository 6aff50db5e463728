package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"tutorcenter/internal/adapters/session"
)

var allResolutions = map[string]Resolution{
	"none":     {Kind: NoSession},
	"invalid":  {Kind: InvalidSession},
	"customer": Valid(session.Session{AccountID: "c", Role: "customer"}),
	"tutor":    Valid(session.Session{AccountID: "t", Role: "tutor"}),
	"staff":    Valid(session.Session{AccountID: "s", Role: "staff"}),
	"admin":    Valid(session.Session{AccountID: "a", Role: "admin"}),
}

func TestDecide_PublicPathsAlwaysAllowed(t *testing.T) {
	paths := []string{
		"/login", "/register", "/reset-password", "/forgot-password", "/logout",
		"/healthz", "/unauthorized", "/favicon.ico", "/static/app.css",
		"/_assets/chunk.js", "/admin/logo.png", "/img/photo.jpg", "/icons/x.svg",
	}
	for _, p := range paths {
		for name, res := range allResolutions {
			if d := Decide(p, res); !d.Allow {
				t.Errorf("Decide(%q, %s) = %+v, want Allow", p, name, d)
			}
		}
	}
}

func TestDecide_ProtectedWithoutSession(t *testing.T) {
	paths := []string{"/", "/user/dashboard", "/admin", "/admin/customers", "/api/password", "/login/extra"}
	for _, p := range paths {
		for _, res := range []Resolution{{Kind: NoSession}, {Kind: InvalidSession}} {
			d := Decide(p, res)
			if d.Allow {
				t.Fatalf("Decide(%q, %v) allowed", p, res.Kind)
			}
			u, err := url.Parse(d.Location)
			if err != nil {
				t.Fatalf("bad location %q: %v", d.Location, err)
			}
			if u.Path != LoginPath || u.Query().Get(RedirectParam) != p {
				t.Errorf("Decide(%q) = %q, want /login?redirect_url=%s", p, d.Location, p)
			}
		}
	}
}

func TestDecide_AdminArea(t *testing.T) {
	tests := []struct {
		role      string
		path      string
		wantAllow bool
	}{
		{"admin", "/admin", true},
		{"admin", "/admin/customers", true},
		{"staff", "/admin/schedules", true},
		{"customer", "/admin", false},
		{"customer", "/admin/customers", false},
		{"tutor", "/admin/api/tutors/update", false},
		{"customer", "/user/dashboard", true},
		{"tutor", "/administrator", true},
	}
	for _, tt := range tests {
		t.Run(tt.role+tt.path, func(t *testing.T) {
			d := Decide(tt.path, allResolutions[tt.role])
			if d.Allow != tt.wantAllow {
				t.Fatalf("Allow = %v, want %v", d.Allow, tt.wantAllow)
			}
			if !tt.wantAllow && d.Location != DashboardPath {
				t.Errorf("Location = %q, want %q", d.Location, DashboardPath)
			}
		})
	}
}

// newGuardFixture wires a Guard over an in-memory store. The returned handler
// records the session it saw in context.
func newGuardFixture(t *testing.T) (http.Handler, *session.Manager, *session.Session) {
	t.Helper()
	mgr := session.NewManager(session.NewMemoryStore(), time.Hour)
	var seen session.Session
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return Guard(NewResolver(mgr), CookieConfig{})(inner), mgr, &seen
}

func TestGuard_NoCookieOnAdminRedirectsToLogin(t *testing.T) {
	h, _, _ := newGuardFixture(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/admin/customers", nil))

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rr.Code)
	}
	loc, _ := url.Parse(rr.Header().Get("Location"))
	if loc.Path != "/login" || loc.Query().Get("redirect_url") != "/admin/customers" {
		t.Errorf("Location = %q", rr.Header().Get("Location"))
	}
}

func TestGuard_NoCookieOnLoginAllowed(t *testing.T) {
	h, _, _ := newGuardFixture(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/login", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestGuard_InvalidCookieClearedAndRedirected(t *testing.T) {
	h, _, _ := newGuardFixture(t)
	req := httptest.NewRequest("GET", "/user/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: strings.Repeat("ab", 32)})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rr.Code)
	}
	cleared := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("stale session cookie not cleared")
	}
}

func TestGuard_ValidSessions(t *testing.T) {
	tests := []struct {
		role       string
		path       string
		wantStatus int
		wantLoc    string
	}{
		{"customer", "/admin", http.StatusSeeOther, "/user/dashboard"},
		{"customer", "/user/dashboard", http.StatusOK, ""},
		{"admin", "/admin/customers", http.StatusOK, ""},
		{"staff", "/admin/schedules", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.role+tt.path, func(t *testing.T) {
			h, mgr, seen := newGuardFixture(t)
			s, err := mgr.Start(context.Background(), "acc-"+tt.role, tt.role+"@x.test", tt.role)
			if err != nil {
				t.Fatalf("Start: %v", err)
			}
			req := httptest.NewRequest("GET", tt.path, nil)
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: s.Token})
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantLoc != "" && rr.Header().Get("Location") != tt.wantLoc {
				t.Errorf("Location = %q, want %q", rr.Header().Get("Location"), tt.wantLoc)
			}
			if tt.wantStatus == http.StatusOK && seen.AccountID != "acc-"+tt.role {
				t.Errorf("context session = %+v", *seen)
			}
			reissued := false
			for _, c := range rr.Result().Cookies() {
				if c.Name == SessionCookieName && c.Value == s.Token && c.HttpOnly {
					reissued = true
				}
			}
			if !reissued {
				t.Error("session cookie not re-issued")
			}
		})
	}
}

func TestGuard_BackendFailureRedirects(t *testing.T) {
	mgr := session.NewManager(failingStore{}, time.Hour)
	h := Guard(NewResolver(mgr), CookieConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached despite backend failure")
	}))
	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: strings.Repeat("cd", 32)})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther || !strings.HasPrefix(rr.Header().Get("Location"), "/login?") {
		t.Errorf("got %d %q", rr.Code, rr.Header().Get("Location"))
	}
}

type failingStore struct{}

var errBackendDown = errors.New("backend down")

func (failingStore) Create(context.Context, session.Session) error { return errBackendDown }
func (failingStore) Get(context.Context, string) (session.Session, error) {
	return session.Session{}, errBackendDown
}
func (failingStore) Touch(context.Context, string, time.Time) error { return errBackendDown }
func (failingStore) Delete(context.Context, string) error            { return errBackendDown }
func (failingStore) DeleteByAccount(context.Context, string) error   { return errBackendDown }
