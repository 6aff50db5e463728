package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tutorcenter/internal/adapters/session"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestRateLimiter_AllowAndRefill(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request within interval should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("limit must be per IP")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Error("tokens not refilled after interval")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }
	rl.Allow("1.2.3.4")
	now = now.Add(10 * time.Minute)
	rl.Cleanup(5 * time.Minute)
	if len(rl.visitors) != 0 {
		t.Errorf("visitors = %d, want 0", len(rl.visitors))
	}
}

func TestRateLimit_OnlyListedPosts(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	h := RateLimit(rl, "/login")(okHandler())

	do := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	if do("POST", "/login") != http.StatusOK {
		t.Fatal("first login POST limited")
	}
	if code := do("POST", "/login"); code != http.StatusTooManyRequests {
		t.Errorf("second login POST = %d, want 429", code)
	}
	if code := do("GET", "/login"); code != http.StatusOK {
		t.Errorf("GET /login = %d, want 200", code)
	}
	if code := do("POST", "/register"); code != http.StatusOK {
		t.Errorf("unlisted path = %d, want 200", code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
}

func TestCSRF_JSONExemptFormRejected(t *testing.T) {
	key := bytes.Repeat([]byte("k"), 32)
	h := CSRF(key, false, nil)(okHandler())

	jsonReq := httptest.NewRequest("POST", "/admin/api/roles", strings.NewReader(`{}`))
	jsonReq.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, jsonReq)
	if rr.Code != http.StatusOK {
		t.Errorf("JSON POST = %d, want 200", rr.Code)
	}

	formReq := httptest.NewRequest("POST", "/login", strings.NewReader("email=a"))
	formReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, formReq)
	if rr.Code != http.StatusForbidden {
		t.Errorf("form POST without token = %d, want 403", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/login", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("GET = %d, want 200", rr.Code)
	}
}

func TestChain_FirstIsOutermost(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	Chain(okHandler(), mark("a"), mark("b"), mark("c")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if strings.Join(order, "") != "abc" {
		t.Errorf("order = %v, want [a b c]", order)
	}
}

func TestSessionCookieHelpers(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, session.Session{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}, CookieConfig{Secure: true})
	c := rr.Result().Cookies()[0]
	if c.Name != SessionCookieName || c.Value != "tok" || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie = %+v", c)
	}
	if c.MaxAge <= 0 {
		t.Errorf("MaxAge = %d, want > 0", c.MaxAge)
	}

	rr = httptest.NewRecorder()
	ClearSessionCookie(rr, CookieConfig{})
	if c := rr.Result().Cookies()[0]; c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("cleared cookie = %+v", c)
	}
}
