package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"tutorcenter/internal/adapters/email"
	"tutorcenter/internal/adapters/http/middleware"
	"tutorcenter/internal/adapters/http/perf"
	"tutorcenter/internal/adapters/resettoken"
	"tutorcenter/internal/adapters/session"
	"tutorcenter/internal/adapters/storage"
	accountStore "tutorcenter/internal/adapters/storage/account"
	profileStore "tutorcenter/internal/adapters/storage/profile"
	scheduleStore "tutorcenter/internal/adapters/storage/schedule"
	"tutorcenter/internal/application/orchestrators"
	"tutorcenter/internal/domain/account"
	"tutorcenter/internal/domain/profile"
)

const testPassword = "correct-horse-1"

type testEnv struct {
	t         *testing.T
	handler   http.Handler
	server    *Server
	accounts  *accountStore.SQLiteStore
	profiles  *profileStore.SQLiteStore
	schedules *scheduleStore.SQLiteStore
	sessions  *session.Manager
	mail      *email.LogSender
	collector *perf.Collector
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	collector := perf.NewCollector(1000)
	timed := storage.NewTimedDB(db, collector, 0)

	env := &testEnv{
		t:         t,
		accounts:  accountStore.NewSQLiteStore(timed),
		profiles:  profileStore.NewSQLiteStore(timed),
		schedules: scheduleStore.NewSQLiteStore(timed),
		sessions:  session.NewManager(session.NewMemoryStore(), time.Hour),
		mail:      email.NewLogSender(),
		collector: collector,
	}
	srv, err := NewServer(Deps{
		Accounts:  env.accounts,
		Profiles:  env.profiles,
		Schedules: env.schedules,
		Sessions:  env.sessions,
		Mailer:    env.mail,
		Tokens:    resettoken.NewIssuer([]byte("test-reset-secret"), time.Hour),
		Collector: collector,
		DB:        timed,
	}, Options{
		CSRFKey:   []byte(strings.Repeat("k", 32)),
		Branding:  email.Branding{Center: "Test Center", BaseURL: "http://localhost"},
		RateLimit: 1000,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	env.server = srv
	env.handler = srv.Handler()
	return env
}

// seed creates an account with profile for role and returns its ID.
func (e *testEnv) seed(role, fullName, addr string) string {
	e.t.Helper()
	id := "id-" + role + "-" + strings.ReplaceAll(addr, "@", "-")
	now := time.Now().UTC()
	a := account.Account{ID: id, Email: addr, Role: role, Status: account.StatusActive, CreatedAt: now}
	if err := a.SetPassword(testPassword); err != nil {
		e.t.Fatalf("SetPassword: %v", err)
	}
	p := profile.Profile{ID: id, Email: addr, FullName: fullName, Role: role, CreatedAt: now, UpdatedAt: now}
	var d *profile.TutorDetails
	if role == account.RoleTutor {
		d = &profile.TutorDetails{ProfileID: id}
	}
	if err := e.profiles.Enroll(context.Background(), a, p, d); err != nil {
		e.t.Fatalf("Enroll: %v", err)
	}
	return id
}

// cookieFor starts a session for id and returns its cookie.
func (e *testEnv) cookieFor(id string) *http.Cookie {
	e.t.Helper()
	a, err := e.accounts.GetByID(context.Background(), id)
	if err != nil {
		e.t.Fatalf("GetByID: %v", err)
	}
	s, err := e.sessions.Start(context.Background(), a.ID, a.Email, a.Role)
	if err != nil {
		e.t.Fatalf("Start: %v", err)
	}
	return &http.Cookie{Name: middleware.SessionCookieName, Value: s.Token}
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.serve(req)
}

// postJSON sends body to an action endpoint and decodes the result.
func (e *testEnv) postJSON(path, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, orchestrators.ActionResult) {
	e.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := e.serve(req)
	var res orchestrators.ActionResult
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			e.t.Fatalf("decode %s: %v (%s)", path, err, rec.Body.String())
		}
	}
	return rec, res
}

var csrfFieldRE = regexp.MustCompile(`name="gorilla\.csrf\.Token" value="([^"]+)"`)

// form GETs page, then POSTs values to action with the page's CSRF token
// and cookie. Extra cookies ride along on both requests.
func (e *testEnv) form(page, action string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	pageRec := e.get(page, cookies...)
	m := csrfFieldRE.FindStringSubmatch(pageRec.Body.String())
	if m == nil {
		e.t.Fatalf("no csrf field on %s (status %d)", page, pageRec.Code)
	}
	values.Set("gorilla.csrf.Token", html.UnescapeString(m[1]))

	req := httptest.NewRequest(http.MethodPost, action, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range pageRec.Result().Cookies() {
		if c.Name != middleware.SessionCookieName {
			req.AddCookie(c)
		}
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.serve(req)
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}
