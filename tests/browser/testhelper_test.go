package browser_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"tutorcenter/internal/adapters/email"
	web "tutorcenter/internal/adapters/http"
	"tutorcenter/internal/adapters/resettoken"
	"tutorcenter/internal/adapters/session"
	"tutorcenter/internal/adapters/storage"
	accountStore "tutorcenter/internal/adapters/storage/account"
	profileStore "tutorcenter/internal/adapters/storage/profile"
	scheduleStore "tutorcenter/internal/adapters/storage/schedule"
	"tutorcenter/internal/application/orchestrators"
)

const demoDomain = "demo.test"

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL   string
	DB        *sql.DB
	Server    *http.Server
	PW        *playwright.Playwright
	Browser   playwright.Browser
	Accounts  *accountStore.SQLiteStore
	Profiles  *profileStore.SQLiteStore
	Schedules *scheduleStore.SQLiteStore
	Mail      *email.LogSender
}

// newTestApp wires the app against a temp SQLite file, seeds the demo
// accounts and starts an HTTP server plus a headless Chromium.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	accounts := accountStore.NewSQLiteStore(db)
	profiles := profileStore.NewSQLiteStore(db)
	schedules := scheduleStore.NewSQLiteStore(db)
	mail := email.NewLogSender()

	seedDeps := orchestrators.CreateAccountDeps{
		AccountStore: accounts,
		Enroller:     profiles,
		GenerateID:   uuid.NewString,
		Now:          time.Now,
	}
	if err := orchestrators.ExecuteSeedAdmin(ctx, seedDeps, "admin@"+demoDomain, orchestrators.DemoPassword); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}
	if _, err := orchestrators.ExecuteSeedDemoAccounts(ctx, seedDeps, demoDomain); err != nil {
		t.Fatalf("failed to seed demo accounts: %v", err)
	}

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	baseURL := "http://" + addr

	app, err := web.NewServer(web.Deps{
		Accounts:  accounts,
		Profiles:  profiles,
		Schedules: schedules,
		Sessions:  session.NewManager(session.NewMemoryStore(), time.Hour),
		Mailer:    mail,
		Tokens:    resettoken.NewIssuer([]byte("browser-test-secret"), time.Hour),
	}, web.Options{
		CSRFKey:        []byte("browser-test-csrf-key-32-bytes!!"),
		TrustedOrigins: []string{addr, fmt.Sprintf("localhost:%d", port)},
		Branding:       email.Branding{Center: "Test Center", BaseURL: baseURL},
		RateLimit:      1000,
	})
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}
	srv := &http.Server{Addr: addr, Handler: app.Handler()}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	for range 50 {
		resp, err := http.Get(baseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	ta := &testApp{
		BaseURL:   baseURL,
		DB:        db,
		Server:    srv,
		PW:        pw,
		Browser:   browser,
		Accounts:  accounts,
		Profiles:  profiles,
		Schedules: schedules,
		Mail:      mail,
	}
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})
	return ta
}

// newPage opens a tab in a fresh browser context so cookies do not leak
// between pages.
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	bctx, err := a.Browser.NewContext()
	if err != nil {
		t.Fatalf("failed to create context: %v", err)
	}
	t.Cleanup(func() { bctx.Close() })
	page, err := bctx.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	return page
}

// login signs in through the form and waits for the landing URL.
func (a *testApp) login(t *testing.T, page playwright.Page, addr, landing string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	a.submitLogin(t, page, addr)
	if err := page.WaitForURL(a.BaseURL+landing, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not land on %s: %v", landing, err)
	}
}

func (a *testApp) submitLogin(t *testing.T, page playwright.Page, addr string) {
	t.Helper()
	if err := page.Locator("#login-form input[name=email]").Fill(addr); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if err := page.Locator("#login-form input[name=password]").Fill(orchestrators.DemoPassword); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("#login-form button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click sign in: %v", err)
	}
}

func text(t *testing.T, page playwright.Page, selector string) string {
	t.Helper()
	s, err := page.Locator(selector).First().TextContent()
	if err != nil {
		t.Fatalf("no text at %s: %v", selector, err)
	}
	return s
}
