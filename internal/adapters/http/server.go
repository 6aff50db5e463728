// Package web is the HTTP surface: pages, JSON actions and the middleware
// chain that guards them.
package web

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"

	"tutorcenter/internal/adapters/email"
	"tutorcenter/internal/adapters/http/middleware"
	"tutorcenter/internal/adapters/http/perf"
	"tutorcenter/internal/adapters/resettoken"
	"tutorcenter/internal/adapters/session"
	accountStore "tutorcenter/internal/adapters/storage/account"
	profileStore "tutorcenter/internal/adapters/storage/profile"
	scheduleStore "tutorcenter/internal/adapters/storage/schedule"
	"tutorcenter/internal/application/orchestrators"
)

// Pinger reports database liveness for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds the collaborators every handler draws from.
type Deps struct {
	Accounts  accountStore.Store
	Profiles  profileStore.Store
	Schedules scheduleStore.Store
	Sessions  *session.Manager
	Mailer    email.Sender
	Tokens    *resettoken.Issuer
	Collector *perf.Collector
	DB        Pinger
}

// Options holds request-independent settings.
type Options struct {
	CSRFKey        []byte
	SecureCookies  bool
	TrustedOrigins []string
	Branding       email.Branding
	ResetTTL       time.Duration
	SlowRequest    time.Duration
	RateLimit      int // auth POSTs per IP per minute
}

// Server owns handlers and their dependencies. It holds no mutable state
// beyond what its stores and rate limiter guard themselves.
type Server struct {
	deps     Deps
	opts     Options
	cookie   middleware.CookieConfig
	resolver *middleware.Resolver
	authz    orchestrators.Authorizer
	limiter  *middleware.RateLimiter
	pages    map[string]*template.Template
	newID    func() string
	now      func() time.Time
}

// rateLimitedPaths are the credential-accepting endpoints.
var rateLimitedPaths = []string{"/login", "/register", "/forgot-password", "/reset-password"}

// NewServer validates deps and parses the page templates.
// PRE: Accounts, Profiles, Schedules, Sessions, Tokens are non-nil
// POST: Returned server is ready to serve Handler()
func NewServer(deps Deps, opts Options) (*Server, error) {
	if deps.Accounts == nil || deps.Profiles == nil || deps.Schedules == nil || deps.Sessions == nil || deps.Tokens == nil {
		return nil, fmt.Errorf("web: missing required dependency")
	}
	if len(opts.CSRFKey) != 32 {
		return nil, fmt.Errorf("web: csrf key must be 32 bytes, got %d", len(opts.CSRFKey))
	}
	if deps.Mailer == nil {
		deps.Mailer = email.NewLogSender()
	}
	if deps.Collector == nil {
		deps.Collector = perf.NewCollector(perf.DefaultRingSize)
	}
	if opts.RateLimit < 1 {
		opts.RateLimit = 10
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = resettoken.DefaultTTL
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Server{
		deps:     deps,
		opts:     opts,
		cookie:   middleware.CookieConfig{Secure: opts.SecureCookies},
		resolver: middleware.NewResolver(deps.Sessions),
		authz:    orchestrators.RoleAuthorizer{},
		limiter:  middleware.NewRateLimiter(opts.RateLimit, time.Minute),
		pages:    pages,
		newID:    uuid.NewString,
		now:      time.Now,
	}, nil
}

// Limiter exposes the auth rate limiter so the caller can run its cleanup.
func (s *Server) Limiter() *middleware.RateLimiter {
	return s.limiter
}

// Handler returns the routed mux wrapped in the middleware chain:
// SecurityHeaders -> Timing -> RateLimit -> Guard -> CSRF -> mux.
func (s *Server) Handler() http.Handler {
	return middleware.Chain(s.routes(),
		middleware.SecurityHeaders,
		middleware.Timing(s.deps.Collector, s.opts.SlowRequest),
		middleware.RateLimit(s.limiter, rateLimitedPaths...),
		middleware.Guard(s.resolver, s.cookie),
		middleware.CSRF(s.opts.CSRFKey, s.opts.SecureCookies, s.opts.TrustedOrigins),
	)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.FileServerFS(staticFS))
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /register", s.handleRegisterPage)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /forgot-password", s.handleForgotPasswordPage)
	mux.HandleFunc("POST /forgot-password", s.handleForgotPassword)
	mux.HandleFunc("GET /reset-password", s.handleResetPasswordPage)
	mux.HandleFunc("POST /reset-password", s.handleResetPassword)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /unauthorized", s.handleUnauthorized)

	mux.HandleFunc("GET /user/dashboard", s.handleUserDashboard)
	mux.HandleFunc("POST /api/password", s.handleChangePassword)

	mux.HandleFunc("GET /admin", s.handleAdminDashboard)
	mux.HandleFunc("GET /admin/customers", s.handleProfileList)
	mux.HandleFunc("GET /admin/tutors", s.handleProfileList)
	mux.HandleFunc("GET /admin/tutors/{id}", s.handleTutorProfile)
	mux.HandleFunc("GET /admin/staff", s.handleProfileList)
	mux.HandleFunc("GET /admin/schedules", s.handleSchedulesPage)
	mux.HandleFunc("GET /admin/perf", s.handlePerf)

	mux.HandleFunc("POST /admin/api/customers/update", s.handleUpdateCustomer)
	mux.HandleFunc("POST /admin/api/tutors/update", s.handleUpdateTutor)
	mux.HandleFunc("POST /admin/api/staff/update", s.handleUpdateStaff)
	mux.HandleFunc("POST /admin/api/roles", s.handleChangeRole)
	mux.HandleFunc("POST /admin/api/accounts", s.handleCreateAccount)
	mux.HandleFunc("POST /admin/api/schedules", s.handleAssignSchedule)
	mux.HandleFunc("POST /admin/api/schedules/cancel", s.handleCancelSchedule)
	return mux
}

func (s *Server) createAccountDeps() orchestrators.CreateAccountDeps {
	return orchestrators.CreateAccountDeps{
		Authorizer:   s.authz,
		AccountStore: s.deps.Accounts,
		Enroller:     s.deps.Profiles,
		Mailer:       s.deps.Mailer,
		Branding:     s.opts.Branding,
		GenerateID:   s.newID,
		Now:          s.now,
	}
}

func (s *Server) passwordResetDeps() orchestrators.PasswordResetDeps {
	return orchestrators.PasswordResetDeps{
		AccountStore: s.deps.Accounts,
		Tokens:       s.deps.Tokens,
		Sessions:     s.deps.Sessions.Store,
		Mailer:       s.deps.Mailer,
		Branding:     s.opts.Branding,
		Validity:     s.opts.ResetTTL,
	}
}

func (s *Server) updateProfileDeps() orchestrators.UpdateProfileDeps {
	return orchestrators.UpdateProfileDeps{
		Authorizer:   s.authz,
		ProfileStore: s.deps.Profiles,
		Now:          s.now,
	}
}

func (s *Server) scheduleDeps() orchestrators.ScheduleDeps {
	return orchestrators.ScheduleDeps{
		Authorizer:    s.authz,
		ProfileStore:  s.deps.Profiles,
		ScheduleStore: s.deps.Schedules,
		GenerateID:    s.newID,
		Now:           s.now,
	}
}
