package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"tutorcenter/internal/adapters/http/middleware"
	"tutorcenter/internal/application/orchestrators"
	"tutorcenter/internal/domain/account"
)

type loginView struct {
	Email       string
	RedirectURL string
}

// handleRoot sends visitors to their dashboard.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, middleware.DashboardPath, http.StatusSeeOther)
}

// handleLoginPage handles GET /login.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	target := safeRedirect(r.URL.Query().Get(middleware.RedirectParam), "")
	if _, ok := s.currentSession(r); ok {
		http.Redirect(w, r, safeRedirect(target, middleware.DashboardPath), http.StatusSeeOther)
		return
	}
	flash := ""
	if r.URL.Query().Get("reset") == "1" {
		flash = "Your password has been changed. Sign in with the new one."
	}
	s.renderPage(w, r, http.StatusOK, "login.html", pageData{
		Title: "Sign in",
		Flash: flash,
		Data:  loginView{RedirectURL: target},
	})
}

// handleLogin handles POST /login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	view := loginView{
		Email:       strings.TrimSpace(r.PostFormValue("email")),
		RedirectURL: safeRedirect(r.PostFormValue(middleware.RedirectParam), ""),
	}

	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    view.Email,
		Password: r.PostFormValue("password"),
	}, orchestrators.LoginDeps{AccountStore: s.deps.Accounts, Now: s.now})
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, orchestrators.ErrAccountLocked) {
			status = http.StatusTooManyRequests
		}
		s.renderPage(w, r, status, "login.html", pageData{Title: "Sign in", Error: err.Error(), Data: view})
		return
	}

	if !s.startSession(w, r, res.AccountID, res.Email, res.Role) {
		return
	}
	http.Redirect(w, r, safeRedirect(view.RedirectURL, middleware.DashboardPath), http.StatusSeeOther)
}

// startSession issues a fresh session and cookie. Any session the browser
// already carried is ended first.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, accountID, email, role string) bool {
	if old := middleware.SessionToken(r); old != "" {
		if err := s.deps.Sessions.End(r.Context(), old); err != nil {
			slog.Warn("session_end_failed", "error", err)
		}
	}
	sess, err := s.deps.Sessions.Start(r.Context(), accountID, email, role)
	if err != nil {
		slog.Error("session_start_failed", "account_id", accountID, "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return false
	}
	middleware.SetSessionCookie(w, sess, s.cookie)
	slog.Info("auth_event", "event", "session_started", "account_id", accountID, "role", role)
	return true
}

// handleLogout handles POST /logout.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		if err := s.deps.Sessions.End(r.Context(), token); err != nil {
			slog.Warn("session_end_failed", "error", err)
		}
	}
	if sess, ok := s.currentSession(r); ok {
		slog.Info("auth_event", "event", "logout", "account_id", sess.AccountID)
	}
	middleware.ClearSessionCookie(w, s.cookie)
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

type registerView struct {
	Email    string
	FullName string
	Phone    string
	Role     string
}

// handleRegisterPage handles GET /register.
func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, "register.html", pageData{
		Title: "Create an account",
		Data:  registerView{Role: account.RoleCustomer},
	})
}

// handleRegister handles POST /register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.CreateAccountInput{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		FullName: r.PostFormValue("full_name"),
		Phone:    r.PostFormValue("phone"),
		Role:     r.PostFormValue("role"),
	}
	view := registerView{Email: input.Email, FullName: input.FullName, Phone: input.Phone, Role: input.Role}
	if input.Password != r.PostFormValue("confirm_password") {
		s.renderPage(w, r, http.StatusBadRequest, "register.html", pageData{
			Title: "Create an account", Error: "passwords do not match", Data: view,
		})
		return
	}

	res, err := orchestrators.ExecuteRegister(r.Context(), input, s.createAccountDeps())
	if err != nil {
		status, msg := http.StatusBadRequest, err.Error()
		if !errors.Is(err, orchestrators.ErrValidation) {
			slog.Error("register_failed", "error", err)
			status, msg = http.StatusServiceUnavailable, orchestrators.ErrBackendUnavailable.Error()
		}
		s.renderPage(w, r, status, "register.html", pageData{Title: "Create an account", Error: msg, Data: view})
		return
	}
	if !s.startSession(w, r, res.AccountID, res.Email, res.Role) {
		return
	}
	http.Redirect(w, r, middleware.DashboardPath, http.StatusSeeOther)
}

// handleForgotPasswordPage handles GET /forgot-password.
func (s *Server) handleForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, "forgot_password.html", pageData{Title: "Forgot password"})
}

// handleForgotPassword handles POST /forgot-password. The response is the
// same whether or not the address has an account.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	if err := orchestrators.ExecuteRequestPasswordReset(r.Context(), r.PostFormValue("email"), s.passwordResetDeps()); err != nil {
		s.renderPage(w, r, http.StatusBadRequest, "forgot_password.html", pageData{Title: "Forgot password", Error: err.Error()})
		return
	}
	s.renderPage(w, r, http.StatusOK, "forgot_password.html", pageData{
		Title: "Forgot password",
		Flash: "If that address has an account, a reset link is on its way.",
	})
}

// handleResetPasswordPage handles GET /reset-password?token=...
func (s *Server) handleResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		s.renderPage(w, r, http.StatusBadRequest, "reset_password.html", pageData{
			Title: "Reset password", Error: orchestrators.ErrInvalidResetLink.Error(),
		})
		return
	}
	s.renderPage(w, r, http.StatusOK, "reset_password.html", pageData{Title: "Reset password", Data: token})
}

// handleResetPassword handles POST /reset-password.
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	token := r.PostFormValue("token")
	if r.PostFormValue("password") != r.PostFormValue("confirm_password") {
		s.renderPage(w, r, http.StatusBadRequest, "reset_password.html", pageData{
			Title: "Reset password", Error: "passwords do not match", Data: token,
		})
		return
	}
	err := orchestrators.ExecuteResetPassword(r.Context(), orchestrators.ResetPasswordInput{
		Token:       token,
		NewPassword: r.PostFormValue("password"),
	}, s.passwordResetDeps())
	if err != nil {
		status, msg := http.StatusBadRequest, err.Error()
		if !errors.Is(err, orchestrators.ErrValidation) {
			slog.Error("reset_failed", "error", err)
			status, msg = http.StatusServiceUnavailable, orchestrators.ErrBackendUnavailable.Error()
		}
		s.renderPage(w, r, status, "reset_password.html", pageData{Title: "Reset password", Error: msg, Data: token})
		return
	}
	middleware.ClearSessionCookie(w, s.cookie)
	http.Redirect(w, r, middleware.LoginPath+"?"+url.Values{"reset": {"1"}}.Encode(), http.StatusSeeOther)
}

// handleUnauthorized handles GET /unauthorized.
func (s *Server) handleUnauthorized(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusForbidden, "unauthorized.html", pageData{Title: "Not allowed"})
}

// handleChangePassword handles POST /api/password.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.ChangePasswordInput
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w, err)
		return
	}
	writeResult(w, orchestrators.ExecuteChangePassword(r.Context(), s.actorFrom(r), input, orchestrators.ChangePasswordDeps{
		Authorizer:   s.authz,
		AccountStore: s.deps.Accounts,
	}))
}
