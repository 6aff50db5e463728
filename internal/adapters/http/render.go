package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/csrf"

	"tutorcenter/internal/adapters/http/middleware"
	"tutorcenter/internal/adapters/markdown"
	"tutorcenter/internal/adapters/session"
	"tutorcenter/internal/application/orchestrators"
	"tutorcenter/internal/domain/account"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// maxBodyBytes bounds JSON action bodies.
const maxBodyBytes = 64 << 10

// baseFuncs are replaced per request in renderPage; they exist so the
// templates parse.
var baseFuncs = template.FuncMap{
	"csrfField":      func() template.HTML { return "" },
	"csrfToken":      func() string { return "" },
	"currentRole":    func() string { return "" },
	"currentEmail":   func() string { return "" },
	"isLoggedIn":     func() bool { return false },
	"isBackOffice":   func() bool { return false },
	"renderMarkdown": markdown.HTML,
	"cents": func(c int) string {
		return fmt.Sprintf("%d.%02d", c/100, c%100)
	},
	"join": strings.Join,
	"withPage": func(q url.Values, page int) string {
		out := url.Values{}
		for k, v := range q {
			out[k] = v
		}
		out.Set("page", fmt.Sprint(page))
		return "?" + out.Encode()
	},
}

// parsePages parses layout.html together with each page template.
func parsePages() (map[string]*template.Template, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		base := strings.TrimPrefix(name, "templates/")
		if base == "layout.html" {
			continue
		}
		tpl, err := template.New("layout.html").Funcs(baseFuncs).ParseFS(templateFS, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		pages[base] = tpl
	}
	return pages, nil
}

// pageData is what every page template receives.
type pageData struct {
	Title string
	Error string
	Flash string
	Data  any
}

// renderPage executes a page inside the layout with request-bound helpers.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	base, ok := s.pages[name]
	if !ok {
		internalError(w, fmt.Errorf("unknown template %s", name))
		return
	}
	tpl, err := base.Clone()
	if err != nil {
		internalError(w, err)
		return
	}
	sess, loggedIn := middleware.SessionFromContext(r.Context())
	tpl.Funcs(template.FuncMap{
		"csrfField":    func() template.HTML { return csrf.TemplateField(r) },
		"csrfToken":    func() string { return csrf.Token(r) },
		"currentRole":  func() string { return sess.Role },
		"currentEmail": func() string { return sess.Email },
		"isLoggedIn":   func() bool { return loggedIn },
		"isBackOffice": func() bool { return loggedIn && account.IsBackOffice(sess.Role) },
	})

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

// internalError logs err and answers with a generic 500.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes a JSON body, rejecting unknown fields and trailing data.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json_encode_failed", "error", err)
	}
}

// writeResult sends an action result with the status its cause maps to.
// The body always keeps the {"success":...} shape.
func writeResult(w http.ResponseWriter, res orchestrators.ActionResult) {
	writeJSON(w, resultStatus(res), res)
}

func resultStatus(res orchestrators.ActionResult) int {
	switch {
	case res.Success:
		return http.StatusOK
	case errors.Is(res.Cause, orchestrators.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(res.Cause, orchestrators.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(res.Cause, orchestrators.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

// badJSON answers a body that could not be decoded.
func badJSON(w http.ResponseWriter, err error) {
	slog.Info("bad_request", "error", err)
	writeJSON(w, http.StatusBadRequest, orchestrators.ActionResult{Error: "invalid request body"})
}

// actorFrom derives the acting identity for r. An anonymous Actor is
// returned when no valid session is attached.
func (s *Server) actorFrom(r *http.Request) orchestrators.Actor {
	sess, ok := s.currentSession(r)
	if !ok {
		return orchestrators.Actor{}
	}
	return orchestrators.Actor{AccountID: sess.AccountID, Role: sess.Role}
}

// currentSession returns the session the Guard attached to r, resolving
// the cookie itself when the request did not pass through the Guard.
func (s *Server) currentSession(r *http.Request) (session.Session, bool) {
	if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		return sess, true
	}
	res := s.resolver.Resolve(r.Context(), r)
	if res.Kind != middleware.ValidSession {
		return session.Session{}, false
	}
	return res.Session, true
}

// safeRedirect returns target when it is a local absolute path, else fallback.
// Protocol-relative and backslash forms are rejected.
func safeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	if u.Path == middleware.LoginPath {
		return fallback
	}
	return target
}
