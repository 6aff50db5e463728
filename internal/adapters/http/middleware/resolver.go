package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"tutorcenter/internal/adapters/session"
	domainAccount "tutorcenter/internal/domain/account"
)

// ResolutionKind classifies the outcome of session resolution.
type ResolutionKind int

const (
	// NoSession means the request carried no session cookie.
	NoSession ResolutionKind = iota
	// ValidSession means the cookie maps to a live session with a known role.
	ValidSession
	// InvalidSession covers malformed, unknown and expired tokens, and
	// lookups the session backend could not answer.
	InvalidSession
)

func (k ResolutionKind) String() string {
	switch k {
	case NoSession:
		return "none"
	case ValidSession:
		return "valid"
	case InvalidSession:
		return "invalid"
	}
	return "unknown"
}

// Resolution is the result of resolving a request's session.
// Session is populated only for ValidSession.
type Resolution struct {
	Kind    ResolutionKind
	Session session.Session
}

// Valid builds a ValidSession resolution.
func Valid(s session.Session) Resolution {
	return Resolution{Kind: ValidSession, Session: s}
}

// Role returns the role claim, or "" when the session is not valid.
func (r Resolution) Role() string {
	if r.Kind != ValidSession {
		return ""
	}
	return r.Session.Role
}

// UserID returns the account id, or "" when the session is not valid.
func (r Resolution) UserID() string {
	if r.Kind != ValidSession {
		return ""
	}
	return r.Session.AccountID
}

// Resolver maps an inbound request to a Resolution.
type Resolver struct {
	sessions *session.Manager
}

// NewResolver creates a Resolver backed by the given session manager.
func NewResolver(sessions *session.Manager) *Resolver {
	return &Resolver{sessions: sessions}
}

// Resolve reads the session cookie and looks it up.
// A valid session has its expiry slid forward; the returned Session carries
// the new expiry so the caller can re-issue the cookie.
// INVARIANT: never returns an error; backend failures resolve to InvalidSession
func (rv *Resolver) Resolve(ctx context.Context, r *http.Request) Resolution {
	token := SessionToken(r)
	if token == "" {
		return Resolution{Kind: NoSession}
	}
	if !session.WellFormed(token) {
		return Resolution{Kind: InvalidSession}
	}

	s, err := rv.sessions.Store.Get(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		return Resolution{Kind: InvalidSession}
	}
	if err != nil {
		slog.Error("session_lookup_failed", "path", r.URL.Path, "error", err)
		return Resolution{Kind: InvalidSession}
	}
	if !domainAccount.IsValidRole(s.Role) {
		slog.Warn("session_unknown_role", "account_id", s.AccountID, "role", s.Role)
		return Resolution{Kind: InvalidSession}
	}

	refreshed, err := rv.sessions.Refresh(ctx, s)
	if err != nil {
		slog.Warn("session_refresh_failed", "account_id", s.AccountID, "error", err)
		return Valid(s)
	}
	return Valid(refreshed)
}
