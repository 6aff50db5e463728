package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Error classes shared by every action. Domain and store errors are wrapped
// into one of these so callers can branch with errors.Is.
var (
	ErrPermissionDenied   = errors.New("permission denied")
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("record not found")
	ErrBackendUnavailable = errors.New("service unavailable")
)

// Actor is the caller of an action, re-derived from the request session.
// The zero Actor is anonymous.
type Actor struct {
	AccountID string
	Role      string
}

// IsAnonymous reports whether no session backs the actor.
func (a Actor) IsAnonymous() bool {
	return a.AccountID == "" || a.Role == ""
}

// Authorizer is the single permission check every action entry point calls.
type Authorizer interface {
	Authorize(ctx context.Context, actor Actor, allowed ...string) error
}

// RoleAuthorizer allows an actor whose role is one of the allowed roles.
// Role equality is the whole policy.
type RoleAuthorizer struct{}

// Authorize returns ErrPermissionDenied unless actor holds one of allowed.
// INVARIANT: an anonymous actor is always denied
func (RoleAuthorizer) Authorize(ctx context.Context, actor Actor, allowed ...string) error {
	if !actor.IsAnonymous() {
		for _, r := range allowed {
			if actor.Role == r {
				return nil
			}
		}
	}
	slog.WarnContext(ctx, "auth_denied", "account_id", actor.AccountID, "role", actor.Role, "allowed", allowed)
	return ErrPermissionDenied
}

// ActionResult is the discriminated outcome every record action returns:
// {"success":true} or {"success":false,"error":"..."}.
type ActionResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	// ID names the record an action created, when it created one.
	ID string `json:"id,omitempty"`
	// Cause is the error class behind a failure, for status mapping.
	Cause error `json:"-"`
}

// Succeeded returns a success result.
func Succeeded() ActionResult {
	return ActionResult{Success: true}
}

// Failed converts err into a failure result. Backend details are logged and
// replaced by a generic message; everything else keeps its own message.
func Failed(action string, err error) ActionResult {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return ActionResult{Error: ErrPermissionDenied.Error(), Cause: ErrPermissionDenied}
	case errors.Is(err, ErrValidation):
		return ActionResult{Error: err.Error(), Cause: ErrValidation}
	case errors.Is(err, ErrNotFound):
		return ActionResult{Error: err.Error(), Cause: ErrNotFound}
	}
	slog.Error("action_failed", "action", action, "error", err)
	return ActionResult{Error: ErrBackendUnavailable.Error(), Cause: ErrBackendUnavailable}
}

// validationError reads as the rule it violates and matches both that rule
// and ErrValidation under errors.Is.
type validationError struct{ rule error }

func (e validationError) Error() string   { return e.rule.Error() }
func (e validationError) Unwrap() []error { return []error{ErrValidation, e.rule} }

// invalid wraps a domain rule violation as ErrValidation.
func invalid(err error) error {
	return validationError{rule: err}
}

// unavailable wraps a store failure as ErrBackendUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, op, err)
}
