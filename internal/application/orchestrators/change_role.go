package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	profileStore "tutorcenter/internal/adapters/storage/profile"
	"tutorcenter/internal/domain/account"
	"tutorcenter/internal/domain/profile"
)

// ErrOwnRole is returned when an admin tries to change their own role.
var ErrOwnRole = errors.New("you cannot change your own role")

// ChangeRoleInput carries input for the change-role action.
type ChangeRoleInput struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// ProfileStoreForChangeRole defines the store interface needed by ChangeRole.
type ProfileStoreForChangeRole interface {
	GetByID(ctx context.Context, id string) (profile.Profile, error)
	ChangeRole(ctx context.Context, id, role string, at time.Time) error
}

// SessionRevoker ends every session of one account.
type SessionRevoker interface {
	DeleteByAccount(ctx context.Context, accountID string) error
}

// ChangeRoleDeps holds dependencies for ChangeRole.
type ChangeRoleDeps struct {
	Authorizer   Authorizer
	ProfileStore ProfileStoreForChangeRole
	Sessions     SessionRevoker
	Now          func() time.Time
}

// ExecuteChangeRole moves a profile (and its account) to another role.
// Sessions of the target are ended so the new role applies on next sign-in.
// PRE: actor is an admin and not the target
// POST: account.role == profile.role == input.Role
func ExecuteChangeRole(ctx context.Context, actor Actor, input ChangeRoleInput, deps ChangeRoleDeps) ActionResult {
	if err := changeRole(ctx, actor, input, deps); err != nil {
		return Failed("change_role", err)
	}
	return Succeeded()
}

func changeRole(ctx context.Context, actor Actor, input ChangeRoleInput, deps ChangeRoleDeps) error {
	if err := deps.Authorizer.Authorize(ctx, actor, account.RoleAdmin); err != nil {
		return err
	}
	if !account.IsValidRole(input.Role) {
		return invalid(account.ErrInvalidRole)
	}
	if input.ID == actor.AccountID {
		return invalid(ErrOwnRole)
	}
	p, err := loadProfile(ctx, deps.ProfileStore, input.ID, "")
	if err != nil {
		return err
	}
	if p.Role == input.Role {
		return nil
	}

	err = deps.ProfileStore.ChangeRole(ctx, p.ID, input.Role, deps.Now())
	if errors.Is(err, profileStore.ErrNotFound) {
		return fmt.Errorf("%w: profile %s", ErrNotFound, p.ID)
	}
	if err != nil {
		return unavailable("change role", err)
	}
	if deps.Sessions != nil {
		if err := deps.Sessions.DeleteByAccount(ctx, p.ID); err != nil {
			slog.Warn("session_revoke_failed", "account_id", p.ID, "error", err)
		}
	}
	slog.Info("auth_event", "event", "role_changed", "account_id", p.ID, "from", p.Role, "to", input.Role, "by", actor.AccountID)
	return nil
}
