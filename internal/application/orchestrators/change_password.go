package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"tutorcenter/internal/domain/account"
)

// ChangePasswordInput carries input for the change-password action.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AccountStoreForChangePassword defines the store interface needed by ChangePassword.
type AccountStoreForChangePassword interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	Authorizer   Authorizer
	AccountStore AccountStoreForChangePassword
}

var (
	ErrCurrentPasswordWrong = errors.New("current password is incorrect")
	ErrNewPasswordSame      = errors.New("new password must be different from current password")
)

// ExecuteChangePassword replaces the actor's own password.
// PRE: actor is signed in (any role)
// POST: Password is updated
func ExecuteChangePassword(ctx context.Context, actor Actor, input ChangePasswordInput, deps ChangePasswordDeps) ActionResult {
	if err := changePassword(ctx, actor, input, deps); err != nil {
		return Failed("change_password", err)
	}
	return Succeeded()
}

func changePassword(ctx context.Context, actor Actor, input ChangePasswordInput, deps ChangePasswordDeps) error {
	if err := deps.Authorizer.Authorize(ctx, actor, account.ValidRoles...); err != nil {
		return err
	}
	acct, err := deps.AccountStore.GetByID(ctx, actor.AccountID)
	if err != nil {
		return unavailable("load account", err)
	}
	if err := acct.CheckPassword(input.CurrentPassword); err != nil {
		return invalid(ErrCurrentPasswordWrong)
	}
	if input.CurrentPassword == input.NewPassword {
		return invalid(ErrNewPasswordSame)
	}
	if err := acct.SetPassword(input.NewPassword); err != nil {
		if errors.Is(err, account.ErrEmptyPassword) || errors.Is(err, account.ErrPasswordTooShort) {
			return invalid(err)
		}
		return unavailable("hash password", err)
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return unavailable("save account", err)
	}
	slog.Info("auth_event", "event", "password_changed", "account_id", acct.ID)
	return nil
}
