package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tutorcenter/internal/adapters/email"
	"tutorcenter/internal/adapters/resettoken"
	accountStore "tutorcenter/internal/adapters/storage/account"
	"tutorcenter/internal/domain/account"
)

// ErrInvalidResetLink is shown for any unusable reset token.
var ErrInvalidResetLink = errors.New("this reset link is invalid or has expired")

// ResetTokens issues and verifies password reset tokens.
type ResetTokens interface {
	Issue(accountID, passwordHash string) (string, error)
	Verify(token string) (resettoken.Claims, error)
}

// AccountStoreForReset defines the store interface needed by the reset flow.
type AccountStoreForReset interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// PasswordResetDeps holds dependencies for the reset flow.
type PasswordResetDeps struct {
	AccountStore AccountStoreForReset
	Tokens       ResetTokens
	Sessions     SessionRevoker
	Mailer       email.Sender
	Branding     email.Branding
	Validity     time.Duration
}

// ExecuteRequestPasswordReset e-mails a reset link if the address belongs to
// an account. The outcome is never revealed to the caller, so any failure
// past input validation is only logged.
// POST: Returns nil for every well-formed address
func ExecuteRequestPasswordReset(ctx context.Context, emailAddr string, deps PasswordResetDeps) error {
	addr := strings.ToLower(strings.TrimSpace(emailAddr))
	if addr == "" {
		return invalid(account.ErrEmptyEmail)
	}

	acct, err := deps.AccountStore.GetByEmail(ctx, addr)
	if errors.Is(err, accountStore.ErrNotFound) {
		slog.Info("auth_event", "event", "reset_requested", "email", addr, "outcome", "unknown_email")
		return nil
	}
	if err != nil {
		slog.Error("auth_event", "event", "reset_requested", "email", addr, "error", err)
		return nil
	}

	token, err := deps.Tokens.Issue(acct.ID, acct.PasswordHash)
	if err != nil {
		slog.Error("auth_event", "event", "reset_requested", "account_id", acct.ID, "error", err)
		return nil
	}
	msg, err := email.PasswordResetMessage(deps.Branding, acct.Email, token, deps.Validity)
	if err == nil {
		_, err = deps.Mailer.Send(ctx, msg)
	}
	if err != nil {
		slog.Error("auth_event", "event", "reset_email_failed", "account_id", acct.ID, "error", err)
		return nil
	}
	slog.Info("auth_event", "event", "reset_requested", "account_id", acct.ID, "outcome", "sent")
	return nil
}

// ResetPasswordInput carries input for completing a reset.
type ResetPasswordInput struct {
	Token       string
	NewPassword string
}

// ExecuteResetPassword sets a new password from a valid reset token. The
// token dies with the old password hash, and every session is ended.
// POST: Password replaced, lock-out cleared
func ExecuteResetPassword(ctx context.Context, input ResetPasswordInput, deps PasswordResetDeps) error {
	claims, err := deps.Tokens.Verify(input.Token)
	if err != nil {
		slog.Info("auth_event", "event", "reset_rejected", "reason", err.Error())
		return invalid(ErrInvalidResetLink)
	}
	acct, err := deps.AccountStore.GetByID(ctx, claims.Subject)
	if errors.Is(err, accountStore.ErrNotFound) {
		return invalid(ErrInvalidResetLink)
	}
	if err != nil {
		return unavailable("load account", err)
	}
	if !claims.Matches(acct.PasswordHash) {
		slog.Info("auth_event", "event", "reset_rejected", "account_id", acct.ID, "reason", "stale_token")
		return invalid(ErrInvalidResetLink)
	}

	if err := acct.SetPassword(input.NewPassword); err != nil {
		if errors.Is(err, account.ErrEmptyPassword) || errors.Is(err, account.ErrPasswordTooShort) {
			return invalid(err)
		}
		return unavailable("hash password", err)
	}
	acct.ResetFailedLogins()
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return unavailable("save account", err)
	}
	if deps.Sessions != nil {
		if err := deps.Sessions.DeleteByAccount(ctx, acct.ID); err != nil {
			slog.Warn("session_revoke_failed", "account_id", acct.ID, "error", err)
		}
	}
	slog.Info("auth_event", "event", "password_reset", "account_id", acct.ID)
	return nil
}
