package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tutorcenter/internal/adapters/email"
	accountStore "tutorcenter/internal/adapters/storage/account"
	"tutorcenter/internal/domain/account"
	"tutorcenter/internal/domain/profile"
)

// AccountLookup finds accounts by email and counts them.
type AccountLookup interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Count(ctx context.Context) (int, error)
}

// Enroller writes a new account with its profile (and tutor details) atomically.
type Enroller interface {
	Enroll(ctx context.Context, a account.Account, p profile.Profile, d *profile.TutorDetails) error
}

// CreateAccountInput carries input for registration and admin account creation.
type CreateAccountInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
}

// CreateAccountDeps holds dependencies for account creation.
type CreateAccountDeps struct {
	Authorizer   Authorizer
	AccountStore AccountLookup
	Enroller     Enroller
	Mailer       email.Sender
	Branding     email.Branding
	GenerateID   func() string
	Now          func() time.Time
}

var (
	ErrEmailAlreadyExists = errors.New("an account with this email already exists")
	ErrRoleNotSelectable  = errors.New("you can register as a customer or a tutor")
)

// RegisterResult carries the identity of a newly registered account.
type RegisterResult struct {
	AccountID string
	Email     string
	Role      string
}

// ExecuteRegister is public self-registration. An empty role registers a
// customer; admin and staff cannot be self-assigned. A tutor also gets an
// empty tutor details row. The welcome e-mail is best effort.
// POST: Account and profile exist with the same id and role
func ExecuteRegister(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (RegisterResult, error) {
	if input.Role == "" {
		input.Role = account.RoleCustomer
	}
	if !account.IsSelfAssignable(input.Role) {
		return RegisterResult{}, invalid(ErrRoleNotSelectable)
	}
	res, err := createAccount(ctx, input, deps)
	if err != nil {
		return RegisterResult{}, err
	}
	sendWelcome(ctx, deps, res, input.FullName)
	return res, nil
}

// ExecuteCreateAccount lets an admin create an account of any role.
// PRE: actor is an admin
func ExecuteCreateAccount(ctx context.Context, actor Actor, input CreateAccountInput, deps CreateAccountDeps) ActionResult {
	if err := deps.Authorizer.Authorize(ctx, actor, account.RoleAdmin); err != nil {
		return Failed("create_account", err)
	}
	res, err := createAccount(ctx, input, deps)
	if err != nil {
		return Failed("create_account", err)
	}
	slog.Info("auth_event", "event", "account_created_by_admin", "account_id", res.AccountID, "role", res.Role, "by", actor.AccountID)
	sendWelcome(ctx, deps, res, input.FullName)
	out := Succeeded()
	out.ID = res.AccountID
	return out
}

// ExecuteSeedAdmin creates the configured admin when no accounts exist.
// PRE: Database is migrated
// POST: At least one account exists
func ExecuteSeedAdmin(ctx context.Context, deps CreateAccountDeps, emailAddr, password string) error {
	count, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return unavailable("count accounts", err)
	}
	if count > 0 {
		return nil
	}
	res, err := createAccount(ctx, CreateAccountInput{
		Email:    emailAddr,
		Password: password,
		FullName: "Administrator",
		Role:     account.RoleAdmin,
	}, deps)
	if err != nil {
		return err
	}
	slog.Info("auth_event", "event", "admin_seeded", "account_id", res.AccountID, "email", res.Email)
	return nil
}

func createAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (RegisterResult, error) {
	addr := strings.ToLower(strings.TrimSpace(input.Email))
	now := deps.Now()
	acct := account.Account{
		ID:        deps.GenerateID(),
		Email:     addr,
		Role:      input.Role,
		Status:    account.StatusActive,
		CreatedAt: now,
	}
	if err := acct.Validate(); err != nil {
		return RegisterResult{}, invalid(err)
	}
	if err := acct.SetPassword(input.Password); err != nil {
		if errors.Is(err, account.ErrEmptyPassword) || errors.Is(err, account.ErrPasswordTooShort) {
			return RegisterResult{}, invalid(err)
		}
		return RegisterResult{}, unavailable("hash password", err)
	}

	p := profile.Profile{
		ID:        acct.ID,
		Email:     addr,
		FullName:  strings.TrimSpace(input.FullName),
		Phone:     strings.TrimSpace(input.Phone),
		Role:      acct.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return RegisterResult{}, invalid(err)
	}
	var details *profile.TutorDetails
	if acct.Role == account.RoleTutor {
		details = &profile.TutorDetails{ProfileID: acct.ID}
	}

	_, err := deps.AccountStore.GetByEmail(ctx, addr)
	switch {
	case err == nil:
		return RegisterResult{}, invalid(ErrEmailAlreadyExists)
	case !errors.Is(err, accountStore.ErrNotFound):
		return RegisterResult{}, unavailable("lookup email", err)
	}

	err = deps.Enroller.Enroll(ctx, acct, p, details)
	if errors.Is(err, accountStore.ErrEmailTaken) {
		slog.Info("auth_event", "event", "register_conflict", "email", addr)
		return RegisterResult{}, invalid(ErrEmailAlreadyExists)
	}
	if err != nil {
		return RegisterResult{}, unavailable("enroll account", err)
	}
	slog.Info("auth_event", "event", "account_created", "account_id", acct.ID, "role", acct.Role)
	return RegisterResult{AccountID: acct.ID, Email: addr, Role: acct.Role}, nil
}

func sendWelcome(ctx context.Context, deps CreateAccountDeps, res RegisterResult, name string) {
	if deps.Mailer == nil {
		return
	}
	msg, err := email.WelcomeMessage(deps.Branding, res.Email, name, res.Role)
	if err == nil {
		_, err = deps.Mailer.Send(ctx, msg)
	}
	if err != nil {
		slog.Warn("welcome_email_failed", "account_id", res.AccountID, "error", err)
	}
}
