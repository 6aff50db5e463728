package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	accountStore "tutorcenter/internal/adapters/storage/account"
	"tutorcenter/internal/domain/account"
)

// DemoPassword is shared by every demo account.
const DemoPassword = "demo-pass-123"

// DemoAccount describes one seeded demo login.
type DemoAccount struct {
	Email    string
	FullName string
	Role     string
}

// DemoAccounts returns one demo login per non-admin role under domain.
func DemoAccounts(domain string) []DemoAccount {
	return []DemoAccount{
		{Email: "customer@" + domain, FullName: "Demo Customer", Role: account.RoleCustomer},
		{Email: "tutor@" + domain, FullName: "Demo Tutor", Role: account.RoleTutor},
		{Email: "staff@" + domain, FullName: "Demo Staff", Role: account.RoleStaff},
	}
}

// ExecuteSeedDemoAccounts creates the demo accounts that do not exist yet.
// Only wired outside production.
// PRE: Database is migrated
// POST: Every account in DemoAccounts(domain) exists; existing ones are untouched
func ExecuteSeedDemoAccounts(ctx context.Context, deps CreateAccountDeps, domain string) (int, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return 0, invalid(account.ErrEmptyEmail)
	}
	created := 0
	for _, demo := range DemoAccounts(domain) {
		_, err := deps.AccountStore.GetByEmail(ctx, demo.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, accountStore.ErrNotFound) {
			return created, unavailable("lookup demo account", err)
		}
		if _, err := createAccount(ctx, CreateAccountInput{
			Email:    demo.Email,
			Password: DemoPassword,
			FullName: demo.FullName,
			Role:     demo.Role,
		}, deps); err != nil {
			return created, fmt.Errorf("seed %s: %w", demo.Role, err)
		}
		created++
	}
	if created > 0 {
		slog.Info("auth_event", "event", "demo_accounts_seeded", "count", created, "domain", domain)
	}
	return created, nil
}
