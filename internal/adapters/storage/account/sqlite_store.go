package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tutorcenter/internal/adapters/storage"
	domain "tutorcenter/internal/domain/account"
)

const accountColumns = "id, email, password_hash, role, status, created_at, failed_logins, locked_until"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new AccountStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE id = ?", id)
	return scanAccount(row.Scan)
}

// GetByEmail retrieves an Account by email, case-insensitively.
// PRE: email is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE email = ?", strings.ToLower(strings.TrimSpace(email)))
	return scanAccount(row.Scan)
}

// Save persists an Account to the database. An existing row only takes
// the credential and lockout columns; role and email change through their
// own operations, so a stale copy cannot roll them back.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update); email is stored lower-cased
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	return write(ctx, s.db, entity, `
		ON CONFLICT(id) DO UPDATE SET
			password_hash=excluded.password_hash,
			failed_logins=excluded.failed_logins,
			locked_until=excluded.locked_until`)
}

// Insert writes a new account through db, which may be a transaction.
// POST: Returns ErrEmailTaken (wrapped) when the email is already in use
func Insert(ctx context.Context, db storage.Execer, entity domain.Account) error {
	return write(ctx, db, entity, "")
}

func write(ctx context.Context, db storage.Execer, entity domain.Account, onConflict string) error {
	var lockedUntil any
	if !entity.LockedUntil.IsZero() {
		lockedUntil = storage.FormatTime(entity.LockedUntil)
	}
	status := entity.Status
	if status == "" {
		status = domain.StatusActive
	}

	_, err := db.ExecContext(ctx, `INSERT INTO account (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`+onConflict,
		entity.ID,
		strings.ToLower(strings.TrimSpace(entity.Email)),
		entity.PasswordHash,
		entity.Role,
		status,
		storage.FormatTime(entity.CreatedAt),
		entity.FailedLogins,
		lockedUntil,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: account.email") {
		return fmt.Errorf("save account %s: %w", entity.ID, ErrEmailTaken)
	}
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

// Count returns the total number of accounts.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&count)
	return count, err
}

// scanAccount extracts an Account from a row scanner function.
func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var entity domain.Account
	var createdAt string
	var lockedUntil sql.NullString
	err := scan(
		&entity.ID,
		&entity.Email,
		&entity.PasswordHash,
		&entity.Role,
		&entity.Status,
		&createdAt,
		&entity.FailedLogins,
		&lockedUntil,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, ErrNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	entity.CreatedAt, _ = storage.ParseTime(createdAt)
	if lockedUntil.Valid && lockedUntil.String != "" {
		entity.LockedUntil, _ = storage.ParseTime(lockedUntil.String)
	}
	return entity, nil
}
