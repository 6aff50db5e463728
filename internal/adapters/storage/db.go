package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations lists every schema step in order. Never edit a shipped step; append a new one.
var migrations = []migration{
	{
		version: 1,
		name:    "accounts_and_profiles",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS account (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'active',
				created_at TEXT NOT NULL,
				failed_logins INTEGER NOT NULL DEFAULT 0,
				locked_until TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS profile (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL,
				full_name TEXT NOT NULL,
				phone TEXT NOT NULL DEFAULT '',
				gender TEXT NOT NULL DEFAULT '',
				address TEXT NOT NULL DEFAULT '',
				date_of_birth TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				FOREIGN KEY (id) REFERENCES account(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_profile_role ON profile(role)`,
		},
	},
	{
		version: 2,
		name:    "tutor_details",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS tutor_details (
				profile_id TEXT PRIMARY KEY,
				education TEXT NOT NULL DEFAULT '',
				experience TEXT NOT NULL DEFAULT '',
				subjects TEXT NOT NULL DEFAULT '',
				hourly_rate INTEGER NOT NULL DEFAULT 0,
				FOREIGN KEY (profile_id) REFERENCES profile(id)
			)`,
		},
	},
	{
		// No unique index on (staff_id, day, shift): slot uniqueness is checked by
		// the assign-schedule orchestrator before insert.
		version: 3,
		name:    "staff_schedule",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS schedule (
				id TEXT PRIMARY KEY,
				staff_id TEXT NOT NULL,
				day TEXT NOT NULL,
				shift TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'active',
				note TEXT NOT NULL DEFAULT '',
				created_by TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				FOREIGN KEY (staff_id) REFERENCES profile(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_schedule_staff_slot ON schedule(staff_id, day, shift, status)`,
		},
	},
}

// LatestSchemaVersion returns the version reached after all migrations.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the currently applied schema version (0 for a fresh database).
// PRE: db is a valid database connection
// POST: Returns the highest applied version
func SchemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)"); err != nil {
		return 0, fmt.Errorf("failed to create schema_version: %w", err)
	}
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies every pending migration, each in its own transaction.
// PRE: db is a valid database connection
// POST: Schema is at LatestSchemaVersion
func MigrateDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		slog.Info("schema_migrated", "version", m.version, "name", m.name)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
		return err
	}
	return tx.Commit()
}

// Open opens the SQLite database at path with WAL journaling, a busy
// timeout and foreign keys on, then pings it.
// POST: Returns a live connection pool or an error
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return db, nil
}
