package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tutorcenter/internal/adapters/storage"
	accountStore "tutorcenter/internal/adapters/storage/account"
	"tutorcenter/internal/domain/account"
	domain "tutorcenter/internal/domain/profile"
)

const profileColumns = "id, email, full_name, phone, gender, address, date_of_birth, role, created_at, updated_at"

// sortColumns maps accepted sort keys to SQL columns.
var sortColumns = map[string]string{
	"full_name":  "full_name COLLATE NOCASE",
	"email":      "email",
	"created_at": "created_at",
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ProfileStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Profile by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM profile WHERE id = ?", id)
	return scanProfile(row.Scan)
}

// Save persists a Profile (insert or update).
// PRE: entity has been validated
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Profile) error {
	return saveProfile(ctx, s.db, entity)
}

// SaveWithTutorDetails persists a profile and its tutor details in one transaction.
// PRE: both values have been validated and d.ProfileID == p.ID
// POST: Both rows are written, or neither is
func (s *SQLiteStore) SaveWithTutorDetails(ctx context.Context, p domain.Profile, d domain.TutorDetails) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := saveProfile(ctx, tx, p); err != nil {
			return err
		}
		return saveTutorDetails(ctx, tx, d)
	})
}

// Enroll creates the account, its profile and (for tutors) the details row
// in one transaction.
// PRE: all values have been validated; p.ID == a.ID
// POST: Every row is written, or none is
func (s *SQLiteStore) Enroll(ctx context.Context, a account.Account, p domain.Profile, d *domain.TutorDetails) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := accountStore.Insert(ctx, tx, a); err != nil {
			return err
		}
		if err := saveProfile(ctx, tx, p); err != nil {
			return err
		}
		if d == nil {
			return nil
		}
		return saveTutorDetails(ctx, tx, *d)
	})
}

// ChangeRole sets the role on both the account and the profile.
// POST: Both rows carry role, or ErrNotFound and nothing changed
func (s *SQLiteStore) ChangeRole(ctx context.Context, id, role string, at time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE profile SET role = ?, updated_at = ? WHERE id = ?", role, storage.FormatTime(at), id)
		if err != nil {
			return fmt.Errorf("update profile role: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, "UPDATE account SET role = ? WHERE id = ?", role, id); err != nil {
			return fmt.Errorf("update account role: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func saveTutorDetails(ctx context.Context, db storage.Execer, d domain.TutorDetails) error {
	subjects, err := json.Marshal(d.Subjects)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO tutor_details (profile_id, education, experience, subjects, hourly_rate)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET
			education=excluded.education,
			experience=excluded.experience,
			subjects=excluded.subjects,
			hourly_rate=excluded.hourly_rate`,
		d.ProfileID, d.Education, d.Experience, string(subjects), d.HourlyRate,
	)
	if err != nil {
		return fmt.Errorf("save tutor details: %w", err)
	}
	return nil
}

// GetTutorDetails retrieves the tutor-only fields for a profile.
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetTutorDetails(ctx context.Context, profileID string) (domain.TutorDetails, error) {
	var d domain.TutorDetails
	var subjects string
	err := s.db.QueryRowContext(ctx,
		"SELECT profile_id, education, experience, subjects, hourly_rate FROM tutor_details WHERE profile_id = ?",
		profileID,
	).Scan(&d.ProfileID, &d.Education, &d.Experience, &subjects, &d.HourlyRate)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TutorDetails{}, ErrNotFound
	}
	if err != nil {
		return domain.TutorDetails{}, err
	}
	if subjects != "" {
		if err := json.Unmarshal([]byte(subjects), &d.Subjects); err != nil {
			return domain.TutorDetails{}, fmt.Errorf("decode subjects for %s: %w", profileID, err)
		}
	}
	return d, nil
}

// List retrieves Profiles based on the filter.
// PRE: filter.Limit > 0
// POST: Returns matching entities in the requested order
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Profile, error) {
	where, args := whereClause(filter)
	order, ok := sortColumns[filter.Sort]
	if !ok {
		order = sortColumns["full_name"]
	}
	dir := "ASC"
	if filter.Dir == "desc" {
		dir = "DESC"
	}
	query := fmt.Sprintf("SELECT %s FROM profile%s ORDER BY %s %s, id LIMIT ? OFFSET ?", profileColumns, where, order, dir)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Profile
	for rows.Next() {
		entity, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Count returns the number of profiles matching the filter (paging fields ignored).
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := whereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM profile"+where, args...).Scan(&n)
	return n, err
}

// CountByRole returns the number of profiles per role.
func (s *SQLiteStore) CountByRole(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT role, COUNT(*) FROM profile GROUP BY role")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

func saveProfile(ctx context.Context, db storage.Execer, p domain.Profile) error {
	_, err := db.ExecContext(ctx, `INSERT INTO profile (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email=excluded.email,
			full_name=excluded.full_name,
			phone=excluded.phone,
			gender=excluded.gender,
			address=excluded.address,
			date_of_birth=excluded.date_of_birth,
			role=excluded.role,
			updated_at=excluded.updated_at`,
		p.ID, strings.ToLower(p.Email), p.FullName, p.Phone, p.Gender, p.Address, p.DateOfBirth, p.Role,
		storage.FormatTime(p.CreatedAt), storage.FormatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func whereClause(filter ListFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, filter.Role)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		conds = append(conds, `(full_name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\')`)
		like := "%" + likeEscaper.Replace(q) + "%"
		args = append(args, like, like)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanProfile(scan func(dest ...any) error) (domain.Profile, error) {
	var p domain.Profile
	var createdAt, updatedAt string
	err := scan(&p.ID, &p.Email, &p.FullName, &p.Phone, &p.Gender, &p.Address, &p.DateOfBirth, &p.Role, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, err
	}
	p.CreatedAt, _ = storage.ParseTime(createdAt)
	p.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return p, nil
}
