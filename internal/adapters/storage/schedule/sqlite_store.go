package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tutorcenter/internal/adapters/storage"
	domain "tutorcenter/internal/domain/schedule"
)

const scheduleColumns = "id, staff_id, day, shift, status, note, created_by, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ScheduleStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Schedule by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Schedule, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+scheduleColumns+" FROM schedule WHERE id = ?", id)
	entity, err := scanSchedule(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Schedule{}, ErrNotFound
	}
	return entity, err
}

// Save persists a Schedule to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Schedule) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO schedule (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			staff_id=excluded.staff_id,
			day=excluded.day,
			shift=excluded.shift,
			status=excluded.status,
			note=excluded.note`,
		entity.ID, entity.StaffID, entity.Day, entity.Shift, entity.Status, entity.Note, entity.CreatedBy,
		storage.FormatTime(entity.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}
	return nil
}

// ListActive retrieves all active Schedules.
func (s *SQLiteStore) ListActive(ctx context.Context) ([]domain.Schedule, error) {
	return s.query(ctx, "SELECT "+scheduleColumns+" FROM schedule WHERE status = ? ORDER BY staff_id, created_at", domain.StatusActive)
}

// ListActiveBySlot retrieves active Schedules holding the given (staff, day, shift) slot.
func (s *SQLiteStore) ListActiveBySlot(ctx context.Context, staffID, day, shift string) ([]domain.Schedule, error) {
	return s.query(ctx,
		"SELECT "+scheduleColumns+" FROM schedule WHERE staff_id = ? AND day = ? AND shift = ? AND status = ?",
		staffID, day, shift, domain.StatusActive,
	)
}

// ListByStaff retrieves every Schedule for one staff member, newest first.
func (s *SQLiteStore) ListByStaff(ctx context.Context, staffID string) ([]domain.Schedule, error) {
	return s.query(ctx, "SELECT "+scheduleColumns+" FROM schedule WHERE staff_id = ? ORDER BY created_at DESC", staffID)
}

// CountActive returns the number of active Schedules.
func (s *SQLiteStore) CountActive(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schedule WHERE status = ?", domain.StatusActive).Scan(&n)
	return n, err
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Schedule
	for rows.Next() {
		entity, err := scanSchedule(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanSchedule(scan func(dest ...any) error) (domain.Schedule, error) {
	var e domain.Schedule
	var createdAt string
	if err := scan(&e.ID, &e.StaffID, &e.Day, &e.Shift, &e.Status, &e.Note, &e.CreatedBy, &createdAt); err != nil {
		return domain.Schedule{}, err
	}
	e.CreatedAt, _ = storage.ParseTime(createdAt)
	return e, nil
}
