package schedule

import (
	"context"
	"errors"

	domain "tutorcenter/internal/domain/schedule"
)

// ErrNotFound is returned when no schedule matches the lookup.
var ErrNotFound = errors.New("schedule not found")

// Store persists Schedule state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Schedule, error)
	Save(ctx context.Context, value domain.Schedule) error
	ListActive(ctx context.Context) ([]domain.Schedule, error)
	ListActiveBySlot(ctx context.Context, staffID, day, shift string) ([]domain.Schedule, error)
	ListByStaff(ctx context.Context, staffID string) ([]domain.Schedule, error)
	CountActive(ctx context.Context) (int, error)
}
