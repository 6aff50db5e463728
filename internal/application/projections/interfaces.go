package projections

import (
	"context"

	"tutorcenter/internal/adapters/storage/profile"
	domainProfile "tutorcenter/internal/domain/profile"
	domainSchedule "tutorcenter/internal/domain/schedule"
)

// ProfileReader interface for profile queries.
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (domainProfile.Profile, error)
	List(ctx context.Context, filter profile.ListFilter) ([]domainProfile.Profile, error)
	Count(ctx context.Context, filter profile.ListFilter) (int, error)
	CountByRole(ctx context.Context) (map[string]int, error)
	GetTutorDetails(ctx context.Context, profileID string) (domainProfile.TutorDetails, error)
}

// ScheduleReader interface for schedule queries.
type ScheduleReader interface {
	ListActive(ctx context.Context) ([]domainSchedule.Schedule, error)
	ListByStaff(ctx context.Context, staffID string) ([]domainSchedule.Schedule, error)
	CountActive(ctx context.Context) (int, error)
}
