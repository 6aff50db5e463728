package profile

import (
	"context"
	"errors"
	"time"

	"tutorcenter/internal/domain/account"
	domain "tutorcenter/internal/domain/profile"
)

// ErrNotFound is returned when no profile or tutor details row matches.
var ErrNotFound = errors.New("profile not found")

// Store persists Profile and TutorDetails state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Profile, error)
	Save(ctx context.Context, value domain.Profile) error
	List(ctx context.Context, filter ListFilter) ([]domain.Profile, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	CountByRole(ctx context.Context) (map[string]int, error)
	GetTutorDetails(ctx context.Context, profileID string) (domain.TutorDetails, error)
	SaveWithTutorDetails(ctx context.Context, p domain.Profile, d domain.TutorDetails) error
	Enroll(ctx context.Context, a account.Account, p domain.Profile, d *domain.TutorDetails) error
	ChangeRole(ctx context.Context, id, role string, at time.Time) error
}

// ListFilter carries filtering parameters for List and Count.
type ListFilter struct {
	Role   string
	Search string // matches full name or email
	Sort   string // full_name, email, created_at
	Dir    string // asc, desc
	Limit  int
	Offset int
}
