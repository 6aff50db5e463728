package projections

import (
	"context"
	"errors"
	"fmt"
	"html/template"

	"tutorcenter/internal/adapters/markdown"
	"tutorcenter/internal/adapters/storage/profile"
	"tutorcenter/internal/domain/account"
	domainProfile "tutorcenter/internal/domain/profile"
)

// ErrNotTutor is returned when the requested profile is not a tutor.
var ErrNotTutor = errors.New("profile is not a tutor")

// GetTutorProfileResult carries a tutor with rendered experience.
type GetTutorProfileResult struct {
	Profile        domainProfile.Profile
	Details        domainProfile.TutorDetails
	ExperienceHTML template.HTML
}

// GetTutorProfileDeps holds dependencies for GetTutorProfile.
type GetTutorProfileDeps struct {
	ProfileStore ProfileReader
}

// QueryGetTutorProfile loads a tutor's profile and details. A tutor without
// a details row yet is shown with empty details.
// PRE: id is non-empty
// POST: ExperienceHTML is the sanitised rendering of Details.Experience
func QueryGetTutorProfile(ctx context.Context, id string, deps GetTutorProfileDeps) (GetTutorProfileResult, error) {
	p, err := deps.ProfileStore.GetByID(ctx, id)
	if err != nil {
		return GetTutorProfileResult{}, err
	}
	if p.Role != account.RoleTutor {
		return GetTutorProfileResult{}, ErrNotTutor
	}
	d, err := deps.ProfileStore.GetTutorDetails(ctx, id)
	switch {
	case errors.Is(err, profile.ErrNotFound):
		d = domainProfile.TutorDetails{ProfileID: id}
	case err != nil:
		return GetTutorProfileResult{}, fmt.Errorf("load tutor details: %w", err)
	}
	return GetTutorProfileResult{
		Profile:        p,
		Details:        d,
		ExperienceHTML: markdown.HTML(d.Experience),
	}, nil
}
