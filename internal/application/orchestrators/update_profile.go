package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	profileStore "tutorcenter/internal/adapters/storage/profile"
	"tutorcenter/internal/domain/account"
	"tutorcenter/internal/domain/profile"
)

// ErrRoleMismatch is returned when an update targets a profile of another role.
var ErrRoleMismatch = errors.New("profile does not have the expected role")

// ProfileFields is the flat, partial set of editable profile fields.
// Absent (nil) fields are left untouched.
type ProfileFields struct {
	FullName    *string `json:"full_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	Address     *string `json:"address,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
}

func (f ProfileFields) patch() profile.Patch {
	return profile.Patch{
		FullName:    f.FullName,
		Phone:       f.Phone,
		Gender:      f.Gender,
		Address:     f.Address,
		DateOfBirth: f.DateOfBirth,
	}
}

// UpdateCustomerInput carries input for the update-customer action.
type UpdateCustomerInput struct {
	ID string `json:"id"`
	ProfileFields
}

// UpdateStaffInput carries input for the update-staff action.
type UpdateStaffInput struct {
	ID string `json:"id"`
	ProfileFields
}

// UpdateTutorInput carries input for the update-tutor action.
type UpdateTutorInput struct {
	ID string `json:"id"`
	ProfileFields
	Education  *string   `json:"education,omitempty"`
	Experience *string   `json:"experience,omitempty"`
	Subjects   *[]string `json:"subjects,omitempty"`
	HourlyRate *int      `json:"hourly_rate,omitempty"`
}

// ProfileStoreForUpdate defines the store interface needed by the update actions.
type ProfileStoreForUpdate interface {
	GetByID(ctx context.Context, id string) (profile.Profile, error)
	Save(ctx context.Context, p profile.Profile) error
	GetTutorDetails(ctx context.Context, profileID string) (profile.TutorDetails, error)
	SaveWithTutorDetails(ctx context.Context, p profile.Profile, d profile.TutorDetails) error
}

// UpdateProfileDeps holds dependencies for the update actions.
type UpdateProfileDeps struct {
	Authorizer   Authorizer
	ProfileStore ProfileStoreForUpdate
	Now          func() time.Time
}

// ExecuteUpdateCustomer applies a partial update to a customer profile.
// PRE: actor is an admin
// POST: Profile fields present in input are set; repeating the call is a no-op
func ExecuteUpdateCustomer(ctx context.Context, actor Actor, input UpdateCustomerInput, deps UpdateProfileDeps) ActionResult {
	if err := updateProfile(ctx, actor, input.ID, account.RoleCustomer, input.patch(), deps); err != nil {
		return Failed("update_customer", err)
	}
	return Succeeded()
}

// ExecuteUpdateStaff applies a partial update to a staff profile.
// PRE: actor is an admin
// POST: Profile fields present in input are set; repeating the call is a no-op
func ExecuteUpdateStaff(ctx context.Context, actor Actor, input UpdateStaffInput, deps UpdateProfileDeps) ActionResult {
	if err := updateProfile(ctx, actor, input.ID, account.RoleStaff, input.patch(), deps); err != nil {
		return Failed("update_staff", err)
	}
	return Succeeded()
}

// ExecuteUpdateTutor applies a partial update to a tutor's profile and
// tutor details, creating the details row if the tutor has none yet.
// PRE: actor is an admin
// POST: Both records reflect input; they are written together or not at all
func ExecuteUpdateTutor(ctx context.Context, actor Actor, input UpdateTutorInput, deps UpdateProfileDeps) ActionResult {
	if err := updateTutor(ctx, actor, input, deps); err != nil {
		return Failed("update_tutor", err)
	}
	return Succeeded()
}

func updateProfile(ctx context.Context, actor Actor, id, role string, patch profile.Patch, deps UpdateProfileDeps) error {
	if err := deps.Authorizer.Authorize(ctx, actor, account.RoleAdmin); err != nil {
		return err
	}
	p, err := loadProfile(ctx, deps.ProfileStore, id, role)
	if err != nil {
		return err
	}
	if !p.Apply(patch) {
		return nil
	}
	if err := p.Validate(); err != nil {
		return invalid(err)
	}
	p.UpdatedAt = deps.Now()
	if err := deps.ProfileStore.Save(ctx, p); err != nil {
		return unavailable("save profile", err)
	}
	slog.Info("profile_updated", "profile_id", p.ID, "role", role, "by", actor.AccountID)
	return nil
}

func updateTutor(ctx context.Context, actor Actor, input UpdateTutorInput, deps UpdateProfileDeps) error {
	if err := deps.Authorizer.Authorize(ctx, actor, account.RoleAdmin); err != nil {
		return err
	}
	p, err := loadProfile(ctx, deps.ProfileStore, input.ID, account.RoleTutor)
	if err != nil {
		return err
	}
	details, err := deps.ProfileStore.GetTutorDetails(ctx, p.ID)
	switch {
	case errors.Is(err, profileStore.ErrNotFound):
		details = profile.TutorDetails{ProfileID: p.ID}
	case err != nil:
		return unavailable("load tutor details", err)
	}

	profileChanged := p.Apply(input.patch())
	detailsChanged := details.Apply(profile.TutorPatch{
		Education:  input.Education,
		Experience: input.Experience,
		Subjects:   input.Subjects,
		HourlyRate: input.HourlyRate,
	})
	if !profileChanged && !detailsChanged {
		return nil
	}
	if err := p.Validate(); err != nil {
		return invalid(err)
	}
	if err := details.Validate(); err != nil {
		return invalid(err)
	}
	p.UpdatedAt = deps.Now()
	if err := deps.ProfileStore.SaveWithTutorDetails(ctx, p, details); err != nil {
		return unavailable("save tutor", err)
	}
	slog.Info("profile_updated", "profile_id", p.ID, "role", account.RoleTutor, "by", actor.AccountID)
	return nil
}

type profileGetter interface {
	GetByID(ctx context.Context, id string) (profile.Profile, error)
}

// loadProfile fetches id and checks it carries role.
func loadProfile(ctx context.Context, store profileGetter, id, role string) (profile.Profile, error) {
	if id == "" {
		return profile.Profile{}, invalid(profile.ErrEmptyID)
	}
	p, err := store.GetByID(ctx, id)
	if errors.Is(err, profileStore.ErrNotFound) {
		return profile.Profile{}, fmt.Errorf("%w: profile %s", ErrNotFound, id)
	}
	if err != nil {
		return profile.Profile{}, unavailable("load profile", err)
	}
	if role != "" && p.Role != role {
		return profile.Profile{}, invalid(fmt.Errorf("%w: %s is %s, not %s", ErrRoleMismatch, id, p.Role, role))
	}
	return p, nil
}
