package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	scheduleStore "tutorcenter/internal/adapters/storage/schedule"
	"tutorcenter/internal/domain/account"
	"tutorcenter/internal/domain/schedule"
)

// ErrDuplicateSchedule is returned when the staff member already holds the slot.
var ErrDuplicateSchedule = errors.New("duplicate schedule")

// AssignScheduleInput carries input for the assign-schedule action.
type AssignScheduleInput struct {
	StaffID string `json:"staff_id"`
	Day     string `json:"day"`
	Shift   string `json:"shift"`
	Note    string `json:"note,omitempty"`
}

// CancelScheduleInput carries input for the cancel-schedule action.
type CancelScheduleInput struct {
	ID string `json:"id"`
}

// ScheduleStoreForAssign defines the store interface needed by the schedule actions.
type ScheduleStoreForAssign interface {
	GetByID(ctx context.Context, id string) (schedule.Schedule, error)
	Save(ctx context.Context, s schedule.Schedule) error
	ListActiveBySlot(ctx context.Context, staffID, day, shift string) ([]schedule.Schedule, error)
}

// ScheduleDeps holds dependencies for the schedule actions.
type ScheduleDeps struct {
	Authorizer    Authorizer
	ProfileStore  profileGetter
	ScheduleStore ScheduleStoreForAssign
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteAssignSchedule assigns a staff member to a weekly shift slot.
//
// The slot check and the insert are separate statements with no lock and no
// unique index, so two concurrent assignments of the same slot can both pass
// the check. Admin-only traffic makes that window acceptable.
//
// PRE: actor is admin or staff; input.StaffID names a staff profile
// POST: One new active schedule exists, or the result is "duplicate schedule"
func ExecuteAssignSchedule(ctx context.Context, actor Actor, input AssignScheduleInput, deps ScheduleDeps) ActionResult {
	id, err := assignSchedule(ctx, actor, input, deps)
	if err != nil {
		return Failed("assign_schedule", err)
	}
	res := Succeeded()
	res.ID = id
	return res
}

func assignSchedule(ctx context.Context, actor Actor, input AssignScheduleInput, deps ScheduleDeps) (string, error) {
	if err := deps.Authorizer.Authorize(ctx, actor, account.RoleAdmin, account.RoleStaff); err != nil {
		return "", err
	}
	s := schedule.Schedule{
		ID:        deps.GenerateID(),
		StaffID:   input.StaffID,
		Day:       input.Day,
		Shift:     input.Shift,
		Status:    schedule.StatusActive,
		Note:      input.Note,
		CreatedBy: actor.AccountID,
		CreatedAt: deps.Now(),
	}
	if err := s.Validate(); err != nil {
		return "", invalid(err)
	}
	if _, err := loadProfile(ctx, deps.ProfileStore, s.StaffID, account.RoleStaff); err != nil {
		return "", err
	}

	existing, err := deps.ScheduleStore.ListActiveBySlot(ctx, s.StaffID, s.Day, s.Shift)
	if err != nil {
		return "", unavailable("check schedule slot", err)
	}
	if len(existing) > 0 {
		slog.Info("schedule_conflict", "staff_id", s.StaffID, "day", s.Day, "shift", s.Shift, "existing_id", existing[0].ID)
		return "", invalid(ErrDuplicateSchedule)
	}
	if err := deps.ScheduleStore.Save(ctx, s); err != nil {
		return "", unavailable("save schedule", err)
	}
	slog.Info("schedule_assigned", "schedule_id", s.ID, "staff_id", s.StaffID, "day", s.Day, "shift", s.Shift, "by", actor.AccountID)
	return s.ID, nil
}

// ExecuteCancelSchedule cancels a schedule, freeing its slot.
// PRE: actor is admin or staff
// POST: Schedule status is cancelled; cancelling twice succeeds
func ExecuteCancelSchedule(ctx context.Context, actor Actor, input CancelScheduleInput, deps ScheduleDeps) ActionResult {
	if err := cancelSchedule(ctx, actor, input, deps); err != nil {
		return Failed("cancel_schedule", err)
	}
	return Succeeded()
}

func cancelSchedule(ctx context.Context, actor Actor, input CancelScheduleInput, deps ScheduleDeps) error {
	if err := deps.Authorizer.Authorize(ctx, actor, account.RoleAdmin, account.RoleStaff); err != nil {
		return err
	}
	if input.ID == "" {
		return invalid(errors.New("schedule id cannot be empty"))
	}
	s, err := deps.ScheduleStore.GetByID(ctx, input.ID)
	if errors.Is(err, scheduleStore.ErrNotFound) {
		return fmt.Errorf("%w: schedule %s", ErrNotFound, input.ID)
	}
	if err != nil {
		return unavailable("load schedule", err)
	}
	if err := s.Cancel(); errors.Is(err, schedule.ErrAlreadyCancelled) {
		return nil
	}
	if err := deps.ScheduleStore.Save(ctx, s); err != nil {
		return unavailable("save schedule", err)
	}
	slog.Info("schedule_cancelled", "schedule_id", s.ID, "by", actor.AccountID)
	return nil
}
