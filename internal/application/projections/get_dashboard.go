package projections

import (
	"context"
	"fmt"

	"tutorcenter/internal/domain/account"
	domainProfile "tutorcenter/internal/domain/profile"
	domainSchedule "tutorcenter/internal/domain/schedule"
)

// GetDashboardDeps holds dependencies for the dashboard projections.
type GetDashboardDeps struct {
	ProfileStore  ProfileReader
	ScheduleStore ScheduleReader
}

// GetDashboardResult carries the back-office headline counts.
type GetDashboardResult struct {
	Customers       int
	Tutors          int
	Staff           int
	Admins          int
	ActiveSchedules int
}

// QueryGetDashboard counts people per role and active shift assignments.
// POST: Roles with no profiles report 0
func QueryGetDashboard(ctx context.Context, deps GetDashboardDeps) (GetDashboardResult, error) {
	byRole, err := deps.ProfileStore.CountByRole(ctx)
	if err != nil {
		return GetDashboardResult{}, fmt.Errorf("count profiles: %w", err)
	}
	active, err := deps.ScheduleStore.CountActive(ctx)
	if err != nil {
		return GetDashboardResult{}, fmt.Errorf("count schedules: %w", err)
	}
	return GetDashboardResult{
		Customers:       byRole[account.RoleCustomer],
		Tutors:          byRole[account.RoleTutor],
		Staff:           byRole[account.RoleStaff],
		Admins:          byRole[account.RoleAdmin],
		ActiveSchedules: active,
	}, nil
}

// GetUserDashboardResult is what a signed-in person sees on their own page.
type GetUserDashboardResult struct {
	Profile    domainProfile.Profile
	Shifts     []domainSchedule.Schedule // active shifts, staff only
	BackOffice bool
}

// QueryGetUserDashboard loads the actor's own profile and, for staff, their
// active shifts in week order.
// PRE: accountID belongs to a signed-in session
func QueryGetUserDashboard(ctx context.Context, accountID string, deps GetDashboardDeps) (GetUserDashboardResult, error) {
	p, err := deps.ProfileStore.GetByID(ctx, accountID)
	if err != nil {
		return GetUserDashboardResult{}, fmt.Errorf("load profile: %w", err)
	}
	res := GetUserDashboardResult{Profile: p, BackOffice: account.IsBackOffice(p.Role)}
	if p.Role != account.RoleStaff {
		return res, nil
	}
	all, err := deps.ScheduleStore.ListByStaff(ctx, accountID)
	if err != nil {
		return GetUserDashboardResult{}, fmt.Errorf("list shifts: %w", err)
	}
	for _, s := range all {
		if s.IsActive() {
			res.Shifts = append(res.Shifts, s)
		}
	}
	sortSlots(res.Shifts)
	return res, nil
}
