package projections

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"tutorcenter/internal/adapters/storage/profile"
	domainSchedule "tutorcenter/internal/domain/schedule"
)

// ScheduleEntry is one active assignment with the staff member's name.
type ScheduleEntry struct {
	ID        string
	StaffID   string
	StaffName string
	Shift     string
	Note      string
}

// DaySchedule holds the entries of one weekday.
type DaySchedule struct {
	Day     string
	Entries []ScheduleEntry
}

// GetStaffScheduleResult carries the week, Monday first.
type GetStaffScheduleResult struct {
	Days  []DaySchedule
	Total int
}

// GetStaffScheduleDeps holds dependencies for GetStaffSchedule.
type GetStaffScheduleDeps struct {
	ProfileStore  ProfileReader
	ScheduleStore ScheduleReader
}

// QueryGetStaffSchedule groups active schedules by weekday.
// POST: Days has all seven weekdays in order; entries sorted by shift then name
// INVARIANT: A staff member whose profile is gone is shown by ID
func QueryGetStaffSchedule(ctx context.Context, deps GetStaffScheduleDeps) (GetStaffScheduleResult, error) {
	active, err := deps.ScheduleStore.ListActive(ctx)
	if err != nil {
		return GetStaffScheduleResult{}, fmt.Errorf("list schedules: %w", err)
	}

	names := make(map[string]string)
	for _, s := range active {
		if _, ok := names[s.StaffID]; ok {
			continue
		}
		p, err := deps.ProfileStore.GetByID(ctx, s.StaffID)
		switch {
		case errors.Is(err, profile.ErrNotFound):
			names[s.StaffID] = s.StaffID
		case err != nil:
			return GetStaffScheduleResult{}, fmt.Errorf("load staff %s: %w", s.StaffID, err)
		default:
			names[s.StaffID] = p.FullName
		}
	}

	days := make([]DaySchedule, len(domainSchedule.ValidDays))
	for i, d := range domainSchedule.ValidDays {
		days[i].Day = d
	}
	for _, s := range active {
		i := domainSchedule.DayIndex(s.Day)
		if i < 0 {
			continue
		}
		days[i].Entries = append(days[i].Entries, ScheduleEntry{
			ID:        s.ID,
			StaffID:   s.StaffID,
			StaffName: names[s.StaffID],
			Shift:     s.Shift,
			Note:      s.Note,
		})
	}
	for _, d := range days {
		sort.SliceStable(d.Entries, func(a, b int) bool {
			ea, eb := d.Entries[a], d.Entries[b]
			if sa, sb := domainSchedule.ShiftIndex(ea.Shift), domainSchedule.ShiftIndex(eb.Shift); sa != sb {
				return sa < sb
			}
			return ea.StaffName < eb.StaffName
		})
	}
	return GetStaffScheduleResult{Days: days, Total: len(active)}, nil
}

// sortSlots orders schedules by weekday then shift.
func sortSlots(list []domainSchedule.Schedule) {
	sort.SliceStable(list, func(a, b int) bool {
		da, db := domainSchedule.DayIndex(list[a].Day), domainSchedule.DayIndex(list[b].Day)
		if da != db {
			return da < db
		}
		return domainSchedule.ShiftIndex(list[a].Shift) < domainSchedule.ShiftIndex(list[b].Shift)
	})
}
