package projections

import (
	"context"
	"errors"
	"sort"
	"strings"

	"tutorcenter/internal/adapters/storage/profile"
	domainProfile "tutorcenter/internal/domain/profile"
	domainSchedule "tutorcenter/internal/domain/schedule"
)

var errStoreDown = errors.New("store down")

type mockProfileReader struct {
	profiles []domainProfile.Profile
	details  map[string]domainProfile.TutorDetails
	err      error
	lastList profile.ListFilter
}

func (m *mockProfileReader) GetByID(_ context.Context, id string) (domainProfile.Profile, error) {
	if m.err != nil {
		return domainProfile.Profile{}, m.err
	}
	for _, p := range m.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return domainProfile.Profile{}, profile.ErrNotFound
}

func (m *mockProfileReader) matching(f profile.ListFilter) []domainProfile.Profile {
	var out []domainProfile.Profile
	for _, p := range m.profiles {
		if f.Role != "" && p.Role != f.Role {
			continue
		}
		if f.Search != "" && !strings.Contains(p.FullName, f.Search) && !strings.Contains(p.Email, f.Search) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].FullName < out[b].FullName })
	return out
}

// List applies role and search filters, then the limit and offset.
func (m *mockProfileReader) List(_ context.Context, f profile.ListFilter) ([]domainProfile.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastList = f
	all := m.matching(f)
	if f.Offset >= len(all) {
		return nil, nil
	}
	return all[f.Offset:min(f.Offset+f.Limit, len(all))], nil
}

func (m *mockProfileReader) Count(_ context.Context, f profile.ListFilter) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return len(m.matching(f)), nil
}

func (m *mockProfileReader) CountByRole(context.Context) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := map[string]int{}
	for _, p := range m.profiles {
		out[p.Role]++
	}
	return out, nil
}

func (m *mockProfileReader) GetTutorDetails(_ context.Context, id string) (domainProfile.TutorDetails, error) {
	d, ok := m.details[id]
	if !ok {
		return domainProfile.TutorDetails{}, profile.ErrNotFound
	}
	return d, nil
}

type mockScheduleReader struct {
	schedules []domainSchedule.Schedule
	err       error
}

func (m *mockScheduleReader) ListActive(context.Context) ([]domainSchedule.Schedule, error) {
	var out []domainSchedule.Schedule
	for _, s := range m.schedules {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out, m.err
}

func (m *mockScheduleReader) ListByStaff(_ context.Context, staffID string) ([]domainSchedule.Schedule, error) {
	var out []domainSchedule.Schedule
	for _, s := range m.schedules {
		if s.StaffID == staffID {
			out = append(out, s)
		}
	}
	return out, m.err
}

func (m *mockScheduleReader) CountActive(ctx context.Context) (int, error) {
	active, err := m.ListActive(ctx)
	return len(active), err
}

func sched(id, staff, day, shift, status string) domainSchedule.Schedule {
	return domainSchedule.Schedule{ID: id, StaffID: staff, Day: day, Shift: shift, Status: status}
}
