package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	accountStore "tutorcenter/internal/adapters/storage/account"
	profileStore "tutorcenter/internal/adapters/storage/profile"
	scheduleStore "tutorcenter/internal/adapters/storage/schedule"
	"tutorcenter/internal/domain/account"
	"tutorcenter/internal/domain/profile"
	"tutorcenter/internal/domain/schedule"
)

var (
	testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	errDown  = errors.New("connection refused")
)

func testNow() time.Time { return testTime }

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

var (
	adminActor    = Actor{AccountID: "admin-1", Role: account.RoleAdmin}
	staffActor    = Actor{AccountID: "staff-1", Role: account.RoleStaff}
	customerActor = Actor{AccountID: "cust-1", Role: account.RoleCustomer}
	tutorActor    = Actor{AccountID: "tutor-1", Role: account.RoleTutor}
)

const testPassword = "correct-horse-1"

var (
	hashOnce   sync.Once
	cachedHash string
)

// testHash returns a bcrypt hash of testPassword, computed once per run.
func testHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		var a account.Account
		if err := a.SetPassword(testPassword); err != nil {
			panic(err)
		}
		cachedHash = a.PasswordHash
	})
	return cachedHash
}

type fakeAccounts struct {
	byID  map[string]account.Account
	saves int
	err   error
}

func newFakeAccounts(accts ...account.Account) *fakeAccounts {
	f := &fakeAccounts{byID: map[string]account.Account{}}
	for _, a := range accts {
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (account.Account, error) {
	if f.err != nil {
		return account.Account{}, f.err
	}
	a, ok := f.byID[id]
	if !ok {
		return account.Account{}, accountStore.ErrNotFound
	}
	return a, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (account.Account, error) {
	if f.err != nil {
		return account.Account{}, f.err
	}
	for _, a := range f.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return account.Account{}, accountStore.ErrNotFound
}

func (f *fakeAccounts) Save(_ context.Context, a account.Account) error {
	if f.err != nil {
		return f.err
	}
	f.saves++
	f.byID[a.ID] = a
	return nil
}

func (f *fakeAccounts) Count(context.Context) (int, error) {
	return len(f.byID), f.err
}

type fakeProfiles struct {
	accounts *fakeAccounts
	byID     map[string]profile.Profile
	details  map[string]profile.TutorDetails
	writes   int
	err      error
}

func newFakeProfiles(accounts *fakeAccounts, ps ...profile.Profile) *fakeProfiles {
	f := &fakeProfiles{accounts: accounts, byID: map[string]profile.Profile{}, details: map[string]profile.TutorDetails{}}
	for _, p := range ps {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (profile.Profile, error) {
	if f.err != nil {
		return profile.Profile{}, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return profile.Profile{}, profileStore.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) Save(_ context.Context, p profile.Profile) error {
	if f.err != nil {
		return f.err
	}
	f.writes++
	f.byID[p.ID] = p
	return nil
}

func (f *fakeProfiles) GetTutorDetails(_ context.Context, id string) (profile.TutorDetails, error) {
	if f.err != nil {
		return profile.TutorDetails{}, f.err
	}
	d, ok := f.details[id]
	if !ok {
		return profile.TutorDetails{}, profileStore.ErrNotFound
	}
	return d, nil
}

func (f *fakeProfiles) SaveWithTutorDetails(_ context.Context, p profile.Profile, d profile.TutorDetails) error {
	if f.err != nil {
		return f.err
	}
	f.writes++
	f.byID[p.ID] = p
	f.details[d.ProfileID] = d
	return nil
}

func (f *fakeProfiles) Enroll(_ context.Context, a account.Account, p profile.Profile, d *profile.TutorDetails) error {
	if f.err != nil {
		return f.err
	}
	f.writes++
	f.accounts.byID[a.ID] = a
	f.byID[p.ID] = p
	if d != nil {
		f.details[d.ProfileID] = *d
	}
	return nil
}

func (f *fakeProfiles) ChangeRole(_ context.Context, id, role string, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return profileStore.ErrNotFound
	}
	f.writes++
	p.Role = role
	p.UpdatedAt = at
	f.byID[id] = p
	if a, ok := f.accounts.byID[id]; ok {
		a.Role = role
		f.accounts.byID[id] = a
	}
	return nil
}

type fakeSchedules struct {
	byID map[string]schedule.Schedule
	err  error
}

func newFakeSchedules() *fakeSchedules {
	return &fakeSchedules{byID: map[string]schedule.Schedule{}}
}

func (f *fakeSchedules) GetByID(_ context.Context, id string) (schedule.Schedule, error) {
	if f.err != nil {
		return schedule.Schedule{}, f.err
	}
	s, ok := f.byID[id]
	if !ok {
		return schedule.Schedule{}, scheduleStore.ErrNotFound
	}
	return s, nil
}

func (f *fakeSchedules) Save(_ context.Context, s schedule.Schedule) error {
	if f.err != nil {
		return f.err
	}
	f.byID[s.ID] = s
	return nil
}

func (f *fakeSchedules) ListActiveBySlot(_ context.Context, staffID, day, shift string) ([]schedule.Schedule, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []schedule.Schedule
	for _, s := range f.byID {
		if s.IsActive() && s.StaffID == staffID && s.Day == day && s.Shift == shift {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeRevoker struct {
	revoked []string
}

func (f *fakeRevoker) DeleteByAccount(_ context.Context, id string) error {
	f.revoked = append(f.revoked, id)
	return nil
}

func strPtr(s string) *string { return &s }
