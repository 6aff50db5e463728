package profile

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength    = 100
	MaxPhoneLength   = 32
	MaxAddressLength = 255
	MaxTextLength    = 4000
	MaxSubjects      = 20
)

// Gender values. Empty means not stated.
const (
	GenderFemale = "f"
	GenderMale   = "m"
	GenderOther  = "o"
)

// dateLayout is the storage and form layout for DateOfBirth.
const dateLayout = "2006-01-02"

// Domain errors
var (
	ErrEmptyID          = errors.New("profile ID cannot be empty")
	ErrEmptyName        = errors.New("full name cannot be empty")
	ErrNameTooLong      = errors.New("full name cannot exceed 100 characters")
	ErrPhoneTooLong     = errors.New("phone cannot exceed 32 characters")
	ErrAddressTooLong   = errors.New("address cannot exceed 255 characters")
	ErrInvalidGender    = errors.New("gender must be one of: f, m, o")
	ErrInvalidBirthDate = errors.New("date of birth must be YYYY-MM-DD")
	ErrTextTooLong      = errors.New("text fields cannot exceed 4000 characters")
	ErrTooManySubjects  = errors.New("a tutor can list at most 20 subjects")
	ErrNegativeRate     = errors.New("hourly rate cannot be negative")
)

// Profile is the person record behind an account, keyed by the account ID.
type Profile struct {
	ID          string
	Email       string
	FullName    string
	Phone       string
	Gender      string
	Address     string
	DateOfBirth string // YYYY-MM-DD, empty when unknown
	Role        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	FullName    *string
	Phone       *string
	Gender      *string
	Address     *string
	DateOfBirth *string
}

// Validate checks if the Profile has valid data.
// PRE: Profile struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(p.FullName) == "" {
		return ErrEmptyName
	}
	if len(p.FullName) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(p.Phone) > MaxPhoneLength {
		return ErrPhoneTooLong
	}
	if len(p.Address) > MaxAddressLength {
		return ErrAddressTooLong
	}
	if !isValidGender(p.Gender) {
		return ErrInvalidGender
	}
	if p.DateOfBirth != "" {
		if _, err := time.Parse(dateLayout, p.DateOfBirth); err != nil {
			return ErrInvalidBirthDate
		}
	}
	return nil
}

// Apply copies every non-nil field of the patch onto the profile.
// Applying the same patch twice yields the same profile.
// POST: Returns true if any field changed
func (p *Profile) Apply(patch Patch) bool {
	changed := false
	set := func(dst *string, src *string) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		if *dst != v {
			*dst = v
			changed = true
		}
	}
	set(&p.FullName, patch.FullName)
	set(&p.Phone, patch.Phone)
	set(&p.Gender, patch.Gender)
	set(&p.Address, patch.Address)
	set(&p.DateOfBirth, patch.DateOfBirth)
	return changed
}

// IsEmpty reports whether the patch carries no fields.
func (p Patch) IsEmpty() bool {
	return p.FullName == nil && p.Phone == nil && p.Gender == nil && p.Address == nil && p.DateOfBirth == nil
}

// TutorDetails holds the tutor-only fields, keyed by profile ID.
type TutorDetails struct {
	ProfileID  string
	Education  string
	Experience string // markdown
	Subjects   []string
	HourlyRate int // cents
}

// TutorPatch carries a partial update of TutorDetails.
type TutorPatch struct {
	Education  *string
	Experience *string
	Subjects   *[]string
	HourlyRate *int
}

// Validate checks if the TutorDetails has valid data.
// PRE: TutorDetails struct is populated
// POST: Returns nil if valid, error otherwise
func (t *TutorDetails) Validate() error {
	if strings.TrimSpace(t.ProfileID) == "" {
		return ErrEmptyID
	}
	if len(t.Education) > MaxTextLength || len(t.Experience) > MaxTextLength {
		return ErrTextTooLong
	}
	if len(t.Subjects) > MaxSubjects {
		return ErrTooManySubjects
	}
	if t.HourlyRate < 0 {
		return ErrNegativeRate
	}
	return nil
}

// Apply copies every non-nil field of the patch onto the details.
// Subjects are normalised (trimmed, de-duplicated, empty entries dropped).
// POST: Returns true if any field changed
func (t *TutorDetails) Apply(patch TutorPatch) bool {
	changed := false
	if patch.Education != nil && t.Education != *patch.Education {
		t.Education = *patch.Education
		changed = true
	}
	if patch.Experience != nil && t.Experience != *patch.Experience {
		t.Experience = *patch.Experience
		changed = true
	}
	if patch.Subjects != nil {
		subjects := NormalizeSubjects(*patch.Subjects)
		if !equalStrings(t.Subjects, subjects) {
			t.Subjects = subjects
			changed = true
		}
	}
	if patch.HourlyRate != nil && t.HourlyRate != *patch.HourlyRate {
		t.HourlyRate = *patch.HourlyRate
		changed = true
	}
	return changed
}

// IsEmpty reports whether the patch carries no fields.
func (p TutorPatch) IsEmpty() bool {
	return p.Education == nil && p.Experience == nil && p.Subjects == nil && p.HourlyRate == nil
}

// NormalizeSubjects trims entries and drops blanks and duplicates, keeping order.
func NormalizeSubjects(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isValidGender(g string) bool {
	switch g {
	case "", GenderFemale, GenderMale, GenderOther:
		return true
	}
	return false
}
