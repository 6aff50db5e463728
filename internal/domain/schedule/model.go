package schedule

import (
	"errors"
	"strings"
	"time"
)

// Day of week constants
const (
	Monday    = "monday"
	Tuesday   = "tuesday"
	Wednesday = "wednesday"
	Thursday  = "thursday"
	Friday    = "friday"
	Saturday  = "saturday"
	Sunday    = "sunday"
)

// Shift constants. A shift on a given day is one slot.
const (
	ShiftMorning   = "morning"
	ShiftAfternoon = "afternoon"
	ShiftEvening   = "evening"
)

// Status constants
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// MaxNoteLength bounds the free-text note.
const MaxNoteLength = 500

// ValidDays contains all valid day values, in week order.
var ValidDays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ValidShifts contains all valid shift values, in day order.
var ValidShifts = []string{ShiftMorning, ShiftAfternoon, ShiftEvening}

// Domain errors
var (
	ErrEmptyStaffID     = errors.New("staff ID cannot be empty")
	ErrInvalidDay       = errors.New("day must be a valid day of the week")
	ErrInvalidShift     = errors.New("shift must be one of: morning, afternoon, evening")
	ErrInvalidStatus    = errors.New("status must be 'active' or 'cancelled'")
	ErrNoteTooLong      = errors.New("note cannot exceed 500 characters")
	ErrAlreadyCancelled = errors.New("schedule is already cancelled")
)

// Schedule assigns one staff member to one weekly shift slot.
type Schedule struct {
	ID        string
	StaffID   string
	Day       string
	Shift     string
	Status    string
	Note      string
	CreatedBy string
	CreatedAt time.Time
}

// Validate checks if the Schedule has valid data.
// PRE: Schedule struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Schedule) Validate() error {
	if strings.TrimSpace(s.StaffID) == "" {
		return ErrEmptyStaffID
	}
	if !contains(ValidDays, s.Day) {
		return ErrInvalidDay
	}
	if !contains(ValidShifts, s.Shift) {
		return ErrInvalidShift
	}
	if s.Status != StatusActive && s.Status != StatusCancelled {
		return ErrInvalidStatus
	}
	if len(s.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// IsActive returns true if the schedule still occupies its slot.
func (s *Schedule) IsActive() bool {
	return s.Status == StatusActive
}

// Cancel releases the slot.
// PRE: Schedule is active
// POST: Status is cancelled
func (s *Schedule) Cancel() error {
	if s.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	s.Status = StatusCancelled
	return nil
}

// DayIndex returns the position of day in the week (Monday = 0), or -1.
func DayIndex(day string) int {
	for i, d := range ValidDays {
		if d == day {
			return i
		}
	}
	return -1
}

// ShiftIndex returns the position of shift in the day, or -1.
func ShiftIndex(shift string) int {
	for i, s := range ValidShifts {
		if s == shift {
			return i
		}
	}
	return -1
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
