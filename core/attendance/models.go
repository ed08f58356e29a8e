package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/calendar"
)

// Statuses
const (
	StatusPresent = "present"
	StatusLate    = "late"
	StatusAbsent  = "absent"
	StatusLeave   = "leave"
)

var Statuses = []string{StatusPresent, StatusLate, StatusAbsent, StatusLeave}

// Record is the attendance of one staff member on one date.
type Record struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staff_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Status    string    `json:"status"`
	CheckIn   string    `json:"check_in"`  // HH:MM, blank if unknown
	CheckOut  string    `json:"check_out"` // HH:MM, blank if unknown
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// WorkedMinutes returns the minutes between check-in and check-out, 0 when either is missing or malformed.
func (r Record) WorkedMinutes() int {
	in, out := calendar.ClockOrNone(r.CheckIn), calendar.ClockOrNone(r.CheckOut)
	if !in.Valid() || !out.Valid() || out <= in {
		return 0
	}
	return int(out - in)
}

func isAway(status string) bool {
	return status == StatusAbsent || status == StatusLeave
}

// NewRecord contains information needed to log the attendance of a staff member.
type NewRecord struct {
	StaffID  string `json:"staff_id" validate:"required"`
	Date     string `json:"date" validate:"required,isodate"`
	Status   string `json:"status" validate:"required,oneof=present late absent leave"`
	CheckIn  string `json:"check_in" validate:"omitempty,clocktime"`
	CheckOut string `json:"check_out" validate:"omitempty,clocktime"`
	Note     string `json:"note"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.StaffID = core.CleanString(nr.StaffID)
	nr.Date = core.CleanString(nr.Date)
	nr.Status = core.CleanString(nr.Status, true /* lower */)
	nr.CheckIn = normalizeClock(nr.CheckIn)
	nr.CheckOut = normalizeClock(nr.CheckOut)
	nr.Note = core.CleanString(nr.Note)
	return validate.Struct(nr)
}

// UpdateRecord defines what information may be provided to modify an existing Record.
// Blank fields keep their current value, except clock times when the status becomes absent or leave.
type UpdateRecord struct {
	Status   string `json:"status" validate:"required,oneof=present late absent leave"`
	CheckIn  string `json:"check_in" validate:"omitempty,clocktime"`
	CheckOut string `json:"check_out" validate:"omitempty,clocktime"`
	Note     string `json:"note"`
}

func (ur *UpdateRecord) Validate(orig Record, validate *validator.Validate) error {
	if status := core.CleanString(ur.Status, true /* lower */); status != "" {
		ur.Status = status
	} else {
		ur.Status = orig.Status
	}

	ur.CheckIn = normalizeClock(ur.CheckIn)
	ur.CheckOut = normalizeClock(ur.CheckOut)
	if !isAway(ur.Status) {
		if ur.CheckIn == "" {
			ur.CheckIn = orig.CheckIn
		}
		if ur.CheckOut == "" {
			ur.CheckOut = orig.CheckOut
		}
	}

	if note := core.CleanString(ur.Note); note != "" {
		ur.Note = note
	} else {
		ur.Note = orig.Note
	}
	return validate.Struct(ur)
}

type QueryFilter struct {
	StaffIDs []string `query:"staff"`
	Statuses []string `query:"status"`
	DateFrom string   `query:"date_from"` // YYYY-MM-DD, inclusive
	DateTo   string   `query:"date_to"`   // YYYY-MM-DD, inclusive
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StaffIDs == nil && qf.Statuses == nil && qf.DateFrom == "" && qf.DateTo == ""
}

func (qf *QueryFilter) Clean() {
	qf.StaffIDs = core.CleanStrings(qf.StaffIDs)
	if len(qf.StaffIDs) == 0 {
		qf.StaffIDs = nil
	}
	qf.Statuses = core.CleanStrings(qf.Statuses, true /* lower */)
	if len(qf.Statuses) == 0 {
		qf.Statuses = nil
	}
	qf.DateFrom = core.CleanString(qf.DateFrom)
	qf.DateTo = core.CleanString(qf.DateTo)
}

func (qf QueryFilter) Match(r Record) bool {
	if len(qf.StaffIDs) > 0 && !contains(qf.StaffIDs, r.StaffID) {
		return false
	}
	if len(qf.Statuses) > 0 && !contains(qf.Statuses, r.Status) {
		return false
	}
	if qf.DateFrom != "" && r.Date < qf.DateFrom {
		return false
	}
	if qf.DateTo != "" && r.Date > qf.DateTo {
		return false
	}
	return true
}

// Summary aggregates the records of one staff member.
type Summary struct {
	StaffID       string `json:"staff_id"`
	Present       int    `json:"present"`
	Late          int    `json:"late"`
	Absent        int    `json:"absent"`
	Leave         int    `json:"leave"`
	Total         int    `json:"total"`
	WorkedMinutes int    `json:"worked_minutes"`
}

func (s *Summary) add(r Record) {
	switch r.Status {
	case StatusPresent:
		s.Present++
	case StatusLate:
		s.Late++
	case StatusAbsent:
		s.Absent++
	case StatusLeave:
		s.Leave++
	}
	s.Total++
	s.WorkedMinutes += r.WorkedMinutes()
}

func normalizeClock(s string) string {
	s = core.CleanString(s)
	if c, err := calendar.ParseClock(s); err == nil {
		return c.String()
	}
	return s
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
