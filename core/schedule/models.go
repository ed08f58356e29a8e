package schedule

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/calendar"
)

type (
	Room struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Capacity  int       `json:"capacity"`
		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	// Entry is a weekly recurring class slot of the timetable.
	Entry struct {
		ID         string          `json:"id"`
		Subject    string          `json:"subject"`
		ClassGroup string          `json:"class_group"`
		TeacherID  string          `json:"teacher_id"`
		RoomID     string          `json:"room_id"`
		Day        calendar.DayKey `json:"day"`
		StartTime  string          `json:"start_time"` // HH:MM
		EndTime    string          `json:"end_time"`   // HH:MM
		Color      string          `json:"color"`
		CreatedAt  time.Time       `json:"created_at"` // UTC
		UpdatedAt  time.Time       `json:"updated_at"` // UTC
	}

	// Override changes a single occurrence of an Entry: cancels it, or reschedules it within its day
	// and/or moves it to another room.
	Override struct {
		ID        string    `json:"id"`
		EntryID   string    `json:"entry_id"`
		Date      string    `json:"date"` // YYYY-MM-DD
		Cancelled bool      `json:"cancelled"`
		StartTime string    `json:"start_time"`
		EndTime   string    `json:"end_time"`
		RoomID    string    `json:"room_id"`
		Note      string    `json:"note"`
		CreatedAt time.Time `json:"created_at"` // UTC
	}
)

func (e Entry) Start() calendar.Clock { return calendar.ClockOrNone(e.StartTime) }
func (e Entry) End() calendar.Clock   { return calendar.ClockOrNone(e.EndTime) }

// Duration returns the duration of the entry in minutes, 0 when its times are malformed.
func (e Entry) Duration() int {
	start, end := e.Start(), e.End()
	if !start.Valid() || !end.Valid() || end < start {
		return 0
	}
	return int(end - start)
}

func (e Entry) Event() calendar.Event {
	return calendar.Event{ID: e.ID, Title: e.Subject, Start: e.Start(), End: e.End()}
}

// Apply returns the entry as it runs on the override's date, and false if the occurrence is cancelled.
func (o Override) Apply(e Entry) (Entry, bool) {
	if o.Cancelled {
		return e, false
	}
	switch {
	case o.StartTime != "" && o.EndTime != "":
		e.StartTime, e.EndTime = o.StartTime, o.EndTime
	case o.StartTime != "":
		// keep the duration
		dur := e.Duration()
		e.StartTime = o.StartTime
		e.EndTime = calendar.ClockOrNone(o.StartTime).Add(dur).String()
	case o.EndTime != "":
		e.EndTime = o.EndTime
	}
	if o.RoomID != "" {
		e.RoomID = o.RoomID
	}
	return e, true
}

// NewRoom contains information needed to create a new Room.
type NewRoom struct {
	Name     string `json:"name" validate:"required,notblank"`
	Capacity int    `json:"capacity" validate:"min=0"`
}

func (nr *NewRoom) Validate(validate *validator.Validate) error {
	nr.Name = core.CleanString(nr.Name)
	return validate.Struct(nr)
}

// NewEntry contains information needed to create a new timetable Entry.
type NewEntry struct {
	Subject    string `json:"subject" validate:"required"`
	ClassGroup string `json:"class_group" validate:"required"`
	TeacherID  string `json:"teacher_id"`
	RoomID     string `json:"room_id"`
	Day        int    `json:"day" validate:"required,daykey"`
	StartTime  string `json:"start_time" validate:"required,clocktime"`
	EndTime    string `json:"end_time" validate:"required,clocktime"`
	Color      string `json:"color" validate:"omitempty,hexcolor"`
}

func (ne *NewEntry) Clean() {
	ne.Subject = core.CleanString(ne.Subject)
	ne.ClassGroup = core.CleanString(ne.ClassGroup)
	ne.TeacherID = core.CleanString(ne.TeacherID)
	ne.RoomID = core.CleanString(ne.RoomID)
	ne.StartTime = normalizeClock(ne.StartTime)
	ne.EndTime = normalizeClock(ne.EndTime)
	ne.Color = core.CleanString(ne.Color, true /* lower */)
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.Clean()
	return validate.Struct(ne)
}

// UpdateEntry defines what information may be provided to modify an existing Entry.
// Blank fields keep their current value.
type UpdateEntry struct {
	Subject    string `json:"subject"`
	ClassGroup string `json:"class_group"`
	TeacherID  string `json:"teacher_id"`
	RoomID     string `json:"room_id"`
	Day        int    `json:"day" validate:"daykey"`
	StartTime  string `json:"start_time" validate:"clocktime"`
	EndTime    string `json:"end_time" validate:"clocktime"`
	Color      string `json:"color" validate:"omitempty,hexcolor"`
}

func (ue *UpdateEntry) Validate(orig Entry, validate *validator.Validate) error {
	merge := func(val, origVal string) string {
		if val = core.CleanString(val); val != "" {
			return val
		}
		return origVal
	}
	ue.Subject = merge(ue.Subject, orig.Subject)
	ue.ClassGroup = merge(ue.ClassGroup, orig.ClassGroup)
	ue.TeacherID = merge(ue.TeacherID, orig.TeacherID)
	ue.RoomID = merge(ue.RoomID, orig.RoomID)
	ue.StartTime = merge(normalizeClock(ue.StartTime), orig.StartTime)
	ue.EndTime = merge(normalizeClock(ue.EndTime), orig.EndTime)
	ue.Color = merge(strings.ToLower(ue.Color), orig.Color)
	if ue.Day == 0 {
		ue.Day = int(orig.Day)
	}
	return validate.Struct(ue)
}

// MoveEntry is a drag-and-drop of an Entry on the calendar: a new day and/or start time.
// The duration is kept unless a new end time is given.
type MoveEntry struct {
	Day       int    `json:"day" validate:"omitempty,daykey"`
	StartTime string `json:"start_time" validate:"required,clocktime"`
	EndTime   string `json:"end_time" validate:"omitempty,clocktime"`
}

func (me *MoveEntry) Validate(validate *validator.Validate) error {
	me.StartTime = normalizeClock(me.StartTime)
	me.EndTime = normalizeClock(me.EndTime)
	return validate.Struct(me)
}

// NewOverride contains information needed to cancel or reschedule one occurrence of an Entry.
type NewOverride struct {
	EntryID   string `json:"entry_id" validate:"required"`
	Date      string `json:"date" validate:"required,isodate"`
	Cancelled bool   `json:"cancelled"`
	StartTime string `json:"start_time" validate:"omitempty,clocktime"`
	EndTime   string `json:"end_time" validate:"omitempty,clocktime"`
	RoomID    string `json:"room_id"`
	Note      string `json:"note"`
}

func (no *NewOverride) Validate(validate *validator.Validate) error {
	no.EntryID = core.CleanString(no.EntryID)
	no.Date = core.CleanString(no.Date)
	no.StartTime = normalizeClock(no.StartTime)
	no.EndTime = normalizeClock(no.EndTime)
	no.RoomID = core.CleanString(no.RoomID)
	no.Note = core.CleanString(no.Note)
	return validate.Struct(no)
}

type RoomFilter struct {
	Search string   `query:"search"`
	IDs    []string `query:"id"`
}

func (rf *RoomFilter) Clean() {
	rf.Search = core.CleanString(rf.Search)
	rf.IDs = core.CleanStrings(rf.IDs)
	if len(rf.IDs) == 0 {
		rf.IDs = nil
	}
}

func (rf RoomFilter) Match(r Room) bool {
	if rf.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(rf.Search)) {
		return false
	}
	return len(rf.IDs) == 0 || contains(rf.IDs, r.ID)
}

// QueryFilter holds the calendar filters. Filters of the same kind are OR'ed, kinds are AND'ed.
type QueryFilter struct {
	Search      string   `query:"search"`
	RoomIDs     []string `query:"room"`
	TeacherIDs  []string `query:"teacher"`
	ClassGroups []string `query:"group"`
	Day         int      `query:"day"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.RoomIDs == nil && qf.TeacherIDs == nil && qf.ClassGroups == nil && qf.Day == 0
}

func (qf *QueryFilter) Clean() {
	clean := func(ss []string) []string {
		if ss = core.CleanStrings(ss); len(ss) == 0 {
			return nil
		}
		return ss
	}
	qf.Search = core.CleanString(qf.Search)
	qf.RoomIDs = clean(qf.RoomIDs)
	qf.TeacherIDs = clean(qf.TeacherIDs)
	qf.ClassGroups = clean(qf.ClassGroups)
	if !calendar.DayKey(qf.Day).Valid() {
		qf.Day = 0
	}
}

// Match reports whether `e` satisfies the filter.
// Search is a case-insensitive match on one of Subject or ClassGroup.
func (qf QueryFilter) Match(e Entry) bool {
	if qf.Day != 0 && int(e.Day) != qf.Day {
		return false
	}
	if qf.Search != "" {
		search := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(e.Subject), search) || strings.Contains(strings.ToLower(e.ClassGroup), search)) {
			return false
		}
	}
	if len(qf.RoomIDs) > 0 && !contains(qf.RoomIDs, e.RoomID) {
		return false
	}
	if len(qf.TeacherIDs) > 0 && !contains(qf.TeacherIDs, e.TeacherID) {
		return false
	}
	if len(qf.ClassGroups) > 0 && !containsFold(qf.ClassGroups, e.ClassGroup) {
		return false
	}
	return true
}

type OverrideFilter struct {
	EntryIDs []string `query:"entry"`
	DateFrom string   `query:"date_from"` // YYYY-MM-DD, inclusive
	DateTo   string   `query:"date_to"`   // YYYY-MM-DD, inclusive
}

func (of OverrideFilter) Match(o Override) bool {
	if len(of.EntryIDs) > 0 && !contains(of.EntryIDs, o.EntryID) {
		return false
	}
	if of.DateFrom != "" && o.Date < of.DateFrom {
		return false
	}
	if of.DateTo != "" && o.Date > of.DateTo {
		return false
	}
	return true
}

// normalizeClock formats valid clock times as HH:MM and leaves anything else for validation to report.
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

func containsFold(ss []string, s string) bool {
	for _, v := range ss {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
