package calendar

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// DayKey identifies a weekday the way timetable records store it:
// Monday=2 through Saturday=7, Sunday=8. 1 is never used.
type DayKey int

const (
	Monday DayKey = iota + 2
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var ErrInvalidDayKey = errors.New("invalid day key")

var dayNames = map[DayKey]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

// DayKeyOf returns the day key of the calendar date of t, in t's location.
func DayKeyOf(t time.Time) DayKey {
	wd := t.Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return DayKey(wd) + 1
}

// DayKeys returns the keys of a week, Monday first.
func DayKeys() []DayKey {
	return []DayKey{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// ParseDayKey accepts a stored key ("2".."8") or an english weekday name or its 3-letter prefix.
func ParseDayKey(s string) (DayKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if k := DayKey(n); k.Valid() {
			return k, nil
		}
		return 0, ErrInvalidDayKey
	}
	if len(s) >= 3 {
		for k, name := range dayNames {
			if strings.HasPrefix(strings.ToLower(name), s) {
				return k, nil
			}
		}
	}
	return 0, ErrInvalidDayKey
}

func (k DayKey) Valid() bool {
	return k >= Monday && k <= Sunday
}

func (k DayKey) Weekday() time.Weekday {
	if k == Sunday {
		return time.Sunday
	}
	return time.Weekday(k - 1)
}

// Date returns the date of k in the week starting on the Monday `weekStart`.
func (k DayKey) Date(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, int(k-Monday))
}

func (k DayKey) String() string {
	if name, ok := dayNames[k]; ok {
		return name
	}
	return "DayKey(" + strconv.Itoa(int(k)) + ")"
}

// WeekStart returns midnight of the Monday of t's week, in t's location.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(DayKeyOf(t)-Monday))
}
