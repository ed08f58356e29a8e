package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the number of minutes between two midnights.
const MinutesPerDay = 24 * 60

// NoClock marks a missing or malformed time of day.
const NoClock Clock = -1

var ErrInvalidClock = errors.New("invalid time of day")

// Clock is a time of day, in minutes since midnight.
type Clock int

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ClockOf returns the time of day of t, in t's location.
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

// ParseClock parses "H:MM", "HH:MM" or "HH:MM:SS". "24:00" is accepted as the end of the day.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return NoClock, ErrInvalidClock
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		if len(p) == 0 || len(p) > 2 || (i > 0 && len(p) != 2) {
			return NoClock, ErrInvalidClock
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return NoClock, ErrInvalidClock
		}
		nums[i] = n
	}
	hour, minute := nums[0], nums[1]
	if minute > 59 || (len(nums) == 3 && nums[2] > 59) {
		return NoClock, ErrInvalidClock
	}
	if hour > 23 && !(hour == 24 && minute == 0 && (len(nums) == 2 || nums[2] == 0)) {
		return NoClock, ErrInvalidClock
	}
	return NewClock(hour, minute), nil
}

// ClockOrNone is ParseClock returning NoClock instead of an error.
func ClockOrNone(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		return NoClock
	}
	return c
}

func (c Clock) Valid() bool {
	return c >= 0 && c <= MinutesPerDay
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// Add returns c shifted by `minutes`, clamped to the day.
func (c Clock) Add(minutes int) Clock {
	if !c.Valid() {
		return c
	}
	r := Clock(int(c) + minutes)
	if r < 0 {
		return 0
	}
	if r > MinutesPerDay {
		return MinutesPerDay
	}
	return r
}

// On returns the instant of c on the day of `date`, in date's location.
// The wall-clock time is kept on daylight saving days; 24:00 is midnight of the next day.
func (c Clock) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, date.Location())
}

// String formats c as "HH:MM"; invalid clocks format as an empty string.
func (c Clock) String() string {
	if !c.Valid() {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}
