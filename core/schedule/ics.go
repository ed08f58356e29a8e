package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/pkg/errors"
	"github.com/teambition/rrule-go"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/calendar"
)

const (
	icsProductID = "-//Ratiba//Timetable//EN"
	icsUIDDomain = "ratiba"
	icsTimestamp = "20060102T150405Z"
	icsLocalTime = "20060102T150405"
)

// Session is one dated occurrence of an Entry.
type Session struct {
	EntryID   string    `json:"entry_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	RoomID    string    `json:"room_id"`
	Cancelled bool      `json:"cancelled"`
	Override  *Override `json:"override,omitempty"`
}

// recurrence returns the weekly rule of `e` over [from, to], nil when no occurrence falls in the range.
func recurrence(e Entry, from, to time.Time) (*rrule.RRule, error) {
	start := e.Start()
	if !start.Valid() || !e.Day.Valid() {
		return nil, nil
	}
	first := start.On(e.Day.Date(calendar.WeekStart(from)))
	if first.Before(from) {
		first = first.AddDate(0, 0, 7)
	}
	if first.After(to) {
		return nil, nil
	}
	r, err := rrule.NewRRule(rrule.ROption{Freq: rrule.WEEKLY, Dtstart: first, Until: to})
	if err != nil {
		return nil, errors.Wrap(err, "building recurrence rule")
	}
	return r, nil
}

func (svc *service) findEntry(snap *Snapshot, id string) (Entry, bool) {
	for _, entries := range snap.Entries {
		for _, e := range entries {
			if e.ID == id {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// Sessions lists the occurrences of an entry between `from` and `to`, with their overrides applied.
func (svc *service) Sessions(entryID string, from, to time.Time) ([]Session, error) {
	snap := svc.store.Current()
	entry, ok := svc.findEntry(snap, core.CleanString(entryID))
	if !ok {
		return nil, ErrEntryNotFound
	}
	from, to = from.In(svc.opts.Location), to.In(svc.opts.Location)

	sessions := make([]Session, 0)
	r, err := recurrence(entry, from, to)
	if err != nil || r == nil {
		return sessions, err
	}

	var set rrule.Set
	set.RRule(r)
	for _, occ := range set.Between(from, to, true) {
		date := occ.Format(core.DateLayout)
		sess := Session{EntryID: entry.ID, Date: date, RoomID: entry.RoomID}
		e := entry
		if o, ok := snap.OverridesOf(date)[entry.ID]; ok {
			o := o
			sess.Override = &o
			var running bool
			if e, running = o.Apply(entry); !running {
				sess.Cancelled = true
				e = entry
			}
			sess.RoomID = e.RoomID
		}
		start, end := e.Event().Span()
		sess.Start, sess.End = start.On(occ), end.On(occ)
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// ExportICS renders the timetable between `from` and `to` as an iCalendar document:
// one weekly recurring event per entry, cancelled occurrences excluded, rescheduled ones as separate events.
func (svc *service) ExportICS(filter QueryFilter, from, to time.Time) (string, error) {
	filter.Clean()
	snap := svc.store.Current()
	loc := svc.opts.Location
	from, to = from.In(loc), to.In(loc)
	now := time.Now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName("Timetable")
	cal.SetXWRTimezone(loc.String())

	entries := make([]Entry, 0)
	for _, key := range calendar.DayKeys() {
		for _, e := range snap.Entries[key] {
			if filter.Match(e) {
				entries = append(entries, e)
			}
		}
	}
	overridesByEntry := make(map[string][]Override)
	for date, overrides := range snap.Overrides {
		if date < from.Format(core.DateLayout) || date > to.Format(core.DateLayout) {
			continue
		}
		for _, o := range overrides {
			overridesByEntry[o.EntryID] = append(overridesByEntry[o.EntryID], o)
		}
	}

	for _, e := range entries {
		r, err := recurrence(e, from, to)
		if err != nil {
			return "", errors.Wrapf(err, "exporting entry %s", e.ID)
		}
		if r == nil {
			continue
		}
		first := r.OrigOptions.Dtstart
		start, end := e.Event().Span()

		ev := cal.AddEvent(fmt.Sprintf("%s@%s", e.ID, icsUIDDomain))
		svc.fillEvent(ev, snap, e, now)
		svc.setTime(ev, ics.ComponentPropertyDtStart, first)
		svc.setTime(ev, ics.ComponentPropertyDtEnd, end.On(first))
		ev.AddProperty(ics.ComponentPropertyRrule, r.OrigOptions.RRuleString())

		overrides := overridesByEntry[e.ID]
		sort.Slice(overrides, func(i, j int) bool { return overrides[i].Date < overrides[j].Date })
		seen := make(map[string]bool, len(overrides))
		for _, o := range overrides {
			if seen[o.Date] {
				continue
			}
			seen[o.Date] = true
			o = snap.OverridesOf(o.Date)[e.ID] // latest override of the date

			date, err := core.ParseDate(o.Date, loc)
			if err != nil {
				continue
			}
			value, params := svc.icsTime(start.On(date))
			ev.AddProperty(ics.ComponentPropertyExdate, value, params...)

			moved, running := o.Apply(e)
			if !running {
				continue
			}
			mStart, mEnd := moved.Event().Span()
			mev := cal.AddEvent(fmt.Sprintf("%s-%s@%s", e.ID, o.Date, icsUIDDomain))
			svc.fillEvent(mev, snap, moved, now)
			svc.setTime(mev, ics.ComponentPropertyDtStart, mStart.On(date))
			svc.setTime(mev, ics.ComponentPropertyDtEnd, mEnd.On(date))
		}
	}
	return cal.Serialize(), nil
}

// icsTime formats `t` as a wall-clock time of the timetable's zone, so that weekly rules
// keep their local hour across daylight saving changes. UTC times keep the "Z" form.
func (svc *service) icsTime(t time.Time) (string, []ics.PropertyParameter) {
	loc := svc.opts.Location
	if loc == nil || loc.String() == time.UTC.String() {
		return t.UTC().Format(icsTimestamp), nil
	}
	return t.In(loc).Format(icsLocalTime), []ics.PropertyParameter{ics.WithTZID(loc.String())}
}

func (svc *service) setTime(ev *ics.VEvent, prop ics.ComponentProperty, t time.Time) {
	value, params := svc.icsTime(t)
	ev.SetProperty(prop, value, params...)
}

func (svc *service) fillEvent(ev *ics.VEvent, snap *Snapshot, e Entry, now time.Time) {
	ev.SetDtStampTime(now)
	ev.SetCreatedTime(e.CreatedAt)
	ev.SetModifiedAt(e.UpdatedAt)
	ev.SetSummary(strings.TrimSpace(e.Subject + " - " + e.ClassGroup))
	if room, ok := snap.Rooms[e.RoomID]; ok {
		ev.SetLocation(room.Name)
	}
	if e.Color != "" {
		ev.SetProperty(ics.ComponentPropertyColor, e.Color)
	}
}
