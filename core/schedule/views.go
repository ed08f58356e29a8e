package schedule

import (
	"time"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/calendar"
)

type (
	// DayItem is an occurrence of an Entry on a given date, positioned in the day column.
	DayItem struct {
		Entry        Entry        `json:"entry"` // with the override applied
		Room         *Room        `json:"room,omitempty"`
		Override     *Override    `json:"override,omitempty"`
		Column       int          `json:"column"`
		TotalColumns int          `json:"total_columns"`
		Box          calendar.Box `json:"box"`
	}

	DayView struct {
		Date  string          `json:"date"` // YYYY-MM-DD
		Day   calendar.DayKey `json:"day"`
		Label string          `json:"label"`
		Items []DayItem       `json:"items"`
	}

	WeekView struct {
		From string    `json:"from"` // Monday, YYYY-MM-DD
		To   string    `json:"to"`   // Sunday, YYYY-MM-DD
		Days []DayView `json:"days"`
	}

	// Conflict is a pair of occurrences overlapping in time and sharing a room or a teacher.
	Conflict struct {
		Reason string  `json:"reason"` // room | teacher
		A      DayItem `json:"a"`
		B      DayItem `json:"b"`
	}
)

// occurrences returns the entries running on `date` with their overrides applied, in start order.
func occurrences(snap *Snapshot, date time.Time) ([]Entry, map[string]Override) {
	entries := snap.Entries[calendar.DayKeyOf(date)]
	overrides := snap.OverridesOf(date.Format(core.DateLayout))

	occ := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if o, ok := overrides[e.ID]; ok {
			applied, running := o.Apply(e)
			if !running {
				continue
			}
			e = applied
		}
		occ = append(occ, e)
	}
	return occ, overrides
}

func (svc *service) Day(date time.Time, filter QueryFilter) DayView {
	filter.Clean()
	filter.Day = 0 // the date decides the day
	return svc.day(svc.store.Current(), date.In(svc.opts.Location), filter)
}

func (svc *service) day(snap *Snapshot, date time.Time, filter QueryFilter) DayView {
	key := calendar.DayKeyOf(date)
	view := DayView{
		Date:  date.Format(core.DateLayout),
		Day:   key,
		Label: key.String(),
		Items: []DayItem{},
	}

	occ, overrides := occurrences(snap, date)
	events := make([]calendar.Event, 0, len(occ))
	for _, e := range occ {
		if !filter.Match(e) {
			continue
		}
		item := DayItem{Entry: e}
		if room, ok := snap.Rooms[e.RoomID]; ok {
			item.Room = &room
		}
		if o, ok := overrides[e.ID]; ok {
			item.Override = &o
		}
		view.Items = append(view.Items, item)
		events = append(events, e.Event())
	}

	started := time.Now()
	positioned := calendar.Layout(events)
	if svc.opts.ObserveLayout != nil {
		svc.opts.ObserveLayout(time.Since(started), len(events))
	}
	boxes := svc.opts.Geometry.Boxes(positioned)
	for i, pe := range positioned {
		view.Items[i].Column = pe.Column
		view.Items[i].TotalColumns = pe.TotalColumns
		view.Items[i].Box = boxes[i]
	}
	return view
}

func (svc *service) Week(date time.Time, filter QueryFilter) WeekView {
	filter.Clean()
	filter.Day = 0

	snap := svc.store.Current() // one snapshot for the whole week
	monday := calendar.WeekStart(date.In(svc.opts.Location))
	week := WeekView{
		From: monday.Format(core.DateLayout),
		To:   calendar.Sunday.Date(monday).Format(core.DateLayout),
		Days: make([]DayView, 0, 7),
	}
	for _, key := range calendar.DayKeys() {
		week.Days = append(week.Days, svc.day(snap, key.Date(monday), filter))
	}
	return week
}

func (svc *service) Conflicts(date time.Time) []Conflict {
	view := svc.day(svc.store.Current(), date.In(svc.opts.Location), QueryFilter{})
	events := make([]calendar.Event, len(view.Items))
	for i, item := range view.Items {
		events[i] = item.Entry.Event()
	}

	conflicts := make([]Conflict, 0)
	for _, cluster := range calendar.Clusters(events) {
		for x := 0; x < len(cluster); x++ {
			for y := x + 1; y < len(cluster); y++ {
				i, j := cluster[x], cluster[y]
				if i > j {
					i, j = j, i
				}
				if !events[i].Overlaps(events[j]) {
					continue
				}
				a, b := view.Items[i], view.Items[j]
				if a.Entry.RoomID != "" && a.Entry.RoomID == b.Entry.RoomID {
					conflicts = append(conflicts, Conflict{Reason: "room", A: a, B: b})
				}
				if a.Entry.TeacherID != "" && a.Entry.TeacherID == b.Entry.TeacherID {
					conflicts = append(conflicts, Conflict{Reason: "teacher", A: a, B: b})
				}
			}
		}
	}
	return conflicts
}
