package schedule

import (
	"testing"

	"github.com/trezcool/ratiba/core/calendar"
)

func TestOverride_Apply(t *testing.T) {
	entry := Entry{ID: "e1", RoomID: "r1", Day: calendar.Monday, StartTime: "09:00", EndTime: "10:30"}

	tests := []struct {
		name          string
		override      Override
		wantRunning   bool
		wantStart     string
		wantEnd       string
		wantRoom      string
	}{
		{name: "cancelled", override: Override{Cancelled: true}, wantRunning: false, wantStart: "09:00", wantEnd: "10:30", wantRoom: "r1"},
		{name: "new start keeps duration", override: Override{StartTime: "13:00"}, wantRunning: true, wantStart: "13:00", wantEnd: "14:30", wantRoom: "r1"},
		{name: "new range", override: Override{StartTime: "13:00", EndTime: "13:45"}, wantRunning: true, wantStart: "13:00", wantEnd: "13:45", wantRoom: "r1"},
		{name: "new end", override: Override{EndTime: "10:00"}, wantRunning: true, wantStart: "09:00", wantEnd: "10:00", wantRoom: "r1"},
		{name: "room only", override: Override{RoomID: "r2"}, wantRunning: true, wantStart: "09:00", wantEnd: "10:30", wantRoom: "r2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, running := tt.override.Apply(entry)
			if running != tt.wantRunning {
				t.Errorf("Apply() running = %v; want %v", running, tt.wantRunning)
			}
			if got.StartTime != tt.wantStart || got.EndTime != tt.wantEnd || got.RoomID != tt.wantRoom {
				t.Errorf("Apply() = %s-%s @%s; want %s-%s @%s",
					got.StartTime, got.EndTime, got.RoomID, tt.wantStart, tt.wantEnd, tt.wantRoom)
			}
		})
	}
}

func TestQueryFilter_Match(t *testing.T) {
	entry := Entry{Subject: "Physics", ClassGroup: "6A", TeacherID: "t1", RoomID: "r1", Day: calendar.Monday}

	tests := []struct {
		name   string
		filter QueryFilter
		want   bool
	}{
		{name: "empty", filter: QueryFilter{}, want: true},
		{name: "search subject", filter: QueryFilter{Search: "phys"}, want: true},
		{name: "search group", filter: QueryFilter{Search: "6a"}, want: true},
		{name: "search miss", filter: QueryFilter{Search: "chem"}, want: false},
		{name: "rooms are OR'ed", filter: QueryFilter{RoomIDs: []string{"r2", "r1"}}, want: true},
		{name: "kinds are AND'ed", filter: QueryFilter{RoomIDs: []string{"r1"}, TeacherIDs: []string{"t2"}}, want: false},
		{name: "group is case-insensitive", filter: QueryFilter{ClassGroups: []string{"6a"}}, want: true},
		{name: "other day", filter: QueryFilter{Day: int(calendar.Tuesday)}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(entry); got != tt.want {
				t.Errorf("Match() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestQueryFilter_Clean(t *testing.T) {
	qf := QueryFilter{Search: "  maths ", RoomIDs: []string{" ", ""}, TeacherIDs: []string{" t1 "}, Day: 12}
	qf.Clean()
	if qf.Search != "maths" || qf.RoomIDs != nil || len(qf.TeacherIDs) != 1 || qf.TeacherIDs[0] != "t1" || qf.Day != 0 {
		t.Errorf("Clean() = %+v", qf)
	}
}

func TestOverrideFilter_Match(t *testing.T) {
	o := Override{EntryID: "e1", Date: "2024-03-04"}
	if !(OverrideFilter{DateFrom: "2024-03-04", DateTo: "2024-03-04"}).Match(o) {
		t.Error("Match() = false for an inclusive single-day range")
	}
	if (OverrideFilter{DateFrom: "2024-03-05"}).Match(o) {
		t.Error("Match() = true for a date before the range")
	}
	if (OverrideFilter{EntryIDs: []string{"e2"}}).Match(o) {
		t.Error("Match() = true for another entry")
	}
}
