package tests

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ratiba/core/calendar"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/staff"
	"github.com/trezcool/ratiba/tests"
)

// 2024-03-04 is a Monday
const (
	monday  = "2024-03-04"
	tuesday = "2024-03-05"
)

func Test_roomApi(t *testing.T) {
	testutil.ResetDB(t, db)
	lab := testutil.CreateRoom(t, scheduleRepo, "Lab", 30)
	hall := testutil.CreateRoom(t, scheduleRepo, "Main hall", 200)
	entry := testutil.CreateEntry(t, scheduleRepo, "Chemistry", "6A", "", lab.ID, calendar.Monday, "08:00", "09:00")
	refreshSnapshot(t)

	t.Run("create", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/rooms", []byte(`{"name": "  "}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		}, rec)

		req, rec = newRequest(http.MethodPost, "/v1/rooms", []byte(`{"name": " Library ", "capacity": 40}`))
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusCreated}, rec)
		var got schedule.Room
		unmarshal(t, rec, &got)
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "Library", got.Name)
		assert.Equal(t, 40, got.Capacity)
	})

	t.Run("query", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/rooms?search=HALL")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, hall)}, rec)

		req, rec = newRequest(http.MethodGet, "/v1/rooms/"+lab.ID)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, lab)}, rec)
	})

	t.Run("delete detaches entries", func(t *testing.T) {
		req, rec := newRequest(http.MethodDelete, "/v1/rooms/"+lab.ID)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusNoContent}, rec)

		req, rec = newRequest(http.MethodGet, "/v1/schedule/entries/"+entry.ID)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)
		var got schedule.Entry
		unmarshal(t, rec, &got)
		assert.Empty(t, got.RoomID)
	})
}

func Test_scheduleApi_createEntry(t *testing.T) {
	testutil.ResetDB(t, db)
	room := testutil.CreateRoom(t, scheduleRepo, "Room 1", 30)
	teacher := testutil.CreateStaff(t, staffRepo, "Teacher", "teacher@test.cd", []string{staff.RoleTeacher}, true)

	tests := []httpTest{
		{
			name: "required fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"subject":     "this field is required",
				"class_group": "this field is required",
				"day":         "this field is required",
				"start_time":  "this field is required",
				"end_time":    "this field is required",
			}),
		},
		{
			name:     "bad day & range",
			body:     []byte(`{"subject": "Maths", "class_group": "6A", "day": 9, "start_time": "10:00", "end_time": "09:00"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"day":      "day must be between 2 (Monday) and 8 (Sunday)",
				"end_time": "end time must be after start time",
			}),
		},
		{
			name:     "unknown references",
			body:     []byte(`{"subject": "Maths", "class_group": "6A", "day": 2, "start_time": "09:00", "end_time": "10:00", "room_id": "lol", "teacher_id": "lol"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"room_id":    "unknown room",
				"teacher_id": "unknown teacher",
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/schedule/entries", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("success", func(t *testing.T) {
		body := `{"subject": "Maths", "class_group": "6A", "day": 2, "start_time": "9:00", "end_time": "10:30", ` +
			`"room_id": "` + room.ID + `", "teacher_id": "` + teacher.ID + `", "color": "#FFAA00"}`
		req, rec := newRequest(http.MethodPost, "/v1/schedule/entries", []byte(body))
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusCreated}, rec)

		var got schedule.Entry
		unmarshal(t, rec, &got)
		assert.Equal(t, calendar.Monday, got.Day)
		assert.Equal(t, "09:00", got.StartTime)
		assert.Equal(t, "10:30", got.EndTime)
		assert.Equal(t, "#ffaa00", got.Color)

		// the write is visible on the calendar right away
		req, rec = newRequest(http.MethodGet, "/v1/schedule/day?date="+monday)
		app.ServeHTTP(rec, req)
		var view schedule.DayView
		unmarshal(t, rec, &view)
		if assert.Len(t, view.Items, 1) {
			assert.Equal(t, got.ID, view.Items[0].Entry.ID)
			assert.Equal(t, room.Name, view.Items[0].Room.Name)
		}
	})
}

func Test_scheduleApi_views(t *testing.T) {
	testutil.ResetDB(t, db)
	room := testutil.CreateRoom(t, scheduleRepo, "Room 1", 30)
	teacher := testutil.CreateStaff(t, staffRepo, "Teacher", "teacher@test.cd", []string{staff.RoleTeacher}, true)
	a := testutil.CreateEntry(t, scheduleRepo, "A", "6A", teacher.ID, room.ID, calendar.Monday, "09:00", "10:00")
	b := testutil.CreateEntry(t, scheduleRepo, "B", "6B", "", room.ID, calendar.Monday, "09:30", "10:30")
	c := testutil.CreateEntry(t, scheduleRepo, "C", "6C", teacher.ID, "", calendar.Monday, "10:00", "11:00")
	tue := testutil.CreateEntry(t, scheduleRepo, "T", "6A", "", "", calendar.Tuesday, "09:00", "10:00")
	refreshSnapshot(t)

	getDay := func(t *testing.T, query string) schedule.DayView {
		req, rec := newRequest(http.MethodGet, "/v1/schedule/day?"+query)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)
		var view schedule.DayView
		unmarshal(t, rec, &view)
		return view
	}

	t.Run("day", func(t *testing.T) {
		view := getDay(t, "date="+monday)
		assert.Equal(t, monday, view.Date)
		assert.Equal(t, calendar.Monday, view.Day)
		if assert.Len(t, view.Items, 3) {
			for i, want := range []struct {
				id           string
				column, cols int
				box          calendar.Box
			}{
				{a.ID, 0, 2, calendar.Box{Top: 120, Height: 60, Left: 0, Width: 50}},
				{b.ID, 1, 2, calendar.Box{Top: 150, Height: 60, Left: 50, Width: 50}},
				{c.ID, 0, 2, calendar.Box{Top: 180, Height: 60, Left: 0, Width: 50}},
			} {
				item := view.Items[i]
				assert.Equal(t, want.id, item.Entry.ID)
				assert.Equal(t, want.column, item.Column)
				assert.Equal(t, want.cols, item.TotalColumns)
				assert.Equal(t, want.box, item.Box)
			}
		}

		view = getDay(t, "date="+monday+"&room="+room.ID)
		assert.Len(t, view.Items, 2)

		view = getDay(t, "date="+tuesday)
		if assert.Len(t, view.Items, 1) {
			assert.Equal(t, tue.ID, view.Items[0].Entry.ID)
			assert.Equal(t, 1, view.Items[0].TotalColumns)
		}

		req, rec := newRequest(http.MethodGet, "/v1/schedule/day?date=04/03/2024")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": "date must be a valid date (YYYY-MM-DD)"}),
		}, rec)
	})

	t.Run("week", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/schedule/week?date=2024-03-07")
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)
		var week schedule.WeekView
		unmarshal(t, rec, &week)
		assert.Equal(t, monday, week.From)
		assert.Equal(t, "2024-03-10", week.To)
		if assert.Len(t, week.Days, 7) {
			assert.Len(t, week.Days[0].Items, 3)
			assert.Len(t, week.Days[1].Items, 1)
			assert.Empty(t, week.Days[6].Items)
		}
	})

	t.Run("conflicts", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/schedule/conflicts?date="+monday)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)
		var conflicts []schedule.Conflict
		unmarshal(t, rec, &conflicts)
		// A & B share the room; A & C touch but do not overlap
		if assert.Len(t, conflicts, 1) {
			assert.Equal(t, "room", conflicts[0].Reason)
			assert.Equal(t, a.ID, conflicts[0].A.Entry.ID)
			assert.Equal(t, b.ID, conflicts[0].B.Entry.ID)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/schedule/overrides",
			[]byte(`{"entry_id": "`+b.ID+`", "date": "`+tuesday+`", "cancelled": true}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": "date does not fall on the day of the class"}),
		}, rec)

		req, rec = newRequest(http.MethodPost, "/v1/schedule/overrides",
			[]byte(`{"entry_id": "`+b.ID+`", "date": "`+monday+`"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusBadRequest}, rec)

		req, rec = newRequest(http.MethodPost, "/v1/schedule/overrides",
			[]byte(`{"entry_id": "`+b.ID+`", "date": "`+monday+`", "cancelled": true, "note": "trip"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusCreated}, rec)
		var cancel schedule.Override
		unmarshal(t, rec, &cancel)

		view := getDay(t, "date="+monday)
		if assert.Len(t, view.Items, 2) {
			for _, item := range view.Items {
				assert.Equal(t, 1, item.TotalColumns)
			}
		}
		// next week is untouched
		view = getDay(t, "date=2024-03-11")
		assert.Len(t, view.Items, 3)

		req, rec = newRequest(http.MethodGet, "/v1/schedule/overrides?date="+monday)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, cancel)}, rec)

		req, rec = newRequest(http.MethodDelete, "/v1/schedule/overrides/"+cancel.ID)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusNoContent}, rec)

		view = getDay(t, "date="+monday)
		assert.Len(t, view.Items, 3)
	})

	t.Run("sessions & export", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/schedule/overrides",
			[]byte(`{"entry_id": "`+a.ID+`", "date": "2024-03-11", "start_time": "13:00"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusCreated}, rec)

		req, rec = newRequest(http.MethodGet, "/v1/schedule/entries/"+a.ID+"/sessions?from="+monday+"&to=2024-03-24")
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)
		var sessions []schedule.Session
		unmarshal(t, rec, &sessions)
		if assert.Len(t, sessions, 3) {
			assert.Equal(t, []string{monday, "2024-03-11", "2024-03-18"},
				[]string{sessions[0].Date, sessions[1].Date, sessions[2].Date})
			assert.Equal(t, 13, sessions[1].Start.Hour())
			assert.Equal(t, 14, sessions[1].End.Hour())
			assert.NotNil(t, sessions[1].Override)
		}

		req, rec = newRequest(http.MethodGet, "/v1/schedule/export.ics?from="+monday+"&to=2024-03-24&room="+room.ID)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar"))
		body := rec.Body.String()
		assert.Contains(t, body, "BEGIN:VCALENDAR")
		assert.Contains(t, body, "RRULE:FREQ=WEEKLY")
		assert.Contains(t, body, "EXDATE")
		assert.Contains(t, body, a.ID+"-2024-03-11@ratiba")
		assert.NotContains(t, body, c.ID) // not in the room
	})

	t.Run("move", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/schedule/entries/"+c.ID+"/move",
			[]byte(`{"day": 3, "start_time": "14:00"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)
		var got schedule.Entry
		unmarshal(t, rec, &got)
		assert.Equal(t, calendar.Tuesday, got.Day)
		assert.Equal(t, "14:00", got.StartTime)
		assert.Equal(t, "15:00", got.EndTime)

		req, rec = newRequest(http.MethodPost, "/v1/schedule/entries/"+c.ID+"/move",
			[]byte(`{"start_time": "23:30"}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"start_time": "the class would end after midnight"}),
		}, rec)

		req, rec = newRequest(http.MethodPost, "/v1/schedule/entries/lol/move", []byte(`{"start_time": "10:00"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusNotFound}, rec)
	})
}
