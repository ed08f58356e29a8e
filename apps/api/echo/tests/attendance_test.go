package tests

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/staff"
	"github.com/trezcool/ratiba/tests"
)

func Test_attendanceApi_log(t *testing.T) {
	testutil.ResetDB(t, db)
	member := testutil.CreateStaff(t, staffRepo, "Neema", "neema@test.cd", []string{staff.RoleTeacher}, true)
	sentBefore := len(mailSvc.Sent())

	tests := []httpTest{
		{
			name:     "unknown staff",
			body:     []byte(`{"staff_id": "lol", "date": "2024-03-04", "status": "present"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"staff_id": "unknown staff member"}),
		},
		{
			name:     "bad date",
			body:     []byte(`{"staff_id": "` + member.ID + `", "date": "04/03/2024", "status": "present"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": "date must be formatted as YYYY-MM-DD"}),
		},
		{
			name:     "absent with clock times",
			body:     []byte(`{"staff_id": "` + member.ID + `", "date": "2024-03-04", "status": "absent", "check_in": "08:00"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"check_in": "absent and leave records cannot have check-in or check-out times"}),
		},
		{
			name:     "check-out before check-in",
			body:     []byte(`{"staff_id": "` + member.ID + `", "date": "2024-03-04", "status": "late", "check_in": "09:00", "check_out": "08:00"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"check_out": "check-out must be after check-in"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/attendance", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("present, then duplicate", func(t *testing.T) {
		body := []byte(`{"staff_id": "` + member.ID + `", "date": "2024-03-04", "status": "PRESENT", "check_in": "7:45", "check_out": "16:00"}`)
		req, rec := newRequest(http.MethodPost, "/v1/attendance", body)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusCreated}, rec)
		var got attendance.Record
		unmarshal(t, rec, &got)
		assert.Equal(t, attendance.StatusPresent, got.Status)
		assert.Equal(t, "07:45", got.CheckIn)

		req, rec = newRequest(http.MethodPost, "/v1/attendance", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": attendance.ErrRecordExists.Error()}),
		}, rec)
		assert.Len(t, mailSvc.Sent(), sentBefore)
	})

	t.Run("absent sends a notice", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/attendance",
			[]byte(`{"staff_id": "`+member.ID+`", "date": "2024-03-05", "status": "absent", "note": "sick"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusCreated}, rec)

		sent := mailSvc.Sent()
		if assert.Len(t, sent, sentBefore+1) {
			msg := sent[len(sent)-1]
			assert.Equal(t, member.Email, msg.To[0].Address)
			assert.True(t, strings.Contains(msg.TextContent, "marked absent on 2024-03-05"))
			assert.True(t, strings.Contains(msg.TextContent, "Note: sick"))
			assert.True(t, strings.Contains(msg.HTMLContent, "2024-03-05"))
		}
	})
}

func Test_attendanceApi_queryAndSummary(t *testing.T) {
	testutil.ResetDB(t, db)
	m1 := testutil.CreateStaff(t, staffRepo, "Neema", "neema@test.cd", nil, true)
	m2 := testutil.CreateStaff(t, staffRepo, "Omari", "omari@test.cd", nil, true)

	r1 := testutil.CreateRecord(t, attendanceRepo, m1.ID, "2024-03-04", attendance.StatusPresent)
	r2 := testutil.CreateRecord(t, attendanceRepo, m1.ID, "2024-03-05", attendance.StatusLate)
	r3 := testutil.CreateRecord(t, attendanceRepo, m1.ID, "2024-03-06", attendance.StatusAbsent)
	r4 := testutil.CreateRecord(t, attendanceRepo, m2.ID, "2024-03-04", attendance.StatusLeave)

	tests := []httpTest{
		{name: "all (latest first)", path: "/v1/attendance", wantData: marchallList(t, r3, r2, r1, r4)},
		{name: "by staff", path: "/v1/attendance?staff=" + m2.ID, wantData: marchallList(t, r4)},
		{name: "by status", path: "/v1/attendance?status=late&status=leave", wantData: marchallList(t, r2, r4)},
		{name: "by date range", path: "/v1/attendance?date_from=2024-03-05&date_to=2024-03-05", wantData: marchallList(t, r2)},
		{name: "ordering=date", path: "/v1/attendance?staff=" + m1.ID + "&ordering=date", wantData: marchallList(t, r1, r2, r3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			tt.wantCode = http.StatusOK
			checkCodeAndItems(t, tt, rec)
		})
	}

	t.Run("summary", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/attendance/summary?date_from=2024-03-04&date_to=2024-03-05")
		app.ServeHTTP(rec, req)
		checkCodeAndItems(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallList(t,
				attendance.Summary{StaffID: m1.ID, Present: 1, Late: 1, Total: 2},
				attendance.Summary{StaffID: m2.ID, Leave: 1, Total: 1},
			),
		}, rec)
	})

	t.Run("update to absent clears times", func(t *testing.T) {
		sentBefore := len(mailSvc.Sent())
		req, rec := newRequest(http.MethodPut, "/v1/attendance/"+r1.ID, []byte(`{"status": "absent"}`))
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)
		var got attendance.Record
		unmarshal(t, rec, &got)
		assert.Equal(t, attendance.StatusAbsent, got.Status)
		assert.Empty(t, got.CheckIn)
		assert.Len(t, mailSvc.Sent(), sentBefore+1)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newRequest(http.MethodDelete, "/v1/attendance/"+r4.ID)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusNoContent}, rec)

		req, rec = newRequest(http.MethodGet, "/v1/attendance/"+r4.ID)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusNotFound}, rec)
	})
}
