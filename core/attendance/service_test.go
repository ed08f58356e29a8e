package attendance_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/staff"
	emailsvc "github.com/trezcool/ratiba/services/email"
	logsvc "github.com/trezcool/ratiba/services/logger"
	dummydb "github.com/trezcool/ratiba/storage/database/dummy"
	testutil "github.com/trezcool/ratiba/tests"
)

type fixture struct {
	svc      attendance.Service
	validate *validator.Validate
	mailSvc  *emailsvc.ConsoleServiceMock
	jane     staff.Staff
	bob      staff.Staff
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	conf := testutil.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	core.ParseEmailTemplates(logger, true)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)

	db := dummydb.Open()
	staffRepo := dummydb.NewStaffRepository(db)
	jane, err := staffRepo.Create(ctx, staff.Staff{Name: "Jane", Email: "jane@example.com", Roles: []string{staff.RoleTeacher}, IsActive: true})
	require.NoError(t, err)
	bob, err := staffRepo.Create(ctx, staff.Staff{Name: "Bob", Email: "bob@example.com", Roles: []string{staff.RoleStaff}, IsActive: true})
	require.NoError(t, err)

	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	return &fixture{
		svc:      attendance.NewService(dummydb.NewAttendanceRepository(db), staffRepo, mailSvc, logger),
		validate: validate,
		mailSvc:  mailSvc,
		jane:     jane,
		bob:      bob,
	}
}

func tags(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

func TestNewRecord_Validate(t *testing.T) {
	fx := setup(t)

	tests := []struct {
		name string
		nr   attendance.NewRecord
		want map[string]string
	}{
		{
			name: "required",
			nr:   attendance.NewRecord{},
			want: map[string]string{"staff_id": "required", "date": "required", "status": "required"},
		},
		{
			name: "malformed",
			nr:   attendance.NewRecord{StaffID: "x", Date: "04/03/2024", Status: "sick", CheckIn: "25:00"},
			want: map[string]string{"date": "isodate", "status": "oneof", "check_in": "clocktime"},
		},
		{
			name: "absent with times",
			nr:   attendance.NewRecord{StaffID: "x", Date: "2024-03-04", Status: "absent", CheckIn: "08:00"},
			want: map[string]string{"check_in": "no_clock"},
		},
		{
			name: "check-out before check-in",
			nr:   attendance.NewRecord{StaffID: "x", Date: "2024-03-04", Status: "present", CheckIn: "16:00", CheckOut: "08:00"},
			want: map[string]string{"check_out": "after_checkin"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nr := tt.nr
			assert.Equal(t, tt.want, tags(t, nr.Validate(fx.validate)))
		})
	}

	t.Run("valid", func(t *testing.T) {
		nr := attendance.NewRecord{StaffID: " x ", Date: "2024-03-04", Status: " LATE ", CheckIn: "8:05", CheckOut: "16:00"}
		require.NoError(t, nr.Validate(fx.validate))
		assert.Equal(t, "late", nr.Status)
		assert.Equal(t, "08:05", nr.CheckIn)
	})
}

func TestService_Log(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	t.Run("unknown staff", func(t *testing.T) {
		_, err := fx.svc.Log(ctx, attendance.NewRecord{StaffID: "nobody", Date: "2024-03-04", Status: attendance.StatusPresent})
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []core.FieldError{{Field: "staff_id", Error: "unknown staff member"}}, verr.Fields)
	})

	t.Run("present", func(t *testing.T) {
		rec, err := fx.svc.Log(ctx, attendance.NewRecord{StaffID: fx.jane.ID, Date: "2024-03-04", Status: attendance.StatusPresent, CheckIn: "08:00", CheckOut: "16:30"})
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, 510, rec.WorkedMinutes())
		assert.Empty(t, fx.mailSvc.Sent())
	})

	t.Run("one record per day", func(t *testing.T) {
		_, err := fx.svc.Log(ctx, attendance.NewRecord{StaffID: fx.jane.ID, Date: "2024-03-04", Status: attendance.StatusLate})
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "date", verr.Fields[0].Field)
		assert.Equal(t, attendance.ErrRecordExists.Error(), verr.Fields[0].Error)
	})

	t.Run("absent sends a notice", func(t *testing.T) {
		_, err := fx.svc.Log(ctx, attendance.NewRecord{StaffID: fx.bob.ID, Date: "2024-03-04", Status: attendance.StatusAbsent, Note: "flu"})
		require.NoError(t, err)

		sent := fx.mailSvc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "bob@example.com", sent[0].To[0].Address)
		assert.Contains(t, sent[0].Subject, "2024-03-04")
		assert.Contains(t, sent[0].TextContent, "flu")
	})
}

type memberLogger struct {
	core.Logger
	members []staff.Staff
}

func (l *memberLogger) Info(msg string, args ...interface{}) {
	for _, arg := range args {
		if m, ok := arg.(staff.Staff); ok {
			l.members = append(l.members, m)
		}
	}
	l.Logger.Info(msg, args...)
}

func TestService_absenceNoticeLogsMember(t *testing.T) {
	ctx := context.Background()
	conf := testutil.NewConfig()
	rl := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	rl.Enable(false)
	core.ParseEmailTemplates(rl, true)
	logger := &memberLogger{Logger: rl}

	db := dummydb.Open()
	staffRepo := dummydb.NewStaffRepository(db)
	bob, err := staffRepo.Create(ctx, staff.Staff{Name: "Bob", Email: "bob@example.com", Roles: []string{staff.RoleStaff}, IsActive: true})
	require.NoError(t, err)
	svc := attendance.NewService(dummydb.NewAttendanceRepository(db), staffRepo, emailsvc.NewConsoleServiceMock(conf, rl), logger)

	_, err = svc.Log(ctx, attendance.NewRecord{StaffID: bob.ID, Date: "2024-03-05", Status: attendance.StatusAbsent})
	require.NoError(t, err)

	require.Len(t, logger.members, 1)
	assert.Equal(t, bob.ID, logger.members[0].ID)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	orig, err := fx.svc.Log(ctx, attendance.NewRecord{StaffID: fx.jane.ID, Date: "2024-03-05", Status: attendance.StatusPresent, CheckIn: "08:00", CheckOut: "16:00", Note: "on time"})
	require.NoError(t, err)

	t.Run("blank fields keep their value", func(t *testing.T) {
		ur := attendance.UpdateRecord{CheckOut: "17:00"}
		require.NoError(t, ur.Validate(orig, fx.validate))

		rec, err := fx.svc.Update(ctx, orig.ID, ur)
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusPresent, rec.Status)
		assert.Equal(t, "08:00", rec.CheckIn)
		assert.Equal(t, "17:00", rec.CheckOut)
		assert.Equal(t, "on time", rec.Note)
		orig = rec
	})

	t.Run("absent clears the times", func(t *testing.T) {
		ur := attendance.UpdateRecord{Status: "absent"}
		require.NoError(t, ur.Validate(orig, fx.validate))

		rec, err := fx.svc.Update(ctx, orig.ID, ur)
		require.NoError(t, err)
		assert.Empty(t, rec.CheckIn)
		assert.Empty(t, rec.CheckOut)
		assert.Zero(t, rec.WorkedMinutes())
		assert.Len(t, fx.mailSvc.Sent(), 1)

		// already absent: no second notice
		_, err = fx.svc.Update(ctx, orig.ID, attendance.UpdateRecord{Status: "absent", Note: "still sick"})
		require.NoError(t, err)
		assert.Len(t, fx.mailSvc.Sent(), 1)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := fx.svc.Update(ctx, "nope", attendance.UpdateRecord{Status: "present"})
		assert.True(t, core.IsNotFound(err))
	})
}

func TestService_Summarize(t *testing.T) {
	ctx := context.Background()
	fx := setup(t)

	for _, nr := range []attendance.NewRecord{
		{StaffID: fx.jane.ID, Date: "2024-03-04", Status: attendance.StatusPresent, CheckIn: "08:00", CheckOut: "16:00"},
		{StaffID: fx.jane.ID, Date: "2024-03-05", Status: attendance.StatusLate, CheckIn: "09:00", CheckOut: "16:00"},
		{StaffID: fx.jane.ID, Date: "2024-03-06", Status: attendance.StatusLeave},
		{StaffID: fx.bob.ID, Date: "2024-03-04", Status: attendance.StatusAbsent},
		{StaffID: fx.bob.ID, Date: "2024-04-01", Status: attendance.StatusPresent},
	} {
		_, err := fx.svc.Log(ctx, nr)
		require.NoError(t, err)
	}

	summaries, err := fx.svc.Summarize(ctx, attendance.QueryFilter{DateFrom: "2024-03-01", DateTo: "2024-03-31"})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byStaff := map[string]attendance.Summary{summaries[0].StaffID: summaries[0], summaries[1].StaffID: summaries[1]}
	assert.Equal(t, attendance.Summary{StaffID: fx.jane.ID, Present: 1, Late: 1, Leave: 1, Total: 3, WorkedMinutes: 900}, byStaff[fx.jane.ID])
	assert.Equal(t, attendance.Summary{StaffID: fx.bob.ID, Absent: 1, Total: 1}, byStaff[fx.bob.ID])
	assert.Less(t, summaries[0].StaffID, summaries[1].StaffID)

	records, err := fx.svc.Query(ctx, attendance.QueryFilter{Statuses: []string{" PRESENT "}}, nil)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
