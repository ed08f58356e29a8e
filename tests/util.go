// Package testutil holds the fixtures shared by the storage & API tests.
package testutil

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/calendar"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/staff"
	"github.com/trezcool/ratiba/storage/database"
)

// tables in deletion order
var tables = []string{"attendance", "override", "entry", "room", "staff"}

func NewConfig() *core.Config {
	return &core.Config{
		AppName:  "Ratiba",
		Env:      "TEST",
		Build:    "test",
		TestMode: true,
		Server: core.ServerConfig{
			Host:            "localhost",
			ShutdownTimeout: time.Second,
			DisableReqLogs:  true,
		},
		Database: core.DatabaseConfig{Driver: database.DriverSQLite, Path: ":memory:"},
		Calendar: core.CalendarConfig{
			Timezone:        "UTC",
			DayStart:        "07:00",
			DayEnd:          "18:00",
			PixelsPerMinute: 1,
			MinEventMinutes: calendar.MinDuration,
		},
		Snapshot: core.SnapshotConfig{RefreshCron: "@every 1h"},
		Mail: core.MailConfig{
			DefaultFromEmail: "noreply@test.cd",
			FrontendBaseURL:  "http://localhost:8080",
		},
	}
}

func Geometry(conf *core.Config) calendar.Geometry {
	return calendar.Geometry{
		DayStart:        calendar.ClockOrNone(conf.Calendar.DayStart),
		PixelsPerMinute: conf.Calendar.PixelsPerMinute,
		MinHeight:       conf.Calendar.MinEventMinutes,
	}
}

// OpenDB opens a migrated in-memory SQLite database; it exits on failure since it is meant for TestMain.
func OpenDB() *sqlx.DB {
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		log.Printf("testutil.OpenDB(): %v", err)
		os.Exit(1)
	}
	if err = database.Migrate(context.Background(), db); err != nil {
		log.Printf("testutil.OpenDB(): %v", err)
		os.Exit(1)
	}
	return db
}

func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("ResetDB() failed: %v", err)
		}
	}
}

func CreateStaff(
	t *testing.T,
	repo staff.Repository,
	name, email string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) staff.Staff {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if roles == nil {
		roles = []string{}
	}
	member, err := repo.Create(context.Background(), staff.Staff{
		Name:      name,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateStaff() failed: %v", err)
	}
	return member
}

func CreateRoom(t *testing.T, repo schedule.Repository, name string, capacity int) schedule.Room {
	t.Helper()
	now := time.Now().UTC()
	room, err := repo.CreateRoom(context.Background(), schedule.Room{
		Name:      name,
		Capacity:  capacity,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateRoom() failed: %v", err)
	}
	return room
}

// CreateEntry creates an Entry with the given subject running on `day` from `start` to `end` (HH:MM).
func CreateEntry(
	t *testing.T,
	repo schedule.Repository,
	subject, group, teacherID, roomID string,
	day calendar.DayKey,
	start, end string,
) schedule.Entry {
	t.Helper()
	now := time.Now().UTC()
	entry, err := repo.CreateEntry(context.Background(), schedule.Entry{
		Subject:    subject,
		ClassGroup: group,
		TeacherID:  teacherID,
		RoomID:     roomID,
		Day:        day,
		StartTime:  start,
		EndTime:    end,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateEntry() failed: %v", err)
	}
	return entry
}

func CreateRecord(t *testing.T, repo attendance.Repository, staffID, date, status string) attendance.Record {
	t.Helper()
	now := time.Now().UTC()
	record, err := repo.Create(context.Background(), attendance.Record{
		StaffID:   staffID,
		Date:      date,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return record
}
