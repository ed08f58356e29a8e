package schedule

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/calendar"
	"github.com/trezcool/ratiba/core/staff"
)

var (
	// errors
	ErrRoomNotFound     = core.NewNotFoundError("room not found")
	ErrEntryNotFound    = core.NewNotFoundError("timetable entry not found")
	ErrOverrideNotFound = core.NewNotFoundError("override not found")

	errUnknownRoom    = "unknown room"
	errUnknownTeacher = "unknown teacher"
	errUnknownEntry   = "unknown timetable entry"
	errWrongDay       = "date does not fall on the day of the class"
	errDayOverflow    = "the class would end after midnight"
)

type (
	Repository interface {
		CreateRoom(ctx context.Context, room Room) (Room, error)
		QueryRooms(ctx context.Context, filter RoomFilter) ([]Room, error)
		GetRoom(ctx context.Context, id string) (Room, error)
		// DeleteRooms also detaches the deleted rooms from entries and overrides.
		DeleteRooms(ctx context.Context, ids ...string) error

		CreateEntry(ctx context.Context, entry Entry) (Entry, error)
		// QueryEntries applies AND operation on available QueryFilter fields.
		QueryEntries(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Entry, error)
		GetEntry(ctx context.Context, id string) (Entry, error)
		UpdateEntry(ctx context.Context, entry Entry) (Entry, error)
		// DeleteEntries also deletes the overrides of the deleted entries.
		DeleteEntries(ctx context.Context, ids ...string) error

		CreateOverride(ctx context.Context, o Override) (Override, error)
		QueryOverrides(ctx context.Context, filter OverrideFilter) ([]Override, error)
		DeleteOverride(ctx context.Context, id string) error
	}

	// TeacherDirectory resolves the teachers entries refer to.
	TeacherDirectory interface {
		GetByID(ctx context.Context, id string) (staff.Staff, error)
	}

	Options struct {
		Geometry      calendar.Geometry
		Location      *time.Location
		Logger        core.Logger
		ObserveLayout func(took time.Duration, events int)
	}

	Service interface {
		CreateRoom(ctx context.Context, nr NewRoom) (Room, error)
		QueryRooms(ctx context.Context, filter RoomFilter) ([]Room, error)
		GetRoom(ctx context.Context, id string) (Room, error)
		DeleteRooms(ctx context.Context, ids ...string) error

		CreateEntry(ctx context.Context, ne NewEntry) (Entry, error)
		QueryEntries(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Entry, error)
		GetEntry(ctx context.Context, id string) (Entry, error)
		UpdateEntry(ctx context.Context, id string, ue UpdateEntry) (Entry, error)
		MoveEntry(ctx context.Context, id string, me MoveEntry) (Entry, error)
		DeleteEntries(ctx context.Context, ids ...string) error

		CreateOverride(ctx context.Context, no NewOverride) (Override, error)
		QueryOverrides(ctx context.Context, filter OverrideFilter) ([]Override, error)
		DeleteOverride(ctx context.Context, id string) error

		Day(date time.Time, filter QueryFilter) DayView
		Week(date time.Time, filter QueryFilter) WeekView
		Conflicts(date time.Time) []Conflict
		Sessions(entryID string, from, to time.Time) ([]Session, error)
		ExportICS(filter QueryFilter, from, to time.Time) (string, error)

		Refresh(ctx context.Context) error
		Location() *time.Location
	}

	service struct {
		repo     Repository
		store    *SnapshotStore
		teachers TeacherDirectory
		opts     Options
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, store *SnapshotStore, teachers TeacherDirectory, opts Options) Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Geometry.PixelsPerMinute <= 0 {
		opts.Geometry = calendar.DefaultGeometry()
	}
	return &service{repo: repo, store: store, teachers: teachers, opts: opts}
}

func (svc *service) Location() *time.Location {
	return svc.opts.Location
}

func (svc *service) Refresh(ctx context.Context) error {
	return svc.store.Refresh(ctx)
}

// afterWrite publishes a fresh snapshot. A failed refresh does not fail the write,
// the next scheduled refresh catches up.
func (svc *service) afterWrite(ctx context.Context) {
	if err := svc.store.Refresh(context.WithoutCancel(ctx)); err != nil && svc.opts.Logger != nil {
		svc.opts.Logger.Warn("refreshing timetable snapshot", err)
	}
}

// checkReferences reports unknown rooms and teachers as field errors.
func (svc *service) checkReferences(ctx context.Context, roomID, teacherID string) error {
	var fields []core.FieldError
	if roomID != "" {
		if _, err := svc.repo.GetRoom(ctx, roomID); err != nil {
			if !core.IsNotFound(err) {
				return errors.Wrap(err, "getting room")
			}
			fields = append(fields, core.FieldError{Field: "room_id", Error: errUnknownRoom})
		}
	}
	if teacherID != "" && svc.teachers != nil {
		if _, err := svc.teachers.GetByID(ctx, teacherID); err != nil {
			if !core.IsNotFound(err) {
				return errors.Wrap(err, "getting teacher")
			}
			fields = append(fields, core.FieldError{Field: "teacher_id", Error: errUnknownTeacher})
		}
	}
	if len(fields) > 0 {
		return core.NewValidationError(nil, fields...)
	}
	return nil
}

// Rooms

func (svc *service) CreateRoom(ctx context.Context, nr NewRoom) (Room, error) {
	now := time.Now().UTC()
	room, err := svc.repo.CreateRoom(ctx, Room{
		Name:      nr.Name,
		Capacity:  nr.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Room{}, errors.Wrap(err, "creating room")
	}
	svc.afterWrite(ctx)
	return room, nil
}

func (svc *service) QueryRooms(ctx context.Context, filter RoomFilter) ([]Room, error) {
	filter.Clean()
	return svc.repo.QueryRooms(ctx, filter)
}

func (svc *service) GetRoom(ctx context.Context, id string) (Room, error) {
	return svc.repo.GetRoom(ctx, core.CleanString(id))
}

func (svc *service) DeleteRooms(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := svc.repo.DeleteRooms(ctx, ids...); err != nil {
		return errors.Wrap(err, "deleting rooms")
	}
	svc.afterWrite(ctx)
	return nil
}

// Entries

func (svc *service) CreateEntry(ctx context.Context, ne NewEntry) (Entry, error) {
	if err := svc.checkReferences(ctx, ne.RoomID, ne.TeacherID); err != nil {
		return Entry{}, err
	}
	now := time.Now().UTC()
	entry, err := svc.repo.CreateEntry(ctx, Entry{
		Subject:    ne.Subject,
		ClassGroup: ne.ClassGroup,
		TeacherID:  ne.TeacherID,
		RoomID:     ne.RoomID,
		Day:        calendar.DayKey(ne.Day),
		StartTime:  ne.StartTime,
		EndTime:    ne.EndTime,
		Color:      ne.Color,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return Entry{}, errors.Wrap(err, "creating entry")
	}
	svc.afterWrite(ctx)
	return entry, nil
}

func (svc *service) QueryEntries(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Entry, error) {
	filter.Clean()
	return svc.repo.QueryEntries(ctx, filter, ordering)
}

func (svc *service) GetEntry(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntry(ctx, core.CleanString(id))
}

func (svc *service) UpdateEntry(ctx context.Context, id string, ue UpdateEntry) (Entry, error) {
	orig, err := svc.repo.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, errors.Wrap(err, "getting entry")
	}
	if err = svc.checkReferences(ctx, ue.RoomID, ue.TeacherID); err != nil {
		return Entry{}, err
	}

	orig.Subject = ue.Subject
	orig.ClassGroup = ue.ClassGroup
	orig.TeacherID = ue.TeacherID
	orig.RoomID = ue.RoomID
	orig.Day = calendar.DayKey(ue.Day)
	orig.StartTime = ue.StartTime
	orig.EndTime = ue.EndTime
	orig.Color = ue.Color
	orig.UpdatedAt = time.Now().UTC()

	entry, err := svc.repo.UpdateEntry(ctx, orig)
	if err != nil {
		return Entry{}, errors.Wrap(err, "updating entry")
	}
	svc.afterWrite(ctx)
	return entry, nil
}

func (svc *service) MoveEntry(ctx context.Context, id string, me MoveEntry) (Entry, error) {
	entry, err := svc.repo.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, errors.Wrap(err, "getting entry")
	}

	if me.Day != 0 {
		entry.Day = calendar.DayKey(me.Day)
	}
	start := calendar.ClockOrNone(me.StartTime)
	end := calendar.ClockOrNone(me.EndTime)
	if !end.Valid() {
		dur := entry.Duration()
		if dur == 0 {
			dur = calendar.MinDuration
		}
		if int(start)+dur > calendar.MinutesPerDay {
			return Entry{}, core.NewValidationError(nil, core.FieldError{Field: "start_time", Error: errDayOverflow})
		}
		end = start.Add(dur)
	}
	if end <= start {
		return Entry{}, core.NewValidationError(nil, core.FieldError{Field: "start_time", Error: errDayOverflow})
	}
	entry.StartTime = start.String()
	entry.EndTime = end.String()
	entry.UpdatedAt = time.Now().UTC()

	entry, err = svc.repo.UpdateEntry(ctx, entry)
	if err != nil {
		return Entry{}, errors.Wrap(err, "moving entry")
	}
	svc.afterWrite(ctx)
	return entry, nil
}

func (svc *service) DeleteEntries(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := svc.repo.DeleteEntries(ctx, ids...); err != nil {
		return errors.Wrap(err, "deleting entries")
	}
	svc.afterWrite(ctx)
	return nil
}

// Overrides

func (svc *service) CreateOverride(ctx context.Context, no NewOverride) (Override, error) {
	entry, err := svc.repo.GetEntry(ctx, no.EntryID)
	if err != nil {
		if core.IsNotFound(err) {
			return Override{}, core.NewValidationError(nil, core.FieldError{Field: "entry_id", Error: errUnknownEntry})
		}
		return Override{}, errors.Wrap(err, "getting entry")
	}
	date, err := core.ParseDate(no.Date, svc.opts.Location)
	if err != nil {
		return Override{}, core.NewValidationError(nil, core.FieldError{Field: "date", Error: err.Error()})
	}
	if calendar.DayKeyOf(date) != entry.Day {
		return Override{}, core.NewValidationError(nil, core.FieldError{Field: "date", Error: errWrongDay})
	}

	o := Override{
		EntryID:   entry.ID,
		Date:      date.Format(core.DateLayout),
		Cancelled: no.Cancelled,
		Note:      no.Note,
		CreatedAt: time.Now().UTC(),
	}
	if !no.Cancelled {
		if err = svc.checkReferences(ctx, no.RoomID, ""); err != nil {
			return Override{}, err
		}
		o.StartTime, o.EndTime, o.RoomID = no.StartTime, no.EndTime, no.RoomID
		if start := calendar.ClockOrNone(no.StartTime); start.Valid() && no.EndTime == "" {
			if int(start)+entry.Duration() > calendar.MinutesPerDay {
				return Override{}, core.NewValidationError(nil, core.FieldError{Field: "start_time", Error: errDayOverflow})
			}
		}
		if moved, _ := o.Apply(entry); moved.End() <= moved.Start() {
			return Override{}, core.NewValidationError(nil, core.FieldError{Field: "end_time", Error: afterStartText})
		}
	}

	o, err = svc.repo.CreateOverride(ctx, o)
	if err != nil {
		return Override{}, errors.Wrap(err, "creating override")
	}
	svc.afterWrite(ctx)
	return o, nil
}

func (svc *service) QueryOverrides(ctx context.Context, filter OverrideFilter) ([]Override, error) {
	filter.EntryIDs = core.CleanStrings(filter.EntryIDs)
	return svc.repo.QueryOverrides(ctx, filter)
}

func (svc *service) DeleteOverride(ctx context.Context, id string) error {
	if err := svc.repo.DeleteOverride(ctx, core.CleanString(id)); err != nil {
		return errors.Wrap(err, "deleting override")
	}
	svc.afterWrite(ctx)
	return nil
}
