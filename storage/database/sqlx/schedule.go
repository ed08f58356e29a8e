package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/calendar"
	"github.com/trezcool/ratiba/core/schedule"
)

var entryOrderings = map[string]string{
	"day":         "day",
	"start_time":  "start_time",
	"end_time":    "end_time",
	"subject":     "subject",
	"class_group": "class_group",
	"created_at":  "created_at",
}

type (
	roomRow struct {
		ID        string    `db:"id"`
		Name      string    `db:"name"`
		Capacity  int       `db:"capacity"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	entryRow struct {
		ID         string    `db:"id"`
		Subject    string    `db:"subject"`
		ClassGroup string    `db:"class_group"`
		TeacherID  string    `db:"teacher_id"`
		RoomID     string    `db:"room_id"`
		Day        int       `db:"day"`
		StartTime  string    `db:"start_time"`
		EndTime    string    `db:"end_time"`
		Color      string    `db:"color"`
		CreatedAt  time.Time `db:"created_at"`
		UpdatedAt  time.Time `db:"updated_at"`
	}

	overrideRow struct {
		ID        string    `db:"id"`
		EntryID   string    `db:"entry_id"`
		Date      string    `db:"date"`
		Cancelled bool      `db:"cancelled"`
		StartTime string    `db:"start_time"`
		EndTime   string    `db:"end_time"`
		RoomID    string    `db:"room_id"`
		Note      string    `db:"note"`
		CreatedAt time.Time `db:"created_at"`
	}
)

func (r roomRow) toRoom() schedule.Room {
	return schedule.Room{ID: r.ID, Name: r.Name, Capacity: r.Capacity, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC()}
}

func (r entryRow) toEntry() schedule.Entry {
	return schedule.Entry{
		ID:         r.ID,
		Subject:    r.Subject,
		ClassGroup: r.ClassGroup,
		TeacherID:  r.TeacherID,
		RoomID:     r.RoomID,
		Day:        calendar.DayKey(r.Day),
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Color:      r.Color,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

func (r overrideRow) toOverride() schedule.Override {
	return schedule.Override{
		ID:        r.ID,
		EntryID:   r.EntryID,
		Date:      r.Date,
		Cancelled: r.Cancelled,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		RoomID:    r.RoomID,
		Note:      r.Note,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *sqlx.DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

// Rooms

func (repo *scheduleRepository) CreateRoom(ctx context.Context, room schedule.Room) (schedule.Room, error) {
	room.ID = uuid.NewString()
	room.CreatedAt = timestamp(room.CreatedAt)
	room.UpdatedAt = timestamp(room.UpdatedAt)

	q := repo.db.Rebind("INSERT INTO room (id, name, capacity, created_at, updated_at) VALUES (?, ?, ?, ?, ?)")
	if _, err := repo.db.ExecContext(ctx, q, room.ID, room.Name, room.Capacity, room.CreatedAt, room.UpdatedAt); err != nil {
		return schedule.Room{}, errors.Wrap(err, "inserting room")
	}
	return room, nil
}

func (repo *scheduleRepository) QueryRooms(ctx context.Context, filter schedule.RoomFilter) ([]schedule.Room, error) {
	var conds conditions
	if filter.Search != "" {
		conds.add("LOWER(name) LIKE ?", likePattern(filter.Search))
	}
	conds.in("id", filter.IDs)

	var rows []roomRow
	if err := selectIn(ctx, repo.db, &rows, "SELECT * FROM room"+conds.String()+" ORDER BY name ASC", conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting rooms")
	}
	rooms := make([]schedule.Room, 0, len(rows))
	for _, r := range rows {
		rooms = append(rooms, r.toRoom())
	}
	return rooms, nil
}

func (repo *scheduleRepository) GetRoom(ctx context.Context, id string) (schedule.Room, error) {
	var row roomRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM room WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schedule.Room{}, schedule.ErrRoomNotFound
		}
		return schedule.Room{}, errors.Wrap(err, "selecting room")
	}
	return row.toRoom(), nil
}

func (repo *scheduleRepository) DeleteRooms(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := execIn(ctx, tx, "UPDATE entry SET room_id = '' WHERE room_id IN (?)", ids); err != nil {
			return errors.Wrap(err, "detaching rooms from entries")
		}
		if _, err := execIn(ctx, tx, "UPDATE override SET room_id = '' WHERE room_id IN (?)", ids); err != nil {
			return errors.Wrap(err, "detaching rooms from overrides")
		}
		if _, err := execIn(ctx, tx, "DELETE FROM room WHERE id IN (?)", ids); err != nil {
			return errors.Wrap(err, "deleting rooms")
		}
		return nil
	})
}

// Entries

func (repo *scheduleRepository) CreateEntry(ctx context.Context, e schedule.Entry) (schedule.Entry, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = timestamp(e.CreatedAt)
	e.UpdatedAt = timestamp(e.UpdatedAt)

	q := repo.db.Rebind(`INSERT INTO entry
		(id, subject, class_group, teacher_id, room_id, day, start_time, end_time, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, q,
		e.ID, e.Subject, e.ClassGroup, e.TeacherID, e.RoomID, int(e.Day), e.StartTime, e.EndTime, e.Color, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return schedule.Entry{}, errors.Wrap(err, "inserting entry")
	}
	return e, nil
}

func (repo *scheduleRepository) QueryEntries(ctx context.Context, filter schedule.QueryFilter, ordering []core.DBOrdering) ([]schedule.Entry, error) {
	var conds conditions
	if filter.Day != 0 {
		conds.add("day = ?", filter.Day)
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		conds.add("(LOWER(subject) LIKE ? OR LOWER(class_group) LIKE ?)", p, p)
	}
	conds.in("room_id", filter.RoomIDs)
	conds.in("teacher_id", filter.TeacherIDs)
	if len(filter.ClassGroups) > 0 {
		groups := make([]string, 0, len(filter.ClassGroups))
		for _, g := range filter.ClassGroups {
			groups = append(groups, strings.ToLower(g))
		}
		conds.in("LOWER(class_group)", groups)
	}

	query := "SELECT * FROM entry" + conds.String() +
		core.OrderByClause(core.AllowedOrderings(ordering, entryOrderings), "day ASC, start_time ASC, created_at ASC")

	var rows []entryRow
	if err := selectIn(ctx, repo.db, &rows, query, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting entries")
	}
	entries := make([]schedule.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toEntry())
	}
	return entries, nil
}

func (repo *scheduleRepository) GetEntry(ctx context.Context, id string) (schedule.Entry, error) {
	var row entryRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM entry WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schedule.Entry{}, schedule.ErrEntryNotFound
		}
		return schedule.Entry{}, errors.Wrap(err, "selecting entry")
	}
	return row.toEntry(), nil
}

func (repo *scheduleRepository) UpdateEntry(ctx context.Context, e schedule.Entry) (schedule.Entry, error) {
	e.UpdatedAt = timestamp(e.UpdatedAt)
	q := repo.db.Rebind(`UPDATE entry SET subject = ?, class_group = ?, teacher_id = ?, room_id = ?, day = ?,
		start_time = ?, end_time = ?, color = ?, updated_at = ? WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q,
		e.Subject, e.ClassGroup, e.TeacherID, e.RoomID, int(e.Day), e.StartTime, e.EndTime, e.Color, e.UpdatedAt, e.ID)
	if err != nil {
		return schedule.Entry{}, errors.Wrap(err, "updating entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.Entry{}, schedule.ErrEntryNotFound
	}
	return repo.GetEntry(ctx, e.ID)
}

func (repo *scheduleRepository) DeleteEntries(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := execIn(ctx, tx, "DELETE FROM override WHERE entry_id IN (?)", ids); err != nil {
			return errors.Wrap(err, "deleting overrides")
		}
		if _, err := execIn(ctx, tx, "DELETE FROM entry WHERE id IN (?)", ids); err != nil {
			return errors.Wrap(err, "deleting entries")
		}
		return nil
	})
}

// Overrides

func (repo *scheduleRepository) CreateOverride(ctx context.Context, o schedule.Override) (schedule.Override, error) {
	o.ID = uuid.NewString()
	o.CreatedAt = timestamp(o.CreatedAt)

	q := repo.db.Rebind(`INSERT INTO override
		(id, entry_id, date, cancelled, start_time, end_time, room_id, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, q,
		o.ID, o.EntryID, o.Date, o.Cancelled, o.StartTime, o.EndTime, o.RoomID, o.Note, o.CreatedAt)
	if err != nil {
		return schedule.Override{}, errors.Wrap(err, "inserting override")
	}
	return o, nil
}

func (repo *scheduleRepository) QueryOverrides(ctx context.Context, filter schedule.OverrideFilter) ([]schedule.Override, error) {
	var conds conditions
	conds.in("entry_id", filter.EntryIDs)
	if filter.DateFrom != "" {
		conds.add("date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		conds.add("date <= ?", filter.DateTo)
	}

	var rows []overrideRow
	query := "SELECT * FROM override" + conds.String() + " ORDER BY date ASC, created_at ASC"
	if err := selectIn(ctx, repo.db, &rows, query, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting overrides")
	}
	overrides := make([]schedule.Override, 0, len(rows))
	for _, r := range rows {
		overrides = append(overrides, r.toOverride())
	}
	return overrides, nil
}

func (repo *scheduleRepository) DeleteOverride(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM override WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting override")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.ErrOverrideNotFound
	}
	return nil
}
