package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/attendance"
)

var attendanceOrderings = map[string]string{
	"date":       "date",
	"status":     "status",
	"staff_id":   "staff_id",
	"check_in":   "check_in",
	"created_at": "created_at",
}

type attendanceRow struct {
	ID        string    `db:"id"`
	StaffID   string    `db:"staff_id"`
	Date      string    `db:"date"`
	Status    string    `db:"status"`
	CheckIn   string    `db:"check_in"`
	CheckOut  string    `db:"check_out"`
	Note      string    `db:"note"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r attendanceRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		StaffID:   r.StaffID,
		Date:      r.Date,
		Status:    r.Status,
		CheckIn:   r.CheckIn,
		CheckOut:  r.CheckOut,
		Note:      r.Note,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) Create(ctx context.Context, r attendance.Record) (attendance.Record, error) {
	r.ID = uuid.NewString()
	r.CreatedAt = timestamp(r.CreatedAt)
	r.UpdatedAt = timestamp(r.UpdatedAt)

	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var count int
		q := tx.Rebind("SELECT COUNT(*) FROM attendance WHERE staff_id = ? AND date = ?")
		if err := tx.GetContext(ctx, &count, q, r.StaffID, r.Date); err != nil {
			return errors.Wrap(err, "counting attendance records")
		}
		if count > 0 {
			return attendance.ErrRecordExists
		}

		q = tx.Rebind(`INSERT INTO attendance
			(id, staff_id, date, status, check_in, check_out, note, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		_, err := tx.ExecContext(ctx, q,
			r.ID, r.StaffID, r.Date, r.Status, r.CheckIn, r.CheckOut, r.Note, r.CreatedAt, r.UpdatedAt)
		return errors.Wrap(err, "inserting attendance record")
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return r, nil
}

func (repo *attendanceRepository) Query(ctx context.Context, filter attendance.QueryFilter, ordering []core.DBOrdering) ([]attendance.Record, error) {
	var conds conditions
	conds.in("staff_id", filter.StaffIDs)
	conds.in("status", filter.Statuses)
	if filter.DateFrom != "" {
		conds.add("date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		conds.add("date <= ?", filter.DateTo)
	}

	query := "SELECT * FROM attendance" + conds.String() +
		core.OrderByClause(core.AllowedOrderings(ordering, attendanceOrderings), "date DESC, created_at DESC")

	var rows []attendanceRow
	if err := selectIn(ctx, repo.db, &rows, query, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting attendance records")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toRecord())
	}
	return records, nil
}

func (repo *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	var row attendanceRow
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind("SELECT * FROM attendance WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "selecting attendance record")
	}
	return row.toRecord(), nil
}

func (repo *attendanceRepository) Update(ctx context.Context, r attendance.Record) (attendance.Record, error) {
	q := repo.db.Rebind(`UPDATE attendance SET status = ?, check_in = ?, check_out = ?, note = ?, updated_at = ?
		WHERE id = ?`)
	res, err := repo.db.ExecContext(ctx, q, r.Status, r.CheckIn, r.CheckOut, r.Note, timestamp(r.UpdatedAt), r.ID)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating attendance record")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return repo.GetByID(ctx, r.ID)
}

func (repo *attendanceRepository) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := execIn(ctx, repo.db, "DELETE FROM attendance WHERE id IN (?)", ids); err != nil {
		return errors.Wrap(err, "deleting attendance records")
	}
	return nil
}
