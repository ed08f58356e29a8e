package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) Create(_ context.Context, r attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, rec := range repo.db.table {
		if rec.StaffID == r.StaffID && rec.Date == r.Date {
			return attendance.Record{}, attendance.ErrRecordExists
		}
	}
	r.ID = uuid.NewString()
	repo.db.table[r.ID] = &r
	return r, nil
}

func (repo *attendanceRepository) Query(_ context.Context, filter attendance.QueryFilter, _ []core.DBOrdering) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]attendance.Record, 0)
	for _, r := range repo.db.table {
		if filter.Match(*r) {
			records = append(records, *r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date == records[j].Date {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].Date > records[j].Date
	})
	return records, nil
}

func (repo *attendanceRepository) GetByID(_ context.Context, id string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return *r, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) Update(_ context.Context, r attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[r.ID]
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	r.StaffID, r.Date, r.CreatedAt = orig.StaffID, orig.Date, orig.CreatedAt
	repo.db.table[r.ID] = &r
	return r, nil
}

func (repo *attendanceRepository) Delete(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
