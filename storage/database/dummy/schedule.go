package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
)

type scheduleRepository struct {
	db *scheduleTables
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db.schedule}
}

// Rooms

func (repo *scheduleRepository) CreateRoom(_ context.Context, room schedule.Room) (schedule.Room, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	room.ID = uuid.NewString()
	repo.db.rooms[room.ID] = &room
	return room, nil
}

func (repo *scheduleRepository) QueryRooms(_ context.Context, filter schedule.RoomFilter) ([]schedule.Room, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rooms := make([]schedule.Room, 0, len(repo.db.rooms))
	for _, r := range repo.db.rooms {
		if filter.Match(*r) {
			rooms = append(rooms, *r)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

func (repo *scheduleRepository) GetRoom(_ context.Context, id string) (schedule.Room, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.rooms[id]; ok {
		return *r, nil
	}
	return schedule.Room{}, schedule.ErrRoomNotFound
}

func (repo *scheduleRepository) DeleteRooms(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	set := idSet(ids)
	for _, e := range repo.db.entries {
		if set[e.RoomID] {
			e.RoomID = ""
		}
	}
	for _, o := range repo.db.overrides {
		if set[o.RoomID] {
			o.RoomID = ""
		}
	}
	for id := range set {
		delete(repo.db.rooms, id)
	}
	return nil
}

// Entries

func (repo *scheduleRepository) CreateEntry(_ context.Context, e schedule.Entry) (schedule.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e.ID = uuid.NewString()
	repo.db.entries[e.ID] = &e
	return e, nil
}

func (repo *scheduleRepository) QueryEntries(_ context.Context, filter schedule.QueryFilter, _ []core.DBOrdering) ([]schedule.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := make([]schedule.Entry, 0, len(repo.db.entries))
	for _, e := range repo.db.entries {
		if filter.Match(*e) {
			entries = append(entries, *e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return entries, nil
}

func (repo *scheduleRepository) GetEntry(_ context.Context, id string) (schedule.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.entries[id]; ok {
		return *e, nil
	}
	return schedule.Entry{}, schedule.ErrEntryNotFound
}

func (repo *scheduleRepository) UpdateEntry(_ context.Context, e schedule.Entry) (schedule.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.entries[e.ID]
	if !ok {
		return schedule.Entry{}, schedule.ErrEntryNotFound
	}
	e.CreatedAt = orig.CreatedAt
	repo.db.entries[e.ID] = &e
	return e, nil
}

func (repo *scheduleRepository) DeleteEntries(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	set := idSet(ids)
	for id, o := range repo.db.overrides {
		if set[o.EntryID] {
			delete(repo.db.overrides, id)
		}
	}
	for id := range set {
		delete(repo.db.entries, id)
	}
	return nil
}

// Overrides

func (repo *scheduleRepository) CreateOverride(_ context.Context, o schedule.Override) (schedule.Override, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	o.ID = uuid.NewString()
	repo.db.overrides[o.ID] = &o
	return o, nil
}

func (repo *scheduleRepository) QueryOverrides(_ context.Context, filter schedule.OverrideFilter) ([]schedule.Override, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	overrides := make([]schedule.Override, 0)
	for _, o := range repo.db.overrides {
		if filter.Match(*o) {
			overrides = append(overrides, *o)
		}
	}
	sort.Slice(overrides, func(i, j int) bool {
		if overrides[i].Date == overrides[j].Date {
			return overrides[i].CreatedAt.Before(overrides[j].CreatedAt)
		}
		return overrides[i].Date < overrides[j].Date
	})
	return overrides, nil
}

func (repo *scheduleRepository) DeleteOverride(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.overrides[id]; !ok {
		return schedule.ErrOverrideNotFound
	}
	delete(repo.db.overrides, id)
	return nil
}
