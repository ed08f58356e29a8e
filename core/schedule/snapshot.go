package schedule

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/calendar"
)

// Snapshot is an immutable, in-memory copy of the timetable used to render calendar views.
// It is never modified once published; SnapshotStore.Refresh swaps in a new one.
type Snapshot struct {
	Rooms     map[string]Room
	Entries   map[calendar.DayKey][]Entry // sorted by start time
	Overrides map[string][]Override       // keyed by date (YYYY-MM-DD)
	LoadedAt  time.Time
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Rooms:     map[string]Room{},
		Entries:   map[calendar.DayKey][]Entry{},
		Overrides: map[string][]Override{},
	}
}

// NewSnapshot indexes rooms, entries and overrides.
func NewSnapshot(rooms []Room, entries []Entry, overrides []Override, loadedAt time.Time) *Snapshot {
	snap := emptySnapshot()
	snap.LoadedAt = loadedAt
	for _, r := range rooms {
		snap.Rooms[r.ID] = r
	}
	for _, e := range entries {
		snap.Entries[e.Day] = append(snap.Entries[e.Day], e)
	}
	for day := range snap.Entries {
		day := day
		sort.SliceStable(snap.Entries[day], func(i, j int) bool {
			return snap.Entries[day][i].Start() < snap.Entries[day][j].Start()
		})
	}
	for _, o := range overrides {
		snap.Overrides[o.Date] = append(snap.Overrides[o.Date], o)
	}
	return snap
}

// OverridesOf returns the overrides of `date`, keyed by entry ID. The latest override of an entry wins.
func (s *Snapshot) OverridesOf(date string) map[string]Override {
	overrides := make(map[string]Override, len(s.Overrides[date]))
	for _, o := range s.Overrides[date] {
		if cur, ok := overrides[o.EntryID]; !ok || !o.CreatedAt.Before(cur.CreatedAt) {
			overrides[o.EntryID] = o
		}
	}
	return overrides
}

type (
	// SnapshotLoader reads the whole timetable from storage.
	SnapshotLoader interface {
		QueryRooms(ctx context.Context, filter RoomFilter) ([]Room, error)
		QueryEntries(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Entry, error)
		QueryOverrides(ctx context.Context, filter OverrideFilter) ([]Override, error)
	}

	// RefreshHook is notified after every refresh attempt.
	RefreshHook func(took time.Duration, err error)

	SnapshotStore struct {
		loader  SnapshotLoader
		current atomic.Pointer[Snapshot]
		mu      sync.Mutex // serializes refreshes
		hook    RefreshHook
	}
)

func NewSnapshotStore(loader SnapshotLoader, hook RefreshHook) *SnapshotStore {
	store := &SnapshotStore{loader: loader, hook: hook}
	store.current.Store(emptySnapshot())
	return store
}

// Current returns the latest published snapshot. It is never nil.
func (s *SnapshotStore) Current() *Snapshot {
	return s.current.Load()
}

// Refresh loads a new snapshot and publishes it. The current snapshot is kept on failure.
func (s *SnapshotStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	err := s.refresh(ctx)
	if s.hook != nil {
		s.hook(time.Since(started), err)
	}
	return err
}

func (s *SnapshotStore) refresh(ctx context.Context) error {
	rooms, err := s.loader.QueryRooms(ctx, RoomFilter{})
	if err != nil {
		return errors.Wrap(err, "loading rooms")
	}
	entries, err := s.loader.QueryEntries(ctx, QueryFilter{}, nil)
	if err != nil {
		return errors.Wrap(err, "loading entries")
	}
	overrides, err := s.loader.QueryOverrides(ctx, OverrideFilter{})
	if err != nil {
		return errors.Wrap(err, "loading overrides")
	}
	s.current.Store(NewSnapshot(rooms, entries, overrides, time.Now().UTC()))
	return nil
}
