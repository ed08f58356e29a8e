package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/calendar"
)

type fakeLoader struct {
	mu      sync.Mutex
	rooms   []Room
	entries []Entry
	err     error
}

func (l *fakeLoader) QueryRooms(context.Context, RoomFilter) ([]Room, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rooms, l.err
}

func (l *fakeLoader) QueryEntries(context.Context, QueryFilter, []core.DBOrdering) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries, nil
}

func (l *fakeLoader) QueryOverrides(context.Context, OverrideFilter) ([]Override, error) {
	return nil, nil
}

func TestNewSnapshot(t *testing.T) {
	snap := NewSnapshot(
		[]Room{{ID: "r1", Name: "Lab"}},
		[]Entry{
			{ID: "late", Day: calendar.Monday, StartTime: "11:00", EndTime: "12:00"},
			{ID: "early", Day: calendar.Monday, StartTime: "08:00", EndTime: "09:00"},
			{ID: "tue", Day: calendar.Tuesday, StartTime: "08:00", EndTime: "09:00"},
		},
		nil,
		time.Now(),
	)
	if got := len(snap.Rooms); got != 1 {
		t.Errorf("len(Rooms) = %d; want 1", got)
	}
	monday := snap.Entries[calendar.Monday]
	if len(monday) != 2 || monday[0].ID != "early" || monday[1].ID != "late" {
		t.Errorf("Entries[Monday] = %+v; want early, late", monday)
	}
	if got := len(snap.Entries[calendar.Tuesday]); got != 1 {
		t.Errorf("len(Entries[Tuesday]) = %d; want 1", got)
	}
}

func TestSnapshot_OverridesOf(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	snap := NewSnapshot(nil, nil, []Override{
		{ID: "o1", EntryID: "e1", Date: "2024-03-04", Cancelled: true, CreatedAt: t0},
		{ID: "o2", EntryID: "e1", Date: "2024-03-04", StartTime: "10:00", CreatedAt: t0.Add(time.Hour)},
		{ID: "o3", EntryID: "e2", Date: "2024-03-04", Cancelled: true, CreatedAt: t0},
		{ID: "o4", EntryID: "e1", Date: "2024-03-11", Cancelled: true, CreatedAt: t0},
	}, time.Now())

	got := snap.OverridesOf("2024-03-04")
	if len(got) != 2 {
		t.Fatalf("len(OverridesOf()) = %d; want 2", len(got))
	}
	if got["e1"].ID != "o2" {
		t.Errorf("OverridesOf()[e1] = %s; want the latest (o2)", got["e1"].ID)
	}
	if got["e2"].ID != "o3" {
		t.Errorf("OverridesOf()[e2] = %s; want o3", got["e2"].ID)
	}
	if got := snap.OverridesOf("2024-03-05"); len(got) != 0 {
		t.Errorf("OverridesOf(no overrides) = %v; want empty", got)
	}
}

func TestSnapshotStore_Refresh(t *testing.T) {
	loader := &fakeLoader{rooms: []Room{{ID: "r1"}}}
	var hookCalls, hookErrs int
	store := NewSnapshotStore(loader, func(_ time.Duration, err error) {
		hookCalls++
		if err != nil {
			hookErrs++
		}
	})

	if store.Current() == nil {
		t.Fatal("Current() = nil before the first refresh")
	}
	if got := len(store.Current().Rooms); got != 0 {
		t.Errorf("len(Rooms) before refresh = %d; want 0", got)
	}

	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	first := store.Current()
	if got := len(first.Rooms); got != 1 {
		t.Errorf("len(Rooms) = %d; want 1", got)
	}

	// a failed refresh keeps the published snapshot
	loader.err = errors.New("db down")
	if err := store.Refresh(context.Background()); err == nil {
		t.Error("Refresh() error = nil; want db down")
	}
	if store.Current() != first {
		t.Error("Current() changed after a failed refresh")
	}
	if hookCalls != 2 || hookErrs != 1 {
		t.Errorf("hook calls = %d (errors %d); want 2 (1)", hookCalls, hookErrs)
	}
}

func TestSnapshotStore_concurrentReads(t *testing.T) {
	loader := &fakeLoader{}
	store := NewSnapshotStore(loader, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			loader.mu.Lock()
			loader.entries = append(loader.entries, Entry{ID: string(rune('a' + i)), Day: calendar.Monday, StartTime: "08:00", EndTime: "09:00"})
			loader.mu.Unlock()
			_ = store.Refresh(context.Background())
		}(i)
		go func() {
			defer wg.Done()
			// a snapshot is never mutated once published
			snap := store.Current()
			n := len(snap.Entries[calendar.Monday])
			time.Sleep(time.Millisecond)
			if len(snap.Entries[calendar.Monday]) != n {
				t.Error("published snapshot was mutated")
			}
		}()
	}
	wg.Wait()

	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := len(store.Current().Entries[calendar.Monday]); got != 4 {
		t.Errorf("len(Entries[Monday]) = %d; want 4", got)
	}
}
