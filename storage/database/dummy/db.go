// Package dummydb holds in-memory repositories, used by tests and local experiments.
// Orderings are not supported: results come in each repository's default order.
package dummydb

import (
	"sync"

	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/staff"
)

type (
	DB struct {
		staff      *staffTable
		schedule   *scheduleTables
		attendance *attendanceTable
	}

	staffTable struct {
		sync.RWMutex
		table map[string]*staff.Staff
	}

	scheduleTables struct {
		sync.RWMutex
		rooms     map[string]*schedule.Room
		entries   map[string]*schedule.Entry
		overrides map[string]*schedule.Override
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}
)

func Open() *DB {
	return &DB{
		staff: &staffTable{table: make(map[string]*staff.Staff)},
		schedule: &scheduleTables{
			rooms:     make(map[string]*schedule.Room),
			entries:   make(map[string]*schedule.Entry),
			overrides: make(map[string]*schedule.Override),
		},
		attendance: &attendanceTable{table: make(map[string]*attendance.Record)},
	}
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
