package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/staff"
)

type staffRepository struct {
	db *staffTable
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *DB) staff.Repository {
	return &staffRepository{db: db.staff}
}

func (repo *staffRepository) query() []staff.Staff {
	members := make([]staff.Staff, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		members = append(members, *s)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Name == members[j].Name {
			return members[i].CreatedAt.Before(members[j].CreatedAt)
		}
		return members[i].Name < members[j].Name
	})
	return members
}

func (repo *staffRepository) CheckEmailUniqueness(_ context.Context, email string, excluded ...staff.Staff) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excludedIDs := make(map[string]bool, len(excluded))
	for _, s := range excluded {
		excludedIDs[s.ID] = true
	}
	for _, s := range repo.db.table {
		if s.Email == email && !excludedIDs[s.ID] {
			return staff.ErrEmailExists
		}
	}
	return nil
}

func (repo *staffRepository) Create(_ context.Context, s staff.Staff) (staff.Staff, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = uuid.NewString()
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *staffRepository) Query(_ context.Context, filter staff.QueryFilter, _ []core.DBOrdering) ([]staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	members := make([]staff.Staff, 0)
	for _, s := range repo.query() {
		if filter.Match(s) {
			members = append(members, s)
		}
	}
	return members, nil
}

func (repo *staffRepository) GetByID(_ context.Context, id string) (staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) GetByEmail(_ context.Context, email string) (staff.Staff, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, s := range repo.db.table {
		if s.Email == email {
			return *s, nil
		}
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) Update(_ context.Context, s staff.Staff, isActive *bool) (staff.Staff, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[s.ID]
	if !ok {
		return staff.Staff{}, staff.ErrNotFound
	}
	s.CreatedAt = orig.CreatedAt
	s.IsActive = orig.IsActive
	if isActive != nil {
		s.IsActive = *isActive
	}
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *staffRepository) Delete(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
