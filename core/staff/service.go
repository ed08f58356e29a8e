package staff

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("staff member not found")
	ErrEmailExists = errors.New("a staff member with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excluded ...Staff) error
		Create(ctx context.Context, s Staff) (Staff, error)
		// Query applies AND operation on available QueryFilter fields.
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Staff, error)
		GetByID(ctx context.Context, id string) (Staff, error)
		GetByEmail(ctx context.Context, email string) (Staff, error)
		Update(ctx context.Context, s Staff, isActive *bool) (Staff, error)
		Delete(ctx context.Context, ids ...string) error
	}

	Service interface {
		CheckUniqueness(email string, excluded ...Staff) error
		Create(ctx context.Context, ns NewStaff) (Staff, error)
		Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Staff, error)
		GetByID(ctx context.Context, id string) (Staff, error)
		GetByEmail(ctx context.Context, email string) (Staff, error)
		Update(ctx context.Context, id string, us UpdateStaff) (Staff, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(email string, excluded ...Staff) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, excluded...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	return nil
}

func (svc *service) Create(ctx context.Context, ns NewStaff) (Staff, error) {
	now := time.Now().UTC()
	s := Staff{
		Name:      ns.Name,
		Email:     ns.Email,
		Phone:     ns.Phone,
		Roles:     ns.Roles,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.Roles == nil {
		s.Roles = []string{}
	}
	s, err := svc.repo.Create(ctx, s)
	if err != nil {
		return Staff{}, errors.Wrap(err, "creating staff member")
	}
	return s, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Staff, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Staff, error) {
	return svc.repo.GetByID(ctx, core.CleanString(id))
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Staff, error) {
	return svc.repo.GetByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) Update(ctx context.Context, id string, us UpdateStaff) (Staff, error) {
	s := Staff{
		ID:        id,
		Name:      us.Name,
		Email:     us.Email,
		Phone:     us.Phone,
		Roles:     us.Roles,
		UpdatedAt: time.Now().UTC(),
	}
	if s.Roles == nil {
		s.Roles = []string{}
	}
	s, err := svc.repo.Update(ctx, s, us.IsActive)
	if err != nil {
		return Staff{}, errors.Wrap(err, "updating staff member")
	}
	return s, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return svc.repo.Delete(ctx, ids...)
}
