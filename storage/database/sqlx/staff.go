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
	"github.com/trezcool/ratiba/core/staff"
)

var staffOrderings = map[string]string{
	"name":       "name",
	"email":      "email",
	"is_active":  "is_active",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type staffRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Roles     string    `db:"roles"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r staffRow) toStaff() staff.Staff {
	roles := []string{}
	if r.Roles != "" {
		roles = strings.Split(r.Roles, ",")
	}
	return staff.Staff{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Roles:     roles,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type staffRepository struct {
	db *sqlx.DB
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *sqlx.DB) staff.Repository {
	return &staffRepository{db: db}
}

func (repo *staffRepository) CheckEmailUniqueness(ctx context.Context, email string, excluded ...staff.Staff) error {
	var conds conditions
	conds.add("email = ?", email)
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, s := range excluded {
			ids = append(ids, s.ID)
		}
		conds.add("id NOT IN (?)", ids)
	}

	q, args, err := bind(repo.db, "SELECT COUNT(*) FROM staff"+conds.String(), conds.args...)
	if err != nil {
		return err
	}
	var count int
	if err = repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "counting staff emails")
	}
	if count > 0 {
		return staff.ErrEmailExists
	}
	return nil
}

func (repo *staffRepository) Create(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	s.ID = uuid.NewString()
	s.CreatedAt = timestamp(s.CreatedAt)
	s.UpdatedAt = timestamp(s.UpdatedAt)

	q := repo.db.Rebind(`INSERT INTO staff (id, name, email, phone, roles, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, q,
		s.ID, s.Name, s.Email, s.Phone, strings.Join(s.Roles, ","), s.IsActive, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return staff.Staff{}, errors.Wrap(err, "inserting staff")
	}
	return s, nil
}

func (repo *staffRepository) Query(ctx context.Context, filter staff.QueryFilter, ordering []core.DBOrdering) ([]staff.Staff, error) {
	var conds conditions
	if filter.Search != "" {
		p := likePattern(filter.Search)
		conds.add("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?)", p, p, p)
	}
	if filter.IsActive != nil {
		conds.add("is_active = ?", *filter.IsActive)
	}
	if len(filter.Roles) > 0 {
		ors := make([]string, 0, len(filter.Roles))
		args := make([]interface{}, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			ors = append(ors, "(',' || roles) LIKE ?")
			args = append(args, "%,"+role+"%")
		}
		conds.add("("+strings.Join(ors, " OR ")+")", args...)
	}

	query := "SELECT * FROM staff" + conds.String() +
		core.OrderByClause(core.AllowedOrderings(ordering, staffOrderings), "name ASC, created_at ASC")

	var rows []staffRow
	if err := selectIn(ctx, repo.db, &rows, query, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting staff")
	}
	members := make([]staff.Staff, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.toStaff())
	}
	return members, nil
}

func (repo *staffRepository) getBy(ctx context.Context, column, value string) (staff.Staff, error) {
	var row staffRow
	q := repo.db.Rebind("SELECT * FROM staff WHERE " + column + " = ?")
	if err := repo.db.GetContext(ctx, &row, q, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return staff.Staff{}, staff.ErrNotFound
		}
		return staff.Staff{}, errors.Wrap(err, "selecting staff")
	}
	return row.toStaff(), nil
}

func (repo *staffRepository) GetByID(ctx context.Context, id string) (staff.Staff, error) {
	return repo.getBy(ctx, "id", id)
}

func (repo *staffRepository) GetByEmail(ctx context.Context, email string) (staff.Staff, error) {
	return repo.getBy(ctx, "email", email)
}

func (repo *staffRepository) Update(ctx context.Context, s staff.Staff, isActive *bool) (staff.Staff, error) {
	cols := []string{"name = ?", "email = ?", "phone = ?", "roles = ?", "updated_at = ?"}
	args := []interface{}{s.Name, s.Email, s.Phone, strings.Join(s.Roles, ","), timestamp(s.UpdatedAt)}
	if isActive != nil {
		cols = append(cols, "is_active = ?")
		args = append(args, *isActive)
	}
	args = append(args, s.ID)

	q := repo.db.Rebind("UPDATE staff SET " + strings.Join(cols, ", ") + " WHERE id = ?")
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return staff.Staff{}, errors.Wrap(err, "updating staff")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return staff.Staff{}, staff.ErrNotFound
	}
	return repo.GetByID(ctx, s.ID)
}

func (repo *staffRepository) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := execIn(ctx, tx, "DELETE FROM attendance WHERE staff_id IN (?)", ids); err != nil {
			return errors.Wrap(err, "deleting staff attendance")
		}
		if _, err := execIn(ctx, tx, "UPDATE entry SET teacher_id = '' WHERE teacher_id IN (?)", ids); err != nil {
			return errors.Wrap(err, "detaching staff from entries")
		}
		if _, err := execIn(ctx, tx, "DELETE FROM staff WHERE id IN (?)", ids); err != nil {
			return errors.Wrap(err, "deleting staff")
		}
		return nil
	})
}
