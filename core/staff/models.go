package staff

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
)

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Teacher
	RoleTeacher = "teacher:"

	// Support staff
	RoleStaff = "staff:"
)

var (
	AdminRoles   = []string{RoleAdmin, RoleAdminOwner, RoleAdminPrincipal}
	TeacherRoles = []string{RoleTeacher}
	StaffRoles   = []string{RoleStaff}
	AllRoles     = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminOwner:     30,
		RoleAdminPrincipal: 29,
		RoleAdmin:          21,

		// Teachers: 20 - 11
		RoleTeacher: 11,

		// Support staff: 10 - 1
		RoleStaff: 1,
	}

	Roles = []Role{
		{Name: "Staff", Value: RoleStaff},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Admin Principal", Value: RoleAdminPrincipal},
		{Name: "Admin Owner", Value: RoleAdminOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 5)
	all = append(all, AdminRoles...)
	all = append(all, TeacherRoles...)
	all = append(all, StaffRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Staff struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Roles     []string  `json:"roles"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (s *Staff) RoleStartsWith(prefix string) bool {
	for _, role := range s.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (s *Staff) IsAdmin() bool {
	return s.RoleStartsWith(RoleAdmin)
}

func (s *Staff) IsTeacher() bool {
	return s.RoleStartsWith(RoleTeacher)
}

// NewStaff contains information needed to register a new staff member.
type NewStaff struct {
	Name  string   `json:"name" validate:"required"`
	Email string   `json:"email" validate:"required,email"`
	Phone string   `json:"phone" validate:"omitempty,phone"`
	Roles []string `json:"roles" validate:"omitempty,allroles"`
}

func (ns *NewStaff) Validate(validate *validator.Validate, svc Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Roles = core.CleanStrings(ns.Roles, true /* lower */)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ns.Email)
}

// UpdateStaff defines what information may be provided to modify an existing staff member.
// Blank fields keep their current value.
type UpdateStaff struct {
	Name     string   `json:"name"`
	Email    string   `json:"email" validate:"omitempty,email"`
	Phone    string   `json:"phone" validate:"omitempty,phone"`
	IsActive *bool    `json:"is_active"`
	Roles    []string `json:"roles" validate:"omitempty,allroles"`
}

func (us *UpdateStaff) Validate(orig Staff, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}

	if email := core.CleanString(us.Email, true /* lower */); email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}

	if phone := core.CleanString(us.Phone); phone != "" {
		us.Phone = phone
	} else {
		us.Phone = orig.Phone
	}

	if us.Roles == nil {
		us.Roles = orig.Roles
	} else {
		us.Roles = core.CleanStrings(us.Roles, true /* lower */)
	}

	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckUniqueness(us.Email, orig)
}

type QueryFilter struct {
	Search   string   `query:"search"`
	Roles    []string `query:"role"`
	IsActive *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Roles = core.CleanStrings(qf.Roles, true /* lower */)
	if len(qf.Roles) == 0 {
		qf.Roles = nil
	}
}

// Match reports whether `s` satisfies the filter.
// Search is a case-insensitive match on one of Name, Email or Phone; Roles match any role prefix.
func (qf QueryFilter) Match(s Staff) bool {
	if qf.IsActive != nil && s.IsActive != *qf.IsActive {
		return false
	}
	if qf.Search != "" {
		search := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(s.Name), search) ||
			strings.Contains(strings.ToLower(s.Email), search) ||
			strings.Contains(s.Phone, search)) {
			return false
		}
	}
	if len(qf.Roles) > 0 {
		var found bool
		for _, role := range qf.Roles {
			if s.RoleStartsWith(role) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
