package tests

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ratiba/core/staff"
	"github.com/trezcool/ratiba/tests"
)

func Test_staffApi_query(t *testing.T) {
	testutil.ResetDB(t, db)

	path := func(search, ordering string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/staff?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now()
	owner := testutil.CreateStaff(t, staffRepo, "Amani Owner", "owner@test.cd", []string{staff.RoleAdminOwner}, true, now)
	principal := testutil.CreateStaff(t, staffRepo, "Bahati Principal", "principal@test.cd", []string{staff.RoleAdminPrincipal}, true, now.Add(time.Hour))
	teacher := testutil.CreateStaff(t, staffRepo, "Chausiku Teacher", "teacher@test.cd", []string{staff.RoleTeacher}, true, now.Add(2*time.Hour))
	janitor := testutil.CreateStaff(t, staffRepo, "Dalili Janitor", "janitor@test.cd", []string{staff.RoleStaff}, false, now.Add(3*time.Hour))

	empty := marchallList(t)

	tests := []httpTest{
		{name: "Get all (by name)", path: "/v1/staff", wantData: marchallList(t, owner, principal, teacher, janitor)},
		{name: "ordering=-created_at", path: path("", "-created_at", nil), wantData: marchallList(t, janitor, teacher, principal, owner)},
		{name: "search (unknown)", path: path("lol", "", nil), wantData: empty},
		{name: "search=TEACH", path: path("TEACH", "", nil), wantData: marchallList(t, teacher)},
		{name: "role=admin:", path: path("", "", nil, staff.RoleAdmin), wantData: marchallList(t, owner, principal)},
		{name: "role=teacher:,staff:", path: path("", "", nil, staff.RoleTeacher, staff.RoleStaff), wantData: marchallList(t, teacher, janitor)},
		{name: "is_active=false", path: path("", "", bPtr(false)), wantData: marchallList(t, janitor)},
		{name: "is_active=true&role=admin:owner", path: path("", "", bPtr(true), staff.RoleAdminOwner), wantData: marchallList(t, owner)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			tt.wantCode = http.StatusOK
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_staffApi_create(t *testing.T) {
	testutil.ResetDB(t, db)
	existing := testutil.CreateStaff(t, staffRepo, "Existing", "existing@test.cd", nil, true)

	tests := []httpTest{
		{
			name: "invalid data", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":  "this field is required",
				"email": "this field is required",
			}),
		},
		{
			name: "invalid email & role", body: []byte(`{"name": "Zawadi", "email": "lol", "roles": ["janitor:"]}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"email": "email must be a valid email address",
				"roles": "invalid roles",
			}),
		},
		{
			name: "duplicate email", body: []byte(`{"name": "Zawadi", "email": "EXISTING@test.cd"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": staff.ErrEmailExists.Error()}),
		},
		{name: "malformed JSON", body: []byte(`{"name": `), wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/staff", tt.body)
			app.ServeHTTP(rec, req)
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			} else {
				checkCode(t, tt, rec)
			}
		})
	}

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/staff",
			[]byte(`{"name": " Zawadi ", "email": "Zawadi@Test.cd", "phone": "+243 810 000 000", "roles": ["teacher:"]}`))
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusCreated}, rec)

		var got staff.Staff
		unmarshal(t, rec, &got)
		assert.NotEmpty(t, got.ID)
		assert.NotEqual(t, existing.ID, got.ID)
		assert.Equal(t, "Zawadi", got.Name)
		assert.Equal(t, "zawadi@test.cd", got.Email)
		assert.Equal(t, []string{staff.RoleTeacher}, got.Roles)
		assert.True(t, got.IsActive)

		saved, err := staffRepo.GetByID(context.Background(), got.ID)
		assert.NoError(t, err)
		assert.Equal(t, got.Email, saved.Email)
	})
}

func Test_staffApi_detail(t *testing.T) {
	testutil.ResetDB(t, db)
	member := testutil.CreateStaff(t, staffRepo, "Imani", "imani@test.cd", []string{staff.RoleTeacher}, true)
	other := testutil.CreateStaff(t, staffRepo, "Jabari", "jabari@test.cd", nil, true)
	notFound := marchallObj(t, httpErr{Error: "not found"})

	t.Run("retrieve", func(t *testing.T) {
		tests := []httpTest{
			{name: "unknown", path: "/v1/staff/lol", wantCode: http.StatusNotFound, wantData: notFound},
			{name: "found", path: "/v1/staff/" + member.ID, wantCode: http.StatusOK, wantData: marchallObj(t, member)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req, rec := newRequest(http.MethodGet, tt.path)
				app.ServeHTTP(rec, req)
				checkCodeAndData(t, tt, rec)
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, "/v1/staff/"+member.ID, []byte(`{"email": "jabari@test.cd"}`))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": staff.ErrEmailExists.Error()}),
		}, rec)

		req, rec = newRequest(http.MethodPut, "/v1/staff/"+member.ID, []byte(`{"name": "Imani K.", "is_active": false}`))
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusOK}, rec)

		var got staff.Staff
		unmarshal(t, rec, &got)
		assert.Equal(t, "Imani K.", got.Name)
		assert.Equal(t, member.Email, got.Email)
		assert.Equal(t, member.Roles, got.Roles)
		assert.False(t, got.IsActive)
	})

	t.Run("roles", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/staff/roles")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, staff.Roles)}, rec)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newRequest(http.MethodDelete, "/v1/staff/"+member.ID)
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusNoContent}, rec)

		req, rec = newRequest(http.MethodDelete, "/v1/staff?id="+other.ID+"&id=lol")
		app.ServeHTTP(rec, req)
		checkCode(t, httpTest{wantCode: http.StatusNoContent}, rec)

		req, rec = newRequest(http.MethodGet, "/v1/staff")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)
	})
}
