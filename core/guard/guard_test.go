package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core/user"
)

type principal struct {
	loading bool
	role    user.Role
}

func (p principal) Loading() bool         { return p.loading }
func (p principal) IsAuthenticated() bool { return p.role != "" }
func (p principal) HasRole(roles ...user.Role) bool {
	return p.role != "" && p.role.In(roles...)
}

func TestCheck(t *testing.T) {
	var (
		anon    = principal{}
		loading = principal{loading: true, role: user.RoleAdmin}
		admin   = principal{role: user.RoleAdmin}
		teacher = principal{role: user.RoleTeacher}
		student = principal{role: user.RoleStudent}
	)

	tests := []struct {
		name string
		p    Principal
		view View
		want Decision
	}{
		{name: "nil principal", p: nil, view: Dashboard, want: Decision{State: Denied, Redirect: LoginPath}},
		{name: "loading renders nothing", p: loading, view: Teachers, want: Decision{State: Loading}},
		{name: "anonymous to restricted view goes to login", p: anon, view: Teachers, want: Decision{State: Denied, Redirect: LoginPath}},
		{name: "anonymous to open view goes to login", p: anon, view: Dashboard, want: Decision{State: Denied, Redirect: LoginPath}},
		{name: "student to admin view goes to landing", p: student, view: Teachers, want: Decision{State: Denied, Redirect: LandingPath}},
		{name: "teacher to admin view goes to landing", p: teacher, view: Teachers, want: Decision{State: Denied, Redirect: LandingPath}},
		{name: "admin to own attendance goes to landing", p: admin, view: MyAttendance, want: Decision{State: Denied, Redirect: LandingPath}},
		{name: "any role to dashboard", p: student, view: Dashboard, want: Decision{State: Allowed}},
		{name: "teacher to staff view", p: teacher, view: Reports, want: Decision{State: Allowed}},
		{name: "admin to admin view", p: admin, view: Teachers, want: Decision{State: Allowed}},
		{name: "student own attendance", p: student, view: MyAttendance, want: Decision{State: Allowed}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.p, tt.view))
		})
	}
}

func TestNavigation(t *testing.T) {
	paths := func(views []View) []string {
		out := make([]string, 0, len(views))
		for _, v := range views {
			out = append(out, v.Path)
		}
		return out
	}

	assert.Empty(t, Navigation(principal{}))
	assert.Empty(t, Navigation(principal{loading: true, role: user.RoleAdmin}))
	assert.Equal(t,
		[]string{"/dashboard", "/students", "/teachers", "/attendance", "/reports", "/analytics", "/notifications"},
		paths(Navigation(principal{role: user.RoleAdmin})))
	assert.Equal(t,
		[]string{"/dashboard", "/students", "/attendance", "/reports", "/analytics", "/notifications"},
		paths(Navigation(principal{role: user.RoleTeacher})))
	assert.Equal(t,
		[]string{"/dashboard", "/my-attendance"},
		paths(Navigation(principal{role: user.RoleStudent})))
}

func TestFind(t *testing.T) {
	v, ok := Find("/teachers")
	assert.True(t, ok)
	assert.Equal(t, []user.Role{user.RoleAdmin}, v.Roles)

	_, ok = Find("/nowhere")
	assert.False(t, ok)
}
