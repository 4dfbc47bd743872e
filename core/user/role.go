package user

import "github.com/pkg/errors"

// Role is the closed set of account roles known to the backend.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// Permission is a capability granted to a Role.
type Permission string

const (
	PermManageUsers         Permission = "MANAGE_USERS"
	PermManageStudents      Permission = "MANAGE_STUDENTS"
	PermManageTeachers      Permission = "MANAGE_TEACHERS"
	PermManageAttendance    Permission = "MANAGE_ATTENDANCE"
	PermManageNotifications Permission = "MANAGE_NOTIFICATIONS"
	PermViewReports         Permission = "VIEW_REPORTS"
	PermExportReports       Permission = "EXPORT_REPORTS"
	PermViewStudents        Permission = "VIEW_STUDENTS"
	PermViewOwnAttendance   Permission = "VIEW_OWN_ATTENDANCE"
)

var (
	ErrUnknownRole = errors.New("unknown role")

	AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

	// rolePermissions must have an entry for every role in AllRoles (checked in init).
	rolePermissions = map[Role][]Permission{
		RoleAdmin: {
			PermManageUsers,
			PermManageStudents,
			PermManageTeachers,
			PermManageAttendance,
			PermManageNotifications,
			PermViewReports,
			PermExportReports,
		},
		RoleTeacher: {
			PermManageAttendance,
			PermViewReports,
			PermViewStudents,
		},
		RoleStudent: {
			PermViewOwnAttendance,
		},
	}

	roleNames = map[Role]string{
		RoleAdmin:   "Admin",
		RoleTeacher: "Teacher",
		RoleStudent: "Student",
	}
)

func init() {
	for _, role := range AllRoles {
		if _, ok := rolePermissions[role]; !ok {
			panic("user: no permissions declared for role " + string(role))
		}
		if _, ok := roleNames[role]; !ok {
			panic("user: no display name declared for role " + string(role))
		}
	}
}

// ParseRole returns the Role matching s exactly.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.Valid() {
		return "", errors.Wrapf(ErrUnknownRole, "%q", s)
	}
	return role, nil
}

func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

func (r Role) Name() string {
	return roleNames[r]
}

// Can reports whether the role is granted perm.
func (r Role) Can(perm Permission) bool {
	for _, p := range rolePermissions[r] {
		if p == perm {
			return true
		}
	}
	return false
}

// Permissions returns a copy of the permissions granted to the role.
func (r Role) Permissions() []Permission {
	perms := rolePermissions[r]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}
