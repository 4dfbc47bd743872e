package guard

import "github.com/trezcool/mahudhurio/core/user"

var staff = []user.Role{user.RoleAdmin, user.RoleTeacher}

var (
	Dashboard     = View{Path: "/dashboard", TitleKey: "nav.dashboard"}
	Students      = View{Path: "/students", TitleKey: "nav.students", Roles: staff}
	Teachers      = View{Path: "/teachers", TitleKey: "nav.teachers", Roles: []user.Role{user.RoleAdmin}}
	Attendance    = View{Path: "/attendance", TitleKey: "nav.attendance", Roles: staff}
	Reports       = View{Path: "/reports", TitleKey: "nav.reports", Roles: staff}
	Analytics     = View{Path: "/analytics", TitleKey: "nav.analytics", Roles: staff}
	Notifications = View{Path: "/notifications", TitleKey: "nav.notifications", Roles: staff}
	MyAttendance  = View{Path: "/my-attendance", TitleKey: "nav.myAttendance", Roles: []user.Role{user.RoleStudent}}
)

// Views is the route table, in sidebar order.
var Views = []View{
	Dashboard,
	Students,
	Teachers,
	Attendance,
	Reports,
	Analytics,
	Notifications,
	MyAttendance,
}

// Find returns the view registered for path.
func Find(path string) (View, bool) {
	for _, v := range Views {
		if v.Path == path {
			return v, true
		}
	}
	return View{}, false
}

// Navigation returns the views p may open, in sidebar order.
func Navigation(p Principal) []View {
	nav := make([]View, 0, len(Views))
	for _, v := range Views {
		if Check(p, v).Allowed() {
			nav = append(nav, v)
		}
	}
	return nav
}
