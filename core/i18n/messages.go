package i18n

// defaultMessages is the base layer of every catalog.
var defaultMessages = map[string]string{
	"app.name":          "School Attendance Management System",
	"nav.dashboard":     "Dashboard",
	"nav.students":      "Students",
	"nav.teachers":      "Teachers",
	"nav.attendance":    "Attendance",
	"nav.reports":       "Reports",
	"nav.analytics":     "Analytics",
	"nav.notifications": "Notifications",
	"nav.myAttendance":  "My Attendance",
	"nav.settings":      "Settings",
	"nav.logout":        "Logout",
	"auth.login":        "Login",
	"auth.logout":       "Logout",
	"auth.username":     "Username",
	"auth.password":     "Password",
	"auth.expired":      "Your session has expired. Please log in again.",
	"auth.welcome":      "Welcome, {name}",
	"action.save":       "Save",
	"action.cancel":     "Cancel",
	"action.edit":       "Edit",
	"action.delete":     "Delete",
	"action.view":       "View",
	"action.add":        "Add",
	"action.search":     "Search",
	"action.export":     "Export",
	"action.email":      "Email",

	"dashboard.totalStudents":      "Total Students",
	"dashboard.totalTeachers":      "Total Teachers",
	"dashboard.presentToday":       "Present Today",
	"dashboard.absentToday":        "Absent Today",
	"dashboard.lateToday":          "Late Today",
	"dashboard.averageAttendance":  "Average Attendance",
	"attendance.date":              "Date",
	"attendance.status":            "Status",
	"attendance.markDaily":         "Mark Attendance",
	"reports.sent":                 "Report sent to {email}",
	"attendance.totalDays":         "Total Days",
	"student.name":                 "Name",
	"student.firstName":            "First Name",
	"student.lastName":             "Last Name",
	"student.standard":             "Standard",
	"student.section":              "Section",
	"student.status":               "Status",
	"student.active":               "Active",
	"student.inactive":             "Inactive",
	"student.activate":             "Activate",
	"student.deactivate":           "Deactivate",
	"teacher.subject":              "Subject",
	"teacher.createAccount":        "Create Account",
	"reports.from":                 "From",
	"reports.to":                   "To",
	"analytics.trends":             "Attendance Trends",
	"analytics.classPerformance":   "Class Performance",
	"analytics.topAbsentees":       "Top Absentees",
	"notifications.dailyAbsentees": "Daily absentee alerts",
	"notifications.lowAttendance":  "Low attendance alerts",
	"notifications.saved":          "Settings saved",
	"error.forbidden":              "You do not have permission to perform this action.",
	"error.unavailable":            "The attendance service is unavailable. Please try again.",
	"error.server":                 "Something went wrong.",

	"accessibility.language.selector": "Language Selector",
	"language.select":                 "Select Language",
}

// fallbackMessages are used as the override layer when remote messages cannot be fetched.
var fallbackMessages = map[string]map[string]string{
	"hi": {
		"app.name":       "स्कूल उपस्थिति प्रबंधन प्रणाली",
		"nav.dashboard":  "डैशबोर्ड",
		"nav.students":   "छात्र",
		"nav.teachers":   "शिक्षक",
		"nav.attendance": "उपस्थिति",
		"nav.reports":    "रिपोर्ट",
		"nav.settings":   "सेटिंग्स",
		"auth.login":     "लॉगिन",
		"auth.username":  "उपयोगकर्ता नाम",
		"auth.password":  "पासवर्ड",
	},
	"mr": {
		"app.name":       "शाळा उपस्थिती व्यवस्थापन प्रणाली",
		"nav.dashboard":  "डॅशबोर्ड",
		"nav.students":   "विद्यार्थी",
		"nav.teachers":   "शिक्षक",
		"nav.attendance": "उपस्थिती",
		"nav.reports":    "अहवाल",
		"nav.settings":   "सेटिंग्ज",
		"auth.login":     "लॉगिन",
		"auth.username":  "वापरकर्ता नाव",
		"auth.password":  "पासवर्ड",
	},
}

// DefaultCatalog serves only the built-in messages.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultMessages, nil)
}
