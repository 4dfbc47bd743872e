package apiclient

import (
	"strconv"

	"github.com/volatiletech/null/v8"
)

type (
	// PageInfo is the paging envelope of list endpoints.
	PageInfo struct {
		TotalElements int64 `json:"totalElements"`
		TotalPages    int   `json:"totalPages"`
		Number        int   `json:"number"`
		Size          int   `json:"size"`
	}

	// PageQuery are the paging parameters of list endpoints; zero values are omitted.
	PageQuery struct {
		Page    int
		Size    int
		SortBy  string
		SortDir string
	}

	Student struct {
		ID           int64       `json:"id,omitempty"`
		GRNo         string      `json:"grNo"`
		RollNo       null.String `json:"rollNo"`
		FirstName    string      `json:"firstName"`
		LastName     string      `json:"lastName"`
		DateOfBirth  null.String `json:"dateOfBirth"`
		Gender       string      `json:"gender"`
		Standard     string      `json:"standard"`
		Section      null.String `json:"section"`
		MobileNumber null.String `json:"mobileNumber"`
		ParentName   null.String `json:"parentName"`
		ParentMobile null.String `json:"parentMobile"`
		ParentEmail  null.String `json:"parentEmail"`
		IsActive     null.Bool   `json:"isActive"`
		SchoolID     null.Int64  `json:"schoolId"`
	}

	StudentPage struct {
		PageInfo
		Content []Student `json:"content"`
	}

	Teacher struct {
		ID             int64       `json:"id,omitempty"`
		EmpNo          string      `json:"empNo"`
		FirstName      string      `json:"firstName"`
		LastName       string      `json:"lastName"`
		DateOfBirth    null.String `json:"dateOfBirth"`
		PrimarySubject null.String `json:"primarySubject"`
		MobileNumber   null.String `json:"mobileNumber"`
		Email          null.String `json:"email"`
		Subjects       []string    `json:"subjects,omitempty"`
		Classes        []string    `json:"assignedClasses,omitempty"`
		SchoolID       null.Int64  `json:"schoolId"`
	}

	TeacherPage struct {
		PageInfo
		Content []Teacher `json:"content"`
	}

	AttendanceRecord struct {
		ID         int64       `json:"id,omitempty"`
		StudentID  int64       `json:"studentId"`
		TeacherID  null.Int64  `json:"teacherId"`
		Date       string      `json:"date"`
		Status     Status      `json:"status"`
		Note       null.String `json:"note"`
		MarkedTime null.String `json:"markedTime"`
		IsHoliday  bool        `json:"isHoliday"`
	}

	AttendancePage struct {
		PageInfo
		Content []AttendanceRecord `json:"content"`
	}

	// DailyMark is one entry of a mark-daily submission.
	DailyMark struct {
		StudentID int64       `json:"studentId"`
		Status    Status      `json:"status"`
		Note      null.String `json:"note"`
	}

	DailyAttendance struct {
		Date     string      `json:"date"`
		SchoolID int64       `json:"schoolId,omitempty"`
		Records  []DailyMark `json:"records"`
	}

	AttendanceSummary struct {
		TotalDays            int     `json:"totalDays"`
		PresentDays          int     `json:"presentDays"`
		AbsentDays           int     `json:"absentDays"`
		LateDays             int     `json:"lateDays"`
		AttendancePercentage float64 `json:"attendancePercentage"`
	}

	DashboardStats struct {
		TotalStudents     int     `json:"totalStudents"`
		TotalTeachers     int     `json:"totalTeachers"`
		AverageAttendance float64 `json:"averageAttendance"`
		TotalHolidays     int     `json:"totalHolidays"`
		PresentToday      int     `json:"presentToday"`
		AbsentToday       int     `json:"absentToday"`
		LateToday         int     `json:"lateToday"`
		TotalClasses      int     `json:"totalClasses"`
	}

	AttendanceTrend struct {
		Date         string `json:"date"`
		PresentCount int    `json:"presentCount"`
		AbsentCount  int    `json:"absentCount"`
		HolidayCount int    `json:"holidayCount"`
	}

	ClassPerformance struct {
		Standard          string  `json:"standard"`
		AverageAttendance float64 `json:"averageAttendance"`
		TotalStudents     int     `json:"totalStudents"`
		PresentStudents   int     `json:"presentStudents"`
		AbsentStudents    int     `json:"absentStudents"`
	}

	GenderRatio struct {
		BoysPresent  int `json:"boysPresent"`
		GirlsPresent int `json:"girlsPresent"`
		BoysAbsent   int `json:"boysAbsent"`
		GirlsAbsent  int `json:"girlsAbsent"`
	}

	TopAbsentee struct {
		StudentID            int64       `json:"studentId"`
		StudentName          string      `json:"studentName"`
		Standard             string      `json:"standard"`
		Section              null.String `json:"section"`
		AbsenceCount         int         `json:"absenceCount"`
		AttendancePercentage float64     `json:"attendancePercentage"`
		GRNo                 null.String `json:"grNo"`
		RollNo               null.String `json:"rollNo"`
	}

	NotificationSettings struct {
		ID                   int64        `json:"id,omitempty"`
		EmailEnabled         bool         `json:"emailEnabled"`
		SMSEnabled           bool         `json:"smsEnabled"`
		DailyAbsenteeAlerts  bool         `json:"dailyAbsenteeAlerts"`
		LowAttendanceAlerts  bool         `json:"lowAttendanceAlerts"`
		HolidayNotifications bool         `json:"holidayNotifications"`
		AttendanceThreshold  null.Float64 `json:"attendanceThreshold"`
		NotificationTime     null.String  `json:"notificationTime"`
	}

	NotificationLog struct {
		ID           int64       `json:"id"`
		Type         string      `json:"type"`
		Recipient    string      `json:"recipient"`
		Subject      null.String `json:"subject"`
		Message      string      `json:"message"`
		Status       string      `json:"status"`
		ErrorMessage null.String `json:"errorMessage"`
		SentAt       null.String `json:"sentAt"`
		StudentID    null.Int64  `json:"studentId"`
		SchoolID     null.Int64  `json:"schoolId"`
	}

	NotificationLogPage struct {
		PageInfo
		Content []NotificationLog `json:"content"`
	}

	NotificationStats struct {
		TotalSent    int64 `json:"totalSent"`
		TotalFailed  int64 `json:"totalFailed"`
		TotalPending int64 `json:"totalPending"`
		EmailCount   int64 `json:"emailCount"`
		SMSCount     int64 `json:"smsCount"`
	}
)

// Status is an attendance mark.
type Status string

const (
	StatusPresent   Status = "PRESENT"
	StatusAbsent    Status = "ABSENT"
	StatusLate      Status = "LATE"
	StatusHalfDay   Status = "HALF_DAY"
	StatusHoliday   Status = "HOLIDAY"
	StatusSickLeave Status = "SICK_LEAVE"
)

var Statuses = []Status{StatusPresent, StatusAbsent, StatusLate, StatusHalfDay, StatusHoliday, StatusSickLeave}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

func (t Teacher) FullName() string {
	return t.FirstName + " " + t.LastName
}

// AttendanceRateToday is the share of present and late marks, in percent.
func (st DashboardStats) AttendanceRateToday() float64 {
	total := st.PresentToday + st.AbsentToday + st.LateToday
	if total == 0 {
		return 0
	}
	return float64(st.PresentToday+st.LateToday) * 100 / float64(total)
}

func (q PageQuery) params(dst map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string)
	}
	if q.Page > 0 {
		dst["page"] = strconv.Itoa(q.Page)
	}
	if q.Size > 0 {
		dst["size"] = strconv.Itoa(q.Size)
	}
	if q.SortBy != "" {
		dst["sortBy"] = q.SortBy
	}
	if q.SortDir != "" {
		dst["sortDir"] = q.SortDir
	}
	return dst
}
