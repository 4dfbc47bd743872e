package apitest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/services/apiclient"
)

// SeedAccounts are the accounts every Server starts with; the password is the username + "Pass1!".
var SeedAccounts = []user.Profile{
	{ID: 1, Username: "admin", Role: user.RoleAdmin, FullName: "School Admin", Email: "admin@school.test"},
	{ID: 2, Username: "teacher", Role: user.RoleTeacher, FullName: "Asha Patil", Email: "asha@school.test"},
	{ID: 3, Username: "student", Role: user.RoleStudent, FullName: "Ravi Kulkarni", Email: "ravi@school.test"},
}

// Password returns the seeded password of username.
func Password(username string) string {
	return username + "Pass1!"
}

func (s *Server) seed() {
	for _, usr := range SeedAccounts {
		s.accounts[usr.Username] = account{password: Password(usr.Username), profile: usr}
		if usr.ID > s.nextUserID {
			s.nextUserID = usr.ID
		}
	}

	for _, st := range []apiclient.Student{
		{GRNo: "GR001", FirstName: "Ravi", LastName: "Kulkarni", Gender: "MALE", Standard: "5", Section: null.StringFrom("A")},
		{GRNo: "GR002", FirstName: "Meera", LastName: "Joshi", Gender: "FEMALE", Standard: "5", Section: null.StringFrom("A")},
		{GRNo: "GR003", FirstName: "Kabir", LastName: "Shaikh", Gender: "MALE", Standard: "6", Section: null.StringFrom("B")},
	} {
		s.nextStudentID++
		st.ID = s.nextStudentID
		st.IsActive = null.BoolFrom(true)
		s.students[st.ID] = st
	}

	s.nextTeacherID++
	s.teachers[s.nextTeacherID] = apiclient.Teacher{
		ID:             s.nextTeacherID,
		EmpNo:          "EMP001",
		FirstName:      "Asha",
		LastName:       "Patil",
		PrimarySubject: null.StringFrom("Mathematics"),
		Email:          null.StringFrom("asha@school.test"),
	}

	s.attendance = []apiclient.AttendanceRecord{
		{ID: 1, StudentID: 1, Date: "2024-06-03", Status: apiclient.StatusPresent},
		{ID: 2, StudentID: 2, Date: "2024-06-03", Status: apiclient.StatusAbsent},
		{ID: 3, StudentID: 3, Date: "2024-06-03", Status: apiclient.StatusLate},
	}

	s.settings = apiclient.NotificationSettings{
		ID:                  1,
		EmailEnabled:        true,
		DailyAbsenteeAlerts: true,
		LowAttendanceAlerts: true,
		AttendanceThreshold: null.Float64From(75),
		NotificationTime:    null.StringFrom("20:00"),
	}
}

// auth

func (s *Server) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	s.mu.Lock()
	acc, ok := s.accounts[creds.Username] // usernames match exactly
	s.mu.Unlock()
	if !ok || acc.password != creds.Password {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}

	token, err := generateToken(acc.profile)
	if err != nil {
		return err
	}
	usr := acc.profile
	return ctx.JSON(http.StatusOK, session.LoginResponse{Success: true, Token: token, User: &usr})
}

func (s *Server) register(ctx echo.Context) error {
	var nu user.NewUser
	if err := ctx.Bind(&nu); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[nu.Username]; exists {
		return echo.NewHTTPError(http.StatusBadRequest, "Username already exists")
	}
	s.nextUserID++
	usr := user.Profile{ID: s.nextUserID, Username: nu.Username, Role: nu.Role, FullName: nu.FullName, Email: nu.Email}
	s.accounts[nu.Username] = account{password: nu.Password, profile: usr}
	return ctx.JSON(http.StatusCreated, usr)
}

func (s *Server) validate(ctx echo.Context) error {
	claims, err := contextClaims(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"valid":    true,
		"username": claims.Username,
		"role":     claims.Role,
		"userId":   claims.UserID,
	})
}

func (s *Server) refresh(ctx echo.Context) error {
	claims, err := contextClaims(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	acc, ok := s.accounts[claims.Username]
	s.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Token cannot be refreshed")
	}
	token, err := generateToken(acc.profile)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]string{"token": token})
}

func (s *Server) me(ctx echo.Context) error {
	claims, err := contextClaims(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	acc, ok := s.accounts[claims.Username]
	s.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	return ctx.JSON(http.StatusOK, acc.profile)
}

// messages

func (s *Server) getMessages(ctx echo.Context) error {
	lang := ctx.QueryParam("lang")
	if lang == "" {
		lang = "en"
	}

	s.mu.Lock()
	gate := s.gates[lang]
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Request().Context().Done():
			return ctx.Request().Context().Err()
		}
	}

	s.mu.Lock()
	down := s.messagesDown
	messages, ok := s.messages[lang]
	s.mu.Unlock()
	if down {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Messages unavailable")
	}
	if !ok {
		messages = map[string]string{}
	}
	return ctx.JSON(http.StatusOK, messages)
}

// students

func (s *Server) registerStudents(g *echo.Group, staff, admin echo.MiddlewareFunc) {
	g.GET("/students", s.listStudents, staff)
	g.GET("/students/search", s.listStudents, staff)
	g.GET("/students/:id", s.getStudent, staff)
	g.POST("/students", s.createStudent, admin)
	g.PUT("/students/:id", s.updateStudent, admin)
	g.DELETE("/students/:id", s.deleteStudent, admin)
	g.PUT("/students/:id/activate", s.setStudentActive(true), admin)
	g.PUT("/students/:id/deactivate", s.setStudentActive(false), admin)
}

func (s *Server) listStudents(ctx echo.Context) error {
	query := strings.ToLower(ctx.QueryParam("query"))
	standard := ctx.QueryParam("standard")

	s.mu.Lock()
	list := make([]apiclient.Student, 0, len(s.students))
	for _, st := range s.students {
		if query != "" && !strings.Contains(strings.ToLower(st.FullName()+" "+st.GRNo), query) {
			continue
		}
		if standard != "" && st.Standard != standard {
			continue
		}
		list = append(list, st)
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	page := apiclient.StudentPage{Content: list}
	page.PageInfo = pageInfo(len(list))
	return ctx.JSON(http.StatusOK, page)
}

func (s *Server) getStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	st, ok := s.students[id]
	s.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Student not found")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (s *Server) createStudent(ctx echo.Context) error {
	var st apiclient.Student
	if err := ctx.Bind(&st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if st.GRNo == "" || st.FirstName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "grNo and firstName are required")
	}

	s.mu.Lock()
	s.nextStudentID++
	st.ID = s.nextStudentID
	st.IsActive = null.BoolFrom(true)
	s.students[st.ID] = st
	s.mu.Unlock()
	return ctx.JSON(http.StatusCreated, st)
}

func (s *Server) updateStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var st apiclient.Student
	if err = ctx.Bind(&st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Student not found")
	}
	st.ID = id
	s.students[id] = st
	return ctx.JSON(http.StatusOK, st)
}

func (s *Server) deleteStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Student not found")
	}
	delete(s.students, id)
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) setStudentActive(active bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := pathID(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		st, ok := s.students[id]
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "Student not found")
		}
		st.IsActive = null.BoolFrom(active)
		s.students[id] = st
		return ctx.JSON(http.StatusOK, st)
	}
}

// teachers

func (s *Server) registerTeachers(g *echo.Group, admin echo.MiddlewareFunc) {
	g.GET("/teachers", s.listTeachers, admin)
	g.GET("/teachers/search", s.listTeachers, admin)
	g.POST("/teachers", s.createTeacher, admin)
	g.DELETE("/teachers/:id", s.deleteTeacher, admin)
}

func (s *Server) listTeachers(ctx echo.Context) error {
	s.mu.Lock()
	list := make([]apiclient.Teacher, 0, len(s.teachers))
	for _, t := range s.teachers {
		list = append(list, t)
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	page := apiclient.TeacherPage{Content: list}
	page.PageInfo = pageInfo(len(list))
	return ctx.JSON(http.StatusOK, page)
}

func (s *Server) createTeacher(ctx echo.Context) error {
	var t apiclient.Teacher
	if err := ctx.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	s.mu.Lock()
	s.nextTeacherID++
	t.ID = s.nextTeacherID
	s.teachers[t.ID] = t
	s.mu.Unlock()
	return ctx.JSON(http.StatusCreated, t)
}

func (s *Server) deleteTeacher(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.teachers, id)
	s.mu.Unlock()
	return ctx.NoContent(http.StatusNoContent)
}

// attendance

func (s *Server) registerAttendance(g *echo.Group, staff echo.MiddlewareFunc) {
	g.GET("/attendance", s.listAttendance, staff)
	g.POST("/attendance/mark-daily", s.markDaily, staff)
	g.GET("/attendance/student/:id/summary", s.studentSummary)
	g.GET("/attendance/export/:format", s.export, staff)
}

func (s *Server) listAttendance(ctx echo.Context) error {
	date := ctx.QueryParam("date")

	s.mu.Lock()
	list := make([]apiclient.AttendanceRecord, 0, len(s.attendance))
	for _, rec := range s.attendance {
		if date == "" || rec.Date == date {
			list = append(list, rec)
		}
	}
	s.mu.Unlock()

	page := apiclient.AttendancePage{Content: list}
	page.PageInfo = pageInfo(len(list))
	return ctx.JSON(http.StatusOK, page)
}

func (s *Server) markDaily(ctx echo.Context) error {
	var daily apiclient.DailyAttendance
	if err := ctx.Bind(&daily); err != nil || daily.Date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	claims, err := contextClaims(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mark := range daily.Records {
		if !mark.Status.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid status "+string(mark.Status))
		}
		s.attendance = append(s.attendance, apiclient.AttendanceRecord{
			ID:        int64(len(s.attendance) + 1),
			StudentID: mark.StudentID,
			TeacherID: null.Int64From(claims.UserID),
			Date:      daily.Date,
			Status:    mark.Status,
			Note:      mark.Note,
		})
	}
	return ctx.NoContent(http.StatusCreated)
}

func (s *Server) studentSummary(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var sum apiclient.AttendanceSummary
	s.mu.Lock()
	for _, rec := range s.attendance {
		if rec.StudentID != id {
			continue
		}
		sum.TotalDays++
		switch rec.Status {
		case apiclient.StatusPresent:
			sum.PresentDays++
		case apiclient.StatusLate:
			sum.LateDays++
		case apiclient.StatusAbsent:
			sum.AbsentDays++
		}
	}
	s.mu.Unlock()
	if sum.TotalDays > 0 {
		sum.AttendancePercentage = float64(sum.PresentDays+sum.LateDays) * 100 / float64(sum.TotalDays)
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (s *Server) export(ctx echo.Context) error {
	format, err := apiclient.ParseFormat(ctx.Param("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Unknown format")
	}

	var b strings.Builder
	b.WriteString("id,studentId,date,status\n")
	s.mu.Lock()
	for _, rec := range s.attendance {
		b.WriteString(strconv.FormatInt(rec.ID, 10) + "," + strconv.FormatInt(rec.StudentID, 10) + "," + rec.Date + "," + string(rec.Status) + "\n")
	}
	s.mu.Unlock()
	return ctx.Blob(http.StatusOK, format.ContentType(), []byte(b.String()))
}

// stats & analytics

func (s *Server) registerStats(g *echo.Group, staff echo.MiddlewareFunc) {
	g.GET("/attendance/stats/dashboard", s.dashboardStats)
	g.GET("/analytics/dashboard-stats", s.dashboardStats)
	g.GET("/attendance/stats/trends", s.trends, staff)
	g.GET("/analytics/attendance/trends", s.trends, staff)
	g.GET("/attendance/stats/class-wise", s.classPerformance, staff)
	g.GET("/analytics/class-performance", s.classPerformance, staff)
	g.GET("/analytics/gender-ratio", s.genderRatio, staff)
	g.GET("/analytics/top-absentees", s.topAbsentees, staff)
}

func (s *Server) dashboardStats(ctx echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := apiclient.DashboardStats{
		TotalStudents: len(s.students),
		TotalTeachers: len(s.teachers),
		TotalClasses:  2,
	}
	for _, rec := range s.attendance {
		switch rec.Status {
		case apiclient.StatusPresent:
			stats.PresentToday++
		case apiclient.StatusAbsent:
			stats.AbsentToday++
		case apiclient.StatusLate:
			stats.LateToday++
		}
	}
	stats.AverageAttendance = stats.AttendanceRateToday()
	return ctx.JSON(http.StatusOK, stats)
}

func (s *Server) trends(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, []apiclient.AttendanceTrend{
		{Date: "2024-06-03", PresentCount: 2, AbsentCount: 1},
		{Date: "2024-06-04", PresentCount: 3},
	})
}

func (s *Server) classPerformance(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, []apiclient.ClassPerformance{
		{Standard: "5", AverageAttendance: 50, TotalStudents: 2, PresentStudents: 1, AbsentStudents: 1},
		{Standard: "6", AverageAttendance: 100, TotalStudents: 1, PresentStudents: 1},
	})
}

func (s *Server) genderRatio(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, apiclient.GenderRatio{BoysPresent: 2, GirlsAbsent: 1})
}

func (s *Server) topAbsentees(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, []apiclient.TopAbsentee{
		{StudentID: 2, StudentName: "Meera Joshi", Standard: "5", AbsenceCount: 1, AttendancePercentage: 0},
	})
}

// notifications

func (s *Server) registerNotifications(g *echo.Group, staff echo.MiddlewareFunc) {
	g.GET("/notifications/settings/:id", s.getSettings, staff)
	g.PUT("/notifications/settings/:id", s.putSettings, staff)
	g.GET("/notifications/logs", s.notificationLogs, staff)
	g.GET("/notifications/stats", s.notificationStats, staff)
	g.POST("/notifications/test/email", s.testEmail, staff)
}

func (s *Server) getSettings(ctx echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ctx.JSON(http.StatusOK, s.settings)
}

func (s *Server) putSettings(ctx echo.Context) error {
	var settings apiclient.NotificationSettings
	if err := ctx.Bind(&settings); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	settings.ID = s.settings.ID
	s.settings = settings
	return ctx.JSON(http.StatusOK, s.settings)
}

func (s *Server) notificationLogs(ctx echo.Context) error {
	s.mu.Lock()
	logs := make([]apiclient.NotificationLog, len(s.logs))
	copy(logs, s.logs)
	s.mu.Unlock()

	page := apiclient.NotificationLogPage{Content: logs}
	page.PageInfo = pageInfo(len(logs))
	return ctx.JSON(http.StatusOK, page)
}

func (s *Server) notificationStats(ctx echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats apiclient.NotificationStats
	for _, l := range s.logs {
		stats.TotalSent++
		if l.Type == "EMAIL" {
			stats.EmailCount++
		}
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (s *Server) testEmail(ctx echo.Context) error {
	to := ctx.QueryParam("to")
	if to == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "to is required")
	}
	s.mu.Lock()
	s.logs = append(s.logs, apiclient.NotificationLog{
		ID:        int64(len(s.logs) + 1),
		Type:      "EMAIL",
		Recipient: to,
		Subject:   null.StringFrom(ctx.QueryParam("subject")),
		Message:   ctx.QueryParam("message"),
		Status:    "SUCCESS",
	})
	s.mu.Unlock()
	return ctx.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

// helpers

func pathID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid id")
	}
	return id, nil
}

func pageInfo(n int) apiclient.PageInfo {
	return apiclient.PageInfo{TotalElements: int64(n), TotalPages: 1, Size: n}
}
