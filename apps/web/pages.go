package webapp

import (
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/guard"
	"github.com/trezcool/mahudhurio/core/i18n"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/services/apiclient"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
)

func (s *Server) show(ctx echo.Context, name string, data interface{}) error {
	return s.render(ctx, http.StatusOK, name, s.newPage(ctx, contextView(ctx).TitleKey, data))
}

func (s *Server) back(ctx echo.Context, flash string) error {
	if flash != "" {
		s.setFlash(flash)
	}
	return ctx.Redirect(http.StatusSeeOther, contextView(ctx).Path)
}

// dashboard

func (s *Server) dashboard(ctx echo.Context) error {
	stats, err := s.deps.Client.Stats().Dashboard(ctx.Request().Context(), 0, time.Time{}, time.Time{})
	if err != nil {
		return err
	}
	return s.show(ctx, "dashboard.html", stats)
}

// students

type studentsData struct {
	Query string
	Page  apiclient.StudentPage
}

func (s *Server) students(ctx echo.Context) error {
	var (
		data = studentsData{Query: strings.TrimSpace(ctx.QueryParam("q"))}
		err  error
		api  = s.deps.Client.Students()
		rctx = ctx.Request().Context()
	)
	if data.Query != "" {
		data.Page, err = api.Search(rctx, apiclient.StudentFilter{Query: data.Query}, apiclient.PageQuery{})
	} else {
		data.Page, err = api.List(rctx, apiclient.PageQuery{})
	}
	if err != nil {
		return err
	}
	return s.show(ctx, "students.html", data)
}

func (s *Server) createStudent(ctx echo.Context) error {
	st := apiclient.Student{
		GRNo:      core.CleanString(ctx.FormValue("grNo")),
		FirstName: core.CleanString(ctx.FormValue("firstName")),
		LastName:  core.CleanString(ctx.FormValue("lastName")),
		Gender:    ctx.FormValue("gender"),
		Standard:  core.CleanString(ctx.FormValue("standard")),
	}
	if section := core.CleanString(ctx.FormValue("section")); section != "" {
		st.Section = null.StringFrom(section)
	}
	if _, err := s.deps.Client.Students().Create(ctx.Request().Context(), st); err != nil {
		return err
	}
	return s.back(ctx, "")
}

func (s *Server) deleteStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = s.deps.Client.Students().Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return s.back(ctx, "")
}

func (s *Server) setStudentActive(active bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := pathID(ctx)
		if err != nil {
			return err
		}
		api := s.deps.Client.Students()
		if active {
			err = api.Activate(ctx.Request().Context(), id)
		} else {
			err = api.Deactivate(ctx.Request().Context(), id)
		}
		if err != nil {
			return err
		}
		return s.back(ctx, "")
	}
}

// teachers

type teachersData struct {
	Page  apiclient.TeacherPage
	Roles []user.Role
}

func (s *Server) teachers(ctx echo.Context) error {
	return s.renderTeachers(ctx, http.StatusOK, "", nil)
}

func (s *Server) renderTeachers(ctx echo.Context, code int, errMsg string, fields map[string]string) error {
	page, err := s.deps.Client.Teachers().List(ctx.Request().Context(), apiclient.PageQuery{})
	if err != nil {
		return err
	}
	p := s.newPage(ctx, contextView(ctx).TitleKey, teachersData{Page: page, Roles: user.AllRoles})
	p.Error = errMsg
	if fields != nil {
		p.Fields = fields
	}
	return s.render(ctx, code, "teachers.html", p)
}

// createAccount registers a login account through the session.
func (s *Server) createAccount(ctx echo.Context) error {
	nu := user.NewUser{
		Username: ctx.FormValue("username"),
		Email:    ctx.FormValue("email"),
		FullName: ctx.FormValue("fullName"),
		Password: ctx.FormValue("password"),
		Role:     user.Role(ctx.FormValue("role")),
	}
	res := s.deps.Session.Register(ctx.Request().Context(), nu)
	if !s.deps.Session.IsAuthenticated() {
		return ctx.Redirect(http.StatusFound, guard.LoginPath)
	}
	if !res.Success {
		return s.renderTeachers(ctx, http.StatusBadRequest, res.Error, fieldMap(res.Fields))
	}
	return s.back(ctx, "")
}

// attendance

type attendanceData struct {
	Date     string
	Page     apiclient.AttendancePage
	Students []apiclient.Student
	Statuses []apiclient.Status
}

func (s *Server) attendance(ctx echo.Context) error {
	day, err := s.dateParam(ctx.QueryParam("date"), s.opts.Now())
	if err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	data := attendanceData{Date: day.Format(apiclient.DateLayout), Statuses: apiclient.Statuses}
	if data.Page, err = s.deps.Client.Attendance().List(rctx, apiclient.AttendanceFilter{Date: day}, apiclient.PageQuery{}); err != nil {
		return err
	}
	if s.deps.Session.HasPermission(user.PermManageAttendance) {
		students, err := s.deps.Client.Students().List(rctx, apiclient.PageQuery{})
		if err != nil {
			return err
		}
		data.Students = students.Content
	}
	return s.show(ctx, "attendance.html", data)
}

func (s *Server) markAttendance(ctx echo.Context) error {
	day, err := s.dateParam(ctx.FormValue("date"), s.opts.Now())
	if err != nil {
		return err
	}
	form, err := ctx.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	daily := apiclient.DailyAttendance{Date: day.Format(apiclient.DateLayout)}
	for key, vals := range form {
		if !strings.HasPrefix(key, "status-") || len(vals) == 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(key, "status-"), 10, 64)
		if err != nil {
			continue
		}
		status := apiclient.Status(vals[0])
		if !status.Valid() {
			return core.NewValidationError(nil, core.FieldError{Field: key, Error: "unknown status " + vals[0]})
		}
		daily.Records = append(daily.Records, apiclient.DailyMark{StudentID: id, Status: status})
	}
	if err = s.deps.Client.Attendance().MarkDaily(ctx.Request().Context(), daily); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, "/attendance?date="+daily.Date)
}

// reports

type reportsData struct {
	Start   string
	End     string
	Formats []apiclient.Format
}

func (s *Server) reports(ctx echo.Context) error {
	start, end, err := s.reportRange(ctx)
	if err != nil {
		return err
	}
	return s.show(ctx, "reports.html", reportsData{
		Start:   start.Format(apiclient.DateLayout),
		End:     end.Format(apiclient.DateLayout),
		Formats: []apiclient.Format{apiclient.FormatCSV, apiclient.FormatExcel, apiclient.FormatPDF},
	})
}

func (s *Server) exportReport(ctx echo.Context) error {
	format, err := apiclient.ParseFormat(ctx.QueryParam("format"))
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "format", Error: err.Error()})
	}
	start, end, err := s.reportRange(ctx)
	if err != nil {
		return err
	}

	rep, err := s.deps.Client.Reports().Export(ctx.Request().Context(), format, apiclient.ReportFilter{Start: start, End: end})
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+rep.Filename+`"`)
	return ctx.Blob(http.StatusOK, format.ContentType(), rep.Content)
}

func (s *Server) emailReport(ctx echo.Context) error {
	to, err := mail.ParseAddress(ctx.FormValue("to"))
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "to", Error: "invalid email address"})
	}
	start, end, err := s.reportRange(ctx)
	if err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	rep, err := s.deps.Client.Reports().Export(rctx, apiclient.FormatCSV, apiclient.ReportFilter{Start: start, End: end})
	if err != nil {
		return err
	}
	msg, err := emailsvc.NewReportMessage(*to, s.deps.I18n.T("nav.reports", nil), rep.Filename, rep)
	if err != nil {
		return err
	}
	if err = s.deps.Mailer.SendMessages(rctx, msg); err != nil {
		return err
	}
	return s.back(ctx, s.deps.I18n.T("reports.sent", i18n.Params{"email": to.Address}))
}

// reportRange reads start and end, defaulting to the current month so far.
func (s *Server) reportRange(ctx echo.Context) (time.Time, time.Time, error) {
	now := s.opts.Now()
	start, err := s.dateParam(ctx.FormValue("start"), time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := s.dateParam(ctx.FormValue("end"), now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// analytics

type analyticsData struct {
	Trends    []apiclient.AttendanceTrend
	Classes   []apiclient.ClassPerformance
	Absentees []apiclient.TopAbsentee
}

func (s *Server) analytics(ctx echo.Context) error {
	var (
		data  analyticsData
		err   error
		end   = s.opts.Now()
		start = end.AddDate(0, 0, -30)
		api   = s.deps.Client.Analytics()
		rctx  = ctx.Request().Context()
	)
	if data.Trends, err = api.Trends(rctx, start, end, ""); err != nil {
		return err
	}
	if data.Classes, err = api.ClassPerformance(rctx, start, end); err != nil {
		return err
	}
	if data.Absentees, err = api.TopAbsentees(rctx, 10); err != nil {
		return err
	}
	return s.show(ctx, "analytics.html", data)
}

// notifications

const schoolID = 1

type notificationsData struct {
	Settings apiclient.NotificationSettings
	Logs     apiclient.NotificationLogPage
}

func (s *Server) notifications(ctx echo.Context) error {
	var (
		data notificationsData
		err  error
		api  = s.deps.Client.Notifications()
		rctx = ctx.Request().Context()
	)
	if data.Settings, err = api.Settings(rctx, schoolID); err != nil {
		return err
	}
	if data.Logs, err = api.Logs(rctx, apiclient.PageQuery{}); err != nil {
		return err
	}
	return s.show(ctx, "notifications.html", data)
}

func (s *Server) updateNotificationSettings(ctx echo.Context) error {
	api := s.deps.Client.Notifications()
	rctx := ctx.Request().Context()

	settings, err := api.Settings(rctx, schoolID)
	if err != nil {
		return err
	}
	checked := func(name string) bool { return ctx.FormValue(name) == "on" }
	settings.EmailEnabled = checked("emailEnabled")
	settings.SMSEnabled = checked("smsEnabled")
	settings.DailyAbsenteeAlerts = checked("dailyAbsenteeAlerts")
	settings.LowAttendanceAlerts = checked("lowAttendanceAlerts")

	if _, err = api.UpdateSettings(rctx, schoolID, settings); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, "/notifications")
}

// my attendance

func (s *Server) myAttendance(ctx echo.Context) error {
	usr, _ := s.deps.Session.User()
	sum, err := s.deps.Client.Attendance().StudentSummary(ctx.Request().Context(), usr.ID, time.Time{}, time.Time{})
	if err != nil {
		return err
	}
	return s.show(ctx, "my-attendance.html", sum)
}

// helpers

func pathID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (s *Server) dateParam(val string, def time.Time) (time.Time, error) {
	if val == "" {
		return def, nil
	}
	t, err := time.ParseInLocation(apiclient.DateLayout, val, def.Location())
	if err != nil {
		return time.Time{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "expected YYYY-MM-DD"})
	}
	return t, nil
}
