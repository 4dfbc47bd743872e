package apiclient

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire format of API dates.
const DateLayout = "2006-01-02"

// FormatDate renders t the way the API expects dates.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AttendanceFilter narrows attendance listings; zero values are omitted.
type AttendanceFilter struct {
	Date      time.Time
	StudentID int64
	Standard  string
	Section   string
	Status    Status
}

func (f AttendanceFilter) params(q PageQuery) map[string]string {
	params := q.params(nil)
	if !f.Date.IsZero() {
		params["date"] = FormatDate(f.Date)
	}
	if f.StudentID > 0 {
		params["studentId"] = strconv.FormatInt(f.StudentID, 10)
	}
	if f.Standard != "" {
		params["standard"] = f.Standard
	}
	if f.Section != "" {
		params["section"] = f.Section
	}
	if f.Status != "" {
		params["status"] = string(f.Status)
	}
	return params
}

type AttendanceAPI struct {
	c *Client
}

func (c *Client) Attendance() *AttendanceAPI {
	return &AttendanceAPI{c: c}
}

func (a *AttendanceAPI) List(ctx context.Context, f AttendanceFilter, q PageQuery) (AttendancePage, error) {
	var page AttendancePage
	err := a.c.get(ctx, "/attendance", f.params(q), &page)
	return page, err
}

func (a *AttendanceAPI) Get(ctx context.Context, id int64) (AttendanceRecord, error) {
	var rec AttendanceRecord
	err := a.c.get(ctx, attendancePath(id), nil, &rec)
	return rec, err
}

func (a *AttendanceAPI) Create(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error) {
	var created AttendanceRecord
	err := a.c.post(ctx, "/attendance", rec, &created)
	return created, err
}

func (a *AttendanceAPI) Update(ctx context.Context, id int64, rec AttendanceRecord) (AttendanceRecord, error) {
	var updated AttendanceRecord
	err := a.c.put(ctx, attendancePath(id), rec, &updated)
	return updated, err
}

func (a *AttendanceAPI) Delete(ctx context.Context, id int64) error {
	return a.c.delete(ctx, attendancePath(id))
}

func (a *AttendanceAPI) MarkDaily(ctx context.Context, daily DailyAttendance) error {
	return a.c.post(ctx, "/attendance/mark-daily", daily, nil)
}

func (a *AttendanceAPI) DailySummary(ctx context.Context, schoolID int64, date time.Time) (AttendanceSummary, error) {
	var sum AttendanceSummary
	path := fmt.Sprintf("/attendance/daily-summary/%d", schoolID)
	err := a.c.get(ctx, path, map[string]string{"date": FormatDate(date)}, &sum)
	return sum, err
}

func (a *AttendanceAPI) StudentSummary(ctx context.Context, studentID int64, start, end time.Time) (AttendanceSummary, error) {
	var sum AttendanceSummary
	path := fmt.Sprintf("/attendance/student/%d/summary", studentID)
	err := a.c.get(ctx, path, dateRange(start, end), &sum)
	return sum, err
}

func (a *AttendanceAPI) TeacherSummary(ctx context.Context, teacherID int64, start, end time.Time) (AttendanceSummary, error) {
	var sum AttendanceSummary
	path := fmt.Sprintf("/attendance/teacher/%d/summary", teacherID)
	err := a.c.get(ctx, path, dateRange(start, end), &sum)
	return sum, err
}

// Exists reports whether a record exists for the student on date.
func (a *AttendanceAPI) Exists(ctx context.Context, studentID int64, date time.Time) (bool, error) {
	var exists bool
	query := map[string]string{
		"studentId": strconv.FormatInt(studentID, 10),
		"date":      FormatDate(date),
	}
	err := a.c.get(ctx, "/attendance/exists", query, &exists)
	return exists, err
}

func attendancePath(id int64) string {
	return fmt.Sprintf("/attendance/%d", id)
}

func dateRange(start, end time.Time) map[string]string {
	params := make(map[string]string, 2)
	if !start.IsZero() {
		params["startDate"] = FormatDate(start)
	}
	if !end.IsZero() {
		params["endDate"] = FormatDate(end)
	}
	return params
}
