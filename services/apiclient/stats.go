package apiclient

import (
	"context"
	"strconv"
	"time"
)

type StatsAPI struct {
	c *Client
}

func (c *Client) Stats() *StatsAPI {
	return &StatsAPI{c: c}
}

func (a *StatsAPI) Dashboard(ctx context.Context, schoolID int64, start, end time.Time) (DashboardStats, error) {
	var stats DashboardStats
	params := dateRange(start, end)
	if schoolID > 0 {
		params["schoolId"] = strconv.FormatInt(schoolID, 10)
	}
	err := a.c.get(ctx, "/attendance/stats/dashboard", params, &stats)
	return stats, err
}

// Trends returns attendance counts over period ("week", "month", ...).
func (a *StatsAPI) Trends(ctx context.Context, schoolID int64, period string) ([]AttendanceTrend, error) {
	var trends []AttendanceTrend
	params := map[string]string{"period": period}
	if schoolID > 0 {
		params["schoolId"] = strconv.FormatInt(schoolID, 10)
	}
	err := a.c.get(ctx, "/attendance/stats/trends", params, &trends)
	return trends, err
}

func (a *StatsAPI) ClassWise(ctx context.Context, schoolID int64, date time.Time) ([]ClassPerformance, error) {
	var stats []ClassPerformance
	params := map[string]string{"date": FormatDate(date)}
	if schoolID > 0 {
		params["schoolId"] = strconv.FormatInt(schoolID, 10)
	}
	err := a.c.get(ctx, "/attendance/stats/class-wise", params, &stats)
	return stats, err
}

type AnalyticsAPI struct {
	c *Client
}

func (c *Client) Analytics() *AnalyticsAPI {
	return &AnalyticsAPI{c: c}
}

func analyticsRange(start, end time.Time) map[string]string {
	return map[string]string{"start": FormatDate(start), "end": FormatDate(end)}
}

// Trends returns daily counts for kind "student" or "teacher".
func (a *AnalyticsAPI) Trends(ctx context.Context, start, end time.Time, kind string) ([]AttendanceTrend, error) {
	var trends []AttendanceTrend
	params := analyticsRange(start, end)
	if kind != "" {
		params["type"] = kind
	}
	err := a.c.get(ctx, "/analytics/attendance/trends", params, &trends)
	return trends, err
}

func (a *AnalyticsAPI) GenderRatio(ctx context.Context, start, end time.Time) (GenderRatio, error) {
	var ratio GenderRatio
	err := a.c.get(ctx, "/analytics/gender-ratio", analyticsRange(start, end), &ratio)
	return ratio, err
}

func (a *AnalyticsAPI) ClassPerformance(ctx context.Context, start, end time.Time) ([]ClassPerformance, error) {
	var perf []ClassPerformance
	err := a.c.get(ctx, "/analytics/class-performance", analyticsRange(start, end), &perf)
	return perf, err
}

func (a *AnalyticsAPI) TopAbsentees(ctx context.Context, limit int) ([]TopAbsentee, error) {
	var absentees []TopAbsentee
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	err := a.c.get(ctx, "/analytics/top-absentees", params, &absentees)
	return absentees, err
}

func (a *AnalyticsAPI) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats
	err := a.c.get(ctx, "/analytics/dashboard-stats", nil, &stats)
	return stats, err
}
