package apiclient

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
)

// Format is a report export format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

var ErrUnknownFormat = errors.New("unknown report format")

var formats = map[Format]struct {
	contentType string
	ext         string
}{
	FormatCSV:   {contentType: "text/csv", ext: ".csv"},
	FormatExcel: {contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ext: ".xlsx"},
	FormatPDF:   {contentType: "application/pdf", ext: ".pdf"},
}

func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if _, ok := formats[f]; !ok {
		return "", errors.Wrapf(ErrUnknownFormat, "%q", s)
	}
	return f, nil
}

func (f Format) ContentType() string { return formats[f].contentType }
func (f Format) Ext() string         { return formats[f].ext }

// ReportFilter selects the records of an export.
type ReportFilter struct {
	Start    time.Time
	End      time.Time
	SchoolID int64
	Standard string
	Section  string
}

func (f ReportFilter) params() map[string]string {
	params := dateRange(f.Start, f.End)
	if f.SchoolID > 0 {
		params["schoolId"] = strconv.FormatInt(f.SchoolID, 10)
	}
	if f.Standard != "" {
		params["standard"] = f.Standard
	}
	if f.Section != "" {
		params["section"] = f.Section
	}
	return params
}

// Report is a downloaded export.
type Report struct {
	Format   Format
	Filename string
	Content  []byte
}

type ReportsAPI struct {
	c *Client
}

func (c *Client) Reports() *ReportsAPI {
	return &ReportsAPI{c: c}
}

func (a *ReportsAPI) Export(ctx context.Context, format Format, f ReportFilter) (Report, error) {
	if _, ok := formats[format]; !ok {
		return Report{}, errors.Wrapf(ErrUnknownFormat, "%q", format)
	}

	resp, err := a.c.send(ctx, request{
		method: rest.Get,
		path:   "/attendance/export/" + string(format),
		query:  f.params(),
		accept: format.ContentType(),
	})
	if err != nil {
		return Report{}, err
	}
	return Report{
		Format:   format,
		Filename: reportFilename(f, format),
		Content:  []byte(resp.Body),
	}, nil
}

func reportFilename(f ReportFilter, format Format) string {
	name := "attendance"
	if !f.Start.IsZero() {
		name += "_" + FormatDate(f.Start)
	}
	if !f.End.IsZero() {
		name += "_" + FormatDate(f.End)
	}
	return name + format.Ext()
}
