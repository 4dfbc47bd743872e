package main

import (
	"context"
	"io/ioutil"
	"net/mail"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/i18n"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/services/apiclient"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
)

var nowFunc = time.Now // mockable

func (cli *commandLine) runExport(args []string) error {
	now := nowFunc()
	fs := cli.flagSet("export")
	format := fs.String("format", string(apiclient.FormatCSV), "csv, excel or pdf.")
	start := fs.String("start", apiclient.FormatDate(now.AddDate(0, 0, -30)), "First day (YYYY-MM-DD).")
	end := fs.String("end", apiclient.FormatDate(now), "Last day (YYYY-MM-DD).")
	out := fs.String("out", "", "Where to save the report. Defaults to its name in the current directory.")
	email := fs.String("email", "", "Also send the report to this address.")
	if err := parse(fs, args); err != nil {
		return err
	}

	f, err := apiclient.ParseFormat(*format)
	if err != nil {
		return err
	}
	filter := apiclient.ReportFilter{}
	if filter.Start, err = time.Parse(apiclient.DateLayout, *start); err != nil {
		return errors.Wrap(err, "parsing -start")
	}
	if filter.End, err = time.Parse(apiclient.DateLayout, *end); err != nil {
		return errors.Wrap(err, "parsing -end")
	}
	if filter.End.Before(filter.Start) {
		return errors.New("-end is before -start")
	}
	var to *mail.Address
	if *email != "" {
		if to, err = mail.ParseAddress(*email); err != nil {
			return errors.Wrap(err, "parsing -email")
		}
	}

	if !cli.sess.IsAuthenticated() {
		return errNotLoggedIn
	}
	if !cli.sess.HasPermission(user.PermViewReports) || (to != nil && !cli.sess.HasPermission(user.PermExportReports)) {
		return errAccessDenied
	}

	ctx := context.Background()
	rep, err := cli.client.Reports().Export(ctx, f, filter)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = rep.Filename
	}
	if err = ioutil.WriteFile(path, rep.Content, 0o644); err != nil {
		return errors.Wrap(err, "saving report")
	}
	cli.printf("Saved %s\n", filepath.Clean(path))

	if to == nil {
		return nil
	}
	msg, err := emailsvc.NewReportMessage(*to, cli.tr.T("nav.reports", nil), rep.Filename, rep)
	if err != nil {
		return err
	}
	if err = cli.mailer.SendMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "sending report")
	}
	cli.println(cli.tr.T("reports.sent", i18n.Params{"email": to.Address}))
	return nil
}
