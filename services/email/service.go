package emailsvc

import (
	"bytes"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/services/apiclient"
)

// New picks SendGrid when an API key is configured and the console otherwise.
func New(conf *core.Config, logger core.Logger) (core.EmailService, error) {
	if conf.SendgridApiKey == "" || conf.TestMode {
		logger.Debug("emails are written to the console")
		return NewConsoleService(conf.AppName, conf.DefaultFromEmail, nil), nil
	}
	return NewSendgridService(conf, "", logger)
}

// NewReportMessage builds an email carrying rep as an attachment.
func NewReportMessage(to mail.Address, subject, text string, rep apiclient.Report) (*core.EmailMessage, error) {
	msg := &core.EmailMessage{
		To:          []mail.Address{to},
		Subject:     subject,
		TextContent: text,
	}
	if err := msg.Attach(bytes.NewReader(rep.Content), rep.Filename, rep.Format.ContentType()); err != nil {
		return nil, errors.Wrap(err, "attaching report")
	}
	return msg, nil
}
