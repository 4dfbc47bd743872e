// Package emailsvc delivers report emails.
package emailsvc

import (
	"context"
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/mahudhurio/core"
)

const (
	DefaultSendgridHost = "https://api.sendgrid.com"
	endpoint            = "/v3/mail/send"
)

type SendgridService struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
	client     *rest.Client
	logger     core.Logger
}

var _ core.EmailService = (*SendgridService)(nil)

// NewSendgridService sends through host; an empty host means DefaultSendgridHost.
func NewSendgridService(conf *core.Config, host string, logger core.Logger) (*SendgridService, error) {
	if conf.SendgridApiKey == "" {
		return nil, errors.New("sendgrid api key is not configured")
	}
	if host == "" {
		host = DefaultSendgridHost
	}
	return &SendgridService{
		key:        conf.SendgridApiKey,
		host:       host,
		from:       sgmail.NewEmail(conf.DefaultFromEmail.Name, conf.DefaultFromEmail.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		client:     &rest.Client{HTTPClient: &http.Client{Timeout: conf.API.Timeout}},
		logger:     logger,
	}, nil
}

func (svc *SendgridService) SendMessages(ctx context.Context, messages ...*core.EmailMessage) error {
	for _, msg := range messages {
		if !deliverable(msg) {
			continue
		}
		if err := svc.send(ctx, *msg); err != nil {
			svc.logger.Error("sending email", err, map[string]interface{}{"subject": msg.Subject})
			return err
		}
	}
	return nil
}

func (svc *SendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject

	for _, to := range msg.To {
		p.AddTos(getSGEmail(to))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(getSGEmail(cc))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(getSGEmail(bcc))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)

	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	for _, a := range msg.Attachments {
		m.AddAttachment(getSGAttachment(a))
	}
	return m
}

func (svc *SendgridService) send(ctx context.Context, msg core.EmailMessage) error {
	req := sendgrid.GetRequest(svc.key, endpoint, svc.host)
	req.Method = rest.Post
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return errors.Wrap(err, "building email request")
	}
	httpRes, err := svc.client.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "sending email")
	}
	res, err := rest.BuildResponse(httpRes)
	if err != nil {
		return errors.Wrap(err, "reading email response")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sending email: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func getSGEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func getSGAttachment(at core.Attachment) *sgmail.Attachment {
	return &sgmail.Attachment{
		Content:     at.Content.String(),
		Type:        at.ContentType,
		Filename:    at.Filename,
		Disposition: "attachment",
	}
}
