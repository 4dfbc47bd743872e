package apiclient

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
)

type NotificationsAPI struct {
	c *Client
}

func (c *Client) Notifications() *NotificationsAPI {
	return &NotificationsAPI{c: c}
}

func (a *NotificationsAPI) Logs(ctx context.Context, q PageQuery) (NotificationLogPage, error) {
	var page NotificationLogPage
	err := a.c.get(ctx, "/notifications/logs", q.params(nil), &page)
	return page, err
}

// LogsByType lists logs of kind "EMAIL" or "SMS".
func (a *NotificationsAPI) LogsByType(ctx context.Context, kind string, q PageQuery) (NotificationLogPage, error) {
	var page NotificationLogPage
	err := a.c.get(ctx, "/notifications/logs/type/"+kind, q.params(nil), &page)
	return page, err
}

func (a *NotificationsAPI) Settings(ctx context.Context, schoolID int64) (NotificationSettings, error) {
	var settings NotificationSettings
	err := a.c.get(ctx, settingsPath(schoolID), nil, &settings)
	return settings, err
}

func (a *NotificationsAPI) UpdateSettings(ctx context.Context, schoolID int64, settings NotificationSettings) (NotificationSettings, error) {
	var updated NotificationSettings
	err := a.c.put(ctx, settingsPath(schoolID), settings, &updated)
	return updated, err
}

func (a *NotificationsAPI) Stats(ctx context.Context) (NotificationStats, error) {
	var stats NotificationStats
	err := a.c.get(ctx, "/notifications/stats", nil, &stats)
	return stats, err
}

// TestEmail asks the server to send a test email.
func (a *NotificationsAPI) TestEmail(ctx context.Context, to, subject, message string) error {
	return a.c.do(ctx, request{
		method: rest.Post,
		path:   "/notifications/test/email",
		query:  map[string]string{"to": to, "subject": subject, "message": message},
	}, nil)
}

func settingsPath(schoolID int64) string {
	return fmt.Sprintf("/notifications/settings/%d", schoolID)
}
