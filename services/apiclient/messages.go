package apiclient

import (
	"context"

	"github.com/sendgrid/rest"

	"github.com/trezcool/mahudhurio/core/i18n"
)

// MessagesAPI loads translation tables.
type MessagesAPI struct {
	c *Client
}

var _ i18n.Loader = (*MessagesAPI)(nil)

func (c *Client) Messages() *MessagesAPI {
	return &MessagesAPI{c: c}
}

func (m *MessagesAPI) LoadMessages(ctx context.Context, code string) (map[string]string, error) {
	messages := make(map[string]string)
	err := m.c.do(ctx, request{
		method: rest.Get,
		path:   "/messages",
		query:  map[string]string{"lang": code},
		lang:   code,
		auth:   authNone,
	}, &messages)
	if err != nil {
		return nil, err
	}
	return messages, nil
}
