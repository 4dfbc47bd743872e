package apiclient

import (
	"context"

	"github.com/sendgrid/rest"

	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
)

// AuthAPI serves the /auth endpoints.
type AuthAPI struct {
	c *Client
}

var _ session.Authenticator = (*AuthAPI)(nil)

func (c *Client) Auth() *AuthAPI {
	return &AuthAPI{c: c}
}

func (a *AuthAPI) Login(ctx context.Context, creds user.Credentials) (session.LoginResponse, error) {
	var resp session.LoginResponse
	err := a.c.do(ctx, request{method: rest.Post, path: "/auth/login", body: creds, auth: authNone}, &resp)
	return resp, err
}

// Register creates an account. A 401 with a token attached expires the session like any
// authenticated request.
func (a *AuthAPI) Register(ctx context.Context, token string, nu user.NewUser) (user.Profile, error) {
	mode := authTokenExpiring
	if token == "" {
		mode = authNone
	}
	var usr user.Profile
	err := a.c.do(ctx, request{method: rest.Post, path: "/auth/register", body: nu, auth: mode, token: token}, &usr)
	return usr, err
}

func (a *AuthAPI) Validate(ctx context.Context, token string) (bool, error) {
	var resp struct {
		Valid bool `json:"valid"`
	}
	err := a.c.do(ctx, request{method: rest.Post, path: "/auth/validate", auth: authToken, token: token}, &resp)
	return resp.Valid, err
}

func (a *AuthAPI) Me(ctx context.Context, token string) (user.Profile, error) {
	var usr user.Profile
	err := a.c.do(ctx, request{method: rest.Get, path: "/auth/me", auth: authToken, token: token}, &usr)
	return usr, err
}

// Refresh exchanges token for a new one.
func (a *AuthAPI) Refresh(ctx context.Context, token string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := a.c.do(ctx, request{method: rest.Post, path: "/auth/refresh", auth: authToken, token: token}, &resp)
	return resp.Token, err
}
