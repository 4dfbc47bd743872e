// Package apiclient is the HTTP client of the attendance REST API.
//
// Requests carry the session token; a 401 on an authenticated request expires the session once,
// however many requests fail concurrently.
package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/mahudhurio/core"
)

const (
	DefaultTimeout = 10 * time.Second

	headerRequestID = "X-Request-ID"
	mimeJSON        = "application/json"
)

type (
	// Session is the token holder the client authenticates with.
	Session interface {
		Token() string
		Expire(ctx context.Context, token string) bool
	}

	// LanguageSource provides the Accept-Language value.
	LanguageSource interface {
		Language() string
	}

	Client struct {
		baseURL string
		rest    *rest.Client
		logger  core.Logger

		mu        sync.RWMutex
		session   Session
		lang      LanguageSource
		onExpired func()
	}
)

// New builds a client for conf.BaseURL; a zero timeout means DefaultTimeout.
func New(conf core.APIConfig, logger core.Logger) (*Client, error) {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.BaseURL, "BaseURL"),
		vala.IsNotNil(logger, "logger"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "configuring api client")
	}

	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
		logger:  logger,
	}, nil
}

// UseSession attaches the session whose token is sent with authenticated requests.
func (c *Client) UseSession(s Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Client) UseLanguage(l LanguageSource) {
	c.mu.Lock()
	c.lang = l
	c.mu.Unlock()
}

// OnExpired registers fn to run once per session expiry caused by a 401.
func (c *Client) OnExpired(fn func()) {
	c.mu.Lock()
	c.onExpired = fn
	c.mu.Unlock()
}

func (c *Client) BaseURL() string { return c.baseURL }

type authMode int

const (
	// session token; a 401 expires the session
	authSession authMode = iota
	// no token
	authNone
	// request token; the caller handles a 401
	authToken
	// request token; a 401 expires the session if the token is still current
	authTokenExpiring
)

type request struct {
	method rest.Method
	path   string
	query  map[string]string
	body   interface{}
	accept string
	lang   string
	auth   authMode
	token  string
}

func (c *Client) deps() (Session, LanguageSource, func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session, c.lang, c.onExpired
}

func (c *Client) send(ctx context.Context, req request) (*rest.Response, error) {
	sess, lang, onExpired := c.deps()

	token := req.token
	if req.auth == authSession {
		token = ""
		if sess != nil {
			token = sess.Token()
		}
	}
	if req.auth == authNone {
		token = ""
	}

	accept := req.accept
	if accept == "" {
		accept = mimeJSON
	}
	headers := map[string]string{
		"Accept":        accept,
		headerRequestID: uuid.NewString(),
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	switch {
	case req.lang != "":
		headers["Accept-Language"] = req.lang
	case lang != nil:
		headers["Accept-Language"] = lang.Language()
	}

	var body []byte
	if req.body != nil {
		var err error
		if body, err = json.Marshal(req.body); err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		headers["Content-Type"] = mimeJSON
	}

	resp, err := sendRest(ctx, c.rest, rest.Request{
		Method:      req.method,
		BaseURL:     c.baseURL + req.path,
		Headers:     headers,
		QueryParams: req.query,
		Body:        body,
	})
	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "%s %s: %v", req.method, req.path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" && sess != nil &&
		(req.auth == authSession || req.auth == authTokenExpiring) {
		if sess.Expire(ctx, token) {
			c.logger.Info("session expired by api", map[string]interface{}{"path": req.path, "requestId": headers[headerRequestID]})
			if onExpired != nil {
				onExpired()
			}
		}
		return nil, errors.Wrapf(ErrUnauthorized, "%s %s", req.method, req.path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, newAPIError(resp)
	}
	return resp, nil
}

// sendRest is rest.Client.Send bound to ctx.
func sendRest(ctx context.Context, client *rest.Client, req rest.Request) (*rest.Response, error) {
	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return nil, err
	}
	res, err := client.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return rest.BuildResponse(res)
}

// do sends req and decodes a JSON response into out, when not nil.
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || strings.TrimSpace(resp.Body) == "" {
		return nil
	}
	if err = json.Unmarshal([]byte(resp.Body), out); err != nil {
		return errors.Wrapf(err, "decoding %s response", req.path)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out interface{}) error {
	return c.do(ctx, request{method: rest.Get, path: path, query: query}, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, request{method: rest.Post, path: path, body: body}, out)
}

func (c *Client) put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, request{method: rest.Put, path: path, body: body}, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, request{method: rest.Delete, path: path}, nil)
}
