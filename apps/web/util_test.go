package webapp

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/i18n"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/services/apiclient"
	"github.com/trezcool/mahudhurio/services/apiclient/apitest"
	emailsvc "github.com/trezcool/mahudhurio/services/email"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/storage/credstore"
)

var today = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

const csrfCookie = "_csrf"

type testApp struct {
	server *Server
	api    *apitest.Server
	sess   *session.Service
	mailer *emailsvc.ConsoleService
	csrf   string
}

// newTestApp wires the dashboard against a fake API; restore=false leaves the session loading.
func newTestApp(t *testing.T, restore bool) *testApp {
	t.Helper()
	api := apitest.NewServer()
	api.SetMessages("hi", map[string]string{"auth.login": "लॉगिन", "nav.dashboard": "डैशबोर्ड"})
	hs := api.Listen()
	t.Cleanup(hs.Close)

	logger := logsvc.NewNop()
	client, err := apiclient.New(core.APIConfig{BaseURL: hs.URL + "/api"}, logger)
	require.NoError(t, err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	store := credstore.NewMemory()
	sess := session.New(session.Deps{
		Store:      store,
		Auth:       client.Auth(),
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
	})
	tr := i18n.New(client.Messages(), store, logger)
	tr.Initialize(context.Background())
	client.UseSession(sess)
	client.UseLanguage(tr)
	if restore {
		sess.Restore(context.Background())
	}

	mailer := emailsvc.NewConsoleService("Mahudhurio", mail.Address{Address: "noreply@school.test"}, ioutil.Discard)
	server, err := NewServer(
		Options{TestMode: true, DisableReqLogs: true, Now: func() time.Time { return today }},
		Deps{Session: sess, I18n: tr, Client: client, Mailer: mailer, Logger: logger},
	)
	require.NoError(t, err)
	return &testApp{server: server, api: api, sess: sess, mailer: mailer}
}

type httpTest struct {
	name         string
	method       string
	path         string
	form         url.Values
	wantCode     int
	wantLocation string
	wantBody     []string
}

// do sends form with the CSRF cookie and token a browser on the dashboard would hold.
func (a *testApp) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	if method != http.MethodGet && method != http.MethodHead {
		if form == nil {
			form = url.Values{}
		}
		if _, ok := form[csrfField]; !ok {
			form.Set(csrfField, a.csrfToken())
		}
	}
	req := newFormRequest(method, path, form)
	req.AddCookie(&http.Cookie{Name: csrfCookie, Value: a.csrfToken()})
	return a.send(req)
}

func (a *testApp) send(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) csrfToken() string {
	if a.csrf == "" {
		rec := a.send(httptest.NewRequest(http.MethodGet, "/", nil))
		for _, c := range rec.Result().Cookies() {
			if c.Name == csrfCookie {
				a.csrf = c.Value
			}
		}
	}
	return a.csrf
}

func newFormRequest(method, path string, form url.Values) *http.Request {
	body := strings.NewReader("")
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req
}

func (a *testApp) login(t *testing.T, username string) {
	t.Helper()
	rec := a.do(http.MethodPost, "/login", url.Values{"username": {username}, "password": {apitest.Password(username)}})
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	require.True(t, a.sess.IsAuthenticated())
}

func (a *testApp) check(t *testing.T, tt httpTest) {
	t.Helper()
	rec := a.do(tt.method, tt.path, tt.form)
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantLocation != "" {
		if got := rec.Header().Get("Location"); got != tt.wantLocation {
			t.Errorf("failed! location = %q; wantLocation %q", got, tt.wantLocation)
		}
	}
	for _, want := range tt.wantBody {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("failed! body does not contain %q", want)
		}
	}
}
