package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/services/apiclient"
	"github.com/trezcool/mahudhurio/services/apiclient/apitest"
	logsvc "github.com/trezcool/mahudhurio/services/logger"
	"github.com/trezcool/mahudhurio/storage/credstore"
)

type fixture struct {
	srv     *apitest.Server
	client  *apiclient.Client
	sess    *session.Service
	expired int32
}

type fixedLang string

func (l fixedLang) Language() string { return string(l) }

func setup(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.NewServer()
	hs := srv.Listen()
	t.Cleanup(hs.Close)

	client, err := apiclient.New(core.APIConfig{BaseURL: hs.URL + "/api/"}, logsvc.NewNop())
	require.NoError(t, err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	sess := session.New(session.Deps{
		Store:      credstore.NewMemory(),
		Auth:       client.Auth(),
		Logger:     logsvc.NewNop(),
		Validate:   validate,
		Translator: translator,
	})
	sess.Restore(context.Background())

	f := &fixture{srv: srv, client: client, sess: sess}
	client.UseSession(sess)
	client.UseLanguage(fixedLang("mr"))
	client.OnExpired(func() { atomic.AddInt32(&f.expired, 1) })
	return f
}

func (f *fixture) login(t *testing.T, username string) {
	t.Helper()
	res := f.sess.Login(context.Background(), user.Credentials{Username: username, Password: apitest.Password(username)})
	require.True(t, res.Success, res.Error)
}

func TestNew_Validation(t *testing.T) {
	_, err := apiclient.New(core.APIConfig{}, logsvc.NewNop())
	assert.Error(t, err)

	_, err = apiclient.New(core.APIConfig{BaseURL: "http://localhost/api"}, nil)
	assert.Error(t, err)

	c, err := apiclient.New(core.APIConfig{BaseURL: "http://localhost/api/"}, logsvc.NewNop())
	if assert.NoError(t, err) {
		assert.Equal(t, "http://localhost/api", c.BaseURL())
	}
}

func TestClient_Headers(t *testing.T) {
	f := setup(t)
	f.login(t, "admin")

	_, err := f.client.Students().List(context.Background(), apiclient.PageQuery{})
	require.NoError(t, err)

	reqs := f.srv.Requests()
	require.NotEmpty(t, reqs)
	last := reqs[len(reqs)-1]
	assert.Equal(t, "/api/students", last.URL.Path)
	assert.Equal(t, "Bearer "+f.sess.Token(), last.Header.Get("Authorization"))
	assert.Equal(t, "mr", last.Header.Get("Accept-Language"))
	assert.Equal(t, "application/json", last.Header.Get("Accept"))
	assert.NotEmpty(t, last.Header.Get("X-Request-ID"))

	login := reqs[0]
	assert.Equal(t, "/api/auth/login", login.URL.Path)
	assert.Empty(t, login.Header.Get("Authorization"))
}

func TestClient_NoTokenWhenSignedOut(t *testing.T) {
	f := setup(t)

	_, err := f.client.Students().List(context.Background(), apiclient.PageQuery{})
	assert.True(t, apiclient.IsUnauthorized(err))

	reqs := f.srv.Requests()
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].Header.Get("Authorization"))
	assert.EqualValues(t, 0, atomic.LoadInt32(&f.expired))
}

func TestClient_UnauthorizedExpiresOnce(t *testing.T) {
	f := setup(t)
	f.login(t, "admin")

	var events int32
	unsubscribe := f.sess.Subscribe(func(ev session.Event) {
		if ev.Kind == session.EventExpired {
			atomic.AddInt32(&events, 1)
		}
	})
	defer unsubscribe()

	f.srv.RevokeAll(true)

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.client.Stats().Dashboard(context.Background(), 0, time.Time{}, time.Time{})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		// requests sent after the expiry carry no token and fail as plain 401s
		assert.True(t, apiclient.IsUnauthorized(err), "got %v", err)
	}
	assert.Equal(t, n, f.srv.Unauthorized())
	assert.EqualValues(t, 1, atomic.LoadInt32(&f.expired))
	assert.EqualValues(t, 1, atomic.LoadInt32(&events))
	assert.False(t, f.sess.IsAuthenticated())
}

func TestClient_StaleUnauthorizedKeepsNewSession(t *testing.T) {
	f := setup(t)
	f.login(t, "admin")
	old := f.sess.Token()

	f.srv.Revoke(old)
	// a fresh login replaces the revoked token before the stale 401 is seen
	f.login(t, "teacher")
	assert.False(t, f.sess.Expire(context.Background(), old))
	assert.True(t, f.sess.IsAuthenticated())
	usr, _ := f.sess.User()
	assert.Equal(t, user.RoleTeacher, usr.Role)
}

func TestAuth_LoginFailureDoesNotExpire(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  string
	}{
		{name: "wrong password", username: "admin", password: "nope", wantErr: "Invalid username or password"},
		{name: "unknown user", username: "ghost", password: "x", wantErr: "Invalid username or password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			res := f.sess.Login(context.Background(), user.Credentials{Username: tt.username, Password: tt.password})
			assert.False(t, res.Success)
			assert.Equal(t, tt.wantErr, res.Error)
			assert.EqualValues(t, 0, atomic.LoadInt32(&f.expired))
			assert.Equal(t, 1, f.srv.Unauthorized())
		})
	}
}

func TestAuth_ValidateHandlesItsOwn401(t *testing.T) {
	f := setup(t)
	f.login(t, "teacher")
	assert.True(t, f.sess.ValidateToken(context.Background()))

	f.srv.Revoke(f.sess.Token())
	assert.False(t, f.sess.ValidateToken(context.Background()))
	assert.False(t, f.sess.IsAuthenticated())
	assert.EqualValues(t, 0, atomic.LoadInt32(&f.expired))
}

func TestAuth_Register(t *testing.T) {
	nu := user.NewUser{
		Username: "clerk",
		Email:    "clerk@school.test",
		FullName: "Office Clerk",
		Password: "Att3ndance!",
		Role:     user.RoleTeacher,
	}

	t.Run("admin", func(t *testing.T) {
		f := setup(t)
		f.login(t, "admin")
		res := f.sess.Register(context.Background(), nu)
		assert.True(t, res.Success, res.Error)
		usr, ok := res.Data.(user.Profile)
		if assert.True(t, ok) {
			assert.Equal(t, "clerk", usr.Username)
		}
		assert.True(t, f.sess.IsAuthenticated())
	})

	t.Run("teacher is forbidden", func(t *testing.T) {
		f := setup(t)
		f.login(t, "teacher")
		res := f.sess.Register(context.Background(), nu)
		assert.False(t, res.Success)
		assert.Equal(t, "Access denied", res.Error)
		assert.True(t, f.sess.IsAuthenticated())
	})

	t.Run("revoked token expires", func(t *testing.T) {
		f := setup(t)
		f.login(t, "admin")
		f.srv.Revoke(f.sess.Token())
		res := f.sess.Register(context.Background(), nu)
		assert.False(t, res.Success)
		assert.False(t, f.sess.IsAuthenticated())
		assert.EqualValues(t, 1, atomic.LoadInt32(&f.expired))
	})
}

func TestClient_APIErrors(t *testing.T) {
	f := setup(t)
	f.login(t, "admin")
	ctx := context.Background()

	_, err := f.client.Students().Get(ctx, 999)
	assert.True(t, apiclient.IsNotFound(err))
	var apiErr *apiclient.APIError
	if assert.True(t, errors.As(err, &apiErr)) {
		assert.Equal(t, "Student not found", apiErr.ServerMessage())
		assert.Equal(t, "api: 404: Student not found", apiErr.Error())
	}

	f.login(t, "student")
	_, err = f.client.Students().List(ctx, apiclient.PageQuery{})
	status, ok := apiclient.StatusOf(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusForbidden, status)
	assert.True(t, f.sess.IsAuthenticated())
}

func TestClient_Unavailable(t *testing.T) {
	hang := make(chan struct{})
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-hang:
		case <-r.Context().Done():
		}
	}))
	defer hs.Close()
	defer close(hang)

	client, err := apiclient.New(core.APIConfig{BaseURL: hs.URL, Timeout: 50 * time.Millisecond}, logsvc.NewNop())
	require.NoError(t, err)

	_, err = client.Analytics().DashboardStats(context.Background())
	assert.True(t, apiclient.IsUnavailable(err), "got %v", err)
	_, ok := apiclient.StatusOf(err)
	assert.False(t, ok)
}

func TestClient_ContextCancelsRequest(t *testing.T) {
	hang := make(chan struct{})
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-hang:
		case <-r.Context().Done():
		}
	}))
	defer hs.Close()
	defer close(hang)

	client, err := apiclient.New(core.APIConfig{BaseURL: hs.URL, Timeout: 10 * time.Second}, logsvc.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = client.Analytics().DashboardStats(ctx)
	assert.True(t, apiclient.IsUnavailable(err), "got %v", err)
	assert.Less(t, int64(time.Since(start)), int64(5*time.Second), "the request outlived its context")
}

func TestStudents_CRUD(t *testing.T) {
	f := setup(t)
	f.login(t, "admin")
	ctx := context.Background()
	api := f.client.Students()

	created, err := api.Create(ctx, apiclient.Student{GRNo: "GR100", FirstName: "Nisha", LastName: "Rao", Gender: "FEMALE", Standard: "7"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := api.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nisha Rao", got.FullName())

	require.NoError(t, api.Deactivate(ctx, created.ID))
	got, err = api.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive.Bool)

	page, err := api.Search(ctx, apiclient.StudentFilter{Query: "nisha"}, apiclient.PageQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Content, 1)

	require.NoError(t, api.Delete(ctx, created.ID))
	_, err = api.Get(ctx, created.ID)
	assert.True(t, apiclient.IsNotFound(err))
}

func TestAttendance_MarkDaily(t *testing.T) {
	f := setup(t)
	f.login(t, "teacher")
	ctx := context.Background()
	day := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)

	err := f.client.Attendance().MarkDaily(ctx, apiclient.DailyAttendance{
		Date: apiclient.FormatDate(day),
		Records: []apiclient.DailyMark{
			{StudentID: 1, Status: apiclient.StatusPresent},
			{StudentID: 2, Status: apiclient.StatusSickLeave},
		},
	})
	require.NoError(t, err)

	page, err := f.client.Attendance().List(ctx, apiclient.AttendanceFilter{Date: day}, apiclient.PageQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Content, 2)

	sum, err := f.client.Attendance().StudentSummary(ctx, 1, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalDays)
	assert.Equal(t, 2, sum.PresentDays)
	assert.InDelta(t, 100, sum.AttendancePercentage, 0.01)
}

func TestReports_Export(t *testing.T) {
	f := setup(t)
	f.login(t, "admin")
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	rep, err := f.client.Reports().Export(ctx, apiclient.FormatCSV, apiclient.ReportFilter{Start: start, End: end})
	require.NoError(t, err)
	assert.Equal(t, "attendance_2024-06-01_2024-06-30.csv", rep.Filename)
	assert.True(t, strings.HasPrefix(string(rep.Content), "id,studentId,date,status\n"))

	reqs := f.srv.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, "text/csv", last.Header.Get("Accept"))
	assert.Equal(t, "2024-06-01", last.URL.Query().Get("startDate"))

	_, err = f.client.Reports().Export(ctx, apiclient.Format("docx"), apiclient.ReportFilter{})
	assert.True(t, errors.Is(err, apiclient.ErrUnknownFormat))
}

func TestMessages_Load(t *testing.T) {
	f := setup(t)
	f.srv.SetMessages("hi", map[string]string{"nav.dashboard": "डैशबोर्ड"})

	messages, err := f.client.Messages().LoadMessages(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "डैशबोर्ड", messages["nav.dashboard"])

	last := f.srv.Requests()[0]
	assert.Equal(t, "hi", last.Header.Get("Accept-Language"))
	assert.Empty(t, last.Header.Get("Authorization"))

	f.srv.MessagesDown(true)
	_, err = f.client.Messages().LoadMessages(context.Background(), "hi")
	status, _ := apiclient.StatusOf(err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestNotifications_TestEmail(t *testing.T) {
	f := setup(t)
	f.login(t, "admin")
	ctx := context.Background()

	require.NoError(t, f.client.Notifications().TestEmail(ctx, "office@school.test", "Hello", "Test"))

	stats, err := f.client.Notifications().Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.EmailCount)

	settings, err := f.client.Notifications().Settings(ctx, 1)
	require.NoError(t, err)
	assert.True(t, settings.EmailEnabled)
}
