// Package webapp serves the role-gated dashboard pages to the operator's browser.
package webapp

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/guard"
	"github.com/trezcool/mahudhurio/core/i18n"
	"github.com/trezcool/mahudhurio/core/session"
	"github.com/trezcool/mahudhurio/core/user"
	"github.com/trezcool/mahudhurio/services/apiclient"
)

type (
	Options struct {
		Address        string
		Debug          bool
		TestMode       bool
		DisableReqLogs bool
		// Now defaults to time.Now; it picks the default dates of the attendance and report pages.
		Now func() time.Time
	}

	Deps struct {
		Session *session.Service
		I18n    *i18n.Service
		Client  *apiclient.Client
		Mailer  core.EmailService
		Logger  core.Logger
	}

	Server struct {
		opts Options
		deps Deps
		app  *echo.Echo

		shutdownOnce sync.Once
		shutdown     chan struct{}

		mu    sync.Mutex
		flash string
	}
)

func NewServer(opts Options, deps Deps) (*Server, error) {
	switch {
	case deps.Session == nil:
		return nil, errors.New("session is required")
	case deps.I18n == nil:
		return nil, errors.New("i18n is required")
	case deps.Client == nil:
		return nil, errors.New("api client is required")
	case deps.Mailer == nil:
		return nil, errors.New("mailer is required")
	case deps.Logger == nil:
		return nil, errors.New("logger is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r, err := newRenderer()
	if err != nil {
		return nil, errors.Wrap(err, "parsing templates")
	}

	s := &Server{
		opts:     opts,
		deps:     deps,
		app:      echo.New(),
		shutdown: make(chan struct{}),
	}
	s.app.Renderer = r
	s.deps.Client.OnExpired(func() { s.setFlash(s.deps.I18n.T("auth.expired", nil)) })
	s.setup()
	return s, nil
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.opts.Debug || s.opts.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:" + csrfField,
		ContextKey:     csrfField,
		CookiePath:     "/",
		CookieHTTPOnly: true,
	}))

	s.app.HTTPErrorHandler = newHTTPErrorHandler(s)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", func(ctx echo.Context) error {
		return ctx.Redirect(http.StatusFound, guard.LandingPath)
	})
	s.app.GET(guard.LoginPath, s.loginPage)
	s.app.POST(guard.LoginPath, s.login)
	s.app.POST("/logout", s.logout)
	s.app.POST("/lang", s.changeLanguage)

	s.app.GET(guard.Dashboard.Path, s.dashboard, s.guarded(guard.Dashboard))

	s.app.GET(guard.Students.Path, s.students, s.guarded(guard.Students))
	manageStudents := []echo.MiddlewareFunc{s.guarded(guard.Students), s.permitted(user.PermManageStudents)}
	s.app.POST(guard.Students.Path, s.createStudent, manageStudents...)
	s.app.POST(guard.Students.Path+"/:id/delete", s.deleteStudent, manageStudents...)
	s.app.POST(guard.Students.Path+"/:id/activate", s.setStudentActive(true), manageStudents...)
	s.app.POST(guard.Students.Path+"/:id/deactivate", s.setStudentActive(false), manageStudents...)

	s.app.GET(guard.Teachers.Path, s.teachers, s.guarded(guard.Teachers))
	s.app.POST(guard.Teachers.Path+"/accounts", s.createAccount, s.guarded(guard.Teachers), s.permitted(user.PermManageUsers))

	s.app.GET(guard.Attendance.Path, s.attendance, s.guarded(guard.Attendance))
	s.app.POST(guard.Attendance.Path, s.markAttendance, s.guarded(guard.Attendance), s.permitted(user.PermManageAttendance))

	s.app.GET(guard.Reports.Path, s.reports, s.guarded(guard.Reports))
	s.app.GET(guard.Reports.Path+"/export", s.exportReport, s.guarded(guard.Reports), s.permitted(user.PermViewReports))
	s.app.POST(guard.Reports.Path+"/email", s.emailReport, s.guarded(guard.Reports), s.permitted(user.PermExportReports))

	s.app.GET(guard.Analytics.Path, s.analytics, s.guarded(guard.Analytics))

	s.app.GET(guard.Notifications.Path, s.notifications, s.guarded(guard.Notifications))
	s.app.POST(guard.Notifications.Path+"/settings", s.updateNotificationSettings, s.guarded(guard.Notifications), s.permitted(user.PermManageNotifications))

	s.app.GET(guard.MyAttendance.Path, s.myAttendance, s.guarded(guard.MyAttendance))
}

// Start serves until Stop is called or a handler reports a shutdown error.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Start(s.opts.Address) }()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-s.shutdown:
		return core.NewShutdownError("shutdown requested by handler")
	}
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
}

func (s *Server) setFlash(msg string) {
	s.mu.Lock()
	s.flash = msg
	s.mu.Unlock()
}

func (s *Server) popFlash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.flash
	s.flash = ""
	return msg
}
