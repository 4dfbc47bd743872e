package webapp

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/guard"
	"github.com/trezcool/mahudhurio/services/apiclient"
)

type errorData struct {
	Status  int
	Message string
}

// newHTTPErrorHandler renders our errors as pages.
// A lost authorization sends the browser to the login page; an unknown page to the landing page.
func newHTTPErrorHandler(s *Server) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}
		if apiclient.IsUnauthorized(err) {
			s.redirect(ctx, guard.LoginPath)
			return
		}

		var (
			code    int
			message string
		)
		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Code == http.StatusNotFound {
				s.redirect(ctx, guard.LandingPath)
				return
			}
			code = origErr.Code
			message = fmt.Sprint(origErr.Message)
		case *apiclient.APIError:
			code = origErr.Status
			message = origErr.ServerMessage()
			if code == http.StatusForbidden {
				message = s.deps.I18n.T("error.forbidden", nil)
			}
			if message == "" {
				message = http.StatusText(code)
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			message = origErr.Error()
		default:
			if apiclient.IsUnavailable(err) {
				code = http.StatusServiceUnavailable
				message = s.deps.I18n.T("error.unavailable", nil)
				s.deps.Logger.Warn("api unavailable", err)
				break
			}
			code = http.StatusInternalServerError
			message = s.deps.I18n.T("error.server", nil)

			usr, _ := s.deps.Session.User()
			s.deps.Logger.Error(http.StatusText(code), errors.Wrap(err, ctx.Request().URL.Path), usr)

			// shutting down...
			if core.IsShutdown(err) {
				s.signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}

		var rErr error
		if ctx.Request().Method == http.MethodHead { // Issue #608
			rErr = ctx.NoContent(code)
		} else {
			p := s.newPage(ctx, "app.name", errorData{Status: code, Message: message})
			rErr = s.render(ctx, code, "error.html", p)
		}
		if rErr != nil {
			s.deps.Logger.Error("rendering error page", rErr)
		}
	}
}

func (s *Server) redirect(ctx echo.Context, path string) {
	if err := ctx.Redirect(http.StatusFound, path); err != nil {
		s.deps.Logger.Error("redirecting", err)
	}
}
