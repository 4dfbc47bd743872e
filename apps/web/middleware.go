package webapp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/mahudhurio/core/guard"
	"github.com/trezcool/mahudhurio/core/user"
)

const (
	viewKey   = "view"
	// csrfField is the form field and context key carrying the CSRF token.
	csrfField = "csrf"
)

// guarded runs guard.Check on every request to v.
func (s *Server) guarded(v guard.View) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			switch d := guard.Check(s.deps.Session, v); d.State {
			case guard.Allowed:
				ctx.Set(viewKey, v)
				return next(ctx)
			case guard.Denied:
				return ctx.Redirect(http.StatusFound, d.Redirect)
			default:
				ctx.Response().Header().Set("Refresh", "1")
				return s.render(ctx, http.StatusServiceUnavailable, "loading.html", s.newPage(ctx, v.TitleKey, nil))
			}
		}
	}
}

func (s *Server) permitted(perm user.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !s.deps.Session.HasPermission(perm) {
				return echo.NewHTTPError(http.StatusForbidden, s.deps.I18n.T("error.forbidden", nil))
			}
			return next(ctx)
		}
	}
}

func contextView(ctx echo.Context) guard.View {
	v, _ := ctx.Get(viewKey).(guard.View)
	return v
}
