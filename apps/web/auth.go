package webapp

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/guard"
	"github.com/trezcool/mahudhurio/core/user"
)

type loginForm struct {
	Username string
}

func (s *Server) loginPage(ctx echo.Context) error {
	if s.deps.Session.IsAuthenticated() {
		return ctx.Redirect(http.StatusFound, guard.LandingPath)
	}
	return s.render(ctx, http.StatusOK, "login.html", s.newPage(ctx, "auth.login", loginForm{}))
}

func (s *Server) login(ctx echo.Context) error {
	creds := user.Credentials{
		Username: ctx.FormValue("username"),
		Password: ctx.FormValue("password"),
	}
	res := s.deps.Session.Login(ctx.Request().Context(), creds)
	if res.Success {
		return ctx.Redirect(http.StatusFound, guard.LandingPath)
	}

	p := s.newPage(ctx, "auth.login", loginForm{Username: creds.Username})
	p.Error = res.Error
	p.Fields = fieldMap(res.Fields)
	return s.render(ctx, http.StatusUnauthorized, "login.html", p)
}

func (s *Server) logout(ctx echo.Context) error {
	s.deps.Session.Logout(ctx.Request().Context())
	return ctx.Redirect(http.StatusFound, guard.LoginPath)
}

func (s *Server) changeLanguage(ctx echo.Context) error {
	s.deps.I18n.ChangeLanguage(ctx.Request().Context(), ctx.FormValue("lang"))
	return ctx.Redirect(http.StatusFound, safeNext(ctx.FormValue("next")))
}

// safeNext keeps redirects on this host.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return guard.LandingPath
	}
	return next
}

func fieldMap(fields []core.FieldError) map[string]string {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.Field] = f.Error
	}
	return m
}
