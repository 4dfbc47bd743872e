package webapp

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core/guard"
	"github.com/trezcool/mahudhurio/core/i18n"
	"github.com/trezcool/mahudhurio/core/user"
)

const layoutFile = "templates/layout.html"

//go:embed templates/*.html
var templateFS embed.FS

type renderer struct {
	templates map[string]*template.Template
}

var _ echo.Renderer = (*renderer)(nil)

func newRenderer() (*renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &renderer{templates: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := path.Base(file)
		t, err := template.New(name).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", name)
		}
		r.templates[name] = t
	}
	return r, nil
}

func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// page is the data every template receives.
type page struct {
	TitleKey  string
	Path      string
	Lang      i18n.Language
	Dir       string
	Languages []i18n.Language
	SignedIn  bool
	User      user.Profile
	Nav       []guard.View
	Flash     string
	Error     string
	Fields    map[string]string
	Data      interface{}
	CSRF      string

	tr *i18n.Service
}

func (p *page) T(key string) string {
	return p.tr.T(key, nil)
}

// TP translates key with params given as name, value pairs.
func (p *page) TP(key string, kv ...string) string {
	params := make(i18n.Params, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		params[kv[i]] = kv[i+1]
	}
	return p.tr.T(key, params)
}

func (p *page) Percent(rate float64) string {
	return p.tr.Percent(rate)
}

func (p *page) Can(perm user.Permission) bool {
	return p.SignedIn && p.User.Role.Can(perm)
}

func (s *Server) newPage(ctx echo.Context, titleKey string, data interface{}) *page {
	usr, signedIn := s.deps.Session.User()
	p := &page{
		TitleKey:  titleKey,
		Path:      ctx.Request().URL.Path,
		Lang:      s.deps.I18n.LanguageInfo(),
		Dir:       s.deps.I18n.Dir(),
		Languages: s.deps.I18n.Supported(),
		SignedIn:  signedIn && s.deps.Session.IsAuthenticated(),
		User:      usr,
		Flash:     s.popFlash(),
		Fields:    map[string]string{},
		Data:      data,
		tr:        s.deps.I18n,
	}
	p.CSRF, _ = ctx.Get(csrfField).(string)
	if p.SignedIn {
		p.Nav = guard.Navigation(s.deps.Session)
	}
	return p
}

func (s *Server) render(ctx echo.Context, code int, name string, p *page) error {
	return ctx.Render(code, name, p)
}
