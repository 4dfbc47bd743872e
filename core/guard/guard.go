// Package guard decides whether the current session may open a view.
package guard

import (
	"github.com/trezcool/mahudhurio/core/user"
)

const (
	LoginPath   = "/login"
	LandingPath = "/dashboard"
)

type State int

const (
	// Loading means the session is not restored yet; nothing may be rendered.
	Loading State = iota
	Denied
	Allowed
)

func (s State) String() string {
	switch s {
	case Denied:
		return "denied"
	case Allowed:
		return "allowed"
	default:
		return "loading"
	}
}

// Principal is the view of the session the guard needs.
type Principal interface {
	Loading() bool
	IsAuthenticated() bool
	HasRole(roles ...user.Role) bool
}

// View is a guarded page. An empty Roles list admits any signed-in user.
type View struct {
	Path     string
	TitleKey string
	Roles    []user.Role
}

// Decision is the outcome of Check; Redirect is set when State is Denied.
type Decision struct {
	State    State
	Redirect string
}

func (d Decision) Allowed() bool { return d.State == Allowed }

// Check is evaluated on every request and fails closed.
func Check(p Principal, v View) Decision {
	switch {
	case p == nil:
		return Decision{State: Denied, Redirect: LoginPath}
	case p.Loading():
		return Decision{State: Loading}
	case !p.IsAuthenticated():
		return Decision{State: Denied, Redirect: LoginPath}
	case len(v.Roles) > 0 && !p.HasRole(v.Roles...):
		return Decision{State: Denied, Redirect: LandingPath}
	default:
		return Decision{State: Allowed}
	}
}
