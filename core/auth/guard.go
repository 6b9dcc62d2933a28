package auth

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotAuthenticated = errors.New("user not authenticated")
	ErrForbidden        = errors.New("permission denied")
	ErrRouteNotFound    = errors.New("page not found")
)

// Decision is the outcome of a route guard check.
type Decision struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
	Err      error  `json:"-"`
}

// Authorize decides whether a client may open a private page restricted to
// roles (any logged in user if roles is empty).
func Authorize(usr User, authenticated bool, roles ...string) Decision {
	if !authenticated {
		return Decision{Redirect: PathLogin, Err: ErrNotAuthenticated}
	}
	if !usr.HasAnyRole(roles...) {
		return Decision{Redirect: PathDashboard, Err: ErrForbidden}
	}
	return Decision{Allowed: true}
}

// Route is a page of the application.
type Route struct {
	Path    string   `json:"path"`
	Name    string   `json:"name"`
	Private bool     `json:"private,omitempty"`
	Roles   []string `json:"roles,omitempty"`
}

// Routes is the page tree of the application.
var Routes = []Route{
	{Path: PathHome, Name: "home"},
	{Path: "/schools", Name: "schools"},
	{Path: "/schools/:slug", Name: "school"},
	{Path: "/compare", Name: "compare"},
	{Path: PathLogin, Name: "login"},
	{Path: "/register", Name: "register"},
	{Path: "/forgot-password", Name: "forgot-password"},
	{Path: "/oauth/success", Name: "oauth-success"},
	{Path: "/complete-profile", Name: "complete-profile"},
	{Path: PathDashboard, Name: "dashboard", Private: true},
	{Path: PathAdmin, Name: "admin", Private: true, Roles: []string{RoleSchoolAdmin}},
	{Path: PathSuperAdmin, Name: "superadmin", Private: true, Roles: []string{RoleSuperAdmin}},
	{Path: "/pricing", Name: "pricing"},
	{Path: "/faq", Name: "faq"},
	{Path: "/contact", Name: "contact"},
	{Path: "/how-it-works", Name: "how-it-works"},
	{Path: "/features", Name: "features"},
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// match returns the path parameters if path matches the route pattern.
func (r Route) match(path string) (map[string]string, bool) {
	pattern, segments := splitPath(r.Path), splitPath(path)
	if len(pattern) != len(segments) {
		return nil, false
	}
	params := make(map[string]string)
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segments[i] == "" {
				return nil, false
			}
			params[p[1:]] = segments[i]
			continue
		}
		if p != segments[i] {
			return nil, false
		}
	}
	return params, true
}

// Match finds the route of path, ignoring any query string or fragment.
func Match(path string) (Route, map[string]string, error) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, r := range Routes {
		if params, ok := r.match(path); ok {
			return r, params, nil
		}
	}
	return Route{}, nil, ErrRouteNotFound
}

// Resolve finds the route of path and applies the guard to it.
func Resolve(path string, usr User, authenticated bool) (Route, Decision, error) {
	route, _, err := Match(path)
	if err != nil {
		return Route{}, Decision{}, err
	}
	if !route.Private {
		return route, Decision{Allowed: true}, nil
	}
	return route, Authorize(usr, authenticated, route.Roles...), nil
}
