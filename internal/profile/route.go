package profile

import "strings"

// Route is a client-facing path.
type Route string

const (
	RouteRoot      Route = "/"
	RouteSelector  Route = "/profile"
	RouteAdmin     Route = "/admin"
	RouteRecruiter Route = "/recruiter"
	RoutePortfolio Route = "/portfolio"
)

const (
	RoleAdmin     = "admin"
	RoleRecruiter = "recruiter"
)

// LandingRouteFor maps a role to the page shown right after the profile is
// resolved. Matching ignores case and surrounding space.
func LandingRouteFor(role string) Route {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleAdmin:
		return RouteAdmin
	case RoleRecruiter:
		return RouteRecruiter
	default:
		return RoutePortfolio
	}
}

// IsSelectorRoute reports whether path shows the profile picker.
func IsSelectorRoute(path string) bool {
	return path == string(RouteRoot) || path == string(RouteSelector)
}

func (r Route) String() string { return string(r) }
