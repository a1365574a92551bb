package access

import (
	"strings"

	"github.com/propnest/marketplace/internal/core/domain"
)

// MatchKind selects how a route pattern is compared against a path.
type MatchKind int

const (
	// MatchPrefix matches the pattern and any path below it, on segment
	// boundaries: "/seller" matches "/seller/x" but not "/sellers".
	MatchPrefix MatchKind = iota
	// MatchExact matches the pattern only.
	MatchExact
)

// Route binds a path pattern to the dashboard context it belongs to and the
// constraint guarding it.
type Route struct {
	Pattern    string
	Match      MatchKind
	Dashboard  Dashboard
	Constraint Constraint
}

func (r Route) matches(path string) bool {
	pattern := strings.TrimSuffix(r.Pattern, "/")
	path = normalizePath(path)
	if r.Match == MatchExact {
		return path == normalizePath(pattern)
	}
	if pattern == "" {
		return true
	}
	return path == pattern || strings.HasPrefix(path, pattern+"/")
}

func normalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// RouteTable is an ordered, declarative map from path patterns to routes.
// The first matching entry wins.
type RouteTable struct {
	routes []Route
}

// NewRouteTable builds a table from routes, in priority order.
func NewRouteTable(routes ...Route) *RouteTable {
	return &RouteTable{routes: append([]Route(nil), routes...)}
}

// Lookup returns the first route matching path.
func (t *RouteTable) Lookup(path string) (Route, bool) {
	for _, r := range t.routes {
		if r.matches(path) {
			return r, true
		}
	}
	return Route{}, false
}

// DashboardFor returns the dashboard context declared for path, or
// DashboardNone when the path is not dashboard-scoped.
func (t *RouteTable) DashboardFor(path string) Dashboard {
	if r, ok := t.Lookup(path); ok {
		return r.Dashboard
	}
	return DashboardNone
}

// ConstraintFor returns the constraint declared for path and whether the
// path is guarded at all.
func (t *RouteTable) ConstraintFor(path string) (Constraint, bool) {
	r, ok := t.Lookup(path)
	if !ok {
		return Constraint{}, false
	}
	return r.Constraint, true
}

// DefaultRoutes is the marketplace route map.
func DefaultRoutes() *RouteTable {
	buyer := RequireRoles(domain.RoleBuyer)
	return NewRouteTable(
		Route{Pattern: "/super-admin", Constraint: Constraint{RequireSuperAdmin: true}},
		Route{Pattern: "/admin", Constraint: Constraint{RequireAdmin: true}},
		Route{Pattern: "/seller", Dashboard: DashboardSeller, Constraint: RequireRoles(domain.RoleSeller)},
		Route{Pattern: "/buyer", Dashboard: DashboardBuyer, Constraint: buyer},
		Route{Pattern: "/favorites", Dashboard: DashboardBuyer, Constraint: buyer},
		Route{Pattern: "/saved-searches", Dashboard: DashboardBuyer, Constraint: buyer},
		Route{Pattern: "/site-visits", Dashboard: DashboardBuyer, Constraint: buyer},
		Route{Pattern: "/subscription", Constraint: Constraint{}},
		Route{Pattern: PathOnboarding, Match: MatchExact, Constraint: Constraint{}},
	)
}
