package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/propnest/marketplace/internal/api/metrics"
	"github.com/propnest/marketplace/internal/core/access"
	"github.com/propnest/marketplace/internal/core/domain"
)

// Require enforces an access constraint on a route. It must run after Auth.
// A missing principal is 401; a principal lacking the capability is 403.
func Require(constraint access.Constraint) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := Principal(c)
			if p == nil {
				metrics.AccessDeniedTotal.WithLabelValues("authentication_required").Inc()
				return unauthorized("authentication required")
			}
			if !constraint.Allows(access.Capabilities(p)) {
				metrics.AccessDeniedTotal.WithLabelValues("authorization_denied").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "access denied").SetInternal(domain.ErrAuthorizationDenied)
			}
			return next(c)
		}
	}
}

// RequireAdmin is Require with the admin constraint.
func RequireAdmin() echo.MiddlewareFunc {
	return Require(access.Constraint{RequireAdmin: true})
}

// RequireSuperAdmin is Require with the super-admin constraint. The admin
// role alone never satisfies it.
func RequireSuperAdmin() echo.MiddlewareFunc {
	return Require(access.Constraint{RequireSuperAdmin: true})
}
