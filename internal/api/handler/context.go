package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/propnest/marketplace/internal/api/middleware"
	"github.com/propnest/marketplace/internal/core/domain"
)

// ctxPrincipal returns the principal the Auth middleware loaded. Handlers on
// authenticated routes call it before any service call; a nil principal means
// the route was wired without Auth.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p := middleware.Principal(c)
	if p == nil {
		return nil, domain.ErrAuthenticationRequired
	}
	return p, nil
}
