package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/propnest/marketplace/internal/core/domain"
	"github.com/propnest/marketplace/internal/core/ports"
)

// SessionCookie is the cookie carrying the session token for browser clients.
const SessionCookie = "session"

const (
	ctxPrincipal = "principal"
	ctxSession   = "session"
)

// Authenticator resolves a session token to its principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*ports.Session, *domain.Principal, error)
}

// Auth requires a valid session and stores the principal and session in the
// echo context. The token is read from the Authorization bearer header, then
// from the session cookie.
func Auth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := tokenFrom(c)
			if err != nil {
				return err
			}

			session, principal, err := a.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrAuthenticationRequired) {
					return unauthorized("invalid session")
				}
				return err
			}

			c.Set(ctxPrincipal, principal)
			c.Set(ctxSession, session)
			return next(c)
		}
	}
}

// OptionalAuth behaves like Auth but lets requests without a usable session
// through with no principal set.
func OptionalAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, err := tokenFrom(c); err == nil {
				if session, principal, err := a.Authenticate(c.Request().Context(), token); err == nil {
					c.Set(ctxPrincipal, principal)
					c.Set(ctxSession, session)
				}
			}
			return next(c)
		}
	}
}

// Principal returns the principal stored by Auth, or nil.
func Principal(c echo.Context) *domain.Principal {
	p, _ := c.Get(ctxPrincipal).(*domain.Principal)
	return p
}

// Session returns the session stored by Auth, or nil.
func Session(c echo.Context) *ports.Session {
	s, _ := c.Get(ctxSession).(*ports.Session)
	return s
}

func tokenFrom(c echo.Context) (string, error) {
	if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return "", unauthorized("invalid authorization header")
		}
		return parts[1], nil
	}
	if ck, err := c.Cookie(SessionCookie); err == nil && ck.Value != "" {
		return ck.Value, nil
	}
	return "", unauthorized("missing session")
}

func unauthorized(msg string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, msg).SetInternal(domain.ErrAuthenticationRequired)
}
