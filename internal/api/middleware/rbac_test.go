package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/propnest/marketplace/internal/core/access"
	"github.com/propnest/marketplace/internal/core/domain"
)

func runRequire(t *testing.T, constraint access.Constraint, p *domain.Principal) (int, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		c.Set(ctxPrincipal, p)
	}

	handler := Require(constraint)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec.Code, err
}

func TestRequire(t *testing.T) {
	buyer := &domain.Principal{ID: "b", Roles: []domain.Role{domain.RoleBuyer}}
	seller := &domain.Principal{ID: "s", Roles: []domain.Role{domain.RoleSeller}}
	admin := &domain.Principal{ID: "a", Roles: []domain.Role{domain.RoleAdmin}}
	super := &domain.Principal{ID: "sa", IsSuperAdmin: true}

	sellerOnly := access.RequireRoles(domain.RoleSeller)

	cases := []struct {
		name       string
		constraint access.Constraint
		principal  *domain.Principal
		want       int
	}{
		{"unauthenticated", sellerOnly, nil, http.StatusUnauthorized},
		{"buyer denied seller route", sellerOnly, buyer, http.StatusForbidden},
		{"seller allowed", sellerOnly, seller, http.StatusOK},
		{"admin overrides role list", sellerOnly, admin, http.StatusOK},
		{"buyer denied admin", access.Constraint{RequireAdmin: true}, buyer, http.StatusForbidden},
		{"admin allowed admin", access.Constraint{RequireAdmin: true}, admin, http.StatusOK},
		{"super-admin is not admin", access.Constraint{RequireAdmin: true}, super, http.StatusForbidden},
		{"admin is not super-admin", access.Constraint{RequireSuperAdmin: true}, admin, http.StatusForbidden},
		{"super-admin allowed", access.Constraint{RequireSuperAdmin: true}, super, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _ := runRequire(t, tc.constraint, tc.principal)
			if code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, code)
			}
		})
	}
}

func TestRequire_ErrorKinds(t *testing.T) {
	_, err := runRequire(t, access.Constraint{RequireAdmin: true}, nil)
	if !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("err = %v, want ErrAuthenticationRequired", err)
	}
	_, err = runRequire(t, access.Constraint{RequireAdmin: true}, &domain.Principal{ID: "b", Roles: []domain.Role{domain.RoleBuyer}})
	if !errors.Is(err, domain.ErrAuthorizationDenied) {
		t.Fatalf("err = %v, want ErrAuthorizationDenied", err)
	}
}
