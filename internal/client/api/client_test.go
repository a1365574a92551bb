package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/propnest/marketplace/internal/core/domain"
)

func TestClient_LoginThenMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_, _ = w.Write([]byte(`{"token":"tok","principal":{"id":"u1","email":"a@example.com","roles":["buyer"]}}`))
		case "/auth/me":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"authentication required"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"u1","email":"a@example.com","roles":["buyer","seller"],"is_super_admin":false}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Me(context.Background()); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired before login, got %v", err)
	}

	if _, err := c.Login(context.Background(), "a@example.com", "longenough"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	p, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if !p.HasRole(domain.RoleSeller) {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestClient_Me_AnyNon2xxIsError(t *testing.T) {
	for _, code := range []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusFound} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		c := New(srv.URL)
		c.HTTP.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
		_, err := c.Me(context.Background())
		srv.Close()

		var se *StatusError
		if !errors.As(err, &se) || se.Code != code {
			t.Fatalf("code %d: expected StatusError, got %v", code, err)
		}
	}
}

func TestClient_AddRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/auth/roles" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["role"] == "admin" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"role cannot be self-granted"}`))
			return
		}
		_, _ = w.Write([]byte(`{"principal":{"id":"u1","roles":["buyer","` + body["role"] + `"]}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	p, err := c.AddRole(context.Background(), domain.RoleSeller, "")
	if err != nil || !p.HasRole(domain.RoleSeller) {
		t.Fatalf("AddRole: %+v / %v", p, err)
	}

	_, err = c.AddRole(context.Background(), domain.RoleAdmin, "")
	if !errors.Is(err, domain.ErrAuthorizationDenied) {
		t.Fatalf("expected ErrAuthorizationDenied, got %v", err)
	}
}

func TestClient_LogoutDropsTokenOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok")
	if err := c.Logout(context.Background()); err == nil {
		t.Fatalf("expected error from 500")
	}
	if c.Token() != "" {
		t.Fatalf("token must be dropped")
	}

	c.SetToken("tok")
	_ = c.AdminLogout(context.Background())
	if c.Token() != "" {
		t.Fatalf("token must be dropped after admin logout")
	}
}
