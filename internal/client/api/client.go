// Package api is the HTTP client for the marketplace session endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/propnest/marketplace/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// StatusError is a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// Is maps 401 and 403 onto the domain authentication and authorization
// errors.
func (e *StatusError) Is(target error) bool {
	switch target {
	case domain.ErrAuthenticationRequired:
		return e.Code == http.StatusUnauthorized
	case domain.ErrAuthorizationDenied:
		return e.Code == http.StatusForbidden
	}
	return false
}

type Client struct {
	BaseURL string
	HTTP    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}
}

// SetToken replaces the session token sent as a bearer credential.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login signs in and keeps the issued token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Principal, error) {
	var out struct {
		Token     string            `json:"token"`
		Principal *domain.Principal `json:"principal"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" || out.Principal == nil {
		return nil, errors.New("login response carries no session")
	}
	c.SetToken(out.Token)
	return out.Principal, nil
}

// Me fetches the current principal. Any non-2xx response is an error.
func (c *Client) Me(ctx context.Context) (*domain.Principal, error) {
	var p domain.Principal
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, errors.New("current principal response carries no id")
	}
	return &p, nil
}

// AddRole asks the server to grant role to the caller.
func (c *Client) AddRole(ctx context.Context, role domain.Role, sellerType domain.SellerType) (*domain.Principal, error) {
	var out struct {
		Principal *domain.Principal `json:"principal"`
	}
	body := map[string]string{"role": string(role)}
	if sellerType != "" {
		body["seller_type"] = string(sellerType)
	}
	if err := c.do(ctx, http.MethodPatch, "/auth/roles", body, &out); err != nil {
		return nil, err
	}
	if out.Principal == nil {
		return nil, errors.New("add role response carries no principal")
	}
	return out.Principal, nil
}

// Logout ends the session. The local token is dropped whatever the server
// answers.
func (c *Client) Logout(ctx context.Context) error {
	defer c.SetToken("")
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// AdminLogout ends an admin-scoped session. The local token is dropped
// whatever the server answers.
func (c *Client) AdminLogout(ctx context.Context) error {
	defer c.SetToken("")
	return c.do(ctx, http.MethodPost, "/admin/auth/logout", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
