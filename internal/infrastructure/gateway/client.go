// Package gateway talks to the hosted payment gateway's REST API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/propnest/marketplace/internal/core/domain"
	"github.com/propnest/marketplace/internal/core/ports"
)

const (
	DefaultBaseURL = "https://api.razorpay.com"
	defaultTimeout = 10 * time.Second
)

// Credentials identifies the merchant account. Both fields are required.
type Credentials struct {
	KeyID     string
	KeySecret string
}

// Client implements ports.Gateway.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	creds   Credentials
}

// New returns a Client, or a ConfigurationError naming whichever credential
// is missing.
func New(baseURL string, creds Credentials) (*Client, error) {
	var missing []string
	if creds.KeyID == "" {
		missing = append(missing, "GATEWAY_KEY_ID")
	}
	if creds.KeySecret == "" {
		missing = append(missing, "GATEWAY_KEY_SECRET")
	}
	if len(missing) > 0 {
		return nil, &domain.ConfigurationError{Component: "gateway", Missing: missing}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: defaultTimeout},
		creds:   creds,
	}, nil
}

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder registers an order with the gateway. Every failure wraps
// domain.ErrGatewayUnavailable.
func (c *Client) CreateOrder(ctx context.Context, req ports.GatewayOrderRequest) (*ports.GatewayOrder, error) {
	b, err := json.Marshal(createOrderRequest{
		Amount:   int64(req.Amount),
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/orders", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.creds.KeyID, c.creds.KeySecret)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e errorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(body, &e) == nil && e.Error.Description != "" {
			return nil, fmt.Errorf("%w: gateway returned %d: %s", domain.ErrGatewayUnavailable, resp.StatusCode, e.Error.Description)
		}
		return nil, fmt.Errorf("%w: gateway returned %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode order: %v", domain.ErrGatewayUnavailable, err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: order response carries no id", domain.ErrGatewayUnavailable)
	}

	created := time.Now().UTC()
	if out.CreatedAt > 0 {
		created = time.Unix(out.CreatedAt, 0).UTC()
	}
	return &ports.GatewayOrder{
		ID:        out.ID,
		Amount:    domain.MinorUnits(out.Amount),
		Currency:  out.Currency,
		Receipt:   out.Receipt,
		Status:    out.Status,
		CreatedAt: created,
	}, nil
}
