package ports

import (
	"context"
	"time"

	"github.com/propnest/marketplace/internal/core/domain"
	"github.com/propnest/marketplace/internal/core/payment"
)

// GatewayOrderRequest is sent to the payment gateway. Amount is already in
// minor units.
type GatewayOrderRequest struct {
	Amount   domain.MinorUnits
	Currency string
	Receipt  string
	Notes    map[string]string
}

// GatewayOrder is the gateway's view of a created order.
type GatewayOrder struct {
	ID        string
	Amount    domain.MinorUnits
	Currency  string
	Receipt   string
	Status    string
	CreatedAt time.Time
}

// Gateway creates orders with the external payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
}

// CreateOrderInput carries a purchase intent. Amount is in major units.
type CreateOrderInput struct {
	UserID   string
	Amount   float64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// ConfirmInput is a checkout completion reported by the client or gateway.
type ConfirmInput struct {
	OrderID   string
	PaymentID string
	Signature string
	Source    domain.PaymentEventSource
}

// OrderService creates payment orders.
type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
}

// PaymentService applies verified payment completions to orders.
type PaymentService interface {
	Confirm(ctx context.Context, in ConfirmInput) (*domain.Order, error)
	ApplyWebhook(ctx context.Context, proof payment.Proof) (*domain.Order, error)
}
