package ports

import (
	"context"

	"github.com/propnest/marketplace/internal/core/domain"
	"github.com/propnest/marketplace/internal/core/payment"
)

// OrderRepository persists payment orders. Every status change is a
// conditional update on the current status, so concurrent callers can never
// move an order backwards.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// FindByReceipt returns the newest order for receipt that has not
	// failed.
	FindByReceipt(ctx context.Context, receipt string) (*domain.Order, error)
	// MarkPaid moves created -> paid and records paymentID.
	MarkPaid(ctx context.Context, orderID, paymentID string) (*domain.Order, error)
	// MarkVerified moves paid -> verified. It requires a Proof, which only
	// the signature verifier can issue.
	MarkVerified(ctx context.Context, proof payment.Proof) (*domain.Order, error)
	// MarkFailed moves created or paid -> failed.
	MarkFailed(ctx context.Context, orderID string) (*domain.Order, error)
}

// SubscriptionRepository stores subscriptions activated by verified orders.
type SubscriptionRepository interface {
	// Activate upserts by order id; activating twice is a no-op.
	Activate(ctx context.Context, s *domain.Subscription) error
}

// PaymentEventRepository stores the payment callback audit trail.
type PaymentEventRepository interface {
	InsertEvent(ctx context.Context, e *domain.PaymentEvent) error
}

// CallbackDedup remembers callbacks already applied.
type CallbackDedup interface {
	IsDuplicate(ctx context.Context, orderID, paymentID string) (bool, error)
	Mark(ctx context.Context, orderID, paymentID string) error
}
