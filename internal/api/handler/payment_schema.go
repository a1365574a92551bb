package handler

import (
	"time"

	"github.com/propnest/marketplace/internal/core/domain"
)

type createOrderRequest struct {
	Amount       float64           `json:"amount"        validate:"required,gt=0"`
	Currency     string            `json:"currency"      validate:"required,len=3"`
	Receipt      string            `json:"receipt"       validate:"omitempty,max=40"`
	PackageID    string            `json:"package_id"    validate:"omitempty,max=24"`
	BillingCycle string            `json:"billing_cycle" validate:"omitempty,oneof=monthly quarterly yearly"`
	Notes        map[string]string `json:"notes"         validate:"max=10"`
}

// verifyRequest carries the three values the hosted checkout returns.
type verifyRequest struct {
	OrderID   string `json:"razorpay_order_id"   validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature"  validate:"required"`
}

type orderResponse struct {
	ID        string             `json:"id"`
	KeyID     string             `json:"key_id,omitempty"`
	Amount    domain.MinorUnits  `json:"amount"`
	Currency  string             `json:"currency"`
	Receipt   string             `json:"receipt"`
	Status    domain.OrderStatus `json:"status"`
	PaymentID string             `json:"payment_id,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

type webhookResponse struct {
	Status string `json:"status"`
}

func toOrderResponse(o *domain.Order, keyID string) orderResponse {
	return orderResponse{
		ID:        o.ID,
		KeyID:     keyID,
		Amount:    o.Amount,
		Currency:  o.Currency,
		Receipt:   o.Receipt,
		Status:    o.Status,
		PaymentID: o.PaymentID,
		CreatedAt: o.CreatedAt,
	}
}
