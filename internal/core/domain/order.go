package domain

import (
	"errors"
	"time"
)

// OrderStatus represents the lifecycle state of a payment order.
type OrderStatus string

const (
	OrderCreated  OrderStatus = "created"
	OrderPaid     OrderStatus = "paid"
	OrderVerified OrderStatus = "verified"
	OrderFailed   OrderStatus = "failed"
)

// validTransitions defines the allowed forward-only transitions. Verified and
// failed are terminal.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderCreated: {OrderPaid, OrderFailed},
	OrderPaid:    {OrderVerified, OrderFailed},
}

var ErrInvalidTransition = errors.New("invalid status transition")
var ErrOrderNotFound = errors.New("order not found")
var ErrInvalidOrder = errors.New("invalid order")

// ErrOrderExists is an insert of an order id already on file.
var ErrOrderExists = errors.New("order already exists")

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// SourcesFor returns every status that may transition into next.
func SourcesFor(next OrderStatus) []OrderStatus {
	var out []OrderStatus
	for from, tos := range validTransitions {
		for _, to := range tos {
			if to == next {
				out = append(out, from)
			}
		}
	}
	return out
}

// Order is a payment order created with the gateway. ID is assigned by the
// gateway; Amount is always in minor units.
type Order struct {
	ID        string            `json:"id" bson:"_id"`
	UserID    string            `json:"user_id" bson:"user_id"`
	Amount    MinorUnits        `json:"amount" bson:"amount"`
	Currency  string            `json:"currency" bson:"currency"`
	Receipt   string            `json:"receipt" bson:"receipt"`
	Status    OrderStatus       `json:"status" bson:"status"`
	PaymentID string            `json:"payment_id,omitempty" bson:"payment_id,omitempty"`
	Notes     map[string]string `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}
