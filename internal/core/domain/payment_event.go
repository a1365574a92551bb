package domain

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// PaymentEventSource identifies how a payment completion reached the server.
type PaymentEventSource string

const (
	SourceClientConfirm PaymentEventSource = "client_confirm"
	SourceWebhook       PaymentEventSource = "webhook"
)

// PaymentOutcome is the result recorded for a payment callback.
type PaymentOutcome string

const (
	OutcomeVerified  PaymentOutcome = "verified"
	OutcomeDuplicate PaymentOutcome = "duplicate"
	OutcomeRejected  PaymentOutcome = "signature_rejected"
)

// PaymentEvent is an audit entry for a single payment callback.
type PaymentEvent struct {
	ID         string             `bson:"_id"`
	OrderID    string             `bson:"order_id"`
	PaymentID  string             `bson:"payment_id"`
	Source     PaymentEventSource `bson:"source"`
	Outcome    PaymentOutcome     `bson:"outcome"`
	ReceivedAt time.Time          `bson:"received_at"`
}

// NewPaymentEvent stamps a new audit entry with a time-ordered ID.
func NewPaymentEvent(orderID, paymentID string, source PaymentEventSource, outcome PaymentOutcome, at time.Time) *PaymentEvent {
	return &PaymentEvent{
		ID:         ulid.MustNew(ulid.Timestamp(at), rand.Reader).String(),
		OrderID:    orderID,
		PaymentID:  paymentID,
		Source:     source,
		Outcome:    outcome,
		ReceivedAt: at.UTC(),
	}
}
