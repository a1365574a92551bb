// Package payment proves that a reported payment completion originated from
// the gateway. A Proof can only be produced here, and it is the only value
// the order store accepts to move an order from paid to verified.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/propnest/marketplace/internal/core/domain"
)

// Proof attests that a (order, payment) pair carried a valid gateway
// signature. The zero value is not a proof.
type Proof struct {
	orderID   string
	paymentID string
}

// OrderID returns the verified gateway order id.
func (p Proof) OrderID() string { return p.orderID }

// PaymentID returns the verified gateway payment id.
func (p Proof) PaymentID() string { return p.paymentID }

// Valid reports whether p was issued by a verifier.
func (p Proof) Valid() bool { return p.orderID != "" && p.paymentID != "" }

// SignatureVerifier checks gateway HMAC-SHA256 signatures. It holds no
// mutable state and is safe for concurrent use.
type SignatureVerifier struct {
	keySecret     []byte
	webhookSecret []byte
}

// NewSignatureVerifier returns a verifier. Empty secrets are accepted here
// and reported as a ConfigurationError when a check needs them.
func NewSignatureVerifier(keySecret, webhookSecret string) *SignatureVerifier {
	return &SignatureVerifier{
		keySecret:     []byte(strings.TrimSpace(keySecret)),
		webhookSecret: []byte(strings.TrimSpace(webhookSecret)),
	}
}

// Sign computes the hex signature the gateway sends for a checkout
// completion: HMAC-SHA256(secret, orderID + "|" + paymentID).
func Sign(secret, orderID, paymentID string) string {
	return hex.EncodeToString(mac([]byte(secret), []byte(orderID+"|"+paymentID)))
}

// SignBody computes the hex webhook signature for a raw request body.
func SignBody(secret string, body []byte) string {
	return hex.EncodeToString(mac([]byte(secret), body))
}

// Verify reports whether signature matches orderID and paymentID. Any
// mismatch, including a malformed signature, is false. The only error is a
// missing secret.
func (v *SignatureVerifier) Verify(orderID, paymentID, signature string) (bool, error) {
	if len(v.keySecret) == 0 {
		return false, &domain.ConfigurationError{Component: "payment", Missing: []string{"GATEWAY_KEY_SECRET"}}
	}
	if orderID == "" || paymentID == "" {
		return false, nil
	}
	return equalHex(mac(v.keySecret, []byte(orderID+"|"+paymentID)), signature), nil
}

// Authenticate is Verify returning a Proof, or ErrSignatureInvalid.
func (v *SignatureVerifier) Authenticate(orderID, paymentID, signature string) (Proof, error) {
	ok, err := v.Verify(orderID, paymentID, signature)
	if err != nil {
		return Proof{}, err
	}
	if !ok {
		return Proof{}, domain.ErrSignatureInvalid
	}
	return Proof{orderID: orderID, paymentID: paymentID}, nil
}

// WebhookPayload is the subset of a gateway webhook body the server acts on.
type WebhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Webhook events that report a completed payment.
const (
	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
)

// ParseWebhook decodes a webhook body without authenticating it.
func ParseWebhook(body []byte) (WebhookPayload, error) {
	var wp WebhookPayload
	if err := json.Unmarshal(body, &wp); err != nil {
		return WebhookPayload{}, fmt.Errorf("decode webhook: %w", err)
	}
	return wp, nil
}

// AuthenticateWebhook checks the HMAC-SHA256 of the raw body against the
// webhook secret and, when valid, returns a Proof for the payment it reports.
func (v *SignatureVerifier) AuthenticateWebhook(body []byte, signature string) (Proof, WebhookPayload, error) {
	if len(v.webhookSecret) == 0 {
		return Proof{}, WebhookPayload{}, &domain.ConfigurationError{Component: "payment", Missing: []string{"GATEWAY_WEBHOOK_SECRET"}}
	}
	if !equalHex(mac(v.webhookSecret, body), signature) {
		return Proof{}, WebhookPayload{}, domain.ErrSignatureInvalid
	}
	wp, err := ParseWebhook(body)
	if err != nil {
		return Proof{}, WebhookPayload{}, err
	}
	entity := wp.Payload.Payment.Entity
	if entity.OrderID == "" || entity.ID == "" {
		return Proof{}, wp, fmt.Errorf("webhook %q carries no payment", wp.Event)
	}
	return Proof{orderID: entity.OrderID, paymentID: entity.ID}, wp, nil
}

func mac(secret, msg []byte) []byte {
	m := hmac.New(sha256.New, secret)
	_, _ = m.Write(msg)
	return m.Sum(nil)
}

func equalHex(expected []byte, sigHex string) bool {
	provided, err := hex.DecodeString(strings.TrimSpace(sigHex))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, provided)
}
