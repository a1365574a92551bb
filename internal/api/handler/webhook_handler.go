package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/propnest/marketplace/internal/core/domain"
	"github.com/propnest/marketplace/internal/core/payment"
)

// SignatureHeader carries the gateway's HMAC of the raw webhook body.
const SignatureHeader = "X-Razorpay-Signature"

const maxWebhookBody = 1 << 20

// WebhookAuthenticator checks a webhook body against its signature.
type WebhookAuthenticator interface {
	AuthenticateWebhook(body []byte, signature string) (payment.Proof, payment.WebhookPayload, error)
}

// WebhookQueue is the interface the handler uses to enqueue authenticated
// payments.
type WebhookQueue interface {
	Enqueue(proof payment.Proof) error
}

// WebhookRejecter records webhooks that failed authentication.
type WebhookRejecter interface {
	RejectWebhook(ctx context.Context, orderID, paymentID string)
}

// WebhookHandler ingests server-to-server payment notifications.
type WebhookHandler struct {
	verifier WebhookAuthenticator
	queue    WebhookQueue
	rejecter WebhookRejecter
	log      zerolog.Logger
}

func NewWebhookHandler(verifier WebhookAuthenticator, queue WebhookQueue, rejecter WebhookRejecter, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, queue: queue, rejecter: rejecter, log: log}
}

// Receive handles POST /v1/payments/webhook. Authenticated completions are
// queued and answered with 202; other authenticated events are acknowledged
// with 200 and dropped.
//
// @Summary      Payment gateway webhook
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Razorpay-Signature  header    string  true  "HMAC-SHA256 of the body"
// @Success      200   {object}  webhookResponse
// @Success      202   {object}  webhookResponse
// @Failure      400   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/payments/webhook [post]
func (h *WebhookHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	proof, wp, err := h.verifier.AuthenticateWebhook(body, c.Request().Header.Get(SignatureHeader))
	switch {
	case errors.Is(err, domain.ErrSignatureInvalid):
		var orderID, paymentID string
		if parsed, perr := payment.ParseWebhook(body); perr == nil {
			orderID = parsed.Payload.Payment.Entity.OrderID
			paymentID = parsed.Payload.Payment.Entity.ID
		}
		h.rejecter.RejectWebhook(c.Request().Context(), orderID, paymentID)
		return domain.ErrSignatureInvalid
	case errors.Is(err, domain.ErrConfiguration):
		return err
	case err != nil:
		h.log.Warn().Err(err).Str("event", wp.Event).Msg("authenticated webhook ignored")
		return c.JSON(http.StatusOK, webhookResponse{Status: "ignored"})
	}

	if wp.Event != payment.EventPaymentCaptured && wp.Event != payment.EventOrderPaid {
		h.log.Debug().Str("event", wp.Event).Msg("webhook event not handled")
		return c.JSON(http.StatusOK, webhookResponse{Status: "ignored"})
	}

	if err := h.queue.Enqueue(proof); err != nil {
		h.log.Error().Err(err).Str("order_id", proof.OrderID()).Msg("webhook enqueue failed")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "webhook queue full")
	}
	return c.JSON(http.StatusAccepted, webhookResponse{Status: "accepted"})
}
