package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/propnest/marketplace/internal/core/access"
	"github.com/propnest/marketplace/internal/core/domain"
	"github.com/propnest/marketplace/internal/core/ports"
)

// PaymentHandler serves checkout order creation and client-side payment
// confirmation.
type PaymentHandler struct {
	orders   ports.OrderService
	payments ports.PaymentService
	keyID    string
	log      zerolog.Logger
}

// NewPaymentHandler creates a PaymentHandler. keyID is the public gateway key
// handed to the checkout widget alongside each order.
func NewPaymentHandler(orders ports.OrderService, payments ports.PaymentService, keyID string, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{orders: orders, payments: payments, keyID: keyID, log: log}
}

// CreateOrder handles POST /v1/payments/orders.
//
// @Summary      Create a checkout order
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createOrderRequest  true  "Purchase intent (amount in major units)"
// @Success      201   {object}  orderResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/payments/orders [post]
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if req.Receipt == "" && req.PackageID == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "package_id or receipt is required")
	}

	notes := make(map[string]string, len(req.Notes)+2)
	for k, v := range req.Notes {
		notes[k] = v
	}
	receipt := req.Receipt
	if req.PackageID != "" {
		cycle := domain.BillingCycle(req.BillingCycle)
		if cycle == "" {
			cycle = domain.BillingMonthly
		}
		notes[domain.NotePackageID] = req.PackageID
		notes[domain.NoteBillingCycle] = string(cycle)
		if receipt == "" {
			receipt = domain.Receipt(p.ID, req.PackageID, cycle)
		}
	}

	order, err := h.orders.CreateOrder(c.Request().Context(), ports.CreateOrderInput{
		UserID:   p.ID,
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toOrderResponse(order, h.keyID))
}

// GetOrder handles GET /v1/payments/orders/:id. Orders are visible to their
// owner and to admins; anyone else gets 404.
//
// @Summary      Get a checkout order
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Gateway order id"
// @Success      200  {object}  orderResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/payments/orders/{id} [get]
func (h *PaymentHandler) GetOrder(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	order, err := h.ownedOrder(c, p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order, ""))
}

// Verify handles POST /v1/payments/verify, the client's report of a
// completed checkout. The order only becomes verified if the signature
// matches.
//
// @Summary      Verify a completed payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      verifyRequest  true  "Checkout completion"
// @Success      200   {object}  orderResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/payments/verify [post]
func (h *PaymentHandler) Verify(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if _, err := h.ownedOrder(c, p, req.OrderID); err != nil {
		return err
	}

	order, err := h.payments.Confirm(c.Request().Context(), ports.ConfirmInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Source:    domain.SourceClientConfirm,
	})
	if err != nil {
		// Verified but subscription activation failed: the payment stands.
		if order != nil && order.Status == domain.OrderVerified && !errors.Is(err, domain.ErrSignatureInvalid) {
			h.log.Warn().Err(err).Str("order_id", order.ID).Msg("payment verified, subscription activation pending")
			return c.JSON(http.StatusOK, toOrderResponse(order, ""))
		}
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order, ""))
}

func (h *PaymentHandler) ownedOrder(c echo.Context, p *domain.Principal, id string) (*domain.Order, error) {
	order, err := h.orders.GetOrder(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if order.UserID != p.ID && !access.Capabilities(p).Has(access.Admin) {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}
