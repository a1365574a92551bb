package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/propnest/marketplace/internal/api/metrics"
	"github.com/propnest/marketplace/internal/core/domain"
	"github.com/propnest/marketplace/internal/core/ports"
)

const (
	maxReceiptLength = 40
	maxNotes         = 15
)

// OrderService creates payment orders with the gateway.
type OrderService struct {
	gateway ports.Gateway
	repo    ports.OrderRepository
	log     zerolog.Logger
}

// NewOrderService returns an OrderService. gateway is nil when credentials
// are not configured; every CreateOrder call then fails with a
// ConfigurationError.
func NewOrderService(gateway ports.Gateway, repo ports.OrderRepository, log zerolog.Logger) *OrderService {
	return &OrderService{gateway: gateway, repo: repo, log: log}
}

// CreateOrder converts the major-unit amount to minor units and creates the
// order with the gateway. A live order already on file for the same receipt
// is returned as is.
func (s *OrderService) CreateOrder(ctx context.Context, in ports.CreateOrderInput) (*domain.Order, error) {
	if s.gateway == nil {
		return nil, &domain.ConfigurationError{Component: "gateway", Missing: []string{"GATEWAY_KEY_ID", "GATEWAY_KEY_SECRET"}}
	}

	receipt := strings.TrimSpace(in.Receipt)
	if receipt == "" || len(receipt) > maxReceiptLength {
		return nil, fmt.Errorf("%w: receipt must be 1-%d characters", domain.ErrInvalidOrder, maxReceiptLength)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be an ISO 4217 code", domain.ErrInvalidOrder)
	}
	if len(in.Notes) > maxNotes {
		return nil, fmt.Errorf("%w: at most %d notes", domain.ErrInvalidOrder, maxNotes)
	}

	amount, err := domain.ToMinorUnits(in.Amount, currency)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByReceipt(ctx, receipt)
	switch {
	case err == nil:
		if existing.UserID != in.UserID || existing.Amount != amount || existing.Currency != currency {
			return nil, fmt.Errorf("%w: receipt %s already used for a different amount", domain.ErrInvalidOrder, receipt)
		}
		s.log.Info().Str("receipt", receipt).Str("order_id", existing.ID).Msg("idempotent replay")
		return existing, nil
	case !errors.Is(err, domain.ErrOrderNotFound):
		return nil, err
	}

	notes := make(map[string]string, len(in.Notes)+1)
	for k, v := range in.Notes {
		notes[k] = v
	}
	if in.UserID != "" {
		notes[domain.NoteUserID] = in.UserID
	}

	start := time.Now()
	gw, err := s.gateway.CreateOrder(ctx, ports.GatewayOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		metrics.GatewayRequestDuration.WithLabelValues("create_order", "error").Observe(time.Since(start).Seconds())
		s.log.Error().Err(err).Str("receipt", receipt).Msg("gateway order creation failed")
		return nil, fmt.Errorf("create gateway order: %w", err)
	}
	metrics.GatewayRequestDuration.WithLabelValues("create_order", "ok").Observe(time.Since(start).Seconds())

	if gw.Amount != amount {
		return nil, fmt.Errorf("create gateway order: %w: gateway recorded %d, requested %d",
			domain.ErrGatewayUnavailable, gw.Amount, amount)
	}

	now := time.Now().UTC()
	created := gw.CreatedAt
	if created.IsZero() {
		created = now
	}
	order := &domain.Order{
		ID:        gw.ID,
		UserID:    in.UserID,
		Amount:    amount,
		Currency:  currency,
		Receipt:   receipt,
		Status:    domain.OrderCreated,
		Notes:     notes,
		CreatedAt: created.UTC(),
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		if errors.Is(err, domain.ErrOrderExists) {
			return s.concurrentCreate(ctx, order)
		}
		s.log.Error().Err(err).Str("order_id", order.ID).Msg("failed to store order")
		return nil, err
	}

	metrics.PaymentOrdersCreatedTotal.WithLabelValues(currency).Inc()
	s.log.Info().Str("order_id", order.ID).Str("receipt", receipt).Int64("amount", int64(amount)).Msg("payment order created")
	return order, nil
}

// concurrentCreate handles a create that lost the insert race to another
// request for the same receipt: the gateway returned the same order id, so the
// stored order is the answer if it describes the same purchase.
func (s *OrderService) concurrentCreate(ctx context.Context, want *domain.Order) (*domain.Order, error) {
	existing, err := s.repo.FindByID(ctx, want.ID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != want.UserID || existing.Amount != want.Amount || existing.Currency != want.Currency {
		return nil, fmt.Errorf("%w: receipt %s already used for a different amount", domain.ErrInvalidOrder, want.Receipt)
	}
	s.log.Info().Str("receipt", want.Receipt).Str("order_id", existing.ID).Msg("concurrent create resolved to stored order")
	return existing, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.FindByID(ctx, id)
}
