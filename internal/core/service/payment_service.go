package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/propnest/marketplace/internal/api/metrics"
	"github.com/propnest/marketplace/internal/core/domain"
	"github.com/propnest/marketplace/internal/core/payment"
	"github.com/propnest/marketplace/internal/core/ports"
)

// PaymentService applies payment completions to orders. A completion is
// only trusted once the signature verifier has issued a Proof for it.
type PaymentService struct {
	verifier *payment.SignatureVerifier
	orders   ports.OrderRepository
	subs     ports.SubscriptionRepository
	events   ports.PaymentEventRepository
	dedup    ports.CallbackDedup
	log      zerolog.Logger
	now      func() time.Time
}

func NewPaymentService(
	verifier *payment.SignatureVerifier,
	orders ports.OrderRepository,
	subs ports.SubscriptionRepository,
	events ports.PaymentEventRepository,
	dedup ports.CallbackDedup,
	log zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		verifier: verifier,
		orders:   orders,
		subs:     subs,
		events:   events,
		dedup:    dedup,
		log:      log,
		now:      time.Now,
	}
}

// Confirm verifies a checkout completion and moves the order to verified.
// An invalid signature marks the order failed and returns
// domain.ErrSignatureInvalid; it is never retried.
func (s *PaymentService) Confirm(ctx context.Context, in ports.ConfirmInput) (*domain.Order, error) {
	if in.Source == "" {
		in.Source = domain.SourceClientConfirm
	}

	proof, err := s.verifier.Authenticate(in.OrderID, in.PaymentID, in.Signature)
	if err != nil {
		if errors.Is(err, domain.ErrSignatureInvalid) {
			s.reject(ctx, in.OrderID, in.PaymentID, in.Source)
			return nil, domain.ErrSignatureInvalid
		}
		return nil, err
	}
	return s.apply(ctx, proof, in.Source)
}

// ApplyWebhook applies a completion whose webhook body was already
// authenticated.
func (s *PaymentService) ApplyWebhook(ctx context.Context, proof payment.Proof) (*domain.Order, error) {
	if !proof.Valid() {
		return nil, domain.ErrSignatureInvalid
	}
	return s.apply(ctx, proof, domain.SourceWebhook)
}

// RejectWebhook records a webhook that failed authentication. The order it
// names is left untouched.
func (s *PaymentService) RejectWebhook(ctx context.Context, orderID, paymentID string) {
	s.reject(ctx, orderID, paymentID, domain.SourceWebhook)
}

func (s *PaymentService) apply(ctx context.Context, proof payment.Proof, source domain.PaymentEventSource) (*domain.Order, error) {
	orderID, paymentID := proof.OrderID(), proof.PaymentID()

	// 1. The dedup key only labels the duplicate metric. The order status
	// alone decides whether this callback is applied, so a stale or lost
	// key can neither skip nor repeat a transition.
	isDup, err := s.dedup.IsDuplicate(ctx, orderID, paymentID)
	if err != nil {
		s.log.Warn().Err(err).Str("order_id", orderID).Msg("dedup check failed, processing anyway")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}

	if order.Status == domain.OrderVerified {
		return s.duplicate(ctx, order, paymentID, source, isDup)
	}
	if order.Status == domain.OrderFailed {
		return nil, fmt.Errorf("confirm payment: %w (order %s is failed)", domain.ErrInvalidTransition, orderID)
	}

	// 2. created -> paid.
	if order.Status == domain.OrderCreated {
		order, err = s.orders.MarkPaid(ctx, orderID, paymentID)
		if err != nil {
			if order, err = s.lostRace(ctx, orderID, err); err != nil {
				return nil, err
			}
			if order.Status == domain.OrderVerified {
				return s.duplicate(ctx, order, paymentID, source, true)
			}
		}
	}

	// 3. paid -> verified, only with a proof.
	order, err = s.orders.MarkVerified(ctx, proof)
	if err != nil {
		if order, err = s.lostRace(ctx, orderID, err); err != nil {
			return nil, err
		}
		if order.Status == domain.OrderVerified {
			return s.duplicate(ctx, order, paymentID, source, true)
		}
		return nil, fmt.Errorf("confirm payment: %w (order %s is %s)", domain.ErrInvalidTransition, orderID, order.Status)
	}

	if markErr := s.dedup.Mark(ctx, orderID, paymentID); markErr != nil {
		s.log.Warn().Err(markErr).Str("order_id", orderID).Msg("failed to set dedup key")
	}

	s.audit(ctx, orderID, paymentID, source, domain.OutcomeVerified)
	metrics.PaymentVerificationsTotal.WithLabelValues(string(source), "verified").Inc()
	s.log.Info().
		Str("order_id", orderID).
		Str("payment_id", paymentID).
		Str("source", string(source)).
		Msg("payment verified")

	if err := s.activate(ctx, order); err != nil {
		return order, err
	}
	return order, nil
}

// lostRace reloads the order after a conditional update matched nothing.
func (s *PaymentService) lostRace(ctx context.Context, orderID string, cause error) (*domain.Order, error) {
	if !errors.Is(cause, domain.ErrInvalidTransition) {
		return nil, fmt.Errorf("confirm payment: %w", cause)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}
	return order, nil
}

func (s *PaymentService) duplicate(ctx context.Context, order *domain.Order, paymentID string, source domain.PaymentEventSource, seen bool) (*domain.Order, error) {
	result := "miss"
	if seen {
		result = "hit"
	}
	metrics.PaymentCallbackDedupTotal.WithLabelValues(result).Inc()
	s.log.Debug().Str("order_id", order.ID).Str("payment_id", paymentID).Msg("duplicate payment callback skipped")
	s.audit(ctx, order.ID, paymentID, source, domain.OutcomeDuplicate)

	if err := s.activate(ctx, order); err != nil {
		return order, err
	}
	return order, nil
}

func (s *PaymentService) reject(ctx context.Context, orderID, paymentID string, source domain.PaymentEventSource) {
	metrics.PaymentVerificationsTotal.WithLabelValues(string(source), "rejected").Inc()
	s.log.Warn().
		Str("event", "payment_signature_rejected").
		Str("order_id", orderID).
		Str("payment_id", paymentID).
		Str("source", string(source)).
		Msg("payment signature verification failed")

	if orderID != "" && source != domain.SourceWebhook {
		if _, err := s.orders.MarkFailed(ctx, orderID); err != nil &&
			!errors.Is(err, domain.ErrOrderNotFound) && !errors.Is(err, domain.ErrInvalidTransition) {
			s.log.Error().Err(err).Str("order_id", orderID).Msg("failed to mark order failed")
		}
	}
	s.audit(ctx, orderID, paymentID, source, domain.OutcomeRejected)
}

func (s *PaymentService) activate(ctx context.Context, order *domain.Order) error {
	sub, ok := domain.SubscriptionFor(order, s.now().UTC())
	if !ok {
		return nil
	}
	if err := s.subs.Activate(ctx, sub); err != nil {
		s.log.Error().Err(err).Str("order_id", order.ID).Msg("subscription activation failed")
		return fmt.Errorf("activate subscription: %w", err)
	}
	return nil
}

// audit is best effort; the order status is the record of truth.
func (s *PaymentService) audit(ctx context.Context, orderID, paymentID string, source domain.PaymentEventSource, outcome domain.PaymentOutcome) {
	ev := domain.NewPaymentEvent(orderID, paymentID, source, outcome, s.now())
	if err := s.events.InsertEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("order_id", orderID).Msg("failed to insert payment audit event")
	}
}
