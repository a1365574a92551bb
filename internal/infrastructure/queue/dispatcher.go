package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/propnest/marketplace/internal/api/metrics"
	"github.com/propnest/marketplace/internal/core/domain"
	"github.com/propnest/marketplace/internal/core/payment"
	"github.com/propnest/marketplace/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrQueueFull is returned by Enqueue when the target worker's buffer is full.
var ErrQueueFull = errors.New("webhook queue full")

// Dispatcher applies authenticated webhooks on a fixed set of workers,
// sharded by order id so callbacks for one order are applied in arrival order.
type Dispatcher struct {
	workers []chan payment.Proof
	service ports.PaymentService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.PaymentService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan payment.Proof, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan payment.Proof, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands proof to the worker responsible for its order. It never
// blocks; a full buffer returns ErrQueueFull so the caller can ask the
// gateway to retry.
func (d *Dispatcher) Enqueue(proof payment.Proof) error {
	idx := d.shardIndex(proof.OrderID())
	select {
	case d.workers[idx] <- proof:
		metrics.WebhookQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	default:
		return ErrQueueFull
	}
}

// shardIndex maps an order id deterministically to a worker index.
func (d *Dispatcher) shardIndex(orderID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(orderID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan payment.Proof) {
	depth := metrics.WebhookQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case proof, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			if _, err := d.service.ApplyWebhook(ctx, proof); err != nil {
				ev := d.log.Error()
				if errors.Is(err, domain.ErrInvalidTransition) {
					ev = d.log.Warn()
				}
				ev.Err(err).
					Str("order_id", proof.OrderID()).
					Str("payment_id", proof.PaymentID()).
					Int("worker_id", id).
					Msg("webhook processing failed")
			}
		}
	}
}
