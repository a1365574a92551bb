// Package metrics defines and registers all custom Prometheus metrics for the
// marketplace API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry at package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Session metrics ───────────────────────────────────────────────────────────

// AuthLoginsTotal counts login attempts.
// Label:
//   - result: "success", "bad_password" or "unknown_user"
var AuthLoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RoleGrantsTotal counts role grant requests.
// Labels:
//   - role: the requested role
//   - result: "granted", "refused" or "error"
var RoleGrantsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_grants_total",
		Help:      "Total number of role grant requests, by role and result.",
	},
	[]string{"role", "result"},
)

// AccessDeniedTotal counts requests rejected by the access middleware.
// Label:
//   - reason: "authentication_required" or "authorization_denied"
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Total number of requests denied by session or role checks.",
	},
	[]string{"reason"},
)

// ── Payment metrics ───────────────────────────────────────────────────────────

// PaymentOrdersCreatedTotal counts orders created with the gateway.
// Label:
//   - currency: ISO 4217 code
var PaymentOrdersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_orders_created_total",
		Help:      "Total number of payment orders created, by currency.",
	},
	[]string{"currency"},
)

// PaymentVerificationsTotal counts signature verification outcomes.
// Labels:
//   - source: "client_confirm" or "webhook"
//   - result: "verified" or "rejected"
var PaymentVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_verifications_total",
		Help:      "Total number of payment signature checks, by source and result.",
	},
	[]string{"source", "result"},
)

// PaymentCallbackDedupTotal counts callbacks for orders that were already verified.
// Label:
//   - result: "hit" (dedup key present) or "miss" (caught by order status)
var PaymentCallbackDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_callback_dedup_total",
		Help:      "Total number of duplicate payment callbacks, labelled by how they were caught.",
	},
	[]string{"result"},
)

// WebhookQueueDepth tracks the current number of webhooks waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var WebhookQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "webhook_queue_depth",
		Help:      "Current number of webhooks pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// GatewayRequestDuration measures calls to the payment gateway.
// Labels:
//   - operation: e.g. "create_order"
//   - outcome: "ok" or "error"
var GatewayRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of payment gateway requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation", "outcome"},
)
