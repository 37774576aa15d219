package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_received_total",
		Help: "Total number of provider webhook callbacks received",
	}, []string{"provider", "flow"})

	WebhooksDuplicateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_duplicate_total",
		Help: "Total number of callbacks short-circuited by the idempotency guard",
	}, []string{"provider"})

	WebhooksUnhandledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_unhandled_total",
		Help: "Total number of callbacks acknowledged with an unhandled status",
	}, []string{"provider"})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created by the fan-out engine",
	})

	ReconcileMismatchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_mismatch_total",
		Help: "Total number of callbacks rejected by the reconciliation check",
	})

	ClinicCreditsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clinic_credits_total",
		Help: "Total number of clinic balance credits applied",
	})

	WithdrawalTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "withdrawal_transitions_total",
		Help: "Total number of withdrawal state transitions",
	}, []string{"to"})

	SideEffectFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "side_effect_failures_total",
		Help: "Total number of failed best-effort side effects",
	}, []string{"effect"})

	OperatorAlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "operator_alerts_total",
		Help: "Total number of operator alerts raised",
	}, []string{"kind"})

	WebhookProcessingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_processing_latency_seconds",
		Help:    "Latency of webhook callback processing",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "flow"})
)
