package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsInitiated counts payment attempts by source and type.
	PaymentsInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_initiated_total",
		Help: "Payment attempts by funding source and payment type.",
	}, []string{"source", "type"})

	// PaymentsSettled counts terminal payment transitions.
	PaymentsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_settled_total",
		Help: "Payments reaching a terminal status.",
	}, []string{"type", "status"})

	// DispatchMissingTarget counts settled payments whose related entity no
	// longer exists. A non-zero rate means payment records and business
	// entities have drifted apart.
	DispatchMissingTarget = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_dispatch_missing_target_total",
		Help: "Settled payments whose target entity could not be found.",
	}, []string{"type"})

	// WebhookEvents counts received webhook events by type and outcome.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_events_total",
		Help: "Webhook events by event type and handling outcome.",
	}, []string{"event", "outcome"})
)
