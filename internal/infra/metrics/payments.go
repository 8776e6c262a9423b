package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		checkoutSessionsTotal,
		webhookEventsTotal,
	)
}

var (
	checkoutSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sessions_total",
			Help: "Hosted checkout sessions by outcome (created/completed/failed).",
		},
		[]string{"outcome"},
	)

	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Stripe webhook events by type and result (handled/duplicate/error).",
		},
		[]string{"type", "result"},
	)
)

func IncCheckoutSession(outcome string) {
	checkoutSessionsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncWebhookEvent(eventType, result string) {
	webhookEventsTotal.WithLabelValues(norm(eventType), norm(result)).Inc()
}
