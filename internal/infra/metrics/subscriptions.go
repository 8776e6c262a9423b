package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsExpiredTotal,
		subscriptionsByPlan,
	)
}

var (
	subscriptionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Total number of subscriptions observed past their end date by the expiry worker.",
		},
	)

	subscriptionsByPlan = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_by_plan",
			Help: "Current number of subscriptions per plan.",
		},
		[]string{"plan"},
	)
)

func IncSubscriptionsExpired(count int) {
	subscriptionsExpiredTotal.Add(float64(count))
}

func SetSubscriptionsByPlan(counts map[string]int) {
	for plan, count := range counts {
		subscriptionsByPlan.WithLabelValues(norm(plan)).Set(float64(count))
	}
}
