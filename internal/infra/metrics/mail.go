package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(mailSentTotal, mailQueueDepth) }

var (
	mailSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_sent_total",
			Help: "Transactional emails by result (ok/error).",
		},
		[]string{"result"},
	)

	mailQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mail_queue_depth",
			Help: "Emails waiting in the dispatch pool.",
		},
	)
)

func IncMailSent(result string) {
	mailSentTotal.WithLabelValues(norm(result)).Inc()
}

func SetMailQueueDepth(n int) {
	mailQueueDepth.Set(float64(n))
}
