package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		downloadsTotal,
		downloadsDenied,
		downloadBytes,
	)
}

var (
	downloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloads_total",
			Help: "Completed product downloads per plan tier.",
		},
		[]string{"tier"},
	)

	downloadsDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "downloads_denied_total",
			Help: "Entitlement denials by reason (no_subscription/expired/tier/quota/no_file).",
		},
		[]string{"reason"},
	)

	downloadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "download_bytes_total",
			Help: "Total bytes streamed to subscribers.",
		},
	)
)

func IncDownload(tier string) {
	downloadsTotal.WithLabelValues(norm(tier)).Inc()
}

func IncDownloadDenied(reason string) {
	downloadsDenied.WithLabelValues(norm(reason)).Inc()
}

func AddDownloadBytes(n int64) {
	if n > 0 {
		downloadBytes.Add(float64(n))
	}
}
