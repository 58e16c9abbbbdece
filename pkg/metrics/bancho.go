package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BanchoMetrics contains the protocol server's own request and session
// counters.
type BanchoMetrics struct {
	LoginAttemptsTotal *prometheus.CounterVec
	LoginFailuresTotal *prometheus.CounterVec
	LoginDuration      prometheus.Histogram

	SessionsActive     prometheus.Gauge
	PacketsHandled     *prometheus.CounterVec
	PacketsUnknown     prometheus.Counter

	MatchesActive prometheus.Gauge
}

// NewBanchoMetrics creates and registers the protocol server metrics.
func NewBanchoMetrics(namespace string) *BanchoMetrics {
	return &BanchoMetrics{
		LoginAttemptsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "login",
			Name:      "attempts_total",
			Help:      "Total number of login attempts",
		}, []string{"result"}),
		LoginFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "login",
			Name:      "failures_total",
			Help:      "Total number of rejected login attempts by reason",
		}, []string{"reason"}),
		LoginDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "login",
			Name:      "duration_seconds",
			Help:      "Time spent assembling the login welcome stream",
			Buckets:   prometheus.DefBuckets,
		}),

		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Number of currently logged-in sessions",
		}),
		PacketsHandled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "packets",
			Name:      "handled_total",
			Help:      "Total number of client packets dispatched to a handler",
		}, []string{"packet"}),
		PacketsUnknown: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "packets",
			Name:      "unknown_total",
			Help:      "Total number of packets with no registered handler",
		}),

		MatchesActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "matches",
			Name:      "active",
			Help:      "Number of multiplayer matches currently in progress",
		}),
	}
}
