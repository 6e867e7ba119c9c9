package demo

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce       sync.Once
	sessionsCreated   prometheus.Counter
	sessionsCompleted prometheus.Counter
	sessionsSwept     prometheus.Counter
	sessionsActive    prometheus.Gauge
)

func initMetrics() {
	metricsOnce.Do(func() {
		sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "demo",
			Name:      "sessions_created_total",
			Help:      "Demo checkout sessions created",
		})
		sessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "demo",
			Name:      "sessions_completed_total",
			Help:      "Demo checkout sessions moved to complete",
		})
		sessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "demo",
			Name:      "sessions_swept_total",
			Help:      "Demo checkout sessions deleted by the janitor",
		})
		sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "demo",
			Name:      "sessions_active",
			Help:      "Demo checkout sessions currently stored, as of the last sweep",
		})
	})
}
