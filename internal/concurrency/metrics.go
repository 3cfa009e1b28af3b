package concurrency

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the set of prometheus instruments a single Limiter exports,
// grounded in the teacher's PoolMetrics (internal/infrastructure/concurrency/metrics.go).
type Metrics struct {
	inFlight     prometheus.Gauge
	panics       prometheus.Counter
	taskDuration prometheus.Observer
}

var (
	inFlightGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "interaction_pipeline_limiter_inflight",
		Help: "Number of tasks currently running inside a concurrency limiter.",
	}, []string{"limiter"})

	panicCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "interaction_pipeline_limiter_task_panics_total",
		Help: "Number of tasks that panicked inside a concurrency limiter.",
	}, []string{"limiter"})

	taskDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "interaction_pipeline_limiter_task_duration_seconds",
		Help:    "Duration of tasks run through a concurrency limiter.",
		Buckets: prometheus.DefBuckets,
	}, []string{"limiter"})
)

func init() {
	prometheus.MustRegister(inFlightGauge, panicCounter, taskDurationHistogram)
}

func newMetrics(name string) *Metrics {
	return &Metrics{
		inFlight:     inFlightGauge.WithLabelValues(name),
		panics:       panicCounter.WithLabelValues(name),
		taskDuration: taskDurationHistogram.WithLabelValues(name),
	}
}
