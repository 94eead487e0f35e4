package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DipperMason/calcalc/internal/calcalc"
)

// Metrics owns a private registry so several services can coexist in tests.
type Metrics struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	failures    prometheus.Counter
	duration    *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calcalc_evaluations_total",
				Help: "Evaluations by route and whether an answer was found",
			},
			[]string{"route", "found"},
		),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "calcalc_remote_failures_total",
			Help: "Evaluations that failed on the remote path",
		}),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "calcalc_evaluation_duration_seconds",
				Help:    "Time spent in Evaluate",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
	m.registry.MustRegister(m.evaluations, m.failures, m.duration)
	return m
}

// Observe records one finished call to Evaluate.
func (m *Metrics) Observe(res calcalc.Result, err error, elapsed time.Duration) {
	route := string(res.Route)
	if route == "" {
		route = "none"
	}
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
	if err != nil {
		m.failures.Inc()
		return
	}
	found := "false"
	if res.Found {
		found = "true"
	}
	m.evaluations.WithLabelValues(route, found).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
