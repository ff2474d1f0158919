// Package metrics exposes the engine's operational counters as prometheus
// collectors, served on the application's health mux.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the engine's collectors behind one private registry so
// tests and concurrent App instances never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	PointsOK       prometheus.Counter
	PointsFailed   prometheus.Counter
	StoreFailures  prometheus.Counter
	PointDurations prometheus.Histogram
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "designgrid_cache_hits_total",
			Help: "Diagnosis runs served from the cache store.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "designgrid_cache_misses_total",
			Help: "Diagnosis runs that required computation.",
		}),
		PointsOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "designgrid_points_evaluated_total",
			Help: "Design points simulated and diagnosed successfully.",
		}),
		PointsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "designgrid_points_failed_total",
			Help: "Design points whose instantiation or simulation failed.",
		}),
		StoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "designgrid_store_failures_total",
			Help: "Cache persistence failures (results were still returned).",
		}),
		PointDurations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "designgrid_point_duration_seconds",
			Help:    "Wall time of one point's simulate+diagnose computation.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	m.registry.MustRegister(
		m.CacheHits, m.CacheMisses,
		m.PointsOK, m.PointsFailed,
		m.StoreFailures, m.PointDurations,
	)
	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
