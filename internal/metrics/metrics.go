// Package metrics exposes Prometheus collectors for remote API usage and
// analysis runs.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	remoteRequests *prometheus.CounterVec
	remoteLatency  *prometheus.HistogramVec
	enrichmentGaps *prometheus.CounterVec
	runs           *prometheus.CounterVec
	batchSize      prometheus.Histogram
}

// MustNewMetrics constructs a Metrics instance registered with reg. It panics
// on duplicate registration, so callers needing several instances must pass
// distinct registries.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		remoteRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portfolio",
				Subsystem: "github",
				Name:      "requests_total",
				Help:      "Requests issued to the GitHub API by resource and response status.",
			},
			[]string{"resource", "status"},
		),
		remoteLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "portfolio",
				Subsystem: "github",
				Name:      "request_duration_seconds",
				Help:      "Latency of GitHub API requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"resource"},
		),
		enrichmentGaps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portfolio",
				Subsystem: "enricher",
				Name:      "gaps_total",
				Help:      "Per-repository lookups that failed and were absorbed.",
			},
			[]string{"resource"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "portfolio",
				Subsystem: "analysis",
				Name:      "runs_total",
				Help:      "Analysis runs by final phase.",
			},
			[]string{"phase", "outcome"},
		),
		batchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "portfolio",
				Subsystem: "enricher",
				Name:      "batch_size",
				Help:      "Number of repositories enriched per batch.",
				Buckets:   prometheus.LinearBuckets(1, 1, 10),
			},
		),
	}
	reg.MustRegister(m.remoteRequests, m.remoteLatency, m.enrichmentGaps, m.runs, m.batchSize)
	return m
}

// ObserveRequest records one GitHub API call. status is 0 for transport failures.
func (m *Metrics) ObserveRequest(resource string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.remoteRequests.WithLabelValues(resource, strconv.Itoa(status)).Inc()
	m.remoteLatency.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// IncGap records an absorbed enrichment failure.
func (m *Metrics) IncGap(resource string) {
	if m == nil {
		return
	}
	m.enrichmentGaps.WithLabelValues(resource).Inc()
}

// ObserveBatch records the size of an enrichment batch.
func (m *Metrics) ObserveBatch(size int) {
	if m == nil {
		return
	}
	m.batchSize.Observe(float64(size))
}

// IncRun records the end of an analysis run.
func (m *Metrics) IncRun(phase string, ok bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "ok"
	}
	m.runs.WithLabelValues(phase, outcome).Inc()
}
