// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus instruments for upstream API calls and
// extraction runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes recorded by ObserveRun.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	Runs             *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	Works            prometheus.Counter
	InvalidORCIDs    prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UpstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orcid_metrics_upstream_requests_total",
			Help: "Requests sent to the ORCID, Crossref and Event Data APIs",
		}, []string{"api", "code", "method"}),
		UpstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orcid_metrics_upstream_request_duration_seconds",
			Help:    "Latency of upstream API requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"api", "code", "method"}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orcid_metrics_runs_total",
			Help: "Extraction runs by outcome",
		}, []string{"outcome"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "orcid_metrics_run_duration_seconds",
			Help:    "Wall time of extraction runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		Works: f.NewCounter(prometheus.CounterOpts{
			Name: "orcid_metrics_works_total",
			Help: "Work rows produced by extraction runs",
		}),
		InvalidORCIDs: f.NewCounter(prometheus.CounterOpts{
			Name: "orcid_metrics_invalid_orcids_total",
			Help: "Input identifiers rejected by ORCID validation",
		}),
	}
}

// Transport wraps next so every request is counted and timed under the
// given api label. next defaults to http.DefaultTransport.
func (m *Metrics) Transport(api string, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if m == nil {
		return next
	}
	l := prometheus.Labels{"api": api}
	return promhttp.InstrumentRoundTripperCounter(m.UpstreamRequests.MustCurryWith(l),
		promhttp.InstrumentRoundTripperDuration(m.UpstreamLatency.MustCurryWith(l), next))
}

// Client returns an *http.Client with an instrumented transport.
func (m *Metrics) Client(api string, timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout, Transport: m.Transport(api, nil)}
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(outcome string, works int, d time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(d.Seconds())
	m.Works.Add(float64(works))
}

// AddInvalidORCIDs counts rejected identifiers.
func (m *Metrics) AddInvalidORCIDs(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.InvalidORCIDs.Add(float64(n))
}
