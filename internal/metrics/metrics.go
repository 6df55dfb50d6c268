// Package metrics registers the service's Prometheus collectors. Both the
// HTTP handlers and the background rule worker report through it.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	eventsIngested *prometheus.CounterVec
	issuesUpserted *prometheus.CounterVec
	modelRequests  *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
)

// Init registers the collectors with the default registry. Idempotent.
func Init() {
	once.Do(func() {
		eventsIngested = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "uxpulse",
				Name:      "events_ingested_total",
				Help:      "Total number of ingested usage events.",
			},
			[]string{"name", "platform"},
		)
		issuesUpserted = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "uxpulse",
				Name:      "issues_upserted_total",
				Help:      "Issue cards written by detector and impact.",
			},
			[]string{"detector", "impact"},
		)
		modelRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "uxpulse",
				Name:      "model_requests_total",
				Help:      "Foundation-model round trips by outcome.",
			},
			[]string{"outcome"},
		)
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "uxpulse",
				Name:      "http_requests_total",
				Help:      "HTTP requests served by path, method and status.",
			},
			[]string{"path", "method", "status"},
		)
		httpDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "uxpulse",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path"},
		)
		prometheus.MustRegister(eventsIngested, issuesUpserted, modelRequests, httpRequests, httpDuration)
	})
}

// EventIngested counts one stored event.
func EventIngested(name, platform string) {
	if eventsIngested != nil {
		eventsIngested.WithLabelValues(name, platform).Inc()
	}
}

// IssueUpserted counts one issue write.
func IssueUpserted(detector, impact string) {
	if issuesUpserted != nil {
		issuesUpserted.WithLabelValues(detector, impact).Inc()
	}
}

// ModelRequest counts one provider round trip ("ok" or "error").
func ModelRequest(outcome string) {
	if modelRequests != nil {
		modelRequests.WithLabelValues(outcome).Inc()
	}
}

// HTTPRequest records one served request and its latency.
func HTTPRequest(path, method, status string, seconds float64) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(path, method, status).Inc()
		httpDuration.WithLabelValues(path).Observe(seconds)
	}
}
