// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Preview fetch outcomes.
const (
	PreviewHit    = "hit"
	PreviewMiss   = "miss"
	PreviewOK     = "ok"
	PreviewFailed = "failed"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mibands_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mibands_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mibands_http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	PreviewFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mibands_preview_fetch_total",
			Help: "Website preview lookups by outcome",
		},
		[]string{"outcome"}, // hit, miss, ok, failed
	)

	PreviewFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mibands_preview_fetch_duration_seconds",
			Help:    "Duration of website preview fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3},
		},
	)

	BandWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mibands_band_writes_total",
			Help: "Band create and update operations by result",
		},
		[]string{"operation", "result"},
	)

	SignInsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mibands_sign_ins_total",
			Help: "Sign-in attempts by method and result",
		},
		[]string{"method", "result"},
	)
)

// RecordHTTPRequest records a served request.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// RecordPreview counts a preview lookup outcome.
func RecordPreview(outcome string) {
	PreviewFetchTotal.WithLabelValues(outcome).Inc()
}

// RecordPreviewFetch observes a network fetch and counts it as ok or failed.
func RecordPreviewFetch(duration time.Duration, ok bool) {
	PreviewFetchDuration.Observe(duration.Seconds())
	if ok {
		RecordPreview(PreviewOK)
	} else {
		RecordPreview(PreviewFailed)
	}
}

// RecordBandWrite counts a band create or update.
func RecordBandWrite(operation string, err error) {
	BandWritesTotal.WithLabelValues(operation, result(err)).Inc()
}

// RecordSignIn counts a sign-in attempt.
func RecordSignIn(method string, err error) {
	SignInsTotal.WithLabelValues(method, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
