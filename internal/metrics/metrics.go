// Package metrics provides Prometheus instrumentation for vidconv. All metrics
// are prefixed with "vidconv_".
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversion metrics
var (
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidconv_conversions_total",
			Help: "Total number of file conversions by outcome",
		},
		[]string{"status"}, // "success", "failure"
	)

	ConversionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vidconv_conversion_duration_seconds",
			Help:    "Wall time of a single file conversion",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	OutputBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidconv_output_bytes_total",
			Help: "Total bytes produced by successful conversions",
		},
	)

	BatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidconv_batches_total",
			Help: "Total number of conversion batches started",
		},
	)

	EngineLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidconv_engine_loads_total",
			Help: "Engine load attempts by outcome",
		},
		[]string{"status"},
	)
)

// Blob store metrics
var (
	LiveBlobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidconv_blobs_live",
			Help: "Number of result blobs held and not yet released",
		},
	)

	LiveBlobBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidconv_blob_bytes_live",
			Help: "Bytes held by unreleased result blobs",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidconv_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidconv_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidconv_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Status maps an error to a status label.
func Status(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}
