package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	absenceMailTotal     *prometheus.CounterVec
	importRowsTotal      *prometheus.CounterVec
	proofUploadsRejected *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendly_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attendly_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendly_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		absenceMailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendly_absence_mail_total",
			Help: "Absence notification mail attempts by outcome.",
		}, []string{"outcome"})

		importRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendly_import_rows_total",
			Help: "CSV student import rows by outcome.",
		}, []string{"outcome"})

		proofUploadsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendly_proof_uploads_rejected_total",
			Help: "Exception proof uploads rejected during validation.",
		}, []string{"reason"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			absenceMailTotal,
			importRowsTotal,
			proofUploadsRejected,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// AbsenceMail exposes the counter for absence notification attempts.
func AbsenceMail() *prometheus.CounterVec {
	RegisterMetrics()
	return absenceMailTotal
}

// ImportRows exposes the counter for CSV import row outcomes.
func ImportRows() *prometheus.CounterVec {
	RegisterMetrics()
	return importRowsTotal
}

// ProofUploadRejected exposes the counter for rejected proof uploads.
func ProofUploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return proofUploadsRejected
}
