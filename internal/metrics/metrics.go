// Package metrics defines the Prometheus instruments for the submission
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service-level instruments.
type Metrics struct {
	SubmissionsAccepted prometheus.Counter
	SubmissionsRejected *prometheus.CounterVec
	ProcessDuration     prometheus.Histogram
	ProofDuration       prometheus.Histogram
}

// New registers the instruments on the default registry.
func New() *Metrics {
	return &Metrics{
		SubmissionsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zkreview_submissions_accepted_total",
			Help: "Number of review submissions accepted",
		}),
		SubmissionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zkreview_submissions_rejected_total",
			Help: "Number of review submissions rejected, by reason",
		}, []string{"reason"}),
		ProcessDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "zkreview_process_duration_seconds",
			Help:    "Latency of the privacy-transform pipeline",
			Buckets: prometheus.DefBuckets,
		}),
		ProofDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "zkreview_proof_duration_seconds",
			Help:    "Latency of Groth16 proof generation",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}
