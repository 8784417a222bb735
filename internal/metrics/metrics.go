// Package metrics registers the Prometheus instruments exported by the
// daemon at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsProcessed counts finished jobs by disposition: completed, retry,
	// archived, deleted.
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scribe",
		Name:      "jobs_processed_total",
		Help:      "Jobs processed by final disposition.",
	}, []string{"status"})

	// TranscriptionsInFlight tracks how many transcriptions currently hold a
	// gate permit.
	TranscriptionsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "scribe",
		Name:      "transcriptions_in_flight",
		Help:      "Transcriptions currently running.",
	})

	// JobDuration observes end-to-end job processing time.
	JobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scribe",
		Name:      "job_duration_seconds",
		Help:      "End-to-end job processing duration.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	})
)
