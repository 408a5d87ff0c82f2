package processor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job outcomes used as metric labels
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Metrics instruments the processor. A nil registerer creates metrics
// that are never exported.
type Metrics struct {
	JobsTotal      *prometheus.CounterVec
	JobDuration    *prometheus.HistogramVec
	JobsInFlight   prometheus.Gauge
	FocusEstimates *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		JobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "media_canvas_jobs_total",
				Help: "Total number of media jobs",
			},
			[]string{"media", "outcome"},
		),
		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "media_canvas_job_duration_seconds",
				Help:    "Media job duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"media", "backend"},
		),
		JobsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "media_canvas_jobs_in_flight",
				Help: "Number of media jobs currently being processed",
			},
		),
		FocusEstimates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "media_canvas_focus_estimates_total",
				Help: "Total number of crop focus estimates",
			},
			[]string{"estimator", "status"},
		),
	}
}

func (m *Metrics) observeJob(media, backend, outcome string, elapsed time.Duration) {
	if media == "" {
		media = "unknown"
	}
	m.JobsTotal.WithLabelValues(media, outcome).Inc()
	if outcome == OutcomeProcessed {
		m.JobDuration.WithLabelValues(media, backend).Observe(elapsed.Seconds())
	}
}
