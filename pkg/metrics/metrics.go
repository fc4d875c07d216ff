// Package metrics exposes prometheus metrics for the transcription pipeline.
// They are registered on the default registry, which is what the HTTP
// metrics endpoint serves.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voxscribe"

type Metrics struct {
	JobsTotal   *prometheus.CounterVec
	JobsActive  prometheus.Gauge
	JobDuration *prometheus.HistogramVec

	StageDuration *prometheus.HistogramVec

	UtterancesRecognized prometheus.Counter
	PartialResults       prometheus.Counter
	SessionCancellations *prometheus.CounterVec

	FetchedBytes prometheus.Counter

	EventsPublished *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

func NewMetrics() *Metrics {
	return &Metrics{
		JobsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Transcription jobs by outcome kind (ok or an error kind)",
		}, []string{"outcome"}),
		JobsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_active",
			Help:      "Transcription jobs currently running",
		}),
		JobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "End to end duration of a transcription job",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800},
		}, []string{"outcome"}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of a single pipeline stage",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 300, 900},
		}, []string{"stage"}),
		UtterancesRecognized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_recognized_total",
			Help:      "Finalized utterances appended to transcripts",
		}),
		PartialResults: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_results_total",
			Help:      "Partial hypotheses received from the recognition service",
		}),
		SessionCancellations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_cancellations_total",
			Help:      "Recognition sessions that ended abnormally",
		}, []string{"reason"}),
		FetchedBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetched_bytes_total",
			Help:      "Bytes downloaded from source urls",
		}),
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Transcription events published to NATS",
		}, []string{"event", "status"}),
	}
}

func (m *Metrics) RecordJobStarted() {
	m.JobsActive.Inc()
}

func (m *Metrics) RecordJobFinished(outcome string, d time.Duration) {
	m.JobsActive.Dec()
	m.JobsTotal.WithLabelValues(outcome).Inc()
	m.JobDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) RecordStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) RecordUtterance() {
	m.UtterancesRecognized.Inc()
}

func (m *Metrics) RecordPartial() {
	m.PartialResults.Inc()
}

func (m *Metrics) RecordCancellation(reason string) {
	m.SessionCancellations.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordFetchedBytes(n int64) {
	if n > 0 {
		m.FetchedBytes.Add(float64(n))
	}
}

func (m *Metrics) RecordEventPublished(event string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EventsPublished.WithLabelValues(event, status).Inc()
}
