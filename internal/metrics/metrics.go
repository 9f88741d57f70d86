// Package metrics exposes Prometheus instrumentation for synthesis sessions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sonicstream"

// Metrics contains all Prometheus metrics for streaming sessions. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	SessionsFinished  *prometheus.CounterVec
	ChunksSent        prometheus.Counter
	ContainersEmitted prometheus.Counter
	AudioBytes        prometheus.Counter
	SessionDuration   prometheus.Histogram
}

// New creates the session metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of streaming sessions started",
		}),
		SessionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finished_total",
			Help:      "Total number of streaming sessions finished, by terminal status",
		}, []string{"status"}),
		ChunksSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_sent_total",
			Help:      "Total number of transcript chunks sent",
		}),
		ContainersEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "containers_emitted_total",
			Help:      "Total number of audio containers forwarded to callers",
		}),
		AudioBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_total",
			Help:      "Total PCM bytes embedded in forwarded containers",
		}),
		SessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall time from session start to terminal status",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2 minutes
		}),
	}
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

func (m *Metrics) ChunkSent() {
	if m == nil {
		return
	}
	m.ChunksSent.Inc()
}

func (m *Metrics) ContainerEmitted(pcmBytes int) {
	if m == nil {
		return
	}
	m.ContainersEmitted.Inc()
	m.AudioBytes.Add(float64(pcmBytes))
}

// SessionFinished records the terminal state and total session time.
func (m *Metrics) SessionFinished(state string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SessionsFinished.WithLabelValues(state).Inc()
	m.SessionDuration.Observe(elapsed.Seconds())
}
