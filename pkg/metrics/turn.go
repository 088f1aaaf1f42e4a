package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TurnMetrics records chat turn outcomes and orchestration retries.
type TurnMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	retries  *prometheus.CounterVec
}

// NewTurnMetrics registers the turn metrics on the provided registerer.
func NewTurnMetrics(reg prometheus.Registerer) *TurnMetrics {
	if reg == nil {
		return &TurnMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_turn_duration_seconds",
		Help:    "Duration of chat turns in seconds.",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"entrypoint"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_turn_success",
		Help: "Chat turns that produced a bot response.",
	}, []string{"entrypoint"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_turn_failure",
		Help: "Chat turns that failed after retries.",
	}, []string{"entrypoint"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "graph_node_retries",
		Help: "Graph node executions retried after an error.",
	}, []string{"node"})
	reg.MustRegister(duration, success, failure, retries)
	return &TurnMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		retries:  retries,
	}
}

// ObserveDuration records the duration of a turn handled by entrypoint.
func (m *TurnMetrics) ObserveDuration(entrypoint string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(entrypoint)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for entrypoint.
func (m *TurnMetrics) IncSuccess(entrypoint string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(entrypoint)).Inc()
}

// IncFailure increments the failure counter for entrypoint.
func (m *TurnMetrics) IncFailure(entrypoint string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(entrypoint)).Inc()
}

// IncNodeRetry counts a retried graph node execution.
func (m *TurnMetrics) IncNodeRetry(node string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(node)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
