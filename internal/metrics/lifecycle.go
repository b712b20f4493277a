package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics counts payment transitions and times store calls. A nil
// *LifecycleMetrics is valid and records nothing.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
	storeTime   *prometheus.HistogramVec
}

// NewLifecycleMetrics registers the lifecycle metrics on reg.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_transitions_total",
		Help: "Payment lifecycle events that were applied.",
	}, []string{"event"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_transition_conflicts_total",
		Help: "Transitions rejected because the payment was not in the required state.",
	}, []string{"operation"})
	storeTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_store_duration_seconds",
		Help:    "Latency of payment store calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(transitions, conflicts, storeTime)
	return &LifecycleMetrics{
		transitions: transitions,
		conflicts:   conflicts,
		storeTime:   storeTime,
	}
}

func (m *LifecycleMetrics) IncTransition(event string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(event)).Inc()
}

func (m *LifecycleMetrics) IncConflict(operation string) {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (m *LifecycleMetrics) ObserveStore(operation string, d time.Duration) {
	if m == nil || m.storeTime == nil {
		return
	}
	m.storeTime.WithLabelValues(normalizeLabel(operation)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
