package metrics

import "github.com/prometheus/client_golang/prometheus"

// BreakdownMetrics counts computed landed-cost breakdowns by resulting status.
type BreakdownMetrics struct {
	computed *prometheus.CounterVec
}

func NewBreakdownMetrics(reg prometheus.Registerer) *BreakdownMetrics {
	if reg == nil {
		return &BreakdownMetrics{}
	}
	computed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landed_cost_breakdowns_total",
		Help: "Landed cost breakdowns computed, partitioned by status and origin.",
	}, []string{"status", "origin"})
	reg.MustRegister(computed)
	return &BreakdownMetrics{computed: computed}
}

// IncComputed increments the counter for a breakdown status; origin is "compute" or "replay".
func (m *BreakdownMetrics) IncComputed(status, origin string) {
	if m == nil || m.computed == nil {
		return
	}
	m.computed.WithLabelValues(normalizeLabel(status), normalizeLabel(origin)).Inc()
}
