package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ExchangeRateMetrics records exchange-rate provider fetches.
type ExchangeRateMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewExchangeRateMetrics registers the fetch metrics on the provided registerer.
func NewExchangeRateMetrics(reg prometheus.Registerer) *ExchangeRateMetrics {
	if reg == nil {
		return &ExchangeRateMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "exchange_rate_fetch_duration_seconds",
		Help:    "Duration of exchange rate fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"reference"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exchange_rate_fetch_success_total",
		Help: "Successful exchange rate fetches.",
	}, []string{"reference"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exchange_rate_fetch_failure_total",
		Help: "Failed exchange rate fetches.",
	}, []string{"reference"})
	reg.MustRegister(duration, success, failure)
	return &ExchangeRateMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records how long a fetch took.
func (m *ExchangeRateMetrics) ObserveDuration(reference string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(reference)).Observe(duration.Seconds())
}

func (m *ExchangeRateMetrics) IncSuccess(reference string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(reference)).Inc()
}

func (m *ExchangeRateMetrics) IncFailure(reference string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(reference)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
