// Package metrics exposes Prometheus metrics for allocation creation, the
// settlement lifecycle and messaging provider calls.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the settleup collectors.
type Metrics struct {
	AllocationsCreatedTotal *prometheus.CounterVec
	TransitionsTotal        *prometheus.CounterVec
	ProviderCallsTotal      *prometheus.CounterVec
	ProviderCallDuration    *prometheus.HistogramVec
}

// New returns the process-wide metrics, registering them on first use.
//
// Metrics:
//   - settleup_allocations_created_total{type} - allocations persisted per splitting mode
//   - settleup_transitions_total{transition,outcome} - lifecycle transitions attempted
//   - settleup_provider_calls_total{call,outcome} - messaging provider HTTP calls
//   - settleup_provider_call_duration_seconds{call} - provider call latency
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			AllocationsCreatedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "settleup_allocations_created_total",
					Help: "Total number of allocations created",
				},
				[]string{"type"}, // "EVEN" or "ITEMIZED"
			),
			TransitionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "settleup_transitions_total",
					Help: "Total number of settlement transitions attempted",
				},
				[]string{"transition", "outcome"}, // "request"/"complete", "ok"/"rejected"/"failed"
			),
			ProviderCallsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "settleup_provider_calls_total",
					Help: "Total number of messaging provider calls",
				},
				[]string{"call", "outcome"},
			),
			ProviderCallDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "settleup_provider_call_duration_seconds",
					Help:    "Duration of messaging provider calls in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"call"},
			),
		}
	})
	return globalMetrics
}

// RecordAllocations counts n allocations created for an expense of the given type.
func (m *Metrics) RecordAllocations(settlementType string, n int) {
	m.AllocationsCreatedTotal.WithLabelValues(settlementType).Add(float64(n))
}

// RecordTransition counts one lifecycle transition attempt.
func (m *Metrics) RecordTransition(transition, outcome string) {
	m.TransitionsTotal.WithLabelValues(transition, outcome).Inc()
}

// ObserveProviderCall records one provider call and its latency.
func (m *Metrics) ObserveProviderCall(call string, err error, d time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ProviderCallsTotal.WithLabelValues(call, outcome).Inc()
	m.ProviderCallDuration.WithLabelValues(call).Observe(d.Seconds())
}
