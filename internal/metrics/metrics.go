// Package metrics exposes Prometheus metrics for ledger units and zap activity.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elys-network/yieldzap/internal/abi"
	"github.com/elys-network/yieldzap/internal/ledger"
)

const defaultNamespace = "yieldzap"

const (
	outcomeCommitted = "committed"
	outcomeAborted   = "aborted"
)

// Metrics holds all Prometheus metrics for the application. It is both a
// ledger event sink and a unit observer.
type Metrics struct {
	registry *prometheus.Registry

	// Unit metrics
	UnitsTotal   *prometheus.CounterVec
	UnitDuration *prometheus.HistogramVec

	// Zap metrics
	ZapsCompleted      *prometheus.CounterVec
	SwapsExecuted      prometheus.Counter
	VaultDeposits      *prometheus.CounterVec
	EmergencyWithdraws prometheus.Counter
	EventsCommitted    *prometheus.CounterVec
}

var (
	_ ledger.EventSink    = (*Metrics)(nil)
	_ ledger.UnitObserver = (*Metrics)(nil)
)

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		UnitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "units_total",
			Help:      "Total number of finished units of execution by method and outcome",
		}, []string{"method", "outcome"}),
		UnitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "unit_duration_seconds",
			Help:      "Duration of units of execution",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"method"}),

		ZapsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "zap",
			Name:      "completed_total",
			Help:      "Total number of committed zaps by vault",
		}, []string{"vault"}),
		SwapsExecuted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "zap",
			Name:      "swaps_executed_total",
			Help:      "Total number of committed aggregator swaps",
		}),
		VaultDeposits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "zap",
			Name:      "vault_deposits_total",
			Help:      "Total number of committed vault deposits by vault",
		}, []string{"vault"}),
		EmergencyWithdraws: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "zap",
			Name:      "emergency_withdrawals_total",
			Help:      "Total number of committed emergency withdrawals",
		}),
		EventsCommitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "events_committed_total",
			Help:      "Total number of committed notifications by topic",
		}, []string{"topic"}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveUnit implements ledger.UnitObserver.
func (m *Metrics) ObserveUnit(o ledger.UnitOutcome) {
	outcome := outcomeCommitted
	if o.Err != nil {
		outcome = outcomeAborted
	}
	m.UnitsTotal.WithLabelValues(o.Method, outcome).Inc()
	m.UnitDuration.WithLabelValues(o.Method).Observe(o.Duration.Seconds())
}

// HandleEvents implements ledger.EventSink.
func (m *Metrics) HandleEvents(_ context.Context, events []ledger.Event) error {
	for _, e := range events {
		m.EventsCommitted.WithLabelValues(e.Topic).Inc()
		switch e.Topic {
		case abi.TopicZapCompleted:
			vault := "unknown"
			if z, err := abi.DecodeZapCompleted(e.Data); err == nil {
				vault = z.Vault.String()
			}
			m.ZapsCompleted.WithLabelValues(vault).Inc()
		case abi.TopicSwapExecuted:
			m.SwapsExecuted.Inc()
		case abi.TopicVaultDeposit:
			vault := "unknown"
			if fields, ok := e.Data.AsVec(); ok && len(fields) > 0 {
				if addr, ok := fields[0].AsAddress(); ok {
					vault = addr.String()
				}
			}
			m.VaultDeposits.WithLabelValues(vault).Inc()
		case abi.TopicEmergencyWithdraw:
			m.EmergencyWithdraws.Inc()
		}
	}
	return nil
}
