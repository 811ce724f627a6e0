// Package metrics exposes the engine's Prometheus instrumentation:
//
//   - arbiter_cycles_total{symbol}         – evaluated cycles
//   - arbiter_actions_total{symbol,action} – selected actions (NO_ACTION included)
//   - arbiter_discards_total{symbol,reason} – discarded mandates by reason
//   - arbiter_halts_total{symbol}          – terminal upstream halts
//   - arbiter_position_quantity{symbol}    – current position quantity (gauge)
//   - arbiter_aggregate_exposure           – account-wide notional (gauge)
//
// Served in Prometheus text exposition format at /metrics by the HTTP
// handler started in main.go.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cryptoArbiterBot/internal/domain"
)

// Metrics bundles the engine's collectors around one registry.
type Metrics struct {
	registry *prometheus.Registry

	cycles      *prometheus.CounterVec
	actions     *prometheus.CounterVec
	discards    *prometheus.CounterVec
	halts       *prometheus.CounterVec
	positionQty *prometheus.GaugeVec
	exposure    prometheus.Gauge
}

// New creates and registers the engine collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbiter_cycles_total",
				Help: "Evaluated cycles",
			},
			[]string{"symbol"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbiter_actions_total",
				Help: "Selected actions per cycle",
			},
			[]string{"symbol", "action"},
		),
		discards: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbiter_discards_total",
				Help: "Discarded mandates by reason",
			},
			[]string{"symbol", "reason"},
		),
		halts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbiter_halts_total",
				Help: "Terminal upstream halts",
			},
			[]string{"symbol"},
		),
		positionQty: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arbiter_position_quantity",
				Help: "Current position quantity",
			},
			[]string{"symbol"},
		),
		exposure: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "arbiter_aggregate_exposure",
				Help: "Account-wide notional exposure in quote currency",
			},
		),
	}
	m.registry.MustRegister(m.cycles, m.actions, m.discards, m.halts, m.positionQty, m.exposure)
	return m
}

// ObserveResult records one cycle's arbitration outcome.
func (m *Metrics) ObserveResult(res *domain.ArbitrationResult) {
	m.cycles.WithLabelValues(res.Symbol).Inc()
	m.actions.WithLabelValues(res.Symbol, string(res.SelectedAction)).Inc()
	for _, d := range res.Discarded {
		m.discards.WithLabelValues(res.Symbol, string(d.Reason)).Inc()
	}
}

// ObservePosition updates the position quantity gauge.
func (m *Metrics) ObservePosition(pos *domain.Position) {
	m.positionQty.WithLabelValues(pos.Symbol).Set(pos.Quantity)
}

// ObserveExposure updates the aggregate exposure gauge.
func (m *Metrics) ObserveExposure(notional float64) {
	m.exposure.Set(notional)
}

// ObserveHalt counts a terminal halt for a symbol.
func (m *Metrics) ObserveHalt(symbol string) {
	m.halts.WithLabelValues(symbol).Inc()
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
