// Package metrics exposes Prometheus instruments for the engine:
//
//	ict_bars_processed_total                – bars fed to the engine
//	ict_phase_transitions_total{phase}      – transitions by target phase
//	ict_detections_total{kind}              – grab, rally, zones, plan detections
//	ict_trade_plans_total{direction}        – trade plans emitted
//	ict_plan_rejections_total{reason}       – planner rejections (invalid_atr, degenerate_size)
//	ict_orders_total{type,result}           – order submissions
//	ict_closed_trades_total{reason}         – stop and target fills
//	ict_equity                              – paper account equity
//
// Instruments are registered in init() and served at /metrics by cmd/bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BarsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ict_bars_processed_total",
			Help: "Bars processed by the engine",
		},
	)

	PhaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ict_phase_transitions_total",
			Help: "Phase transitions by target phase",
		},
		[]string{"phase"},
	)

	Detections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ict_detections_total",
			Help: "Pattern detections by kind",
		},
		[]string{"kind"},
	)

	TradePlans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ict_trade_plans_total",
			Help: "Trade plans emitted by direction",
		},
		[]string{"direction"},
	)

	PlanRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ict_plan_rejections_total",
			Help: "Trade plans rejected by the planner",
		},
		[]string{"reason"},
	)

	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ict_orders_total",
			Help: "Orders submitted by type and result",
		},
		[]string{"type", "result"},
	)

	ClosedTrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ict_closed_trades_total",
			Help: "Closed trades by exit reason",
		},
		[]string{"reason"},
	)

	Equity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ict_equity",
			Help: "Paper account equity",
		},
	)
)

func init() {
	prometheus.MustRegister(
		BarsProcessed,
		PhaseTransitions,
		Detections,
		TradePlans,
		PlanRejections,
		Orders,
		ClosedTrades,
		Equity,
	)
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
