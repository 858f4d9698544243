package strategy

import "ICTSentinel/internal/model"

// Phase is the orchestrator's per-day state. Phases only move forward within a day.
type Phase int

const (
	AwaitingAsianSession Phase = iota
	TrackingAsianRange
	AwaitingLiquidityGrab
	BiasSetAwaitingRally
	RallyConfirmedAwaitingZones
	ZonesReadyAwaitingKillzone
	TradeExecuted
	NoTradeDay
)

var phaseNames = [...]string{
	"AWAITING_ASIAN_SESSION",
	"TRACKING_ASIAN_RANGE",
	"AWAITING_LIQUIDITY_GRAB",
	"BIAS_SET_AWAITING_RALLY",
	"RALLY_CONFIRMED_AWAITING_ZONES",
	"ZONES_READY_AWAITING_KILLZONE",
	"TRADE_EXECUTED",
	"NO_TRADE_DAY",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "UNKNOWN"
	}
	return phaseNames[p]
}

// Terminal reports whether the day is finished.
func (p Phase) Terminal() bool {
	return p == TradeExecuted || p == NoTradeDay
}

// DayState is the aggregate the engine rebuilds at every trading-day boundary.
type DayState struct {
	Day              string // trading day, YYYY-MM-DD
	Phase            Phase
	Range            model.Range
	Bias             model.Bias
	LiquidityGrabbed bool
	RallyConfirmed   bool
	FVG              *model.FVGZone
	OTE              *model.OTEZone
	TradePlaced      bool
	Plan             *model.TradePlan
}

func newDayState(day string) DayState {
	return DayState{Day: day, Phase: AwaitingAsianSession}
}

// clone deep-copies the pointer fields.
func (d DayState) clone() DayState {
	if d.FVG != nil {
		z := *d.FVG
		d.FVG = &z
	}
	if d.OTE != nil {
		z := *d.OTE
		d.OTE = &z
	}
	if d.Plan != nil {
		p := *d.Plan
		d.Plan = &p
	}
	return d
}
