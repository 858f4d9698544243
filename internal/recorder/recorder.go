package recorder

import (
	"time"

	"ICTSentinel/internal/model"
)

// PhaseEvent is one engine diagnostic: a transition, detection, rejection or
// data-insufficiency notice.
type PhaseEvent struct {
	Time    time.Time
	Day     string
	Kind    string
	From    string
	To      string
	Price   float64
	Message string
}

// TradePlanRecord is a plan emitted by the engine together with the outcome of
// its submission.
type TradePlanRecord struct {
	Day      string
	Symbol   string
	Plan     model.TradePlan
	Accepted bool
	Error    string
}

// DaySummary is written when a trading day rolls over. Time is the bar time
// at which the day was closed.
type DaySummary struct {
	Day              string
	Time             time.Time
	FinalPhase       string
	Bias             string
	RangeHigh        float64
	RangeLow         float64
	LiquidityGrabbed bool
	RallyConfirmed   bool
	TradePlaced      bool
	Equity           float64
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordPhaseEvent(evt *PhaseEvent) error
	RecordTradePlan(rec *TradePlanRecord) error
	RecordClosedTrade(trade *model.ClosedTrade) error
	RecordDaySummary(sum *DaySummary) error
	RecentTrades(limit int) ([]model.ClosedTrade, error)
	Close() error
}
