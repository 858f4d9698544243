package model

import "time"

// Position is the single open position of the paper account.
type Position struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Direction  Bias      `json:"direction"`
	Quantity   float64   `json:"quantity"` // unsigned
	Entry      float64   `json:"entry"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	OpenedAt   time.Time `json:"opened_at"`
}

// ClosedTrade is a position closed by a stop or target fill.
type ClosedTrade struct {
	Position Position  `json:"position"`
	Exit     float64   `json:"exit"`
	PnL      float64   `json:"pnl"`
	Reason   string    `json:"reason"` // "STOP_LOSS" or "TAKE_PROFIT"
	ClosedAt time.Time `json:"closed_at"`
}

// AccountState tracks the paper account.
type AccountState struct {
	InitialEquity float64   `json:"initial_equity"`
	Equity        float64   `json:"equity"`
	RealizedPnL   float64   `json:"realized_pnl"`
	Open          *Position `json:"open,omitempty"`
	ClosedTrades  int       `json:"closed_trades"`
	Wins          int       `json:"wins"`
	UpdatedAt     time.Time `json:"updated_at"`
}
