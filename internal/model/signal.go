package model

import "time"

// Bias is the directional bias of a trading day.
type Bias int

const (
	BiasUnset Bias = iota
	Bullish
	Bearish
)

func (b Bias) String() string {
	switch b {
	case Bullish:
		return "BULLISH"
	case Bearish:
		return "BEARISH"
	default:
		return "UNSET"
	}
}

// Sign returns +1 for Bullish, -1 for Bearish and 0 otherwise.
func (b Bias) Sign() float64 {
	switch b {
	case Bullish:
		return 1
	case Bearish:
		return -1
	default:
		return 0
	}
}

// FVGZone is an unfilled three-bar imbalance.
type FVGZone struct {
	Lower     float64
	Upper     float64
	Direction Bias
	Index     int // index of the first bar of the triple within the scanned window
}

// OTEZone is the 62%/79% retracement band of a swing.
type OTEZone struct {
	Fib62 float64
	Fib79 float64
}

// TradePlan is a risk-sized order plan derived from a confirmed setup.
type TradePlan struct {
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Quantity   float64
	Direction  Bias
	ATR        float64
	CreatedAt  time.Time
}

// OrderType enumerates the order kinds the engine requests.
type OrderType string

const (
	OrderMarket OrderType = "MARKET"
	OrderStop   OrderType = "STOP"
	OrderLimit  OrderType = "LIMIT"
)

// OrderRequest is one order to submit. Quantity is signed: positive buys, negative sells.
type OrderRequest struct {
	Type     OrderType
	Symbol   string
	Quantity float64
	Price    float64 // stop or limit price; zero for market orders
}

// OrderTicket bundles a trade plan with the orders that execute it.
type OrderTicket struct {
	Plan   TradePlan
	Orders []OrderRequest
}
