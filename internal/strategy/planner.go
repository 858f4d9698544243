package strategy

import (
	"errors"
	"math"

	"ICTSentinel/internal/model"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidATR is returned when the volatility scalar is not strictly positive.
	ErrInvalidATR = errors.New("atr is invalid or zero")
	// ErrDegenerateSize is returned when the sized quantity rounds to zero or below.
	ErrDegenerateSize = errors.New("order quantity is zero")
)

// PlanTrade sizes a trade so that a stop at the OTE level risks
// equity*RiskFraction, with the target RewardMultiple ATRs from entry.
func PlanTrade(price float64, bias model.Bias, ote model.OTEZone, atr, equity float64, p Params) (model.TradePlan, error) {
	if !(atr > 0) {
		return model.TradePlan{}, ErrInvalidATR
	}

	stop := ote.Fib79
	target := price - atr*p.RewardMultiple
	if bias == model.Bullish {
		stop = ote.Fib62
		target = price + atr*p.RewardMultiple
	}

	raw := equity * p.RiskFraction / math.Abs(price-stop)
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return model.TradePlan{}, ErrDegenerateSize
	}
	qty := decimal.NewFromFloat(raw).Round(2).InexactFloat64()
	if qty <= 0 {
		return model.TradePlan{}, ErrDegenerateSize
	}

	return model.TradePlan{
		Entry:      price,
		StopLoss:   stop,
		TakeProfit: target,
		Quantity:   qty,
		Direction:  bias,
		ATR:        atr,
	}, nil
}

// BuildOrders expands a plan into a market entry plus an opposing stop and an
// opposing limit.
func BuildOrders(symbol string, plan model.TradePlan) []model.OrderRequest {
	sign := plan.Direction.Sign()
	return []model.OrderRequest{
		{Type: model.OrderMarket, Symbol: symbol, Quantity: sign * plan.Quantity},
		{Type: model.OrderStop, Symbol: symbol, Quantity: -sign * plan.Quantity, Price: plan.StopLoss},
		{Type: model.OrderLimit, Symbol: symbol, Quantity: -sign * plan.Quantity, Price: plan.TakeProfit},
	}
}
