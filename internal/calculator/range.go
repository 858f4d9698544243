package calculator

import (
	"errors"
	"math"

	"ICTSentinel/internal/model"
)

// HighLow scans the most recent lookback bars and returns the highest high and lowest low.
// A lookback <= 0 scans every bar.
func HighLow(bars []model.OHLCV, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	n := len(bars)
	start := 0
	if lookback > 0 && n > lookback {
		start = n - lookback
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// MaxHigh returns the highest high of bars.
func MaxHigh(bars []model.OHLCV) float64 {
	h, _, _ := HighLow(bars, 0)
	return h
}

// MinLow returns the lowest low of bars.
func MinLow(bars []model.OHLCV) float64 {
	_, l, _ := HighLow(bars, 0)
	return l
}
