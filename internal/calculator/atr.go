package calculator

import (
	"errors"
	"math"

	"ICTSentinel/internal/model"
)

// TrueRanges returns the true range of every bar after the first.
func TrueRanges(bars []model.OHLCV) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		tr := math.Max(bars[i].High-bars[i].Low,
			math.Max(math.Abs(bars[i].High-prevClose), math.Abs(bars[i].Low-prevClose)))
		out = append(out, tr)
	}
	return out
}

// CalculateATR averages the true range over the most recent period bars.
// Requires at least period+1 bars.
func CalculateATR(bars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 0, errors.New("not enough data for ATR calculation")
	}
	return CalculateSMA(TrueRanges(bars), period)
}
