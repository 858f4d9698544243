package strategy

import (
	"ICTSentinel/internal/calculator"
	"ICTSentinel/internal/model"
)

// DetectFVG scans consecutive triples oldest-first and returns the first unfilled
// fair value gap, or nil when the window holds none.
func DetectFVG(bars []model.OHLCV) *model.FVGZone {
	for i := 0; i+2 < len(bars); i++ {
		c1, c2, c3 := bars[i], bars[i+1], bars[i+2]
		if c1.High < c2.Low {
			if c3.Low > c1.High {
				return &model.FVGZone{Lower: c1.High, Upper: c2.Low, Direction: model.Bullish, Index: i}
			}
		} else if c1.Low > c2.High {
			if c3.High < c1.Low {
				return &model.FVGZone{Lower: c2.High, Upper: c1.Low, Direction: model.Bearish, Index: i}
			}
		}
	}
	return nil
}

// CalculateOTE returns the retracement levels of the swing at the two ratios.
// For swingHigh > swingLow the deeper level (fib79) is the lower price.
func CalculateOTE(swingHigh, swingLow, fib62, fib79 float64) model.OTEZone {
	span := swingHigh - swingLow
	return model.OTEZone{
		Fib62: swingHigh - fib62*span,
		Fib79: swingHigh - fib79*span,
	}
}

// SwingFor picks the swing pair for the bias: the window high against the
// session low when bullish, the session high against the window low when bearish.
func SwingFor(bias model.Bias, bars []model.OHLCV, r model.Range) (high, low float64, ok bool) {
	if len(bars) == 0 || !r.Set {
		return 0, 0, false
	}
	switch bias {
	case model.Bullish:
		return calculator.MaxHigh(bars), r.Low, true
	case model.Bearish:
		return r.High, calculator.MinLow(bars), true
	}
	return 0, 0, false
}
