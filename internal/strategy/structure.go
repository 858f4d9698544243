package strategy

import "ICTSentinel/internal/model"

// StructureShift checks the last three bars for a shift in the bias direction:
// higher low then a break of the prior high when bullish, lower high then a
// break of the prior low when bearish.
func StructureShift(bars []model.OHLCV, bias model.Bias) bool {
	n := len(bars)
	if n < 3 {
		return false
	}
	a, b, c := bars[n-3], bars[n-2], bars[n-1]
	switch bias {
	case model.Bullish:
		return b.Low > a.Low && c.High > b.High
	case model.Bearish:
		return b.High < a.High && c.Low < b.Low
	}
	return false
}
