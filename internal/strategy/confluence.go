package strategy

import "ICTSentinel/internal/model"

// Confluence gates execution on the day's confirmations, the target level at
// the current price and a fresh structure shift on the pattern window.
func Confluence(day DayState, price float64, lv model.HigherTimeframeLevels, bars []model.OHLCV) bool {
	return day.LiquidityGrabbed &&
		day.RallyConfirmed &&
		TargetReached(price, day.Bias, lv) &&
		StructureShift(bars, day.Bias)
}
