package strategy

import "ICTSentinel/internal/model"

// TrackSessionRange widens the Asian range with a close observed inside the session.
func TrackSessionRange(r model.Range, price float64) model.Range {
	return r.Widen(price)
}

// ResolveBias applies the turtle-soup rule: the first close strictly outside
// the session range fixes the bias. Once a bias is set it is returned unchanged.
func ResolveBias(r model.Range, current model.Bias, price float64) model.Bias {
	if current != model.BiasUnset || !r.Set {
		return current
	}
	switch {
	case price < r.Low:
		return model.Bearish
	case price > r.High:
		return model.Bullish
	}
	return model.BiasUnset
}

// RevertedThroughRange reports whether price has come back through the
// opposite side of the session range relative to the bias.
func RevertedThroughRange(price float64, bias model.Bias, r model.Range) bool {
	if !r.Set {
		return false
	}
	switch bias {
	case model.Bullish:
		return price < r.Low
	case model.Bearish:
		return price > r.High
	}
	return false
}

// TargetReached reports whether price trades beyond a higher-timeframe level:
// below the previous day or week low for a bullish bias, above the previous
// day or week high for a bearish one. Levels that were never loaded never match.
func TargetReached(price float64, bias model.Bias, lv model.HigherTimeframeLevels) bool {
	switch bias {
	case model.Bullish:
		return (lv.HasDay && price < lv.PrevDayLow) || (lv.HasWeek && price < lv.PrevWeekLow)
	case model.Bearish:
		return (lv.HasDay && price > lv.PrevDayHigh) || (lv.HasWeek && price > lv.PrevWeekHigh)
	}
	return false
}

// ConfirmSecondaryRally requires both the range reversion and a higher-timeframe target.
func ConfirmSecondaryRally(price float64, bias model.Bias, r model.Range, lv model.HigherTimeframeLevels) bool {
	return RevertedThroughRange(price, bias, r) && TargetReached(price, bias, lv)
}
