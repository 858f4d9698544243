package model

import "time"

// OHLCV represents a single candlestick bar. Bars are immutable once produced.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Resolution is the bar size of a history query.
type Resolution string

const (
	Minute Resolution = "1m"
	Hour   Resolution = "1h"
	Daily  Resolution = "1d"
)

// Duration returns the span covered by one bar of the resolution.
func (r Resolution) Duration() time.Duration {
	switch r {
	case Minute:
		return time.Minute
	case Hour:
		return time.Hour
	case Daily:
		return 24 * time.Hour
	default:
		return 0
	}
}

// HigherTimeframeLevels holds previous-day and previous-week extremes.
// HasDay / HasWeek stay false until a history query returns data.
type HigherTimeframeLevels struct {
	PrevDayHigh  float64
	PrevDayLow   float64
	PrevWeekHigh float64
	PrevWeekLow  float64
	HasDay       bool
	HasWeek      bool
}

// Range is a high/low pair. Set is false until the first observation.
type Range struct {
	High float64
	Low  float64
	Set  bool
}

// Widen extends the range to include price.
func (r Range) Widen(price float64) Range {
	if !r.Set {
		return Range{High: price, Low: price, Set: true}
	}
	if price > r.High {
		r.High = price
	}
	if price < r.Low {
		r.Low = price
	}
	return r
}
