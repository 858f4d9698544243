package collector

import (
	"time"

	"ICTSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
// Bars are returned oldest to newest.
type Fetcher interface {
	FetchBars(symbol string, res model.Resolution, count int) ([]model.OHLCV, error)
	Name() string
}

// Resample aggregates bars into buckets of the given width aligned to UTC.
// Bars must be sorted. Open is the first bar's open, close the last bar's close.
func Resample(bars []model.OHLCV, width time.Duration) []model.OHLCV {
	if len(bars) == 0 || width <= 0 {
		return nil
	}
	var out []model.OHLCV
	var cur model.OHLCV
	started := false

	for _, b := range bars {
		key := b.Time.UTC().Truncate(width)
		if !started || !key.Equal(cur.Time) {
			if started {
				out = append(out, cur)
			}
			cur = model.OHLCV{Time: key, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			started = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	if started {
		out = append(out, cur)
	}
	return out
}

func tail(bars []model.OHLCV, count int) []model.OHLCV {
	if count > 0 && len(bars) > count {
		return bars[len(bars)-count:]
	}
	return bars
}
