package strategy

import (
	"sort"

	"ICTSentinel/internal/model"
)

// Window is a bounded, ordered buffer of the most recent bars, oldest first.
type Window struct {
	size int
	bars []model.OHLCV
}

// NewWindow creates a window holding at most size bars.
func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{size: size, bars: make([]model.OHLCV, 0, size)}
}

// Push appends a bar, evicting the oldest one when full.
func (w *Window) Push(bar model.OHLCV) {
	if len(w.bars) == w.size {
		copy(w.bars, w.bars[1:])
		w.bars = w.bars[:w.size-1]
	}
	w.bars = append(w.bars, bar)
}

// Bars returns a copy of the buffered bars.
func (w *Window) Bars() []model.OHLCV {
	out := make([]model.OHLCV, len(w.bars))
	copy(out, w.bars)
	return out
}

func (w *Window) Len() int { return len(w.bars) }

// Recent returns the last n bars of bars in chronological order.
// The input is not modified.
func Recent(bars []model.OHLCV, n int) []model.OHLCV {
	out := make([]model.OHLCV, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}
