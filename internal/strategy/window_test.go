package strategy

import (
	"testing"
	"time"

	"ICTSentinel/internal/model"
)

func TestWindow_EvictsOldest(t *testing.T) {
	w := NewWindow(3)
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		w.Push(model.OHLCV{Time: base.Add(time.Duration(i) * time.Minute), Close: float64(i)})
	}
	if w.Len() != 3 {
		t.Fatalf("expected window capped at 3, got %d", w.Len())
	}
	bars := w.Bars()
	for i, b := range bars {
		if b.Close != float64(i+2) {
			t.Errorf("index %d: expected close %d, got %f", i, i+2, b.Close)
		}
	}
	bars[0].Close = 99
	if w.Bars()[0].Close == 99 {
		t.Error("Bars must return a copy")
	}
}

func TestRecent_SortsAndTrims(t *testing.T) {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	in := []model.OHLCV{
		{Time: base.Add(2 * time.Minute), Close: 2},
		{Time: base, Close: 0},
		{Time: base.Add(time.Minute), Close: 1},
	}
	out := Recent(in, 2)
	if len(out) != 2 || out[0].Close != 1 || out[1].Close != 2 {
		t.Errorf("unexpected result %+v", out)
	}
	if in[0].Close != 2 {
		t.Error("input must not be reordered")
	}
}
