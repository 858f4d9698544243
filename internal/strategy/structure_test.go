package strategy

import (
	"testing"

	"ICTSentinel/internal/model"
)

func TestStructureShift(t *testing.T) {
	tests := []struct {
		name string
		bars []model.OHLCV
		bias model.Bias
		want bool
	}{
		{"bullish higher low and break", []model.OHLCV{bar(10, 8), bar(10.5, 8.5), bar(11, 9)}, model.Bullish, true},
		{"bullish equal low", []model.OHLCV{bar(10, 8), bar(10.5, 8), bar(11, 9)}, model.Bullish, false},
		{"bullish no break", []model.OHLCV{bar(10, 8), bar(10.5, 8.5), bar(10.5, 9)}, model.Bullish, false},
		{"bearish lower high and break", []model.OHLCV{bar(1.0962, 1.0940), bar(1.0960, 1.0935), bar(1.0957, 1.0930)}, model.Bearish, true},
		{"bearish no lower high", []model.OHLCV{bar(10, 8), bar(10, 7.5), bar(9, 7)}, model.Bearish, false},
		{"unset bias", []model.OHLCV{bar(10, 8), bar(10.5, 8.5), bar(11, 9)}, model.BiasUnset, false},
		{"too few bars", []model.OHLCV{bar(10, 8), bar(11, 9)}, model.Bullish, false},
	}
	for _, tt := range tests {
		if got := StructureShift(tt.bars, tt.bias); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestStructureShift_UsesLastThreeBars(t *testing.T) {
	bars := []model.OHLCV{bar(20, 1), bar(1, 0.5), bar(10, 8), bar(10.5, 8.5), bar(11, 9)}
	if !StructureShift(bars, model.Bullish) {
		t.Error("expected only the trailing three bars to matter")
	}
}

func TestConfluence(t *testing.T) {
	bars := []model.OHLCV{bar(1.0962, 1.0940), bar(1.0960, 1.0935), bar(1.0957, 1.0930)}
	lv := model.HigherTimeframeLevels{PrevDayHigh: 1.0950, HasDay: true}
	day := DayState{Bias: model.Bearish, LiquidityGrabbed: true, RallyConfirmed: true}

	if !Confluence(day, 1.0955, lv, bars) {
		t.Fatal("expected confluence")
	}
	if Confluence(day, 1.0945, lv, bars) {
		t.Error("expected failure when price is back under the target level")
	}
	noRally := day
	noRally.RallyConfirmed = false
	if Confluence(noRally, 1.0955, lv, bars) {
		t.Error("expected failure without rally confirmation")
	}
	noGrab := day
	noGrab.LiquidityGrabbed = false
	if Confluence(noGrab, 1.0955, lv, bars) {
		t.Error("expected failure without liquidity grab")
	}
}
