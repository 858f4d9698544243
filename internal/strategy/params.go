package strategy

import (
	"fmt"
	"time"

	"ICTSentinel/internal/model"
)

// Params holds the engine's tunables.
type Params struct {
	Symbol   string
	Location *time.Location

	Asian    model.SessionWindow // range tracking, [start, end)
	Grab     model.SessionWindow // liquidity grab and rally confirmation, [start, london end)
	Killzone model.SessionWindow // execution, [start, end] inclusive

	RiskFraction   float64 // fraction of equity risked per trade
	RewardMultiple float64 // take-profit distance in ATR multiples
	Fib62          float64
	Fib79          float64
	PatternWindow  int // bars examined for gap and structure checks
}

// DefaultParams returns the EURUSD defaults.
func DefaultParams() Params {
	return Params{
		Symbol:         "EURUSD",
		Location:       time.UTC,
		Asian:          model.SessionWindow{Name: "asian", Start: model.MustClock("00:00"), End: model.MustClock("05:00")},
		Grab:           model.SessionWindow{Name: "london", Start: model.MustClock("05:00"), End: model.MustClock("12:00")},
		Killzone:       model.SessionWindow{Name: "ny_killzone", Start: model.MustClock("13:00"), End: model.MustClock("16:00")},
		RiskFraction:   0.01,
		RewardMultiple: 2,
		Fib62:          0.62,
		Fib79:          0.79,
		PatternWindow:  10,
	}
}

// Validate checks ordering and ranges of the parameters.
func (p Params) Validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if p.Asian.Start >= p.Asian.End {
		return fmt.Errorf("asian session must start before it ends")
	}
	if p.Grab.Start < p.Asian.End || p.Grab.Start >= p.Grab.End {
		return fmt.Errorf("grab window must start at or after the asian end and before london end")
	}
	if p.Killzone.Start < p.Grab.End || p.Killzone.Start >= p.Killzone.End {
		return fmt.Errorf("killzone must start at or after london end and before it ends")
	}
	if p.RiskFraction <= 0 || p.RiskFraction >= 1 {
		return fmt.Errorf("risk fraction must be in (0, 1)")
	}
	if p.RewardMultiple <= 0 {
		return fmt.Errorf("reward multiple must be positive")
	}
	if p.Fib62 <= 0 || p.Fib62 >= p.Fib79 || p.Fib79 >= 1 {
		return fmt.Errorf("retracement levels must satisfy 0 < fib62 < fib79 < 1")
	}
	if p.PatternWindow < 3 {
		return fmt.Errorf("pattern window must hold at least 3 bars")
	}
	return nil
}

func (p Params) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
