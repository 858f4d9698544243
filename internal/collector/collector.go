package collector

import (
	"fmt"
	"time"

	"ICTSentinel/internal/calculator"
	"ICTSentinel/internal/model"

	"github.com/rs/zerolog"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  map[model.Resolution][]model.OHLCV
	Err   error
	Now   time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ string, res model.Resolution, count int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[res]; ok {
		return tail(bars, count), nil
	}
	end := m.Now
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return generateMockBars(m.Price, count, res.Duration(), end), nil
}

func generateMockBars(basePrice float64, count int, step time.Duration, end time.Time) []model.OHLCV {
	if step <= 0 {
		step = time.Minute
	}
	start := end.Truncate(step).Add(-time.Duration(count) * step)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.0001)
		bars[i] = model.OHLCV{
			Time:   start.Add(time.Duration(i) * step),
			Open:   p * 0.9999,
			High:   p * 1.0005,
			Low:    p * 0.9995,
			Close:  p,
			Volume: 1000,
		}
	}
	return bars
}

// Collector binds a Fetcher to the strategy's market-data and indicator needs.
type Collector struct {
	Fetcher   Fetcher
	Symbol    string
	ATRPeriod int

	log zerolog.Logger
	now func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol string, atrPeriod int, logger zerolog.Logger) *Collector {
	return &Collector{
		Fetcher:   fetcher,
		Symbol:    symbol,
		ATRPeriod: atrPeriod,
		log:       logger.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the wall clock used to drop bars still forming.
func (c *Collector) WithClock(now func() time.Time) *Collector {
	c.now = now
	return c
}

// History returns up to count completed bars, oldest first.
func (c *Collector) History(symbol string, count int, res model.Resolution) ([]model.OHLCV, error) {
	if count <= 0 {
		return nil, nil
	}
	bars, err := c.Fetcher.FetchBars(symbol, res, count+1)
	if err != nil {
		return nil, fmt.Errorf("history %s %s: %w", symbol, res, err)
	}
	return tail(c.completed(bars, res), count), nil
}

// completed trims trailing bars whose interval has not closed yet.
func (c *Collector) completed(bars []model.OHLCV, res model.Resolution) []model.OHLCV {
	now := c.now()
	width := res.Duration()
	n := len(bars)
	for n > 0 && bars[n-1].Time.Add(width).After(now) {
		n--
	}
	return bars[:n]
}

// ATR returns the hourly average true range over ATRPeriod bars, or 0 when it
// cannot be computed.
func (c *Collector) ATR(symbol string) float64 {
	bars, err := c.History(symbol, c.ATRPeriod+1, model.Hour)
	if err != nil {
		c.log.Warn().Err(err).Msg("ATR history unavailable")
		return 0
	}
	atr, err := calculator.CalculateATR(bars, c.ATRPeriod)
	if err != nil {
		c.log.Warn().Err(err).Int("bars", len(bars)).Msg("ATR not ready")
		return 0
	}
	return atr
}

// Latest returns the most recent completed one-minute bar.
func (c *Collector) Latest(symbol string) (model.OHLCV, error) {
	bars, err := c.History(symbol, 1, model.Minute)
	if err != nil {
		return model.OHLCV{}, err
	}
	if len(bars) == 0 {
		return model.OHLCV{}, fmt.Errorf("latest %s: no completed bar", symbol)
	}
	return bars[len(bars)-1], nil
}
