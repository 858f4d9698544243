package fund

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"ICTSentinel/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ReasonStopLoss   = "STOP_LOSS"
	ReasonTakeProfit = "TAKE_PROFIT"
)

var (
	ErrPositionOpen = errors.New("a position is already open")
	ErrNoPosition   = errors.New("no open position")
)

// Manager is the paper account: equity, one open position and its protective
// orders. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	state    *model.AccountState
	filePath string
	log      zerolog.Logger
}

// NewManager creates a Manager, loading or initializing state from disk.
func NewManager(filePath string, initialEquity float64, logger zerolog.Logger) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load account state: %w", err)
	}

	if state.InitialEquity == 0 {
		state.InitialEquity = initialEquity
		state.Equity = initialEquity
	}

	m := &Manager{
		state:    state,
		filePath: filePath,
		log:      logger.With().Str("component", "fund").Logger(),
	}
	if err := m.save(); err != nil {
		return nil, fmt.Errorf("save account state: %w", err)
	}
	return m, nil
}

// GetState returns a copy of the current account state.
func (m *Manager) GetState() model.AccountState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *m.state
	if s.Open != nil {
		p := *s.Open
		s.Open = &p
	}
	return s
}

func (m *Manager) IsInvested() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Open != nil
}

// TotalEquity is the realized account equity.
func (m *Manager) TotalEquity() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Equity
}

// OpenPosition books a market fill. quantity is signed: positive opens a long.
func (m *Manager) OpenPosition(symbol string, quantity, price float64, at time.Time) (model.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Open != nil {
		return model.Position{}, ErrPositionOpen
	}
	if quantity == 0 || !(price > 0) {
		return model.Position{}, fmt.Errorf("invalid fill: quantity %.2f at %.5f", quantity, price)
	}
	dir := model.Bullish
	if quantity < 0 {
		dir = model.Bearish
	}
	pos := model.Position{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Direction: dir,
		Quantity:  math.Abs(quantity),
		Entry:     price,
		OpenedAt:  at,
	}
	m.state.Open = &pos
	m.persist("open position")
	return pos, nil
}

// AttachStop sets the stop price of the open position.
func (m *Manager) AttachStop(price float64) error {
	return m.attach(func(p *model.Position) { p.StopLoss = price })
}

// AttachTarget sets the take-profit price of the open position.
func (m *Manager) AttachTarget(price float64) error {
	return m.attach(func(p *model.Position) { p.TakeProfit = price })
}

func (m *Manager) attach(set func(*model.Position)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Open == nil {
		return ErrNoPosition
	}
	set(m.state.Open)
	m.persist("attach order")
	return nil
}

// MarkBar closes the open position when the bar reaches its stop or target.
// The stop is checked first when a bar spans both.
func (m *Manager) MarkBar(bar model.OHLCV) *model.ClosedTrade {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos := m.state.Open
	if pos == nil || !bar.Time.After(pos.OpenedAt) {
		return nil
	}

	exit, reason, ok := stopFill(pos, bar)
	if !ok {
		exit, reason, ok = targetFill(pos, bar)
	}
	if !ok {
		return nil
	}

	pnl := pos.Direction.Sign() * (exit - pos.Entry) * pos.Quantity
	trade := model.ClosedTrade{Position: *pos, Exit: exit, PnL: pnl, Reason: reason, ClosedAt: bar.Time}

	m.state.Open = nil
	m.state.Equity += pnl
	m.state.RealizedPnL += pnl
	m.state.ClosedTrades++
	if pnl > 0 {
		m.state.Wins++
	}
	m.persist("close position")

	m.log.Info().Str("reason", reason).Str("position", pos.ID).
		Float64("exit", exit).Float64("pnl", pnl).Float64("equity", m.state.Equity).
		Msg("position closed")
	return &trade
}

// stopFill treats the stop as a resting stop order on the closing side: a sell
// stop for longs fills when the low trades through it, a buy stop for shorts
// when the high does. Gaps fill at the open.
func stopFill(pos *model.Position, bar model.OHLCV) (float64, string, bool) {
	if pos.StopLoss == 0 {
		return 0, "", false
	}
	switch pos.Direction {
	case model.Bullish:
		if bar.Low <= pos.StopLoss {
			return math.Min(pos.StopLoss, bar.Open), ReasonStopLoss, true
		}
	case model.Bearish:
		if bar.High >= pos.StopLoss {
			return math.Max(pos.StopLoss, bar.Open), ReasonStopLoss, true
		}
	}
	return 0, "", false
}

func targetFill(pos *model.Position, bar model.OHLCV) (float64, string, bool) {
	if pos.TakeProfit == 0 {
		return 0, "", false
	}
	switch pos.Direction {
	case model.Bullish:
		if bar.High >= pos.TakeProfit {
			return math.Max(pos.TakeProfit, bar.Open), ReasonTakeProfit, true
		}
	case model.Bearish:
		if bar.Low <= pos.TakeProfit {
			return math.Min(pos.TakeProfit, bar.Open), ReasonTakeProfit, true
		}
	}
	return 0, "", false
}

func (m *Manager) persist(op string) {
	if err := m.save(); err != nil {
		m.log.Error().Err(err).Str("op", op).Msg("failed to save account state")
	}
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
