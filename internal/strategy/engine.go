package strategy

import (
	"fmt"
	"time"

	"ICTSentinel/internal/calculator"
	"ICTSentinel/internal/model"

	"github.com/rs/zerolog"
)

// MarketData answers historical bar queries, oldest to newest.
type MarketData interface {
	History(symbol string, count int, res model.Resolution) ([]model.OHLCV, error)
}

// Indicator supplies the current ATR. Values <= 0 mean the indicator is not ready.
type Indicator interface {
	ATR(symbol string) float64
}

// Portfolio reports the account state used for gating and sizing.
type Portfolio interface {
	IsInvested() bool
	TotalEquity() float64
}

// EventKind classifies engine diagnostics.
type EventKind string

const (
	EventTransition EventKind = "transition"
	EventDetection  EventKind = "detection"
	EventRejection  EventKind = "rejection"
	EventData       EventKind = "data"
	EventDayReset   EventKind = "day_reset"
)

// Event is a diagnostic emitted while processing a bar.
type Event struct {
	Time     time.Time
	Day      string
	Kind     EventKind
	From     Phase
	To       Phase
	Price    float64
	Message  string
	Plan     *model.TradePlan
	Err      error
	Previous *DayState // finished day, set on EventDayReset
}

// Snapshot is a copy of the engine state for status reporting.
type Snapshot struct {
	Day     DayState
	Levels  model.HigherTimeframeLevels
	LastBar time.Time
}

const (
	weekLookbackDays = 5
	maxStepsPerBar   = 8
)

// Engine is the day-cycle orchestrator. It is not safe for concurrent use:
// bars must be fed one at a time in increasing timestamp order.
type Engine struct {
	params    Params
	data      MarketData
	indicator Indicator
	portfolio Portfolio
	log       zerolog.Logger
	listener  func(Event)

	day       DayState
	levels    model.HigherTimeframeLevels
	levelsDay string
	window    *Window
	lastBar   time.Time
}

// NewEngine validates params and wires the collaborators.
func NewEngine(params Params, data MarketData, ind Indicator, pf Portfolio, logger zerolog.Logger) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if data == nil || ind == nil || pf == nil {
		return nil, fmt.Errorf("market data, indicator and portfolio are required")
	}
	return &Engine{
		params:    params,
		data:      data,
		indicator: ind,
		portfolio: pf,
		log:       logger.With().Str("component", "engine").Str("symbol", params.Symbol).Logger(),
		window:    NewWindow(params.PatternWindow),
	}, nil
}

// SetListener registers a callback receiving every Event.
func (e *Engine) SetListener(fn func(Event)) { e.listener = fn }

// Snapshot returns a copy of the current day state and levels.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{Day: e.day.clone(), Levels: e.levels, LastBar: e.lastBar}
}

// TradingDay returns the trading-day key of t: the calendar date after
// shifting t back by the Asian session start.
func (e *Engine) TradingDay(t time.Time) string {
	local := t.In(e.params.location())
	return local.Add(-time.Duration(e.params.Asian.Start) * time.Second).Format("2006-01-02")
}

// OnBar advances the day state machine with one bar and returns the orders
// to submit, or nil.
func (e *Engine) OnBar(bar model.OHLCV) *model.OrderTicket {
	if !e.lastBar.IsZero() && !bar.Time.After(e.lastBar) {
		e.log.Warn().Time("bar", bar.Time).Time("last", e.lastBar).Msg("dropping out-of-order bar")
		return nil
	}
	e.lastBar = bar.Time
	e.window.Push(bar)

	local := bar.Time.In(e.params.location())
	price := bar.Close

	if day := e.TradingDay(bar.Time); day != e.day.Day {
		e.resetDay(day, bar.Time, price)
	}
	e.refreshLevels(bar.Time)

	if e.day.Phase.Terminal() {
		return nil
	}

	clock := model.ClockOf(local)
	for i := 0; i < maxStepsPerBar; i++ {
		advanced, ticket := e.step(bar.Time, clock, price)
		if ticket != nil {
			return ticket
		}
		if !advanced || e.day.Phase.Terminal() {
			break
		}
	}
	return nil
}

func (e *Engine) step(t time.Time, clock model.ClockTime, price float64) (bool, *model.OrderTicket) {
	p := e.params
	switch e.day.Phase {
	case AwaitingAsianSession:
		if p.Asian.Contains(clock) {
			e.transition(t, price, TrackingAsianRange, "asian session open")
			return true, nil
		}

	case TrackingAsianRange:
		if p.Asian.Contains(clock) {
			e.day.Range = TrackSessionRange(e.day.Range, price)
			return false, nil
		}
		e.transition(t, price, AwaitingLiquidityGrab,
			fmt.Sprintf("asian range closed high=%.5f low=%.5f", e.day.Range.High, e.day.Range.Low))
		return true, nil

	case AwaitingLiquidityGrab:
		if !p.Grab.Contains(clock) {
			return false, nil
		}
		bias := ResolveBias(e.day.Range, e.day.Bias, price)
		if bias == model.BiasUnset {
			return false, nil
		}
		e.day.Bias = bias
		e.day.LiquidityGrabbed = true
		side := "high"
		if bias == model.Bearish {
			side = "low"
		}
		e.emit(Event{Time: t, Kind: EventDetection, Price: price,
			Message: fmt.Sprintf("turtle soup beyond asian %s, bias %s", side, bias)})
		e.transition(t, price, BiasSetAwaitingRally, "bias set")
		return true, nil

	case BiasSetAwaitingRally:
		if !p.Grab.Contains(clock) {
			return false, nil
		}
		if !ConfirmSecondaryRally(price, e.day.Bias, e.day.Range, e.levels) {
			return false, nil
		}
		e.day.RallyConfirmed = true
		e.emit(Event{Time: t, Kind: EventDetection, Price: price,
			Message: "secondary rally confirmed, higher-timeframe level targeted"})
		e.transition(t, price, RallyConfirmedAwaitingZones, "rally confirmed")
		return true, nil

	case RallyConfirmedAwaitingZones:
		bars, ok := e.patternWindow(t)
		if !ok {
			return false, nil
		}
		fvg := DetectFVG(bars)
		if fvg == nil {
			return false, nil
		}
		high, low, ok := SwingFor(e.day.Bias, bars, e.day.Range)
		if !ok {
			return false, nil
		}
		ote := CalculateOTE(high, low, p.Fib62, p.Fib79)
		e.day.FVG = fvg
		e.day.OTE = &ote
		e.emit(Event{Time: t, Kind: EventDetection, Price: price,
			Message: fmt.Sprintf("fvg %s [%.5f, %.5f], ote fib62=%.5f fib79=%.5f",
				fvg.Direction, fvg.Lower, fvg.Upper, ote.Fib62, ote.Fib79)})
		e.transition(t, price, ZonesReadyAwaitingKillzone, "zones ready")
		return true, nil

	case ZonesReadyAwaitingKillzone:
		if clock > p.Killzone.End {
			e.transition(t, price, NoTradeDay, "killzone closed without confluence")
			return true, nil
		}
		if !p.Killzone.ContainsInclusive(clock) || e.portfolio.IsInvested() {
			return false, nil
		}
		bars, ok := e.patternWindow(t)
		if !ok || !Confluence(e.day, price, e.levels, bars) {
			return false, nil
		}
		plan, err := PlanTrade(price, e.day.Bias, *e.day.OTE, e.indicator.ATR(p.Symbol), e.portfolio.TotalEquity(), p)
		if err != nil {
			e.emit(Event{Time: t, Kind: EventRejection, Price: price, Err: err,
				Message: "trade plan rejected: " + err.Error()})
			return false, nil
		}
		plan.CreatedAt = t
		e.day.TradePlaced = true
		e.day.Plan = &plan
		e.emit(Event{Time: t, Kind: EventDetection, Price: price, Plan: &plan,
			Message: fmt.Sprintf("trade planned entry=%.5f stop=%.5f target=%.5f qty=%.2f",
				plan.Entry, plan.StopLoss, plan.TakeProfit, plan.Quantity)})
		e.transition(t, price, TradeExecuted, "trade executed")
		return true, &model.OrderTicket{Plan: plan, Orders: BuildOrders(p.Symbol, plan)}
	}
	return false, nil
}

func (e *Engine) resetDay(day string, t time.Time, price float64) {
	prev := e.day.clone()
	e.day = newDayState(day)
	if prev.Day == "" {
		e.log.Info().Str("day", day).Msg("first trading day")
		return
	}
	e.emit(Event{Time: t, Kind: EventDayReset, Price: price, Previous: &prev,
		Message: fmt.Sprintf("day %s closed in %s", prev.Day, prev.Phase)})
}

// refreshLevels loads previous-day and previous-week extremes once per trading
// day. Empty or failed queries leave the cached values and retry on the next bar.
func (e *Engine) refreshLevels(t time.Time) {
	if e.levelsDay == e.day.Day {
		return
	}
	complete := true

	daily, err := e.data.History(e.params.Symbol, 1, model.Daily)
	switch {
	case err != nil:
		e.dataEvent(t, "previous day history: "+err.Error())
		complete = false
	case len(daily) == 0:
		e.dataEvent(t, "previous day history empty")
		complete = false
	default:
		last := daily[len(daily)-1]
		e.levels.PrevDayHigh, e.levels.PrevDayLow, e.levels.HasDay = last.High, last.Low, true
	}

	weekly, err := e.data.History(e.params.Symbol, weekLookbackDays, model.Daily)
	if err != nil {
		e.dataEvent(t, "previous week history: "+err.Error())
		complete = false
	} else if high, low, herr := calculator.HighLow(weekly, 0); herr != nil {
		e.dataEvent(t, "previous week history empty")
		complete = false
	} else {
		e.levels.PrevWeekHigh, e.levels.PrevWeekLow, e.levels.HasWeek = high, low, true
	}

	if complete {
		e.levelsDay = e.day.Day
		e.log.Debug().Str("day", e.day.Day).
			Float64("pdh", e.levels.PrevDayHigh).Float64("pdl", e.levels.PrevDayLow).
			Float64("pwh", e.levels.PrevWeekHigh).Float64("pwl", e.levels.PrevWeekLow).
			Msg("higher timeframe levels refreshed")
	}
}

// patternWindow queries the recent one-minute bars, falling back to the bars
// streamed through OnBar when the query fails or comes back short.
func (e *Engine) patternWindow(t time.Time) ([]model.OHLCV, bool) {
	n := e.params.PatternWindow
	bars, err := e.data.History(e.params.Symbol, n, model.Minute)
	if err != nil {
		e.dataEvent(t, "pattern window history: "+err.Error())
	}
	bars = Recent(bars, n)
	if len(bars) >= 3 {
		return bars, true
	}
	if e.window.Len() >= 3 {
		return e.window.Bars(), true
	}
	return nil, false
}

func (e *Engine) transition(t time.Time, price float64, to Phase, msg string) {
	from := e.day.Phase
	e.day.Phase = to
	e.emit(Event{Time: t, Kind: EventTransition, From: from, To: to, Price: price, Message: msg})
}

func (e *Engine) dataEvent(t time.Time, msg string) {
	e.emit(Event{Time: t, Kind: EventData, Message: msg})
}

func (e *Engine) emit(evt Event) {
	evt.Day = e.day.Day
	if evt.Kind != EventTransition {
		evt.From, evt.To = e.day.Phase, e.day.Phase
	}

	var le *zerolog.Event
	switch evt.Kind {
	case EventRejection, EventData:
		le = e.log.Warn()
	default:
		le = e.log.Info()
	}
	le = le.Str("day", evt.Day).Str("kind", string(evt.Kind)).Time("at", evt.Time)
	if evt.Kind == EventTransition {
		le = le.Str("from", evt.From.String()).Str("to", evt.To.String())
	}
	if evt.Price != 0 {
		le = le.Float64("price", evt.Price)
	}
	if evt.Err != nil {
		le = le.Err(evt.Err)
	}
	le.Msg(evt.Message)

	if e.listener != nil {
		e.listener(evt)
	}
}
