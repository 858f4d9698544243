package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ICTSentinel/internal/broker"
	"ICTSentinel/internal/collector"
	"ICTSentinel/internal/fund"
	"ICTSentinel/internal/metrics"
	"ICTSentinel/internal/model"
	"ICTSentinel/internal/notifier"
	"ICTSentinel/internal/recorder"
	"ICTSentinel/internal/strategy"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// BarSource returns the most recent completed bar.
type BarSource interface {
	Latest(symbol string) (model.OHLCV, error)
}

type priceSetter interface {
	SetPrice(price float64, at time.Time)
}

// Scheduler drives the engine from cron or a replay and fans its output out
// to the broker, recorder, notifier and metrics.
type Scheduler struct {
	Cron     *cron.Cron
	Engine   *strategy.Engine
	Source   BarSource
	Fund     *fund.Manager
	Broker   broker.Broker
	Notifier notifier.Notifier
	Recorder recorder.Recorder
	Symbol   string
	Ctx      context.Context

	log     zerolog.Logger
	mu      sync.Mutex // serializes bar processing and state reads
	lastBar time.Time
	tickets int
	outbox  []string // messages queued under mu, sent after it is released
}

// NewScheduler creates a new Scheduler and subscribes to the engine's events.
func NewScheduler(ctx context.Context, symbol string, eng *strategy.Engine, src BarSource, fm *fund.Manager,
	b broker.Broker, n notifier.Notifier, rec recorder.Recorder, logger zerolog.Logger) *Scheduler {
	s := &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Engine:   eng,
		Source:   src,
		Fund:     fm,
		Broker:   b,
		Notifier: n,
		Recorder: rec,
		Symbol:   symbol,
		Ctx:      ctx,
		log:      logger.With().Str("component", "scheduler").Logger(),
	}
	eng.SetListener(s.onEvent)
	metrics.Equity.Set(fm.TotalEquity())
	return s
}

// RegisterAll registers the bar poll and the daily summary.
func (s *Scheduler) RegisterAll(barCron, summaryCron string) error {
	if _, err := s.Cron.AddFunc(barCron, s.pollBar); err != nil {
		return fmt.Errorf("register bar task: %w", err)
	}
	if _, err := s.Cron.AddFunc(summaryCron, s.summaryTask); err != nil {
		return fmt.Errorf("register summary task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) pollBar() {
	bar, err := s.Source.Latest(s.Symbol)
	if err != nil {
		s.log.Warn().Err(err).Msg("latest bar unavailable")
		return
	}
	s.mu.Lock()
	stale := !s.lastBar.IsZero() && !bar.Time.After(s.lastBar)
	s.mu.Unlock()
	if stale {
		s.log.Debug().Time("bar", bar.Time).Msg("no new bar")
		return
	}
	s.ProcessBar(bar)
}

// ProcessBar runs one bar through fills, the engine and order execution.
// Notifications raised by the bar are sent once the lock is released.
func (s *Scheduler) ProcessBar(bar model.OHLCV) {
	s.mu.Lock()
	s.process(bar)
	outbox := s.outbox
	s.outbox = nil
	s.mu.Unlock()

	for _, text := range outbox {
		s.trySend(text)
	}
}

func (s *Scheduler) process(bar model.OHLCV) {
	if !s.lastBar.IsZero() && !bar.Time.After(s.lastBar) {
		return
	}
	s.lastBar = bar.Time
	metrics.BarsProcessed.Inc()

	if closed := s.Fund.MarkBar(bar); closed != nil {
		s.onClosedTrade(closed)
	}
	if ps, ok := s.Broker.(priceSetter); ok {
		ps.SetPrice(bar.Close, bar.Time)
	}

	if ticket := s.Engine.OnBar(bar); ticket != nil {
		s.execute(ticket)
	}
	metrics.Equity.Set(s.Fund.TotalEquity())
}

func (s *Scheduler) execute(ticket *model.OrderTicket) {
	s.tickets++
	day := s.Engine.TradingDay(ticket.Plan.CreatedAt)

	placed, err := broker.Execute(s.Ctx, s.Broker, ticket.Orders)
	for _, po := range placed {
		metrics.Orders.WithLabelValues(string(po.Type), "accepted").Inc()
		s.log.Info().Str("order", po.ID).Str("type", string(po.Type)).
			Float64("qty", po.Quantity).Float64("price", po.Price).Msg("order accepted")
	}
	rec := &recorder.TradePlanRecord{Day: day, Symbol: s.Symbol, Plan: ticket.Plan, Accepted: err == nil}
	if err != nil {
		rejected := ticket.Orders[len(placed)]
		metrics.Orders.WithLabelValues(string(rejected.Type), "rejected").Inc()
		s.log.Error().Err(err).Msg("order submission failed")
		rec.Error = err.Error()
	}
	if rerr := s.Recorder.RecordTradePlan(rec); rerr != nil {
		s.log.Error().Err(rerr).Msg("record trade plan")
	}
	s.notify(notifier.FormatTradePlan(s.Symbol, day, ticket.Plan, err))
}

func (s *Scheduler) onClosedTrade(trade *model.ClosedTrade) {
	metrics.ClosedTrades.WithLabelValues(strings.ToLower(trade.Reason)).Inc()
	if err := s.Recorder.RecordClosedTrade(trade); err != nil {
		s.log.Error().Err(err).Msg("record closed trade")
	}
	s.notify(notifier.FormatClosedTrade(*trade))
}

// onEvent runs inside Engine.OnBar, with mu held.
func (s *Scheduler) onEvent(evt strategy.Event) {
	switch evt.Kind {
	case strategy.EventTransition:
		metrics.PhaseTransitions.WithLabelValues(evt.To.String()).Inc()
	case strategy.EventDetection:
		kind := detectionKind(evt.From)
		metrics.Detections.WithLabelValues(kind).Inc()
		if evt.Plan != nil {
			metrics.TradePlans.WithLabelValues(evt.Plan.Direction.String()).Inc()
		}
	case strategy.EventRejection:
		metrics.PlanRejections.WithLabelValues(rejectionReason(evt.Err)).Inc()
	case strategy.EventDayReset:
		if evt.Previous != nil {
			s.recordDaySummary(*evt.Previous, evt.Time)
		}
	}

	if err := s.Recorder.RecordPhaseEvent(&recorder.PhaseEvent{
		Time:    evt.Time,
		Day:     evt.Day,
		Kind:    string(evt.Kind),
		From:    evt.From.String(),
		To:      evt.To.String(),
		Price:   evt.Price,
		Message: evt.Message,
	}); err != nil {
		s.log.Error().Err(err).Msg("record phase event")
	}
}

func (s *Scheduler) recordDaySummary(day strategy.DayState, at time.Time) {
	if err := s.Recorder.RecordDaySummary(&recorder.DaySummary{
		Day:              day.Day,
		Time:             at,
		FinalPhase:       day.Phase.String(),
		Bias:             day.Bias.String(),
		RangeHigh:        day.Range.High,
		RangeLow:         day.Range.Low,
		LiquidityGrabbed: day.LiquidityGrabbed,
		RallyConfirmed:   day.RallyConfirmed,
		TradePlaced:      day.TradePlaced,
		Equity:           s.Fund.TotalEquity(),
	}); err != nil {
		s.log.Error().Err(err).Msg("record day summary")
	}
}

func detectionKind(phase strategy.Phase) string {
	switch phase {
	case strategy.AwaitingLiquidityGrab:
		return "liquidity_grab"
	case strategy.BiasSetAwaitingRally:
		return "secondary_rally"
	case strategy.RallyConfirmedAwaitingZones:
		return "zones"
	case strategy.ZonesReadyAwaitingKillzone:
		return "trade_plan"
	}
	return "other"
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, strategy.ErrInvalidATR):
		return "invalid_atr"
	case errors.Is(err, strategy.ErrDegenerateSize):
		return "degenerate_size"
	}
	return "other"
}

func (s *Scheduler) summaryTask() {
	s.mu.Lock()
	snap := s.Engine.Snapshot()
	s.mu.Unlock()
	if snap.Day.Day == "" {
		return
	}
	s.trySend(notifier.FormatDaySummary(snap.Day, s.Fund.GetState()))
}

// ReplaySummary reports the outcome of a replay run.
type ReplaySummary struct {
	Bars        int
	Tickets     int
	FinalEquity float64
	Account     model.AccountState
}

// Replay feeds every bar of the replay source through ProcessBar, advancing
// the source's cursor first so history queries never see later bars.
func (s *Scheduler) Replay(ctx context.Context, src *collector.ReplayFetcher) (ReplaySummary, error) {
	bars := src.Bars()
	s.log.Info().Int("bars", len(bars)).Msg("replay started")

	var sum ReplaySummary
	for _, bar := range bars {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		src.Advance(bar.Time)
		s.ProcessBar(bar)
		sum.Bars++
	}

	// The last day never sees a rollover.
	s.mu.Lock()
	if snap := s.Engine.Snapshot(); snap.Day.Day != "" {
		s.recordDaySummary(snap.Day, snap.LastBar)
	}
	sum.Tickets = s.tickets
	s.mu.Unlock()
	sum.Account = s.Fund.GetState()
	sum.FinalEquity = sum.Account.Equity

	s.log.Info().Int("bars", sum.Bars).Int("tickets", sum.Tickets).
		Int("closed", sum.Account.ClosedTrades).Float64("equity", sum.FinalEquity).Msg("replay finished")
	return sum, nil
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "/status":
		s.mu.Lock()
		snap := s.Engine.Snapshot()
		s.mu.Unlock()
		return notifier.FormatStatus(s.Symbol, snap)
	case "/account":
		return notifier.FormatAccount(s.Fund.GetState())
	case "/trades":
		trades, err := s.Recorder.RecentTrades(10)
		if err != nil {
			s.log.Error().Err(err).Msg("query recent trades")
			return "Trade history unavailable."
		}
		return notifier.FormatRecentTrades(trades)
	default:
		return notifier.FormatHelp()
	}
}

// notify queues text for delivery. Callers hold mu.
func (s *Scheduler) notify(text string) {
	s.outbox = append(s.outbox, text)
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
