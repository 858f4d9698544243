package scheduler

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"ICTSentinel/internal/broker"
	"ICTSentinel/internal/collector"
	"ICTSentinel/internal/fund"
	"ICTSentinel/internal/model"
	"ICTSentinel/internal/recorder"
	"ICTSentinel/internal/strategy"

	"github.com/rs/zerolog"
)

type fakeData struct {
	minute []model.OHLCV
	daily  []model.OHLCV
}

func (d *fakeData) History(_ string, count int, res model.Resolution) ([]model.OHLCV, error) {
	src := d.minute
	if res == model.Daily {
		src = d.daily
	}
	if len(src) > count {
		src = src[len(src)-count:]
	}
	return src, nil
}

type fakeATR float64

func (a fakeATR) ATR(string) float64 { return float64(a) }

type fakeNotifier struct{ messages []string }

func (n *fakeNotifier) Send(text string) error {
	n.messages = append(n.messages, text)
	return nil
}

func (n *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	return n.Send(text)
}

type fakeRecorder struct {
	events    []*recorder.PhaseEvent
	plans     []*recorder.TradePlanRecord
	closed    []*model.ClosedTrade
	summaries []*recorder.DaySummary
	tradesErr error
}

func (r *fakeRecorder) RecordPhaseEvent(evt *recorder.PhaseEvent) error {
	r.events = append(r.events, evt)
	return nil
}

func (r *fakeRecorder) RecordTradePlan(rec *recorder.TradePlanRecord) error {
	r.plans = append(r.plans, rec)
	return nil
}

func (r *fakeRecorder) RecordClosedTrade(trade *model.ClosedTrade) error {
	r.closed = append(r.closed, trade)
	return nil
}

func (r *fakeRecorder) RecordDaySummary(sum *recorder.DaySummary) error {
	r.summaries = append(r.summaries, sum)
	return nil
}

func (r *fakeRecorder) RecentTrades(limit int) ([]model.ClosedTrade, error) {
	if r.tradesErr != nil {
		return nil, r.tradesErr
	}
	out := make([]model.ClosedTrade, 0, len(r.closed))
	for i := len(r.closed) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *r.closed[i])
	}
	return out, nil
}

func (r *fakeRecorder) Close() error { return nil }

type rejectingBroker struct{}

func (rejectingBroker) Name() string { return "rejecting" }
func (rejectingBroker) PlaceMarket(context.Context, string, float64) (*broker.PlacedOrder, error) {
	return nil, errors.New("market closed")
}
func (rejectingBroker) PlaceStop(context.Context, string, float64, float64) (*broker.PlacedOrder, error) {
	return nil, errors.New("market closed")
}
func (rejectingBroker) PlaceLimit(context.Context, string, float64, float64) (*broker.PlacedOrder, error) {
	return nil, errors.New("market closed")
}

type fakeSource struct {
	bar   model.OHLCV
	err   error
	calls int
}

func (s *fakeSource) Latest(string) (model.OHLCV, error) {
	s.calls++
	return s.bar, s.err
}

func ohlc(high, low float64) model.OHLCV {
	return model.OHLCV{Open: (high + low) / 2, High: high, Low: low, Close: (high + low) / 2}
}

// bearishData holds a bearish gap, a lower-high / lower-low close and a
// previous day high of 1.0950.
func bearishData() *fakeData {
	return &fakeData{
		minute: []model.OHLCV{
			ohlc(1.1010, 1.1000), ohlc(1.0985, 1.0975), ohlc(1.0970, 1.0960),
			ohlc(1.0968, 1.0950), ohlc(1.0965, 1.0945), ohlc(1.0960, 1.0940),
			ohlc(1.0958, 1.0938), ohlc(1.0962, 1.0940), ohlc(1.0960, 1.0935),
			ohlc(1.0957, 1.0930),
		},
		daily: []model.OHLCV{
			ohlc(1.0980, 1.0910), ohlc(1.0975, 1.0905), ohlc(1.0970, 1.0920),
			ohlc(1.0965, 1.0915), ohlc(1.0950, 1.0900),
		},
	}
}

func at(day, hh, mm int) time.Time {
	return time.Date(2024, 1, day, hh, mm, 0, 0, time.UTC)
}

func closeAt(t time.Time, price float64) model.OHLCV {
	return model.OHLCV{Time: t, Open: price, High: price, Low: price, Close: price}
}

type fixture struct {
	sched *Scheduler
	fund  *fund.Manager
	rec   *fakeRecorder
	note  *fakeNotifier
}

func newFixture(t *testing.T, data strategy.MarketData, ind strategy.Indicator, b func(*fund.Manager) broker.Broker) *fixture {
	t.Helper()
	fm, err := fund.NewManager("", 100000, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	eng, err := strategy.NewEngine(strategy.DefaultParams(), data, ind, fm, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{fund: fm, rec: &fakeRecorder{}, note: &fakeNotifier{}}
	f.sched = NewScheduler(context.Background(), "EURUSD", eng, &fakeSource{}, fm, b(fm), f.note, f.rec, zerolog.Nop())
	return f
}

func paper(fm *fund.Manager) broker.Broker { return broker.NewPaperBroker(fm) }

func (f *fixture) bearishSetup(day int) {
	for _, b := range []model.OHLCV{
		closeAt(at(day, 0, 0), 1.0970),
		closeAt(at(day, 1, 0), 1.0990),
		closeAt(at(day, 2, 0), 1.0950),
		closeAt(at(day, 4, 59), 1.0960),
		closeAt(at(day, 6, 15), 1.0940),
		closeAt(at(day, 7, 0), 1.0995),
		closeAt(at(day, 13, 30), 1.0955),
	} {
		f.sched.ProcessBar(b)
	}
}

func TestScheduler_TradeLifecycle(t *testing.T) {
	f := newFixture(t, bearishData(), fakeATR(0.0015), paper)
	f.bearishSetup(2)

	if len(f.rec.plans) != 1 || !f.rec.plans[0].Accepted || f.rec.plans[0].Day != "2024-01-02" {
		t.Fatalf("expected one accepted plan, got %+v", f.rec.plans)
	}
	acct := f.fund.GetState()
	if acct.Open == nil {
		t.Fatal("expected an open position")
	}
	if acct.Open.Direction != model.Bearish || acct.Open.Quantity != 806451.61 || acct.Open.Entry != 1.0955 {
		t.Errorf("unexpected position %+v", acct.Open)
	}
	if math.Abs(acct.Open.StopLoss-1.09426) > 1e-9 || math.Abs(acct.Open.TakeProfit-1.0925) > 1e-9 {
		t.Errorf("stop and target not attached: %+v", acct.Open)
	}
	if len(f.note.messages) != 1 || !strings.Contains(f.note.messages[0], "BEARISH") {
		t.Errorf("expected a trade notification, got %q", f.note.messages)
	}

	// Next bar trades through the target without touching the stop.
	f.sched.ProcessBar(model.OHLCV{Time: at(2, 13, 31), Open: 1.0930, High: 1.0935, Low: 1.0920, Close: 1.0922})
	if len(f.rec.closed) != 1 || f.rec.closed[0].Reason != fund.ReasonTakeProfit {
		t.Fatalf("expected a target fill, got %+v", f.rec.closed)
	}
	if want := (1.0955 - 1.0925) * 806451.61; math.Abs(f.rec.closed[0].PnL-want) > 1e-6 {
		t.Errorf("pnl %v, want %v", f.rec.closed[0].PnL, want)
	}
	if f.fund.IsInvested() {
		t.Error("position should be closed")
	}

	f.sched.ProcessBar(closeAt(at(3, 0, 0), 1.0970))
	if len(f.rec.summaries) != 1 {
		t.Fatalf("expected one day summary, got %d", len(f.rec.summaries))
	}
	sum := f.rec.summaries[0]
	if sum.Day != "2024-01-02" || !sum.TradePlaced || sum.FinalPhase != "TRADE_EXECUTED" || sum.Bias != "BEARISH" {
		t.Errorf("unexpected summary %+v", sum)
	}
	if sum.Equity <= 100000 {
		t.Errorf("summary should carry the realized gain, got %v", sum.Equity)
	}
	if !sum.Time.Equal(at(3, 0, 0)) {
		t.Errorf("summary should be stamped with the rollover bar, got %v", sum.Time)
	}
}

// lockCheckingNotifier reports whether the scheduler lock was free while a
// message was being delivered.
type lockCheckingNotifier struct {
	sched     *Scheduler
	sent      int
	heldCount int
}

func (n *lockCheckingNotifier) Send(string) error {
	n.sent++
	if n.sched.mu.TryLock() {
		n.sched.mu.Unlock()
	} else {
		n.heldCount++
	}
	return nil
}

func (n *lockCheckingNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	return n.Send(text)
}

func TestScheduler_NotifiesOutsideLock(t *testing.T) {
	f := newFixture(t, bearishData(), fakeATR(0.0015), paper)
	note := &lockCheckingNotifier{sched: f.sched}
	f.sched.Notifier = note

	f.bearishSetup(2)
	f.sched.ProcessBar(model.OHLCV{Time: at(2, 13, 31), Open: 1.0930, High: 1.0935, Low: 1.0920, Close: 1.0922})

	if note.sent != 2 {
		t.Fatalf("expected plan and fill notifications, got %d", note.sent)
	}
	if note.heldCount != 0 {
		t.Errorf("%d notifications were sent while bar processing held the lock", note.heldCount)
	}
}

func TestScheduler_RejectedOrderIsRecorded(t *testing.T) {
	f := newFixture(t, bearishData(), fakeATR(0.0015), func(*fund.Manager) broker.Broker { return rejectingBroker{} })
	f.bearishSetup(2)

	if len(f.rec.plans) != 1 {
		t.Fatalf("expected one plan, got %d", len(f.rec.plans))
	}
	if p := f.rec.plans[0]; p.Accepted || !strings.Contains(p.Error, "market closed") {
		t.Errorf("expected a rejected plan, got %+v", p)
	}
	if f.fund.IsInvested() {
		t.Error("rejected orders must not open a position")
	}
	if len(f.note.messages) != 1 || !strings.Contains(f.note.messages[0], "failed") {
		t.Errorf("expected a failure notification, got %q", f.note.messages)
	}
}

func TestScheduler_RecordsPhaseEvents(t *testing.T) {
	f := newFixture(t, bearishData(), fakeATR(0), paper)
	f.bearishSetup(2)

	var rejections, transitions int
	for _, evt := range f.rec.events {
		switch evt.Kind {
		case string(strategy.EventRejection):
			rejections++
		case string(strategy.EventTransition):
			transitions++
		}
	}
	if rejections != 1 {
		t.Errorf("expected one rejection for a zero ATR, got %d", rejections)
	}
	// asian open, range closed, bias, rally, zones
	if transitions != 5 {
		t.Errorf("expected 5 transitions, got %d", transitions)
	}
	if len(f.rec.plans) != 0 {
		t.Error("no plan should be recorded")
	}
}

func TestScheduler_PollBarSkipsStaleBars(t *testing.T) {
	f := newFixture(t, bearishData(), fakeATR(0.0015), paper)
	src := &fakeSource{bar: closeAt(at(2, 0, 0), 1.0970)}
	f.sched.Source = src

	f.sched.pollBar()
	n := len(f.rec.events)
	if n == 0 {
		t.Fatal("first poll should process the bar")
	}
	f.sched.pollBar()
	if len(f.rec.events) != n {
		t.Errorf("repeated bar was processed again")
	}

	src.err = errors.New("feed down")
	src.bar = closeAt(at(2, 0, 1), 1.0971)
	f.sched.pollBar()
	if len(f.rec.events) != n || src.calls != 3 {
		t.Errorf("failed poll should not process anything")
	}
}

func TestScheduler_Replay(t *testing.T) {
	var bars []model.OHLCV
	for ts := at(2, 0, 0); !ts.After(at(4, 0, 0)); ts = ts.Add(30 * time.Minute) {
		bars = append(bars, closeAt(ts, 1.1000))
	}
	rf := collector.NewReplayFetcher(bars)
	col := collector.NewCollector(rf, "EURUSD", 14, zerolog.Nop())
	f := newFixture(t, col, col, paper)

	sum, err := f.sched.Replay(context.Background(), rf)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if sum.Bars != len(bars) || sum.Tickets != 0 || sum.FinalEquity != 100000 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if len(f.rec.summaries) != 3 {
		t.Fatalf("expected three day summaries, got %d", len(f.rec.summaries))
	}
	for i, want := range []string{"2024-01-02", "2024-01-03", "2024-01-04"} {
		if f.rec.summaries[i].Day != want {
			t.Errorf("summary %d: day %s, want %s", i, f.rec.summaries[i].Day, want)
		}
	}
	if f.rec.summaries[0].TradePlaced {
		t.Error("flat prices cannot produce a trade")
	}
}

func TestScheduler_ReplaySingleDayRecordsSummary(t *testing.T) {
	var bars []model.OHLCV
	for ts := at(2, 0, 0); ts.Before(at(3, 0, 0)); ts = ts.Add(30 * time.Minute) {
		bars = append(bars, closeAt(ts, 1.1000))
	}
	rf := collector.NewReplayFetcher(bars)
	col := collector.NewCollector(rf, "EURUSD", 14, zerolog.Nop())
	f := newFixture(t, col, col, paper)

	if _, err := f.sched.Replay(context.Background(), rf); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(f.rec.summaries) != 1 {
		t.Fatalf("expected the replayed day to be summarized, got %d summaries", len(f.rec.summaries))
	}
	sum := f.rec.summaries[0]
	if sum.Day != "2024-01-02" || !sum.Time.Equal(at(2, 23, 30)) {
		t.Errorf("unexpected summary %+v", sum)
	}
}

func TestScheduler_ReplayCancelled(t *testing.T) {
	rf := collector.NewReplayFetcher([]model.OHLCV{closeAt(at(2, 0, 0), 1.1)})
	f := newFixture(t, bearishData(), fakeATR(0.0015), paper)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sum, err := f.sched.Replay(ctx, rf); !errors.Is(err, context.Canceled) || sum.Bars != 0 {
		t.Errorf("expected cancellation before the first bar, got %+v %v", sum, err)
	}
}

func TestScheduler_HandleCommand(t *testing.T) {
	f := newFixture(t, bearishData(), fakeATR(0.0015), paper)

	if got := f.sched.HandleCommand("/status"); !strings.Contains(got, "No bars") {
		t.Errorf("unexpected status %q", got)
	}
	f.bearishSetup(2)
	if got := f.sched.HandleCommand(" /STATUS "); !strings.Contains(got, "TRADE_EXECUTED") {
		t.Errorf("status should show the executed day, got %q", got)
	}
	if got := f.sched.HandleCommand("/account"); !strings.Contains(got, "BEARISH 806451.61") {
		t.Errorf("account should list the open position, got %q", got)
	}
	if got := f.sched.HandleCommand("/trades"); got != "No closed trades recorded." {
		t.Errorf("unexpected trades reply %q", got)
	}
	f.rec.tradesErr = errors.New("db locked")
	if got := f.sched.HandleCommand("/trades"); !strings.Contains(got, "unavailable") {
		t.Errorf("unexpected trades reply %q", got)
	}
	if got := f.sched.HandleCommand("/bogus"); !strings.Contains(got, "/status") {
		t.Errorf("expected help, got %q", got)
	}
}

func TestSummaryTask(t *testing.T) {
	f := newFixture(t, bearishData(), fakeATR(0.0015), paper)
	f.sched.summaryTask()
	if len(f.note.messages) != 0 {
		t.Error("no summary before the first bar")
	}
	f.sched.ProcessBar(closeAt(at(2, 0, 0), 1.0970))
	f.sched.summaryTask()
	if len(f.note.messages) != 1 || !strings.Contains(f.note.messages[0], "2024-01-02") {
		t.Errorf("unexpected summary %q", f.note.messages)
	}
}

func TestRegisterAll_BadSpec(t *testing.T) {
	f := newFixture(t, bearishData(), fakeATR(0.0015), paper)
	if err := f.sched.RegisterAll("not a cron", "0 30 16 * * 1-5"); err == nil {
		t.Error("expected an invalid bar schedule to fail")
	}
	if err := f.sched.RegisterAll("5 * * * * *", "0 30 16 * * 1-5"); err != nil {
		t.Errorf("valid schedules rejected: %v", err)
	}
}

func TestLabels(t *testing.T) {
	reasons := []struct {
		err  error
		want string
	}{
		{strategy.ErrInvalidATR, "invalid_atr"},
		{strategy.ErrDegenerateSize, "degenerate_size"},
		{errors.New("x"), "other"},
	}
	for _, tt := range reasons {
		if got := rejectionReason(tt.err); got != tt.want {
			t.Errorf("rejectionReason(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
	if got := detectionKind(strategy.ZonesReadyAwaitingKillzone); got != "trade_plan" {
		t.Errorf("detectionKind = %s", got)
	}
	if got := detectionKind(strategy.NoTradeDay); got != "other" {
		t.Errorf("detectionKind = %s", got)
	}
}
