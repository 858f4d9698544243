package notifier

import (
	"fmt"
	"strings"

	"ICTSentinel/internal/model"
	"ICTSentinel/internal/strategy"
)

// FormatTradePlan formats a new trade plan and its submission outcome.
func FormatTradePlan(symbol, day string, plan model.TradePlan, execErr error) string {
	var b strings.Builder

	icon := "🟢"
	if plan.Direction == model.Bearish {
		icon = "🔴"
	}
	b.WriteString(fmt.Sprintf("%s <b>ICTSentinel %s %s</b> | %s\n\n", icon, symbol, plan.Direction, day))
	b.WriteString(fmt.Sprintf("Entry: %.5f\n", plan.Entry))
	b.WriteString(fmt.Sprintf("Stop: %.5f\n", plan.StopLoss))
	b.WriteString(fmt.Sprintf("Target: %.5f\n", plan.TakeProfit))
	b.WriteString(fmt.Sprintf("Quantity: %.2f\n", plan.Quantity))
	b.WriteString(fmt.Sprintf("ATR: %.5f\n", plan.ATR))
	b.WriteString(fmt.Sprintf("Time: %s\n", plan.CreatedAt.Format("2006-01-02 15:04")))

	if execErr != nil {
		b.WriteString(fmt.Sprintf("\n⚠️ Order submission failed: %v\n", execErr))
	}
	return b.String()
}

// FormatClosedTrade formats a stop or target fill.
func FormatClosedTrade(trade model.ClosedTrade) string {
	icon := "✅"
	if trade.PnL < 0 {
		icon = "❌"
	}
	pos := trade.Position
	return fmt.Sprintf("%s <b>%s closed</b> (%s)\n\n%s %.2f @ %.5f → %.5f\nPnL: %+.2f\n",
		icon, pos.Symbol, trade.Reason, pos.Direction, pos.Quantity, pos.Entry, trade.Exit, trade.PnL)
}

// FormatDaySummary formats the outcome of a finished trading day.
func FormatDaySummary(day strategy.DayState, acct model.AccountState) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Day summary</b> | %s\n\n", day.Day))
	b.WriteString(fmt.Sprintf("Final phase: %s\n", day.Phase))
	writeDayDetail(&b, day)
	b.WriteString(fmt.Sprintf("\nEquity: %.2f (realized %+.2f)\n", acct.Equity, acct.RealizedPnL))
	return b.String()
}

// FormatStatus formats the live engine snapshot for /status.
func FormatStatus(symbol string, snap strategy.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧭 <b>%s status</b>\n\n", symbol))
	if snap.Day.Day == "" {
		b.WriteString("No bars processed yet.\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Day: %s\n", snap.Day.Day))
	b.WriteString(fmt.Sprintf("Phase: %s\n", snap.Day.Phase))
	writeDayDetail(&b, snap.Day)

	lv := snap.Levels
	if lv.HasDay {
		b.WriteString(fmt.Sprintf("PDH/PDL: %.5f / %.5f\n", lv.PrevDayHigh, lv.PrevDayLow))
	}
	if lv.HasWeek {
		b.WriteString(fmt.Sprintf("PWH/PWL: %.5f / %.5f\n", lv.PrevWeekHigh, lv.PrevWeekLow))
	}
	b.WriteString(fmt.Sprintf("Last bar: %s\n", snap.LastBar.Format("2006-01-02 15:04")))
	return b.String()
}

func writeDayDetail(b *strings.Builder, day strategy.DayState) {
	if day.Range.Set {
		b.WriteString(fmt.Sprintf("Asian range: %.5f - %.5f\n", day.Range.Low, day.Range.High))
	}
	b.WriteString(fmt.Sprintf("Bias: %s\n", day.Bias))
	b.WriteString(fmt.Sprintf("Grab: %v | Rally: %v\n", day.LiquidityGrabbed, day.RallyConfirmed))
	if day.FVG != nil {
		b.WriteString(fmt.Sprintf("FVG: %.5f - %.5f\n", day.FVG.Lower, day.FVG.Upper))
	}
	if day.OTE != nil {
		b.WriteString(fmt.Sprintf("OTE: 62%% %.5f | 79%% %.5f\n", day.OTE.Fib62, day.OTE.Fib79))
	}
	if day.Plan != nil {
		b.WriteString(fmt.Sprintf("Trade: %s %.2f @ %.5f\n", day.Plan.Direction, day.Plan.Quantity, day.Plan.Entry))
	}
}

// FormatAccount formats the paper account for /account.
func FormatAccount(acct model.AccountState) string {
	var b strings.Builder
	b.WriteString("📦 <b>Account</b>\n\n")
	b.WriteString(fmt.Sprintf("Equity: %.2f\n", acct.Equity))
	b.WriteString(fmt.Sprintf("Initial: %.2f\n", acct.InitialEquity))
	b.WriteString(fmt.Sprintf("Realized PnL: %+.2f\n", acct.RealizedPnL))
	winRate := 0.0
	if acct.ClosedTrades > 0 {
		winRate = float64(acct.Wins) / float64(acct.ClosedTrades) * 100
	}
	b.WriteString(fmt.Sprintf("Closed trades: %d (win rate %.0f%%)\n", acct.ClosedTrades, winRate))
	if p := acct.Open; p != nil {
		b.WriteString(fmt.Sprintf("Open: %s %.2f @ %.5f (SL %.5f / TP %.5f)\n",
			p.Direction, p.Quantity, p.Entry, p.StopLoss, p.TakeProfit))
	} else {
		b.WriteString("Open: none\n")
	}
	if !acct.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Updated: %s\n", acct.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatRecentTrades formats closed trades, newest first.
func FormatRecentTrades(trades []model.ClosedTrade) string {
	if len(trades) == 0 {
		return "No closed trades recorded."
	}
	var b strings.Builder
	b.WriteString("📜 <b>Recent trades</b>\n\n")
	for _, t := range trades {
		b.WriteString(fmt.Sprintf("%s %s %s %+.2f (%s)\n",
			t.ClosedAt.Format("01-02 15:04"), t.Position.Symbol, t.Position.Direction, t.PnL, t.Reason))
	}
	return b.String()
}

// FormatHelp lists the chat commands.
func FormatHelp() string {
	return "/status - current day phase and zones\n" +
		"/account - paper account\n" +
		"/trades - recent closed trades\n" +
		"/help - this message"
}
