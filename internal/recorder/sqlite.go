package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"ICTSentinel/internal/model"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS phase_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			day        TEXT NOT NULL,
			kind       TEXT NOT NULL,
			from_phase TEXT,
			to_phase   TEXT,
			price      REAL,
			message    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_phase_ts ON phase_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_phase_day ON phase_events(day)`,

		`CREATE TABLE IF NOT EXISTS trade_plans (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			day         TEXT NOT NULL,
			symbol      TEXT,
			direction   TEXT,
			entry       REAL,
			stop_loss   REAL,
			take_profit REAL,
			quantity    REAL,
			atr         REAL,
			accepted    INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_ts ON trade_plans(timestamp)`,

		`CREATE TABLE IF NOT EXISTS closed_trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			position_id TEXT,
			symbol      TEXT,
			direction   TEXT,
			quantity    REAL,
			entry       REAL,
			exit        REAL,
			pnl         REAL,
			reason      TEXT,
			opened_at   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_closed_ts ON closed_trades(timestamp)`,

		`CREATE TABLE IF NOT EXISTS day_summaries (
			day               TEXT PRIMARY KEY,
			timestamp         INTEGER NOT NULL,
			final_phase       TEXT,
			bias              TEXT,
			range_high        REAL,
			range_low         REAL,
			liquidity_grabbed INTEGER,
			rally_confirmed   INTEGER,
			trade_placed      INTEGER,
			equity            REAL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordPhaseEvent(evt *PhaseEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO phase_events
		(timestamp, day, kind, from_phase, to_phase, price, message)
		VALUES (?,?,?,?,?,?,?)`,
		evt.Time.Unix(), evt.Day, evt.Kind, evt.From, evt.To, evt.Price, evt.Message,
	)
	return err
}

func (r *SQLiteRecorder) RecordTradePlan(rec *TradePlanRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := rec.Plan
	_, err := r.db.Exec(`INSERT INTO trade_plans
		(timestamp, day, symbol, direction, entry, stop_loss, take_profit, quantity, atr, accepted, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.CreatedAt.Unix(), rec.Day, rec.Symbol, p.Direction.String(),
		p.Entry, p.StopLoss, p.TakeProfit, p.Quantity, p.ATR,
		boolInt(rec.Accepted), rec.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordClosedTrade(trade *model.ClosedTrade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos := trade.Position
	_, err := r.db.Exec(`INSERT INTO closed_trades
		(timestamp, position_id, symbol, direction, quantity, entry, exit, pnl, reason, opened_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		trade.ClosedAt.Unix(), pos.ID, pos.Symbol, pos.Direction.String(),
		pos.Quantity, pos.Entry, trade.Exit, trade.PnL, trade.Reason, pos.OpenedAt.Unix(),
	)
	return err
}

// RecordDaySummary upserts the summary of a trading day.
func (r *SQLiteRecorder) RecordDaySummary(sum *DaySummary) error {
	ts := sum.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR REPLACE INTO day_summaries
		(day, timestamp, final_phase, bias, range_high, range_low,
		 liquidity_grabbed, rally_confirmed, trade_placed, equity)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		sum.Day, ts.Unix(), sum.FinalPhase, sum.Bias, sum.RangeHigh, sum.RangeLow,
		boolInt(sum.LiquidityGrabbed), boolInt(sum.RallyConfirmed), boolInt(sum.TradePlaced), sum.Equity,
	)
	return err
}

// RecentTrades returns the latest closed trades, newest first.
func (r *SQLiteRecorder) RecentTrades(limit int) ([]model.ClosedTrade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, position_id, symbol, direction, quantity,
		entry, exit, pnl, reason, opened_at
		FROM closed_trades ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query closed trades: %w", err)
	}
	defer rows.Close()

	var out []model.ClosedTrade
	for rows.Next() {
		var (
			t                model.ClosedTrade
			closedAt, opened int64
			direction        string
		)
		if err := rows.Scan(&closedAt, &t.Position.ID, &t.Position.Symbol, &direction,
			&t.Position.Quantity, &t.Position.Entry, &t.Exit, &t.PnL, &t.Reason, &opened); err != nil {
			return nil, fmt.Errorf("scan closed trade: %w", err)
		}
		t.ClosedAt = time.Unix(closedAt, 0).UTC()
		t.Position.OpenedAt = time.Unix(opened, 0).UTC()
		t.Position.Direction = parseBias(direction)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseBias(s string) model.Bias {
	switch s {
	case model.Bullish.String():
		return model.Bullish
	case model.Bearish.String():
		return model.Bearish
	}
	return model.BiasUnset
}
