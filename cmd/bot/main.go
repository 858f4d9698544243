package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ICTSentinel/internal/broker"
	"ICTSentinel/internal/collector"
	"ICTSentinel/internal/config"
	"ICTSentinel/internal/fund"
	"ICTSentinel/internal/metrics"
	"ICTSentinel/internal/notifier"
	"ICTSentinel/internal/recorder"
	"ICTSentinel/internal/scheduler"
	"ICTSentinel/internal/strategy"

	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("config validation")
	}
	if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		logger = logger.Level(lvl)
	} else {
		logger.Warn().Str("level", cfg.Log.Level).Msg("unknown log level, keeping debug")
	}
	logger.Info().Str("symbol", cfg.Symbol).Str("timezone", cfg.Timezone).Msg("ICTSentinel starting")

	params, err := cfg.StrategyParams()
	if err != nil {
		logger.Fatal().Err(err).Msg("strategy params")
	}

	// Replay mode keeps the account in memory and stays silent on Telegram.
	var (
		replay  *collector.ReplayFetcher
		fetcher collector.Fetcher
	)
	switch {
	case cfg.DataSource.CSVPath != "":
		replay, err = collector.NewReplayFetcherFromCSV(cfg.DataSource.CSVPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("load replay csv")
		}
		fetcher = replay
	case cfg.DataSource.BaseURL != "":
		fetcher = collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	logger.Info().Str("source", fetcher.Name()).Msg("data source selected")
	col := collector.NewCollector(fetcher, cfg.Symbol, cfg.Strategy.ATRPeriod, logger)

	stateFile := cfg.Fund.StateFile
	if replay != nil {
		stateFile = ""
	}
	ensureDir(logger, stateFile)
	fm, err := fund.NewManager(stateFile, cfg.Fund.InitialEquity, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init fund manager")
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		ensureDir(logger, cfg.Database.SQLitePath)
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	var (
		note notifier.Notifier = notifier.NoopNotifier{}
		tn   *notifier.TelegramNotifier
	)
	if cfg.Telegram.BotToken != "" && replay == nil {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		note = tn
	}

	eng, err := strategy.NewEngine(params, col, col, fm, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init engine")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.NewScheduler(ctx, cfg.Symbol, eng, col, fm, broker.NewPaperBroker(fm), note, rec, logger)

	if replay != nil {
		sum, err := sched.Replay(ctx, replay)
		if err != nil {
			logger.Error().Err(err).Msg("replay interrupted")
		}
		logger.Info().Int("bars", sum.Bars).Int("tickets", sum.Tickets).
			Int("closed_trades", sum.Account.ClosedTrades).Int("wins", sum.Account.Wins).
			Float64("equity", sum.FinalEquity).Msg("replay summary")
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
	go func() {
		logger.Info().Str("addr", cfg.Metrics.Addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server")
		}
	}()

	if err := sched.RegisterAll(cfg.Schedule.BarCron, cfg.Schedule.SummaryCron); err != nil {
		logger.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info().Msg("telegram polling started")
	}

	logger.Info().Msg("ICTSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	logger.Info().Msg("shutdown signal received, stopping")
	sched.Stop()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("metrics server shutdown")
	}
	logger.Info().Msg("ICTSentinel stopped")
}

func ensureDir(logger zerolog.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("create data directory")
	}
}
