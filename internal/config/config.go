package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"ICTSentinel/internal/model"
	"ICTSentinel/internal/strategy"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Symbol   string `yaml:"symbol"`
	Timezone string `yaml:"timezone"`
	Sessions struct {
		AsianStart    string `yaml:"asian_start"`
		AsianEnd      string `yaml:"asian_end"`
		GrabStart     string `yaml:"grab_start"`
		LondonEnd     string `yaml:"london_end"`
		KillzoneStart string `yaml:"killzone_start"`
		KillzoneEnd   string `yaml:"killzone_end"`
	} `yaml:"sessions"`
	Strategy struct {
		RiskFraction   float64 `yaml:"risk_fraction"`
		RewardMultiple float64 `yaml:"reward_multiple"`
		OTEFib62       float64 `yaml:"ote_fib62"`
		OTEFib79       float64 `yaml:"ote_fib79"`
		PatternWindow  int     `yaml:"pattern_window"`
		ATRPeriod      int     `yaml:"atr_period"`
	} `yaml:"strategy"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		CSVPath string `yaml:"csv_path"`
	} `yaml:"data_source"`
	Schedule struct {
		BarCron     string `yaml:"bar_cron"`
		SummaryCron string `yaml:"summary_cron"`
	} `yaml:"schedule"`
	Fund struct {
		InitialEquity float64 `yaml:"initial_equity"`
		StateFile     string  `yaml:"state_file"`
	} `yaml:"fund"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then .env, then environment variable
// overrides, then fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Missing .env is fine.
	_ = godotenv.Load()

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	setString("SYMBOL", &c.Symbol)
	setString("TIMEZONE", &c.Timezone)
	setString("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	setString("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	setString("VSTRADER_BASE_URL", &c.DataSource.BaseURL)
	setString("VSTRADER_API_KEY", &c.DataSource.APIKey)
	setString("REPLAY_CSV", &c.DataSource.CSVPath)
	setString("HTTPS_PROXY", &c.Proxy)
	setString("CRON_BAR", &c.Schedule.BarCron)
	setString("CRON_SUMMARY", &c.Schedule.SummaryCron)
	setString("SQLITE_PATH", &c.Database.SQLitePath)
	setString("FUND_STATE_FILE", &c.Fund.StateFile)
	setString("METRICS_ADDR", &c.Metrics.Addr)
	setString("LOG_LEVEL", &c.Log.Level)
	setFloat("INITIAL_EQUITY", &c.Fund.InitialEquity)
	setFloat("RISK_FRACTION", &c.Strategy.RiskFraction)
}

func (c *Config) applyDefaults() {
	def := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	def(&c.Symbol, "EURUSD")
	def(&c.Timezone, "UTC")
	def(&c.Sessions.AsianStart, "00:00")
	def(&c.Sessions.AsianEnd, "05:00")
	def(&c.Sessions.GrabStart, c.Sessions.AsianEnd)
	def(&c.Sessions.LondonEnd, "12:00")
	def(&c.Sessions.KillzoneStart, "13:00")
	def(&c.Sessions.KillzoneEnd, "16:00")
	def(&c.Schedule.BarCron, "5 * * * * *")
	def(&c.Schedule.SummaryCron, "0 30 16 * * 1-5")
	def(&c.Fund.StateFile, "data/account_state.json")
	def(&c.Database.SQLitePath, "data/ict_sentinel.db")
	def(&c.Metrics.Addr, ":9102")
	def(&c.Log.Level, "info")

	if c.Strategy.RiskFraction == 0 {
		c.Strategy.RiskFraction = 0.01
	}
	if c.Strategy.RewardMultiple == 0 {
		c.Strategy.RewardMultiple = 2
	}
	if c.Strategy.OTEFib62 == 0 {
		c.Strategy.OTEFib62 = 0.62
	}
	if c.Strategy.OTEFib79 == 0 {
		c.Strategy.OTEFib79 = 0.79
	}
	if c.Strategy.PatternWindow == 0 {
		c.Strategy.PatternWindow = 10
	}
	if c.Strategy.ATRPeriod == 0 {
		c.Strategy.ATRPeriod = 14
	}
	if c.Fund.InitialEquity == 0 {
		c.Fund.InitialEquity = 100000
	}
}

// Validate checks ranges and session ordering.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.Strategy.ATRPeriod < 1 {
		return fmt.Errorf("strategy.atr_period must be >= 1")
	}
	if c.Fund.InitialEquity <= 0 {
		return fmt.Errorf("fund.initial_equity must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := c.StrategyParams(); err != nil {
		return err
	}
	return nil
}

// StrategyParams converts the configuration into engine parameters.
func (c *Config) StrategyParams() (strategy.Params, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return strategy.Params{}, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}

	clocks := map[string]string{
		"sessions.asian_start":    c.Sessions.AsianStart,
		"sessions.asian_end":      c.Sessions.AsianEnd,
		"sessions.grab_start":     c.Sessions.GrabStart,
		"sessions.london_end":     c.Sessions.LondonEnd,
		"sessions.killzone_start": c.Sessions.KillzoneStart,
		"sessions.killzone_end":   c.Sessions.KillzoneEnd,
	}
	parsed := make(map[string]model.ClockTime, len(clocks))
	for key, v := range clocks {
		ct, err := model.ParseClock(v)
		if err != nil {
			return strategy.Params{}, fmt.Errorf("%s: %w", key, err)
		}
		parsed[key] = ct
	}

	p := strategy.Params{
		Symbol:   c.Symbol,
		Location: loc,
		Asian: model.SessionWindow{Name: "asian",
			Start: parsed["sessions.asian_start"], End: parsed["sessions.asian_end"]},
		Grab: model.SessionWindow{Name: "london",
			Start: parsed["sessions.grab_start"], End: parsed["sessions.london_end"]},
		Killzone: model.SessionWindow{Name: "ny_killzone",
			Start: parsed["sessions.killzone_start"], End: parsed["sessions.killzone_end"]},
		RiskFraction:   c.Strategy.RiskFraction,
		RewardMultiple: c.Strategy.RewardMultiple,
		Fib62:          c.Strategy.OTEFib62,
		Fib79:          c.Strategy.OTEFib79,
		PatternWindow:  c.Strategy.PatternWindow,
	}
	if err := p.Validate(); err != nil {
		return strategy.Params{}, fmt.Errorf("strategy config: %w", err)
	}
	return p, nil
}
