package config

import (
	"os"
	"path/filepath"
	"testing"

	"ICTSentinel/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // keep a stray .env out of the test
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Symbol != "EURUSD" || cfg.Schedule.BarCron != "5 * * * * *" || cfg.Strategy.ATRPeriod != 14 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Sessions.GrabStart != "05:00" {
		t.Errorf("grab window should default to the asian end, got %s", cfg.Sessions.GrabStart)
	}

	p, err := cfg.StrategyParams()
	if err != nil {
		t.Fatal(err)
	}
	if p.Killzone.End != model.MustClock("16:00") || p.RiskFraction != 0.01 || p.PatternWindow != 10 {
		t.Errorf("unexpected params %+v", p)
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
symbol: GBPUSD
timezone: America/New_York
sessions:
  asian_start: "19:00"
  asian_end: "23:59"
  london_end: "23:59"
strategy:
  risk_fraction: 0.02
`)
	t.Setenv("SYMBOL", "USDJPY")
	t.Setenv("RISK_FRACTION", "0.005")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Symbol != "USDJPY" {
		t.Errorf("env should override yaml, got %s", cfg.Symbol)
	}
	if cfg.Strategy.RiskFraction != 0.005 {
		t.Errorf("expected env risk fraction, got %v", cfg.Strategy.RiskFraction)
	}
	if cfg.Timezone != "America/New_York" || cfg.Sessions.AsianStart != "19:00" {
		t.Errorf("yaml values lost: %+v", cfg.Sessions)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TELEGRAM_BOT_TOKEN=abc\nTELEGRAM_CHAT_ID=7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	os.Unsetenv("TELEGRAM_BOT_TOKEN")
	os.Unsetenv("TELEGRAM_CHAT_ID")

	cfg, err := Load(filepath.Join(dir, "none.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.BotToken != "abc" || cfg.Telegram.ChatID != "7" {
		t.Errorf("expected .env values, got %+v", cfg.Telegram)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "symbol: [unterminated")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"bad clock", func(c *Config) { c.Sessions.KillzoneEnd = "25:00" }},
		{"killzone before london end", func(c *Config) { c.Sessions.KillzoneStart = "11:00" }},
		{"risk too large", func(c *Config) { c.Strategy.RiskFraction = 1.5 }},
		{"fib order", func(c *Config) { c.Strategy.OTEFib62 = 0.8 }},
		{"atr period", func(c *Config) { c.Strategy.ATRPeriod = -1 }},
		{"equity", func(c *Config) { c.Fund.InitialEquity = -5 }},
		{"telegram half set", func(c *Config) { c.Telegram.BotToken = "x"; c.Telegram.ChatID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
