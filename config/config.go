package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full bot configuration. It is loaded once, validated once,
// and passed explicitly into every component constructor.
type Config struct {
	Symbol    string `yaml:"symbol"`
	Timeframe string `yaml:"timeframe"`
	Expiry    int    `yaml:"expiry"` // option expiry in seconds

	Risk       RiskConfig       `yaml:"risk"`
	Strategies StrategiesConfig `yaml:"strategies"`
	Bandit     BanditConfig     `yaml:"bandit"`
	Model      ModelConfig      `yaml:"model"`
	Backtest   BacktestConfig   `yaml:"backtest"`
	Live       LiveConfig       `yaml:"live"`
	Data       DataConfig       `yaml:"data"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// RiskConfig drives the risk manager. The numeric fields are required:
// Validate rejects a config where they are missing or out of range.
type RiskConfig struct {
	RiskPerTrade         float64 `yaml:"risk_per_trade"`
	DailyLossLimit       float64 `yaml:"daily_loss_limit"`    // fraction or percent, negative
	DailyProfitTarget    float64 `yaml:"daily_profit_target"` // fraction or percent, positive
	MinPayout            float64 `yaml:"min_payout"`
	SafetyMargin         float64 `yaml:"safety_margin"`
	MartingaleEnabled    bool    `yaml:"martingale_enabled"`
	MartingaleMultiplier float64 `yaml:"martingale_multiplier"`
	MartingaleMaxSteps   int     `yaml:"martingale_max_steps"`
}

// StrategiesConfig holds the per-strategy parameters. Enabled strategies are
// instantiated in fixed order: trend, meanrev, breakout.
type StrategiesConfig struct {
	Trend    TrendConfig    `yaml:"trend"`
	MeanRev  MeanRevConfig  `yaml:"meanrev"`
	Breakout BreakoutConfig `yaml:"breakout"`
}

type TrendConfig struct {
	Enabled       bool    `yaml:"enabled"`
	EMAFast       int     `yaml:"ema_fast"`
	EMASlow       int     `yaml:"ema_slow"`
	ATRPeriod     int     `yaml:"atr_period"`
	ATRMultiplier float64 `yaml:"atr_multiplier"`
}

type MeanRevConfig struct {
	Enabled       bool    `yaml:"enabled"`
	RSIPeriod     int     `yaml:"rsi_period"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
}

type BreakoutConfig struct {
	Enabled        bool `yaml:"enabled"`
	DonchianPeriod int  `yaml:"donchian_period"`
}

type BanditConfig struct {
	Enabled bool    `yaml:"enabled"`
	Epsilon float64 `yaml:"epsilon"`
}

// ModelConfig selects the online model backend. Calibration is accepted
// ("platt" | "isotonic") but not applied by the current backends.
type ModelConfig struct {
	Type        string `yaml:"type"` // logistic | ftrl
	Calibration string `yaml:"calibration"`
}

type BacktestConfig struct {
	InitialBalance float64 `yaml:"initial_balance"`
	LatencyMS      int     `yaml:"latency_ms"`
	Slippage       float64 `yaml:"slippage"`
	Seed           int64   `yaml:"seed"`
	StartDate      string  `yaml:"start_date"` // YYYY-MM-DD
	EndDate        string  `yaml:"end_date"`   // YYYY-MM-DD
}

type LiveConfig struct {
	InitialBalance      float64 `yaml:"initial_balance"`
	CheckInterval       int     `yaml:"check_interval"` // seconds between polling cycles
	MaxConcurrentTrades int     `yaml:"max_concurrent_trades"`
}

// DataConfig selects the bar source for backtests and live history.
type DataConfig struct {
	Source      string `yaml:"source"` // synthetic | csv | binance
	CSVPath     string `yaml:"csv_path"`
	BinanceBase string `yaml:"binance_base"`
}

type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config, applies .env/environment overrides, fills
// defaults for the optional sections and validates the result. It fails
// before any component is constructed when a required parameter is missing.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return &cfg, nil
}

// BarSeconds returns the configured timeframe as seconds per bar.
func (c *Config) BarSeconds() int {
	d, err := ParseTimeframe(c.Timeframe)
	if err != nil {
		return 60
	}
	return int(d.Seconds())
}

// CheckInterval returns the live polling cadence as a duration.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Live.CheckInterval) * time.Second
}

// EnabledStrategies returns the names of the enabled strategies in their
// fixed precedence order.
func (c *Config) EnabledStrategies() []string {
	var names []string
	if c.Strategies.Trend.Enabled {
		names = append(names, "trend")
	}
	if c.Strategies.MeanRev.Enabled {
		names = append(names, "meanrev")
	}
	if c.Strategies.Breakout.Enabled {
		names = append(names, "breakout")
	}
	return names
}

// ParseTimeframe converts a timeframe string (1m, 5m, 1h, 1d) to a duration.
func ParseTimeframe(tf string) (time.Duration, error) {
	if len(tf) < 2 {
		return 0, fmt.Errorf("config.ParseTimeframe: invalid timeframe %q", tf)
	}
	n, err := strconv.Atoi(tf[:len(tf)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("config.ParseTimeframe: invalid timeframe %q", tf)
	}
	switch tf[len(tf)-1] {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("config.ParseTimeframe: invalid timeframe %q", tf)
	}
}

// Validate rejects configs that would put the engine in an undefined state.
// Risk numerics and the parameters of every enabled strategy are required.
func (c *Config) Validate() error {
	if _, err := ParseTimeframe(c.Timeframe); err != nil {
		return err
	}
	if c.Expiry <= 0 {
		return fmt.Errorf("config: expiry must be > 0 seconds, got %d", c.Expiry)
	}

	r := c.Risk
	if r.RiskPerTrade <= 0 || r.RiskPerTrade > 1 {
		return fmt.Errorf("config: risk.risk_per_trade must be in (0, 1], got %v", r.RiskPerTrade)
	}
	if r.DailyLossLimit >= 0 {
		return fmt.Errorf("config: risk.daily_loss_limit must be negative, got %v", r.DailyLossLimit)
	}
	if r.DailyProfitTarget <= 0 {
		return fmt.Errorf("config: risk.daily_profit_target must be positive, got %v", r.DailyProfitTarget)
	}
	if r.MinPayout <= 0 || r.MinPayout >= 1 {
		return fmt.Errorf("config: risk.min_payout must be in (0, 1), got %v", r.MinPayout)
	}
	if r.SafetyMargin < 0 || r.SafetyMargin >= 0.5 {
		return fmt.Errorf("config: risk.safety_margin must be in [0, 0.5), got %v", r.SafetyMargin)
	}
	if r.MartingaleEnabled {
		if r.MartingaleMultiplier <= 1 {
			return fmt.Errorf("config: risk.martingale_multiplier must be > 1, got %v", r.MartingaleMultiplier)
		}
		if r.MartingaleMaxSteps < 1 {
			return fmt.Errorf("config: risk.martingale_max_steps must be >= 1, got %d", r.MartingaleMaxSteps)
		}
	}

	if len(c.EnabledStrategies()) == 0 {
		return fmt.Errorf("config: at least one strategy must be enabled")
	}
	if s := c.Strategies.Trend; s.Enabled {
		if s.EMAFast <= 0 || s.EMASlow <= 0 || s.EMAFast >= s.EMASlow {
			return fmt.Errorf("config: strategies.trend requires 0 < ema_fast < ema_slow, got %d/%d", s.EMAFast, s.EMASlow)
		}
		if s.ATRPeriod <= 0 || s.ATRMultiplier <= 0 {
			return fmt.Errorf("config: strategies.trend requires positive atr_period and atr_multiplier")
		}
	}
	if s := c.Strategies.MeanRev; s.Enabled {
		if s.RSIPeriod <= 0 {
			return fmt.Errorf("config: strategies.meanrev requires positive rsi_period")
		}
		if s.RSIOversold <= 0 || s.RSIOverbought >= 100 || s.RSIOversold >= s.RSIOverbought {
			return fmt.Errorf("config: strategies.meanrev requires 0 < rsi_oversold < rsi_overbought < 100")
		}
	}
	if s := c.Strategies.Breakout; s.Enabled {
		if s.DonchianPeriod <= 0 {
			return fmt.Errorf("config: strategies.breakout requires positive donchian_period")
		}
	}

	if c.Bandit.Enabled && (c.Bandit.Epsilon < 0 || c.Bandit.Epsilon > 1) {
		return fmt.Errorf("config: bandit.epsilon must be in [0, 1], got %v", c.Bandit.Epsilon)
	}

	switch c.Model.Type {
	case "logistic", "ftrl":
	default:
		return fmt.Errorf("config: model.type must be logistic or ftrl, got %q", c.Model.Type)
	}
	switch c.Model.Calibration {
	case "", "platt", "isotonic":
	default:
		return fmt.Errorf("config: model.calibration must be platt, isotonic or empty, got %q", c.Model.Calibration)
	}

	if c.Backtest.InitialBalance <= 0 {
		return fmt.Errorf("config: backtest.initial_balance must be > 0, got %v", c.Backtest.InitialBalance)
	}
	if c.Backtest.Slippage < 0 || c.Backtest.Slippage >= 0.1 {
		return fmt.Errorf("config: backtest.slippage must be in [0, 0.1), got %v", c.Backtest.Slippage)
	}

	switch c.Data.Source {
	case "synthetic", "csv", "binance":
	default:
		return fmt.Errorf("config: data.source must be synthetic, csv or binance, got %q", c.Data.Source)
	}
	if c.Data.Source == "csv" && c.Data.CSVPath == "" {
		return fmt.Errorf("config: data.csv_path is required when data.source is csv")
	}

	return nil
}

// applyEnvOverrides overrides selected values from environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BINARYBOT_SYMBOL"); v != "" {
		cfg.Symbol = v
	}
	if v := os.Getenv("BINARYBOT_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults fills the optional sections. Risk numerics and strategy
// parameters are deliberately NOT defaulted: a config that omits them is a
// configuration error, not a bot with invisible risk settings.
func setDefaults(cfg *Config) {
	if cfg.Symbol == "" {
		cfg.Symbol = "EURUSD"
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = "1m"
	}
	if cfg.Expiry == 0 {
		cfg.Expiry = 120
	}
	if cfg.Model.Type == "" {
		cfg.Model.Type = "logistic"
	}
	if cfg.Backtest.InitialBalance == 0 {
		cfg.Backtest.InitialBalance = 1000
	}
	if cfg.Backtest.StartDate == "" {
		cfg.Backtest.StartDate = "2024-01-01"
	}
	if cfg.Backtest.EndDate == "" {
		cfg.Backtest.EndDate = "2024-03-31"
	}
	if cfg.Live.InitialBalance == 0 {
		cfg.Live.InitialBalance = 1000
	}
	if cfg.Live.CheckInterval <= 0 {
		cfg.Live.CheckInterval = 1
	}
	if cfg.Live.MaxConcurrentTrades <= 0 {
		cfg.Live.MaxConcurrentTrades = 1
	}
	if cfg.Data.Source == "" {
		cfg.Data.Source = "synthetic"
	}
	if cfg.Data.BinanceBase == "" {
		cfg.Data.BinanceBase = "https://api.binance.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "binarybot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
