package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vitos/breakout_monitor/internal/usecase"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Exchange struct {
		RESTEndpoint     string  `yaml:"rest_endpoint"`
		APIKey           string  `yaml:"api_key"`
		APISecret        string  `yaml:"api_secret"`
		RequestTimeoutMs int     `yaml:"request_timeout_ms"`
		RateLimitRPS     float64 `yaml:"rate_limit_rps"`
		RateLimitBurst   int     `yaml:"rate_limit_burst"`
		BreakerFailures  uint32  `yaml:"breaker_failures"`
		BreakerOpenSec   int     `yaml:"breaker_open_sec"`
	} `yaml:"exchange"`
	Telegram struct {
		APIEndpoint string `yaml:"api_endpoint"`
		BotToken    string `yaml:"bot_token"`
		ChatID      string `yaml:"chat_id"`
		TimeoutMs   int    `yaml:"timeout_ms"`
	} `yaml:"telegram"`
	Monitor struct {
		IntervalSec              int                `yaml:"interval_sec"`
		AlignToClock             bool               `yaml:"align_to_clock"`
		SettleDelaySec           int                `yaml:"settle_delay_sec"`
		QuoteAsset               string             `yaml:"quote_asset"`
		CandleInterval           string             `yaml:"candle_interval"`
		Tiers                    usecase.TierLimits `yaml:"tiers"`
		FirstEvaluation          string             `yaml:"first_evaluation"`
		DedupeAlerts             bool               `yaml:"dedupe_alerts"`
		ResetFirstSeenOnExit     bool               `yaml:"reset_first_seen_on_exit"`
		PersistenceThresholdHour int                `yaml:"persistence_threshold_hours"`
	} `yaml:"monitor"`
	Setup struct {
		Mode                    string `yaml:"mode"`
		usecase.SetupThresholds `yaml:",inline"`
	} `yaml:"setup"`
	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"logging"`
	Server struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		JournalPath string `yaml:"journal_path"`
	} `yaml:"storage"`
}

// Default returns the configuration used for any key the file leaves out.
func Default() *Config {
	var cfg Config
	cfg.Exchange.RESTEndpoint = "https://fapi.binance.com"
	cfg.Exchange.RequestTimeoutMs = 10000
	cfg.Exchange.RateLimitRPS = 10
	cfg.Exchange.RateLimitBurst = 20
	cfg.Exchange.BreakerFailures = 5
	cfg.Exchange.BreakerOpenSec = 60

	cfg.Telegram.APIEndpoint = "https://api.telegram.org"
	cfg.Telegram.TimeoutMs = 10000

	cfg.Monitor.IntervalSec = 900
	cfg.Monitor.AlignToClock = true
	cfg.Monitor.SettleDelaySec = 5
	cfg.Monitor.QuoteAsset = "USDT"
	cfg.Monitor.CandleInterval = "1h"
	cfg.Monitor.Tiers = usecase.TierLimits{Large: 10, Mid: 10, Low: 10}
	cfg.Monitor.FirstEvaluation = string(usecase.FirstEvaluationSkip)
	cfg.Monitor.PersistenceThresholdHour = 48

	cfg.Setup.Mode = string(usecase.SetupAnnotate)
	cfg.Setup.SetupThresholds = usecase.DefaultSetupThresholds()

	cfg.Logging.Level = "info"
	cfg.Logging.File = "logs/breakout_alerts.log"
	cfg.Logging.MaxSizeMB = 10
	cfg.Logging.MaxBackups = 3
	cfg.Logging.MaxAgeDays = 28

	cfg.Server.Enabled = true
	cfg.Server.Port = 8080

	cfg.Storage.JournalPath = ":memory:"
	return &cfg
}

// Load reads path over the defaults, loads .env if present and applies
// environment overrides. A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("BREAKOUT_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("BREAKOUT_TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("BREAKOUT_API_KEY"); v != "" {
		cfg.Exchange.APIKey = v
	}
	if v := os.Getenv("BREAKOUT_API_SECRET"); v != "" {
		cfg.Exchange.APISecret = v
	}
	if v := os.Getenv("BREAKOUT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Exchange.RESTEndpoint, "http://") && !strings.HasPrefix(c.Exchange.RESTEndpoint, "https://") {
		return fmt.Errorf("invalid exchange REST endpoint: %q", c.Exchange.RESTEndpoint)
	}
	if c.Monitor.IntervalSec <= 0 {
		return fmt.Errorf("monitor interval must be positive")
	}
	if c.Monitor.QuoteAsset == "" {
		return fmt.Errorf("quote asset is required")
	}
	t := c.Monitor.Tiers
	if t.Large < 0 || t.Mid < 0 || t.Low < 0 || t.Total() == 0 {
		return fmt.Errorf("tier limits must be non-negative with at least one symbol: %+v", t)
	}
	if _, err := usecase.ParseFirstEvaluation(c.Monitor.FirstEvaluation); err != nil {
		return err
	}
	if _, err := usecase.ParseSetupMode(c.Setup.Mode); err != nil {
		return err
	}
	if c.Setup.Lookback < 3 {
		return fmt.Errorf("setup lookback must be at least 3, got %d", c.Setup.Lookback)
	}
	if c.Setup.CompressionRatio <= 0 || c.Setup.MaxPriceMove <= 0 {
		return fmt.Errorf("setup ratios must be positive")
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// MonitorConfig converts the file settings into the monitor's configuration.
// Call it on a validated Config.
func (c *Config) MonitorConfig() usecase.MonitorConfig {
	firstEval, _ := usecase.ParseFirstEvaluation(c.Monitor.FirstEvaluation)
	mode, _ := usecase.ParseSetupMode(c.Setup.Mode)
	return usecase.MonitorConfig{
		Interval:             time.Duration(c.Monitor.IntervalSec) * time.Second,
		AlignToClock:         c.Monitor.AlignToClock,
		SettleDelay:          time.Duration(c.Monitor.SettleDelaySec) * time.Second,
		QuoteAsset:           c.Monitor.QuoteAsset,
		CandleInterval:       c.Monitor.CandleInterval,
		Tiers:                c.Monitor.Tiers,
		FirstEvaluation:      firstEval,
		DedupeAlerts:         c.Monitor.DedupeAlerts,
		ResetFirstSeenOnExit: c.Monitor.ResetFirstSeenOnExit,
		PersistenceThreshold: time.Duration(c.Monitor.PersistenceThresholdHour) * time.Hour,
		SetupMode:            mode,
		Setup:                c.Setup.SetupThresholds,
	}
}
