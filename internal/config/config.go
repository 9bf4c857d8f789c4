// Package config loads and validates the scanner configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/finsignal/emacross/internal/models"
)

// Config represents the complete application configuration.
type Config struct {
	MarketData MarketDataConfig `mapstructure:"marketdata"`
	Scanner    ScannerConfig    `mapstructure:"scanner"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// MarketDataConfig holds the price series provider configuration.
type MarketDataConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// ScannerConfig holds the monitoring window, cadence, and dedup behavior.
type ScannerConfig struct {
	StartHour          int                      `mapstructure:"start_hour"`
	EndHour            int                      `mapstructure:"end_hour"`
	Timezone           string                   `mapstructure:"timezone"`
	TickInterval       time.Duration            `mapstructure:"tick_interval"`
	EMASpan            int                      `mapstructure:"ema_span"`
	MinBars            int                      `mapstructure:"min_bars"`
	CooldownMultiplier int                      `mapstructure:"cooldown_multiplier"`
	Groups             []models.InstrumentGroup `mapstructure:"groups"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds alert persistence configuration.
type StorageConfig struct {
	DBPath    string `mapstructure:"db_path"`
	MaxAlerts int    `mapstructure:"max_alerts"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("EMACROSS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Scanner.Groups) == 0 {
		cfg.Scanner.Groups = DefaultGroups()
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("marketdata.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("marketdata.timeout", "15s")
	v.SetDefault("marketdata.max_retries", 3)
	v.SetDefault("marketdata.retry_delay_base", "1s")

	// Monitoring window 20:00-11:00 US Eastern, wrapping midnight.
	v.SetDefault("scanner.start_hour", 20)
	v.SetDefault("scanner.end_hour", 11)
	v.SetDefault("scanner.timezone", "America/New_York")
	v.SetDefault("scanner.tick_interval", "10s")
	v.SetDefault("scanner.ema_span", 100)
	v.SetDefault("scanner.min_bars", 100)
	v.SetDefault("scanner.cooldown_multiplier", 1)

	v.SetDefault("telegram.enabled", true)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("storage.db_path", "")
	v.SetDefault("storage.max_alerts", 1000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// DefaultGroups returns the built-in instrument catalog used when the config
// file names no groups: metals and index futures on a 5m cadence, forex majors
// and crosses on a 15m cadence.
func DefaultGroups() []models.InstrumentGroup {
	return []models.InstrumentGroup{
		{
			Name:         "metals-indices",
			Interval:     models.Interval5m,
			EveryMinutes: 5,
			Symbols: []string{
				"XAUUSD=X", "XAGUSD=X", "YM=F", "NQ=F", "ES=F",
			},
		},
		{
			Name:         "forex",
			Interval:     models.Interval15m,
			EveryMinutes: 15,
			Symbols: []string{
				"DX-Y.NYB", "EURUSD=X", "GBPUSD=X", "USDCHF=X",
				"EURAUD=X", "GBPAUD=X", "AUDCHF=X", "AUDUSD=X",
				"NZDUSD=X", "EURCAD=X", "GBPCAD=X", "CADCHF=X",
				"EURJPY=X", "GBPJPY=X", "CHFJPY=X",
			},
		},
	}
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	if c.MarketData.BaseURL == "" {
		return fmt.Errorf("marketdata.base_url is required")
	}
	if c.MarketData.Timeout < time.Second {
		return fmt.Errorf("marketdata.timeout must be at least 1 second")
	}
	if c.MarketData.MaxRetries < 1 {
		return fmt.Errorf("marketdata.max_retries must be at least 1")
	}

	if c.Scanner.StartHour < 0 || c.Scanner.StartHour > 23 {
		return fmt.Errorf("scanner.start_hour must be between 0 and 23")
	}
	if c.Scanner.EndHour < 0 || c.Scanner.EndHour > 23 {
		return fmt.Errorf("scanner.end_hour must be between 0 and 23")
	}
	if c.Scanner.Timezone == "" {
		return fmt.Errorf("scanner.timezone is required")
	}
	if c.Scanner.TickInterval < time.Second {
		return fmt.Errorf("scanner.tick_interval must be at least 1 second")
	}
	if c.Scanner.EMASpan < 2 {
		return fmt.Errorf("scanner.ema_span must be at least 2")
	}
	if c.Scanner.MinBars < c.Scanner.EMASpan {
		return fmt.Errorf("scanner.min_bars must be at least scanner.ema_span")
	}
	if c.Scanner.CooldownMultiplier < 0 {
		return fmt.Errorf("scanner.cooldown_multiplier must not be negative")
	}
	if len(c.Scanner.Groups) == 0 {
		return fmt.Errorf("scanner.groups must contain at least one group")
	}
	for i := range c.Scanner.Groups {
		if err := c.Scanner.Groups[i].Validate(); err != nil {
			return fmt.Errorf("scanner.groups: %w", err)
		}
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	if c.Storage.MaxAlerts < 1 {
		return fmt.Errorf("storage.max_alerts must be at least 1")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
