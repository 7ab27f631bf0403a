package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fengyix/stockmon/internal/core"
	"github.com/fengyix/stockmon/internal/quote"
	"github.com/spf13/viper"
)

type Config struct {
	Version  string          `mapstructure:"version" json:"version"`
	Stocks   []core.Position `mapstructure:"stocks" json:"stocks"`
	Settings Settings        `mapstructure:"settings" json:"settings"`
	Metrics  MetricsConfig   `mapstructure:"metrics" json:"metrics"`
	Logging  LoggingConfig   `mapstructure:"logging" json:"logging"`
}

// Settings mirrors the host application's settings object; field names
// follow the wire protocol.
type Settings struct {
	UpdateInterval      int     `mapstructure:"updateInterval" json:"updateInterval"` // seconds
	AutoStart           bool    `mapstructure:"autoStart" json:"autoStart"`
	ShowNotifications   bool    `mapstructure:"showNotifications" json:"showNotifications"`
	PriceAlertThreshold float64 `mapstructure:"priceAlertThreshold" json:"priceAlertThreshold"`
	DataSourcePriority  string  `mapstructure:"dataSourcePriority" json:"dataSourcePriority"`
}

// MetricsConfig holds the optional Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Addr    string `mapstructure:"addr" json:"addr"`
	Path    string `mapstructure:"path" json:"path"`
}

// LoggingConfig holds the optional rotating log file settings. Daemon mode
// reserves stdout for the protocol, so file logging is the only way to keep
// more than stderr.
type LoggingConfig struct {
	File       string `mapstructure:"file" json:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"maxSizeMB"`
	MaxBackups int    `mapstructure:"max_backups" json:"maxBackups"`
	MaxAgeDays int    `mapstructure:"max_age_days" json:"maxAgeDays"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Version: "1.0.0",
		Stocks:  []core.Position{},
		Settings: Settings{
			UpdateInterval:      20,
			AutoStart:           false,
			ShowNotifications:   true,
			PriceAlertThreshold: 5.0,
			DataSourcePriority:  string(quote.PrioritySina),
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9110",
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Settings.UpdateInterval < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("updateInterval must be at least 1 second, got %d", c.Settings.UpdateInterval))
	}

	switch quote.Priority(c.Settings.DataSourcePriority) {
	case quote.PrioritySina, quote.PriorityEastmoney:
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("dataSourcePriority must be %q or %q, got %q",
				quote.PrioritySina, quote.PriorityEastmoney, c.Settings.DataSourcePriority))
	}

	for _, s := range c.Stocks {
		if err := quote.ValidateCode(s.Code); err != nil {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("stock %q: %w", s.Code, err))
		}
		if s.BuyPrice < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("stock %s: buyPrice cannot be negative", s.Code))
		}
		if s.Quantity < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("stock %s: quantity cannot be negative", s.Code))
		}
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("metrics.addr required when metrics are enabled"))
	}

	return nil
}

// Priority returns the configured data source priority.
func (c *Config) Priority() quote.Priority {
	return quote.Priority(c.Settings.DataSourcePriority)
}

// EnabledStocks returns the positions included in fetch and aggregation.
func (c *Config) EnabledStocks() []core.Position {
	out := make([]core.Position, 0, len(c.Stocks))
	for _, s := range c.Stocks {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}
