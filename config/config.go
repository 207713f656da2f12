// Package config loads Batua settings from a TOML file with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Maanicadatta/Batua/budget"
	"github.com/Maanicadatta/Batua/money"
	"github.com/Maanicadatta/Batua/tax"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Config holds all Batua configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	MarketData MarketDataConfig `toml:"market_data"`
	Display    DisplayConfig    `toml:"display"`
	FX         FXConfig         `toml:"fx"`
	Tax        TaxConfig        `toml:"tax"`
	Budget     BudgetConfig     `toml:"budget"`
	Log        LogConfig        `toml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
	DBPath         string   `toml:"db_path"`
}

// MarketDataConfig holds Twelve Data settings.
type MarketDataConfig struct {
	BaseURL string   `toml:"base_url"`
	APIKey  string   `toml:"api_key,omitempty"`
	Timeout Duration `toml:"timeout"`
}

// DisplayConfig holds display currency settings. Rates are units of the
// currency per 1 INR.
type DisplayConfig struct {
	DefaultCurrency string             `toml:"default_currency"`
	Rates           map[string]float64 `toml:"rates"`
}

// FXConfig controls the display-rate refresher.
type FXConfig struct {
	Enabled     bool   `toml:"enabled"`
	RefreshCron string `toml:"refresh_cron"`
}

// TaxConfig holds tax defaults.
type TaxConfig struct {
	DefaultRegime string `toml:"default_regime"`
	RegimesFile   string `toml:"regimes_file,omitempty"`
}

// BudgetConfig holds the suggested plan ratios as fractions.
type BudgetConfig struct {
	Ratios map[string]float64 `toml:"ratios"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Duration is a time.Duration written as "10s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	rates := make(map[string]float64)
	for c, r := range money.DefaultRates() {
		rates[string(c)] = r.InexactFloat64()
	}
	ratios := make(map[string]float64)
	for b, r := range budget.DefaultRatios() {
		ratios[string(b)] = r.InexactFloat64()
	}

	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
			DBPath:         "./data/batua.db",
		},
		MarketData: MarketDataConfig{
			BaseURL: "https://api.twelvedata.com",
			Timeout: Duration{10 * time.Second},
		},
		Display: DisplayConfig{
			DefaultCurrency: string(money.INR),
			Rates:           rates,
		},
		FX: FXConfig{
			Enabled:     false,
			RefreshCron: "@every 6h",
		},
		Tax: TaxConfig{
			DefaultRegime: string(tax.RegimeNew),
		},
		Budget: BudgetConfig{
			Ratios: ratios,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "batua")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "batua")
}

// ConfigPath returns the full path to the default config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file at path (ConfigPath when empty), returning
// defaults if it doesn't exist. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// Save writes the config to path (ConfigPath when empty).
func Save(cfg Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// applyEnv overlays environment variables. PORT is honoured for hosting
// platforms that assign one; BATUA_ADDR wins over it.
func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if addr := os.Getenv("BATUA_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if db := os.Getenv("BATUA_DB"); db != "" {
		c.Server.DBPath = db
	}
	if key := os.Getenv("TWELVE_DATA_API_KEY"); key != "" {
		c.MarketData.APIKey = key
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		c.Log.Level = lvl
	}
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return &money.InvalidInputError{Field: "server.addr", Reason: "required"}
	}
	if _, err := money.ParseCurrency(c.Display.DefaultCurrency); err != nil {
		return fmt.Errorf("display.default_currency: %w", err)
	}
	for code, rate := range c.Display.Rates {
		if _, err := money.ParseCurrency(code); err != nil {
			return fmt.Errorf("display.rates: %w", err)
		}
		if rate <= 0 {
			return &money.InvalidInputError{Field: "display.rates." + code, Reason: "must be positive"}
		}
	}
	if _, err := tax.ParseRegime(c.Tax.DefaultRegime); err != nil {
		return fmt.Errorf("tax.default_regime: %w", err)
	}
	if _, err := c.SuggestRatios(); err != nil {
		return err
	}
	if c.FX.Enabled {
		if _, err := cron.ParseStandard(c.FX.RefreshCron); err != nil {
			return &money.InvalidInputError{Field: "fx.refresh_cron", Value: c.FX.RefreshCron, Reason: err.Error()}
		}
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return &money.InvalidInputError{Field: "log.level", Value: c.Log.Level, Reason: "unknown level"}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return &money.InvalidInputError{Field: "log.format", Value: c.Log.Format, Reason: "use text or json"}
	}
	return nil
}

// RateTable builds the display rate table from [display].
func (c Config) RateTable() *money.RateTable {
	rates := money.DefaultRates()
	for code, r := range c.Display.Rates {
		cur, err := money.ParseCurrency(code)
		if err != nil || r <= 0 {
			continue
		}
		rates[cur] = decimal.NewFromFloat(r)
	}
	return money.NewRateTable(rates)
}

// SuggestRatios converts [budget] ratios, filling missing buckets from the
// defaults.
func (c Config) SuggestRatios() (budget.Ratios, error) {
	ratios := budget.DefaultRatios()
	for name, r := range c.Budget.Ratios {
		b, err := budget.ParseBucket(name)
		if err != nil {
			return nil, fmt.Errorf("budget.ratios: %w", err)
		}
		ratios[b] = decimal.NewFromFloat(r)
	}
	if err := ratios.Validate(); err != nil {
		return nil, fmt.Errorf("budget.ratios: %w", err)
	}
	return ratios, nil
}

// NewLogger builds the process logger from [log].
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	if strings.EqualFold(c.Log.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
