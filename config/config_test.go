package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Maanicadatta/Batua/budget"
	"github.com/Maanicadatta/Batua/config"
	"github.com/Maanicadatta/Batua/money"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "INR", cfg.Display.DefaultCurrency)
	assert.Equal(t, "new", cfg.Tax.DefaultRegime)
	assert.Equal(t, 10*time.Second, cfg.MarketData.Timeout.Duration)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	doc := `
[server]
addr = ":9000"
db_path = "/tmp/b.db"

[market_data]
timeout = "3s"

[display]
default_currency = "USD"
[display.rates]
USD = 0.0125

[tax]
default_regime = "old"

[budget.ratios]
savings = 0.10
spending = 0.50

[log]
level = "debug"
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	t.Setenv("TWELVE_DATA_API_KEY", "k-123")
	t.Setenv("BATUA_DB", ":memory:")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, ":memory:", cfg.Server.DBPath)
	assert.Equal(t, "k-123", cfg.MarketData.APIKey)
	assert.Equal(t, 3*time.Second, cfg.MarketData.Timeout.Duration)

	rate, err := cfg.RateTable().Rate(money.USD)
	require.NoError(t, err)
	assert.Equal(t, "0.0125", rate.String())

	ratios, err := cfg.SuggestRatios()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.5").Equal(ratios[budget.Spending]))
	assert.True(t, decimal.RequireFromString("0.15").Equal(ratios[budget.Taxes]))

	log := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestLoad_PortThenAddr(t *testing.T) {
	t.Setenv("PORT", "7000")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)

	t.Setenv("BATUA_ADDR", "127.0.0.1:7100")
	cfg, err = config.Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7100", cfg.Server.Addr)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\naddr="), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*config.Config){
		"currency":  func(c *config.Config) { c.Display.DefaultCurrency = "GBP" },
		"rate":      func(c *config.Config) { c.Display.Rates["USD"] = 0 },
		"regime":    func(c *config.Config) { c.Tax.DefaultRegime = "Old Regime!" },
		"ratios":    func(c *config.Config) { c.Budget.Ratios["spending"] = 0.9 },
		"bucket":    func(c *config.Config) { c.Budget.Ratios["rent"] = 0.1 },
		"cron":      func(c *config.Config) { c.FX.Enabled = true; c.FX.RefreshCron = "every day" },
		"log level": func(c *config.Config) { c.Log.Level = "loud" },
		"format":    func(c *config.Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		cfg := config.DefaultConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := config.DefaultConfig()
	cfg.Server.Addr = ":8181"
	cfg.FX.Enabled = true

	require.NoError(t, config.Save(cfg, path))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8181", got.Server.Addr)
	assert.True(t, got.FX.Enabled)
	assert.Equal(t, cfg.MarketData.Timeout, got.MarketData.Timeout)
}
