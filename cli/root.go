// Package cli implements the batua command line: the API server plus
// terminal renderings of the tax calculator and the budget model.
package cli

import (
	"fmt"
	"os"

	"github.com/Maanicadatta/Batua/config"
	"github.com/Maanicadatta/Batua/factory"
	"github.com/Maanicadatta/Batua/money"
	"github.com/Maanicadatta/Batua/tax"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagCurrency string
)

var rootCmd = &cobra.Command{
	Use:           "batua",
	Short:         "Indian income tax and monthly budget calculator",
	Long:          "Batua computes Indian income tax under the old and new regimes, plans monthly budgets and serves the web API.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&flagCurrency, "currency", "", "Display currency (INR, USD, EUR)")
}

// loadConfig is the shared config path used by all commands.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// displayCurrency resolves --currency against the config default.
func displayCurrency(cfg config.Config) (money.Currency, error) {
	code := flagCurrency
	if code == "" {
		code = cfg.Display.DefaultCurrency
	}
	return money.ParseCurrency(code)
}

// newCalculator builds a calculator with the regimes file, if any,
// registered next to the built-ins.
func newCalculator(cfg config.Config) (*tax.Calculator, error) {
	calc := tax.NewCalculator()
	if cfg.Tax.RegimesFile == "" {
		return calc, nil
	}
	schedules, err := factory.NewRegimeFactory().LoadRegimesFile(cfg.Tax.RegimesFile)
	if err != nil {
		return nil, err
	}
	for _, s := range schedules {
		if err := calc.Register(s); err != nil {
			return nil, fmt.Errorf("register %s: %w", s.Regime, err)
		}
	}
	return calc, nil
}
