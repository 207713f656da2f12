package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/Maanicadatta/Batua/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

var flagForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&flagForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func configFile() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	path := configFile()
	fmt.Fprintf(out, "  Config file: %s\n", path)
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintln(out, "  Status: loaded")
	} else {
		fmt.Fprintln(out, "  Status: using defaults (no config file)")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Server]")
	fmt.Fprintf(out, "    Address:  %s\n", cfg.Server.Addr)
	fmt.Fprintf(out, "    Database: %s\n", cfg.Server.DBPath)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Market data]")
	fmt.Fprintf(out, "    Base URL: %s\n", cfg.MarketData.BaseURL)
	if cfg.MarketData.APIKey != "" {
		fmt.Fprintf(out, "    API key:  %s\n", maskAPIKey(cfg.MarketData.APIKey))
	} else {
		fmt.Fprintln(out, "    API key:  not configured")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Display]")
	fmt.Fprintf(out, "    Currency: %s\n", cfg.Display.DefaultCurrency)
	codes := make([]string, 0, len(cfg.Display.Rates))
	for code := range cfg.Display.Rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(out, "    1 INR = %g %s\n", cfg.Display.Rates[code], code)
	}
	if cfg.FX.Enabled {
		fmt.Fprintf(out, "    Refresh:  %s\n", cfg.FX.RefreshCron)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Tax]")
	fmt.Fprintf(out, "    Default regime: %s\n", cfg.Tax.DefaultRegime)
	if cfg.Tax.RegimesFile != "" {
		fmt.Fprintf(out, "    Regimes file:   %s\n", cfg.Tax.RegimesFile)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  Run `batua config init` to write a config file.")
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := configFile()
	if _, err := os.Stat(path); err == nil && !flagForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(config.DefaultConfig(), path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Saved to %s\n", path)
	return nil
}

func maskAPIKey(key string) string {
	if len(key) > 12 {
		return key[:4] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
