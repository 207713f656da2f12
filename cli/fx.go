package cli

import (
	"context"
	"fmt"

	"github.com/Maanicadatta/Batua/marketdata"
	"github.com/Maanicadatta/Batua/money"
	"github.com/spf13/cobra"
)

var fxCmd = &cobra.Command{
	Use:   "fx",
	Short: "Fetch current INR display rates from Twelve Data",
	Long: `Fetch current INR display rates once and print them next to the
configured rates. Calculations always run in INR; rates only affect display.`,
	RunE: runFX,
}

func init() {
	rootCmd.AddCommand(fxCmd)
}

func runFX(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := cfg.NewLogger()

	client := marketdata.NewClient(cfg.MarketData.BaseURL, cfg.MarketData.APIKey, cfg.MarketData.Timeout.Duration, log)
	if !client.HasKey() {
		return money.ErrMissingAPIKey
	}

	table := cfg.RateTable()
	before := table.Snapshot()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.MarketData.Timeout.Duration*3)
	defer cancel()
	updated := marketdata.NewRateRefresher(client, table, log).RefreshNow(ctx)

	t := Table{Title: "INR display rates", Headers: []string{"Currency", "Configured", "Live"}}
	after := table.Snapshot()
	for _, c := range table.Currencies() {
		if c == money.INR {
			continue
		}
		t.Rows = append(t.Rows, []string{string(c), before[c].String(), after[c].String()})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprint(out, RenderTable(t))
	fmt.Fprintf(out, "  %d of %d rates updated\n", updated, len(t.Rows))
	return nil
}
