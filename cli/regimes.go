package cli

import (
	"fmt"

	"github.com/Maanicadatta/Batua/factory"
	"github.com/Maanicadatta/Batua/money"
	"github.com/Maanicadatta/Batua/tax"
	"github.com/spf13/cobra"
)

var regimesCmd = &cobra.Command{
	Use:   "regimes",
	Short: "List tax regimes",
	RunE:  runRegimes,
}

var regimesCheckCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Validate a YAML regimes file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegimesCheck,
}

func init() {
	regimesCmd.AddCommand(regimesCheckCmd)
	rootCmd.AddCommand(regimesCmd)
}

func runRegimes(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	calc, err := newCalculator(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprint(cmd.OutOrStdout(), RenderTable(regimeTable(calc.Schedules())))
	return nil
}

func runRegimesCheck(cmd *cobra.Command, args []string) error {
	schedules, err := factory.NewRegimeFactory().LoadRegimesFile(args[0])
	if err != nil {
		return err
	}
	calc := tax.NewCalculator()
	for _, s := range schedules {
		if err := calc.Register(s); err != nil {
			return fmt.Errorf("%s: %w", s.Regime, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d regimes OK\n", args[0], len(schedules))
	return nil
}

// regimeTable summarises each schedule with its band count and top rate.
func regimeTable(schedules []tax.Schedule) Table {
	t := Table{Title: "Tax regimes", Headers: []string{"ID", "Name", "Bands", "Top rate"}}
	for _, s := range schedules {
		top := "0%"
		if n := len(s.Bands); n > 0 {
			top = s.Bands[n-1].Rate.Mul(money.Hundred).String() + "%"
		}
		t.Rows = append(t.Rows, []string{string(s.Regime), s.Name, fmt.Sprintf("%d", len(s.Bands)), top})
	}
	return t
}
