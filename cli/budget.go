package cli

import (
	"fmt"

	"github.com/Maanicadatta/Batua/budget"
	"github.com/Maanicadatta/Batua/money"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagIncome      string
	flagAllocations = map[budget.Bucket]*string{}
	flagSuggest     bool
	flagBarWidth    int
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Split a monthly income across taxes, savings, spending and investing",
	Example: `  batua budget --income 100000 --taxes 20000 --savings 30000 --spending 60000
  batua budget --income 80000 --suggest`,
	RunE: runBudget,
}

func init() {
	f := budgetCmd.Flags()
	f.StringVar(&flagIncome, "income", "", "Monthly income in INR")
	for _, b := range budget.Buckets {
		flagAllocations[b] = f.String(string(b), "", fmt.Sprintf("Monthly %s allocation in INR", b))
	}
	f.BoolVar(&flagSuggest, "suggest", false, "Let Batua plan the budget from the configured ratios")
	f.IntVar(&flagBarWidth, "bar-width", 30, "Width of the allocation bars")
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cur, err := displayCurrency(cfg)
	if err != nil {
		return err
	}

	income, err := money.ParseStrict("income", flagIncome)
	if err != nil {
		return err
	}

	var set budget.AllocationSet
	if flagSuggest {
		ratios, err := cfg.SuggestRatios()
		if err != nil {
			return err
		}
		if set, err = budget.Suggest(income, ratios); err != nil {
			return err
		}
	} else {
		raw := make(map[budget.Bucket]string, len(flagAllocations))
		for b, v := range flagAllocations {
			raw[b] = *v
		}
		if set, err = parseAllocations(raw); err != nil {
			return err
		}
	}

	totals := budget.Recompute(income, set)
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprint(cmd.OutOrStdout(), RenderBudget(totals, cfg.RateTable(), cur, flagBarWidth))
	return nil
}

// parseAllocations parses per-bucket amounts strictly. Blank means zero.
func parseAllocations(raw map[budget.Bucket]string) (budget.AllocationSet, error) {
	set := make(budget.AllocationSet, len(budget.Buckets))
	for _, b := range budget.Buckets {
		amt := decimal.Zero
		if s, ok := raw[b]; ok {
			v, err := money.ParseStrict(string(b), s)
			if err != nil {
				return nil, err
			}
			amt = v
		}
		set[b] = amt
	}
	return set, nil
}
