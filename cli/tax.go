package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/Maanicadatta/Batua/config"
	"github.com/Maanicadatta/Batua/money"
	"github.com/Maanicadatta/Batua/tax"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// taxInput holds the questionnaire answers as typed. Amounts stay strings
// until profile parses them so the form can bind to them directly.
type taxInput struct {
	income          string
	regime          string
	professionalTax string
	earning         string
	ageBand         string
	residency       string
}

var (
	flagTax         taxInput
	flagInteractive bool
	flagNoGuidance  bool
)

var taxCmd = &cobra.Command{
	Use:   "tax",
	Short: "Estimate annual income tax",
	Long: `Estimate annual income tax under the old or new regime, including the
4% health & education cess and state professional tax.`,
	Example: `  batua tax --income 1000000 --regime old --professional-tax 2500
  batua tax --income 1500000 --currency USD
  batua tax --interactive`,
	RunE: runTax,
}

func init() {
	f := taxCmd.Flags()
	f.StringVar(&flagTax.income, "income", "", "Annual income in INR")
	f.StringVar(&flagTax.regime, "regime", "", "Tax regime (new, old or a custom id)")
	f.StringVar(&flagTax.professionalTax, "professional-tax", "", "Annual professional tax in INR")
	f.StringVar(&flagTax.earning, "earning", "", "Earning type: salary, self, retired or none")
	f.StringVar(&flagTax.ageBand, "age", "", "Age band: under60, 60to80 or over80")
	f.StringVar(&flagTax.residency, "residency", "", "Residency: resident or nri")
	f.BoolVarP(&flagInteractive, "interactive", "i", false, "Answer the questionnaire interactively")
	f.BoolVar(&flagNoGuidance, "no-guidance", false, "Skip the 'when to pay' notes")
	rootCmd.AddCommand(taxCmd)
}

func runTax(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	calc, err := newCalculator(cfg)
	if err != nil {
		return err
	}
	cur, err := displayCurrency(cfg)
	if err != nil {
		return err
	}

	in := flagTax
	if flagInteractive {
		if err := promptTax(&in, calc.Schedules(), cfg.Tax.DefaultRegime); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
	}

	profile, err := in.profile(cfg)
	if err != nil {
		return err
	}
	result, err := calc.Assess(profile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprint(out, RenderTaxResult(result, cfg.RateTable(), cur))

	if profile.EarningType == tax.EarningSelf && result != nil && result.TotalTaxINR.IsPositive() {
		now := time.Now()
		fy := tax.FiscalYearFor(now)
		fmt.Fprintln(out)
		fmt.Fprint(out, RenderAdvanceSchedule(fy, tax.AdvanceTaxSchedule(result.TotalTaxINR, fy), now, cfg.RateTable(), cur))
	}

	if !flagNoGuidance && result != nil {
		if g, ok := tax.GuidanceFor(profile.EarningType); ok {
			fmt.Fprintln(out)
			fmt.Fprint(out, RenderGuidance(g))
		}
	}
	return nil
}

// profile parses the answers. An empty regime falls back to the configured
// default.
func (in taxInput) profile(cfg config.Config) (tax.Profile, error) {
	income, err := money.ParseStrict("income", in.income)
	if err != nil {
		return tax.Profile{}, err
	}
	pt, err := money.ParseStrict("professional-tax", in.professionalTax)
	if err != nil {
		return tax.Profile{}, err
	}

	regimeID := in.regime
	if regimeID == "" {
		regimeID = cfg.Tax.DefaultRegime
	}
	regime, err := tax.ParseRegime(regimeID)
	if err != nil {
		return tax.Profile{}, err
	}
	earning, err := tax.ParseEarningType(in.earning)
	if err != nil {
		return tax.Profile{}, err
	}
	age, err := tax.ParseAgeBand(in.ageBand)
	if err != nil {
		return tax.Profile{}, err
	}
	res, err := tax.ParseResidency(in.residency)
	if err != nil {
		return tax.Profile{}, err
	}

	return tax.Profile{
		AnnualIncome:    income,
		Regime:          regime,
		ProfessionalTax: pt,
		EarningType:     earning,
		AgeBand:         age,
		Residency:       res,
	}, nil
}

// promptTax runs the questionnaire, pre-filled from flags and the
// configured default regime.
func promptTax(in *taxInput, schedules []tax.Schedule, defaultRegime string) error {
	in.prefill(defaultRegime)

	regimes := make([]huh.Option[string], 0, len(schedules))
	for _, s := range schedules {
		regimes = append(regimes, huh.NewOption(s.Name, string(s.Regime)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Are you currently earning money in India?").
				Options(
					huh.NewOption("Yes, salaried", string(tax.EarningSalary)),
					huh.NewOption("Yes, self-employed / business", string(tax.EarningSelf)),
					huh.NewOption("Retired, with pension", string(tax.EarningRetired)),
					huh.NewOption("Not earning right now", string(tax.EarningNone)),
				).
				Value(&in.earning),
			huh.NewSelect[string]().
				Title("Age").
				Options(
					huh.NewOption("Below 60", string(tax.AgeUnder60)),
					huh.NewOption("60 to 80", string(tax.Age60To80)),
					huh.NewOption("Above 80", string(tax.AgeOver80)),
				).
				Value(&in.ageBand),
			huh.NewSelect[string]().
				Title("Residency").
				Options(
					huh.NewOption("Resident", string(tax.Resident)),
					huh.NewOption("Non-resident (NRI)", string(tax.NonResident)),
				).
				Value(&in.residency),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Annual income (₹)").
				Placeholder("1500000").
				Value(&in.income).
				Validate(validateAmount("income")),
			huh.NewSelect[string]().
				Title("Tax regime").
				Options(regimes...).
				Value(&in.regime),
			huh.NewInput().
				Title("Professional tax per year (₹, optional)").
				Placeholder("2500").
				Value(&in.professionalTax).
				Validate(validateAmount("professional tax")),
		),
	)
	return form.Run()
}

// prefill sets the questionnaire defaults for unanswered choices.
func (in *taxInput) prefill(defaultRegime string) {
	if in.earning == "" {
		in.earning = string(tax.EarningSalary)
	}
	if in.regime == "" {
		in.regime = defaultRegime
	}
	if in.regime == "" {
		in.regime = string(tax.RegimeNew)
	}
	if in.ageBand == "" {
		in.ageBand = string(tax.AgeUnder60)
	}
	if in.residency == "" {
		in.residency = string(tax.Resident)
	}
}

func validateAmount(field string) func(string) error {
	return func(s string) error {
		_, err := money.ParseStrict(field, s)
		return err
	}
}
