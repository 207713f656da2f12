package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Maanicadatta/Batua/budget"
	"github.com/Maanicadatta/Batua/money"
	"github.com/Maanicadatta/Batua/tax"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
	ColorPurple    = lipgloss.Color("#8B7EC8")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	goodStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// bucketColors gives each budget bucket its bar color.
var bucketColors = map[budget.Bucket]lipgloss.Color{
	budget.Taxes:     ColorRed,
	budget.Savings:   ColorBlue,
	budget.Spending:  ColorOrange,
	budget.Investing: ColorPurple,
}

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table. The first column is left-aligned,
// the rest right-aligned. A row holding only "---" draws a separator.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = max(widths[i], lipgloss.Width(h))
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	rule := func(left, mid, right string) string {
		var b strings.Builder
		b.WriteString(left)
		for i, w := range widths {
			b.WriteString(strings.Repeat("─", w+2))
			if i < numCols-1 {
				b.WriteString(mid)
			}
		}
		b.WriteString(right)
		return dimStyle.Render(b.String()) + "\n"
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	b.WriteString(rule("╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(" " + padRight(h, widths[i]) + " "))
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
		b.WriteString(rule("├", "┼", "┤"))
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			b.WriteString(rule("├", "┼", "┤"))
			continue
		}
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if i == 0 {
				cell = padRight(cell, widths[i])
			} else {
				cell = padLeft(cell, widths[i])
			}
			b.WriteString(valueStyle.Render(" " + cell + " "))
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
	}
	b.WriteString(rule("╰", "┴", "╯"))

	return b.String()
}

// RenderBar draws a proportional bar for a percentage clamped to [0, 100].
func RenderBar(percent int64, width int, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}
	percent = min(max(percent, 0), 100)
	filled := int(percent * int64(width) / 100)

	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	return bar + dimStyle.Render(strings.Repeat("░", width-filled))
}

// =============================================================================
// TAX
// =============================================================================

// RenderTaxResult renders a breakdown with amounts projected into cur.
// A nil result renders the "nothing to show" message.
func RenderTaxResult(res *tax.Result, rates *money.RateTable, cur money.Currency) string {
	if res == nil {
		return mutedStyle.Render("  Enter an income above zero to see your tax.") + "\n"
	}

	show := func(inr decimal.Decimal) string {
		s, err := rates.Format(inr, cur)
		if err != nil {
			return money.FormatIn(inr, money.INR)
		}
		return s
	}

	var b strings.Builder
	b.WriteString(RenderTitle(fmt.Sprintf("TAX  %s", strings.ToUpper(string(res.Meta.Regime)))))
	b.WriteString("\n\n")

	if res.Degenerate() {
		b.WriteString(mutedStyle.Render("  Not earning in India: nothing is due."))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, 0, len(res.Rows)+3)
	for _, r := range res.Rows {
		rows = append(rows, []string{r.Name, show(r.AmountINR)})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", show(res.TotalTaxINR)})
	rows = append(rows, []string{"Effective rate", money.FormatPercent(res.EffectiveRate)})

	b.WriteString(RenderTable(Table{
		Title:   "Income " + show(res.IncomeINR),
		Headers: []string{"Component", "Amount"},
		Rows:    rows,
	}))

	if len(res.Bands) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderTable(bandTable(res.Bands, show)))
	}
	return b.String()
}

func bandTable(bands []tax.BandTax, show func(decimal.Decimal) string) Table {
	t := Table{Title: "Slabs", Headers: []string{"Slab", "Rate", "Taxed", "Tax"}}
	for _, bt := range bands {
		slab := "Above " + money.FormatIn(bt.From, money.INR)
		if bt.To != nil {
			slab = money.FormatIn(bt.From, money.INR) + " to " + money.FormatIn(*bt.To, money.INR)
		}
		rate := bt.Rate.Mul(money.Hundred)
		t.Rows = append(t.Rows, []string{slab, rate.String() + "%", show(bt.Consumed), show(bt.Tax)})
	}
	return t
}

// RenderAdvanceSchedule renders advance tax instalments, marking the next
// one due after asOf.
func RenderAdvanceSchedule(fy tax.FiscalYear, schedule []tax.Instalment, asOf time.Time, rates *money.RateTable, cur money.Currency) string {
	next, hasNext := tax.NextInstalment(schedule, asOf)

	t := Table{Title: "Advance tax " + fy.String(), Headers: []string{"Due", "By then", "Instalment", ""}}
	for _, in := range schedule {
		mark := ""
		if hasNext && in.Due.Equal(next.Due) {
			mark = "next"
		}
		amount, err := rates.Format(in.AmountINR, cur)
		if err != nil {
			amount = money.FormatIn(in.AmountINR, money.INR)
		}
		t.Rows = append(t.Rows, []string{
			in.Due.Format("02 Jan 2006"),
			fmt.Sprintf("%d%%", in.CumulativePercent),
			amount,
			mark,
		})
	}
	return RenderTable(t)
}

// RenderGuidance renders the "when to pay" panel.
func RenderGuidance(g tax.Guidance) string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(headerStyle.Render(g.Title))
	b.WriteString("\n")
	for _, p := range g.Points {
		b.WriteString(mutedStyle.Render("  • " + p))
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// BUDGET
// =============================================================================

// RenderBudget renders allocations with proportional bars and the
// remaining amount, flagged when over-allocated.
func RenderBudget(t budget.Totals, rates *money.RateTable, cur money.Currency, barWidth int) string {
	show := func(inr decimal.Decimal) string {
		s, err := rates.Format(inr, cur)
		if err != nil {
			return money.FormatIn(inr, money.INR)
		}
		return s
	}

	var b strings.Builder
	b.WriteString(RenderTitle("MONTHLY BUDGET"))
	b.WriteString("\n\n")

	rows := make([][]string, 0, len(budget.Buckets)+3)
	for _, bucket := range budget.Buckets {
		rows = append(rows, []string{
			bucket.Label(),
			show(t.Allocations[bucket]),
			fmt.Sprintf("%d%%", t.PerBucketPercent[bucket]),
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Allocated", show(t.TotalAllocated), ""})
	rows = append(rows, []string{"Remaining", show(t.Remaining), ""})

	b.WriteString(RenderTable(Table{
		Title:   "Income " + show(t.Income),
		Headers: []string{"Bucket", "Amount", "Share"},
		Rows:    rows,
	}))
	b.WriteString("\n")

	for _, bucket := range budget.Buckets {
		b.WriteString(fmt.Sprintf("  %s %s %3d%%\n",
			padRight(bucket.Label(), 9),
			RenderBar(t.BarWidth(bucket), barWidth, bucketColors[bucket]),
			t.PerBucketPercent[bucket],
		))
	}
	b.WriteString("\n")

	if t.OverAllocated {
		b.WriteString(warnStyle.Render(fmt.Sprintf("  Over-allocated by %s", show(t.Remaining.Neg()))))
	} else {
		b.WriteString(goodStyle.Render(fmt.Sprintf("  %s left to allocate", show(t.Remaining))))
	}
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// HELPERS
// =============================================================================

func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func padLeft(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}
