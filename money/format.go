package money

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Format projects an INR amount into c and renders it with the currency's
// symbol and digit grouping: ₹12,34,567 for INR, $1,234.57 otherwise.
func (t *RateTable) Format(amountINR decimal.Decimal, c Currency) (string, error) {
	v, err := t.Project(amountINR, c)
	if err != nil {
		return "", err
	}
	return FormatIn(v, c), nil
}

// FormatIn renders an amount that is already in currency c.
func FormatIn(v decimal.Decimal, c Currency) string {
	digits := c.FractionDigits()
	v = v.Round(digits)

	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Neg()
	}

	fixed := v.StringFixed(digits)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var grouped string
	if c == INR {
		grouped = groupIndian(intPart)
	} else {
		grouped = humanize.Comma(v.IntPart())
	}

	out := sign + c.Symbol() + grouped
	if frac != "" {
		out += "." + frac
	}
	return out
}

// FormatPercent renders a percentage with two decimals, or "-" when there
// is nothing to show.
func FormatPercent(p *decimal.Decimal) string {
	if p == nil {
		return "-"
	}
	return p.StringFixed(2) + "%"
}

// groupIndian groups the last three digits, then pairs: 1234567 -> 12,34,567.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(append(parts, tail), ",")
}
