// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatMoney rounds to cents and adds thousands separators.
// e.g., 8640 -> "$8,640.00", 86.4 -> "$86.40", -12.345 -> "-$12.35"
// Rounding is for display only; totals are never rounded.
func FormatMoney(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	f, _ := d.Float64()
	return sign + "$" + humanize.FormatFloat("#,###.##", f)
}

// FormatRate formats a percentage rate without trailing zeros.
// e.g., 8 -> "8%", 7.25 -> "7.25%"
func FormatRate(rate float64) string {
	return decimal.NewFromFloat(rate).Round(3).String() + "%"
}

// FormatCount adds thousands separators to a count.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatQuantity renders an optional quantity, or "-" when absent.
func FormatQuantity(q *int) string {
	if q == nil {
		return "-"
	}
	return FormatCount(*q)
}

// FormatTimestamp renders a unix timestamp relative to now, e.g. "3 hours ago".
func FormatTimestamp(unix int64) string {
	if unix == 0 {
		return "never"
	}
	return humanize.Time(timeFromUnix(unix))
}
