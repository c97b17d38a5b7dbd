package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmynk/billcalc/internal/calculator"
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
)

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

	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
// A row holding the single cell "---" renders as a separator.
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

// RenderTable renders a bordered table. The first column is left-aligned and
// the rest are right-aligned.
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
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}
	line := func(cells []string, style lipgloss.Style) {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			var padded string
			if i == 0 {
				padded = fmt.Sprintf(" %-*s ", widths[i], cell)
			} else {
				padded = fmt.Sprintf(" %*s ", widths[i], cell)
			}
			b.WriteString(style.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		line(t.Headers, headerStyle)
		rule("├", "┼", "┤")
	}
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule("├", "┼", "┤")
			continue
		}
		line(row, valueStyle)
	}
	rule("╰", "┴", "╯")

	return b.String()
}

// RenderCalculator renders a calculator's items and totals.
func RenderCalculator(calc *calculator.BillCalculator) string {
	totals := calc.Totals()
	var b strings.Builder

	title := calc.Name
	if title == "" {
		title = "Bill calculator"
	}
	b.WriteString(RenderTitle(title))
	b.WriteString("\n")

	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s mode · %s guests · %s · updated %s",
		calc.GuestCountMode(),
		FormatCount(calc.GuestCount()),
		calc.SummaryDescription(),
		FormatTimestamp(calc.UpdatedAt),
	)))
	b.WriteString("\n\n")

	if len(totals.Lines) > 0 {
		items := Table{
			Title:   "Items",
			Headers: []string{"Item", "Kind", "Amount", "Qty", "Priced"},
		}
		for _, line := range totals.Lines {
			items.Rows = append(items.Rows, itemRow(line, calc.GuestCountMode()))
		}
		b.WriteString(RenderTable(items))
		b.WriteString("\n")
	}

	summary := Table{
		Title: "Totals",
		Rows: [][]string{
			{"Per-person", FormatMoney(totals.PerPersonTotal)},
			{"Service fees", FormatMoney(totals.ServiceFeeTotal)},
			{"Flat fees", FormatMoney(totals.FlatFeeTotal)},
			{"---"},
			{"Subtotal", FormatMoney(totals.Subtotal)},
			{"Tax (" + FormatRate(totals.EffectiveTaxRate) + ")", FormatMoney(totals.TaxAmount)},
			{"---"},
			{"Grand total", FormatMoney(totals.GrandTotal)},
			{"Per guest", FormatMoney(totals.PerGuestCost)},
		},
	}
	b.WriteString(RenderTable(summary))

	if calc.GuestCount() == 0 && totals.GrandTotal > 0 {
		b.WriteString(warnStyle.Render("  No guests yet: per-guest cost shows as $0.00"))
		b.WriteString("\n")
	}
	b.WriteString("  ")
	b.WriteString(totalStyle.Render("Grand total " + FormatMoney(totals.GrandTotal)))
	b.WriteString("\n")
	return b.String()
}

func itemRow(line calculator.PricedLine, mode calculator.GuestCountMode) []string {
	item := line.Item
	name := item.Name
	if !item.Valid() {
		name = "(unnamed)"
	}

	amount := FormatMoney(item.Amount)
	qty := ""
	switch item.Kind {
	case calculator.KindServiceFee:
		amount = FormatRate(item.Amount)
	case calculator.KindPerPerson:
		if mode == calculator.ModeVariable {
			qty = FormatQuantity(item.Quantity)
		}
	}
	return []string{name, kindLabel(item.Kind), amount, qty, FormatMoney(line.Amount)}
}

func kindLabel(k calculator.ItemKind) string {
	switch k {
	case calculator.KindPerPerson:
		return "per person"
	case calculator.KindServiceFee:
		return "service fee"
	default:
		return "flat fee"
	}
}

func timeFromUnix(unix int64) time.Time {
	return time.Unix(unix, 0)
}
