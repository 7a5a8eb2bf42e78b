package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"receipts/internal/core"
)

// Theme colors
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
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

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorRed)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table is a bordered text table. The first column is left-aligned and the
// rest right-aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(48).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders t with box-drawing borders.
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

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right) + "\n")
	}
	line := func(cells []string, style lipgloss.Style) {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i == 0 {
				b.WriteString(style.Render(fmt.Sprintf(" %-*s ", widths[i], cell)))
			} else {
				b.WriteString(style.Render(fmt.Sprintf(" %*s ", widths[i], cell)))
			}
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		line(t.Headers, headerStyle)
		rule("├", "┼", "┤")
	}
	for _, row := range t.Rows {
		line(row, valueStyle)
	}
	rule("╰", "┴", "╯")
	return b.String()
}

// RenderRates renders a rate table in display order.
func RenderRates(rates core.RateTable) string {
	rows := make([][]string, 0, len(rates))
	for _, c := range rates.Codes() {
		rows = append(rows, []string{string(c), fmt.Sprintf("%.4f", rates.Rate(c))})
	}
	return RenderTable(Table{
		Title:   "Exchange rates (per 1 USD)",
		Headers: []string{"Currency", "Rate"},
		Rows:    rows,
	})
}

// RenderSummary renders the totals and category breakdown of s.
func RenderSummary(s core.Summary) string {
	sym := s.Currency.Symbol()
	rows := make([][]string, 0, len(s.ByCategory))
	for _, ca := range s.ByCategory {
		rows = append(rows, []string{string(ca.Category), sym + core.FormatAmount(ca.Amount)})
	}

	var b strings.Builder
	b.WriteString(RenderTable(Table{
		Title:   "By category",
		Headers: []string{"Category", "Amount"},
		Rows:    rows,
	}))
	fmt.Fprintf(&b, "  %s %s\n", mutedStyle.Render(fmt.Sprintf("Total (%d invoices):", s.Count)),
		totalStyle.Render(fmt.Sprintf("%s%s %s", sym, core.FormatAmount(s.Total), s.Currency)))
	return b.String()
}

// RenderError formats an error for terminal output.
func RenderError(err error) string {
	return errorStyle.Render("error: ") + err.Error()
}
