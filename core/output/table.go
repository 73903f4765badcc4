package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"siding-takeoff/core/engine"
	"siding-takeoff/core/lineitem"
)

// Colors for terminal output
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

// TableFormatter renders line items, totals and diagnostics as text tables
type TableFormatter struct {
	NoColor   bool
	ShowSkips bool
}

// Format implements Formatter
func (f *TableFormatter) Format() Format { return FormatTable }

// Render implements Formatter
func (f *TableFormatter) Render(w io.Writer, t *engine.Takeoff) error {
	p := &printer{out: w, noColor: f.NoColor}

	p.header("Line Items")
	items := newTable("CATEGORY", "DESCRIPTION", "SKU", "QTY", "UNIT", "MATERIAL", "LABOR", "TOTAL", "SOURCE")
	for _, it := range t.Items {
		desc := it.Description
		if it.MissingPricing {
			desc += " (unpriced)"
		}
		items.addRow(
			it.Category,
			desc,
			it.SKU,
			quantity(it.Quantity),
			it.Unit,
			money(it.MaterialExtended),
			money(it.LaborExtended),
			money(it.Total()),
			provenance(it),
		)
	}
	items.render(p)

	p.header("Summary")
	summary := newTable("", "AMOUNT")
	summary.addRow("Material", money(t.Summary.Material))
	summary.addRow("Labor", money(t.Summary.Labor))
	summary.addRow("Subtotal", money(t.Summary.Subtotal))
	summary.addRow("Overhead", money(t.Summary.Overhead))
	summary.addRow("Markup", money(t.Summary.Markup))
	summary.addRow("Total", money(t.Summary.Total))
	summary.render(p)

	d := t.Diagnostics
	p.println("")
	p.println(p.color(dim, fmt.Sprintf("measurements: %s   rules: %s   evaluated: %d   triggered: %d",
		d.MeasurementSource, d.RulesOrigin, d.RulesEvaluated, d.RulesTriggered)))
	if len(d.Manufacturers) > 0 {
		p.println(p.color(dim, "manufacturers: "+strings.Join(d.Manufacturers, ", ")))
	}
	for _, m := range d.MissingPricing {
		p.println(p.color(yellow, fmt.Sprintf("! no pricing for %s (%s %s)", m.Key, m.Source, m.Reference)))
	}
	for _, id := range d.Unresolved {
		p.println(p.color(yellow, fmt.Sprintf("! no manufacturer for %s", id)))
	}
	if d.CatalogError != "" {
		p.println(p.color(yellow, "! pricing catalog unavailable: "+d.CatalogError))
	}

	if f.ShowSkips && len(d.Skips) > 0 {
		p.header("Skipped Rules")
		skips := newTable("RULE", "SCOPE", "KIND", "REASON")
		for _, s := range d.Skips {
			scope := s.Manufacturer
			if scope == "" {
				scope = "project"
			}
			skips.addRow(s.RuleID, scope, string(s.Kind), s.Reason)
		}
		skips.render(p)
	}
	return p.err
}

// money renders a comma-grouped dollar amount
func money(d decimal.Decimal) string {
	f, _ := d.Round(lineitem.MoneyPlaces).Float64()
	return "$" + humanize.FormatFloat("#,###.##", f)
}

func quantity(d decimal.Decimal) string {
	f, _ := d.Float64()
	return humanize.Ftoa(f)
}

func provenance(it lineitem.LineItem) string {
	switch {
	case len(it.RuleIDs) > 0 && len(it.AssignmentIDs) > 0:
		return fmt.Sprintf("%s (%d rules, %d assigned)", it.Source, len(it.RuleIDs), len(it.AssignmentIDs))
	case len(it.RuleIDs) > 0:
		return strings.Join(it.RuleIDs, ",")
	default:
		return string(it.Source)
	}
}

// printer writes lines and remembers the first write error
type printer struct {
	out     io.Writer
	noColor bool
	err     error
}

func (p *printer) color(c, text string) string {
	if p.noColor {
		return text
	}
	return c + text + reset
}

func (p *printer) print(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.out, format, args...)
}

func (p *printer) println(line string) {
	p.print("%s\n", line)
}

func (p *printer) header(title string) {
	p.println("")
	p.println(p.color(bold+cyan, "━━━ "+title+" ━━━"))
	p.println("")
}

// table is a column-aligned text table
type table struct {
	headers []string
	rows    [][]string
	widths  []int
}

func newTable(headers ...string) *table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &table{headers: headers, widths: widths}
}

// addRow pads or truncates cells to the header count
func (t *table) addRow(cells ...string) {
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
		if n := len([]rune(row[i])); n > t.widths[i] {
			t.widths[i] = n
		}
	}
	t.rows = append(t.rows, row)
}

func (t *table) render(p *printer) {
	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = c + strings.Repeat(" ", t.widths[i]-len([]rune(c)))
		}
		return strings.TrimRight(strings.Join(parts, " │ "), " ")
	}

	p.println(p.color(bold, line(t.headers)))
	sep := make([]string, len(t.widths))
	for i, w := range t.widths {
		sep[i] = strings.Repeat("─", w)
	}
	p.println(strings.Join(sep, "─┼─"))
	for _, row := range t.rows {
		p.println(line(row))
	}
}
