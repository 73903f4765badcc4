package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LaborBurden holds statutory overhead percentages added on top of base labor
type LaborBurden struct {
	percents map[string]decimal.Decimal
}

// NewLaborBurden builds a burden from named percentages (7.65 means 7.65%)
func NewLaborBurden(percents map[string]float64) LaborBurden {
	b := LaborBurden{percents: make(map[string]decimal.Decimal, len(percents))}
	for name, pct := range percents {
		b.percents[name] = decimal.NewFromFloat(pct)
	}
	return b
}

// Percent returns the combined burden percentage
func (b LaborBurden) Percent() decimal.Decimal {
	names := make([]string, 0, len(b.percents))
	for n := range b.percents {
		names = append(names, n)
	}
	sort.Strings(names)

	total := decimal.Zero
	for _, n := range names {
		total = total.Add(b.percents[n])
	}
	return total
}

// Multiplier returns 1 + combined burden
func (b LaborBurden) Multiplier() decimal.Decimal {
	return decimal.NewFromInt(1).Add(b.Percent().Div(hundred))
}

// TotalRate inflates a base labor rate by the burden
func (b LaborBurden) TotalRate(base decimal.Decimal) decimal.Decimal {
	return base.Mul(b.Multiplier())
}

// LaborRate returns the item's burdened labor rate: the precomputed
// total when present, otherwise base labor inflated by the burden
func (i *Item) LaborRate(b LaborBurden) decimal.Decimal {
	if i.TotalLaborCost.IsPositive() {
		return i.TotalLaborCost
	}
	return b.TotalRate(i.BaseLaborCost)
}
