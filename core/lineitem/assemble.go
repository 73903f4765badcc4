package lineitem

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"siding-takeoff/core/manufacturer"
	"siding-takeoff/core/pricing"
	"siding-takeoff/core/units"
	"siding-takeoff/internal/logging"
)

// RuleQuantity is a triggered rule quantity awaiting pricing
type RuleQuantity struct {
	RuleID   string
	RuleName string
	Category string
	SKU      string
	Unit     string
	Notes    string
	Quantity float64

	// Manufacturer is the scope the quantity was computed in; empty for project scope
	Manufacturer string
}

// Result is the assembled bill
type Result struct {
	Items   []LineItem `json:"items"`
	Missing []Missing  `json:"missing,omitempty"`
}

// Assembler prices quantities against a catalog
type Assembler struct {
	burden pricing.LaborBurden
}

// NewAssembler creates an assembler that burdens labor with b
func NewAssembler(b pricing.LaborBurden) *Assembler {
	return &Assembler{burden: b}
}

// Assemble prices rule quantities, merges them with the pre-priced assignment
// items and consolidates the lot.
func (a *Assembler) Assemble(quantities []RuleQuantity, catalog pricing.Lookup, assignmentItems []LineItem) Result {
	var res Result
	items := make([]LineItem, 0, len(quantities)+len(assignmentItems))
	for _, q := range quantities {
		li, missing := a.fromRule(q, catalog)
		if missing != nil {
			res.Missing = append(res.Missing, *missing)
		}
		items = append(items, li)
	}
	items = append(items, assignmentItems...)
	res.Items = Consolidate(items)
	return res
}

func (a *Assembler) fromRule(q RuleQuantity, catalog pricing.Lookup) (LineItem, *Missing) {
	qty := q.Quantity
	unit := units.Normalize(q.Unit)

	var item *pricing.Item
	if catalog != nil {
		item, _ = catalog.Lookup(q.SKU)
	}

	if item != nil && unit != "" && units.Normalize(item.Unit) != unit {
		if converted, ok := units.Convert(qty, unit, item.Unit); ok {
			qty = converted
			unit = units.Normalize(item.Unit)
		}
	}
	if unit == "" && item != nil {
		unit = units.Normalize(item.Unit)
	}
	whole := math.Ceil(qty)

	li := LineItem{
		Description:  q.RuleName,
		SKU:          q.SKU,
		Category:     q.Category,
		Manufacturer: q.Manufacturer,
		Unit:         unit,
		Quantity:     decimal.NewFromFloat(whole),
		Source:       SourceRule,
		RuleIDs:      []string{q.RuleID},
	}
	if q.Notes != "" {
		li.Notes = []string{q.Notes}
	}

	if item == nil {
		li.Key = identity("", q.SKU)
		li.MissingPricing = true
		li.Notes = append(li.Notes, fmt.Sprintf("no pricing found for %s", q.SKU))
		logging.Warn("missing pricing for rule output", logging.RuleID(q.RuleID), logging.SKU(q.SKU))
		return li, &Missing{Key: li.Key, Source: SourceRule, Reference: q.RuleID}
	}

	a.price(&li, item)
	if li.Description == "" {
		li.Description = item.Name
	}
	if li.Category == "" {
		li.Category = item.Category
	}
	return li, nil
}

// FromAssignments prices the user's material assignments. Quantities are
// taken as given; only SQ/SF conversion to the pricing unit is applied.
func (a *Assembler) FromAssignments(assignments []manufacturer.Assignment, catalog pricing.Lookup) ([]LineItem, []Missing) {
	var (
		out     []LineItem
		missing []Missing
	)
	for _, as := range assignments {
		key := as.PricingKey()
		if strings.TrimSpace(key) == "" {
			continue
		}
		qty := as.Quantity
		unit := units.Normalize(as.Unit)

		var item *pricing.Item
		if catalog != nil {
			item, _ = catalog.Lookup(key)
		}
		if item != nil && unit != "" && units.Normalize(item.Unit) != unit {
			if converted, ok := units.Convert(qty, unit, item.Unit); ok {
				qty = converted
				unit = units.Normalize(item.Unit)
			}
		}
		if qty <= 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
			continue
		}

		li := LineItem{
			PricingID: as.PricingID,
			SKU:       as.SKU,
			Unit:      unit,
			Quantity:  decimal.NewFromFloat(qty),
			Source:    SourceAssignment,
		}
		if as.ID != "" {
			li.AssignmentIDs = []string{as.ID}
		}
		if as.DetectionID != "" {
			li.DetectionIDs = []string{as.DetectionID}
		}

		if item == nil {
			li.Key = identity(as.PricingID, as.SKU)
			li.Description = key
			li.MissingPricing = true
			li.Notes = []string{fmt.Sprintf("no pricing found for %s", key)}
			logging.Warn("missing pricing for assignment", logging.SKU(key), zap.String("assignment", as.ID))
			missing = append(missing, Missing{Key: li.Key, Source: SourceAssignment, Reference: as.ID})
			out = append(out, li)
			continue
		}

		a.price(&li, item)
		li.Description = item.Name
		li.Category = item.Category
		li.Manufacturer = item.Manufacturer
		if unit == "" {
			li.Unit = units.Normalize(item.Unit)
		}
		out = append(out, li)
	}
	return out, missing
}

// price fills identity and unrounded costs from the catalog item
func (a *Assembler) price(li *LineItem, item *pricing.Item) {
	li.Key = identity(item.ID, item.SKU)
	li.PricingID = item.ID
	if item.SKU != "" {
		li.SKU = item.SKU
	}
	labor := item.LaborRate(a.burden)
	li.MaterialUnitCost = item.MaterialCost
	li.LaborUnitCost = labor
	li.MaterialExtended = li.Quantity.Mul(item.MaterialCost)
	li.LaborExtended = li.Quantity.Mul(labor)
}
