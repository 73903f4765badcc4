// Package lineitem prices rule quantities and assigned materials and
// consolidates them into one line item per priced product.
package lineitem

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Source says what produced a line item
type Source string

const (
	SourceRule       Source = "rule"
	SourceAssignment Source = "assignment"
	SourceMixed      Source = "mixed"
)

// MoneyPlaces is the rounding precision for money fields
const MoneyPlaces = 2

// LineItem is one priced product on the bill
type LineItem struct {
	// Key is the consolidation identity: pricing id, else SKU, upper-cased
	Key string `json:"key"`

	Description  string `json:"description"`
	PricingID    string `json:"pricing_id,omitempty"`
	SKU          string `json:"sku"`
	Category     string `json:"category"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Unit         string `json:"unit"`

	Quantity decimal.Decimal `json:"quantity"`

	MaterialUnitCost decimal.Decimal `json:"material_unit_cost"`
	LaborUnitCost    decimal.Decimal `json:"labor_unit_cost"`
	MaterialExtended decimal.Decimal `json:"material_extended"`
	LaborExtended    decimal.Decimal `json:"labor_extended"`

	Source Source `json:"source"`

	// RuleIDs, AssignmentIDs and DetectionIDs record provenance
	RuleIDs       []string `json:"rule_ids,omitempty"`
	AssignmentIDs []string `json:"assignment_ids,omitempty"`
	DetectionIDs  []string `json:"detection_ids,omitempty"`

	Notes []string `json:"notes,omitempty"`

	// MissingPricing marks an item emitted with zero costs because no price was found
	MissingPricing bool `json:"missing_pricing,omitempty"`
}

// Total returns material + labor extended cost
func (li LineItem) Total() decimal.Decimal {
	return li.MaterialExtended.Add(li.LaborExtended)
}

// Missing is a warning for a quantity that could not be priced
type Missing struct {
	Key       string `json:"key"`
	Source    Source `json:"source"`
	Reference string `json:"reference"`
}

// merge folds other into li. Money stays unrounded until finalize.
func (li *LineItem) merge(other LineItem) {
	li.Quantity = li.Quantity.Add(other.Quantity)
	li.MaterialExtended = li.MaterialExtended.Add(other.MaterialExtended)
	li.LaborExtended = li.LaborExtended.Add(other.LaborExtended)
	if li.Source != other.Source {
		li.Source = SourceMixed
	}
	if li.Manufacturer == "" {
		li.Manufacturer = other.Manufacturer
	}
	li.RuleIDs = append(li.RuleIDs, other.RuleIDs...)
	li.AssignmentIDs = append(li.AssignmentIDs, other.AssignmentIDs...)
	li.DetectionIDs = append(li.DetectionIDs, other.DetectionIDs...)
	li.Notes = append(li.Notes, other.Notes...)
	li.MissingPricing = li.MissingPricing || other.MissingPricing
}

func (li *LineItem) finalize() {
	li.MaterialUnitCost = li.MaterialUnitCost.Round(MoneyPlaces)
	li.LaborUnitCost = li.LaborUnitCost.Round(MoneyPlaces)
	li.MaterialExtended = li.MaterialExtended.Round(MoneyPlaces)
	li.LaborExtended = li.LaborExtended.Round(MoneyPlaces)
	li.RuleIDs = uniqueSorted(li.RuleIDs)
	li.AssignmentIDs = uniqueSorted(li.AssignmentIDs)
	li.DetectionIDs = uniqueSorted(li.DetectionIDs)
	li.Notes = uniqueSorted(li.Notes)
}

// Consolidate merges items sharing a key and rounds money once, after merging.
// The result does not depend on input order.
func Consolidate(items []LineItem) []LineItem {
	ordered := append([]LineItem(nil), items...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return sortKey(ordered[i]) < sortKey(ordered[j])
	})

	byKey := make(map[string]int, len(ordered))
	var out []LineItem
	for _, it := range ordered {
		key := it.Key
		if key == "" {
			key = identity(it.PricingID, it.SKU)
		}
		it.Key = key
		it.RuleIDs = append([]string(nil), it.RuleIDs...)
		it.AssignmentIDs = append([]string(nil), it.AssignmentIDs...)
		it.DetectionIDs = append([]string(nil), it.DetectionIDs...)
		it.Notes = append([]string(nil), it.Notes...)

		if idx, ok := byKey[key]; ok && key != "" {
			out[idx].merge(it)
			continue
		}
		byKey[key] = len(out)
		out = append(out, it)
	}

	for i := range out {
		out[i].finalize()
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Description != b.Description {
			return a.Description < b.Description
		}
		return a.Key < b.Key
	})
	return out
}

// sortKey orders items before merging so the survivor of a merge is deterministic
func sortKey(li LineItem) string {
	return strings.Join([]string{
		li.Key, string(li.Source), li.Manufacturer,
		strings.Join(li.RuleIDs, ","), strings.Join(li.AssignmentIDs, ","),
		li.Quantity.String(),
	}, "\x00")
}

func identity(pricingID, sku string) string {
	if k := strings.TrimSpace(pricingID); k != "" {
		return strings.ToUpper(k)
	}
	return strings.ToUpper(strings.TrimSpace(sku))
}

func uniqueSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
