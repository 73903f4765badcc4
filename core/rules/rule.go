// Package rules provides the auto-scope ruleset: rule records, the cached
// repository that serves them and the built-in fallback set.
package rules

import (
	"context"
	"sort"
	"strings"

	"siding-takeoff/core/trigger"
)

// Rule is one auto-scope rule. Rules are read-only to the engine.
type Rule struct {
	// ID is the rule identity
	ID string `json:"id"`

	// Name is the human label, used as the line item description
	Name string `json:"name"`

	// Category is the bill section the product belongs to
	Category string `json:"category"`

	// SKU is the priced product (pricing id or SKU)
	SKU string `json:"sku"`

	// Group is the presentation group
	Group string `json:"group,omitempty"`

	// GroupOrder and ItemOrder give the stable priority order
	GroupOrder int `json:"group_order"`
	ItemOrder  int `json:"item_order"`

	// Trigger decides whether the rule applies; nil means always
	Trigger *trigger.Spec `json:"-"`

	// QuantityFormula computes the quantity from measurement names
	QuantityFormula string `json:"quantity_formula"`

	// Unit is the output unit
	Unit string `json:"unit"`

	// Active rules are evaluated
	Active bool `json:"active"`

	// Manufacturers restricts the rule to those manufacturers' scoped contexts.
	// Nil or empty applies the rule once to the project-wide context.
	Manufacturers []string `json:"manufacturers,omitempty"`

	// Notes are copied onto the line item
	Notes string `json:"notes,omitempty"`
}

// Scoped reports whether the rule evaluates per manufacturer.
// An empty filter behaves like no filter.
func (r Rule) Scoped() bool {
	return len(r.Manufacturers) > 0
}

// MatchesManufacturer reports whether name is in the rule's filter, case-insensitively
func (r Rule) MatchesManufacturer(name string) bool {
	for _, m := range r.Manufacturers {
		if strings.EqualFold(strings.TrimSpace(m), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// Store loads active rules from persistence
type Store interface {
	// Name identifies the store in diagnostics
	Name() string

	// LoadActiveRules returns active rules ordered by group order then item order
	LoadActiveRules(ctx context.Context) ([]Rule, error)
}

// Sort orders rules by (GroupOrder, ItemOrder, ID)
func Sort(rs []Rule) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].GroupOrder != rs[j].GroupOrder {
			return rs[i].GroupOrder < rs[j].GroupOrder
		}
		if rs[i].ItemOrder != rs[j].ItemOrder {
			return rs[i].ItemOrder < rs[j].ItemOrder
		}
		return rs[i].ID < rs[j].ID
	})
}

func activeOnly(rs []Rule) []Rule {
	out := make([]Rule, 0, len(rs))
	for _, r := range rs {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}
