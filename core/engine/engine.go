// Package engine evaluates the auto-scope ruleset against measurement
// contexts and turns the results into a priced takeoff.
package engine

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"siding-takeoff/core/formula"
	"siding-takeoff/core/manufacturer"
	"siding-takeoff/core/measurement"
	"siding-takeoff/core/rules"
	"siding-takeoff/core/trigger"
	"siding-takeoff/internal/logging"
)

// SkipKind classifies why a rule produced no quantity
type SkipKind string

const (
	SkipTriggerNotMet  SkipKind = "trigger_not_met"
	SkipFormulaError   SkipKind = "formula_error"
	SkipZeroQuantity   SkipKind = "zero_quantity"
	SkipNoManufacturer SkipKind = "no_manufacturer_match"
	SkipEmptyScope     SkipKind = "empty_scope"
)

// Candidate is a triggered rule quantity, before pricing
type Candidate struct {
	Rule     rules.Rule
	Quantity float64

	// Manufacturer is the scope the quantity was computed in; empty for project scope
	Manufacturer string
}

// Skip records a rule that produced no candidate
type Skip struct {
	RuleID       string   `json:"rule_id"`
	RuleName     string   `json:"rule_name"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Kind         SkipKind `json:"kind"`
	Reason       string   `json:"reason"`
}

// Result is the outcome of one engine run
type Result struct {
	Candidates []Candidate
	Skips      []Skip

	// Evaluated counts (rule, scope) evaluations attempted
	Evaluated int

	// Triggered counts candidates produced
	Triggered int
}

// Run evaluates every active rule. Project rules run once against project;
// manufacturer-filtered rules run once per matching group against that
// group's scoped context. Rules share no state, so order only affects the
// order of the returned slices.
func Run(project measurement.Context, groups map[string]*manufacturer.Group, rs []rules.Rule, materials []trigger.Material) Result {
	var res Result
	projectVars := project.Variables()

	index := make(map[string]*manufacturer.Group, len(groups))
	for key, g := range groups {
		if g == nil {
			continue
		}
		name := g.Manufacturer
		if name == "" {
			name = key
		}
		index[strings.ToLower(strings.TrimSpace(name))] = g
	}

	for _, rule := range rs {
		if !rule.Active {
			continue
		}

		if !rule.Scoped() {
			res.evaluate(rule, "", project, projectVars, materials)
			continue
		}

		matched := matching(rule, index)
		if len(matched) == 0 {
			res.Skips = append(res.Skips, Skip{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				Kind:     SkipNoManufacturer,
				Reason:   "no matching manufacturer groups",
			})
			continue
		}

		for _, g := range matched {
			if g.Empty() {
				res.Skips = append(res.Skips, Skip{
					RuleID:       rule.ID,
					RuleName:     rule.Name,
					Manufacturer: g.Manufacturer,
					Kind:         SkipEmptyScope,
					Reason:       fmt.Sprintf("manufacturer %s has no area or linear measure", g.Manufacturer),
				})
				continue
			}
			scoped := manufacturer.ScopedContext(project, g)
			res.evaluate(rule, g.Manufacturer, scoped, scoped.Variables(), forManufacturer(materials, g.Manufacturer))
		}
	}
	return res
}

func (res *Result) evaluate(rule rules.Rule, scope string, ctx measurement.Context, vars map[string]float64, materials []trigger.Material) {
	res.Evaluated++
	skip := func(kind SkipKind, reason string) {
		res.Skips = append(res.Skips, Skip{
			RuleID:       rule.ID,
			RuleName:     rule.Name,
			Manufacturer: scope,
			Kind:         kind,
			Reason:       reason,
		})
	}

	tr := trigger.Evaluate(rule.Trigger, ctx, materials)
	if tr.Reason == trigger.ReasonUnrecognized {
		logging.Warn("trigger has no recognized conditions, applying rule",
			logging.RuleID(rule.ID), zap.Strings("keys", rule.Trigger.Unrecognized))
	}
	if !tr.Applies {
		skip(SkipTriggerNotMet, tr.Reason)
		return
	}

	qty, err := formula.Evaluate(rule.QuantityFormula, vars)
	if err != nil {
		logging.Debug("formula failed", logging.RuleID(rule.ID), logging.Formula(rule.QuantityFormula), zap.Error(err))
		skip(SkipFormulaError, err.Error())
		return
	}
	if qty <= 0 {
		skip(SkipZeroQuantity, fmt.Sprintf("%s evaluated to 0", rule.QuantityFormula))
		return
	}

	res.Triggered++
	res.Candidates = append(res.Candidates, Candidate{Rule: rule, Quantity: qty, Manufacturer: scope})
}

// matching returns groups named in the rule filter, in filter order, once each
func matching(rule rules.Rule, index map[string]*manufacturer.Group) []*manufacturer.Group {
	seen := map[string]bool{}
	var out []*manufacturer.Group
	for _, name := range rule.Manufacturers {
		key := strings.ToLower(strings.TrimSpace(name))
		if seen[key] {
			continue
		}
		seen[key] = true
		if g, ok := index[key]; ok {
			out = append(out, g)
		}
	}
	return out
}

// forManufacturer keeps materials of the given manufacturer and those with no manufacturer
func forManufacturer(materials []trigger.Material, name string) []trigger.Material {
	out := make([]trigger.Material, 0, len(materials))
	for _, m := range materials {
		if m.Manufacturer == "" || strings.EqualFold(m.Manufacturer, name) {
			out = append(out, m)
		}
	}
	return out
}
