// Package trigger decides whether a rule applies to a measurement context.
package trigger

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/multierr"

	"siding-takeoff/internal/errors"
)

// Kind is a trigger condition kind
type Kind int

// Kinds in evaluation order: material checks run before numeric work
const (
	KindCategory Kind = iota
	KindSKUPattern
	KindMin
	KindGreater
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindSKUPattern:
		return "sku_pattern"
	case KindMin:
		return "min"
	case KindGreater:
		return "gt"
	default:
		return "unknown"
	}
}

// Condition is one predicate of a trigger
type Condition struct {
	Kind Kind

	// Value is the category or SKU substring for material kinds
	Value string

	// Name is the threshold name as written in the rule (e.g. "openings")
	Name string

	// Threshold is the numeric bound for min and gt kinds
	Threshold float64
}

// Spec is a parsed trigger: Always, or every condition must hold
type Spec struct {
	Always     bool
	Conditions []Condition

	// Unrecognized lists keys that did not parse as any condition kind
	Unrecognized []string
}

// Always returns a spec that applies unconditionally
func Always() *Spec {
	return &Spec{Always: true}
}

// ParseJSON parses a stored trigger column. Empty input and JSON null mean no trigger.
// A column that is not a JSON object yields an empty spec, which applies, and an error
// describing the problem.
func ParseJSON(data []byte) (*Spec, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return &Spec{}, errors.Trigger("trigger is not a JSON object", err)
	}
	return Parse(raw)
}

// Parse converts a decoded trigger object into a condition list.
// A nil map means no trigger. Malformed keys never fail the parse: they are
// listed in Unrecognized and reported together in the returned error, and the
// spec is always usable.
func Parse(raw map[string]any) (*Spec, error) {
	if raw == nil {
		return nil, nil
	}
	spec := &Spec{}
	var problems error
	ignore := func(key string, err error) {
		spec.Unrecognized = append(spec.Unrecognized, key)
		problems = multierr.Append(problems, err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := raw[key]
		switch {
		case key == "always":
			b, err := cast.ToBoolE(val)
			if err != nil {
				ignore(key, errors.Trigger(fmt.Sprintf("always: %v is not a boolean", val), err))
				continue
			}
			spec.Always = spec.Always || b
		case key == "material_category":
			s := strings.TrimSpace(cast.ToString(val))
			if s == "" {
				spec.Unrecognized = append(spec.Unrecognized, key)
				continue
			}
			spec.Conditions = append(spec.Conditions, Condition{Kind: KindCategory, Value: s})
		case key == "sku_pattern":
			s := strings.TrimSpace(cast.ToString(val))
			if s == "" {
				spec.Unrecognized = append(spec.Unrecognized, key)
				continue
			}
			spec.Conditions = append(spec.Conditions, Condition{Kind: KindSKUPattern, Value: s})
		case strings.HasPrefix(key, "min_") && len(key) > len("min_"):
			t, err := threshold(key, val)
			if err != nil {
				ignore(key, err)
				continue
			}
			spec.Conditions = append(spec.Conditions, Condition{Kind: KindMin, Name: strings.TrimPrefix(key, "min_"), Threshold: t})
		case strings.HasSuffix(key, "_gt") && len(key) > len("_gt"):
			t, err := threshold(key, val)
			if err != nil {
				ignore(key, err)
				continue
			}
			spec.Conditions = append(spec.Conditions, Condition{Kind: KindGreater, Name: strings.TrimSuffix(key, "_gt"), Threshold: t})
		default:
			spec.Unrecognized = append(spec.Unrecognized, key)
		}
	}

	// keys are sorted, so a stable sort by kind keeps the order deterministic
	sort.SliceStable(spec.Conditions, func(i, j int) bool {
		return spec.Conditions[i].Kind < spec.Conditions[j].Kind
	})
	return spec, problems
}

func threshold(key string, val any) (float64, error) {
	if _, isBool := val.(bool); isBool || val == nil {
		return 0, errors.Trigger(fmt.Sprintf("%s: %v is not a number", key, val), nil)
	}
	t, err := cast.ToFloat64E(val)
	if err != nil {
		return 0, errors.Trigger(fmt.Sprintf("%s: %v is not a number", key, val), err)
	}
	return t, nil
}

// Map renders the trigger back into its stored object form
func (s *Spec) Map() map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{}
	if s.Always {
		out["always"] = true
	}
	for _, c := range s.Conditions {
		switch c.Kind {
		case KindCategory:
			out["material_category"] = c.Value
		case KindSKUPattern:
			out["sku_pattern"] = c.Value
		case KindMin:
			out["min_"+c.Name] = c.Threshold
		case KindGreater:
			out[c.Name+"_gt"] = c.Threshold
		}
	}
	return out
}

// String summarizes the trigger for listings
func (s *Spec) String() string {
	if s == nil {
		return "(none)"
	}
	if s.Always {
		return "always"
	}
	if len(s.Conditions) == 0 {
		return "(unrecognized)"
	}
	parts := make([]string, 0, len(s.Conditions))
	for _, c := range s.Conditions {
		switch c.Kind {
		case KindCategory:
			parts = append(parts, "category="+c.Value)
		case KindSKUPattern:
			parts = append(parts, "sku~"+c.Value)
		case KindMin:
			parts = append(parts, fmt.Sprintf("%s>=%s", c.Name, num(c.Threshold)))
		case KindGreater:
			parts = append(parts, fmt.Sprintf("%s>%s", c.Name, num(c.Threshold)))
		}
	}
	return strings.Join(parts, " AND ")
}
