package trigger

import (
	"fmt"
	"strconv"
	"strings"
)

// Reason tags for applying results
const (
	ReasonNoTrigger    = "no_trigger"
	ReasonAlways       = "always"
	ReasonAllMet       = "all_conditions_met"
	ReasonUnrecognized = "unrecognized_condition"
)

// Lookup reads a measurement by canonical or alias name
type Lookup interface {
	Get(name string) (float64, bool)
}

// Material is a material the user assigned to part of the project
type Material struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	SKU          string `json:"sku" yaml:"sku"`
	Category     string `json:"category" yaml:"category"`
	Manufacturer string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
}

// Result is the outcome of evaluating a trigger
type Result struct {
	Applies bool
	Reason  string
}

// thresholdFields maps the short names used in min_/_gt keys to context fields.
// Names not listed here are read from the context directly.
var thresholdFields = map[string]string{
	"openings":        "openings_count",
	"windows":         "window_count",
	"doors":           "door_count",
	"garages":         "garage_count",
	"corners":         "outside_corners_count",
	"outside_corners": "outside_corners_count",
	"inside_corners":  "inside_corners_count",
	"net_area":        "net_siding_area_sqft",
	"facade_area":     "facade_sqft",
	"perimeter":       "facade_perimeter_lf",
	"gables":          "gable_count",
	"belly_band":      "belly_band_lf",
	"trim":            "trim_total_lf",
	"levels":          "level_count",
	"height":          "avg_wall_height_ft",
	"soffit":          "soffit_sqft",
}

// FieldFor returns the context name a threshold name reads
func FieldFor(name string) string {
	if f, ok := thresholdFields[name]; ok {
		return f
	}
	return name
}

// Evaluate checks spec against a context and the assigned materials.
// Conditions are checked in order and the first failure is reported.
func Evaluate(spec *Spec, vars Lookup, materials []Material) Result {
	if spec == nil {
		return Result{Applies: true, Reason: ReasonNoTrigger}
	}
	if spec.Always {
		return Result{Applies: true, Reason: ReasonAlways}
	}
	if len(spec.Conditions) == 0 {
		return Result{Applies: true, Reason: ReasonUnrecognized}
	}

	for _, c := range spec.Conditions {
		if ok, reason := check(c, vars, materials); !ok {
			return Result{Applies: false, Reason: reason}
		}
	}
	return Result{Applies: true, Reason: ReasonAllMet}
}

func check(c Condition, vars Lookup, materials []Material) (bool, string) {
	switch c.Kind {
	case KindCategory:
		for _, m := range materials {
			if strings.EqualFold(strings.TrimSpace(m.Category), c.Value) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("no assigned material with category %q", c.Value)

	case KindSKUPattern:
		pattern := strings.ToLower(c.Value)
		for _, m := range materials {
			if strings.Contains(strings.ToLower(m.SKU), pattern) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("no assigned material sku contains %q", c.Value)

	case KindMin:
		v := value(vars, c.Name)
		if v >= c.Threshold {
			return true, ""
		}
		return false, fmt.Sprintf("%s=%s < %s", c.Name, num(v), num(c.Threshold))

	case KindGreater:
		v := value(vars, c.Name)
		if v > c.Threshold {
			return true, ""
		}
		return false, fmt.Sprintf("%s=%s <= %s", c.Name, num(v), num(c.Threshold))
	}
	return false, fmt.Sprintf("unknown condition kind %d", c.Kind)
}

func value(vars Lookup, name string) float64 {
	if vars == nil {
		return 0
	}
	if v, ok := vars.Get(FieldFor(name)); ok {
		return v
	}
	v, _ := vars.Get(name)
	return v
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
