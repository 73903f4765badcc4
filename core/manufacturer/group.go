// Package manufacturer aggregates the portion of a project attributed to each
// material manufacturer and derives manufacturer-scoped measurement contexts.
//
// Each physical quantity reaches a group total through exactly one path:
// an assignment's quantity is attributed by its unit class alone, a declared
// area is used only when that unit is unclassifiable, and spatial facade area
// is used only for manufacturers with no assignment-derived group.
package manufacturer

import (
	"sort"
	"strings"

	"siding-takeoff/core/measurement"
	"siding-takeoff/core/pricing"
	"siding-takeoff/core/units"
	"siding-takeoff/internal/logging"
)

// Assignment is a material the user placed on part of the project
type Assignment struct {
	// ID is the assignment identity
	ID string `json:"id" yaml:"id"`

	// PricingID is the priced product; SKU is used when empty
	PricingID string `json:"pricing_id,omitempty" yaml:"pricing_id,omitempty"`
	SKU       string `json:"sku,omitempty" yaml:"sku,omitempty"`

	// Quantity and Unit are the priced quantity
	Quantity float64 `json:"quantity" yaml:"quantity"`
	Unit     string  `json:"unit" yaml:"unit"`

	// DeclaredAreaSqft is the facade area the material covers, when known separately
	DeclaredAreaSqft float64 `json:"declared_area_sqft,omitempty" yaml:"declared_area_sqft,omitempty"`

	// DeclaredPerimeterLf is the perimeter of that area
	DeclaredPerimeterLf float64 `json:"declared_perimeter_lf,omitempty" yaml:"declared_perimeter_lf,omitempty"`

	// DetectionID links back to the detection that produced the assignment
	DetectionID string `json:"detection_id,omitempty" yaml:"detection_id,omitempty"`
}

// PricingKey returns the identity used for pricing lookups
func (a Assignment) PricingKey() string {
	if a.PricingID != "" {
		return a.PricingID
	}
	return a.SKU
}

// Group is one manufacturer's share of the project
type Group struct {
	Manufacturer string `json:"manufacturer"`

	AreaSqft   float64 `json:"area_sqft"`
	LinearLf   float64 `json:"linear_lf"`
	PieceCount float64 `json:"piece_count"`

	WindowCount       float64 `json:"window_count"`
	DoorCount         float64 `json:"door_count"`
	GarageCount       float64 `json:"garage_count"`
	WindowPerimeterLf float64 `json:"window_perimeter_lf"`
	DoorPerimeterLf   float64 `json:"door_perimeter_lf"`
	GaragePerimeterLf float64 `json:"garage_perimeter_lf"`

	OutsideCornerCount float64 `json:"outside_corners_count"`
	OutsideCornerLf    float64 `json:"outside_corners_lf"`
	InsideCornerCount  float64 `json:"inside_corners_count"`
	InsideCornerLf     float64 `json:"inside_corners_lf"`

	TrimHeadLf  float64 `json:"trim_head_lf"`
	TrimJambLf  float64 `json:"trim_jamb_lf"`
	TrimSillLf  float64 `json:"trim_sill_lf"`
	TrimTotalLf float64 `json:"trim_total_lf"`
	BellyBandLf float64 `json:"belly_band_lf"`

	// FromAssignments is true when the group was created by assignment aggregation
	FromAssignments bool `json:"from_assignments"`

	// HasSpatial is true when spatial measurements were merged in
	HasSpatial bool `json:"has_spatial"`

	// MaterialIDs lists contributing assignment or material ids
	MaterialIDs []string `json:"material_ids"`
}

// Empty reports whether the group has neither area nor linear measure
func (g *Group) Empty() bool {
	return g.AreaSqft <= 0 && g.LinearLf <= 0
}

func (g *Group) openingsCount() float64 {
	return g.WindowCount + g.DoorCount + g.GarageCount
}

func (g *Group) openingsPerimeter() float64 {
	return g.WindowPerimeterLf + g.DoorPerimeterLf + g.GaragePerimeterLf
}

func (g *Group) trimTotal() float64 {
	if g.TrimTotalLf > 0 {
		return g.TrimTotalLf
	}
	return g.TrimHeadLf + g.TrimJambLf + g.TrimSillLf
}

// Result is the output of Build
type Result struct {
	Groups map[string]*Group

	// Unresolved lists assignments whose manufacturer could not be determined
	Unresolved []string
}

// Build aggregates assignments and optional spatial measurements per manufacturer.
// spatial is keyed by material identity (pricing id or SKU).
func Build(assignments []Assignment, catalog pricing.Lookup, spatial map[string]Spatial) Result {
	res := Result{Groups: map[string]*Group{}}

	for _, a := range assignments {
		name := resolve(catalog, a.PricingKey(), "")
		if name == "" {
			res.Unresolved = append(res.Unresolved, a.ID)
			logging.Debug("assignment has no manufacturer", logging.SKU(a.PricingKey()))
			continue
		}
		g := res.group(name)
		g.FromAssignments = true
		g.add(a)
	}

	keys := make([]string, 0, len(spatial))
	for k := range spatial {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		s := spatial[key]
		name := resolve(catalog, key, s.Manufacturer)
		if name == "" {
			res.Unresolved = append(res.Unresolved, key)
			continue
		}
		res.group(name).merge(key, s)
	}

	for _, g := range res.Groups {
		sort.Strings(g.MaterialIDs)
	}
	return res
}

func (r *Result) group(name string) *Group {
	key := strings.ToLower(name)
	g, ok := r.Groups[key]
	if !ok {
		g = &Group{Manufacturer: name}
		r.Groups[key] = g
	}
	return g
}

// Lookup returns the group for a manufacturer name, case-insensitively
func (r *Result) Lookup(name string) (*Group, bool) {
	g, ok := r.Groups[strings.ToLower(strings.TrimSpace(name))]
	return g, ok
}

// add attributes one assignment by unit class. The declared area only counts
// when the unit is unclassifiable, never on top of a classified quantity.
func (g *Group) add(a Assignment) {
	qty := measurement.ToNumber(a.Quantity)
	base, class := units.ToBase(qty, a.Unit)
	switch class {
	case units.Area:
		g.AreaSqft += base
	case units.Linear:
		g.LinearLf += base
	case units.Piece:
		g.PieceCount += base
	default:
		g.AreaSqft += measurement.ToNumber(a.DeclaredAreaSqft)
	}
	if a.ID != "" {
		g.MaterialIDs = append(g.MaterialIDs, a.ID)
	}
}

// merge adds spatial measurements. Facade area is taken only when no
// assignment already accounted for this manufacturer's area.
func (g *Group) merge(key string, s Spatial) {
	if !g.FromAssignments {
		g.AreaSqft += s.FacadeAreaSqft
	}
	g.WindowCount += s.WindowCount
	g.DoorCount += s.DoorCount
	g.GarageCount += s.GarageCount
	g.WindowPerimeterLf += s.WindowPerimeterLf
	g.DoorPerimeterLf += s.DoorPerimeterLf
	g.GaragePerimeterLf += s.GaragePerimeterLf
	g.OutsideCornerCount += s.OutsideCornerCount
	g.OutsideCornerLf += s.OutsideCornerLf
	g.InsideCornerCount += s.InsideCornerCount
	g.InsideCornerLf += s.InsideCornerLf
	g.TrimHeadLf += s.TrimHeadLf
	g.TrimJambLf += s.TrimJambLf
	g.TrimSillLf += s.TrimSillLf
	g.TrimTotalLf += s.TrimTotalLf
	g.BellyBandLf += s.BellyBandLf
	g.HasSpatial = true
	g.MaterialIDs = append(g.MaterialIDs, key)
}

func resolve(catalog pricing.Lookup, key, explicit string) string {
	if catalog != nil && key != "" {
		if item, ok := catalog.Lookup(key); ok && strings.TrimSpace(item.Manufacturer) != "" {
			return strings.TrimSpace(item.Manufacturer)
		}
	}
	return strings.TrimSpace(explicit)
}
