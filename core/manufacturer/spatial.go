package manufacturer

import (
	"siding-takeoff/core/measurement"
)

// Spatial is a precomputed per-material breakdown of the openings, corners
// and trim that fall inside that material's facade areas
type Spatial struct {
	Manufacturer string `json:"manufacturer,omitempty"`

	FacadeAreaSqft float64 `json:"facade_area_sqft"`

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
}

// SpatialFromPayload extracts per_material_measurements from a request payload.
// Entries that are not objects are ignored; numbers are coerced like measurements.
func SpatialFromPayload(payload map[string]any) map[string]Spatial {
	raw, ok := payload["per_material_measurements"].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}

	out := make(map[string]Spatial, len(raw))
	for key, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out[key] = parseSpatial(m)
	}
	return out
}

func parseSpatial(m map[string]any) Spatial {
	num := func(keys ...string) float64 {
		for _, k := range keys {
			if v := measurement.ToNumber(nested(m, k)); v > 0 {
				return v
			}
		}
		return 0
	}
	manufacturer, _ := m["manufacturer"].(string)

	return Spatial{
		Manufacturer:       manufacturer,
		FacadeAreaSqft:     num("facade_area_sqft", "area_sqft", "facade_sqft"),
		WindowCount:        num("window_count", "windows.count"),
		DoorCount:          num("door_count", "doors.count"),
		GarageCount:        num("garage_count", "garages.count"),
		WindowPerimeterLf:  num("window_perimeter_lf", "windows.perimeter_lf"),
		DoorPerimeterLf:    num("door_perimeter_lf", "doors.perimeter_lf"),
		GaragePerimeterLf:  num("garage_perimeter_lf", "garages.perimeter_lf"),
		OutsideCornerCount: num("outside_corners_count", "corners.outside_count"),
		OutsideCornerLf:    num("outside_corners_lf", "corners.outside_lf"),
		InsideCornerCount:  num("inside_corners_count", "corners.inside_count"),
		InsideCornerLf:     num("inside_corners_lf", "corners.inside_lf"),
		TrimHeadLf:         num("trim_head_lf", "trim.head_lf"),
		TrimJambLf:         num("trim_jamb_lf", "trim.jamb_lf"),
		TrimSillLf:         num("trim_sill_lf", "trim.sill_lf"),
		TrimTotalLf:        num("trim_total_lf", "trim.total_lf"),
		BellyBandLf:        num("belly_band_lf"),
	}
}

func nested(m map[string]any, key string) any {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			child, ok := m[key[:i]].(map[string]any)
			if !ok {
				return nil
			}
			return child[key[i+1:]]
		}
	}
	return m[key]
}
