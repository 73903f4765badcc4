package measurement

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Source identifies where a context's measurements came from
type Source string

const (
	// SourceStored means at least one value came from the persisted extraction record
	SourceStored Source = "stored"

	// SourcePayload means values came only from the ad-hoc request payload
	SourcePayload Source = "payload"

	// SourceFallback means neither source supplied a value and defaults were used
	SourceFallback Source = "fallback"
)

// fieldSource lists the keys a field is read from, in order, per source.
// Payload keys may address one level of nesting with a dot.
type fieldSource struct {
	field   Field
	stored  []string
	payload []string
}

var sourced = []fieldSource{
	{FacadeSqft, []string{"facade_total_sqft", "facade_sqft"}, []string{"facade_sqft", "facade_area_sqft", "facade_total_sqft"}},
	{NetSidingSqft, []string{"net_siding_sqft", "net_siding_area_sqft"}, []string{"net_siding_area_sqft", "net_siding_sqft"}},
	{AvgWallHeightFt, []string{"wall_avg_height_ft", "avg_wall_height_ft"}, []string{"avg_wall_height_ft", "wall_height_ft"}},
	{StarterStripLf, []string{"starter_strip_lf", "level_starter_lf"}, []string{"starter_strip_lf", "starter_lf"}},
	{GableCount, []string{"gables_count", "gable_count"}, []string{"gable_count", "gables", "gables.count"}},
	{GableAreaSqft, []string{"gables_area_sqft", "gable_area_sqft"}, []string{"gable_area_sqft", "gables.area_sqft"}},
	{RakeLf, []string{"rakes_lf", "rake_lf"}, []string{"rake_lf", "rakes_lf"}},
	{EaveLf, []string{"eaves_lf", "eave_lf"}, []string{"eave_lf", "eaves_lf"}},
	{SoffitSqft, []string{"soffit_total_sqft", "soffit_sqft"}, []string{"soffit_sqft"}},
	{BellyBandLf, []string{"belly_band_lf"}, []string{"belly_band_lf", "belly_band.total_lf"}},
	{LevelCount, []string{"levels_count", "level_count"}, []string{"level_count", "stories"}},

	{WindowCount, []string{"windows_count"}, []string{"windows.count", "window_count", "windows_count"}},
	{WindowAreaSqft, []string{"windows_area_sqft"}, []string{"windows.area_sqft", "windows.area", "window_area_sqft"}},
	{WindowPerimeterLf, []string{"windows_perimeter_lf"}, []string{"windows.perimeter_lf", "windows.perimeter", "window_perimeter_lf"}},
	{DoorCount, []string{"doors_count"}, []string{"doors.count", "door_count", "doors_count"}},
	{DoorAreaSqft, []string{"doors_area_sqft"}, []string{"doors.area_sqft", "doors.area", "door_area_sqft"}},
	{DoorPerimeterLf, []string{"doors_perimeter_lf"}, []string{"doors.perimeter_lf", "doors.perimeter", "door_perimeter_lf"}},
	{GarageCount, []string{"garages_count"}, []string{"garages.count", "garage_count", "garages_count"}},
	{GarageAreaSqft, []string{"garages_area_sqft"}, []string{"garages.area_sqft", "garages.area", "garage_area_sqft"}},
	{GaragePerimeterLf, []string{"garages_perimeter_lf"}, []string{"garages.perimeter_lf", "garages.perimeter", "garage_perimeter_lf"}},
	{OpeningsCount, []string{"openings_total_count", "total_openings"}, []string{"openings_count", "total_openings"}},
	{OpeningsAreaSqft, []string{"openings_total_area_sqft", "total_opening_area_sqft"}, []string{"openings_area_sqft", "total_opening_area_sqft"}},

	{OutsideCornerCount, []string{"corners_outside_count"}, []string{"outside_corners_count", "outside_corner_count", "corners.outside_count"}},
	{OutsideCornerLf, []string{"corners_outside_lf"}, []string{"outside_corners_lf", "outside_corner_lf", "corners.outside_lf"}},
	{InsideCornerCount, []string{"corners_inside_count"}, []string{"inside_corners_count", "inside_corner_count", "corners.inside_count"}},
	{InsideCornerLf, []string{"corners_inside_lf"}, []string{"inside_corners_lf", "inside_corner_lf", "corners.inside_lf"}},

	{TrimHeadLf, []string{"trim_head_lf"}, []string{"trim.head_lf", "trim_head_lf"}},
	{TrimJambLf, []string{"trim_jamb_lf"}, []string{"trim.jamb_lf", "trim_jamb_lf"}},
	{TrimSillLf, []string{"trim_sill_lf"}, []string{"trim.sill_lf", "trim_sill_lf"}},
	{TrimTotalLf, []string{"trim_total_lf"}, []string{"trim.total_lf", "trim_total_lf"}},
}

// Build merges a stored measurement record and a request payload into one context.
// For each field a positive stored value wins, then a positive payload value, then the default.
// Either input may be nil.
func Build(stored, payload map[string]any) (Context, Source) {
	values := make(map[Field]float64, len(Fields))
	fromStored, fromPayload := 0, 0

	for _, fs := range sourced {
		if v := first(stored, fs.stored); v > 0 {
			values[fs.field] = v
			fromStored++
			continue
		}
		if v := first(payload, fs.payload); v > 0 {
			values[fs.field] = v
			fromPayload++
		}
	}

	derive(values)

	source := SourceFallback
	switch {
	case fromStored > 0:
		source = SourceStored
	case fromPayload > 0:
		source = SourcePayload
	}
	return NewContext(values), source
}

// derive fills computed fields. It never overrides a precomputed total with a sum.
func derive(v map[Field]float64) {
	if v[AvgWallHeightFt] <= 0 {
		v[AvgWallHeightFt] = DefaultWallHeightFt
	}
	if v[OpeningsCount] <= 0 {
		v[OpeningsCount] = v[WindowCount] + v[DoorCount] + v[GarageCount]
	}
	if v[OpeningsAreaSqft] <= 0 {
		v[OpeningsAreaSqft] = v[WindowAreaSqft] + v[DoorAreaSqft] + v[GarageAreaSqft]
	}
	v[OpeningsPerimLf] = v[WindowPerimeterLf] + v[DoorPerimeterLf] + v[GaragePerimeterLf]
	v[CornersLf] = v[OutsideCornerLf] + v[InsideCornerLf]
	if v[TrimTotalLf] <= 0 {
		v[TrimTotalLf] = v[TrimHeadLf] + v[TrimJambLf] + v[TrimSillLf]
	}
	v[FacadePerimeterLf] = FacadePerimeter(v[FacadeSqft], v[AvgWallHeightFt], v[StarterStripLf])
	if v[NetSidingSqft] <= 0 && v[FacadeSqft] > 0 {
		v[NetSidingSqft] = math.Max(v[FacadeSqft]-v[OpeningsAreaSqft], 0)
	}
}

// FacadePerimeter estimates the wall perimeter from area and height,
// falling back to the starter strip length when height is unusable
func FacadePerimeter(facadeSqft, heightFt, starterLf float64) float64 {
	if heightFt > 0 {
		return facadeSqft / heightFt
	}
	if starterLf > 0 {
		return starterLf
	}
	return 0
}

// first returns the first positive numeric value among keys
func first(src map[string]any, keys []string) float64 {
	if src == nil {
		return 0
	}
	for _, key := range keys {
		if v := ToNumber(lookup(src, key)); v > 0 {
			return v
		}
	}
	return 0
}

func lookup(src map[string]any, key string) any {
	parent, child, nested := strings.Cut(key, ".")
	if !nested {
		return src[key]
	}
	switch m := src[parent].(type) {
	case map[string]any:
		return m[child]
	case map[any]any:
		return m[child]
	}
	return nil
}

// ToNumber coerces a decoded JSON/YAML value to a finite, non-negative number.
// Anything non-numeric yields 0.
func ToNumber(v any) float64 {
	switch v.(type) {
	case nil, bool, map[string]any, []any:
		return 0
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return clean(f)
}
