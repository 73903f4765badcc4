// Package measurement normalizes raw building measurements into a canonical context.
// Areas are square feet, lengths are linear feet, counts are plain numbers.
package measurement

// Field names a canonical measurement
type Field string

// Canonical fields
const (
	FacadeSqft         Field = "facade_sqft"
	NetSidingSqft      Field = "net_siding_area_sqft"
	FacadePerimeterLf  Field = "facade_perimeter_lf"
	AvgWallHeightFt    Field = "avg_wall_height_ft"
	StarterStripLf     Field = "starter_strip_lf"
	GableCount         Field = "gable_count"
	GableAreaSqft      Field = "gable_area_sqft"
	RakeLf             Field = "rake_lf"
	EaveLf             Field = "eave_lf"
	SoffitSqft         Field = "soffit_sqft"
	BellyBandLf        Field = "belly_band_lf"
	LevelCount         Field = "level_count"
	WindowCount        Field = "window_count"
	WindowAreaSqft     Field = "window_area_sqft"
	WindowPerimeterLf  Field = "window_perimeter_lf"
	DoorCount          Field = "door_count"
	DoorAreaSqft       Field = "door_area_sqft"
	DoorPerimeterLf    Field = "door_perimeter_lf"
	GarageCount        Field = "garage_count"
	GarageAreaSqft     Field = "garage_area_sqft"
	GaragePerimeterLf  Field = "garage_perimeter_lf"
	OpeningsCount      Field = "openings_count"
	OpeningsAreaSqft   Field = "openings_area_sqft"
	OpeningsPerimLf    Field = "openings_perimeter_lf"
	OutsideCornerCount Field = "outside_corners_count"
	OutsideCornerLf    Field = "outside_corners_lf"
	InsideCornerCount  Field = "inside_corners_count"
	InsideCornerLf     Field = "inside_corners_lf"
	CornersLf          Field = "corners_lf"
	TrimHeadLf         Field = "trim_head_lf"
	TrimJambLf         Field = "trim_jamb_lf"
	TrimSillLf         Field = "trim_sill_lf"
	TrimTotalLf        Field = "trim_total_lf"

	// Material totals are zero project-wide and carry a manufacturer's
	// assigned quantities in a scoped context.
	MaterialAreaSqft   Field = "material_area_sqft"
	MaterialLinearLf   Field = "material_linear_lf"
	MaterialPieceCount Field = "material_piece_count"
)

// DefaultWallHeightFt is used when no source supplies a wall height
const DefaultWallHeightFt = 10.0

// Fields lists every canonical field in a stable order
var Fields = []Field{
	FacadeSqft, NetSidingSqft, FacadePerimeterLf, AvgWallHeightFt, StarterStripLf,
	GableCount, GableAreaSqft, RakeLf, EaveLf, SoffitSqft, BellyBandLf, LevelCount,
	WindowCount, WindowAreaSqft, WindowPerimeterLf,
	DoorCount, DoorAreaSqft, DoorPerimeterLf,
	GarageCount, GarageAreaSqft, GaragePerimeterLf,
	OpeningsCount, OpeningsAreaSqft, OpeningsPerimLf,
	OutsideCornerCount, OutsideCornerLf, InsideCornerCount, InsideCornerLf, CornersLf,
	TrimHeadLf, TrimJambLf, TrimSillLf, TrimTotalLf,
	MaterialAreaSqft, MaterialLinearLf, MaterialPieceCount,
}

// aliases maps historical formula variable names onto canonical fields.
// Rules authored against older payload shapes reference these names.
var aliases = map[string]Field{
	"facade_area_sqft":           FacadeSqft,
	"facade_total_sqft":          FacadeSqft,
	"gross_wall_sqft":            FacadeSqft,
	"net_siding_sqft":            NetSidingSqft,
	"net_area_sqft":              NetSidingSqft,
	"siding_sqft":                NetSidingSqft,
	"perimeter_lf":               FacadePerimeterLf,
	"facade_perimeter":           FacadePerimeterLf,
	"wall_height_ft":             AvgWallHeightFt,
	"starter_lf":                 StarterStripLf,
	"gables":                     GableCount,
	"belly_band_length":          BellyBandLf,
	"windows_count":              WindowCount,
	"windows_area_sqft":          WindowAreaSqft,
	"windows_perimeter_lf":       WindowPerimeterLf,
	"doors_count":                DoorCount,
	"doors_area_sqft":            DoorAreaSqft,
	"doors_perimeter_lf":         DoorPerimeterLf,
	"garages_count":              GarageCount,
	"garages_area_sqft":          GarageAreaSqft,
	"garages_perimeter_lf":       GaragePerimeterLf,
	"total_openings":             OpeningsCount,
	"opening_count":              OpeningsCount,
	"total_opening_area_sqft":    OpeningsAreaSqft,
	"total_opening_perimeter_lf": OpeningsPerimLf,
	"opening_perimeter_lf":       OpeningsPerimLf,
	"outside_corner_count":       OutsideCornerCount,
	"corners_outside_count":      OutsideCornerCount,
	"outside_corner_lf":          OutsideCornerLf,
	"inside_corner_count":        InsideCornerCount,
	"corners_inside_count":       InsideCornerCount,
	"inside_corner_lf":           InsideCornerLf,
	"total_corner_lf":            CornersLf,
	"trim_lf":                    TrimTotalLf,
	"total_trim_lf":              TrimTotalLf,
}

// Resolve maps a canonical or alias name to its canonical field
func Resolve(name string) (Field, bool) {
	if f, ok := aliases[name]; ok {
		return f, true
	}
	if _, ok := canonical[Field(name)]; ok {
		return Field(name), true
	}
	return "", false
}

// Aliases returns a copy of the alias table
func Aliases() map[string]Field {
	out := make(map[string]Field, len(aliases))
	for k, v := range aliases {
		out[k] = v
	}
	return out
}

var canonical = func() map[Field]struct{} {
	m := make(map[Field]struct{}, len(Fields))
	for _, f := range Fields {
		m[f] = struct{}{}
	}
	return m
}()
