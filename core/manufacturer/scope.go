package manufacturer

import (
	"siding-takeoff/core/measurement"
)

// Ratio is the manufacturer's share of the project facade, 0 when the project has no facade area
func Ratio(project measurement.Context, g *Group) float64 {
	total := project.Value(measurement.FacadeSqft)
	if g == nil || total <= 0 {
		return 0
	}
	return g.AreaSqft / total
}

// ScopedContext derives the measurement context for one manufacturer's portion of the project.
//
// Facade area, perimeter and material totals come from the group. Openings,
// corners, trim and belly band come from the group when spatial data supplied
// them and otherwise scale by the manufacturer's share of the facade. Fields
// with no manufacturer data at all (net area, gables, soffit, ...) always scale.
// Scaled values are an approximation.
func ScopedContext(project measurement.Context, g *Group) measurement.Context {
	ratio := Ratio(project, g)
	scale := func(f measurement.Field) float64 {
		return project.Value(f) * ratio
	}
	height := project.Value(measurement.AvgWallHeightFt)

	o := map[measurement.Field]float64{
		measurement.FacadeSqft:         g.AreaSqft,
		measurement.FacadePerimeterLf:  measurement.FacadePerimeter(g.AreaSqft, height, scale(measurement.StarterStripLf)),
		measurement.MaterialAreaSqft:   g.AreaSqft,
		measurement.MaterialLinearLf:   g.LinearLf,
		measurement.MaterialPieceCount: g.PieceCount,
	}

	for _, f := range []measurement.Field{
		measurement.NetSidingSqft,
		measurement.StarterStripLf,
		measurement.GableCount,
		measurement.GableAreaSqft,
		measurement.RakeLf,
		measurement.EaveLf,
		measurement.SoffitSqft,
		measurement.WindowAreaSqft,
		measurement.DoorAreaSqft,
		measurement.GarageAreaSqft,
		measurement.OpeningsAreaSqft,
	} {
		o[f] = scale(f)
	}

	if g.openingsCount() > 0 || g.openingsPerimeter() > 0 {
		o[measurement.WindowCount] = g.WindowCount
		o[measurement.DoorCount] = g.DoorCount
		o[measurement.GarageCount] = g.GarageCount
		o[measurement.OpeningsCount] = g.openingsCount()
		o[measurement.WindowPerimeterLf] = g.WindowPerimeterLf
		o[measurement.DoorPerimeterLf] = g.DoorPerimeterLf
		o[measurement.GaragePerimeterLf] = g.GaragePerimeterLf
		o[measurement.OpeningsPerimLf] = g.openingsPerimeter()
	} else {
		for _, f := range []measurement.Field{
			measurement.WindowCount, measurement.DoorCount, measurement.GarageCount, measurement.OpeningsCount,
			measurement.WindowPerimeterLf, measurement.DoorPerimeterLf, measurement.GaragePerimeterLf, measurement.OpeningsPerimLf,
		} {
			o[f] = scale(f)
		}
	}

	if g.OutsideCornerLf > 0 || g.InsideCornerLf > 0 || g.OutsideCornerCount > 0 || g.InsideCornerCount > 0 {
		o[measurement.OutsideCornerCount] = g.OutsideCornerCount
		o[measurement.OutsideCornerLf] = g.OutsideCornerLf
		o[measurement.InsideCornerCount] = g.InsideCornerCount
		o[measurement.InsideCornerLf] = g.InsideCornerLf
		o[measurement.CornersLf] = g.OutsideCornerLf + g.InsideCornerLf
	} else {
		for _, f := range []measurement.Field{
			measurement.OutsideCornerCount, measurement.OutsideCornerLf,
			measurement.InsideCornerCount, measurement.InsideCornerLf, measurement.CornersLf,
		} {
			o[f] = scale(f)
		}
	}

	if t := g.trimTotal(); t > 0 {
		o[measurement.TrimHeadLf] = g.TrimHeadLf
		o[measurement.TrimJambLf] = g.TrimJambLf
		o[measurement.TrimSillLf] = g.TrimSillLf
		o[measurement.TrimTotalLf] = t
	} else {
		for _, f := range []measurement.Field{
			measurement.TrimHeadLf, measurement.TrimJambLf, measurement.TrimSillLf, measurement.TrimTotalLf,
		} {
			o[f] = scale(f)
		}
	}

	if g.BellyBandLf > 0 {
		o[measurement.BellyBandLf] = g.BellyBandLf
	} else {
		o[measurement.BellyBandLf] = scale(measurement.BellyBandLf)
	}

	return project.With(o)
}
