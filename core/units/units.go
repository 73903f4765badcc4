// Package units classifies takeoff units of measure.
package units

import "strings"

// Class is the physical dimension a unit measures
type Class int

const (
	// Unknown units cannot be attributed to area, length or count
	Unknown Class = iota
	Area
	Linear
	Piece
)

// String returns the class name
func (c Class) String() string {
	switch c {
	case Area:
		return "area"
	case Linear:
		return "linear"
	case Piece:
		return "piece"
	default:
		return "unknown"
	}
}

// SquareFeetPerSquare is the roofing/siding "square"
const SquareFeetPerSquare = 100.0

type unitInfo struct {
	class Class
	// factor converts one of this unit to the class base unit (SF, LF, EA)
	factor float64
	// pack units hold an unknown number of pieces and convert to nothing else
	pack bool
}

var table = map[string]unitInfo{
	"SF":          {Area, 1, false},
	"SQFT":        {Area, 1, false},
	"SQ FT":       {Area, 1, false},
	"FT2":         {Area, 1, false},
	"SQUARE FEET": {Area, 1, false},
	"SQ":          {Area, SquareFeetPerSquare, false},
	"SQUARE":      {Area, SquareFeetPerSquare, false},
	"SQUARES":     {Area, SquareFeetPerSquare, false},
	"LF":          {Linear, 1, false},
	"FT":          {Linear, 1, false},
	"LIN FT":      {Linear, 1, false},
	"LINEAR FEET": {Linear, 1, false},
	"EA":          {Piece, 1, false},
	"EACH":        {Piece, 1, false},
	"PC":          {Piece, 1, false},
	"PCS":         {Piece, 1, false},
	"PIECE":       {Piece, 1, false},
	"PIECES":      {Piece, 1, false},
	"BOX":         {Piece, 1, true},
	"ROLL":        {Piece, 1, true},
	"TUBE":        {Piece, 1, true},
	"BUNDLE":      {Piece, 1, true},
}

// Normalize upper-cases a unit and collapses punctuation
func Normalize(unit string) string {
	u := strings.ToUpper(strings.TrimSpace(unit))
	u = strings.NewReplacer(".", "", "_", " ", "-", " ").Replace(u)
	return strings.Join(strings.Fields(u), " ")
}

// Classify reports which dimension a unit measures
func Classify(unit string) Class {
	return table[Normalize(unit)].class
}

// ToBase converts a quantity to the base unit of its class (SF, LF or EA)
func ToBase(quantity float64, unit string) (float64, Class) {
	info, ok := table[Normalize(unit)]
	if !ok {
		return quantity, Unknown
	}
	return quantity * info.factor, info.class
}

// Convert converts a quantity between two units of the same class.
// Packaged units (BOX, ROLL, ...) only convert to themselves.
func Convert(quantity float64, from, to string) (float64, bool) {
	f, okFrom := table[Normalize(from)]
	t, okTo := table[Normalize(to)]
	if !okFrom || !okTo || f.class != t.class {
		return quantity, false
	}
	if (f.pack || t.pack) && Normalize(from) != Normalize(to) {
		return quantity, false
	}
	return quantity * f.factor / t.factor, true
}
