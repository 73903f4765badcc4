package measurement

import (
	"math"
)

// Context is an immutable set of canonical measurements.
// The zero value is an empty context where every field reads as 0.
type Context struct {
	values map[Field]float64
}

// NewContext creates a context from canonical values.
// Unknown fields are dropped and invalid numbers become 0.
func NewContext(values map[Field]float64) Context {
	c := Context{values: make(map[Field]float64, len(Fields))}
	for _, f := range Fields {
		c.values[f] = clean(values[f])
	}
	return c
}

// Value returns a canonical field
func (c Context) Value(f Field) float64 {
	return c.values[f]
}

// Get returns a field by canonical or alias name
func (c Context) Get(name string) (float64, bool) {
	f, ok := Resolve(name)
	if !ok {
		return 0, false
	}
	return c.values[f], true
}

// With returns a copy of c with the given fields replaced
func (c Context) With(overrides map[Field]float64) Context {
	merged := make(map[Field]float64, len(Fields))
	for _, f := range Fields {
		merged[f] = c.values[f]
	}
	for f, v := range overrides {
		if _, ok := canonical[f]; ok {
			merged[f] = v
		}
	}
	return NewContext(merged)
}

// Values returns a copy of the canonical values
func (c Context) Values() map[Field]float64 {
	out := make(map[Field]float64, len(Fields))
	for _, f := range Fields {
		out[f] = c.values[f]
	}
	return out
}

// Variables binds every canonical and alias name to its value for formula evaluation
func (c Context) Variables() map[string]float64 {
	vars := make(map[string]float64, len(Fields)+len(aliases))
	for _, f := range Fields {
		vars[string(f)] = c.values[f]
	}
	for alias, f := range aliases {
		vars[alias] = c.values[f]
	}
	return vars
}

// Equal reports whether two contexts hold the same values
func (c Context) Equal(other Context) bool {
	for _, f := range Fields {
		if c.values[f] != other.values[f] {
			return false
		}
	}
	return true
}

func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
