package measurement

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_StoredWinsOverPayload(t *testing.T) {
	stored := map[string]any{"facade_total_sqft": 2000.0}
	payload := map[string]any{"facade_sqft": 1500.0}

	ctx, src := Build(stored, payload)

	assert.Equal(t, 2000.0, ctx.Value(FacadeSqft))
	assert.Equal(t, SourceStored, src)
}

func TestBuild_ZeroStoredFallsThroughToPayload(t *testing.T) {
	stored := map[string]any{"facade_total_sqft": 0.0}
	payload := map[string]any{"facade_sqft": 1500.0}

	ctx, src := Build(stored, payload)

	assert.Equal(t, 1500.0, ctx.Value(FacadeSqft))
	assert.Equal(t, SourcePayload, src)
}

func TestBuild_NoSources(t *testing.T) {
	ctx, src := Build(nil, nil)

	assert.Equal(t, SourceFallback, src)
	assert.Equal(t, DefaultWallHeightFt, ctx.Value(AvgWallHeightFt))
	for _, f := range Fields {
		if f == AvgWallHeightFt {
			continue
		}
		assert.Zerof(t, ctx.Value(f), "field %s", f)
	}
}

func TestBuild_PayloadOnly(t *testing.T) {
	payload := map[string]any{
		"facade_sqft":        1500.0,
		"avg_wall_height_ft": 10.0,
		"windows":            map[string]any{"count": 12.0, "perimeter_lf": 168.0},
		"doors":              map[string]any{"count": 2.0, "perimeter_lf": 40.0},
	}

	ctx, src := Build(nil, payload)

	assert.Equal(t, SourcePayload, src)
	assert.Equal(t, 1500.0, ctx.Value(FacadeSqft))
	assert.Equal(t, 150.0, ctx.Value(FacadePerimeterLf))
	assert.Equal(t, 14.0, ctx.Value(OpeningsCount))
	assert.Equal(t, 208.0, ctx.Value(OpeningsPerimLf))
}

func TestBuild_DerivedFields(t *testing.T) {
	tests := []struct {
		name    string
		stored  map[string]any
		payload map[string]any
		field   Field
		want    float64
	}{
		{
			name:   "corners sum outside and inside",
			stored: map[string]any{"corners_outside_lf": 72.0, "corners_inside_lf": 18.0},
			field:  CornersLf,
			want:   90.0,
		},
		{
			name:    "trim total from parts",
			payload: map[string]any{"trim": map[string]any{"head_lf": 40.0, "jamb_lf": 120.0, "sill_lf": 40.0}},
			field:   TrimTotalLf,
			want:    200.0,
		},
		{
			name:    "trim total given is kept",
			payload: map[string]any{"trim": map[string]any{"head_lf": 40.0, "total_lf": 300.0}},
			field:   TrimTotalLf,
			want:    300.0,
		},
		{
			name:   "precomputed openings count is not replaced by the sum",
			stored: map[string]any{"openings_total_count": 20.0, "windows_count": 12.0},
			field:  OpeningsCount,
			want:   20.0,
		},
		{
			name:   "openings count from types",
			stored: map[string]any{"windows_count": 12.0, "doors_count": 2.0, "garages_count": 1.0},
			field:  OpeningsCount,
			want:   15.0,
		},
		{
			name:   "perimeter uses wall height",
			stored: map[string]any{"facade_total_sqft": 1800.0, "wall_avg_height_ft": 9.0},
			field:  FacadePerimeterLf,
			want:   200.0,
		},
		{
			name:   "net area from facade minus openings",
			stored: map[string]any{"facade_total_sqft": 1800.0, "windows_area_sqft": 150.0, "doors_area_sqft": 50.0},
			field:  NetSidingSqft,
			want:   1600.0,
		},
		{
			name:   "net area given is kept",
			stored: map[string]any{"facade_total_sqft": 1800.0, "net_siding_sqft": 1500.0, "windows_area_sqft": 150.0},
			field:  NetSidingSqft,
			want:   1500.0,
		},
		{
			name:   "wall height defaults",
			stored: map[string]any{"facade_total_sqft": 1000.0},
			field:  AvgWallHeightFt,
			want:   DefaultWallHeightFt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := Build(tt.stored, tt.payload)
			assert.InDelta(t, tt.want, ctx.Value(tt.field), 1e-9)
		})
	}
}

func TestBuild_CoercesInvalidInput(t *testing.T) {
	payload := map[string]any{
		"facade_sqft":        "1500",
		"rake_lf":            "abc",
		"eave_lf":            -10.0,
		"soffit_sqft":        math.NaN(),
		"belly_band_lf":      math.Inf(1),
		"gable_count":        true,
		"starter_strip_lf":   json.Number("120.5"),
		"avg_wall_height_ft": nil,
	}

	ctx, _ := Build(nil, payload)

	assert.Equal(t, 1500.0, ctx.Value(FacadeSqft))
	assert.Zero(t, ctx.Value(RakeLf))
	assert.Zero(t, ctx.Value(EaveLf))
	assert.Zero(t, ctx.Value(SoffitSqft))
	assert.Zero(t, ctx.Value(BellyBandLf))
	assert.Zero(t, ctx.Value(GableCount))
	assert.Equal(t, 120.5, ctx.Value(StarterStripLf))
	assert.Equal(t, DefaultWallHeightFt, ctx.Value(AvgWallHeightFt))
}

func TestBuild_AllValuesFiniteAndNonNegative(t *testing.T) {
	inputs := []map[string]any{
		nil,
		{"facade_sqft": -1.0, "windows": map[string]any{"area_sqft": 5000.0}},
		{"facade_sqft": 100.0, "openings_area_sqft": 900.0},
		{"avg_wall_height_ft": "0", "starter_strip_lf": "x"},
	}
	for _, in := range inputs {
		ctx, _ := Build(in, in)
		for _, f := range Fields {
			v := ctx.Value(f)
			assert.Falsef(t, math.IsNaN(v) || math.IsInf(v, 0), "%s is not finite", f)
			assert.GreaterOrEqualf(t, v, 0.0, "%s is negative", f)
		}
	}
}

func TestContext_AliasesResolveToCanonical(t *testing.T) {
	ctx := NewContext(map[Field]float64{FacadeSqft: 1500, OpeningsPerimLf: 208})

	v, ok := ctx.Get("facade_area_sqft")
	require.True(t, ok)
	assert.Equal(t, 1500.0, v)

	v, ok = ctx.Get("total_opening_perimeter_lf")
	require.True(t, ok)
	assert.Equal(t, 208.0, v)

	_, ok = ctx.Get("not_a_field")
	assert.False(t, ok)

	vars := ctx.Variables()
	for alias, f := range Aliases() {
		assert.Equalf(t, ctx.Value(f), vars[alias], "alias %s", alias)
	}
}

func TestContext_WithDoesNotMutate(t *testing.T) {
	base := NewContext(map[Field]float64{FacadeSqft: 1500})
	scoped := base.With(map[Field]float64{FacadeSqft: 600, Field("bogus"): 1})

	assert.Equal(t, 1500.0, base.Value(FacadeSqft))
	assert.Equal(t, 600.0, scoped.Value(FacadeSqft))
	assert.False(t, base.Equal(scoped))

	_, ok := scoped.Values()[Field("bogus")]
	assert.False(t, ok)
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{12, 12},
		{int64(7), 7},
		{"3.5", 3.5},
		{" ", 0},
		{nil, 0},
		{false, 0},
		{map[string]any{"a": 1}, 0},
		{[]any{1}, 0},
		{-4.0, 0},
		{math.Inf(-1), 0},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, ToNumber(tt.in), "ToNumber(%#v)", tt.in)
	}
}
