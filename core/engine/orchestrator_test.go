package engine

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siding-takeoff/core/lineitem"
	"siding-takeoff/core/manufacturer"
	"siding-takeoff/core/measurement"
	"siding-takeoff/core/pricing"
	"siding-takeoff/core/rules"
	"siding-takeoff/internal/errors"
)

type failingSource struct{ err error }

func (s failingSource) Catalog(ctx context.Context) (*pricing.Catalog, error) {
	return nil, s.err
}

func orchestratorCatalog() *pricing.Catalog {
	return pricing.NewCatalog([]pricing.Item{
		{
			ID: "hardie-plank", SKU: "HARDIE-PLANK-825", Name: "HardiePlank 8.25", Category: "siding",
			Manufacturer: "James Hardie", Unit: "SQ",
			MaterialCost: decimal.NewFromInt(300), TotalLaborCost: decimal.NewFromInt(100),
		},
		{
			ID: "housewrap", SKU: "TYVEK-9X150", Name: "House Wrap", Category: "accessories",
			Unit: "ROLL", MaterialCost: decimal.NewFromInt(150),
		},
	})
}

func orchestratorRules() []rules.Rule {
	return []rules.Rule{
		{ID: "wrap", Name: "House Wrap", Category: "accessories", SKU: "housewrap", Unit: "ROLL", QuantityFormula: "ceil(facade_sqft / 1350)", GroupOrder: 1, Active: true},
		{
			ID: "plank-waste", Name: "HardiePlank 8.25", Category: "siding", SKU: "HARDIE-PLANK-825", Unit: "SQ",
			QuantityFormula: "material_area_sqft / 100 * 0.1", Manufacturers: []string{"James Hardie"}, GroupOrder: 2, Active: true,
		},
	}
}

func testRequest() Request {
	return Request{
		ProjectID:          "proj-1",
		StoredMeasurements: map[string]any{"facade_total_sqft": 2000, "windows_count": 10},
		Assignments: []manufacturer.Assignment{
			{ID: "a1", PricingID: "hardie-plank", Quantity: 12, Unit: "SQ"},
		},
	}
}

func newTestOrchestrator(src pricing.Source) *Orchestrator {
	repo := rules.NewRepository(nil, rules.WithFallback(orchestratorRules))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewOrchestrator(repo, src, Options{
		OverheadPercent: 10,
		MarkupPercent:   15,
		Now:             func() time.Time { return now },
	})
}

func TestCalculate_EmptyRequest(t *testing.T) {
	_, err := newTestOrchestrator(nil).Calculate(context.Background(), Request{ProjectID: "p"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func TestCalculate_EndToEnd(t *testing.T) {
	o := newTestOrchestrator(pricing.NewStaticSource(orchestratorCatalog()))

	to, err := o.Calculate(context.Background(), testRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, to.ID)
	assert.Equal(t, "proj-1", to.ProjectID)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), to.CreatedAt)
	assert.Equal(t, 2000.0, to.Context[string(measurement.FacadeSqft)])

	require.Len(t, to.Items, 2)
	wrap, plank := to.Items[0], to.Items[1]

	assert.Equal(t, "HOUSEWRAP", wrap.Key)
	assert.Equal(t, "2", wrap.Quantity.String())
	assert.Equal(t, lineitem.SourceRule, wrap.Source)

	// 12 SQ assigned plus ceil(1.2) SQ of waste
	assert.Equal(t, "HARDIE-PLANK", plank.Key)
	assert.Equal(t, "14", plank.Quantity.String())
	assert.Equal(t, lineitem.SourceMixed, plank.Source)
	assert.Equal(t, "James Hardie", plank.Manufacturer)

	assert.Equal(t, "4500.00", to.Summary.Material.StringFixed(2))
	assert.Equal(t, "1400.00", to.Summary.Labor.StringFixed(2))
	assert.Equal(t, "5900.00", to.Summary.Subtotal.StringFixed(2))
	assert.Equal(t, "590.00", to.Summary.Overhead.StringFixed(2))
	assert.Equal(t, "973.50", to.Summary.Markup.StringFixed(2))
	assert.Equal(t, "7463.50", to.Summary.Total.StringFixed(2))

	d := to.Diagnostics
	assert.Equal(t, measurement.SourceStored, d.MeasurementSource)
	assert.Equal(t, rules.OriginFallback, d.RulesOrigin)
	assert.Equal(t, 2, d.RulesEvaluated)
	assert.Equal(t, 2, d.RulesTriggered)
	assert.Equal(t, []string{"James Hardie"}, d.Manufacturers)
	assert.Empty(t, d.MissingPricing)
	assert.Empty(t, d.CatalogError)
}

func TestCalculate_CatalogFailureDegrades(t *testing.T) {
	o := newTestOrchestrator(failingSource{err: stderrors.New("pricing db down")})

	to, err := o.Calculate(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "pricing db down", to.Diagnostics.CatalogError)
	assert.NotEmpty(t, to.Diagnostics.MissingPricing)
	assert.Contains(t, to.Diagnostics.Unresolved, "a1", "without a catalog the assignment has no manufacturer")
	for _, it := range to.Items {
		assert.True(t, it.MissingPricing)
	}
	assert.True(t, to.Summary.Total.IsZero())

	// the scoped rule has no group to run in
	s, ok := Skip{}, false
	for _, sk := range to.Diagnostics.Skips {
		if sk.RuleID == "plank-waste" {
			s, ok = sk, true
		}
	}
	require.True(t, ok)
	assert.Equal(t, SkipNoManufacturer, s.Kind)
}

type failingStore struct{}

func (failingStore) Name() string { return "failing" }

func (failingStore) LoadActiveRules(ctx context.Context) ([]rules.Rule, error) {
	return nil, stderrors.New("connection refused")
}

func TestCalculate_StoreFailureUsesFallbackRules(t *testing.T) {
	o := NewOrchestrator(rules.NewRepository(failingStore{}), pricing.NewStaticSource(orchestratorCatalog()), Options{})

	to, err := o.Calculate(context.Background(), Request{
		ProjectID: "proj-1",
		StoredMeasurements: map[string]any{
			"facade_total_sqft": 2000, "net_siding_sqft": 1800,
			"windows_perimeter_lf": 40, "corners_outside_lf": 10,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, rules.OriginFallback, to.Diagnostics.RulesOrigin)
	skus := map[string]bool{}
	for _, it := range to.Items {
		skus[it.SKU] = true
		assert.Equal(t, lineitem.SourceRule, it.Source)
	}
	assert.Equal(t, map[string]bool{"HOUSEWRAP-9X150": true, "NAILS-SIDING-5LB": true, "CAULK-10OZ": true}, skus)
	assert.Equal(t, 3, to.Diagnostics.RulesTriggered)
}

func TestCalculate_NoPricingSource(t *testing.T) {
	to, err := newTestOrchestrator(nil).Calculate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Empty(t, to.Diagnostics.CatalogError)
	assert.NotEmpty(t, to.Diagnostics.MissingPricing)
}

func TestCalculate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestOrchestrator(pricing.NewStaticSource(orchestratorCatalog())).Calculate(ctx, testRequest())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInternal))
}

func TestSummarize_RoundsPercentages(t *testing.T) {
	o := NewOrchestrator(nil, nil, Options{OverheadPercent: 7.5, MarkupPercent: 12.5})
	s := o.summarize([]lineitem.LineItem{
		{MaterialExtended: decimal.RequireFromString("100.01"), LaborExtended: decimal.RequireFromString("33.33")},
		{MaterialExtended: decimal.RequireFromString("0.99")},
	})

	assert.Equal(t, "101.00", s.Material.StringFixed(2))
	assert.Equal(t, "134.33", s.Subtotal.StringFixed(2))
	// 134.33 x 7.5% = 10.07475
	assert.Equal(t, "10.07", s.Overhead.StringFixed(2))
	// 144.40 x 12.5% = 18.05
	assert.Equal(t, "18.05", s.Markup.StringFixed(2))
	assert.Equal(t, "162.45", s.Total.StringFixed(2))
}
