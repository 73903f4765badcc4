package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_LookupByIDOrSKU(t *testing.T) {
	c := NewCatalog([]Item{
		{ID: "p-100", SKU: "HARDIE-PLANK-825", Manufacturer: "James Hardie"},
		{SKU: "CAULK-10OZ"},
		{ID: "p-101", SKU: "hardie-plank-825", Manufacturer: "Duplicate"},
	})

	item, ok := c.Lookup("P-100")
	require.True(t, ok)
	assert.Equal(t, "James Hardie", item.Manufacturer)

	item, ok = c.Lookup(" hardie-plank-825 ")
	require.True(t, ok)
	assert.Equal(t, "James Hardie", item.Manufacturer, "earlier items win key collisions")

	item, ok = c.Lookup("caulk-10oz")
	require.True(t, ok)
	assert.Equal(t, "CAULK-10OZ", item.Key())

	_, ok = c.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 3, c.Len())

	var empty *Catalog
	_, ok = empty.Lookup("p-100")
	assert.False(t, ok)
	assert.Zero(t, empty.Len())
}

func TestCatalog_ItemsSorted(t *testing.T) {
	c := NewCatalog([]Item{{ID: "b"}, {ID: "a"}, {SKU: "c"}})
	keys := []string{}
	for _, i := range c.Items() {
		keys = append(keys, i.Key())
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestStaticSource(t *testing.T) {
	c := NewCatalog([]Item{{ID: "a"}})
	got, err := NewStaticSource(c).Catalog(context.Background())
	require.NoError(t, err)
	assert.Same(t, c, got)
}

func TestLaborBurden(t *testing.T) {
	b := NewLaborBurden(map[string]float64{
		"fica":          7.65,
		"futa":          0.6,
		"suta":          2.7,
		"workers_comp":  12.65,
		"liability_ins": 2.0,
	})

	assert.True(t, decimal.RequireFromString("25.6").Equal(b.Percent()), "got %s", b.Percent())
	assert.True(t, decimal.RequireFromString("1.256").Equal(b.Multiplier()))
	assert.True(t, decimal.RequireFromString("12.56").Equal(b.TotalRate(decimal.NewFromInt(10))))
}

func TestItem_LaborRate(t *testing.T) {
	b := NewLaborBurden(map[string]float64{"fica": 10})

	derived := Item{BaseLaborCost: decimal.NewFromInt(2)}
	assert.True(t, decimal.RequireFromString("2.2").Equal(derived.LaborRate(b)))

	precomputed := Item{BaseLaborCost: decimal.NewFromInt(2), TotalLaborCost: decimal.RequireFromString("3.15")}
	assert.True(t, decimal.RequireFromString("3.15").Equal(precomputed.LaborRate(b)))

	none := Item{}
	assert.True(t, none.LaborRate(b).IsZero())
}
