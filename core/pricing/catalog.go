// Package pricing - Product catalog and labor rates
// Items are looked up by pricing id or SKU, case-insensitively.
package pricing

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Item is a priced product
type Item struct {
	// ID is the pricing identity
	ID string `json:"id" yaml:"id"`

	// SKU is the vendor SKU
	SKU string `json:"sku" yaml:"sku"`

	// Name is the display name
	Name string `json:"name" yaml:"name"`

	// Category groups items on the bill (siding, trim, accessories, ...)
	Category string `json:"category" yaml:"category"`

	// Manufacturer is the brand the product belongs to
	Manufacturer string `json:"manufacturer" yaml:"manufacturer"`

	// Unit is the pricing unit
	Unit string `json:"unit" yaml:"unit"`

	// MaterialCost is the material cost per unit
	MaterialCost decimal.Decimal `json:"material_cost" yaml:"material_cost"`

	// BaseLaborCost is the install labor per unit before burden
	BaseLaborCost decimal.Decimal `json:"base_labor_cost" yaml:"base_labor_cost"`

	// TotalLaborCost is a precomputed burdened labor rate; zero means derive it
	TotalLaborCost decimal.Decimal `json:"total_labor_cost" yaml:"total_labor_cost"`
}

// Key returns the pricing identity, falling back to the SKU
func (i *Item) Key() string {
	if i.ID != "" {
		return i.ID
	}
	return i.SKU
}

// Lookup resolves a pricing id or SKU to an item
type Lookup interface {
	Lookup(key string) (*Item, bool)
}

// Catalog is an immutable in-memory Lookup
type Catalog struct {
	items []*Item
	byKey map[string]*Item
}

// NewCatalog indexes items by id and SKU. Earlier items win on key collisions.
func NewCatalog(items []Item) *Catalog {
	c := &Catalog{byKey: make(map[string]*Item, len(items)*2)}
	for idx := range items {
		item := items[idx]
		c.items = append(c.items, &item)
		for _, k := range []string{item.ID, item.SKU} {
			k = normalizeKey(k)
			if k == "" {
				continue
			}
			if _, exists := c.byKey[k]; !exists {
				c.byKey[k] = &item
			}
		}
	}
	return c
}

// Lookup implements Lookup
func (c *Catalog) Lookup(key string) (*Item, bool) {
	if c == nil {
		return nil, false
	}
	item, ok := c.byKey[normalizeKey(key)]
	return item, ok
}

// Len returns the number of items
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Items returns the items sorted by key
func (c *Catalog) Items() []Item {
	if c == nil {
		return nil
	}
	out := make([]Item, 0, len(c.items))
	for _, i := range c.items {
		out = append(out, *i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Key() < out[b].Key() })
	return out
}

func normalizeKey(k string) string {
	return strings.ToUpper(strings.TrimSpace(k))
}

// Source loads a catalog
type Source interface {
	Catalog(ctx context.Context) (*Catalog, error)
}

// StaticSource serves a fixed catalog
type StaticSource struct {
	catalog *Catalog
}

// NewStaticSource wraps a catalog as a Source
func NewStaticSource(c *Catalog) *StaticSource {
	return &StaticSource{catalog: c}
}

// Catalog implements Source
func (s *StaticSource) Catalog(ctx context.Context) (*Catalog, error) {
	return s.catalog, nil
}
