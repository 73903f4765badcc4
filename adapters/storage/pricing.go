package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"siding-takeoff/core/pricing"
	terrors "siding-takeoff/internal/errors"
)

// SQLPricingStore loads the pricing catalog from a table
type SQLPricingStore struct {
	db    *sql.DB
	table string
}

// NewSQLPricingStore creates a pricing store over table (DefaultPricingTable when empty)
func NewSQLPricingStore(db *sql.DB, table string) (*SQLPricingStore, error) {
	if table == "" {
		table = DefaultPricingTable
	}
	if err := checkTable(table); err != nil {
		return nil, err
	}
	return &SQLPricingStore{db: db, table: table}, nil
}

// Catalog implements pricing.Source
func (s *SQLPricingStore) Catalog(ctx context.Context) (*pricing.Catalog, error) {
	query := fmt.Sprintf(`SELECT id, sku, name, category, manufacturer, unit,
		material_cost, base_labor_cost, total_labor_cost
		FROM %s ORDER BY id`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, terrors.Storage("failed to query pricing", err).WithContext("table", s.table)
	}
	defer rows.Close()

	var items []pricing.Item
	for rows.Next() {
		var (
			item                             pricing.Item
			sku, name, category, maker, unit sql.NullString
			material, baseLabor, totalLabor  decimal.NullDecimal
		)
		if err := rows.Scan(&item.ID, &sku, &name, &category, &maker, &unit,
			&material, &baseLabor, &totalLabor); err != nil {
			return nil, terrors.Storage("failed to scan pricing item", err).WithContext("table", s.table)
		}
		item.SKU = sku.String
		item.Name = name.String
		item.Category = category.String
		item.Manufacturer = maker.String
		item.Unit = strings.ToUpper(unit.String)
		item.MaterialCost = material.Decimal
		item.BaseLaborCost = baseLabor.Decimal
		item.TotalLaborCost = totalLabor.Decimal
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, terrors.Storage("failed to read pricing", err).WithContext("table", s.table)
	}
	return pricing.NewCatalog(items), nil
}

// InsertItem writes a pricing row. Used for seeding and tests.
func (s *SQLPricingStore) InsertItem(ctx context.Context, item pricing.Item, placeholder func(int) string) error {
	if placeholder == nil {
		placeholder = QuestionMark
	}
	marks := make([]string, 9)
	for i := range marks {
		marks[i] = placeholder(i + 1)
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (id, sku, name, category, manufacturer, unit,
		material_cost, base_labor_cost, total_labor_cost) VALUES (%s)`, s.table, strings.Join(marks, ", "))

	_, err := s.db.ExecContext(ctx, stmt, item.ID, item.SKU, item.Name, item.Category, item.Manufacturer, item.Unit,
		item.MaterialCost.String(), item.BaseLaborCost.String(), item.TotalLaborCost.String())
	if err != nil {
		return terrors.Storage("failed to insert pricing item", err).WithContext("id", item.ID)
	}
	return nil
}
