// Package storage provides the rule and pricing stores behind the takeoff core.
// Supports PostgreSQL (lib/pq), SQLite (modernc) and YAML files.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	terrors "siding-takeoff/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
	BackendYAML     Backend = "yaml"
)

// Default table names
const (
	DefaultRulesTable   = "auto_scope_rules"
	DefaultPricingTable = "pricing_items"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Open opens a database for a backend and verifies the connection
func Open(ctx context.Context, backend Backend, dsn string) (*sql.DB, error) {
	var driver string
	switch Backend(strings.ToLower(string(backend))) {
	case BackendPostgres:
		driver = "postgres"
	case BackendSQLite:
		driver = "sqlite"
	default:
		return nil, terrors.Newf(terrors.TypeConfig, "unsupported database backend %q", backend)
	}
	if dsn == "" {
		return nil, terrors.Config("database url is empty")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, terrors.Storage("failed to open database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, terrors.Storage("failed to connect to database", err)
	}
	return db, nil
}

// Migrate creates the rules and pricing tables if they do not exist.
// The DDL is portable between PostgreSQL and SQLite.
func Migrate(ctx context.Context, db *sql.DB, rulesTable, pricingTable string) error {
	if err := checkTable(rulesTable); err != nil {
		return err
	}
	if err := checkTable(pricingTable); err != nil {
		return err
	}
	schema := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT,
			sku TEXT NOT NULL,
			group_name TEXT,
			group_order INTEGER NOT NULL DEFAULT 0,
			item_order INTEGER NOT NULL DEFAULT 0,
			trigger_condition TEXT,
			quantity_formula TEXT NOT NULL,
			unit TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			manufacturer_filter TEXT,
			notes TEXT
		)`, rulesTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			sku TEXT,
			name TEXT,
			category TEXT,
			manufacturer TEXT,
			unit TEXT,
			material_cost NUMERIC,
			base_labor_cost NUMERIC,
			total_labor_cost NUMERIC
		)`, pricingTable),
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return terrors.Storage("failed to migrate database", err)
		}
	}
	return nil
}

func checkTable(name string) error {
	if !identifier.MatchString(name) {
		return terrors.Newf(terrors.TypeConfig, "invalid table name %q", name)
	}
	return nil
}
