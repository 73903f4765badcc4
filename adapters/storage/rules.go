package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"siding-takeoff/core/rules"
	"siding-takeoff/core/trigger"
	terrors "siding-takeoff/internal/errors"
	"siding-takeoff/internal/logging"
)

// SQLRuleStore reads active rules from an auto-scope rules table
type SQLRuleStore struct {
	db    *sql.DB
	table string
}

// NewSQLRuleStore creates a rule store over table (DefaultRulesTable when empty)
func NewSQLRuleStore(db *sql.DB, table string) (*SQLRuleStore, error) {
	if table == "" {
		table = DefaultRulesTable
	}
	if err := checkTable(table); err != nil {
		return nil, err
	}
	return &SQLRuleStore{db: db, table: table}, nil
}

// Name implements rules.Store
func (s *SQLRuleStore) Name() string {
	return "sql:" + s.table
}

// LoadActiveRules implements rules.Store. A row with an undecodable trigger
// or manufacturer filter is logged and skipped.
func (s *SQLRuleStore) LoadActiveRules(ctx context.Context) ([]rules.Rule, error) {
	query := fmt.Sprintf(`SELECT id, name, category, sku, group_name, group_order, item_order,
		trigger_condition, quantity_formula, unit, active, manufacturer_filter, notes
		FROM %s WHERE active = TRUE ORDER BY group_order, item_order, id`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, terrors.Storage("failed to query rules", err).WithContext("table", s.table)
	}
	defer rows.Close()

	var out []rules.Rule
	for rows.Next() {
		var (
			r                            rules.Rule
			category, group, unit, notes sql.NullString
			triggerJSON, filterJSON      sql.NullString
			groupOrder, itemOrder        sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Name, &category, &r.SKU, &group, &groupOrder, &itemOrder,
			&triggerJSON, &r.QuantityFormula, &unit, &r.Active, &filterJSON, &notes); err != nil {
			return nil, terrors.Storage("failed to scan rule", err).WithContext("table", s.table)
		}
		r.Category = category.String
		r.Group = group.String
		r.GroupOrder = int(groupOrder.Int64)
		r.ItemOrder = int(itemOrder.Int64)
		r.Unit = unit.String
		r.Notes = notes.String

		spec, err := trigger.ParseJSON([]byte(triggerJSON.String))
		if err != nil {
			logging.Warn("rule has an invalid trigger, ignoring bad conditions", logging.RuleID(r.ID), zap.Error(err))
		}
		r.Trigger = spec

		filter, err := parseFilter(filterJSON.String)
		if err != nil {
			logging.Warn("skipping rule with invalid manufacturer filter", logging.RuleID(r.ID), zap.Error(err))
			continue
		}
		r.Manufacturers = filter

		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, terrors.Storage("failed to read rules", err).WithContext("table", s.table)
	}
	return out, nil
}

// parseFilter decodes a manufacturer filter column: a JSON array of names,
// or a bare comma-separated list. Empty means project scope.
func parseFilter(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var names []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &names); err != nil {
			return nil, err
		}
	} else {
		names = strings.Split(raw, ",")
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// InsertRule writes a rule row. It exists for seeding and tests; rule
// authoring happens elsewhere.
func (s *SQLRuleStore) InsertRule(ctx context.Context, r rules.Rule, placeholder func(int) string) error {
	var triggerJSON, filterJSON sql.NullString
	if r.Trigger != nil {
		data, err := json.Marshal(r.Trigger.Map())
		if err != nil {
			return terrors.Storage("failed to encode trigger", err)
		}
		triggerJSON = sql.NullString{String: string(data), Valid: true}
	}
	if len(r.Manufacturers) > 0 {
		data, err := json.Marshal(r.Manufacturers)
		if err != nil {
			return terrors.Storage("failed to encode manufacturer filter", err)
		}
		filterJSON = sql.NullString{String: string(data), Valid: true}
	}

	if placeholder == nil {
		placeholder = QuestionMark
	}
	marks := make([]string, 13)
	for i := range marks {
		marks[i] = placeholder(i + 1)
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (id, name, category, sku, group_name, group_order, item_order,
		trigger_condition, quantity_formula, unit, active, manufacturer_filter, notes)
		VALUES (%s)`, s.table, strings.Join(marks, ", "))

	_, err := s.db.ExecContext(ctx, stmt, r.ID, r.Name, r.Category, r.SKU, r.Group, r.GroupOrder, r.ItemOrder,
		triggerJSON, r.QuantityFormula, r.Unit, r.Active, filterJSON, r.Notes)
	if err != nil {
		return terrors.Storage("failed to insert rule", err).WithContext("rule_id", r.ID)
	}
	return nil
}

// QuestionMark is the SQLite placeholder style
func QuestionMark(int) string { return "?" }

// Dollar is the PostgreSQL placeholder style
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }
