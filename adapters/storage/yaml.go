package storage

import (
	"context"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"siding-takeoff/core/pricing"
	"siding-takeoff/core/rules"
	"siding-takeoff/core/trigger"
	terrors "siding-takeoff/internal/errors"
	"siding-takeoff/internal/logging"
)

// yamlRule is the file form of a rule
type yamlRule struct {
	ID              string         `yaml:"id"`
	Name            string         `yaml:"name"`
	Category        string         `yaml:"category"`
	SKU             string         `yaml:"sku"`
	Group           string         `yaml:"group"`
	GroupOrder      int            `yaml:"group_order"`
	ItemOrder       int            `yaml:"item_order"`
	Trigger         map[string]any `yaml:"trigger"`
	QuantityFormula string         `yaml:"quantity_formula"`
	Unit            string         `yaml:"unit"`
	Active          *bool          `yaml:"active"`
	Manufacturers   []string       `yaml:"manufacturers"`
	Notes           string         `yaml:"notes"`
}

type rulesFile struct {
	Rules []yamlRule `yaml:"rules"`
}

// YAMLRuleStore reads rules from a YAML file on every load
type YAMLRuleStore struct {
	path string
}

// NewYAMLRuleStore creates a file-backed rule store
func NewYAMLRuleStore(path string) *YAMLRuleStore {
	return &YAMLRuleStore{path: path}
}

// Name implements rules.Store
func (s *YAMLRuleStore) Name() string {
	return "yaml:" + s.path
}

// LoadActiveRules implements rules.Store. Rules default to active.
func (s *YAMLRuleStore) LoadActiveRules(ctx context.Context) ([]rules.Rule, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, terrors.Storage("failed to read rules file", err).WithContext("path", s.path)
	}
	return ParseRulesYAML(data)
}

// ParseRulesYAML decodes a rules document
func ParseRulesYAML(data []byte) ([]rules.Rule, error) {
	var doc rulesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, terrors.Storage("failed to parse rules file", err)
	}

	out := make([]rules.Rule, 0, len(doc.Rules))
	for _, yr := range doc.Rules {
		spec, err := trigger.Parse(yr.Trigger)
		if err != nil {
			logging.Warn("rule has an invalid trigger, ignoring bad conditions", logging.RuleID(yr.ID), zap.Error(err))
		}
		active := yr.Active == nil || *yr.Active
		var filter []string
		if len(yr.Manufacturers) > 0 {
			filter = yr.Manufacturers
		}
		out = append(out, rules.Rule{
			ID:              yr.ID,
			Name:            yr.Name,
			Category:        yr.Category,
			SKU:             yr.SKU,
			Group:           yr.Group,
			GroupOrder:      yr.GroupOrder,
			ItemOrder:       yr.ItemOrder,
			Trigger:         spec,
			QuantityFormula: yr.QuantityFormula,
			Unit:            yr.Unit,
			Active:          active,
			Manufacturers:   filter,
			Notes:           yr.Notes,
		})
	}
	return out, nil
}

// yamlItem is the file form of a pricing item
type yamlItem struct {
	ID             string  `yaml:"id"`
	SKU            string  `yaml:"sku"`
	Name           string  `yaml:"name"`
	Category       string  `yaml:"category"`
	Manufacturer   string  `yaml:"manufacturer"`
	Unit           string  `yaml:"unit"`
	MaterialCost   float64 `yaml:"material_cost"`
	BaseLaborCost  float64 `yaml:"base_labor_cost"`
	TotalLaborCost float64 `yaml:"total_labor_cost"`
}

type pricingFile struct {
	Items []yamlItem `yaml:"items"`
}

// ParsePricingYAML decodes a pricing catalog document
func ParsePricingYAML(data []byte) (*pricing.Catalog, error) {
	var doc pricingFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, terrors.Pricing("failed to parse pricing file", err)
	}
	items := make([]pricing.Item, 0, len(doc.Items))
	for _, yi := range doc.Items {
		items = append(items, pricing.Item{
			ID:             yi.ID,
			SKU:            yi.SKU,
			Name:           yi.Name,
			Category:       yi.Category,
			Manufacturer:   yi.Manufacturer,
			Unit:           yi.Unit,
			MaterialCost:   decimal.NewFromFloat(yi.MaterialCost),
			BaseLaborCost:  decimal.NewFromFloat(yi.BaseLaborCost),
			TotalLaborCost: decimal.NewFromFloat(yi.TotalLaborCost),
		})
	}
	return pricing.NewCatalog(items), nil
}

// LoadPricingYAML reads a pricing catalog file
func LoadPricingYAML(path string) (*pricing.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, terrors.Pricing("failed to read pricing file", err).WithContext("path", path)
	}
	return ParsePricingYAML(data)
}

// YAMLPricingSource serves a pricing file as a pricing.Source, re-reading it on each call
type YAMLPricingSource struct {
	path string
}

// NewYAMLPricingSource creates a file-backed pricing source
func NewYAMLPricingSource(path string) *YAMLPricingSource {
	return &YAMLPricingSource{path: path}
}

// Catalog implements pricing.Source
func (s *YAMLPricingSource) Catalog(ctx context.Context) (*pricing.Catalog, error) {
	return LoadPricingYAML(s.path)
}
