package engine

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"siding-takeoff/core/lineitem"
	"siding-takeoff/core/manufacturer"
	"siding-takeoff/core/measurement"
	"siding-takeoff/core/pricing"
	"siding-takeoff/core/rules"
	"siding-takeoff/core/trigger"
	terrors "siding-takeoff/internal/errors"
	"siding-takeoff/internal/logging"
)

// Request is one takeoff calculation
type Request struct {
	ProjectID string `json:"project_id"`

	// StoredMeasurements is the persisted measurement record, if any
	StoredMeasurements map[string]any `json:"stored_measurements,omitempty"`

	// Payload is the raw client payload; it may carry per_material_measurements
	Payload map[string]any `json:"payload,omitempty"`

	Assignments []manufacturer.Assignment `json:"assignments,omitempty"`

	// Materials are extra assigned materials visible to triggers
	Materials []trigger.Material `json:"materials,omitempty"`
}

func (r Request) empty() bool {
	return len(r.StoredMeasurements) == 0 && len(r.Payload) == 0 && len(r.Assignments) == 0
}

// Summary holds bill totals, rounded to cents
type Summary struct {
	Material decimal.Decimal `json:"material"`
	Labor    decimal.Decimal `json:"labor"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Overhead decimal.Decimal `json:"overhead"`
	Markup   decimal.Decimal `json:"markup"`
	Total    decimal.Decimal `json:"total"`
}

// Diagnostics explains how the takeoff was produced
type Diagnostics struct {
	MeasurementSource measurement.Source `json:"measurement_source"`
	RulesOrigin       rules.Origin       `json:"rules_origin"`
	RulesEvaluated    int                `json:"rules_evaluated"`
	RulesTriggered    int                `json:"rules_triggered"`
	Manufacturers     []string           `json:"manufacturers,omitempty"`
	Skips             []Skip             `json:"skips,omitempty"`
	MissingPricing    []lineitem.Missing `json:"missing_pricing,omitempty"`
	Unresolved        []string           `json:"unresolved,omitempty"`
	CatalogError      string             `json:"catalog_error,omitempty"`
}

// Takeoff is the priced result of a calculation
type Takeoff struct {
	ID          string                `json:"id"`
	ProjectID   string                `json:"project_id,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	Context     map[string]float64    `json:"context"`
	Items       []lineitem.LineItem   `json:"items"`
	Groups      []*manufacturer.Group `json:"groups,omitempty"`
	Summary     Summary               `json:"summary"`
	Diagnostics Diagnostics           `json:"diagnostics"`
}

// Options configure an Orchestrator
type Options struct {
	Burden          pricing.LaborBurden
	OverheadPercent float64
	MarkupPercent   float64

	// Now defaults to time.Now
	Now func() time.Time
}

// Orchestrator runs a full takeoff: rules and pricing in, priced line items out
type Orchestrator struct {
	rules     *rules.Repository
	pricing   pricing.Source
	assembler *lineitem.Assembler
	opts      Options
}

// NewOrchestrator creates an orchestrator. A nil pricing source prices nothing.
func NewOrchestrator(repo *rules.Repository, src pricing.Source, opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if repo == nil {
		repo = rules.NewRepository(nil)
	}
	return &Orchestrator{
		rules:     repo,
		pricing:   src,
		assembler: lineitem.NewAssembler(opts.Burden),
		opts:      opts,
	}
}

// Calculate produces a takeoff. Only an empty request or a cancelled
// context is an error; rule and pricing problems degrade and are reported
// in the diagnostics.
func (o *Orchestrator) Calculate(ctx context.Context, req Request) (*Takeoff, error) {
	if req.empty() {
		return nil, terrors.Input("request has neither measurements nor material assignments")
	}

	var (
		ruleset    []rules.Rule
		origin     rules.Origin
		catalog    *pricing.Catalog
		catalogErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ruleset, origin = o.rules.GetRules(gctx)
		return nil
	})
	g.Go(func() error {
		if o.pricing == nil {
			return nil
		}
		catalog, catalogErr = o.pricing.Catalog(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, terrors.Internal("loading rules and pricing", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, terrors.Internal("takeoff cancelled", err)
	}

	if catalogErr != nil {
		logging.Warn("pricing catalog unavailable, items will be unpriced", zap.Error(catalogErr))
		catalog = nil
	}
	if catalog == nil {
		catalog = pricing.NewCatalog(nil)
	}

	project, source := measurement.Build(req.StoredMeasurements, req.Payload)
	groups := manufacturer.Build(req.Assignments, catalog, manufacturer.SpatialFromPayload(req.Payload))
	materials := assignedMaterials(req, catalog)

	run := Run(project, groups.Groups, ruleset, materials)

	assigned, assignedMissing := o.assembler.FromAssignments(req.Assignments, catalog)
	bill := o.assembler.Assemble(ruleQuantities(run.Candidates), catalog, assigned)

	t := &Takeoff{
		ID:        uuid.NewString(),
		ProjectID: req.ProjectID,
		CreatedAt: o.opts.Now().UTC(),
		Context:   project.Variables(),
		Items:     bill.Items,
		Groups:    sortedGroups(groups.Groups),
		Summary:   o.summarize(bill.Items),
		Diagnostics: Diagnostics{
			MeasurementSource: source,
			RulesOrigin:       origin,
			RulesEvaluated:    run.Evaluated,
			RulesTriggered:    run.Triggered,
			Skips:             run.Skips,
			MissingPricing:    append(assignedMissing, bill.Missing...),
			Unresolved:        groups.Unresolved,
		},
	}
	for _, grp := range t.Groups {
		t.Diagnostics.Manufacturers = append(t.Diagnostics.Manufacturers, grp.Manufacturer)
	}
	if catalogErr != nil {
		t.Diagnostics.CatalogError = catalogErr.Error()
	}

	logging.Info("takeoff calculated",
		zap.String("takeoff_id", t.ID),
		zap.String("project_id", req.ProjectID),
		zap.String("rules_origin", string(origin)),
		zap.Int("rules_evaluated", run.Evaluated),
		zap.Int("rules_triggered", run.Triggered),
		zap.Int("line_items", len(t.Items)),
		zap.String("total", t.Summary.Total.StringFixed(lineitem.MoneyPlaces)),
	)
	return t, nil
}

// summarize totals the bill. Overhead applies to the subtotal, markup to
// subtotal plus overhead.
func (o *Orchestrator) summarize(items []lineitem.LineItem) Summary {
	hundred := decimal.NewFromInt(100)
	var s Summary
	for _, it := range items {
		s.Material = s.Material.Add(it.MaterialExtended)
		s.Labor = s.Labor.Add(it.LaborExtended)
	}
	s.Subtotal = s.Material.Add(s.Labor)
	s.Overhead = s.Subtotal.Mul(decimal.NewFromFloat(o.opts.OverheadPercent)).Div(hundred).Round(lineitem.MoneyPlaces)
	s.Markup = s.Subtotal.Add(s.Overhead).Mul(decimal.NewFromFloat(o.opts.MarkupPercent)).Div(hundred).Round(lineitem.MoneyPlaces)
	s.Total = s.Subtotal.Add(s.Overhead).Add(s.Markup)
	return s
}

// assignedMaterials describes each assignment through its catalog entry,
// followed by any explicitly supplied materials
func assignedMaterials(req Request, catalog pricing.Lookup) []trigger.Material {
	out := make([]trigger.Material, 0, len(req.Assignments)+len(req.Materials))
	for _, a := range req.Assignments {
		m := trigger.Material{ID: a.ID, SKU: a.PricingKey()}
		if item, ok := catalog.Lookup(a.PricingKey()); ok {
			if item.SKU != "" {
				m.SKU = item.SKU
			}
			m.Category = item.Category
			m.Manufacturer = item.Manufacturer
		}
		out = append(out, m)
	}
	return append(out, req.Materials...)
}

func ruleQuantities(cands []Candidate) []lineitem.RuleQuantity {
	out := make([]lineitem.RuleQuantity, 0, len(cands))
	for _, c := range cands {
		out = append(out, lineitem.RuleQuantity{
			RuleID:       c.Rule.ID,
			RuleName:     c.Rule.Name,
			Category:     c.Rule.Category,
			SKU:          c.Rule.SKU,
			Unit:         c.Rule.Unit,
			Notes:        c.Rule.Notes,
			Quantity:     c.Quantity,
			Manufacturer: c.Manufacturer,
		})
	}
	return out
}

func sortedGroups(groups map[string]*manufacturer.Group) []*manufacturer.Group {
	out := make([]*manufacturer.Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Manufacturer) < strings.ToLower(out[j].Manufacturer)
	})
	return out
}
