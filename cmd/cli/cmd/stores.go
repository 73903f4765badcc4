package cmd

import (
	"context"
	"database/sql"
	"os"

	"go.uber.org/zap"

	pricingadapter "siding-takeoff/adapters/pricing"
	"siding-takeoff/adapters/storage"
	"siding-takeoff/core/engine"
	"siding-takeoff/core/pricing"
	"siding-takeoff/core/rules"
	"siding-takeoff/internal/config"
	"siding-takeoff/internal/logging"
)

// backends holds the stores opened from configuration
type backends struct {
	db      *sql.DB
	rules   rules.Store
	pricing pricing.Source
	metrics *pricingadapter.MetricsSource
}

func (b *backends) Close() {
	if b.metrics != nil {
		fetches, failures, latency := b.metrics.Metrics()
		logging.Debug("pricing source usage",
			zap.Int64("fetches", fetches), zap.Int64("failures", failures), zap.Duration("avg_latency", latency))
	}
	if b.db != nil {
		b.db.Close()
	}
}

// openBackends resolves the rule store and pricing source. A database that
// cannot be reached is logged and left out so the repository falls back.
func openBackends(ctx context.Context, cfg *config.Config) *backends {
	b := &backends{}

	if cfg.Rules.DatabaseURL != "" {
		db, err := storage.Open(ctx, storage.Backend(cfg.Rules.DatabaseDriver), cfg.Rules.DatabaseURL)
		if err != nil {
			logging.Warn("rule database unavailable", zap.Error(err))
		} else {
			b.db = db
			store, err := storage.NewSQLRuleStore(db, cfg.Rules.Table)
			if err != nil {
				logging.Warn("rule table misconfigured", zap.Error(err))
			} else {
				b.rules = store
			}
		}
	}
	if b.rules == nil && exists(cfg.Rules.File) {
		b.rules = storage.NewYAMLRuleStore(cfg.Rules.File)
	}

	if b.db != nil && cfg.Pricing.Table != "" {
		src, err := storage.NewSQLPricingStore(b.db, cfg.Pricing.Table)
		if err != nil {
			logging.Warn("pricing table misconfigured", zap.Error(err))
		} else {
			b.pricing = src
		}
	}
	if b.pricing == nil && exists(cfg.Pricing.CatalogPath) {
		b.pricing = storage.NewYAMLPricingSource(cfg.Pricing.CatalogPath)
	}
	if b.pricing != nil {
		b.metrics = pricingadapter.NewMetricsSource(b.pricing)
		b.pricing = pricingadapter.NewCachingSource(b.metrics, cfg.PricingTTL())
	}
	return b
}

func newOrchestrator(cfg *config.Config, b *backends) *engine.Orchestrator {
	repo := rules.NewRepository(b.rules, rules.WithTTL(cfg.RulesTTL()))
	return engine.NewOrchestrator(repo, b.pricing, engine.Options{
		Burden:          pricing.NewLaborBurden(cfg.Pricing.LaborBurden),
		OverheadPercent: cfg.Estimate.OverheadPercent,
		MarkupPercent:   cfg.Estimate.MarkupPercent,
	})
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
