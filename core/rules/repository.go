package rules

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"siding-takeoff/internal/logging"
)

// DefaultTTL is how long a loaded ruleset is reused
const DefaultTTL = 5 * time.Minute

// Origin identifies where a ruleset came from
type Origin string

const (
	OriginCache    Origin = "cache"
	OriginStore    Origin = "store"
	OriginFallback Origin = "fallback"
)

// Repository serves the active ruleset from a time-boxed cache over a Store.
// It never returns an error: store failures degrade to FallbackRules.
type Repository struct {
	store    Store
	ttl      time.Duration
	now      func() time.Time
	fallback func() []Rule

	mu       sync.RWMutex
	cached   []Rule
	loadedAt time.Time
}

// Option configures a Repository
type Option func(*Repository)

// WithTTL sets the cache lifetime
func WithTTL(ttl time.Duration) Option {
	return func(r *Repository) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithClock injects the time source
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithFallback replaces the built-in fallback ruleset
func WithFallback(f func() []Rule) Option {
	return func(r *Repository) {
		if f != nil {
			r.fallback = f
		}
	}
}

// NewRepository creates a repository. A nil store means the rule store is unconfigured.
func NewRepository(store Store, opts ...Option) *Repository {
	r := &Repository{
		store:    store,
		ttl:      DefaultTTL,
		now:      time.Now,
		fallback: FallbackRules,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetRules returns the active ruleset and where it came from
func (r *Repository) GetRules(ctx context.Context) ([]Rule, Origin) {
	r.mu.RLock()
	if r.cached != nil && r.now().Sub(r.loadedAt) < r.ttl {
		out := clone(r.cached)
		r.mu.RUnlock()
		return out, OriginCache
	}
	r.mu.RUnlock()

	if r.store == nil {
		logging.Debug("rule store not configured, using fallback rules")
		return r.fallbackRules(), OriginFallback
	}

	loaded, err := r.store.LoadActiveRules(ctx)
	if err != nil {
		logging.Warn("rule store unavailable, using fallback rules",
			zap.String("store", r.store.Name()), zap.Error(err))
		return r.fallbackRules(), OriginFallback
	}

	loaded = activeOnly(loaded)
	if len(loaded) == 0 {
		logging.Warn("rule store returned no active rules, using fallback rules",
			zap.String("store", r.store.Name()))
		return r.fallbackRules(), OriginFallback
	}
	Sort(loaded)

	// concurrent misses may both load; each write replaces the snapshot with an equivalent one
	r.mu.Lock()
	r.cached = loaded
	r.loadedAt = r.now()
	r.mu.Unlock()

	logging.Debug("rules loaded", zap.String("store", r.store.Name()), zap.Int("count", len(loaded)))
	return clone(loaded), OriginStore
}

// Invalidate forces the next GetRules to reload from the store
func (r *Repository) Invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.loadedAt = time.Time{}
	r.mu.Unlock()
}

func (r *Repository) fallbackRules() []Rule {
	rs := r.fallback()
	Sort(rs)
	return rs
}

func clone(rs []Rule) []Rule {
	out := make([]Rule, len(rs))
	copy(out, rs)
	for i := range out {
		if out[i].Manufacturers != nil {
			out[i].Manufacturers = append([]string{}, out[i].Manufacturers...)
		}
	}
	return out
}
