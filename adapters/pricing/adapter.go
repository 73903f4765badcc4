// Package pricing provides wrappers around pricing catalog sources.
// A catalog source may be a database or a file; these adapters add
// caching and fetch metrics without changing what the source returns.
package pricing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"siding-takeoff/core/pricing"
	"siding-takeoff/internal/logging"
)

// DefaultTTL is how long a fetched catalog is reused
const DefaultTTL = 5 * time.Minute

// CachingSource wraps a source with a single-entry TTL cache.
// Failed fetches are not cached.
type CachingSource struct {
	inner pricing.Source
	ttl   time.Duration
	now   func() time.Time

	mu        sync.RWMutex
	catalog   *pricing.Catalog
	expiresAt time.Time
}

// NewCachingSource creates a caching wrapper. A non-positive ttl uses DefaultTTL.
func NewCachingSource(inner pricing.Source, ttl time.Duration) *CachingSource {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachingSource{inner: inner, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source
func (s *CachingSource) WithClock(now func() time.Time) *CachingSource {
	s.now = now
	return s
}

// Catalog implements pricing.Source
func (s *CachingSource) Catalog(ctx context.Context) (*pricing.Catalog, error) {
	s.mu.RLock()
	if s.catalog != nil && s.now().Before(s.expiresAt) {
		c := s.catalog
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	c, err := s.inner.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.catalog = c
	s.expiresAt = s.now().Add(s.ttl)
	s.mu.Unlock()

	logging.Debug("pricing catalog loaded", zap.Int("items", c.Len()))
	return c, nil
}

// Invalidate drops the cached catalog
func (s *CachingSource) Invalidate() {
	s.mu.Lock()
	s.catalog = nil
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

// MetricsSource wraps a source with fetch counters
type MetricsSource struct {
	inner pricing.Source

	mu           sync.RWMutex
	fetchCount   int64
	fetchErrors  int64
	totalLatency time.Duration
}

// NewMetricsSource creates a metrics wrapper
func NewMetricsSource(inner pricing.Source) *MetricsSource {
	return &MetricsSource{inner: inner}
}

// Catalog implements pricing.Source
func (s *MetricsSource) Catalog(ctx context.Context) (*pricing.Catalog, error) {
	start := time.Now()
	c, err := s.inner.Catalog(ctx)

	s.mu.Lock()
	s.fetchCount++
	s.totalLatency += time.Since(start)
	if err != nil {
		s.fetchErrors++
	}
	s.mu.Unlock()

	return c, err
}

// Metrics returns fetches, failed fetches and mean latency
func (s *MetricsSource) Metrics() (fetches, errors int64, avgLatency time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.fetchCount > 0 {
		avgLatency = s.totalLatency / time.Duration(s.fetchCount)
	}
	return s.fetchCount, s.fetchErrors, avgLatency
}
