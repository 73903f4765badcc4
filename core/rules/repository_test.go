package rules

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"siding-takeoff/internal/logging"
)

// fakeStore is a Store whose result is swappable and whose loads are counted
type fakeStore struct {
	mu    sync.Mutex
	rules []Rule
	err   error
	loads atomic.Int32
}

func (s *fakeStore) Name() string { return "fake" }

func (s *fakeStore) LoadActiveRules(ctx context.Context) ([]Rule, error) {
	s.loads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

func (s *fakeStore) set(rs []Rule, err error) {
	s.mu.Lock()
	s.rules, s.err = rs, err
	s.mu.Unlock()
}

// clock is a settable time source
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func rule(id string, group, item int) Rule {
	return Rule{ID: id, Name: id, SKU: "SKU-" + id, QuantityFormula: "1", GroupOrder: group, ItemOrder: item, Active: true}
}

func TestRepository_CachesWithinTTL(t *testing.T) {
	store := &fakeStore{rules: []Rule{rule("a", 1, 1)}}
	clk := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	repo := NewRepository(store, WithClock(clk.Now))

	rs, origin := repo.GetRules(context.Background())
	require.Len(t, rs, 1)
	assert.Equal(t, OriginStore, origin)

	// the store changes but the cache is still fresh
	store.set([]Rule{rule("a", 1, 1), rule("b", 1, 2)}, nil)
	clk.Advance(DefaultTTL - time.Second)
	rs, origin = repo.GetRules(context.Background())
	assert.Len(t, rs, 1)
	assert.Equal(t, OriginCache, origin)
	assert.EqualValues(t, 1, store.loads.Load())

	// past the TTL the next call reloads
	clk.Advance(2 * time.Second)
	rs, origin = repo.GetRules(context.Background())
	assert.Len(t, rs, 2)
	assert.Equal(t, OriginStore, origin)
	assert.EqualValues(t, 2, store.loads.Load())
}

func TestRepository_Invalidate(t *testing.T) {
	store := &fakeStore{rules: []Rule{rule("a", 1, 1)}}
	repo := NewRepository(store, WithTTL(time.Hour))

	repo.GetRules(context.Background())
	repo.Invalidate()
	_, origin := repo.GetRules(context.Background())

	assert.Equal(t, OriginStore, origin)
	assert.EqualValues(t, 2, store.loads.Load())
}

func TestRepository_FallbackOnFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	defer logging.SetLogger(zap.New(core))()

	store := &fakeStore{err: errors.New("connection refused")}
	repo := NewRepository(store)

	rs, origin := repo.GetRules(context.Background())
	assert.Equal(t, OriginFallback, origin)
	assert.Equal(t, FallbackRules(), rs)
	assert.Equal(t, 1, logs.FilterMessage("rule store unavailable, using fallback rules").Len())

	// fallback is not cached: once the store recovers it is used
	store.set([]Rule{rule("a", 1, 1)}, nil)
	rs, origin = repo.GetRules(context.Background())
	assert.Equal(t, OriginStore, origin)
	assert.Len(t, rs, 1)
}

func TestRepository_FallbackOnEmptyOrNilStore(t *testing.T) {
	store := &fakeStore{rules: []Rule{{ID: "inactive", Active: false}}}
	rs, origin := NewRepository(store).GetRules(context.Background())
	assert.Equal(t, OriginFallback, origin)
	assert.Len(t, rs, 3)

	rs, origin = NewRepository(nil).GetRules(context.Background())
	assert.Equal(t, OriginFallback, origin)
	assert.Len(t, rs, 3)
}

func TestRepository_CustomFallback(t *testing.T) {
	repo := NewRepository(nil, WithFallback(func() []Rule { return []Rule{rule("only", 1, 1)} }))
	rs, _ := repo.GetRules(context.Background())
	require.Len(t, rs, 1)
	assert.Equal(t, "only", rs[0].ID)
}

func TestRepository_FiltersAndSorts(t *testing.T) {
	off := rule("off", 0, 0)
	off.Active = false
	store := &fakeStore{rules: []Rule{rule("c", 2, 1), off, rule("b", 1, 2), rule("a", 1, 2), rule("d", 1, 1)}}

	rs, _ := NewRepository(store).GetRules(context.Background())

	ids := []string{}
	for _, r := range rs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids)
}

func TestRepository_ReturnsCopies(t *testing.T) {
	r := rule("a", 1, 1)
	r.Manufacturers = []string{"James Hardie"}
	store := &fakeStore{rules: []Rule{r}}
	repo := NewRepository(store)

	first, _ := repo.GetRules(context.Background())
	first[0].Name = "mutated"
	first[0].Manufacturers[0] = "mutated"

	second, origin := repo.GetRules(context.Background())
	require.Equal(t, OriginCache, origin)
	assert.Equal(t, "a", second[0].Name)
	assert.Equal(t, []string{"James Hardie"}, second[0].Manufacturers)
}

func TestRepository_ConcurrentReaders(t *testing.T) {
	store := &fakeStore{rules: []Rule{rule("a", 1, 1), rule("b", 1, 2)}}
	clk := &clock{now: time.Now()}
	repo := NewRepository(store, WithClock(clk.Now), WithTTL(time.Minute))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%8 == 0 {
				clk.Advance(time.Minute)
			}
			rs, _ := repo.GetRules(context.Background())
			assert.Len(t, rs, 2)
		}(i)
	}
	wg.Wait()
}

func TestRule_Scope(t *testing.T) {
	r := rule("a", 1, 1)
	assert.False(t, r.Scoped())

	r.Manufacturers = []string{}
	assert.False(t, r.Scoped(), "empty filter is project scope")

	r.Manufacturers = []string{"James Hardie"}
	assert.True(t, r.Scoped())
	assert.True(t, r.MatchesManufacturer(" james hardie"))
	assert.False(t, r.MatchesManufacturer("LP"))
}
