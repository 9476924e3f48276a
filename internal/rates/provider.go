package rates

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/core"
)

// DefaultTTL is how long a fetched rate set counts as fresh.
const DefaultTTL = time.Hour

// Provider serves exchange-rate sets through a layered fallback:
// fresh cache, network, stale cache, hardcoded defaults. GetRates never
// fails; the tier that served the last call is available through
// LastTier so callers can warn the user about degraded rates.
//
// The cache is a single in-memory slot with last-write-wins semantics.
// Concurrent cache-miss calls share one fetch via singleflight.
type Provider struct {
	fetcher Fetcher
	ttl     time.Duration
	clock   func() time.Time
	logger  *slog.Logger

	group singleflight.Group

	mu     sync.Mutex
	cached *Set
	tier   Tier
}

// Option configures a Provider.
type Option func(*Provider)

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(p *Provider) { p.ttl = ttl }
}

// WithClock injects a time source, used by tests.
func WithClock(clock func() time.Time) Option {
	return func(p *Provider) { p.clock = clock }
}

// WithLogger attaches a logger for tier transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// NewProvider creates a provider around the given fetcher.
func NewProvider(fetcher Fetcher, opts ...Option) *Provider {
	p := &Provider{
		fetcher: fetcher,
		ttl:     DefaultTTL,
		clock:   time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetRates returns the current rate set. It never returns an error:
// network failures degrade through the stale cache down to the built-in
// default table.
func (p *Provider) GetRates(ctx context.Context) Set {
	return p.getRates(ctx, false)
}

func (p *Provider) getRates(ctx context.Context, force bool) Set {
	if !force {
		now := p.clock()
		p.mu.Lock()
		if p.cached != nil && now.Sub(p.cached.AsOf) < p.ttl {
			set := *p.cached
			p.tier = TierFreshCache
			p.mu.Unlock()
			return set
		}
		p.mu.Unlock()
	}

	// The set is fully built inside the closure, pivot entry included.
	// Every goroutine waiting on the flight shares the same map and
	// only ever reads it.
	fetched, err, _ := p.group.Do("rates", func() (any, error) {
		rateMap, err := p.fetcher.Fetch(ctx)
		if err != nil {
			return Set{}, err
		}
		rateMap[core.PivotCurrency] = decimal.NewFromInt(1)
		return Set{AsOf: p.clock(), Rates: rateMap}, nil
	})
	if err == nil {
		set := fetched.(Set)

		p.mu.Lock()
		p.cached = &set
		p.tier = TierNetwork
		p.mu.Unlock()

		p.logger.DebugContext(ctx, "exchange rates refreshed", "as_of", set.AsOf, "currencies", len(set.Rates))
		return set
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil {
		p.tier = TierStaleCache
		p.logger.WarnContext(ctx, "rate fetch failed, serving stale cache",
			"error", err, "as_of", p.cached.AsOf)
		return *p.cached
	}

	p.tier = TierDefault
	p.logger.WarnContext(ctx, "rate fetch failed with no cache, serving default table", "error", err)
	return DefaultRates()
}

// LastTier reports which fallback level served the most recent GetRates
// call. Callers that never ask are never told.
func (p *Provider) LastTier() Tier {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tier
}

// Refresh forces a fetch attempt regardless of cache freshness and
// returns the set that ended up being served. Used by the hourly timer.
// A failed attempt leaves the cached set, AsOf included, untouched.
func (p *Provider) Refresh(ctx context.Context) Set {
	return p.getRates(ctx, true)
}
