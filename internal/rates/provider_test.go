package rates

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type fakeFetcher struct {
	rates map[string]decimal.Decimal
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(context.Context) (map[string]decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]decimal.Decimal, len(f.rates))
	for k, v := range f.rates {
		out[k] = v
	}
	return out, nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestProvider(f Fetcher, clock *fakeClock) *Provider {
	return NewProvider(f, WithClock(clock.Now), WithTTL(time.Hour))
}

func TestProviderNetworkThenFreshCache(t *testing.T) {
	fetcher := &fakeFetcher{rates: map[string]decimal.Decimal{"USD": decimal.RequireFromString("0.0007")}}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	p := newTestProvider(fetcher, clock)

	set := p.GetRates(context.Background())
	if p.LastTier() != TierNetwork {
		t.Fatalf("expected network tier, got %s", p.LastTier())
	}
	if _, ok := set.Lookup("USD"); !ok {
		t.Fatal("fetched rate missing")
	}
	if _, ok := set.Lookup("KRW"); !ok {
		t.Fatal("pivot must always resolve")
	}

	clock.Advance(30 * time.Minute)
	p.GetRates(context.Background())
	if p.LastTier() != TierFreshCache {
		t.Fatalf("expected fresh-cache tier, got %s", p.LastTier())
	}
	if fetcher.calls != 1 {
		t.Fatalf("fresh cache must not refetch, got %d calls", fetcher.calls)
	}
}

func TestProviderStaleCacheOnFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{rates: map[string]decimal.Decimal{"USD": decimal.RequireFromString("0.0007")}}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	p := newTestProvider(fetcher, clock)

	first := p.GetRates(context.Background())

	// Expire the cache, then break the network.
	clock.Advance(2 * time.Hour)
	fetcher.err = errors.New("connection refused")

	set := p.GetRates(context.Background())
	if p.LastTier() != TierStaleCache {
		t.Fatalf("expected stale-cache tier, got %s", p.LastTier())
	}
	if !set.AsOf.Equal(first.AsOf) {
		t.Fatal("stale cache must serve the previously fetched set")
	}
}

func TestProviderDefaultWhenNoCacheEverExisted(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("no route to host")}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	p := newTestProvider(fetcher, clock)

	set := p.GetRates(context.Background())
	if p.LastTier() != TierDefault {
		t.Fatalf("expected default tier, got %s", p.LastTier())
	}

	// The default path must be deterministic and conversion-ready.
	usd, err := Convert(decimal.NewFromInt(10000), "KRW", "USD", set)
	if err != nil {
		t.Fatalf("default table conversion failed: %v", err)
	}
	if !usd.Equal(decimal.RequireFromString("7.2")) {
		t.Fatalf("expected 7.2 USD, got %s", usd)
	}
}

func TestProviderRecoversAfterNetworkReturns(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("boom")}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	p := newTestProvider(fetcher, clock)

	p.GetRates(context.Background())
	if p.LastTier() != TierDefault {
		t.Fatalf("expected default tier, got %s", p.LastTier())
	}

	fetcher.err = nil
	fetcher.rates = map[string]decimal.Decimal{"EUR": decimal.RequireFromString("0.00066")}
	set := p.GetRates(context.Background())
	if p.LastTier() != TierNetwork {
		t.Fatalf("expected network tier after recovery, got %s", p.LastTier())
	}
	if _, ok := set.Lookup("EUR"); !ok {
		t.Fatal("refreshed rates missing")
	}
}

func TestProviderRefreshForcesFetch(t *testing.T) {
	fetcher := &fakeFetcher{rates: map[string]decimal.Decimal{"USD": decimal.RequireFromString("0.0007")}}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	p := newTestProvider(fetcher, clock)

	p.GetRates(context.Background())

	clock.Advance(30 * time.Minute)
	set := p.Refresh(context.Background())
	if fetcher.calls != 2 {
		t.Fatalf("refresh must bypass the fresh cache, got %d calls", fetcher.calls)
	}
	if p.LastTier() != TierNetwork {
		t.Fatalf("expected network tier after refresh, got %s", p.LastTier())
	}
	if !set.AsOf.Equal(clock.now) {
		t.Fatalf("AsOf = %v, want refresh time %v", set.AsOf, clock.now)
	}
}

func TestProviderRefreshFailurePreservesAsOf(t *testing.T) {
	fetcher := &fakeFetcher{rates: map[string]decimal.Decimal{"USD": decimal.RequireFromString("0.0007")}}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	p := newTestProvider(fetcher, clock)

	first := p.GetRates(context.Background())

	clock.Advance(30 * time.Minute)
	fetcher.err = errors.New("gateway timeout")

	set := p.Refresh(context.Background())
	if p.LastTier() != TierStaleCache {
		t.Fatalf("expected stale-cache tier, got %s", p.LastTier())
	}
	if !set.AsOf.Equal(first.AsOf) {
		t.Fatalf("failed refresh rewrote AsOf: %v, want %v", set.AsOf, first.AsOf)
	}

	// The still-fresh cache must keep serving without a refetch.
	calls := fetcher.calls
	p.GetRates(context.Background())
	if p.LastTier() != TierFreshCache {
		t.Fatalf("expected fresh-cache tier, got %s", p.LastTier())
	}
	if fetcher.calls != calls {
		t.Fatalf("fresh cache refetched after failed refresh, %d calls", fetcher.calls)
	}
}

// slowFetcher holds every call long enough for concurrent callers to
// pile onto the same flight.
type slowFetcher struct {
	delay time.Duration
	rates map[string]decimal.Decimal
}

func (f *slowFetcher) Fetch(context.Context) (map[string]decimal.Decimal, error) {
	time.Sleep(f.delay)
	out := make(map[string]decimal.Decimal, len(f.rates))
	for k, v := range f.rates {
		out[k] = v
	}
	return out, nil
}

func TestProviderConcurrentColdCache(t *testing.T) {
	fetcher := &slowFetcher{
		delay: 10 * time.Millisecond,
		rates: map[string]decimal.Decimal{
			"USD": decimal.RequireFromString("0.0007"),
			"EUR": decimal.RequireFromString("0.00066"),
		},
	}
	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	p := newTestProvider(fetcher, clock)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set := p.GetRates(context.Background())
			if _, ok := set.Lookup("KRW"); !ok {
				t.Error("pivot missing from concurrently fetched set")
			}
			// Iterate the shared map; the race detector flags any
			// writer still touching it.
			n := 0
			for range set.Rates {
				n++
			}
			if n == 0 {
				t.Error("empty rate set served on cold cache")
			}
		}()
	}
	wg.Wait()
}

func TestTierDegraded(t *testing.T) {
	if TierFreshCache.Degraded() || TierNetwork.Degraded() {
		t.Fatal("fresh and network tiers are not degraded")
	}
	if !TierStaleCache.Degraded() || !TierDefault.Degraded() {
		t.Fatal("stale and default tiers are degraded")
	}
}
