package market

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-buyback-burn/internal/clock"
	"solana-buyback-burn/internal/domain"
	"solana-buyback-burn/internal/observability"
)

// Fetcher defaults.
const (
	DefaultCacheTTL      = 20 * time.Second
	DefaultInitialSupply = 1_000_000_000.0
	// DefaultAssumedSupply prices the market cap when nothing better is known.
	DefaultAssumedSupply = 1_000_000_000.0
)

// Quoter produces a quote and the name of its source.
type Quoter interface {
	Quote(ctx context.Context) (*Quote, string, error)
}

// Applier receives accepted market snapshots.
type Applier interface {
	ApplyMarket(m domain.MarketSnapshot)
}

// FetcherConfig configures Fetcher.
type FetcherConfig struct {
	TTL           time.Duration
	InitialSupply float64
	AssumedSupply float64
}

// Fetcher refreshes market state at most once per TTL.
type Fetcher struct {
	quoter Quoter
	supply SupplyReader
	state  Applier
	cfg    FetcherConfig
	clock  clock.Clock
	logger *zap.Logger

	mu        sync.Mutex
	lastFetch time.Time
	fetched   bool
}

// FetcherOption configures Fetcher.
type FetcherOption func(*Fetcher)

// WithSupplyReader enables on-chain supply for market cap and burn ratio.
func WithSupplyReader(r SupplyReader) FetcherOption {
	return func(f *Fetcher) {
		f.supply = r
	}
}

// WithClock sets the clock used for the cache window.
func WithClock(c clock.Clock) FetcherOption {
	return func(f *Fetcher) {
		f.clock = c
	}
}

// NewFetcher creates a Fetcher writing into state.
func NewFetcher(quoter Quoter, state Applier, cfg FetcherConfig, logger *zap.Logger, opts ...FetcherOption) *Fetcher {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	if cfg.InitialSupply <= 0 {
		cfg.InitialSupply = DefaultInitialSupply
	}
	if cfg.AssumedSupply <= 0 {
		cfg.AssumedSupply = DefaultAssumedSupply
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Fetcher{
		quoter: quoter,
		state:  state,
		cfg:    cfg,
		clock:  clock.New(),
		logger: logger.Named("fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Refresh fetches and applies a new snapshot unless the last successful
// fetch is within the cache window. A failed fetch changes nothing, so the
// next call retries.
func (f *Fetcher) Refresh(ctx context.Context, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.clock.Now()
	if !force && f.fetched && now.Sub(f.lastFetch) < f.cfg.TTL {
		return nil
	}

	q, source, err := f.quoter.Quote(ctx)
	if err != nil {
		f.logger.Warn("market refresh failed", zap.Error(err))
		return err
	}

	snap := f.snapshot(ctx, q, source)
	f.state.ApplyMarket(snap)

	f.lastFetch = now
	f.fetched = true

	burned := 0.0
	if snap.SupplyBurnedPct != nil {
		burned = *snap.SupplyBurnedPct
	}
	observability.UpdateMarket(snap.PriceUSD, snap.MarketCapUSD, burned)
	f.logger.Info("market data updated",
		zap.String("source", source),
		zap.Float64("price_usd", snap.PriceUSD),
		zap.Float64("market_cap_usd", snap.MarketCapUSD),
		zap.Float64("change_24h_pct", snap.VolumeChangePct))
	return nil
}

// LastFetch returns the time of the last successful fetch.
func (f *Fetcher) LastFetch() (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastFetch, f.fetched
}

func (f *Fetcher) snapshot(ctx context.Context, q *Quote, source string) domain.MarketSnapshot {
	snap := domain.MarketSnapshot{
		PriceUSD:        q.PriceUSD,
		VolumeChangePct: q.Change24hPct,
		Source:          source,
	}
	if q.PriceNative > 0 {
		snap.SOLPriceUSD = q.PriceUSD / q.PriceNative
	}

	live := f.liveSupply(ctx)
	if live <= 0 {
		live = q.Supply
	}

	switch {
	case live > 0:
		snap.MarketCapUSD = q.PriceUSD * live
	case q.MarketCapUSD > 0:
		snap.MarketCapUSD = q.MarketCapUSD
	default:
		snap.MarketCapUSD = q.PriceUSD * f.cfg.AssumedSupply
	}

	if live > 0 {
		pct := (f.cfg.InitialSupply - live) / f.cfg.InitialSupply * 100
		pct = math.Max(0, math.Min(100, pct))
		snap.SupplyBurnedPct = &pct
	}
	return snap
}

// liveSupply returns the on-chain supply, or 0 when unavailable.
func (f *Fetcher) liveSupply(ctx context.Context) float64 {
	if f.supply == nil {
		return 0
	}
	s, err := f.supply.Supply(ctx)
	if err != nil {
		f.logger.Warn("live supply unavailable", zap.Error(err))
		return 0
	}
	return s
}
