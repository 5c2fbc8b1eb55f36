package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solana-buyback-burn/internal/clock"
	"solana-buyback-burn/internal/domain"
	"solana-buyback-burn/internal/goal"
	"solana-buyback-burn/internal/solana"
	"solana-buyback-burn/internal/solana/stub"
	"solana-buyback-burn/internal/state"
	"solana-buyback-burn/internal/storage/memory"
)

type fakeQuoter struct {
	quote *Quote
	err   error
	calls int
}

func (f *fakeQuoter) Quote(context.Context) (*Quote, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return f.quote, "fake", nil
}

type fixedSupply struct {
	supply float64
	err    error
}

func (f fixedSupply) Supply(context.Context) (float64, error) { return f.supply, f.err }

func newStore() *state.Store {
	return state.NewStore(goal.NewTracker(goal.DefaultStep), memory.NewTransactionLog(0))
}

func TestFetcher_CacheWindow(t *testing.T) {
	mock := clock.NewMock()
	quoter := &fakeQuoter{quote: &Quote{PriceUSD: 0.0001, MarketCapUSD: 100000}}
	f := NewFetcher(quoter, newStore(), FetcherConfig{}, zap.NewNop(), WithClock(mock))
	ctx := context.Background()

	require.NoError(t, f.Refresh(ctx, false))
	require.NoError(t, f.Refresh(ctx, false))
	assert.Equal(t, 1, quoter.calls, "second call within window must be a no-op")

	mock.Add(19 * time.Second)
	require.NoError(t, f.Refresh(ctx, false))
	assert.Equal(t, 1, quoter.calls)

	mock.Add(time.Second)
	require.NoError(t, f.Refresh(ctx, false))
	assert.Equal(t, 2, quoter.calls)

	require.NoError(t, f.Refresh(ctx, true))
	assert.Equal(t, 3, quoter.calls, "forced refresh ignores the window")
}

func TestFetcher_FailureKeepsStateAndRetries(t *testing.T) {
	mock := clock.NewMock()
	store := newStore()
	quoter := &fakeQuoter{quote: &Quote{PriceUSD: 0.0002, MarketCapUSD: 150000}}
	f := NewFetcher(quoter, store, FetcherConfig{}, nil, WithClock(mock))
	ctx := context.Background()

	require.NoError(t, f.Refresh(ctx, false))
	first, _ := f.LastFetch()

	mock.Add(21 * time.Second)
	quoter.err = errors.New("all sources down")
	require.Error(t, f.Refresh(ctx, false))
	require.Error(t, f.Refresh(ctx, false))
	assert.Equal(t, 3, quoter.calls, "failed fetches must retry immediately")

	last, ok := f.LastFetch()
	assert.True(t, ok)
	assert.Equal(t, first, last, "failure must not advance the cache timestamp")

	snap := store.Snapshot()
	assert.Equal(t, 0.0002, snap.PriceUSD)
	assert.Equal(t, 150000.0, snap.MarketCapUSD)
}

func TestFetcher_MarketCapPreference(t *testing.T) {
	tests := []struct {
		name   string
		quote  Quote
		supply SupplyReader
		want   float64
	}{
		{
			name:   "live supply",
			quote:  Quote{PriceUSD: 0.0001, MarketCapUSD: 500000},
			supply: fixedSupply{supply: 900_000_000},
			want:   90000,
		},
		{
			name:   "source market cap when supply fails",
			quote:  Quote{PriceUSD: 0.0001, MarketCapUSD: 500000},
			supply: fixedSupply{err: errors.New("rpc down")},
			want:   500000,
		},
		{
			name:  "source supply",
			quote: Quote{PriceUSD: 0.001, MarketCapUSD: 1, Supply: 2_000_000},
			want:  2000,
		},
		{
			name:  "assumed supply",
			quote: Quote{PriceUSD: 0.00005},
			want:  50000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore()
			var opts []FetcherOption
			if tt.supply != nil {
				opts = append(opts, WithSupplyReader(tt.supply))
			}
			q := tt.quote
			f := NewFetcher(&fakeQuoter{quote: &q}, store, FetcherConfig{}, nil, opts...)

			require.NoError(t, f.Refresh(context.Background(), false))
			assert.InDelta(t, tt.want, store.Snapshot().MarketCapUSD, 0.01)
		})
	}
}

func TestFetcher_BurnRatioAndSOLPrice(t *testing.T) {
	store := newStore()
	quoter := &fakeQuoter{quote: &Quote{PriceUSD: 0.0001, PriceNative: 0.0000005}}
	f := NewFetcher(quoter, store, FetcherConfig{InitialSupply: 1_000_000_000}, nil,
		WithSupplyReader(fixedSupply{supply: 985_000_000}))

	require.NoError(t, f.Refresh(context.Background(), false))

	snap := store.Snapshot()
	assert.InDelta(t, 1.5, snap.SupplyBurnedPct, 1e-9)
	assert.InDelta(t, 200.0, snap.SOLPriceUSD, 1e-6)
	assert.Equal(t, "fake", snap.MarketSource)
}

func TestRPCSupply(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Supplies["mint"] = &solana.TokenAmount{Amount: "998500000000000", Decimals: 6}

	s, err := NewRPCSupply(rpc, "mint").Supply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 998_500_000.0, s)

	_, err = NewRPCSupply(rpc, "unknown").Supply(context.Background())
	assert.Error(t, err)
}

func TestFetcher_ZeroPriceKeepsLastPrice(t *testing.T) {
	mock := clock.NewMock()
	store := newStore()
	src := &fakeSource{name: "dex", quote: &Quote{PriceUSD: 0.0004, MarketCapUSD: 400000}}
	f := NewFetcher(NewChain(nil, src), store, FetcherConfig{}, nil, WithClock(mock))
	ctx := context.Background()

	require.NoError(t, f.Refresh(ctx, false))
	first, _ := f.LastFetch()

	src.quote = &Quote{PriceUSD: 0}
	for i := 0; i < 2; i++ {
		mock.Add(25 * time.Second)
		require.ErrorIs(t, f.Refresh(ctx, false), domain.ErrNoPrice)
	}

	last, _ := f.LastFetch()
	assert.Equal(t, first, last)
	assert.Equal(t, 0.0004, store.Snapshot().PriceUSD)
	assert.Equal(t, 3, src.calls)
}
