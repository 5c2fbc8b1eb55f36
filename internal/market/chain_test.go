package market

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solana-buyback-burn/internal/domain"
)

type fakeSource struct {
	name  string
	quote *Quote
	err   error
	calls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Quote(context.Context) (*Quote, error) {
	f.calls++
	return f.quote, f.err
}

func TestChain_FirstUsableWins(t *testing.T) {
	failing := &fakeSource{name: "a", err: errors.New("down")}
	zero := &fakeSource{name: "b", quote: &Quote{PriceUSD: 0}}
	good := &fakeSource{name: "c", quote: &Quote{PriceUSD: 0.1}}
	never := &fakeSource{name: "d", quote: &Quote{PriceUSD: 9}}

	chain := NewChain(zap.NewNop(), failing, zero, good, never)
	q, source, err := chain.Quote(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "c", source)
	assert.Equal(t, 0.1, q.PriceUSD)
	assert.Equal(t, 0, never.calls)
	assert.Equal(t, []string{"a", "b", "c", "d"}, chain.Sources())
}

func TestChain_AllFail(t *testing.T) {
	chain := NewChain(nil,
		&fakeSource{name: "a", err: errors.New("down")},
		&fakeSource{name: "b", quote: &Quote{PriceUSD: math.NaN()}},
		&fakeSource{name: "c"},
	)

	_, _, err := chain.Quote(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoPrice)
}

func TestChain_StaticFallback(t *testing.T) {
	chain := NewChain(nil, &fakeSource{name: "a", err: errors.New("down")}, StaticSource{})

	q, source, err := chain.Quote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "static", source)
	assert.Equal(t, StaticPriceUSD, q.PriceUSD)
	assert.Equal(t, StaticMarketCapUSD, q.MarketCapUSD)
}
