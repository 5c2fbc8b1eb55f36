package market

import "context"

// Development fallback values.
const (
	StaticPriceUSD     = 0.000123
	StaticMarketCapUSD = 45000.0
)

// StaticSource returns fixed development values. Only wire it when the
// token mint is a placeholder.
type StaticSource struct{}

// Name implements Source.
func (StaticSource) Name() string { return "static" }

// Quote implements Source.
func (StaticSource) Quote(context.Context) (*Quote, error) {
	return &Quote{PriceUSD: StaticPriceUSD, MarketCapUSD: StaticMarketCapUSD}, nil
}
