package market

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"solana-buyback-burn/internal/domain"
	"solana-buyback-burn/internal/observability"
)

var errZeroPrice = errors.New("zero price")

// Chain tries sources in order and returns the first usable quote.
type Chain struct {
	sources []Source
	logger  *zap.Logger
}

// NewChain creates a Chain over sources in priority order.
func NewChain(logger *zap.Logger, sources ...Source) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{sources: sources, logger: logger.Named("market")}
}

// Sources returns source names in priority order.
func (c *Chain) Sources() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return names
}

// Quote returns the first quote with a positive price and the name of the
// source that produced it.
func (c *Chain) Quote(ctx context.Context) (*Quote, string, error) {
	for _, s := range c.sources {
		q, err := s.Quote(ctx)
		if err == nil && (q == nil || !(q.PriceUSD > 0) || math.IsInf(q.PriceUSD, 0)) {
			err = errZeroPrice
		}
		observability.RecordMarketFetch(s.Name(), err)

		if err != nil {
			c.logger.Warn("market source failed", zap.String("source", s.Name()), zap.Error(err))
			continue
		}
		return q, s.Name(), nil
	}
	return nil, "", domain.ErrNoPrice
}
