// Package market fetches token price and market cap from ordered external
// sources and applies them to dashboard state behind a short cache.
package market

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Quote is one source's view of the token market.
type Quote struct {
	PriceUSD float64
	// PriceNative is the price in SOL, 0 when unknown.
	PriceNative  float64
	Change24hPct float64
	// MarketCapUSD is 0 when the source does not report one.
	MarketCapUSD float64
	// Supply is the UI-unit token supply, 0 when unknown.
	Supply float64
}

// Source produces quotes.
type Source interface {
	Name() string
	Quote(ctx context.Context) (*Quote, error)
}

// newBreaker returns the circuit breaker shared by HTTP sources.
func newBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}
