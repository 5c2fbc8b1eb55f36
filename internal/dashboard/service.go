// Package dashboard assembles the dashboard read model and runs the goal
// pipeline when a read observes a new market cap bucket.
package dashboard

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-buyback-burn/internal/domain"
	"solana-buyback-burn/internal/observability"
	"solana-buyback-burn/internal/pipeline"
	"solana-buyback-burn/internal/state"
)

// PipelineTimeout bounds one goal pipeline run. The run is detached from
// the triggering request, so a disconnecting reader cannot abort it midway.
const PipelineTimeout = 3 * time.Minute

// Refresher updates market data in the store.
type Refresher interface {
	Refresh(ctx context.Context, force bool) error
}

// Runner executes the goal pipeline.
type Runner interface {
	Run(ctx context.Context) pipeline.Result
}

// Service serves dashboard reads.
//
// Every read may trigger the pipeline, so the refresh, the goal check and the
// pipeline run happen under one update lock. Concurrent readers wait for a
// running pipeline instead of observing the same crossing twice.
type Service struct {
	update sync.Mutex

	store     *state.Store
	fetcher   Refresher
	pipeline  Runner
	tokenMint string
	logger    *zap.Logger
}

// NewService creates a Service.
func NewService(store *state.Store, fetcher Refresher, runner Runner, tokenMint string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		fetcher:   fetcher,
		pipeline:  runner,
		tokenMint: tokenMint,
		logger:    logger.Named("dashboard"),
	}
}

// Read refreshes market data, fires the pipeline on a goal crossing and
// returns the read model. It never fails: a failed refresh serves the last
// known state.
func (s *Service) Read(ctx context.Context) domain.Dashboard {
	s.update.Lock()
	if err := s.fetcher.Refresh(ctx, false); err != nil {
		s.logger.Warn("market refresh failed, serving last known state", zap.Error(err))
	}
	s.checkGoal(ctx)
	s.update.Unlock()

	return s.build()
}

// checkGoal must be called with the update lock held.
func (s *Service) checkGoal(ctx context.Context) {
	crossed, bucket := s.store.CheckAndAdvance()
	if !crossed {
		return
	}
	observability.UpdateGoalBucket(bucket)
	s.logger.Info("market cap goal crossed",
		zap.Int64("bucket", bucket),
		zap.Float64("market_cap_usd", s.store.Snapshot().MarketCapUSD))

	if s.pipeline == nil {
		return
	}
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PipelineTimeout)
	defer cancel()
	res := s.pipeline.Run(runCtx)
	if res.Err != nil {
		s.logger.Warn("goal pipeline aborted",
			zap.Int64("bucket", bucket),
			zap.String("step", string(res.FailedStep)),
			zap.Error(res.Err))
	}
}

func (s *Service) build() domain.Dashboard {
	snap := s.store.Snapshot()
	progress := s.store.Progress()

	return domain.Dashboard{
		PriceUSD:            snap.PriceUSD,
		VolumeChangePct:     snap.VolumeChangePct,
		BuybacksUSD:         round2(snap.BuybacksUSD),
		BurnedUSD:           round2(snap.BurnedUSD),
		MarketCapUSD:        snap.MarketCapUSD,
		NextGoalUSD:         progress.NextGoal,
		NextGoalProgressPct: progress.Pct,
		SupplyBurnedPct:     snap.SupplyBurnedPct,
		Transactions:        s.store.Transactions(),
		TokenMint:           s.tokenMint,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
