// Package state owns the process-wide dashboard state.
//
// All reads and writes go through Store so the transaction-log capacity and
// the goal-bucket monotonicity are enforced in one place. State lives for the
// lifetime of the process only.
package state

import (
	"math"
	"sync"

	"solana-buyback-burn/internal/domain"
	"solana-buyback-burn/internal/goal"
	"solana-buyback-burn/internal/storage"
)

// burnNudgePct is added to the burned-supply percentage after a burn when no
// on-chain supply ratio has been observed yet.
const burnNudgePct = 0.05

// Snapshot is a consistent copy of the dashboard state.
type Snapshot struct {
	PriceUSD        float64
	VolumeChangePct float64
	BuybacksUSD     float64
	BurnedUSD       float64
	MarketCapUSD    float64
	SupplyBurnedPct float64
	SOLPriceUSD     float64
	LastGoalBucket  int64
	MarketSource    string
}

// Store is the single owner of DashboardState.
type Store struct {
	mu sync.RWMutex

	priceUSD        float64
	volumeChangePct float64
	buybacksUSD     float64
	burnedUSD       float64
	marketCapUSD    float64
	supplyBurnedPct float64
	solPriceUSD     float64
	marketSource    string
	// onChainBurnPct is set once a live supply ratio was applied; from then on
	// the heuristic nudge is disabled.
	onChainBurnPct bool

	tracker *goal.Tracker
	txLog   storage.TransactionLog
}

// NewStore creates a store around the given goal tracker and transaction log.
func NewStore(tracker *goal.Tracker, txLog storage.TransactionLog) *Store {
	return &Store{
		tracker: tracker,
		txLog:   txLog,
	}
}

// Snapshot returns a copy of the scalar state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		PriceUSD:        s.priceUSD,
		VolumeChangePct: s.volumeChangePct,
		BuybacksUSD:     s.buybacksUSD,
		BurnedUSD:       s.burnedUSD,
		MarketCapUSD:    s.marketCapUSD,
		SupplyBurnedPct: s.supplyBurnedPct,
		SOLPriceUSD:     s.solPriceUSD,
		LastGoalBucket:  s.tracker.Last(),
		MarketSource:    s.marketSource,
	}
}

// ApplyMarket stores a successful market fetch. Price is rounded to 8
// decimals and market cap to 2, matching what dashboard clients display.
func (s *Store) ApplyMarket(m domain.MarketSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.priceUSD = roundTo(m.PriceUSD, 8)
	s.marketCapUSD = roundTo(m.MarketCapUSD, 2)
	s.volumeChangePct = m.VolumeChangePct
	s.marketSource = m.Source
	if m.SOLPriceUSD > 0 {
		s.solPriceUSD = m.SOLPriceUSD
	}
	if m.SupplyBurnedPct != nil {
		s.supplyBurnedPct = roundTo(clamp(*m.SupplyBurnedPct, 0, 100), 4)
		s.onChainBurnPct = true
	}
}

// CheckAndAdvance runs the goal tracker against the stored market cap.
// It returns whether a new bucket was crossed and the bucket now recorded.
func (s *Store) CheckAndAdvance() (bool, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	crossed := s.tracker.CheckAndAdvance(s.marketCapUSD)
	return crossed, s.tracker.Last()
}

// Progress returns progress toward the next goal for the stored market cap.
func (s *Store) Progress() goal.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.ProgressFor(s.marketCapUSD)
}

// BumpMarketCap shifts the stored market cap by delta and returns the result.
// The market cap never goes below zero.
func (s *Store) BumpMarketCap(delta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.marketCapUSD = math.Max(0, s.marketCapUSD+delta)
	return s.marketCapUSD
}

// AddBuyback adds usd to the cumulative buyback total.
func (s *Store) AddBuyback(usd float64) {
	if usd <= 0 || math.IsNaN(usd) {
		return
	}
	s.mu.Lock()
	s.buybacksUSD += usd
	s.mu.Unlock()
}

// AddBurn adds usd to the cumulative burned total.
func (s *Store) AddBurn(usd float64) {
	if usd <= 0 || math.IsNaN(usd) {
		return
	}
	s.mu.Lock()
	s.burnedUSD += usd
	s.mu.Unlock()
}

// NudgeBurnPct applies the heuristic burned-supply increment. It is a no-op
// once an on-chain ratio has been observed, and reports whether it applied.
func (s *Store) NudgeBurnPct() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.onChainBurnPct {
		return false
	}
	s.supplyBurnedPct = roundTo(math.Min(100, s.supplyBurnedPct+burnNudgePct), 4)
	return true
}

// Record appends rec to the transaction log.
func (s *Store) Record(rec domain.TransactionRecord) (domain.TransactionRecord, error) {
	return s.txLog.Append(rec)
}

// Transactions returns the history, newest first.
func (s *Store) Transactions() []domain.TransactionRecord {
	return s.txLog.List()
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
