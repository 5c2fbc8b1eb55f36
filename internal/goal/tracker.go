// Package goal detects market-cap threshold crossings.
//
// Market cap is divided into fixed-size buckets: bucket = floor(mc / Step).
// A crossing is reported only when the current bucket is strictly higher
// than the last processed one, and the last bucket is advanced before the
// caller acts on it so a failing action is never re-triggered by the same
// crossing.
package goal

import "math"

// DefaultStep is the goal size in USD.
const DefaultStep = 100_000.0

// Tracker holds the last processed bucket. It is not safe for concurrent use;
// callers serialize access (see state.Store).
type Tracker struct {
	step float64
	last int64
}

// NewTracker creates a tracker with the given step. Non-positive steps fall
// back to DefaultStep.
func NewTracker(step float64) *Tracker {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		step = DefaultStep
	}
	return &Tracker{step: step}
}

// Step returns the bucket size.
func (t *Tracker) Step() float64 {
	return t.step
}

// Last returns the last processed bucket.
func (t *Tracker) Last() int64 {
	return t.last
}

// Bucket returns floor(marketCap / step). Negative and NaN market caps map to 0.
func (t *Tracker) Bucket(marketCap float64) int64 {
	if marketCap <= 0 || math.IsNaN(marketCap) {
		return 0
	}
	if math.IsInf(marketCap, 1) {
		return math.MaxInt64
	}
	return int64(math.Floor(marketCap / t.step))
}

// CheckAndAdvance reports whether marketCap lies in a bucket above the last
// processed one. When it does, the last bucket is moved to the current bucket
// before returning, so a jump over several buckets fires exactly once.
func (t *Tracker) CheckAndAdvance(marketCap float64) bool {
	current := t.Bucket(marketCap)
	if current <= t.last {
		return false
	}
	t.last = current
	return true
}
