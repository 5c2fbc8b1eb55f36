package goal

import "math"

// Progress describes where a market cap sits inside its bucket.
type Progress struct {
	BucketStart float64
	NextGoal    float64
	Pct         float64 // in [0, 100], rounded to 2 decimals
}

// ProgressFor computes progress within the bucket containing marketCap.
func (t *Tracker) ProgressFor(marketCap float64) Progress {
	start := float64(t.Bucket(marketCap)) * t.step
	mc := marketCap
	if mc < 0 || math.IsNaN(mc) {
		mc = 0
	}

	pct := (mc - start) / t.step * 100
	pct = math.Max(0, math.Min(100, pct))

	return Progress{
		BucketStart: start,
		NextGoal:    start + t.step,
		Pct:         math.Round(pct*100) / 100,
	}
}
