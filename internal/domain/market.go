package domain

// MarketSnapshot is the normalized result of one successful market-data fetch.
type MarketSnapshot struct {
	PriceUSD        float64
	MarketCapUSD    float64
	VolumeChangePct float64 // 24h price change reported by the source
	SOLPriceUSD     float64 // 0 when the source does not quote against SOL
	// SupplyBurnedPct is nil when no live supply was available.
	SupplyBurnedPct *float64
	Source          string
}
