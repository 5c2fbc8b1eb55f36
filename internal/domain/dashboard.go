package domain

// Dashboard is the read model served to dashboard clients.
type Dashboard struct {
	PriceUSD            float64
	VolumeChangePct     float64
	BuybacksUSD         float64
	BurnedUSD           float64
	MarketCapUSD        float64
	NextGoalUSD         float64
	NextGoalProgressPct float64
	SupplyBurnedPct     float64
	Transactions        []TransactionRecord
	TokenMint           string
}
