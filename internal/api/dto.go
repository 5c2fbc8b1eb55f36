package api

import (
	"time"

	"solana-buyback-burn/internal/domain"
)

// DashboardResponse is the JSON body of GET /dashboard.
type DashboardResponse struct {
	PriceUSD            float64               `json:"price_usd"`
	VolumeChangePct     float64               `json:"volume_change_pct"`
	BuybacksUSD         float64               `json:"buybacks_usd"`
	BurnedUSD           float64               `json:"burned_usd"`
	MarketCapUSD        float64               `json:"market_cap_usd"`
	NextGoalUSD         float64               `json:"next_goal_usd"`
	NextGoalProgressPct float64               `json:"next_goal_progress_pct"`
	SupplyBurnedPct     float64               `json:"supply_burned_pct"`
	Transactions        []TransactionResponse `json:"transactions"`
	TokenMint           string                `json:"token_mint"`
}

// TransactionResponse is one history entry.
type TransactionResponse struct {
	ID          string  `json:"id"`
	Signature   *string `json:"signature"`
	Kind        string  `json:"kind"`
	Amount      float64 `json:"amount"`
	Unit        string  `json:"unit"`
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Description string  `json:"description"`
}

type healthResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type marketCapResponse struct {
	MarketCapUSD float64 `json:"market_cap_usd"`
}

type creditResponse struct {
	Transaction TransactionResponse `json:"transaction"`
}

func toDashboardResponse(d domain.Dashboard) DashboardResponse {
	txs := make([]TransactionResponse, 0, len(d.Transactions))
	for _, rec := range d.Transactions {
		txs = append(txs, toTransactionResponse(rec))
	}
	return DashboardResponse{
		PriceUSD:            d.PriceUSD,
		VolumeChangePct:     d.VolumeChangePct,
		BuybacksUSD:         d.BuybacksUSD,
		BurnedUSD:           d.BurnedUSD,
		MarketCapUSD:        d.MarketCapUSD,
		NextGoalUSD:         d.NextGoalUSD,
		NextGoalProgressPct: d.NextGoalProgressPct,
		SupplyBurnedPct:     d.SupplyBurnedPct,
		Transactions:        txs,
		TokenMint:           d.TokenMint,
	}
}

func toTransactionResponse(rec domain.TransactionRecord) TransactionResponse {
	var sig *string
	if rec.Signature != "" {
		s := rec.Signature
		sig = &s
	}
	amount, _ := rec.Amount.Float64()
	return TransactionResponse{
		ID:          rec.ID,
		Signature:   sig,
		Kind:        rec.Kind.String(),
		Amount:      amount,
		Unit:        rec.Unit,
		Status:      string(rec.Status),
		Timestamp:   rec.Timestamp.UTC().Format(time.RFC3339),
		Description: rec.Description,
	}
}
