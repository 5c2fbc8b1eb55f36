package dashboard

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solana-buyback-burn/internal/domain"
)

// DefaultBumpUSD is the market cap bump used when a request gives no delta.
const DefaultBumpUSD = 110_000.0

// MarketView is the price and market cap pair shown by the debug endpoint.
type MarketView struct {
	PriceUSD     float64 `json:"price_usd"`
	MarketCapUSD float64 `json:"market_cap_usd"`
}

// MarketDebug reports a forced market refresh.
type MarketDebug struct {
	TokenMint       string     `json:"token_mint"`
	HeliusAPIKeySet bool       `json:"helius_api_key_set"`
	Source          string     `json:"source,omitempty"`
	RefreshError    string     `json:"refresh_error,omitempty"`
	CurrentState    MarketView `json:"current_state"`
	AfterRefresh    MarketView `json:"after_refresh"`
}

// Admin holds development-only operations. It shares the update lock with
// the Service it wraps.
type Admin struct {
	svc          *Service
	heliusKeySet bool
	logger       *zap.Logger
}

// NewAdmin creates an Admin for svc.
func NewAdmin(svc *Service, heliusKeySet bool) *Admin {
	return &Admin{
		svc:          svc,
		heliusKeySet: heliusKeySet,
		logger:       svc.logger.Named("admin"),
	}
}

// BumpMarketCap adds delta to the stored market cap and returns the new
// value. The next dashboard read evaluates the goal against the bumped value.
func (a *Admin) BumpMarketCap(delta float64) (float64, error) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return 0, fmt.Errorf("bump market cap: %w", domain.ErrInvalidAmount)
	}
	a.svc.update.Lock()
	defer a.svc.update.Unlock()

	mc := a.svc.store.BumpMarketCap(delta)
	a.logger.Info("market cap bumped", zap.Float64("delta_usd", delta), zap.Float64("market_cap_usd", mc))
	return mc, nil
}

// DebugMarketData forces a market refresh and reports state before and after.
func (a *Admin) DebugMarketData(ctx context.Context) MarketDebug {
	a.svc.update.Lock()
	defer a.svc.update.Unlock()

	before := a.svc.store.Snapshot()
	out := MarketDebug{
		TokenMint:       a.svc.tokenMint,
		HeliusAPIKeySet: a.heliusKeySet,
		CurrentState:    MarketView{PriceUSD: before.PriceUSD, MarketCapUSD: before.MarketCapUSD},
	}

	if err := a.svc.fetcher.Refresh(ctx, true); err != nil {
		out.RefreshError = err.Error()
		a.logger.Warn("forced market refresh failed", zap.Error(err))
	}

	after := a.svc.store.Snapshot()
	out.Source = after.MarketSource
	out.AfterRefresh = MarketView{PriceUSD: after.PriceUSD, MarketCapUSD: after.MarketCapUSD}
	return out
}

// CreditBuyback adds usd to the buyback total and records the equivalent
// token amount at the current price.
func (a *Admin) CreditBuyback(usd float64) (domain.TransactionRecord, error) {
	return a.credit(domain.TxKindBuyback, usd)
}

// CreditBurn adds usd to the burned total and records the equivalent token
// amount at the current price.
func (a *Admin) CreditBurn(usd float64) (domain.TransactionRecord, error) {
	return a.credit(domain.TxKindBurn, usd)
}

func (a *Admin) credit(kind domain.TxKind, usd float64) (domain.TransactionRecord, error) {
	if !(usd > 0) || math.IsInf(usd, 0) {
		return domain.TransactionRecord{}, fmt.Errorf("credit %s: %w", kind, domain.ErrInvalidAmount)
	}

	a.svc.update.Lock()
	defer a.svc.update.Unlock()

	store := a.svc.store
	price := store.Snapshot().PriceUSD

	tokens := decimal.Zero
	if price > 0 {
		tokens = decimal.NewFromFloat(usd).Div(decimal.NewFromFloat(price)).Round(6)
	}

	var desc string
	switch kind {
	case domain.TxKindBuyback:
		store.AddBuyback(usd)
		desc = fmt.Sprintf("Manual buyback credit of $%.2f", usd)
	default:
		store.AddBurn(usd)
		desc = fmt.Sprintf("Manual burn credit of $%.2f", usd)
	}

	rec, err := store.Record(domain.NewTransactionRecord(kind, tokens, domain.UnitToken, desc, ""))
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("credit %s: %w", kind, err)
	}
	a.logger.Info("manual credit applied",
		zap.String("kind", kind.String()),
		zap.Float64("usd", usd),
		zap.String("tokens", tokens.String()))
	return rec, nil
}
