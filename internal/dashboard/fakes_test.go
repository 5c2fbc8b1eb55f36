package dashboard

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type failingWallet struct{}

func (failingWallet) Balance(context.Context) decimal.Decimal { return decimal.Zero }

func (failingWallet) CollectFees(context.Context) (string, error) {
	return "", errors.New("missing configuration")
}

func (failingWallet) WaitForSettlement(context.Context, string) error { return nil }

func (failingWallet) Buy(context.Context, decimal.Decimal) (string, error) { return "", nil }

func (failingWallet) BurnAll(context.Context) (string, error) { return "", nil }

// disconnectingWallet runs onClaim during CollectFees and fails every call
// made with a done context, like RPC calls on a cancelled request.
type disconnectingWallet struct {
	onClaim  func()
	balances []string
	bought   []decimal.Decimal
}

func (w *disconnectingWallet) Balance(ctx context.Context) decimal.Decimal {
	if ctx.Err() != nil || len(w.balances) == 0 {
		return decimal.Zero
	}
	b := decimal.RequireFromString(w.balances[0])
	w.balances = w.balances[1:]
	return b
}

func (w *disconnectingWallet) CollectFees(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	w.onClaim()
	return "claimSig", nil
}

func (w *disconnectingWallet) WaitForSettlement(ctx context.Context, _ string) error {
	return ctx.Err()
}

func (w *disconnectingWallet) Buy(ctx context.Context, sol decimal.Decimal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	w.bought = append(w.bought, sol)
	return "buySig", nil
}

func (w *disconnectingWallet) BurnAll(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "burnSig", nil
}
