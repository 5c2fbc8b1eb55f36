// Package wallet operates the treasury wallet: balance reads, PumpPortal
// trades signed locally, and burning the held token balance.
package wallet

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solana-buyback-burn/internal/clock"
	"solana-buyback-burn/internal/domain"
	"solana-buyback-burn/internal/pumpportal"
	"solana-buyback-burn/internal/solana"
)

// Default settings.
const (
	DefaultSettlementDelay = 2 * time.Second
	DefaultConfirmTimeout  = 30 * time.Second
	DefaultSlippagePct     = 10
)

// Trader builds unsigned trade transactions.
type Trader interface {
	Trade(ctx context.Context, req pumpportal.Request) ([]byte, error)
}

// Config holds wallet credentials and trade settings.
type Config struct {
	Address    string
	PrivateKey string // base58 64-byte secret
	Mint       string
	// TokenProgram overrides detection of the mint's owning program.
	TokenProgram    string
	PriorityFee     decimal.Decimal
	SlippagePct     int
	SettlementDelay time.Duration
	ConfirmTimeout  time.Duration
}

// Wallet is the operating wallet used by the action pipeline.
type Wallet struct {
	cfg     Config
	rpc     solana.RPCClient
	trader  Trader
	waiter  solana.SignatureWaiter
	clock   clock.Clock
	logger  *zap.Logger
	keypair *solana.Keypair
	keyErr  error
}

// Option configures Wallet.
type Option func(*Wallet)

// WithSignatureWaiter enables WebSocket settlement confirmation.
func WithSignatureWaiter(w solana.SignatureWaiter) Option {
	return func(wl *Wallet) {
		wl.waiter = w
	}
}

// WithClock sets the clock used for the settlement delay.
func WithClock(c clock.Clock) Option {
	return func(wl *Wallet) {
		wl.clock = c
	}
}

// New creates a Wallet. Credential problems are logged and surface as
// ErrMissingConfig from the operations that need them.
func New(cfg Config, rpc solana.RPCClient, trader Trader, logger *zap.Logger, opts ...Option) *Wallet {
	if cfg.SettlementDelay <= 0 {
		cfg.SettlementDelay = DefaultSettlementDelay
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = DefaultConfirmTimeout
	}
	if cfg.SlippagePct <= 0 {
		cfg.SlippagePct = DefaultSlippagePct
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Wallet{
		cfg:    cfg,
		rpc:    rpc,
		trader: trader,
		clock:  clock.New(),
		logger: logger.Named("wallet"),
	}
	for _, opt := range opts {
		opt(w)
	}

	switch {
	case cfg.PrivateKey == "":
		w.keyErr = fmt.Errorf("%w: wallet private key", domain.ErrMissingConfig)
	default:
		kp, err := solana.KeypairFromBase58(cfg.PrivateKey)
		if err != nil {
			w.keyErr = fmt.Errorf("%w: wallet private key: %v", domain.ErrMissingConfig, err)
			break
		}
		w.keypair = kp
		if w.cfg.Address == "" {
			w.cfg.Address = kp.PublicKey().String()
		} else if w.cfg.Address != kp.PublicKey().String() {
			w.logger.Warn("wallet address does not match private key",
				zap.String("address", w.cfg.Address),
				zap.String("key_address", kp.PublicKey().String()))
		}
	}
	if w.keyErr != nil {
		w.logger.Warn("signing disabled", zap.Error(w.keyErr))
	}

	return w
}

// Address returns the wallet address.
func (w *Wallet) Address() string {
	return w.cfg.Address
}

// Balance returns the SOL balance. Any failure is logged and reads as zero.
func (w *Wallet) Balance(ctx context.Context) decimal.Decimal {
	if w.cfg.Address == "" {
		w.logger.Warn("balance unavailable", zap.Error(fmt.Errorf("%w: wallet address", domain.ErrMissingConfig)))
		return decimal.Zero
	}

	lamports, err := w.rpc.GetBalance(ctx, w.cfg.Address)
	if err != nil {
		w.logger.Warn("failed to get SOL balance", zap.String("address", w.cfg.Address), zap.Error(err))
		return decimal.Zero
	}
	return lamportsToSOL(lamports)
}

// CollectFees claims accrued creator fees.
func (w *Wallet) CollectFees(ctx context.Context) (string, error) {
	return w.submit(ctx, pumpportal.Request{
		Action: pumpportal.ActionCollectCreatorFee,
	})
}

// Buy spends sol SOL on the configured token.
func (w *Wallet) Buy(ctx context.Context, sol decimal.Decimal) (string, error) {
	if !sol.IsPositive() {
		return "", fmt.Errorf("buy %s SOL: %w", sol, domain.ErrInvalidAmount)
	}
	if err := w.requireMint(); err != nil {
		return "", err
	}
	return w.submit(ctx, pumpportal.Request{
		Action:           pumpportal.ActionBuy,
		Mint:             w.cfg.Mint,
		Amount:           sol,
		DenominatedInSOL: true,
		SlippagePct:      w.cfg.SlippagePct,
	})
}

// Sell sells tokens of the configured token.
func (w *Wallet) Sell(ctx context.Context, tokens decimal.Decimal) (string, error) {
	if !tokens.IsPositive() {
		return "", fmt.Errorf("sell %s tokens: %w", tokens, domain.ErrInvalidAmount)
	}
	if err := w.requireMint(); err != nil {
		return "", err
	}
	return w.submit(ctx, pumpportal.Request{
		Action:      pumpportal.ActionSell,
		Mint:        w.cfg.Mint,
		Amount:      tokens,
		SlippagePct: w.cfg.SlippagePct,
	})
}

// submit builds the trade, signs it locally and sends it once.
func (w *Wallet) submit(ctx context.Context, req pumpportal.Request) (string, error) {
	if w.keyErr != nil {
		return "", w.keyErr
	}
	req.PublicKey = w.cfg.Address
	req.PriorityFee = w.cfg.PriorityFee

	unsigned, err := w.trader.Trade(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", req.Action, err)
	}

	signed, err := solana.SignSerializedTransaction(unsigned, w.keypair)
	if err != nil {
		return "", fmt.Errorf("%s: sign: %w", req.Action, err)
	}

	sig, err := w.rpc.SendTransaction(ctx, signed)
	if err != nil {
		return "", fmt.Errorf("%s: %w", req.Action, err)
	}

	w.logger.Info("transaction submitted", zap.String("action", string(req.Action)), zap.String("signature", sig))
	return sig, nil
}

// BurnAll burns the wallet's entire balance of the configured token.
// An empty signature with a nil error means there was nothing to burn.
func (w *Wallet) BurnAll(ctx context.Context) (string, error) {
	if w.keyErr != nil {
		return "", w.keyErr
	}
	if err := w.requireMint(); err != nil {
		return "", err
	}

	mint, err := solana.PublicKeyFromBase58(w.cfg.Mint)
	if err != nil {
		return "", fmt.Errorf("burn: mint: %w", err)
	}
	program, err := w.tokenProgram(ctx)
	if err != nil {
		return "", fmt.Errorf("burn: %w", err)
	}

	owner := w.keypair.PublicKey()
	ata, err := solana.FindAssociatedTokenAddress(owner, mint, program)
	if err != nil {
		return "", fmt.Errorf("burn: derive token account: %w", err)
	}

	info, err := w.rpc.GetAccountInfo(ctx, ata.String())
	if err != nil {
		return "", fmt.Errorf("burn: token account: %w", err)
	}
	if info == nil {
		w.logger.Info("no token account, nothing to burn", zap.String("token_account", ata.String()))
		return "", nil
	}

	balance, err := w.rpc.GetTokenAccountBalance(ctx, ata.String())
	if err != nil {
		return "", fmt.Errorf("burn: token balance: %w", err)
	}
	amount, err := balance.Raw()
	if err != nil {
		return "", fmt.Errorf("burn: token balance: %w", err)
	}
	if amount == 0 {
		w.logger.Info("token balance is zero, nothing to burn")
		return "", nil
	}

	blockhash, err := w.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("burn: blockhash: %w", err)
	}

	msg, err := solana.BuildBurnMessage(solana.BurnParams{
		Owner:           owner,
		TokenAccount:    ata,
		Mint:            mint,
		TokenProgram:    program,
		Amount:          amount,
		RecentBlockhash: blockhash,
	})
	if err != nil {
		return "", fmt.Errorf("burn: %w", err)
	}

	sig, err := w.rpc.SendTransaction(ctx, solana.NewSignedTransaction(msg, w.keypair))
	if err != nil {
		return "", fmt.Errorf("burn: %w", err)
	}

	w.logger.Info("burn submitted",
		zap.Uint64("amount_raw", amount),
		zap.Uint8("decimals", balance.Decimals),
		zap.String("signature", sig))
	return sig, nil
}

// tokenProgram returns the configured program, else the mint's owner,
// else the classic SPL Token program.
func (w *Wallet) tokenProgram(ctx context.Context) (solana.PublicKey, error) {
	if w.cfg.TokenProgram != "" {
		return solana.PublicKeyFromBase58(w.cfg.TokenProgram)
	}

	info, err := w.rpc.GetAccountInfo(ctx, w.cfg.Mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("mint account: %w", err)
	}
	if info == nil || info.Owner == "" {
		return solana.MustPublicKey(solana.TokenProgramID), nil
	}
	return solana.PublicKeyFromBase58(info.Owner)
}

// WaitForSettlement waits for sig to confirm over WebSocket when available,
// and otherwise for the fixed settlement delay.
func (w *Wallet) WaitForSettlement(ctx context.Context, sig string) error {
	if w.waiter != nil && sig != "" {
		waitCtx, cancel := context.WithTimeout(ctx, w.cfg.ConfirmTimeout)
		err := w.waiter.WaitForSignature(waitCtx, sig)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.Warn("settlement confirmation failed, using fixed delay",
			zap.String("signature", sig), zap.Error(err))
	}
	return clock.Sleep(ctx, w.clock, w.cfg.SettlementDelay)
}

func (w *Wallet) requireMint() error {
	if w.cfg.Mint == "" {
		return fmt.Errorf("%w: token mint", domain.ErrMissingConfig)
	}
	return nil
}

func lamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9)
}
