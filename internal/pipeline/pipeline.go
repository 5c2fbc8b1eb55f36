// Package pipeline runs the claim, buyback and burn sequence triggered by a
// market cap goal crossing.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solana-buyback-burn/internal/domain"
	"solana-buyback-burn/internal/observability"
	"solana-buyback-burn/internal/state"
)

// BuybackShare is the fraction of claimed fees spent on the buyback.
var BuybackShare = decimal.RequireFromString("0.25")

// solDecimals is the rounding applied to SOL amounts.
const solDecimals = 6

// Step names a pipeline step.
type Step string

const (
	StepClaim   Step = "claim"
	StepBuyback Step = "buyback"
	StepBurn    Step = "burn"
)

// Wallet performs the on-chain actions.
type Wallet interface {
	Balance(ctx context.Context) decimal.Decimal
	CollectFees(ctx context.Context) (string, error)
	WaitForSettlement(ctx context.Context, sig string) error
	Buy(ctx context.Context, sol decimal.Decimal) (string, error)
	BurnAll(ctx context.Context) (string, error)
}

// Recorder receives records and totals.
type Recorder interface {
	Record(rec domain.TransactionRecord) (domain.TransactionRecord, error)
	AddBuyback(usd float64)
	AddBurn(usd float64)
	NudgeBurnPct() bool
	Snapshot() state.Snapshot
}

// Result summarizes one run.
type Result struct {
	Claimed        decimal.Decimal
	Bought         decimal.Decimal
	ClaimSignature string
	BuySignature   string
	BurnSignature  string
	// FailedStep is empty when no step failed.
	FailedStep Step
	Err        error
}

// Pipeline executes claim, buyback and burn. Each step runs at most once
// per Run, and a failed step ends the run.
type Pipeline struct {
	wallet   Wallet
	recorder Recorder
	logger   *zap.Logger
}

// New creates a Pipeline.
func New(wallet Wallet, recorder Recorder, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		wallet:   wallet,
		recorder: recorder,
		logger:   logger.Named("pipeline"),
	}
}

// Run executes the pipeline once.
func (p *Pipeline) Run(ctx context.Context) Result {
	started := time.Now()
	res := p.run(ctx)

	status := "ok"
	if res.FailedStep != "" {
		status = "failed_" + string(res.FailedStep)
	}
	observability.RecordPipelineRun(status, time.Since(started).Seconds())

	p.logger.Info("pipeline finished",
		zap.String("status", status),
		zap.String("claimed_sol", res.Claimed.String()),
		zap.String("bought_sol", res.Bought.String()),
		zap.String("burn_signature", res.BurnSignature),
		zap.Duration("duration", time.Since(started)))
	return res
}

func (p *Pipeline) run(ctx context.Context) Result {
	var res Result

	// Claim
	before := p.wallet.Balance(ctx)
	claimSig, err := p.wallet.CollectFees(ctx)
	if err != nil {
		p.fail(&res, StepClaim, err)
		p.record(domain.TxKindClaim, decimal.Zero, fmt.Sprintf("Claim failed: %v", err), "")
		return res
	}
	res.ClaimSignature = claimSig

	if err := p.wallet.WaitForSettlement(ctx, claimSig); err != nil {
		p.logger.Warn("claim settlement wait interrupted", zap.Error(err))
	}
	after := p.wallet.Balance(ctx)
	claimed := decimal.Max(decimal.Zero, after.Sub(before).Round(solDecimals))
	res.Claimed = claimed

	p.record(domain.TxKindClaim, claimed, fmt.Sprintf("Claimed creator fees: %s SOL", claimed), claimSig)
	observability.RecordStep(string(StepClaim), "ok")

	// Buyback
	buy := claimed.Mul(BuybackShare).Round(solDecimals)
	if !buy.IsPositive() {
		p.record(domain.TxKindBuyback, decimal.Zero, "No buyback (claimed 0 SOL)", "")
		observability.RecordStep(string(StepBuyback), "skipped")
		return res
	}

	buySig, err := p.wallet.Buy(ctx, buy)
	if err != nil {
		p.fail(&res, StepBuyback, err)
		p.record(domain.TxKindBuyback, decimal.Zero, fmt.Sprintf("Buyback failed: %v", err), "")
		return res
	}
	res.Bought = buy
	res.BuySignature = buySig

	p.record(domain.TxKindBuyback, buy, fmt.Sprintf("Executed buy-back of %s SOL", buy), buySig)
	p.recorder.AddBuyback(p.usdValue(buy))
	observability.RecordStep(string(StepBuyback), "ok")

	// Burn
	if err := p.wallet.WaitForSettlement(ctx, buySig); err != nil {
		p.logger.Warn("buyback settlement wait interrupted", zap.Error(err))
	}
	burnSig, err := p.wallet.BurnAll(ctx)
	if err != nil {
		p.fail(&res, StepBurn, err)
		p.record(domain.TxKindBurn, decimal.Zero, fmt.Sprintf("Burn failed: %v", err), "")
		return res
	}
	if burnSig == "" {
		p.record(domain.TxKindBurn, buy, fmt.Sprintf("Burn produced no signature for tokens bought with %s SOL", buy), "")
		observability.RecordStep(string(StepBurn), "no_signature")
		return res
	}
	res.BurnSignature = burnSig

	p.record(domain.TxKindBurn, buy, fmt.Sprintf("Burned tokens bought with %s SOL", buy), burnSig)
	p.recorder.AddBurn(p.usdValue(buy))
	p.recorder.NudgeBurnPct()
	observability.RecordStep(string(StepBurn), "ok")
	return res
}

func (p *Pipeline) fail(res *Result, step Step, err error) {
	res.FailedStep = step
	res.Err = err
	observability.RecordStep(string(step), "error")
	p.logger.Warn("pipeline step failed", zap.String("step", string(step)), zap.Error(err))
}

func (p *Pipeline) record(kind domain.TxKind, amount decimal.Decimal, description, sig string) {
	rec := domain.NewTransactionRecord(kind, amount, domain.UnitSOL, description, sig)
	if _, err := p.recorder.Record(rec); err != nil {
		p.logger.Error("failed to record transaction", zap.String("kind", kind.String()), zap.Error(err))
	}
}

// usdValue converts SOL to USD at the last observed SOL price, or 0 when
// none is known.
func (p *Pipeline) usdValue(sol decimal.Decimal) float64 {
	rate := p.recorder.Snapshot().SOLPriceUSD
	if rate <= 0 {
		p.logger.Warn("SOL price unknown, USD total not credited", zap.String("sol", sol.String()))
		return 0
	}
	usd, _ := sol.Mul(decimal.NewFromFloat(rate)).Float64()
	return usd
}
