package market

import (
	"context"
	"fmt"

	"solana-buyback-burn/internal/solana"
)

// SupplyReader reads the live token supply in UI units.
type SupplyReader interface {
	Supply(ctx context.Context) (float64, error)
}

// RPCSupply reads supply with getTokenSupply.
type RPCSupply struct {
	rpc  solana.RPCClient
	mint string
}

// NewRPCSupply creates a SupplyReader for mint.
func NewRPCSupply(rpc solana.RPCClient, mint string) *RPCSupply {
	return &RPCSupply{rpc: rpc, mint: mint}
}

// Supply implements SupplyReader.
func (r *RPCSupply) Supply(ctx context.Context) (float64, error) {
	amount, err := r.rpc.GetTokenSupply(ctx, r.mint)
	if err != nil {
		return 0, fmt.Errorf("token supply: %w", err)
	}
	ui, err := amount.UIAmount()
	if err != nil {
		return 0, fmt.Errorf("token supply: %w", err)
	}
	return ui, nil
}
