package solana

import "context"

// RPCClient defines the Solana RPC HTTP calls used by the wallet and the
// market fetcher.
type RPCClient interface {
	// GetBalance returns the balance of an address in lamports.
	GetBalance(ctx context.Context, address string) (uint64, error)

	// GetTokenSupply returns the current supply of a mint.
	GetTokenSupply(ctx context.Context, mint string) (*TokenAmount, error)

	// GetTokenAccountBalance returns the balance of a token account.
	GetTokenAccountBalance(ctx context.Context, account string) (*TokenAmount, error)

	// GetAccountInfo returns account info, or nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetLatestBlockhash returns a recent blockhash (base58).
	GetLatestBlockhash(ctx context.Context) (string, error)

	// SendTransaction submits a signed, serialized transaction and returns
	// its signature. Implementations must not retry.
	SendTransaction(ctx context.Context, tx []byte) (string, error)
}
