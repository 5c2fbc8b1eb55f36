package stub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"solana-buyback-burn/internal/solana"
)

// ErrNotFound is returned when an account or mint is not found.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu sync.Mutex

	Balances      map[string]uint64
	Supplies      map[string]*solana.TokenAmount
	TokenAccounts map[string]*solana.TokenAmount
	Accounts      map[string]*solana.AccountInfo
	Blockhash     string

	// SendErr, when set, fails every SendTransaction.
	SendErr error
	// Sent holds every transaction passed to SendTransaction.
	Sent [][]byte
	// Calls counts calls by RPC method name.
	Calls map[string]int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances:      make(map[string]uint64),
		Supplies:      make(map[string]*solana.TokenAmount),
		TokenAccounts: make(map[string]*solana.TokenAmount),
		Accounts:      make(map[string]*solana.AccountInfo),
		Blockhash:     "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
		Calls:         make(map[string]int),
	}
}

func (c *RPCClient) count(method string) {
	c.Calls[method]++
}

// CallCount returns how many times method was called.
func (c *RPCClient) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Calls[method]
}

// GetBalance returns the stubbed balance, or an error if none is set.
func (c *RPCClient) GetBalance(_ context.Context, address string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getBalance")
	bal, ok := c.Balances[address]
	if !ok {
		return 0, fmt.Errorf("balance %s: %w", address, ErrNotFound)
	}
	return bal, nil
}

// GetTokenSupply returns the stubbed supply of mint.
func (c *RPCClient) GetTokenSupply(_ context.Context, mint string) (*solana.TokenAmount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getTokenSupply")
	supply, ok := c.Supplies[mint]
	if !ok {
		return nil, fmt.Errorf("supply %s: %w", mint, ErrNotFound)
	}
	return supply, nil
}

// GetTokenAccountBalance returns the stubbed token account balance.
func (c *RPCClient) GetTokenAccountBalance(_ context.Context, account string) (*solana.TokenAmount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getTokenAccountBalance")
	bal, ok := c.TokenAccounts[account]
	if !ok {
		return nil, fmt.Errorf("token account %s: %w", account, ErrNotFound)
	}
	return bal, nil
}

// GetAccountInfo returns the stubbed account, or nil when absent.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getAccountInfo")
	return c.Accounts[pubkey], nil
}

// GetLatestBlockhash returns the stubbed blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("getLatestBlockhash")
	return c.Blockhash, nil
}

// SendTransaction records tx and returns its first signature.
func (c *RPCClient) SendTransaction(_ context.Context, tx []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count("sendTransaction")
	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.Sent = append(c.Sent, tx)
	return solana.FirstSignature(tx)
}

// SentTransactions returns a copy of the submitted transactions.
func (c *RPCClient) SentTransactions() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.Sent))
	copy(out, c.Sent)
	return out
}

var _ solana.RPCClient = (*RPCClient)(nil)

// SignatureWaiter implements solana.SignatureWaiter for testing.
type SignatureWaiter struct {
	mu     sync.Mutex
	Err    error
	Waited []string
}

// WaitForSignature records the signature and returns Err.
func (w *SignatureWaiter) WaitForSignature(_ context.Context, signature string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Waited = append(w.Waited, signature)
	return w.Err
}

// Close is a no-op.
func (w *SignatureWaiter) Close() error { return nil }

var _ solana.SignatureWaiter = (*SignatureWaiter)(nil)
