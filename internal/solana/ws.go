package solana

import (
	"context"
	"errors"
)

// ErrConnectionLost is returned to waiters whose subscription was dropped by a
// reconnect or by Close.
var ErrConnectionLost = errors.New("websocket connection lost")

// SignatureWaiter waits for transaction settlement.
type SignatureWaiter interface {
	// WaitForSignature blocks until the signature reaches the configured
	// commitment, the transaction fails, or ctx is done.
	WaitForSignature(ctx context.Context, signature string) error

	// Close closes the underlying connection.
	Close() error
}

// TransactionError reports a transaction that landed but failed on chain.
type TransactionError struct {
	Signature string
	Err       interface{}
}

func (e *TransactionError) Error() string {
	return "transaction " + e.Signature + " failed on chain"
}
