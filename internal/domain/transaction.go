package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxKind identifies which pipeline step produced a transaction record.
type TxKind string

const (
	TxKindClaim   TxKind = "claim"
	TxKindBuyback TxKind = "buyback"
	TxKindBurn    TxKind = "burn"
)

// String returns the string representation of TxKind.
func (k TxKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a known value.
func (k TxKind) IsValid() bool {
	return k == TxKindClaim || k == TxKindBuyback || k == TxKindBurn
}

// TxStatus is "confirmed" when the step produced an on-chain signature and
// "recorded" otherwise (failures, no-ops, manual credits).
type TxStatus string

const (
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusRecorded  TxStatus = "recorded"
)

// Amount units used in transaction records.
const (
	UnitSOL   = "SOL"
	UnitToken = "TOKEN"
)

// TransactionRecord is one immutable entry of the dashboard history.
type TransactionRecord struct {
	ID          string          // assigned by the transaction log on append
	Signature   string          // empty when the step produced no transaction
	Kind        TxKind          // claim | buyback | burn
	Amount      decimal.Decimal // in Unit
	Unit        string          // SOL for pipeline steps, TOKEN for manual credits
	Status      TxStatus        // derived from Signature
	Timestamp   time.Time       // UTC
	Description string          // human readable outcome
}

// NewTransactionRecord builds a record stamped with the current UTC time.
// Status is confirmed iff a signature is present.
func NewTransactionRecord(kind TxKind, amount decimal.Decimal, unit, description, signature string) TransactionRecord {
	status := TxStatusRecorded
	if signature != "" {
		status = TxStatusConfirmed
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return TransactionRecord{
		Signature:   signature,
		Kind:        kind,
		Amount:      amount,
		Unit:        unit,
		Status:      status,
		Timestamp:   time.Now().UTC(),
		Description: description,
	}
}
