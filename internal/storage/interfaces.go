// Package storage defines the in-process stores backing the dashboard.
package storage

import "solana-buyback-burn/internal/domain"

// DefaultTransactionLogCapacity is the number of records kept in history.
const DefaultTransactionLogCapacity = 50

// TransactionLog is a bounded, newest-first history of pipeline actions.
type TransactionLog interface {
	// Append stores a record at the head of the log, assigning its ID.
	// The oldest record is evicted when the log exceeds its capacity.
	Append(rec domain.TransactionRecord) (domain.TransactionRecord, error)

	// List returns copies of all records, newest first.
	List() []domain.TransactionRecord

	// Len returns the number of stored records.
	Len() int
}
