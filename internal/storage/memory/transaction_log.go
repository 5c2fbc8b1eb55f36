package memory

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"solana-buyback-burn/internal/domain"
	"solana-buyback-burn/internal/storage"
)

// TransactionLog is an in-memory implementation of storage.TransactionLog.
type TransactionLog struct {
	mu       sync.RWMutex
	capacity int
	records  []domain.TransactionRecord // newest first
}

// NewTransactionLog creates a log holding at most capacity records.
// Non-positive capacities fall back to storage.DefaultTransactionLogCapacity.
func NewTransactionLog(capacity int) *TransactionLog {
	if capacity <= 0 {
		capacity = storage.DefaultTransactionLogCapacity
	}
	return &TransactionLog{
		capacity: capacity,
		records:  make([]domain.TransactionRecord, 0, capacity),
	}
}

// Append stores rec at index 0 and drops the oldest record past capacity.
func (l *TransactionLog) Append(rec domain.TransactionRecord) (domain.TransactionRecord, error) {
	if !rec.Kind.IsValid() {
		return domain.TransactionRecord{}, fmt.Errorf("%w: kind %q", storage.ErrInvalidInput, rec.Kind)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.records) < l.capacity {
		l.records = append(l.records, domain.TransactionRecord{})
	}
	copy(l.records[1:], l.records[:len(l.records)-1])
	l.records[0] = rec

	return rec, nil
}

// List returns a copy of the records, newest first.
func (l *TransactionLog) List() []domain.TransactionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.TransactionRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of stored records.
func (l *TransactionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

var _ storage.TransactionLog = (*TransactionLog)(nil)
