// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/cleanslate/tracker/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	transactions map[string][]ledger.Transaction
	moneyEvents  map[string][]ledger.MoneyEvent
	idempotency  map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		transactions: make(map[string][]ledger.Transaction),
		moneyEvents:  make(map[string][]ledger.MoneyEvent),
		idempotency:  make(map[string]bool),
	}
}

// AppendTransaction adds a single point entry. Append-only.
func (m *Memory) AppendTransaction(_ context.Context, tx ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tx.IdempotencyKey != "" {
		if m.idempotency[tx.IdempotencyKey] {
			return ledger.ErrDuplicateIdempotencyKey
		}
		m.idempotency[tx.IdempotencyKey] = true
	}
	m.transactions[tx.UserID] = append(m.transactions[tx.UserID], tx)
	return nil
}

// AppendMoneyEvent adds a single money entry. Append-only.
func (m *Memory) AppendMoneyEvent(_ context.Context, ev ledger.MoneyEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ev.IdempotencyKey != "" {
		if m.idempotency[ev.IdempotencyKey] {
			return ledger.ErrDuplicateIdempotencyKey
		}
		m.idempotency[ev.IdempotencyKey] = true
	}
	m.moneyEvents[ev.UserID] = append(m.moneyEvents[ev.UserID], ev)
	return nil
}

// Transactions returns all point entries for a user, newest first.
func (m *Memory) Transactions(_ context.Context, userID string) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	txs := make([]ledger.Transaction, len(m.transactions[userID]))
	copy(txs, m.transactions[userID])
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Day.After(txs[j].Day)
	})
	return txs, nil
}

// MoneyEvents returns all money entries for a user, newest first.
func (m *Memory) MoneyEvents(_ context.Context, userID string) ([]ledger.MoneyEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	evs := make([]ledger.MoneyEvent, len(m.moneyEvents[userID]))
	copy(evs, m.moneyEvents[userID])
	sort.SliceStable(evs, func(i, j int) bool {
		return evs[i].Day.After(evs[j].Day)
	})
	return evs, nil
}

// SumPoints derives the current balance.
func (m *Memory) SumPoints(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := 0
	for _, tx := range m.transactions[userID] {
		sum += tx.Points
	}
	return sum, nil
}

// TransactionExists checks whether an idempotency key has been used.
func (m *Memory) TransactionExists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}
