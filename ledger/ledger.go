/*
ledger.go - Append-only ledger over a Store

PURPOSE:
  The Ledger wraps a Store with idempotency enforcement. It is the only
  write path for point and money entries.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete (account reset excepted).
  2. IDEMPOTENT: Same idempotency key = same entry, appended once.
  3. DERIVED BALANCE: Balance is computed by summing entries, never stored.

WHY APPEND-ONLY?
  - "Why is my balance X?" is always answerable from history
  - A retried request or a double-tap can never double-award
  - Corrections are new entries (admin adjustment), not edits

SEE ALSO:
  - balance.go: Summarize / SummarizeMoney
  - store/memory.go: In-memory Store used in tests
*/
package ledger

import "context"

// =============================================================================
// STORE - Persistence interface (append-only)
// =============================================================================

// Store persists ledger entries. Implementations must reject a second
// append with an idempotency key that already exists, atomically with the
// insert (a unique index, not a read-then-write).
type Store interface {
	// AppendTransaction persists a point entry.
	// Returns ErrDuplicateIdempotencyKey if the key exists.
	AppendTransaction(ctx context.Context, tx Transaction) error

	// AppendMoneyEvent persists a money entry.
	// Returns ErrDuplicateIdempotencyKey if the key exists.
	AppendMoneyEvent(ctx context.Context, ev MoneyEvent) error

	// Transactions returns all point entries for a user, newest first.
	Transactions(ctx context.Context, userID string) ([]Transaction, error)

	// MoneyEvents returns all money entries for a user, newest first.
	MoneyEvents(ctx context.Context, userID string) ([]MoneyEvent, error)

	// SumPoints returns the user's current balance (sum over all entries).
	// Must be consistent with Transactions at the time of the call.
	SumPoints(ctx context.Context, userID string) (int, error)

	// TransactionExists checks whether an idempotency key has been used.
	// This is the award gate: engines ask before appending, and the
	// store's unique index backstops the answer under concurrency.
	TransactionExists(ctx context.Context, idempotencyKey string) (bool, error)
}

// =============================================================================
// LEDGER - Idempotent append
// =============================================================================

type Ledger struct {
	Store Store
}

func New(store Store) *Ledger {
	return &Ledger{Store: store}
}

// Append adds a point entry, refusing duplicates by idempotency key.
// The pre-check gives a clean error for the common replay case; the
// store's unique index remains the backstop under concurrency.
func (l *Ledger) Append(ctx context.Context, tx Transaction) error {
	if tx.IdempotencyKey != "" {
		exists, err := l.Store.TransactionExists(ctx, tx.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return &DuplicateAwardError{UserID: tx.UserID, IdempotencyKey: tx.IdempotencyKey}
		}
	}
	return l.Store.AppendTransaction(ctx, tx)
}

// AppendMoney adds a money entry, refusing duplicates by idempotency key.
func (l *Ledger) AppendMoney(ctx context.Context, ev MoneyEvent) error {
	return l.Store.AppendMoneyEvent(ctx, ev)
}

// Balance derives the current point balance.
func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	return l.Store.SumPoints(ctx, userID)
}
