/*
store.go - Persistence interfaces for the recovery domain

PURPOSE:
  Defines what the engines need from storage. The single Store interface
  composes the ledger store with per-entity stores, plus WithTx for the
  atomic units the award rules depend on.

ATOMIC UNITS:
  Every read-then-write the engines perform - award-if-not-awarded,
  purchase-if-balance-sufficient, settle-if-unscored - runs inside
  WithTx so two concurrent requests for the same user cannot both pass
  the read and both write. Implementations back WithTx with a database
  transaction; unique indexes on idempotency keys and (user, day) pairs
  are the last line of defense.

IMPLEMENTATIONS:
  - store/sqlite: production store, one table per entity
*/
package recovery

import (
	"context"

	"github.com/cleanslate/tracker/ledger"
)

// =============================================================================
// PER-ENTITY STORES
// =============================================================================

// UserStore persists users. Get methods return (nil, nil) when absent.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	SaveUser(ctx context.Context, u User) error
	ListUsers(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int, error)

	// DeleteUser removes the user and cascades to every owned entity:
	// logs, transactions, money events, prizes, purchases, counters.
	DeleteUser(ctx context.Context, id string) error
}

// LogStore persists daily logs, unique per (user, day).
type LogStore interface {
	GetDailyLog(ctx context.Context, userID string, day ledger.Day) (*DailyLog, error)
	SaveDailyLog(ctx context.Context, l DailyLog) error

	// ListDailyLogs returns the user's logs, newest first.
	ListDailyLogs(ctx context.Context, userID string) ([]DailyLog, error)

	// ListJournalLogs returns logs with journal content, newest first.
	ListJournalLogs(ctx context.Context, userID string) ([]DailyLog, error)
}

// PrizeStore persists prizes and purchases.
type PrizeStore interface {
	// GetPrize returns the prize only if it belongs to userID.
	GetPrize(ctx context.Context, userID, prizeID string) (*Prize, error)
	SavePrize(ctx context.Context, p Prize) error
	ListPrizes(ctx context.Context, userID string) ([]Prize, error)

	// DeletePrize removes a prize and its purchases in one unit.
	DeletePrize(ctx context.Context, userID, prizeID string) error

	SavePurchase(ctx context.Context, p Purchase) error
	ListPurchases(ctx context.Context, userID string) ([]Purchase, error)
}

// DailyStateStore persists the per-day checklist and breathing counters.
type DailyStateStore interface {
	GetChecklistDay(ctx context.Context, userID string, day ledger.Day) (*ChecklistDay, error)
	SaveChecklistDay(ctx context.Context, c ChecklistDay) error

	// ListUnscoredChecklistDays returns rows strictly before the given day
	// whose score has not been settled, oldest first.
	ListUnscoredChecklistDays(ctx context.Context, userID string, before ledger.Day) ([]ChecklistDay, error)

	GetBreathDay(ctx context.Context, userID string, day ledger.Day) (*BreathDay, error)
	SaveBreathDay(ctx context.Context, b BreathDay) error
}

// =============================================================================
// COMPOSED STORE
// =============================================================================

// Store is everything the engines need. WithTx runs fn against a Store
// bound to one database transaction: fn's writes commit together or not
// at all, and its reads see no interleaved writers.
type Store interface {
	ledger.Store
	UserStore
	LogStore
	PrizeStore
	DailyStateStore

	WithTx(ctx context.Context, fn func(Store) error) error

	// Reset wipes all user data (admin full reset).
	Reset(ctx context.Context) error
}
