/*
Package ledger provides the append-only points and money ledger at the core
of the tracker.

PURPOSE:
  Every point award, deduction, and prize purchase is recorded as an
  immutable Transaction; every dollar saved or spent as an immutable
  MoneyEvent. Balances are never stored - they are derived by summing
  the ledger on read, so they can never drift from history.

KEY CONCEPTS IN THIS FILE (types.go):
  - Day: A calendar date (the natural key for daily awards)
  - Transaction: An immutable point ledger entry
  - MoneyEvent: An immutable money ledger entry
  - Idempotency keys: Natural keys that make awards fire exactly once

DESIGN PRINCIPLES:
  1. Immutability: Ledger rows are never updated or deleted
  2. Integer math: Points and cents are plain integers, never floats
  3. Idempotency: Same logical event, same key, one row
  4. Auditability: Every row carries a note and a back-reference to
     the daily log or prize that produced it

SEE ALSO:
  - ledger.go: Ledger append with idempotency enforcement
  - balance.go: Balance and savings derivation
  - store/memory.go: In-memory Store for tests
*/
package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// DAY - Calendar date used as the ledger's daily idempotency key
// =============================================================================

// Day is a calendar date with no time-of-day component. All daily
// bookkeeping (logs, awards, counters) is keyed on Day, normalized to
// midnight UTC so two devices in different timezones agree on the key.
type Day struct {
	Time time.Time
}

const dayLayout = "2006-01-02"

func NewDay(year int, month time.Month, day int) Day {
	return Day{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates a timestamp to its calendar date.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

func Today() Day {
	return DayOf(time.Now().UTC())
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q (want YYYY-MM-DD): %w", s, err)
	}
	return DayOf(t), nil
}

func (d Day) String() string      { return d.Time.Format(dayLayout) }
func (d Day) IsZero() bool        { return d.Time.IsZero() }
func (d Day) Before(o Day) bool   { return d.Time.Before(o.Time) }
func (d Day) After(o Day) bool    { return d.Time.After(o.Time) }
func (d Day) Equal(o Day) bool    { return d.Time.Equal(o.Time) }
func (d Day) AddDays(n int) Day   { return DayOf(d.Time.AddDate(0, 0, n)) }
func (d Day) DaysSince(o Day) int { return int(d.Time.Sub(o.Time).Hours() / 24) }

// =============================================================================
// TRANSACTION - Immutable point ledger entry
// =============================================================================

type TxType string

const (
	TxEarn   TxType = "earn"   // Positive award (clean day, journal, checklist)
	TxDeduct TxType = "deduct" // Negative award (use day, missed checklist)
	TxSpend  TxType = "spend"  // Prize purchase debit
)

// Transaction is a signed point entry. Once written it is never modified;
// the only way points change is by appending another transaction.
type Transaction struct {
	ID             string
	UserID         string
	Points         int
	Type           TxType
	Note           string
	Day            Day
	RelatedLogID   string // Daily log that produced this entry, if any
	RelatedPrizeID string // Prize purchase that produced this entry, if any
	IdempotencyKey string
	CreatedAt      time.Time
}

// =============================================================================
// MONEY EVENT - Immutable money ledger entry (cents)
// =============================================================================

type MoneyType string

const (
	MoneySaved MoneyType = "saved" // Clean-day savings estimate
	MoneySpent MoneyType = "spent" // Reported spend on a use day
)

// MoneyEvent is a signed cents entry. Saved entries are positive,
// spent entries negative. Net savings = sum over all events.
type MoneyEvent struct {
	ID             string
	UserID         string
	AmountCents    int64
	Type           MoneyType
	Note           string
	Day            Day
	RelatedLogID   string
	IdempotencyKey string
	CreatedAt      time.Time
}
