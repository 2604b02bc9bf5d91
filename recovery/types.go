/*
Package recovery implements the abstinence-tracking domain on top of the
point/money ledger.

PURPOSE:
  Owns the entities a user interacts with day to day - the daily clean/use
  log, the prize shop, the habit checklist, the breathing counter - and the
  award rules that turn those interactions into ledger entries exactly once.

ENTITIES:
  User:         The tenant. Everything below belongs to exactly one user.
  DailyLog:     One row per (user, day); clean or used, plus journal/mood.
  Prize:        Self-defined reward purchasable with points.
  Purchase:     A redemption; created atomically with its debit.
  ChecklistDay: Per-day item state; makes checklist scoring once-per-day.
  BreathDay:    Per-day session counter; makes the 3rd-session award
                once-per-day.

SEE ALSO:
  - awards.go: The event -> points policy table
  - dailylog.go, prizes.go, checklist.go, breathing.go: Engines
  - store.go: Persistence interfaces and the atomic-unit contract
*/
package recovery

import (
	"time"

	"github.com/cleanslate/tracker/ledger"
)

// =============================================================================
// USER
// =============================================================================

// User is the root entity. WeeklySpendCents feeds the clean-day savings
// estimate; LongestStreakDays is a cache maintained by the daily log engine.
type User struct {
	ID                string
	Username          string
	FirstName         string
	LastName          string
	WeeklySpendCents  int64
	StartDate         time.Time // Quit date; set at account creation
	LongestStreakDays int
	PinHash           string // Empty = no PIN set
	IsAdmin           bool
	CreatedAt         time.Time
}

// =============================================================================
// DAILY LOG
// =============================================================================

// DailyLog records one day's clean/use status plus the optional journal.
// At most one row exists per (UserID, Day). The status fields are frozen
// once a ledger entry references the log; journal and mood stay editable
// for the current day only.
type DailyLog struct {
	ID          string
	UserID      string
	Day         ledger.Day
	Used        bool
	Context     string // Free-text trigger/context, use days only
	Paid        bool
	AmountCents int64 // Reported spend, use days only
	Journal     string
	Mood        int // 1-5, 0 = unset
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasJournal reports whether the log carries journal content.
func (l *DailyLog) HasJournal() bool {
	return l != nil && l.Journal != ""
}

// =============================================================================
// PRIZES
// =============================================================================

// Prize is a user-defined reward. Active means purchasable; purchase flips
// it false, restock flips it back. Restocking has no ledger effect.
type Prize struct {
	ID          string
	UserID      string
	Name        string
	Description string
	CostPoints  int
	Active      bool
	CreatedAt   time.Time
}

// Purchase joins a user to a prize redemption. Always created in the same
// atomic unit as its -CostPoints transaction.
type Purchase struct {
	ID        string
	UserID    string
	PrizeID   string
	CreatedAt time.Time
}

// =============================================================================
// DAILY COUNTERS
// =============================================================================

// ChecklistScore is the terminal state of a checklist day.
type ChecklistScore string

const (
	ChecklistUnscored ChecklistScore = ""
	ChecklistComplete ChecklistScore = "complete"
	ChecklistMissed   ChecklistScore = "missed"
)

// ChecklistDay holds one day's item state. Scored is set exactly once, at
// completion or at lazy settlement after the day has passed.
type ChecklistDay struct {
	ID      string
	UserID  string
	Day     ledger.Day
	Checked []bool
	Scored  ChecklistScore
}

// AllChecked reports whether every checklist item is ticked.
func (c *ChecklistDay) AllChecked() bool {
	if c == nil || len(c.Checked) == 0 {
		return false
	}
	for _, v := range c.Checked {
		if !v {
			return false
		}
	}
	return true
}

// BreathDay counts completed breathing sessions for one day. Scored flips
// true permanently when the third session triggers the award.
type BreathDay struct {
	ID     string
	UserID string
	Day    ledger.Day
	Count  int
	Scored bool
}
