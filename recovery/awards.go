/*
awards.go - The event -> points policy table

PURPOSE:
  One place that says what each qualifying event is worth and what its
  natural idempotency key is. Every award is produced by appending exactly
  one ledger row under that key; replaying the event is a no-op.

POLICY:
  Clean day logged        +10   one per (user, day)
  Use day logged          -20   one per (user, day)
  First journal of day     +1   one per (user, day)
  Checklist complete       +1   one per (user, day)
  Checklist missed         -5   one per (user, day)
  Breathing 3rd session    +1   one per (user, day)
  Prize purchase    -costPoints one per purchase
  Admin override   desired-cur  one per admin action
*/
package recovery

import "fmt"

// =============================================================================
// AWARD VALUES
// =============================================================================

const (
	PointsCleanDay          = 10
	PointsUseDay            = -20
	PointsJournalEntry      = 1
	PointsChecklistComplete = 1
	PointsChecklistMissed   = -5
	PointsBreathingScored   = 1
)

// BreathSessionsToScore is how many breathing sessions in one day earn
// the daily breathing award.
const BreathSessionsToScore = 3

// =============================================================================
// AWARD NOTES - Ledger row descriptions shown in the bank history
// =============================================================================

const (
	NoteCleanDay          = "Clean day"
	NoteUseDay            = "Use day"
	NoteCleanDaySavings   = "Clean day savings"
	NoteUseDaySpend       = "Use day spend"
	NoteJournalEntry      = "Journal entry (+1)"
	NoteChecklistComplete = "Checklist complete (+1)"
	NoteChecklistMissed   = "Checklist missed (-5)"
	NoteBreathingScored   = "Breathing complete (+1)"
)

// =============================================================================
// IDEMPOTENCY KEYS - Natural keys that make each award fire exactly once
// =============================================================================

func dailyAwardKey(userID string, day fmt.Stringer) string {
	return fmt.Sprintf("daily:%s:%s", userID, day)
}

func journalAwardKey(userID string, day fmt.Stringer) string {
	return fmt.Sprintf("journal:%s:%s", userID, day)
}

func checklistAwardKey(userID string, day fmt.Stringer) string {
	return fmt.Sprintf("checklist:%s:%s", userID, day)
}

func breathAwardKey(userID string, day fmt.Stringer) string {
	return fmt.Sprintf("breath:%s:%s", userID, day)
}

func purchaseAwardKey(purchaseID string) string {
	return fmt.Sprintf("purchase:%s", purchaseID)
}

func savingsEventKey(userID string, day fmt.Stringer) string {
	return fmt.Sprintf("money:%s:%s", userID, day)
}
