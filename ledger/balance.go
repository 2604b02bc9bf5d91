/*
balance.go - Balance and savings derivation

PURPOSE:
  Answers "what is my balance / savings now?" by folding over ledger
  entries. Pure functions with no side effects: the same entries always
  produce the same summary, so the summary can never drift from history.

COMPONENTS:
  Summary:      balance = sum(points), earned = sum(points > 0),
                spent = sum(|points| where points < 0)
  MoneySummary: saved = sum(cents > 0), spent = sum(|cents| < 0),
                net = saved - spent

PER-DAY SAVINGS:
  A clean day saves an estimated weeklySpendCents / 7, rounded to the
  nearest cent. decimal is used for the division so rounding is exact
  and never subject to float drift.
*/
package ledger

import "github.com/shopspring/decimal"

// =============================================================================
// POINT SUMMARY
// =============================================================================

// Summary is the derived state of a user's point ledger.
type Summary struct {
	Balance int
	Earned  int
	Spent   int
}

// Summarize folds point entries into a Summary.
func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		s.Balance += tx.Points
		if tx.Points > 0 {
			s.Earned += tx.Points
		} else if tx.Points < 0 {
			s.Spent += -tx.Points
		}
	}
	return s
}

// =============================================================================
// MONEY SUMMARY
// =============================================================================

// MoneySummary is the derived state of a user's money ledger, in cents.
type MoneySummary struct {
	SavedCents int64
	SpentCents int64
	NetCents   int64
}

// SummarizeMoney folds money entries into a MoneySummary.
func SummarizeMoney(events []MoneyEvent) MoneySummary {
	var s MoneySummary
	for _, ev := range events {
		if ev.AmountCents > 0 {
			s.SavedCents += ev.AmountCents
		} else if ev.AmountCents < 0 {
			s.SpentCents += -ev.AmountCents
		}
	}
	s.NetCents = s.SavedCents - s.SpentCents
	return s
}

// =============================================================================
// SAVINGS MATH
// =============================================================================

// PerDaySavedCents estimates the cents saved by one clean day from a weekly
// spend estimate: weekly / 7, rounded to the nearest cent.
func PerDaySavedCents(weeklySpendCents int64) int64 {
	if weeklySpendCents <= 0 {
		return 0
	}
	return decimal.NewFromInt(weeklySpendCents).
		Div(decimal.NewFromInt(7)).
		Round(0).
		IntPart()
}

// FormatCents renders cents as a dollar string, e.g. 1950 -> "19.50".
func FormatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
