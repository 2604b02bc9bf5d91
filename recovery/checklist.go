/*
checklist.go - Daily habit checklist with lazy midnight settlement

PURPOSE:
  A fixed set of small environment-design habits ("make it obvious").
  Ticking every item earns +1 once per day; a day that ends incomplete
  costs -5, also once per day.

NO SERVER TIMERS:
  Nothing fires at midnight. Settlement is lazy and date-keyed: any
  checklist read or write first settles every elapsed unscored day, then
  acts on the requested day. A day the user never opened the checklist
  has no row and is not penalized - engagement creates the row, and only
  rows get settled. Correctness never depends on a live client clock.

SOURCE OF TRUTH:
  The per-(user, day) row here is authoritative across devices; any
  client-side copy is a cache.
*/
package recovery

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cleanslate/tracker/ledger"
)

// =============================================================================
// ITEMS
// =============================================================================

// ChecklistItem is one habit prompt. The set is fixed; per-day state is a
// []bool indexed the same way.
type ChecklistItem struct {
	ID          string
	Title       string
	Description string
	Category    string
}

var ChecklistItems = []ChecklistItem{
	{ID: "env-water-visible", Title: "Water visible", Description: "Fill a water bottle and keep it in your line of sight.", Category: "Environment"},
	{ID: "env-tidy-up", Title: "Tidy up", Description: "Clean a part of the house, even though you don't have to.", Category: "Environment"},
	{ID: "nutrition-snack", Title: "Healthy snack out", Description: "Put a healthy snack where you'll see it first.", Category: "Nutrition"},
	{ID: "sleep-winddown", Title: "Wind-down cue", Description: "Set up tomorrow's wind-down: screens away, lights low.", Category: "Sleep"},
	{ID: "social-checkin", Title: "Check in", Description: "Message someone who supports you.", Category: "Social"},
	{ID: "play-music", Title: "Play music", Description: "Queue something that lifts you instead of numbing you.", Category: "Music"},
}

// =============================================================================
// ENGINE
// =============================================================================

type Checklist struct {
	Store Store
}

func NewChecklist(store Store) *Checklist {
	return &Checklist{Store: store}
}

// Status returns the day's checklist row, settling elapsed days first and
// creating today's empty row so the day counts as engaged.
func (c *Checklist) Status(ctx context.Context, userID string, day ledger.Day) (*ChecklistDay, error) {
	var out *ChecklistDay
	err := c.Store.WithTx(ctx, func(tx Store) error {
		if serr := c.settle(ctx, tx, userID, day); serr != nil {
			return serr
		}
		row, gerr := tx.GetChecklistDay(ctx, userID, day)
		if gerr != nil {
			return gerr
		}
		if row == nil {
			fresh := ChecklistDay{
				ID:      uuid.NewString(),
				UserID:  userID,
				Day:     day,
				Checked: make([]bool, len(ChecklistItems)),
			}
			if serr := tx.SaveChecklistDay(ctx, fresh); serr != nil {
				return serr
			}
			row = &fresh
		}
		out = row
		return nil
	})
	return out, err
}

// SetChecked replaces the day's item state. When every item is ticked and
// the day is unscored, the one-time complete award fires in the same unit.
func (c *Checklist) SetChecked(ctx context.Context, userID string, day ledger.Day, checked []bool) (row *ChecklistDay, awarded bool, err error) {
	if len(checked) != len(ChecklistItems) {
		return nil, false, &ValidationError{Field: "checked", Message: "wrong item count"}
	}

	err = c.Store.WithTx(ctx, func(tx Store) error {
		if serr := c.settle(ctx, tx, userID, day); serr != nil {
			return serr
		}

		existing, gerr := tx.GetChecklistDay(ctx, userID, day)
		if gerr != nil {
			return gerr
		}
		if existing == nil {
			existing = &ChecklistDay{
				ID:     uuid.NewString(),
				UserID: userID,
				Day:    day,
			}
		}
		existing.Checked = checked

		if existing.AllChecked() && existing.Scored == ChecklistUnscored {
			if aerr := c.score(ctx, tx, userID, day, ChecklistComplete); aerr != nil {
				return aerr
			}
			existing.Scored = ChecklistComplete
			awarded = true
		}

		if serr := tx.SaveChecklistDay(ctx, *existing); serr != nil {
			return serr
		}
		row = existing
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return row, awarded, nil
}

// settle scores every unscored row before today: all items ticked earns
// the complete award, anything else the missed deduction. Each elapsed
// day is scored exactly once; the (user, day) award key is the backstop.
func (c *Checklist) settle(ctx context.Context, tx Store, userID string, today ledger.Day) error {
	rows, err := tx.ListUnscoredChecklistDays(ctx, userID, today)
	if err != nil {
		return err
	}
	for i := range rows {
		row := rows[i]
		score := ChecklistMissed
		if row.AllChecked() {
			score = ChecklistComplete
		}
		if err := c.score(ctx, tx, userID, row.Day, score); err != nil {
			return err
		}
		row.Scored = score
		if err := tx.SaveChecklistDay(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// score appends the checklist award for one day. A duplicate key means the
// day was already scored elsewhere; that is the desired outcome, not an error.
func (c *Checklist) score(ctx context.Context, tx Store, userID string, day ledger.Day, score ChecklistScore) error {
	points := PointsChecklistMissed
	txType := ledger.TxDeduct
	note := NoteChecklistMissed
	if score == ChecklistComplete {
		points = PointsChecklistComplete
		txType = ledger.TxEarn
		note = NoteChecklistComplete
	}

	led := ledger.New(tx)
	err := led.Append(ctx, ledger.Transaction{
		ID:             uuid.NewString(),
		UserID:         userID,
		Points:         points,
		Type:           txType,
		Note:           note,
		Day:            day,
		IdempotencyKey: checklistAwardKey(userID, day),
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil && !ledger.IsDuplicate(err) {
		return err
	}
	return nil
}

// Score applies an explicit complete/missed result for a day, once. Kept
// for clients that still push the result themselves; the idempotency key
// makes it agree with lazy settlement instead of double-scoring.
func (c *Checklist) Score(ctx context.Context, userID string, day ledger.Day, score ChecklistScore) error {
	if score != ChecklistComplete && score != ChecklistMissed {
		return &ValidationError{Field: "status", Message: "must be complete or missed"}
	}
	return c.Store.WithTx(ctx, func(tx Store) error {
		row, err := tx.GetChecklistDay(ctx, userID, day)
		if err != nil {
			return err
		}
		if row != nil && row.Scored != ChecklistUnscored {
			return nil // already settled
		}
		if err := c.score(ctx, tx, userID, day, score); err != nil {
			return err
		}
		if row == nil {
			row = &ChecklistDay{
				ID:      uuid.NewString(),
				UserID:  userID,
				Day:     day,
				Checked: make([]bool, len(ChecklistItems)),
			}
		}
		row.Scored = score
		return tx.SaveChecklistDay(ctx, *row)
	})
}
