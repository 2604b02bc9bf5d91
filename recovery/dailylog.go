/*
dailylog.go - Daily log engine

PURPOSE:
  Owns the one-entry-per-user-per-day invariant and is the sole producer
  of clean-day / use-day ledger entries.

STATE MACHINE (per user, per day):
  unset -> set. The first submission creates the log and its award in one
  atomic unit. A re-submission may correct the log's fields but finds the
  existing award (by its daily idempotency key) and returns
  alreadyLogged=true without creating a second one.

JOURNAL SUB-FLOW:
  Journal and mood are a separate, independently idempotent flow, editable
  only for the current calendar date. The +1 award fires on the first
  empty -> non-empty transition of the day, keyed on (user, day), no
  matter how many times the text is edited afterwards.

STREAK MAINTENANCE:
  After a clean-day award, the consecutive-clean run ending on the logged
  day is recomputed by walking logs backward until a use day or a calendar
  gap. If it beats the cached longest streak, the cache is updated. This
  is read-then-conditional-write and may briefly under-count under
  concurrent submits for the same user; it is a display cache, not a
  ledger input.
*/
package recovery

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleanslate/tracker/ledger"
)

// =============================================================================
// ENGINE
// =============================================================================

type DailyLogEngine struct {
	Store Store
}

func NewDailyLogEngine(store Store) *DailyLogEngine {
	return &DailyLogEngine{Store: store}
}

// SubmitInput is one day's clean/use report.
type SubmitInput struct {
	Day         ledger.Day
	Used        bool
	Context     string
	Paid        bool
	AmountCents int64
}

// =============================================================================
// SUBMIT - Idempotent daily award
// =============================================================================

// Submit records the day's status and awards points exactly once.
// Returns alreadyLogged=true when an award for this day's log already
// exists; the log fields are still updated (correction is allowed, the
// award is not re-run).
func (e *DailyLogEngine) Submit(ctx context.Context, userID string, in SubmitInput) (log *DailyLog, alreadyLogged bool, err error) {
	if in.Day.IsZero() {
		in.Day = ledger.Today()
	}
	if in.AmountCents < 0 {
		return nil, false, &ValidationError{Field: "amountCents", Message: "must not be negative"}
	}

	err = e.Store.WithTx(ctx, func(tx Store) error {
		user, uerr := tx.GetUser(ctx, userID)
		if uerr != nil {
			return uerr
		}
		if user == nil {
			return ErrUserNotFound
		}

		now := time.Now().UTC()
		existing, gerr := tx.GetDailyLog(ctx, userID, in.Day)
		if gerr != nil {
			return gerr
		}

		if existing != nil {
			existing.Used = in.Used
			existing.Context = in.Context
			existing.Paid = in.Used && in.Paid
			if existing.Paid {
				existing.AmountCents = in.AmountCents
			} else {
				existing.AmountCents = 0
			}
			existing.UpdatedAt = now
			if serr := tx.SaveDailyLog(ctx, *existing); serr != nil {
				return serr
			}
			log = existing

			// Gate on the daily award key, not on any entry referencing the
			// log: the journal +1 references the same log and must not
			// suppress the daily award.
			awarded, herr := tx.TransactionExists(ctx, dailyAwardKey(userID, in.Day))
			if herr != nil {
				return herr
			}
			if awarded {
				alreadyLogged = true
				return nil
			}
		} else {
			fresh := DailyLog{
				ID:        uuid.NewString(),
				UserID:    userID,
				Day:       in.Day,
				Used:      in.Used,
				Context:   in.Context,
				Paid:      in.Used && in.Paid,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if fresh.Paid {
				fresh.AmountCents = in.AmountCents
			}
			if serr := tx.SaveDailyLog(ctx, fresh); serr != nil {
				return serr
			}
			log = &fresh
		}

		if aerr := e.award(ctx, tx, user, log); aerr != nil {
			return aerr
		}

		if !log.Used {
			if serr := e.refreshLongestStreak(ctx, tx, user, log.Day); serr != nil {
				return serr
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return log, alreadyLogged, nil
}

// award appends the clean/use-day entries for a log that has none yet.
func (e *DailyLogEngine) award(ctx context.Context, tx Store, user *User, log *DailyLog) error {
	led := ledger.New(tx)
	now := time.Now().UTC()

	if !log.Used {
		if err := led.Append(ctx, ledger.Transaction{
			ID:             uuid.NewString(),
			UserID:         user.ID,
			Points:         PointsCleanDay,
			Type:           ledger.TxEarn,
			Note:           NoteCleanDay,
			Day:            log.Day,
			RelatedLogID:   log.ID,
			IdempotencyKey: dailyAwardKey(user.ID, log.Day),
			CreatedAt:      now,
		}); err != nil {
			return err
		}
		perDay := ledger.PerDaySavedCents(user.WeeklySpendCents)
		if perDay > 0 {
			return led.AppendMoney(ctx, ledger.MoneyEvent{
				ID:             uuid.NewString(),
				UserID:         user.ID,
				AmountCents:    perDay,
				Type:           ledger.MoneySaved,
				Note:           NoteCleanDaySavings,
				Day:            log.Day,
				RelatedLogID:   log.ID,
				IdempotencyKey: savingsEventKey(user.ID, log.Day),
				CreatedAt:      now,
			})
		}
		return nil
	}

	if err := led.Append(ctx, ledger.Transaction{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		Points:         PointsUseDay,
		Type:           ledger.TxDeduct,
		Note:           NoteUseDay,
		Day:            log.Day,
		RelatedLogID:   log.ID,
		IdempotencyKey: dailyAwardKey(user.ID, log.Day),
		CreatedAt:      now,
	}); err != nil {
		return err
	}
	if log.Paid && log.AmountCents > 0 {
		return led.AppendMoney(ctx, ledger.MoneyEvent{
			ID:             uuid.NewString(),
			UserID:         user.ID,
			AmountCents:    -log.AmountCents,
			Type:           ledger.MoneySpent,
			Note:           NoteUseDaySpend,
			Day:            log.Day,
			RelatedLogID:   log.ID,
			IdempotencyKey: savingsEventKey(user.ID, log.Day),
			CreatedAt:      now,
		})
	}
	return nil
}

// =============================================================================
// STREAK
// =============================================================================

// refreshLongestStreak recomputes the consecutive-clean run ending at day
// and bumps the cached longest streak if beaten. A use day or a missing
// calendar date terminates the run.
func (e *DailyLogEngine) refreshLongestStreak(ctx context.Context, tx Store, user *User, day ledger.Day) error {
	logs, err := tx.ListDailyLogs(ctx, user.ID)
	if err != nil {
		return err
	}

	run := 0
	expect := day
	for _, l := range logs {
		if l.Day.After(expect) {
			continue
		}
		if !l.Day.Equal(expect) {
			break // gap
		}
		if l.Used {
			break
		}
		run++
		expect = expect.AddDays(-1)
	}

	if run > user.LongestStreakDays {
		user.LongestStreakDays = run
		return tx.SaveUser(ctx, *user)
	}
	return nil
}

// CurrentStreak derives the consecutive-clean run ending today (or
// yesterday, when today is not yet logged).
func (e *DailyLogEngine) CurrentStreak(ctx context.Context, userID string, today ledger.Day) (int, error) {
	logs, err := e.Store.ListDailyLogs(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(logs) == 0 {
		return 0, nil
	}

	expect := today
	if !logs[0].Day.Equal(today) {
		expect = today.AddDays(-1)
	}

	run := 0
	for _, l := range logs {
		if l.Day.After(expect) {
			continue
		}
		if !l.Day.Equal(expect) || l.Used {
			break
		}
		run++
		expect = expect.AddDays(-1)
	}
	return run, nil
}

// History returns the user's daily logs, newest first.
func (e *DailyLogEngine) History(ctx context.Context, userID string) ([]DailyLog, error) {
	return e.Store.ListDailyLogs(ctx, userID)
}

// LogFor returns the log for one day, or nil.
func (e *DailyLogEngine) LogFor(ctx context.Context, userID string, day ledger.Day) (*DailyLog, error) {
	return e.Store.GetDailyLog(ctx, userID, day)
}

// =============================================================================
// JOURNAL SUB-FLOW
// =============================================================================

// JournalInput carries the editable journal fields. Nil means "leave as is"
// is not supported: the client sends the full current state, as the
// presentation layer holds the text box.
type JournalInput struct {
	Journal string
	Mood    int // 1-5, 0 clears
}

// UpsertJournal writes today's journal/mood and awards +1 on the first
// empty -> non-empty transition of the day. Editing is rejected for any
// day other than today.
func (e *DailyLogEngine) UpsertJournal(ctx context.Context, userID string, day, today ledger.Day, in JournalInput) (log *DailyLog, awarded bool, err error) {
	if day.IsZero() {
		day = today
	}
	if !day.Equal(today) {
		return nil, false, ErrNotToday
	}
	if in.Mood < 0 || in.Mood > 5 {
		return nil, false, &ValidationError{Field: "mood", Message: "must be between 1 and 5"}
	}

	err = e.Store.WithTx(ctx, func(tx Store) error {
		now := time.Now().UTC()
		existing, gerr := tx.GetDailyLog(ctx, userID, day)
		if gerr != nil {
			return gerr
		}

		wasEmpty := !existing.HasJournal()
		hasContent := strings.TrimSpace(in.Journal) != ""

		if existing != nil {
			existing.Journal = in.Journal
			existing.Mood = in.Mood
			existing.UpdatedAt = now
			if serr := tx.SaveDailyLog(ctx, *existing); serr != nil {
				return serr
			}
			log = existing
		} else {
			fresh := DailyLog{
				ID:        uuid.NewString(),
				UserID:    userID,
				Day:       day,
				Journal:   in.Journal,
				Mood:      in.Mood,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if serr := tx.SaveDailyLog(ctx, fresh); serr != nil {
				return serr
			}
			log = &fresh
		}

		// The award is keyed on (user, day): later empty -> non-empty
		// transitions the same day hit the key and stay no-ops.
		if wasEmpty && hasContent {
			led := ledger.New(tx)
			aerr := led.Append(ctx, ledger.Transaction{
				ID:             uuid.NewString(),
				UserID:         userID,
				Points:         PointsJournalEntry,
				Type:           ledger.TxEarn,
				Note:           NoteJournalEntry,
				Day:            day,
				RelatedLogID:   log.ID,
				IdempotencyKey: journalAwardKey(userID, day),
				CreatedAt:      now,
			})
			if aerr != nil {
				if ledger.IsDuplicate(aerr) {
					return nil
				}
				return aerr
			}
			awarded = true
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return log, awarded, nil
}

// JournalHistory returns logs that carry journal content, newest first.
func (e *DailyLogEngine) JournalHistory(ctx context.Context, userID string) ([]DailyLog, error) {
	return e.Store.ListJournalLogs(ctx, userID)
}
