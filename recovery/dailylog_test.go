package recovery_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanslate/tracker/ledger"
	"github.com/cleanslate/tracker/recovery"
	"github.com/cleanslate/tracker/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) recovery.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedUser(t *testing.T, store recovery.Store, weeklySpendCents int64) recovery.User {
	u := recovery.User{
		ID:               uuid.NewString(),
		Username:         "tester_" + uuid.NewString()[:8],
		WeeklySpendCents: weeklySpendCents,
		StartDate:        time.Now().UTC().AddDate(0, 0, -30),
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, store.SaveUser(context.Background(), u))
	return u
}

func balance(t *testing.T, store recovery.Store, userID string) int {
	sum, err := store.SumPoints(context.Background(), userID)
	require.NoError(t, err)
	return sum
}

func day(s string) ledger.Day {
	d, err := ledger.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =============================================================================
// DAILY AWARD TESTS
// =============================================================================

func TestSubmit_CleanDay_AwardsOnce(t *testing.T) {
	// GIVEN: A user with a $70/week spend estimate
	// WHEN: Submitting a clean day twice
	// THEN: +10 points and one $10 savings event, exactly once

	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	ctx := context.Background()
	user := seedUser(t, store, 7000)

	log, already, err := engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: day("2025-03-10")})
	require.NoError(t, err)
	assert.False(t, already)
	assert.False(t, log.Used)
	assert.Equal(t, 10, balance(t, store, user.ID))

	events, err := store.MoneyEvents(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(1000), events[0].AmountCents)
	assert.Equal(t, ledger.MoneySaved, events[0].Type)

	// Replay: log is returned, nothing is re-awarded.
	_, already, err = engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: day("2025-03-10")})
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, 10, balance(t, store, user.ID))

	events, err = store.MoneyEvents(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSubmit_UseDay_DeductsAndRecordsSpend(t *testing.T) {
	// GIVEN: A user
	// WHEN: Reporting a use day with $15 spent
	// THEN: -20 points and a -1500 cent money event

	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	ctx := context.Background()
	user := seedUser(t, store, 7000)

	log, _, err := engine.Submit(ctx, user.ID, recovery.SubmitInput{
		Day:         day("2025-03-10"),
		Used:        true,
		Context:     "stressful day",
		Paid:        true,
		AmountCents: 1500,
	})
	require.NoError(t, err)
	assert.True(t, log.Used)
	assert.Equal(t, -20, balance(t, store, user.ID))

	events, err := store.MoneyEvents(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(-1500), events[0].AmountCents)
	assert.Equal(t, ledger.MoneySpent, events[0].Type)
}

func TestSubmit_Correction_UpdatesFieldsWithoutReaward(t *testing.T) {
	// GIVEN: A day already logged clean (+10 awarded)
	// WHEN: Resubmitting the same day as a use day
	// THEN: The log fields change, the ledger does not

	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	ctx := context.Background()
	user := seedUser(t, store, 0)

	_, _, err := engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: day("2025-03-10")})
	require.NoError(t, err)
	require.Equal(t, 10, balance(t, store, user.ID))

	log, already, err := engine.Submit(ctx, user.ID, recovery.SubmitInput{
		Day:  day("2025-03-10"),
		Used: true,
	})
	require.NoError(t, err)
	assert.True(t, already)
	assert.True(t, log.Used, "correction should stick")
	assert.Equal(t, 10, balance(t, store, user.ID), "award must not be re-run")
}

func TestSubmit_Concurrent_SingleAward(t *testing.T) {
	// GIVEN: An unlogged day
	// WHEN: Two submits race for it
	// THEN: One +10 lands; the other resolves as already logged

	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	ctx := context.Background()
	user := seedUser(t, store, 0)

	type outcome struct {
		already bool
		err     error
	}
	results := make(chan outcome, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, already, err := engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: day("2025-03-10")})
			results <- outcome{already, err}
		}()
	}
	wg.Wait()
	close(results)

	awarded := 0
	for r := range results {
		require.NoError(t, r.err)
		if !r.already {
			awarded++
		}
	}
	assert.Equal(t, 1, awarded)
	assert.Equal(t, 10, balance(t, store, user.ID))

	txs, err := store.Transactions(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestSubmit_UnknownUser(t *testing.T) {
	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)

	_, _, err := engine.Submit(context.Background(), "nope", recovery.SubmitInput{})
	assert.True(t, errors.Is(err, recovery.ErrUserNotFound))
}

func TestSubmit_NegativeAmount_Rejected(t *testing.T) {
	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	user := seedUser(t, store, 0)

	_, _, err := engine.Submit(context.Background(), user.ID, recovery.SubmitInput{
		Used: true, Paid: true, AmountCents: -5,
	})
	assert.True(t, recovery.IsValidation(err))
}

func TestSubmit_NoSavingsEventWithoutSpendEstimate(t *testing.T) {
	// A user who never set a weekly spend gets points but no money event.
	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	ctx := context.Background()
	user := seedUser(t, store, 0)

	_, _, err := engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: day("2025-03-10")})
	require.NoError(t, err)

	events, err := store.MoneyEvents(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

// =============================================================================
// STREAK TESTS
// =============================================================================

func TestStreak_ConsecutiveCleanDays(t *testing.T) {
	// GIVEN: Three consecutive clean days ending "today"
	// WHEN: Deriving the streak
	// THEN: Current run is 3, cached longest is 3

	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	ctx := context.Background()
	user := seedUser(t, store, 0)

	today := ledger.Today()
	for i := 2; i >= 0; i-- {
		_, _, err := engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: today.AddDays(-i)})
		require.NoError(t, err)
	}

	current, err := engine.CurrentStreak(ctx, user.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 3, current)

	saved, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.LongestStreakDays)
}

func TestStreak_UseDayResets_LongestPreserved(t *testing.T) {
	// GIVEN: 3 clean days, a use day, then 1 clean day ending today
	// THEN: Current streak is 1, longest stays 3

	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	ctx := context.Background()
	user := seedUser(t, store, 0)

	today := ledger.Today()
	for i := 4; i >= 2; i-- {
		_, _, err := engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: today.AddDays(-i)})
		require.NoError(t, err)
	}
	_, _, err := engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: today.AddDays(-1), Used: true})
	require.NoError(t, err)
	_, _, err = engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: today})
	require.NoError(t, err)

	current, err := engine.CurrentStreak(ctx, user.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, current)

	saved, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.LongestStreakDays)
}

func TestStreak_GapBreaksRun(t *testing.T) {
	// An unlogged calendar day terminates the run even with clean days
	// on both sides.

	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	ctx := context.Background()
	user := seedUser(t, store, 0)

	today := ledger.Today()
	_, _, err := engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: today.AddDays(-3)})
	require.NoError(t, err)
	// today-2 unlogged
	_, _, err = engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: today.AddDays(-1)})
	require.NoError(t, err)
	_, _, err = engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: today})
	require.NoError(t, err)

	current, err := engine.CurrentStreak(ctx, user.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 2, current)
}

func TestStreak_TodayUnlogged_CountsFromYesterday(t *testing.T) {
	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	ctx := context.Background()
	user := seedUser(t, store, 0)

	today := ledger.Today()
	_, _, err := engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: today.AddDays(-2)})
	require.NoError(t, err)
	_, _, err = engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: today.AddDays(-1)})
	require.NoError(t, err)

	current, err := engine.CurrentStreak(ctx, user.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 2, current, "yesterday's run survives until today is logged")
}

// =============================================================================
// JOURNAL TESTS
// =============================================================================

func TestJournal_AwardsOncePerDay(t *testing.T) {
	// GIVEN: An empty day
	// WHEN: Writing, editing, clearing, and rewriting today's journal
	// THEN: Exactly one +1 for the day

	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	ctx := context.Background()
	user := seedUser(t, store, 0)
	today := ledger.Today()

	_, awarded, err := engine.UpsertJournal(ctx, user.ID, today, today,
		recovery.JournalInput{Journal: "rough morning, went for a walk", Mood: 3})
	require.NoError(t, err)
	assert.True(t, awarded)
	assert.Equal(t, 1, balance(t, store, user.ID))

	// Edit: no second award.
	_, awarded, err = engine.UpsertJournal(ctx, user.ID, today, today,
		recovery.JournalInput{Journal: "rough morning, went for a long walk", Mood: 4})
	require.NoError(t, err)
	assert.False(t, awarded)

	// Clear then rewrite: the (user, day) key blocks a replay.
	_, _, err = engine.UpsertJournal(ctx, user.ID, today, today, recovery.JournalInput{})
	require.NoError(t, err)
	_, awarded, err = engine.UpsertJournal(ctx, user.ID, today, today,
		recovery.JournalInput{Journal: "again"})
	require.NoError(t, err)
	assert.False(t, awarded)
	assert.Equal(t, 1, balance(t, store, user.ID))
}

func TestJournal_PastDay_Rejected(t *testing.T) {
	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	user := seedUser(t, store, 0)
	today := ledger.Today()

	_, _, err := engine.UpsertJournal(context.Background(), user.ID,
		today.AddDays(-1), today, recovery.JournalInput{Journal: "backfill"})
	assert.True(t, errors.Is(err, recovery.ErrNotToday))
}

func TestJournal_ThenSubmit_BothAward(t *testing.T) {
	// GIVEN: Today journaled first (+1, entry references the log)
	// WHEN: The clean day is submitted afterwards
	// THEN: The daily +10 still fires; total 11

	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	ctx := context.Background()
	user := seedUser(t, store, 0)
	today := ledger.Today()

	_, awarded, err := engine.UpsertJournal(ctx, user.ID, today, today,
		recovery.JournalInput{Journal: "first the journal"})
	require.NoError(t, err)
	require.True(t, awarded)

	log, already, err := engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: today})
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, "first the journal", log.Journal, "journal survives the submit")
	assert.Equal(t, 11, balance(t, store, user.ID))
}

func TestJournal_MoodValidation(t *testing.T) {
	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	user := seedUser(t, store, 0)
	today := ledger.Today()

	_, _, err := engine.UpsertJournal(context.Background(), user.ID, today, today,
		recovery.JournalInput{Journal: "x", Mood: 6})
	assert.True(t, recovery.IsValidation(err))
}

func TestJournalHistory_OnlyEntriesWithContent(t *testing.T) {
	store := newTestStore(t)
	engine := recovery.NewDailyLogEngine(store)
	ctx := context.Background()
	user := seedUser(t, store, 0)
	today := ledger.Today()

	// A bare clean day and a journaled day.
	_, _, err := engine.Submit(ctx, user.ID, recovery.SubmitInput{Day: today.AddDays(-1)})
	require.NoError(t, err)
	_, _, err = engine.UpsertJournal(ctx, user.ID, today, today,
		recovery.JournalInput{Journal: "kept busy"})
	require.NoError(t, err)

	history, err := engine.JournalHistory(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, today.String(), history[0].Day.String())
}
