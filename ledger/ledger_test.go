package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanslate/tracker/ledger"
	"github.com/cleanslate/tracker/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger() *ledger.Ledger {
	return ledger.New(store.NewMemory())
}

func earnTx(userID string, points int, day ledger.Day, key string) ledger.Transaction {
	txType := ledger.TxEarn
	if points < 0 {
		txType = ledger.TxDeduct
	}
	return ledger.Transaction{
		ID:             key + "-id",
		UserID:         userID,
		Points:         points,
		Type:           txType,
		Day:            day,
		IdempotencyKey: key,
		CreatedAt:      time.Now().UTC(),
	}
}

func day(s string) ledger.Day {
	d, err := ledger.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =============================================================================
// IDEMPOTENCY TESTS
// =============================================================================

func TestLedger_DuplicateKey_Rejected(t *testing.T) {
	// GIVEN: An award with key "daily:u1:2025-03-10" already appended
	// WHEN: Appending a second entry with the same key
	// THEN: The append is rejected and the balance is unchanged

	led := newTestLedger()
	ctx := context.Background()

	err := led.Append(ctx, earnTx("u1", 10, day("2025-03-10"), "daily:u1:2025-03-10"))
	require.NoError(t, err)

	err = led.Append(ctx, earnTx("u1", 10, day("2025-03-10"), "daily:u1:2025-03-10"))
	assert.Error(t, err, "duplicate key should be rejected")
	assert.True(t, ledger.IsDuplicate(err))

	var dupErr *ledger.DuplicateAwardError
	assert.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "daily:u1:2025-03-10", dupErr.IdempotencyKey)

	balance, err := led.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, balance, "retry must not double-count")
}

func TestLedger_DifferentKeys_BothCount(t *testing.T) {
	// GIVEN: A clean-day award for March 10
	// WHEN: Appending a journal award for the same day (different key)
	// THEN: Both entries count toward the balance

	led := newTestLedger()
	ctx := context.Background()

	require.NoError(t, led.Append(ctx, earnTx("u1", 10, day("2025-03-10"), "daily:u1:2025-03-10")))
	require.NoError(t, led.Append(ctx, earnTx("u1", 1, day("2025-03-10"), "journal:u1:2025-03-10")))

	balance, err := led.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 11, balance)
}

func TestLedger_MoneyDuplicateKey_Rejected(t *testing.T) {
	led := newTestLedger()
	ctx := context.Background()

	ev := ledger.MoneyEvent{
		ID:             "m1",
		UserID:         "u1",
		AmountCents:    500,
		Type:           ledger.MoneySaved,
		Day:            day("2025-03-10"),
		IdempotencyKey: "money:u1:2025-03-10",
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, led.AppendMoney(ctx, ev))

	ev.ID = "m2"
	err := led.AppendMoney(ctx, ev)
	assert.Error(t, err, "duplicate money key should be rejected")
}

// =============================================================================
// BALANCE DERIVATION TESTS
// =============================================================================

func TestSummarize_BalanceIsSumOfHistory(t *testing.T) {
	// GIVEN: A mix of earns, deductions, and a spend
	// WHEN: Summarizing
	// THEN: balance == sum(points), earned/spent split by sign

	txs := []ledger.Transaction{
		earnTx("u1", 10, day("2025-03-10"), "k1"),
		earnTx("u1", 10, day("2025-03-11"), "k2"),
		earnTx("u1", -20, day("2025-03-12"), "k3"),
		earnTx("u1", 1, day("2025-03-12"), "k4"),
	}

	sum := ledger.Summarize(txs)
	assert.Equal(t, 1, sum.Balance)
	assert.Equal(t, 21, sum.Earned)
	assert.Equal(t, 20, sum.Spent)
}

func TestSummarize_Empty(t *testing.T) {
	sum := ledger.Summarize(nil)
	assert.Equal(t, 0, sum.Balance)
	assert.Equal(t, 0, sum.Earned)
	assert.Equal(t, 0, sum.Spent)
}

func TestSummarizeMoney_NetIsSavedMinusSpent(t *testing.T) {
	evs := []ledger.MoneyEvent{
		{AmountCents: 700, Type: ledger.MoneySaved},
		{AmountCents: 700, Type: ledger.MoneySaved},
		{AmountCents: -1000, Type: ledger.MoneySpent},
	}
	sum := ledger.SummarizeMoney(evs)
	assert.Equal(t, int64(1400), sum.SavedCents)
	assert.Equal(t, int64(1000), sum.SpentCents)
	assert.Equal(t, int64(400), sum.NetCents)
}

func TestPerDaySavedCents(t *testing.T) {
	// Weekly spend divided over seven days, rounded to the nearest cent.
	assert.Equal(t, int64(1000), ledger.PerDaySavedCents(7000))
	assert.Equal(t, int64(1429), ledger.PerDaySavedCents(10000))
	assert.Equal(t, int64(0), ledger.PerDaySavedCents(0))
}

// =============================================================================
// DAY TESTS
// =============================================================================

func TestDay_ParseAndFormat(t *testing.T) {
	d, err := ledger.ParseDay("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", d.String())

	_, err = ledger.ParseDay("10/03/2025")
	assert.Error(t, err)
}

func TestDay_Arithmetic(t *testing.T) {
	d := day("2025-03-10")
	assert.Equal(t, "2025-03-11", d.AddDays(1).String())
	assert.Equal(t, "2025-03-09", d.AddDays(-1).String())
	assert.True(t, day("2025-03-09").Before(d))
	assert.True(t, day("2025-03-11").After(d))
	assert.Equal(t, 3, d.AddDays(3).DaysSince(d))
}

func TestDayOf_TruncatesToMidnightUTC(t *testing.T) {
	at := time.Date(2025, time.March, 10, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "2025-03-10", ledger.DayOf(at).String())
}
