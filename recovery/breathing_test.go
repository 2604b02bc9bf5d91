package recovery_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanslate/tracker/ledger"
	"github.com/cleanslate/tracker/recovery"
)

func TestBreathing_ThirdSessionAwards(t *testing.T) {
	// GIVEN: Two completed sessions today
	// WHEN: Completing the third and fourth
	// THEN: The third fires the +1, the fourth only counts

	store := newTestStore(t)
	breathing := recovery.NewBreathing(store)
	ctx := context.Background()
	user := seedUser(t, store, 0)
	today := ledger.Today()

	for i := 1; i <= 2; i++ {
		row, awarded, err := breathing.Record(ctx, user.ID, today)
		require.NoError(t, err)
		assert.Equal(t, i, row.Count)
		assert.False(t, awarded)
	}
	assert.Equal(t, 0, balance(t, store, user.ID))

	row, awarded, err := breathing.Record(ctx, user.ID, today)
	require.NoError(t, err)
	assert.True(t, awarded)
	assert.True(t, row.Scored)
	assert.Equal(t, 3, row.Count)
	assert.Equal(t, 1, balance(t, store, user.ID))

	row, awarded, err = breathing.Record(ctx, user.ID, today)
	require.NoError(t, err)
	assert.False(t, awarded)
	assert.Equal(t, 4, row.Count)
	assert.Equal(t, 1, balance(t, store, user.ID))
}

func TestBreathing_SeparateDays_SeparateAwards(t *testing.T) {
	// The award is per day: three sessions yesterday and three today earn
	// one point each.

	store := newTestStore(t)
	breathing := recovery.NewBreathing(store)
	ctx := context.Background()
	user := seedUser(t, store, 0)
	today := ledger.Today()

	for i := 0; i < 3; i++ {
		_, _, err := breathing.Record(ctx, user.ID, today.AddDays(-1))
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, _, err := breathing.Record(ctx, user.ID, today)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, balance(t, store, user.ID))
}

func TestBreathing_Status_ZeroForFreshDay(t *testing.T) {
	store := newTestStore(t)
	breathing := recovery.NewBreathing(store)
	user := seedUser(t, store, 0)

	row, err := breathing.Status(context.Background(), user.ID, ledger.Today())
	require.NoError(t, err)
	assert.Equal(t, 0, row.Count)
	assert.False(t, row.Scored)
}
