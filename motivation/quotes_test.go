package motivation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanslate/tracker/ledger"
	"github.com/cleanslate/tracker/motivation"
)

func TestForDay_Deterministic(t *testing.T) {
	// The same date always yields the same window, so every device shows
	// the same quotes without coordination.
	d := ledger.NewDay(2025, 3, 10)

	a := motivation.ForDay(d, 6)
	b := motivation.ForDay(d, 6)
	require.Len(t, a, 6)
	assert.Equal(t, a, b)
}

func TestForDay_ShiftsDaily(t *testing.T) {
	a := motivation.ForDay(ledger.NewDay(2025, 3, 10), 6)
	b := motivation.ForDay(ledger.NewDay(2025, 3, 11), 6)
	assert.NotEqual(t, a[0], b[0], "consecutive days start one quote apart")
}

func TestForDay_WrapsAroundPool(t *testing.T) {
	// Requesting more than the pool holds clamps to the pool size, and
	// windows near the end of the pool wrap to the start.
	d := ledger.NewDay(2025, 3, 10)

	all := motivation.ForDay(d, len(motivation.Pool)+10)
	assert.Len(t, all, len(motivation.Pool))

	seen := make(map[string]bool)
	for _, q := range all {
		assert.False(t, seen[q.Text], "no quote repeats within a window")
		seen[q.Text] = true
	}
}

func TestForDay_ZeroCount(t *testing.T) {
	assert.Nil(t, motivation.ForDay(ledger.NewDay(2025, 3, 10), 0))
}

func TestRandom_ReturnsPoolMember(t *testing.T) {
	q := motivation.Random()
	found := false
	for _, p := range motivation.Pool {
		if p == q {
			found = true
			break
		}
	}
	assert.True(t, found)
}
