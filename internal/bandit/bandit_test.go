package bandit_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/binarybot/internal/bandit"
)

var arms = []string{"trend", "meanrev", "breakout"}

func newGreedy(epsilon float64) *bandit.EpsilonGreedy {
	return bandit.New(arms, epsilon, rand.New(rand.NewSource(1)))
}

func TestEpsilonGreedy_ColdStartPicksFirst(t *testing.T) {
	b := newGreedy(0)

	// All arms sit on the neutral prior; the configured order breaks the tie.
	for i := 0; i < 10; i++ {
		assert.Equal(t, "trend", b.SelectStrategy(bandit.Context{}))
	}
}

func TestEpsilonGreedy_ExploitsBestArm(t *testing.T) {
	b := newGreedy(0)

	b.Update("trend", 0)
	b.Update("trend", 0)
	b.Update("meanrev", 1)
	b.Update("meanrev", 1)
	b.Update("breakout", 1)
	b.Update("breakout", 0)

	assert.Equal(t, "meanrev", b.SelectStrategy(bandit.Context{}))
}

func TestEpsilonGreedy_NeutralPriorBeatsLosingArm(t *testing.T) {
	b := newGreedy(0)

	// trend observed at 0.0, the others unobserved at the 0.5 prior:
	// meanrev wins as the first unobserved arm.
	b.Update("trend", 0)
	assert.Equal(t, "meanrev", b.SelectStrategy(bandit.Context{}))
}

func TestEpsilonGreedy_TieGoesToConfiguredOrder(t *testing.T) {
	b := newGreedy(0)

	b.Update("trend", 1)
	b.Update("trend", 0)
	b.Update("breakout", 1)
	b.Update("breakout", 0)

	// trend and breakout both at 0.5, same as meanrev's prior.
	assert.Equal(t, "trend", b.SelectStrategy(bandit.Context{}))
}

func TestEpsilonGreedy_AlwaysExplores(t *testing.T) {
	b := newGreedy(1)

	// Make one arm clearly best; with epsilon=1 every pick is uniform and
	// the losing arms must still appear.
	for i := 0; i < 20; i++ {
		b.Update("trend", 1)
	}

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		name := b.SelectStrategy(bandit.Context{})
		assert.Contains(t, arms, name)
		seen[name] = true
	}
	assert.Len(t, seen, 3)
}

func TestEpsilonGreedy_SeededDeterminism(t *testing.T) {
	a := bandit.New(arms, 0.3, rand.New(rand.NewSource(7)))
	b := bandit.New(arms, 0.3, rand.New(rand.NewSource(7)))

	for i := 0; i < 100; i++ {
		nameA := a.SelectStrategy(bandit.Context{Hour: i % 24})
		nameB := b.SelectStrategy(bandit.Context{Hour: i % 24})
		require.Equal(t, nameA, nameB, "selection %d diverged", i)

		reward := float64(i % 2)
		a.Update(nameA, reward)
		b.Update(nameB, reward)
	}
}

func TestEpsilonGreedy_Stats(t *testing.T) {
	b := newGreedy(0)

	b.Update("trend", 1)
	b.Update("trend", 0)
	b.Update("trend", 1)

	stats := b.Stats()
	require.Len(t, stats, 3)

	assert.Equal(t, 3, stats["trend"].Count)
	assert.InDelta(t, 2.0/3.0, stats["trend"].AvgReward, 1e-9)

	// Unobserved arms report the neutral prior.
	assert.Zero(t, stats["meanrev"].Count)
	assert.InDelta(t, 0.5, stats["meanrev"].AvgReward, 1e-9)
}
