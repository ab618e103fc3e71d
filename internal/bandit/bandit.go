package bandit

import "math/rand"

// Context carries the bar-local features observed alongside each
// selection. The exploitation branch does not condition on it yet; it is
// recorded so a contextual reward model can be dropped in later without
// changing the call sites.
type Context struct {
	Hour       int
	Volatility float64
}

// ArmStats is the observable state of one strategy arm.
type ArmStats struct {
	Count     int
	AvgReward float64
}

// EpsilonGreedy arbitrates between strategies: with probability epsilon it
// explores uniformly, otherwise it exploits the best running average
// reward. Unobserved arms carry a neutral 0.5 prior; ties go to the first
// strategy in the configured order.
type EpsilonGreedy struct {
	strategies []string
	epsilon    float64
	sums       map[string]float64
	counts     map[string]int
	rng        *rand.Rand
}

// New builds a bandit over the given strategy order. The RNG is injected
// so a seeded run reproduces its exploration decisions exactly.
func New(strategies []string, epsilon float64, rng *rand.Rand) *EpsilonGreedy {
	b := &EpsilonGreedy{
		strategies: strategies,
		epsilon:    epsilon,
		sums:       make(map[string]float64, len(strategies)),
		counts:     make(map[string]int, len(strategies)),
		rng:        rng,
	}
	return b
}

// SelectStrategy picks the next strategy to trust.
func (b *EpsilonGreedy) SelectStrategy(_ Context) string {
	if b.rng.Float64() < b.epsilon {
		return b.strategies[b.rng.Intn(len(b.strategies))]
	}

	best := b.strategies[0]
	bestAvg := b.avgReward(best)
	for _, s := range b.strategies[1:] {
		if avg := b.avgReward(s); avg > bestAvg {
			best = s
			bestAvg = avg
		}
	}
	return best
}

// Update records a resolved reward for the given strategy. Rewards must
// only be reported after the trade outcome is known.
func (b *EpsilonGreedy) Update(strategy string, reward float64) {
	b.sums[strategy] += reward
	b.counts[strategy]++
}

// Stats returns per-arm observation counts and running averages.
func (b *EpsilonGreedy) Stats() map[string]ArmStats {
	out := make(map[string]ArmStats, len(b.strategies))
	for _, s := range b.strategies {
		out[s] = ArmStats{Count: b.counts[s], AvgReward: b.avgReward(s)}
	}
	return out
}

func (b *EpsilonGreedy) avgReward(strategy string) float64 {
	n := b.counts[strategy]
	if n == 0 {
		return 0.5
	}
	return b.sums[strategy] / float64(n)
}
