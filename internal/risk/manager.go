package risk

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/binarybot/config"
)

// state is the risk manager's daily counter block plus the martingale
// ladder. It is mutated only through UpdateDailyPnL and ResetDailyStats.
type state struct {
	dailyPnL          float64 // in R-multiples
	dailyTrades       int
	martingaleStep    int
	consecutiveLosses int
}

// Manager gates every opportunity and sizes stakes. One Manager belongs to
// exactly one engine or runner; it is not safe for concurrent use and does
// not need to be.
type Manager struct {
	riskPerTrade      float64
	dailyLossLimit    float64 // normalized fraction, negative
	dailyProfitTarget float64 // normalized fraction, positive
	minPayout         float64
	safetyMargin      float64

	martingaleEnabled    bool
	martingaleMultiplier float64
	martingaleMaxSteps   int

	st state
}

// NewManager builds a risk manager from the validated risk config. The
// daily limits are normalized once here: configured values with |v| > 1
// are read as percentages and divided by 100.
func NewManager(cfg config.RiskConfig) *Manager {
	return &Manager{
		riskPerTrade:         cfg.RiskPerTrade,
		dailyLossLimit:       normalizeLimit(cfg.DailyLossLimit),
		dailyProfitTarget:    normalizeLimit(cfg.DailyProfitTarget),
		minPayout:            cfg.MinPayout,
		safetyMargin:         cfg.SafetyMargin,
		martingaleEnabled:    cfg.MartingaleEnabled,
		martingaleMultiplier: cfg.MartingaleMultiplier,
		martingaleMaxSteps:   cfg.MartingaleMaxSteps,
	}
}

// CalculateStake returns the stake for the next trade: the fixed balance
// fraction, escalated by the martingale ladder when it is armed.
func (m *Manager) CalculateStake(balance float64) float64 {
	stake := balance * m.riskPerTrade
	if m.martingaleEnabled && m.st.martingaleStep > 0 {
		stake *= math.Pow(m.martingaleMultiplier, float64(m.st.martingaleStep))
	}
	return stake
}

// ShouldTrade runs the ordered gate checks; the first failing check wins.
// It is deterministic given its inputs and the current daily state, and it
// never returns an error: a rejection is an ordinary result.
func (m *Manager) ShouldTrade(pWin, payout, balance float64) (bool, string) {
	if payout < m.minPayout {
		return false, fmt.Sprintf("payout too low: %.2f < %.2f", payout, m.minPayout)
	}

	pStar := 1 / (1 + payout)
	threshold := pStar + m.safetyMargin
	if pWin <= threshold {
		return false, fmt.Sprintf("below threshold: p_win %.4f <= %.4f", pWin, threshold)
	}

	dailyReturn := m.st.dailyPnL * m.riskPerTrade
	if dailyReturn <= m.dailyLossLimit {
		return false, fmt.Sprintf("daily loss limit reached: %.2fR (%.2f%%)", m.st.dailyPnL, dailyReturn*100)
	}
	if dailyReturn >= m.dailyProfitTarget {
		return false, fmt.Sprintf("daily profit target reached: %.2fR (%.2f%%)", m.st.dailyPnL, dailyReturn*100)
	}

	if stake := m.CalculateStake(balance); stake > balance {
		return false, fmt.Sprintf("insufficient balance: stake %.2f > balance %.2f", stake, balance)
	}

	return true, "OK"
}

// UpdateDailyPnL accumulates a resolved trade's PnL in R-multiples and
// advances the martingale ladder: a loss arms or escalates it up to the
// configured cap, a win (or break-even) resets it.
func (m *Manager) UpdateDailyPnL(pnlR float64) {
	m.st.dailyPnL += pnlR
	m.st.dailyTrades++

	if pnlR < 0 {
		m.st.consecutiveLosses++
		if m.st.martingaleStep < m.martingaleMaxSteps {
			m.st.martingaleStep++
		}
		return
	}
	m.st.consecutiveLosses = 0
	m.st.martingaleStep = 0
}

// ResetDailyStats zeroes the daily counters and the martingale ladder.
// The owner decides when a trading day ends; nothing here resets
// automatically.
func (m *Manager) ResetDailyStats() {
	m.st = state{}
}

// CalculateExpectancy returns the expected value per unit risked:
// p_win*payout - (1-p_win)*1.
func (m *Manager) CalculateExpectancy(pWin, payout float64) float64 {
	return pWin*payout - (1-pWin)*1.0
}

// DailyPnL returns the accumulated daily PnL in R-multiples.
func (m *Manager) DailyPnL() float64 { return m.st.dailyPnL }

// DailyTrades returns the number of trades resolved today.
func (m *Manager) DailyTrades() int { return m.st.dailyTrades }

// MartingaleStep returns the current ladder position.
func (m *Manager) MartingaleStep() int { return m.st.martingaleStep }

// ConsecutiveLosses returns the current losing streak length.
func (m *Manager) ConsecutiveLosses() int { return m.st.consecutiveLosses }

// normalizeLimit reads |v| > 1 as a percentage.
func normalizeLimit(v float64) float64 {
	if math.Abs(v) > 1 {
		return v / 100
	}
	return v
}
