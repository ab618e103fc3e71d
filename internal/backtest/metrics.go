package backtest

import "github.com/alejandrodnm/binarybot/internal/domain"

// computeMetrics aggregates the run. All keys are present even for a run
// with zero trades, so reports never have to guard against missing keys.
func computeMetrics(trades []domain.Trade, equity []float64, initialBalance float64) map[string]float64 {
	m := map[string]float64{
		"total_trades": float64(len(trades)),
		"wins":         0,
		"losses":       0,
		"win_rate":     0,
		"total_profit": 0,
		"avg_profit":   0,
		"expectancy":   0,
		"max_drawdown": maxDrawdown(equity),
		"brier_score":  0,
		"total_return": 0,
		"final_balance": func() float64 {
			if len(equity) == 0 {
				return initialBalance
			}
			return equity[len(equity)-1]
		}(),
	}
	if initialBalance > 0 {
		m["total_return"] = (m["final_balance"] - initialBalance) / initialBalance
	}
	if len(trades) == 0 {
		return m
	}

	var wins, losses int
	var totalProfit, sumWin, sumLoss, brier float64
	for _, t := range trades {
		totalProfit += t.Profit
		outcome := 0.0
		if t.Result == domain.ResultWin {
			outcome = 1.0
			wins++
			sumWin += t.Profit
		} else {
			losses++
			sumLoss += -t.Profit
		}
		brier += (t.PWin - outcome) * (t.PWin - outcome)
	}

	n := float64(len(trades))
	winRate := float64(wins) / n

	m["wins"] = float64(wins)
	m["losses"] = float64(losses)
	m["win_rate"] = winRate
	m["total_profit"] = totalProfit
	m["avg_profit"] = totalProfit / n
	m["brier_score"] = brier / n

	// Empirical expectancy in currency units per trade:
	// win_rate*avgWin - loss_rate*avgLoss.
	var avgWin, avgLoss float64
	if wins > 0 {
		avgWin = sumWin / float64(wins)
	}
	if losses > 0 {
		avgLoss = sumLoss / float64(losses)
	}
	m["expectancy"] = winRate*avgWin - (1-winRate)*avgLoss

	return m
}

// maxDrawdown returns the deepest peak-to-trough decline of the equity
// curve: the minimum of (equity - running_max) / running_max, so zero or
// negative.
func maxDrawdown(equity []float64) float64 {
	var peak, dd float64
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if d := (v - peak) / peak; d < dd {
				dd = d
			}
		}
	}
	return dd
}
