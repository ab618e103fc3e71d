package strategy

import (
	"github.com/alejandrodnm/binarybot/config"
	"github.com/alejandrodnm/binarybot/internal/domain"
)

// SignalStrategy produces an optional directional signal from bar history.
// Implementations must only read bars[0..idx] and must not mutate the
// history; the engine relies on this for causality.
type SignalStrategy interface {
	// GenerateSignal returns nil when there is insufficient lookback or no
	// entry condition is met on the bar at idx.
	GenerateSignal(bars []domain.Bar, idx int) *domain.Signal
	Name() string
}

// Build instantiates the enabled strategies in fixed precedence order:
// trend, meanrev, breakout. The order doubles as the deterministic
// tie-break for signal arbitration.
func Build(cfg *config.Config) []SignalStrategy {
	var out []SignalStrategy
	if cfg.Strategies.Trend.Enabled {
		out = append(out, NewTrend(cfg.Strategies.Trend))
	}
	if cfg.Strategies.MeanRev.Enabled {
		out = append(out, NewMeanReversion(cfg.Strategies.MeanRev))
	}
	if cfg.Strategies.Breakout.Enabled {
		out = append(out, NewBreakout(cfg.Strategies.Breakout))
	}
	return out
}
