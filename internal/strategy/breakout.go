package strategy

import (
	"github.com/alejandrodnm/binarybot/config"
	"github.com/alejandrodnm/binarybot/internal/domain"
)

// Breakout trades Donchian channel breaches: a close pushing through the
// upper band signals continuation up, through the lower band down.
type Breakout struct {
	cfg config.BreakoutConfig
}

func NewBreakout(cfg config.BreakoutConfig) *Breakout {
	return &Breakout{cfg: cfg}
}

func (s *Breakout) Name() string { return "breakout" }

func (s *Breakout) GenerateSignal(bars []domain.Bar, idx int) *domain.Signal {
	if idx < 1 || idx >= len(bars) {
		return nil
	}
	cur, prev := bars[idx], bars[idx-1]

	// Upward breach: previous close inside the channel, current close above it.
	if prev.Close <= prev.DonchianUpper && cur.Close > cur.DonchianUpper {
		return &domain.Signal{Strategy: s.Name(), Direction: domain.DirectionCall}
	}

	// Downward breach.
	if prev.Close >= prev.DonchianLower && cur.Close < cur.DonchianLower {
		return &domain.Signal{Strategy: s.Name(), Direction: domain.DirectionPut}
	}

	return nil
}
