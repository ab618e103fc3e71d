package strategy

import (
	"github.com/alejandrodnm/binarybot/config"
	"github.com/alejandrodnm/binarybot/internal/domain"
)

// minATRFraction guards against dead markets: below this fraction of the
// close price the ATR filter would pass on pure noise.
const minATRFraction = 0.0001

// Trend trades EMA crossovers confirmed by a minimum separation
// proportional to ATR, which suppresses crossovers inside noise.
type Trend struct {
	cfg config.TrendConfig
}

func NewTrend(cfg config.TrendConfig) *Trend {
	return &Trend{cfg: cfg}
}

func (s *Trend) Name() string { return "trend" }

// GenerateSignal fires on the bar where the fast EMA crosses the slow EMA,
// provided the post-cross separation exceeds the ATR-scaled threshold.
func (s *Trend) GenerateSignal(bars []domain.Bar, idx int) *domain.Signal {
	if idx < 1 || idx >= len(bars) {
		return nil
	}
	cur, prev := bars[idx], bars[idx-1]

	if cur.ATR < cur.Close*minATRFraction {
		return nil
	}

	minSep := cur.ATR * s.cfg.ATRMultiplier * 0.1

	// Bullish cross: fast EMA moves above slow EMA.
	if prev.EMAFast <= prev.EMASlow && cur.EMAFast > cur.EMASlow {
		if cur.EMAFast-cur.EMASlow > minSep {
			return &domain.Signal{Strategy: s.Name(), Direction: domain.DirectionCall}
		}
		return nil
	}

	// Bearish cross: fast EMA moves below slow EMA.
	if prev.EMAFast >= prev.EMASlow && cur.EMAFast < cur.EMASlow {
		if cur.EMASlow-cur.EMAFast > minSep {
			return &domain.Signal{Strategy: s.Name(), Direction: domain.DirectionPut}
		}
	}

	return nil
}
