package strategy

import (
	"github.com/alejandrodnm/binarybot/config"
	"github.com/alejandrodnm/binarybot/internal/domain"
)

// MeanReversion fades RSI extremes: deeply oversold bars are expected to
// bounce (CALL), deeply overbought bars to pull back (PUT).
type MeanReversion struct {
	cfg config.MeanRevConfig
}

func NewMeanReversion(cfg config.MeanRevConfig) *MeanReversion {
	return &MeanReversion{cfg: cfg}
}

func (s *MeanReversion) Name() string { return "meanrev" }

func (s *MeanReversion) GenerateSignal(bars []domain.Bar, idx int) *domain.Signal {
	if idx < 0 || idx >= len(bars) {
		return nil
	}
	rsi := bars[idx].RSI

	if rsi < s.cfg.RSIOversold {
		return &domain.Signal{Strategy: s.Name(), Direction: domain.DirectionCall}
	}
	if rsi > s.cfg.RSIOverbought {
		return &domain.Signal{Strategy: s.Name(), Direction: domain.DirectionPut}
	}
	return nil
}
