package domain

import (
	"fmt"
	"math"
	"time"
)

// Bar is one OHLCV market sample at a fixed timeframe, enriched with the
// indicator fields the strategies and the model consume. Indicator fields
// are filled by internal/features before the bar ever reaches the engine;
// the engine treats them as read-only.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64

	// Trend indicators (zero unless the trend strategy is enabled).
	EMAFast float64
	EMASlow float64
	ATR     float64

	// Mean-reversion indicator (zero unless meanrev is enabled).
	RSI float64

	// Breakout indicators (zero unless breakout is enabled).
	DonchianUpper float64
	DonchianLower float64

	// Always computed.
	Returns    float64
	Volatility float64
	Hour       int
	DayOfWeek  int
}

// indicatorFields returns every float field that must be finite after the
// feature stage.
func (b Bar) indicatorFields() []float64 {
	return []float64{
		b.Open, b.High, b.Low, b.Close, b.Volume,
		b.EMAFast, b.EMASlow, b.ATR, b.RSI,
		b.DonchianUpper, b.DonchianLower,
		b.Returns, b.Volatility,
	}
}

// ValidateBars enforces the engine's data-integrity preconditions:
// strictly increasing timestamps and no NaN/Inf left in any indicator
// field. A violation means the upstream feature stage is broken, so the
// run must abort rather than silently skip bars.
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("domain.ValidateBars: empty bar sequence")
	}
	for i, b := range bars {
		if i > 0 && !b.Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("domain.ValidateBars: non-monotonic timestamp at index %d: %s <= %s",
				i, b.Timestamp.Format(time.RFC3339), bars[i-1].Timestamp.Format(time.RFC3339))
		}
		for _, v := range b.indicatorFields() {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("domain.ValidateBars: non-finite indicator value at index %d (%s)",
					i, b.Timestamp.Format(time.RFC3339))
			}
		}
	}
	return nil
}
