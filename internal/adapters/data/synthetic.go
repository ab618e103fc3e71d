package data

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/alejandrodnm/binarybot/config"
	"github.com/alejandrodnm/binarybot/internal/domain"
)

// Synthetic generates demo bars: a linear drift from 1.1000 to 1.1200
// across the range with gaussian noise on top. A fixed seed makes every
// load of the same range identical.
type Synthetic struct {
	seed int64
}

// NewSynthetic builds the demo loader.
func NewSynthetic(seed int64) *Synthetic {
	return &Synthetic{seed: seed}
}

// Load generates bars for [start, end] at the given timeframe.
func (l *Synthetic) Load(_ context.Context, _, timeframe string, start, end time.Time) ([]domain.Bar, error) {
	step, err := config.ParseTimeframe(timeframe)
	if err != nil {
		return nil, fmt.Errorf("data.Synthetic: %w", err)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("data.Synthetic: end %s is not after start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	n := int(end.Sub(start)/step) + 1
	rng := rand.New(rand.NewSource(l.seed))

	bars := make([]domain.Bar, 0, n)
	for i := 0; i < n; i++ {
		trend := 1.1000 + 0.0200*float64(i)/float64(n-1)
		if n == 1 {
			trend = 1.1000
		}
		close := trend + rng.NormFloat64()*0.0010
		high := close + math.Abs(rng.NormFloat64()*0.0005)
		low := close - math.Abs(rng.NormFloat64()*0.0005)
		open := close + rng.NormFloat64()*0.0003

		bars = append(bars, domain.Bar{
			Timestamp: start.Add(time.Duration(i) * step).UTC(),
			Open:      open,
			High:      math.Max(high, math.Max(open, close)),
			Low:       math.Min(low, math.Min(open, close)),
			Close:     close,
			Volume:    float64(100 + rng.Intn(900)),
		})
	}
	return bars, nil
}
