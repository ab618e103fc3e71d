package features

// Indicator computation over bar slices. This is the feature stage that
// runs once, before the engine: it fills the indicator fields on each Bar
// and drops the warmup prefix where rolling windows are not yet defined.

import (
	"math"

	"github.com/alejandrodnm/binarybot/config"
	"github.com/alejandrodnm/binarybot/internal/domain"
)

const volatilityWindow = 20

// EMA computes the exponential moving average with the usual span
// smoothing (alpha = 2/(period+1)), seeded with the first value.
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(period) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// SMA computes the simple moving average. Positions before the window is
// full are NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// RSI computes the relative strength index from rolling average gains and
// losses. Warmup positions are NaN.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if n < period+1 {
		return out
	}

	gains := nanSlice(n)
	losses := nanSlice(n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		gains[i] = math.Max(delta, 0)
		losses[i] = math.Max(-delta, 0)
	}

	avgGain := rollingMean(gains, period)
	avgLoss := rollingMean(losses, period)
	for i := range out {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			continue
		}
		if avgLoss[i] == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// ATR computes the average true range over the given period.
func ATR(bars []domain.Bar, period int) []float64 {
	n := len(bars)
	tr := nanSlice(n)
	for i, b := range bars {
		hl := b.High - b.Low
		if i == 0 {
			tr[i] = hl
			continue
		}
		prevClose := bars[i-1].Close
		tr[i] = math.Max(hl, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}
	return rollingMean(tr, period)
}

// Donchian computes the channel bands: rolling max of highs and rolling
// min of lows over the period, current bar included.
func Donchian(bars []domain.Bar, period int) (upper, lower []float64) {
	n := len(bars)
	upper = nanSlice(n)
	lower = nanSlice(n)
	for i := period - 1; i < n; i++ {
		hi, lo := math.Inf(-1), math.Inf(1)
		for j := i - period + 1; j <= i; j++ {
			hi = math.Max(hi, bars[j].High)
			lo = math.Min(lo, bars[j].Low)
		}
		upper[i] = hi
		lower[i] = lo
	}
	return upper, lower
}

// Enrich fills the indicator fields for every enabled strategy plus the
// always-on features (returns, volatility, hour, day-of-week), then drops
// the warmup prefix where any computed value is still NaN. The returned
// slice is a copy; the input is not mutated.
func Enrich(bars []domain.Bar, cfg *config.Config) []domain.Bar {
	n := len(bars)
	if n == 0 {
		return nil
	}

	out := make([]domain.Bar, n)
	copy(out, bars)

	closes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
	}

	// Columns that participate in the warmup cut.
	var cuts []func(int) bool

	if cfg.Strategies.Trend.Enabled {
		emaFast := EMA(closes, cfg.Strategies.Trend.EMAFast)
		emaSlow := EMA(closes, cfg.Strategies.Trend.EMASlow)
		atr := ATR(bars, cfg.Strategies.Trend.ATRPeriod)
		for i := range out {
			out[i].EMAFast = emaFast[i]
			out[i].EMASlow = emaSlow[i]
			out[i].ATR = atr[i]
		}
		cuts = append(cuts, func(i int) bool { return math.IsNaN(atr[i]) })
	}

	if cfg.Strategies.MeanRev.Enabled {
		rsi := RSI(closes, cfg.Strategies.MeanRev.RSIPeriod)
		for i := range out {
			out[i].RSI = rsi[i]
		}
		cuts = append(cuts, func(i int) bool { return math.IsNaN(rsi[i]) })
	}

	if cfg.Strategies.Breakout.Enabled {
		upper, lower := Donchian(bars, cfg.Strategies.Breakout.DonchianPeriod)
		for i := range out {
			out[i].DonchianUpper = upper[i]
			out[i].DonchianLower = lower[i]
		}
		cuts = append(cuts, func(i int) bool { return math.IsNaN(upper[i]) })
	}

	returns := nanSlice(n)
	for i := 1; i < n; i++ {
		if closes[i-1] != 0 {
			returns[i] = closes[i]/closes[i-1] - 1
		}
	}
	volatility := rollingStd(returns, volatilityWindow)
	for i := range out {
		out[i].Returns = returns[i]
		out[i].Volatility = volatility[i]
		ts := out[i].Timestamp.UTC()
		out[i].Hour = ts.Hour()
		out[i].DayOfWeek = (int(ts.Weekday()) + 6) % 7 // Monday = 0
	}
	cuts = append(cuts, func(i int) bool { return math.IsNaN(volatility[i]) })

	// Drop warmup rows, then replace any remaining NaN field with a zero so
	// disabled-strategy fields stay finite.
	start := 0
	for i := 0; i < n; i++ {
		bad := false
		for _, cut := range cuts {
			if cut(i) {
				bad = true
				break
			}
		}
		if bad {
			start = i + 1
		}
	}
	enriched := out[start:]
	for i := range enriched {
		zeroNaNFields(&enriched[i])
	}
	return enriched
}

// Vector extracts the model feature vector for one enriched bar. Field
// order is fixed by the enabled-strategy set so the model sees a stable
// layout across the whole run.
func Vector(b domain.Bar, cfg *config.Config) []float64 {
	var v []float64
	if cfg.Strategies.Trend.Enabled {
		v = append(v, b.EMAFast, b.EMASlow, b.EMAFast-b.EMASlow, b.ATR)
	}
	if cfg.Strategies.MeanRev.Enabled {
		v = append(v, b.RSI)
	}
	if cfg.Strategies.Breakout.Enabled {
		v = append(v, b.DonchianUpper, b.DonchianLower, b.Close-b.DonchianUpper, b.Close-b.DonchianLower)
	}
	v = append(v, b.Returns, b.Volatility, float64(b.Hour), float64(b.DayOfWeek))
	return v
}

// --- internal helpers ---

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// rollingMean ignores NaN positions at the head of the input: the window
// only becomes defined once it contains `period` finite values.
func rollingMean(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// rollingStd is the sample standard deviation over the window.
func rollingStd(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if !ok {
			continue
		}
		mean := sum / float64(period)
		var ss float64
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}
	return out
}

func zeroNaNFields(b *domain.Bar) {
	fix := func(v *float64) {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
		}
	}
	fix(&b.EMAFast)
	fix(&b.EMASlow)
	fix(&b.ATR)
	fix(&b.RSI)
	fix(&b.DonchianUpper)
	fix(&b.DonchianLower)
	fix(&b.Returns)
	fix(&b.Volatility)
}
