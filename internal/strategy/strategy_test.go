package strategy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/binarybot/config"
	"github.com/alejandrodnm/binarybot/internal/domain"
	"github.com/alejandrodnm/binarybot/internal/strategy"
)

func trendConfig() config.TrendConfig {
	return config.TrendConfig{Enabled: true, EMAFast: 9, EMASlow: 21, ATRPeriod: 14, ATRMultiplier: 1.5}
}

func TestTrend_BullishCross(t *testing.T) {
	s := strategy.NewTrend(trendConfig())
	bars := []domain.Bar{
		{Close: 1.0, EMAFast: 0.998, EMASlow: 1.000, ATR: 0.01},
		{Close: 1.0, EMAFast: 1.005, EMASlow: 1.000, ATR: 0.01},
	}

	sig := s.GenerateSignal(bars, 1)
	require.NotNil(t, sig)
	assert.Equal(t, "trend", sig.Strategy)
	assert.Equal(t, domain.DirectionCall, sig.Direction)
}

func TestTrend_BearishCross(t *testing.T) {
	s := strategy.NewTrend(trendConfig())
	bars := []domain.Bar{
		{Close: 1.0, EMAFast: 1.002, EMASlow: 1.000, ATR: 0.01},
		{Close: 1.0, EMAFast: 0.995, EMASlow: 1.000, ATR: 0.01},
	}

	sig := s.GenerateSignal(bars, 1)
	require.NotNil(t, sig)
	assert.Equal(t, domain.DirectionPut, sig.Direction)
}

func TestTrend_CrossWithoutSeparationIsNoise(t *testing.T) {
	s := strategy.NewTrend(trendConfig())
	// Separation 0.0005 < minSep 0.01*1.5*0.1 = 0.0015.
	bars := []domain.Bar{
		{Close: 1.0, EMAFast: 0.999, EMASlow: 1.000, ATR: 0.01},
		{Close: 1.0, EMAFast: 1.0005, EMASlow: 1.000, ATR: 0.01},
	}

	assert.Nil(t, s.GenerateSignal(bars, 1))
}

func TestTrend_DeadMarketFilter(t *testing.T) {
	s := strategy.NewTrend(trendConfig())
	bars := []domain.Bar{
		{Close: 1.0, EMAFast: 0.998, EMASlow: 1.000, ATR: 0.00005},
		{Close: 1.0, EMAFast: 1.005, EMASlow: 1.000, ATR: 0.00005},
	}

	assert.Nil(t, s.GenerateSignal(bars, 1))
}

func TestTrend_NoLookback(t *testing.T) {
	s := strategy.NewTrend(trendConfig())
	bars := []domain.Bar{{Close: 1.0, EMAFast: 1.01, EMASlow: 1.0, ATR: 0.01}}

	assert.Nil(t, s.GenerateSignal(bars, 0))
	assert.Nil(t, s.GenerateSignal(bars, 5))
}

func TestMeanReversion_Thresholds(t *testing.T) {
	s := strategy.NewMeanReversion(config.MeanRevConfig{Enabled: true, RSIPeriod: 14, RSIOversold: 30, RSIOverbought: 70})

	call := s.GenerateSignal([]domain.Bar{{RSI: 25}}, 0)
	require.NotNil(t, call)
	assert.Equal(t, domain.DirectionCall, call.Direction)

	put := s.GenerateSignal([]domain.Bar{{RSI: 75}}, 0)
	require.NotNil(t, put)
	assert.Equal(t, domain.DirectionPut, put.Direction)

	assert.Nil(t, s.GenerateSignal([]domain.Bar{{RSI: 50}}, 0))
	// Exactly at the threshold does not fire.
	assert.Nil(t, s.GenerateSignal([]domain.Bar{{RSI: 30}}, 0))
	assert.Nil(t, s.GenerateSignal([]domain.Bar{{RSI: 70}}, 0))
}

func TestBreakout_Breaches(t *testing.T) {
	s := strategy.NewBreakout(config.BreakoutConfig{Enabled: true, DonchianPeriod: 20})

	up := []domain.Bar{
		{Close: 1.095, DonchianUpper: 1.100, DonchianLower: 1.080},
		{Close: 1.105, DonchianUpper: 1.100, DonchianLower: 1.080},
	}
	sig := s.GenerateSignal(up, 1)
	require.NotNil(t, sig)
	assert.Equal(t, domain.DirectionCall, sig.Direction)

	down := []domain.Bar{
		{Close: 1.085, DonchianUpper: 1.100, DonchianLower: 1.080},
		{Close: 1.075, DonchianUpper: 1.100, DonchianLower: 1.080},
	}
	sig = s.GenerateSignal(down, 1)
	require.NotNil(t, sig)
	assert.Equal(t, domain.DirectionPut, sig.Direction)
}

func TestBreakout_InsideChannelIsQuiet(t *testing.T) {
	s := strategy.NewBreakout(config.BreakoutConfig{Enabled: true, DonchianPeriod: 20})
	bars := []domain.Bar{
		{Close: 1.090, DonchianUpper: 1.100, DonchianLower: 1.080},
		{Close: 1.095, DonchianUpper: 1.100, DonchianLower: 1.080},
	}

	assert.Nil(t, s.GenerateSignal(bars, 1))
	assert.Nil(t, s.GenerateSignal(bars, 0))
}

func TestBreakout_AlreadyOutsideDoesNotRefire(t *testing.T) {
	s := strategy.NewBreakout(config.BreakoutConfig{Enabled: true, DonchianPeriod: 20})
	// Previous close already above the band: no fresh breach.
	bars := []domain.Bar{
		{Close: 1.105, DonchianUpper: 1.100, DonchianLower: 1.080},
		{Close: 1.110, DonchianUpper: 1.100, DonchianLower: 1.080},
	}

	assert.Nil(t, s.GenerateSignal(bars, 1))
}

func TestGenerateSignal_OnlyReadsPastBars(t *testing.T) {
	cfg := &config.Config{}
	cfg.Strategies.Trend = trendConfig()
	cfg.Strategies.MeanRev = config.MeanRevConfig{Enabled: true, RSIPeriod: 14, RSIOversold: 30, RSIOverbought: 70}
	cfg.Strategies.Breakout = config.BreakoutConfig{Enabled: true, DonchianPeriod: 20}

	bars := []domain.Bar{
		{Close: 1.0, EMAFast: 0.998, EMASlow: 1.000, ATR: 0.01, RSI: 50, DonchianUpper: 1.1, DonchianLower: 0.9},
		{Close: 1.0, EMAFast: 1.005, EMASlow: 1.000, ATR: 0.01, RSI: 25, DonchianUpper: 1.1, DonchianLower: 0.9},
		{Close: 9.9, EMAFast: 9.9, EMASlow: 0.1, ATR: 9.9, RSI: 99, DonchianUpper: 0.1, DonchianLower: 0.1},
	}
	truncated := bars[:2]

	for _, s := range strategy.Build(cfg) {
		full := s.GenerateSignal(bars, 1)
		past := s.GenerateSignal(truncated, 1)
		if full == nil {
			assert.Nil(t, past, s.Name())
			continue
		}
		require.NotNil(t, past, s.Name())
		assert.Equal(t, full.Direction, past.Direction, s.Name())
	}
}

func TestBuild_FixedOrder(t *testing.T) {
	cfg := &config.Config{}
	cfg.Strategies.Trend = trendConfig()
	cfg.Strategies.MeanRev = config.MeanRevConfig{Enabled: true, RSIPeriod: 14, RSIOversold: 30, RSIOverbought: 70}
	cfg.Strategies.Breakout = config.BreakoutConfig{Enabled: true, DonchianPeriod: 20}

	built := strategy.Build(cfg)
	require.Len(t, built, 3)
	assert.Equal(t, "trend", built[0].Name())
	assert.Equal(t, "meanrev", built[1].Name())
	assert.Equal(t, "breakout", built[2].Name())

	cfg.Strategies.Trend.Enabled = false
	built = strategy.Build(cfg)
	require.Len(t, built, 2)
	assert.Equal(t, "meanrev", built[0].Name())
}
