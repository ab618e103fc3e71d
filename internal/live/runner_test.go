package live_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/binarybot/config"
	"github.com/alejandrodnm/binarybot/internal/adapters/broker"
	"github.com/alejandrodnm/binarybot/internal/adapters/data"
	"github.com/alejandrodnm/binarybot/internal/live"
)

func runnerConfig() *config.Config {
	cfg := &config.Config{
		Symbol:    "EURUSD",
		Timeframe: "1m",
		Expiry:    120,
	}
	cfg.Risk = config.RiskConfig{
		RiskPerTrade:      0.01,
		DailyLossLimit:    -0.05,
		DailyProfitTarget: 0.10,
		MinPayout:         0.70,
		SafetyMargin:      0.02,
	}
	cfg.Strategies.MeanRev = config.MeanRevConfig{Enabled: true, RSIPeriod: 14, RSIOversold: 30, RSIOverbought: 70}
	cfg.Model = config.ModelConfig{Type: "logistic"}
	cfg.Live = config.LiveConfig{InitialBalance: 1000, CheckInterval: 1, MaxConcurrentTrades: 1}
	cfg.Data.Source = "synthetic"
	return cfg
}

func TestNewRunner_UnknownModel(t *testing.T) {
	cfg := runnerConfig()
	cfg.Model.Type = "river"

	b := broker.NewMockBroker(1000, 0.85, 1)
	_, err := live.NewRunner(cfg, b, data.NewSynthetic(42), 1)
	require.Error(t, err)
}

func TestRunner_StopsOnContextCancel(t *testing.T) {
	cfg := runnerConfig()

	b := broker.NewMockBroker(1000, 0.85, 1)
	runner, err := live.NewRunner(cfg, b, data.NewSynthetic(42), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("runner did not stop after context cancellation")
	}

	// The simulated account survives the loop untouched or traded, never
	// corrupted.
	balance, err := b.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Positive(t, balance)
}
