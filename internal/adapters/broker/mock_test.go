package broker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/binarybot/internal/adapters/broker"
	"github.com/alejandrodnm/binarybot/internal/domain"
)

// fakeClock steps time manually.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBroker(seed int64) (*broker.MockBroker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	return broker.NewMockBrokerWithClock(1000, 0.85, seed, clock.Now), clock
}

func TestMockBroker_Balance(t *testing.T) {
	b, _ := newTestBroker(1)

	balance, err := b.GetBalance(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, balance, 1e-9)
}

func TestMockBroker_PayoutRange(t *testing.T) {
	b, _ := newTestBroker(1)

	for i := 0; i < 100; i++ {
		p, err := b.GetPayout(context.Background(), "EURUSD")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.70)
		assert.LessOrEqual(t, p, 0.95)
	}
}

func TestMockBroker_PriceWalk(t *testing.T) {
	b, _ := newTestBroker(1)
	ctx := context.Background()

	prev, err := b.GetCurrentPrice(ctx, "EURUSD")
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		p, err := b.GetCurrentPrice(ctx, "EURUSD")
		require.NoError(t, err)
		assert.InDelta(t, prev, p, 0.0010+1e-12)
		prev = p
	}
}

func TestMockBroker_PlaceTrade(t *testing.T) {
	b, _ := newTestBroker(1)
	ctx := context.Background()

	trade, err := b.PlaceTrade(ctx, domain.Trade{
		Symbol:    "EURUSD",
		Direction: domain.DirectionCall,
		Stake:     50,
		Expiry:    120,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, trade.ID)
	assert.NotZero(t, trade.EntryPrice)
	assert.False(t, trade.Resolved())

	// Stake is escrowed immediately.
	balance, err := b.GetBalance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 950.0, balance, 1e-9)
}

func TestMockBroker_PlaceTrade_Invalid(t *testing.T) {
	b, _ := newTestBroker(1)
	ctx := context.Background()

	_, err := b.PlaceTrade(ctx, domain.Trade{Direction: domain.DirectionCall, Stake: 0})
	assert.Error(t, err)

	_, err = b.PlaceTrade(ctx, domain.Trade{Direction: domain.DirectionCall, Stake: 5000})
	assert.Error(t, err)

	_, err = b.PlaceTrade(ctx, domain.Trade{Direction: "LONG", Stake: 50})
	assert.Error(t, err)
}

func TestMockBroker_CheckTradeResult_BeforeExpiry(t *testing.T) {
	b, clock := newTestBroker(1)
	ctx := context.Background()

	trade, err := b.PlaceTrade(ctx, domain.Trade{
		Direction: domain.DirectionCall, Stake: 50, Expiry: 120,
	})
	require.NoError(t, err)

	clock.Advance(60 * time.Second)
	got, err := b.CheckTradeResult(ctx, trade.ID)
	require.NoError(t, err)
	assert.False(t, got.Resolved())
}

func TestMockBroker_CheckTradeResult_SettlesAndPays(t *testing.T) {
	b, clock := newTestBroker(7)
	ctx := context.Background()

	trade, err := b.PlaceTrade(ctx, domain.Trade{
		Direction: domain.DirectionPut, Stake: 100, Expiry: 60,
	})
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	got, err := b.CheckTradeResult(ctx, trade.ID)
	require.NoError(t, err)
	require.True(t, got.Resolved())

	balance, err := b.GetBalance(ctx)
	require.NoError(t, err)

	switch got.Result {
	case domain.ResultWin:
		assert.InDelta(t, 100*got.Payout, got.Profit, 1e-9)
		assert.InDelta(t, 900+100+got.Profit, balance, 1e-9)
	case domain.ResultLoss:
		assert.InDelta(t, -100.0, got.Profit, 1e-9)
		assert.InDelta(t, 900.0, balance, 1e-9)
	case domain.ResultTie:
		assert.Zero(t, got.Profit)
		assert.InDelta(t, 1000.0, balance, 1e-9)
	}

	// Settlement is idempotent.
	again, err := b.CheckTradeResult(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Result, again.Result)
	assert.InDelta(t, got.Profit, again.Profit, 1e-12)
}

func TestMockBroker_CheckTradeResult_Unknown(t *testing.T) {
	b, _ := newTestBroker(1)

	_, err := b.CheckTradeResult(context.Background(), "missing")
	assert.Error(t, err)
}

func TestMockBroker_MarketAlwaysOpen(t *testing.T) {
	b, _ := newTestBroker(1)

	open, err := b.IsMarketOpen(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.True(t, open)
}
