package broker

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/binarybot/internal/domain"
)

// MockBroker implements ports.Broker against a simulated market: a random
// walk around the last quote and a payout that wobbles around a base rate.
// It backs the demo live mode and the runner tests. Stakes are escrowed at
// placement and paid back on win or tie.
type MockBroker struct {
	mu sync.Mutex

	balance      float64
	basePayout   float64
	currentPrice float64
	trades       map[string]domain.Trade
	rng          *rand.Rand
	now          func() time.Time
}

// NewMockBroker builds a broker with the given starting balance. The seed
// drives quote movement and payout variation.
func NewMockBroker(initialBalance, payout float64, seed int64) *MockBroker {
	return &MockBroker{
		balance:      initialBalance,
		basePayout:   payout,
		currentPrice: 1.1000,
		trades:       make(map[string]domain.Trade),
		rng:          rand.New(rand.NewSource(seed)),
		now:          time.Now,
	}
}

// NewMockBrokerWithClock builds a broker with an injected clock for tests.
func NewMockBrokerWithClock(initialBalance, payout float64, seed int64, clock func() time.Time) *MockBroker {
	b := NewMockBroker(initialBalance, payout, seed)
	b.now = clock
	return b
}

// GetBalance returns the current account balance.
func (b *MockBroker) GetBalance(_ context.Context) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance, nil
}

// GetPayout returns the current payout, base rate plus a uniform wobble
// clipped to [0.70, 0.95].
func (b *MockBroker) GetPayout(_ context.Context, _ string) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.basePayout + (b.rng.Float64()*2-1)*0.05
	if p < 0.70 {
		p = 0.70
	}
	if p > 0.95 {
		p = 0.95
	}
	return p, nil
}

// GetCurrentPrice advances the simulated quote one random-walk step and
// returns it.
func (b *MockBroker) GetCurrentPrice(_ context.Context, _ string) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.step(), nil
}

// PlaceTrade opens a position: fills in ID, entry price and payout, and
// escrows the stake.
func (b *MockBroker) PlaceTrade(_ context.Context, trade domain.Trade) (domain.Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if trade.Stake <= 0 {
		return domain.Trade{}, fmt.Errorf("broker.PlaceTrade: stake must be positive, got %v", trade.Stake)
	}
	if trade.Stake > b.balance {
		return domain.Trade{}, fmt.Errorf("broker.PlaceTrade: stake %.2f exceeds balance %.2f", trade.Stake, b.balance)
	}
	if !trade.Direction.Valid() {
		return domain.Trade{}, fmt.Errorf("broker.PlaceTrade: invalid direction %q", trade.Direction)
	}

	trade.ID = uuid.NewString()
	trade.Timestamp = b.now()
	trade.EntryPrice = b.step()
	if trade.Payout == 0 {
		p := b.basePayout + (b.rng.Float64()*2-1)*0.05
		if p < 0.70 {
			p = 0.70
		}
		if p > 0.95 {
			p = 0.95
		}
		trade.Payout = p
	}
	trade.Result = ""
	trade.Profit = 0

	b.balance -= trade.Stake
	b.trades[trade.ID] = trade
	return trade, nil
}

// CheckTradeResult resolves the trade once its expiry has passed. Before
// expiry (or for an already resolved trade) it returns the stored trade
// unchanged. An exit price equal to the entry is a tie and returns the
// stake.
func (b *MockBroker) CheckTradeResult(_ context.Context, tradeID string) (domain.Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	trade, ok := b.trades[tradeID]
	if !ok {
		return domain.Trade{}, fmt.Errorf("broker.CheckTradeResult: unknown trade %q", tradeID)
	}
	if trade.Resolved() {
		return trade, nil
	}

	expiresAt := trade.Timestamp.Add(time.Duration(trade.Expiry) * time.Second)
	if b.now().Before(expiresAt) {
		return trade, nil
	}

	exit := b.step()
	trade.ExitPrice = exit
	trade.ExitTime = b.now()

	switch {
	case (trade.Direction == domain.DirectionCall && exit > trade.EntryPrice) ||
		(trade.Direction == domain.DirectionPut && exit < trade.EntryPrice):
		trade.Result = domain.ResultWin
		trade.Profit = trade.Stake * trade.Payout
		b.balance += trade.Stake + trade.Profit
	case exit == trade.EntryPrice:
		trade.Result = domain.ResultTie
		trade.Profit = 0
		b.balance += trade.Stake
	default:
		trade.Result = domain.ResultLoss
		trade.Profit = -trade.Stake
	}

	trade.Balance = b.balance
	b.trades[tradeID] = trade
	return trade, nil
}

// IsMarketOpen always reports open; the simulated market never closes.
func (b *MockBroker) IsMarketOpen(_ context.Context, _ string) (bool, error) {
	return true, nil
}

// step advances the quote by one uniform step of at most 10 pips.
func (b *MockBroker) step() float64 {
	b.currentPrice += (b.rng.Float64()*2 - 1) * 0.0010
	return b.currentPrice
}
