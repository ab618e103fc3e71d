package ports

import (
	"context"

	"github.com/alejandrodnm/binarybot/internal/domain"
)

// Broker executes binary option trades against a platform. The mock
// implementation simulates one; a real adapter would sign API requests.
type Broker interface {
	// GetBalance returns the current account balance.
	GetBalance(ctx context.Context) (float64, error)

	// GetPayout returns the current payout fraction offered for the symbol.
	GetPayout(ctx context.Context, symbol string) (float64, error)

	// GetCurrentPrice returns the latest quote for the symbol.
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)

	// PlaceTrade opens a binary option position and returns it with the
	// broker-assigned ID and entry price filled in. Result stays empty
	// until the option expires.
	PlaceTrade(ctx context.Context, trade domain.Trade) (domain.Trade, error)

	// CheckTradeResult resolves a trade by ID once its expiry has passed.
	// Before expiry it returns the trade unchanged with an empty Result.
	CheckTradeResult(ctx context.Context, tradeID string) (domain.Trade, error)

	// IsMarketOpen reports whether the symbol is currently tradeable.
	IsMarketOpen(ctx context.Context, symbol string) (bool, error)
}
