package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/binarybot/internal/domain"
)

// BarLoader fetches raw OHLCV bars for a symbol and timeframe. Loaders
// return bars without indicators; enrichment happens downstream.
type BarLoader interface {
	Load(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Bar, error)
}
