package ports

import (
	"context"

	"github.com/alejandrodnm/binarybot/internal/domain"
)

// Storage persists backtest runs with their full trade and opportunity
// ledgers.
type Storage interface {
	// SaveRun persists a finished run atomically: the run row plus every
	// trade and opportunity it produced.
	SaveRun(ctx context.Context, run domain.RunRecord) error

	// GetRuns returns the most recent run summaries, newest first.
	GetRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)

	// Close releases the database connection.
	Close() error
}
