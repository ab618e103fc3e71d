package ports

import (
	"context"

	"github.com/alejandrodnm/binarybot/internal/domain"
)

// Notifier presents a finished run to the user. The console
// implementation renders formatted tables.
type Notifier interface {
	Report(ctx context.Context, result domain.Result) error
}
