package data

import (
	"fmt"

	"github.com/alejandrodnm/binarybot/config"
	"github.com/alejandrodnm/binarybot/internal/ports"
)

// NewLoader builds the bar loader selected by the config.
func NewLoader(cfg *config.Config) (ports.BarLoader, error) {
	switch cfg.Data.Source {
	case "synthetic":
		return NewSynthetic(cfg.Backtest.Seed), nil
	case "csv":
		return NewCSV(cfg.Data.CSVPath), nil
	case "binance":
		return NewBinance(cfg.Data.BinanceBase), nil
	default:
		return nil, fmt.Errorf("data.NewLoader: unknown source %q", cfg.Data.Source)
	}
}
