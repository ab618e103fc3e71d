package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alejandrodnm/binarybot/config"
	"github.com/alejandrodnm/binarybot/internal/adapters/broker"
	"github.com/alejandrodnm/binarybot/internal/adapters/data"
	"github.com/alejandrodnm/binarybot/internal/live"
)

// runLive starts the demo trading loop against the simulated broker. A
// real broker adapter would slot in behind the same port.
func runLive(ctx context.Context, cfg *config.Config) {
	loader, err := data.NewLoader(cfg)
	if err != nil {
		slog.Error("failed to build data loader", "err", err)
		os.Exit(1)
	}

	seed := time.Now().UnixNano()
	b := broker.NewMockBroker(cfg.Live.InitialBalance, 0.85, seed)

	runner, err := live.NewRunner(cfg, b, loader, seed)
	if err != nil {
		slog.Error("failed to build runner", "err", err)
		os.Exit(1)
	}

	if err := runner.Run(ctx); err != nil {
		slog.Error("live loop exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("binarybot stopped cleanly")
}
