package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/binarybot/config"
	"github.com/alejandrodnm/binarybot/internal/adapters/data"
	"github.com/alejandrodnm/binarybot/internal/adapters/notify"
	"github.com/alejandrodnm/binarybot/internal/adapters/storage"
	"github.com/alejandrodnm/binarybot/internal/backtest"
	"github.com/alejandrodnm/binarybot/internal/domain"
	"github.com/alejandrodnm/binarybot/internal/features"
)

// runBacktest loads the configured date range, replays it through the
// engine, prints the report and persists the run.
func runBacktest(ctx context.Context, cfg *config.Config, table bool) {
	start, err := time.Parse(time.DateOnly, cfg.Backtest.StartDate)
	if err != nil {
		slog.Error("invalid backtest start date", "err", err)
		os.Exit(1)
	}
	end, err := time.Parse(time.DateOnly, cfg.Backtest.EndDate)
	if err != nil {
		slog.Error("invalid backtest end date", "err", err)
		os.Exit(1)
	}

	loader, err := data.NewLoader(cfg)
	if err != nil {
		slog.Error("failed to build data loader", "err", err)
		os.Exit(1)
	}

	slog.Info("loading bars",
		"source", cfg.Data.Source,
		"symbol", cfg.Symbol,
		"timeframe", cfg.Timeframe,
		"start", cfg.Backtest.StartDate,
		"end", cfg.Backtest.EndDate,
	)
	raw, err := loader.Load(ctx, cfg.Symbol, cfg.Timeframe, start.UTC(), end.UTC())
	if err != nil {
		slog.Error("failed to load bars", "err", err)
		os.Exit(1)
	}

	bars := features.Enrich(raw, cfg)
	slog.Info("bars enriched", "raw", len(raw), "usable", len(bars))

	engine, err := backtest.New(cfg)
	if err != nil {
		slog.Error("failed to build engine", "err", err)
		os.Exit(1)
	}

	startedAt := time.Now().UTC()
	result, err := engine.Run(bars)
	if err != nil {
		slog.Error("backtest failed", "err", err)
		os.Exit(1)
	}
	finishedAt := time.Now().UTC()

	notifier := notify.NewConsole(table)
	if err := notifier.Report(ctx, *result); err != nil {
		slog.Warn("report error", "err", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	run := domain.RunRecord{
		ID:         uuid.NewString(),
		Symbol:     cfg.Symbol,
		Timeframe:  cfg.Timeframe,
		Seed:       cfg.Backtest.Seed,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Bars:       len(bars),
		Result:     *result,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		slog.Error("failed to persist run", "err", err)
		os.Exit(1)
	}
	slog.Info("run persisted", "id", run.ID, "dsn", cfg.Storage.DSN)
}
