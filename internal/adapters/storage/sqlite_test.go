package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/binarybot/internal/adapters/storage"
	"github.com/alejandrodnm/binarybot/internal/domain"
)

func makeRun(id string, finishedAt time.Time) domain.RunRecord {
	entry := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	return domain.RunRecord{
		ID:         id,
		Symbol:     "EURUSD",
		Timeframe:  "1m",
		Seed:       42,
		StartedAt:  finishedAt.Add(-time.Minute),
		FinishedAt: finishedAt,
		Bars:       500,
		Result: domain.Result{
			Trades: []domain.Trade{
				{
					ID: id + "-t1", Symbol: "EURUSD", Timestamp: entry,
					Strategy: "trend", Direction: domain.DirectionCall,
					EntryPrice: 1.1000, ExitPrice: 1.1010, ExitTime: entry.Add(2 * time.Minute),
					Stake: 10, Payout: 0.85, PWin: 0.61, Expiry: 120,
					Result: domain.ResultWin, Profit: 8.5, Balance: 1008.5,
				},
				{
					ID: id + "-t2", Symbol: "EURUSD", Timestamp: entry.Add(5 * time.Minute),
					Strategy: "meanrev", Direction: domain.DirectionPut,
					EntryPrice: 1.1010, ExitPrice: 1.1015, ExitTime: entry.Add(7 * time.Minute),
					Stake: 10, Payout: 0.82, PWin: 0.58, Expiry: 120,
					Result: domain.ResultLoss, Profit: -10, Balance: 998.5,
				},
			},
			Opportunities: []domain.Opportunity{
				{Timestamp: entry, Strategy: "trend", Direction: domain.DirectionCall,
					PWin: 0.61, Payout: 0.85, Accepted: true, Reason: "OK", Balance: 1000},
				{Timestamp: entry.Add(time.Minute), Strategy: "breakout", Direction: domain.DirectionPut,
					PWin: 0.52, Payout: 0.73, Accepted: false, Reason: "payout too low: 0.73 < 0.75", Balance: 1008.5},
			},
			EquityCurve: []float64{1000, 1008.5, 998.5},
			Metrics: map[string]float64{
				"win_rate": 0.5, "total_return": -0.0015,
				"max_drawdown": 0.0099, "final_balance": 998.5,
			},
		},
	}
}

func TestSQLiteStorage_SaveAndGetRuns(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, db.SaveRun(ctx, makeRun("run-a", now.Add(-time.Hour))))
	require.NoError(t, db.SaveRun(ctx, makeRun("run-b", now)))

	runs, err := db.GetRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, "run-b", runs[0].ID)
	assert.Equal(t, "run-a", runs[1].ID)
	assert.Equal(t, "EURUSD", runs[0].Symbol)
	assert.Equal(t, 2, runs[0].Trades)
	assert.InDelta(t, 0.5, runs[0].WinRate, 1e-9)
	assert.InDelta(t, 998.5, runs[0].FinalBalance, 1e-9)
}

func TestSQLiteStorage_GetRuns_Limit(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, db.SaveRun(ctx, makeRun(id, now.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := db.GetRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSQLiteStorage_GetRuns_Empty(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	runs, err := db.GetRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSQLiteStorage_DuplicateRunID(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	run := makeRun("dup", time.Now().UTC())

	require.NoError(t, db.SaveRun(ctx, run))
	assert.Error(t, db.SaveRun(ctx, run))

	// The failed save must not leave partial rows behind.
	runs, err := db.GetRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSQLiteStorage_EmptyLedgers(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	run := makeRun("empty", time.Now().UTC())
	run.Result.Trades = nil
	run.Result.Opportunities = nil

	require.NoError(t, db.SaveRun(context.Background(), run))
}
