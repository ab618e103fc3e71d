package storage

// sqlite.go: the run ledger.
//
// Layout:
//   - `runs`: one row per backtest run with the aggregate metrics.
//   - `trades`: every executed trade of a run.
//   - `opportunities`: every evaluated opportunity, accepted or not. This
//     is the audit trail for the risk gate, so nothing is filtered.
//   - Prune on startup: runs older than 90d go, trades/opportunities follow
//     via the run_id foreign key.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/binarybot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    symbol        TEXT     NOT NULL,
    timeframe     TEXT     NOT NULL,
    seed          INTEGER  NOT NULL,
    started_at    DATETIME NOT NULL,
    finished_at   DATETIME NOT NULL,
    bars          INTEGER  NOT NULL,
    trades        INTEGER  NOT NULL DEFAULT 0,
    win_rate      REAL     NOT NULL DEFAULT 0,
    total_return  REAL     NOT NULL DEFAULT 0,
    max_drawdown  REAL     NOT NULL DEFAULT 0,
    final_balance REAL     NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS trades (
    id          TEXT PRIMARY KEY,
    run_id      TEXT     NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    symbol      TEXT     NOT NULL,
    entered_at  DATETIME NOT NULL,
    strategy    TEXT     NOT NULL,
    direction   TEXT     NOT NULL,
    entry_price REAL     NOT NULL,
    exit_price  REAL     NOT NULL,
    exited_at   DATETIME NOT NULL,
    stake       REAL     NOT NULL,
    payout      REAL     NOT NULL,
    p_win       REAL     NOT NULL,
    expiry      INTEGER  NOT NULL,
    result      TEXT     NOT NULL,
    profit      REAL     NOT NULL,
    balance     REAL     NOT NULL
);

CREATE TABLE IF NOT EXISTS opportunities (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id    TEXT     NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seen_at   DATETIME NOT NULL,
    strategy  TEXT     NOT NULL,
    direction TEXT     NOT NULL,
    p_win     REAL     NOT NULL,
    payout    REAL     NOT NULL,
    accepted  INTEGER  NOT NULL DEFAULT 0,
    reason    TEXT     NOT NULL,
    balance   REAL     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_run    ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_opp_run       ON opportunities(run_id);
`

const retentionRuns = 90 * 24 * time.Hour

// SQLiteStorage implements ports.Storage using SQLite (pure Go, no CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at the given path,
// applies the schema and prunes old runs.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: enable foreign keys: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveRun persists the run and both ledgers in one transaction.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	m := run.Result.Metrics
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(id, symbol, timeframe, seed, started_at, finished_at, bars,
			 trades, win_rate, total_return, max_drawdown, final_balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.Symbol, run.Timeframe, run.Seed,
		run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Bars,
		len(run.Result.Trades), m["win_rate"], m["total_return"],
		m["max_drawdown"], m["final_balance"],
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run: %w", err)
	}

	tradeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades
			(id, run_id, symbol, entered_at, strategy, direction,
			 entry_price, exit_price, exited_at, stake, payout, p_win,
			 expiry, result, profit, balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare trades: %w", err)
	}
	defer tradeStmt.Close()

	for _, t := range run.Result.Trades {
		if _, err := tradeStmt.ExecContext(ctx,
			t.ID, run.ID, t.Symbol, t.Timestamp.UTC(), t.Strategy,
			string(t.Direction), t.EntryPrice, t.ExitPrice, t.ExitTime.UTC(),
			t.Stake, t.Payout, t.PWin, t.Expiry, string(t.Result),
			t.Profit, t.Balance,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert trade %s: %w", t.ID, err)
		}
	}

	oppStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO opportunities
			(run_id, seen_at, strategy, direction, p_win, payout, accepted, reason, balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare opportunities: %w", err)
	}
	defer oppStmt.Close()

	for _, o := range run.Result.Opportunities {
		accepted := 0
		if o.Accepted {
			accepted = 1
		}
		if _, err := oppStmt.ExecContext(ctx,
			run.ID, o.Timestamp.UTC(), o.Strategy, string(o.Direction),
			o.PWin, o.Payout, accepted, o.Reason, o.Balance,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert opportunity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// GetRuns returns the newest run summaries.
func (s *SQLiteStorage) GetRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, timeframe, finished_at,
		       trades, win_rate, total_return, max_drawdown, final_balance
		FROM runs
		ORDER BY finished_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.GetRuns: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunSummary
	for rows.Next() {
		var r domain.RunSummary
		var finished string
		if err := rows.Scan(
			&r.ID, &r.Symbol, &r.Timeframe, &finished,
			&r.Trades, &r.WinRate, &r.TotalReturn, &r.MaxDrawdown, &r.FinalBalance,
		); err != nil {
			return nil, fmt.Errorf("storage.GetRuns: scan row: %w", err)
		}
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld drops runs past retention; the ledgers cascade.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE finished_at < ?`, cutoff)
}
