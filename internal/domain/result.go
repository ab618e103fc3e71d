package domain

import "time"

// Result is the complete output of one backtest run. It is the sole
// contract consumed by the report and storage layers.
type Result struct {
	Trades        []Trade
	Opportunities []Opportunity
	EquityCurve   []float64
	Metrics       map[string]float64
}

// RunRecord wraps a Result with the metadata the ledger persists.
type RunRecord struct {
	ID         string
	Symbol     string
	Timeframe  string
	Seed       int64
	StartedAt  time.Time
	FinishedAt time.Time
	Bars       int
	Result     Result
}

// RunSummary is the lightweight view of a persisted run.
type RunSummary struct {
	ID           string
	Symbol       string
	Timeframe    string
	FinishedAt   time.Time
	Trades       int
	WinRate      float64
	TotalReturn  float64
	MaxDrawdown  float64
	FinalBalance float64
}
