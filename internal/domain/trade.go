package domain

import "time"

// TradeResult is the resolved outcome of a binary option trade.
type TradeResult string

const (
	ResultWin  TradeResult = "win"
	ResultLoss TradeResult = "loss"
	// ResultTie only occurs in live mode when the exit price equals the
	// entry price exactly; the stake is returned. The backtest engine
	// resolves equality as a loss.
	ResultTie TradeResult = "tie"
)

// Opportunity is the audit record for every bar that produced at least one
// signal, whether or not the risk gate accepted it. Append-only.
type Opportunity struct {
	Timestamp time.Time
	Strategy  string
	Direction Direction
	PWin      float64
	Payout    float64
	Accepted  bool
	Reason    string
	Balance   float64 // balance at evaluation time
}

// Trade is an executed binary option position. Immutable once resolved.
// Backtest trades are resolved synchronously; live trades carry a zero
// Result until the broker reports the outcome.
type Trade struct {
	ID         string
	Symbol     string
	Timestamp  time.Time // entry time
	Strategy   string
	Direction  Direction
	EntryPrice float64
	ExitPrice  float64
	ExitTime   time.Time
	Stake      float64
	Payout     float64
	PWin       float64
	Expiry     int // seconds
	Result     TradeResult
	Profit     float64
	Balance    float64 // balance after resolution
}

// Resolved reports whether the trade outcome is known.
func (t Trade) Resolved() bool {
	return t.Result != ""
}
