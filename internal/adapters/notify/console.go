package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/binarybot/internal/domain"
)

// Console implements ports.Notifier.
type Console struct {
	out        io.Writer
	table      bool // print the full per-trade table
	maxTrades  int
	maxReasons int
}

// NewConsole builds a notifier that writes to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table, maxTrades: 30, maxReasons: 8}
}

// NewConsoleWriter builds a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table, maxTrades: 30, maxReasons: 8}
}

// Report prints the run summary, the per-strategy breakdown, the rejection
// histogram and, in table mode, the most recent trades.
func (c *Console) Report(_ context.Context, result domain.Result) error {
	c.printSummary(result)
	c.printStrategyBreakdown(result.Trades)
	c.printRejections(result.Opportunities)
	if c.table {
		c.printTrades(result.Trades)
	}
	return nil
}

func (c *Console) printSummary(result domain.Result) {
	m := result.Metrics

	fmt.Fprintf(c.out, "\n=== BACKTEST RESULT ===\n")
	fmt.Fprintf(c.out, "  Trades:        %.0f (%.0fW / %.0fL)\n", m["total_trades"], m["wins"], m["losses"])
	fmt.Fprintf(c.out, "  Win rate:      %.1f%%\n", m["win_rate"]*100)
	fmt.Fprintf(c.out, "  Total profit:  $%.2f\n", m["total_profit"])
	fmt.Fprintf(c.out, "  Avg profit:    $%.2f/trade\n", m["avg_profit"])
	fmt.Fprintf(c.out, "  Expectancy:    $%.2f/trade\n", m["expectancy"])
	fmt.Fprintf(c.out, "  Max drawdown:  %.1f%%\n", m["max_drawdown"]*100)
	fmt.Fprintf(c.out, "  Brier score:   %.4f\n", m["brier_score"])
	fmt.Fprintf(c.out, "  Total return:  %.1f%%\n", m["total_return"]*100)
	fmt.Fprintf(c.out, "  Final balance: $%.2f\n", m["final_balance"])
	fmt.Fprintf(c.out, "  Opportunities: %d evaluated, %d accepted\n",
		len(result.Opportunities), len(result.Trades))
}

// printStrategyBreakdown prints win rate and PnL per strategy.
func (c *Console) printStrategyBreakdown(trades []domain.Trade) {
	if len(trades) == 0 {
		return
	}

	type agg struct {
		trades int
		wins   int
		profit float64
	}
	byStrategy := map[string]*agg{}
	var names []string
	for _, t := range trades {
		a, ok := byStrategy[t.Strategy]
		if !ok {
			a = &agg{}
			byStrategy[t.Strategy] = a
			names = append(names, t.Strategy)
		}
		a.trades++
		if t.Result == domain.ResultWin {
			a.wins++
		}
		a.profit += t.Profit
	}
	sort.Strings(names)

	fmt.Fprintf(c.out, "\n--- Per strategy ---\n")
	table := tablewriter.NewWriter(c.out)
	table.Header("Strategy", "Trades", "Win rate", "Profit")
	for _, name := range names {
		a := byStrategy[name]
		table.Append(
			name,
			fmt.Sprintf("%d", a.trades),
			fmt.Sprintf("%.1f%%", float64(a.wins)/float64(a.trades)*100),
			fmt.Sprintf("$%.2f", a.profit),
		)
	}
	table.Render()
}

// printRejections prints a histogram of the risk gate's rejection reasons.
// Reasons embed values, so they are grouped by their prefix up to the colon.
func (c *Console) printRejections(opps []domain.Opportunity) {
	counts := map[string]int{}
	rejected := 0
	for _, o := range opps {
		if o.Accepted {
			continue
		}
		rejected++
		counts[reasonKey(o.Reason)]++
	}
	if rejected == 0 {
		return
	}

	type entry struct {
		reason string
		count  int
	}
	entries := make([]entry, 0, len(counts))
	for r, n := range counts {
		entries = append(entries, entry{r, n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].reason < entries[j].reason
	})

	fmt.Fprintf(c.out, "\n--- Rejections (%d) ---\n", rejected)
	shown := entries
	if len(shown) > c.maxReasons {
		shown = shown[:c.maxReasons]
	}
	for _, e := range shown {
		fmt.Fprintf(c.out, "  %5d  %s\n", e.count, e.reason)
	}
}

// printTrades prints the most recent trades.
func (c *Console) printTrades(trades []domain.Trade) {
	if len(trades) == 0 {
		fmt.Fprintf(c.out, "\n  No trades executed.\n")
		return
	}

	shown := trades
	if len(shown) > c.maxTrades {
		shown = shown[len(shown)-c.maxTrades:]
		fmt.Fprintf(c.out, "\n--- Last %d of %d trades ---\n", len(shown), len(trades))
	} else {
		fmt.Fprintf(c.out, "\n--- Trades ---\n")
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Strategy", "Dir", "Entry", "Exit", "Stake", "Payout", "PWin", "Result", "Profit", "Balance")
	for _, t := range shown {
		table.Append(
			t.Timestamp.UTC().Format(time.DateTime),
			t.Strategy,
			string(t.Direction),
			fmt.Sprintf("%.5f", t.EntryPrice),
			fmt.Sprintf("%.5f", t.ExitPrice),
			fmt.Sprintf("$%.2f", t.Stake),
			fmt.Sprintf("%.0f%%", t.Payout*100),
			fmt.Sprintf("%.3f", t.PWin),
			strings.ToUpper(string(t.Result)),
			fmt.Sprintf("$%.2f", t.Profit),
			fmt.Sprintf("$%.2f", t.Balance),
		)
	}
	table.Render()
}

// reasonKey strips the variable part of a rejection reason.
func reasonKey(reason string) string {
	if idx := strings.Index(reason, ":"); idx > 0 {
		return reason[:idx]
	}
	return reason
}
