package live

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/binarybot/config"
	"github.com/alejandrodnm/binarybot/internal/bandit"
	"github.com/alejandrodnm/binarybot/internal/domain"
	"github.com/alejandrodnm/binarybot/internal/features"
	"github.com/alejandrodnm/binarybot/internal/model"
	"github.com/alejandrodnm/binarybot/internal/ports"
	"github.com/alejandrodnm/binarybot/internal/risk"
	"github.com/alejandrodnm/binarybot/internal/strategy"
)

const (
	historyWindow = 100 // enriched bars kept in memory
	minHistory    = 50  // bars required before trading starts
)

// activeTrade remembers what the decision looked like at entry, so the
// model and the bandit are credited against the exact features and
// strategy that produced the trade.
type activeTrade struct {
	features []float64
	strategy string
}

// Runner drives the live/demo loop: refresh history, resolve expired
// trades, evaluate new signals and place trades through the broker. It
// stops when its context is cancelled.
type Runner struct {
	cfg        *config.Config
	broker     ports.Broker
	loader     ports.BarLoader
	strategies []strategy.SignalStrategy
	model      model.OnlineModel
	bandit     *bandit.EpsilonGreedy
	risk       *risk.Manager
	log        *slog.Logger

	active map[string]activeTrade
	bars   []domain.Bar
	day    time.Time
}

// NewRunner wires a runner from a validated config.
func NewRunner(cfg *config.Config, broker ports.Broker, loader ports.BarLoader, rngSeed int64) (*Runner, error) {
	m, err := model.New(cfg.Model.Type, cfg.Model.Calibration)
	if err != nil {
		return nil, fmt.Errorf("live.NewRunner: %w", err)
	}

	r := &Runner{
		cfg:        cfg,
		broker:     broker,
		loader:     loader,
		strategies: strategy.Build(cfg),
		model:      m,
		risk:       risk.NewManager(cfg.Risk),
		log:        slog.With("component", "live"),
		active:     make(map[string]activeTrade),
	}
	if cfg.Bandit.Enabled {
		r.bandit = bandit.New(cfg.EnabledStrategies(), cfg.Bandit.Epsilon, rand.New(rand.NewSource(rngSeed)))
	}
	return r, nil
}

// Run executes the polling loop until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("live loop started",
		"symbol", r.cfg.Symbol,
		"timeframe", r.cfg.Timeframe,
		"check_interval", r.cfg.CheckInterval().String(),
	)
	defer r.logFinalStats(ctx)

	limiter := rate.NewLimiter(rate.Every(r.cfg.CheckInterval()), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil // context cancelled
		}
		if err := r.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.log.Error("cycle failed", "error", err)
		}
	}
}

// cycle runs one polling iteration.
func (r *Runner) cycle(ctx context.Context) error {
	r.rolloverDay()

	if err := r.refreshHistory(ctx); err != nil {
		return err
	}
	if err := r.resolveActiveTrades(ctx); err != nil {
		return err
	}

	open, err := r.broker.IsMarketOpen(ctx, r.cfg.Symbol)
	if err != nil {
		return fmt.Errorf("live.cycle: market open check: %w", err)
	}
	if !open {
		r.log.Info("market closed, waiting")
		return nil
	}

	if len(r.active) >= r.cfg.Live.MaxConcurrentTrades {
		return nil
	}
	if len(r.bars) < minHistory {
		r.log.Info("waiting for history", "bars", len(r.bars))
		return nil
	}

	return r.evaluate(ctx)
}

// evaluate checks the latest bar for a signal and places a trade when the
// risk gate accepts it.
func (r *Runner) evaluate(ctx context.Context) error {
	idx := len(r.bars) - 1
	bar := r.bars[idx]

	sig := r.pick(idx, bar)
	if sig == nil {
		return nil
	}

	vec := features.Vector(bar, r.cfg)
	pWin := r.model.PredictProba(vec)

	payout, err := r.broker.GetPayout(ctx, r.cfg.Symbol)
	if err != nil {
		return fmt.Errorf("live.evaluate: get payout: %w", err)
	}
	balance, err := r.broker.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("live.evaluate: get balance: %w", err)
	}

	ok, reason := r.risk.ShouldTrade(pWin, payout, balance)
	if !ok {
		r.log.Info("trade rejected", "reason", reason, "strategy", sig.Strategy)
		return nil
	}

	stake := r.risk.CalculateStake(balance)
	trade, err := r.broker.PlaceTrade(ctx, domain.Trade{
		Symbol:    r.cfg.Symbol,
		Strategy:  sig.Strategy,
		Direction: sig.Direction,
		Stake:     stake,
		Payout:    payout,
		PWin:      pWin,
		Expiry:    r.cfg.Expiry,
	})
	if err != nil {
		return fmt.Errorf("live.evaluate: place trade: %w", err)
	}

	r.active[trade.ID] = activeTrade{features: vec, strategy: sig.Strategy}
	r.log.Info("trade opened",
		"id", trade.ID,
		"strategy", sig.Strategy,
		"direction", string(sig.Direction),
		"p_win", pWin,
		"payout", payout,
		"stake", stake,
	)
	return nil
}

// resolveActiveTrades settles expired trades and feeds the learners.
func (r *Runner) resolveActiveTrades(ctx context.Context) error {
	for id, at := range r.active {
		trade, err := r.broker.CheckTradeResult(ctx, id)
		if err != nil {
			return fmt.Errorf("live.resolveActiveTrades: %w", err)
		}
		if !trade.Resolved() {
			continue
		}
		delete(r.active, id)

		// Ties carry no directional information; only the risk counters
		// see them.
		if trade.Result != domain.ResultTie {
			label := 0
			if trade.Result == domain.ResultWin {
				label = 1
			}
			r.model.Update(at.features, label)
			if r.bandit != nil {
				r.bandit.Update(at.strategy, float64(label))
			}
		}
		if trade.Stake > 0 {
			r.risk.UpdateDailyPnL(trade.Profit / trade.Stake)
		}

		r.log.Info("trade resolved",
			"id", id,
			"result", string(trade.Result),
			"profit", trade.Profit,
			"balance", trade.Balance,
		)
	}
	return nil
}

// refreshHistory reloads and enriches the recent bars.
func (r *Runner) refreshHistory(ctx context.Context) error {
	step, err := config.ParseTimeframe(r.cfg.Timeframe)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	start := now.Add(-time.Duration(2*historyWindow) * step)

	bars, err := r.loader.Load(ctx, r.cfg.Symbol, r.cfg.Timeframe, start, now)
	if err != nil {
		return fmt.Errorf("live.refreshHistory: %w", err)
	}

	enriched := features.Enrich(bars, r.cfg)
	if len(enriched) > historyWindow {
		enriched = enriched[len(enriched)-historyWindow:]
	}
	r.bars = enriched
	return nil
}

// pick collects the latest bar's signals and arbitrates, mirroring the
// backtest engine's selection.
func (r *Runner) pick(idx int, bar domain.Bar) *domain.Signal {
	type fired struct {
		name string
		sig  *domain.Signal
	}
	var signals []fired
	for _, s := range r.strategies {
		sig := s.GenerateSignal(r.bars, idx)
		if sig == nil {
			continue
		}
		if !sig.Direction.Valid() {
			r.log.Warn("dropping signal with invalid direction",
				"strategy", s.Name(),
				"direction", string(sig.Direction),
			)
			continue
		}
		signals = append(signals, fired{name: s.Name(), sig: sig})
	}
	if len(signals) == 0 {
		return nil
	}

	if r.bandit != nil {
		chosen := r.bandit.SelectStrategy(bandit.Context{
			Hour:       bar.Hour,
			Volatility: bar.Volatility,
		})
		for _, f := range signals {
			if f.name == chosen {
				return f.sig
			}
		}
	}
	return signals[0].sig
}

// rolloverDay resets the daily risk counters at UTC midnight.
func (r *Runner) rolloverDay() {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if r.day.IsZero() {
		r.day = today
		return
	}
	if !today.Equal(r.day) {
		r.day = today
		r.risk.ResetDailyStats()
		r.log.Info("new trading day, daily stats reset")
	}
}

func (r *Runner) logFinalStats(ctx context.Context) {
	balance, err := r.broker.GetBalance(ctx)
	if err != nil {
		r.log.Warn("final balance unavailable", "error", err)
		return
	}
	r.log.Info("live loop stopped",
		"balance", balance,
		"daily_pnl_r", r.risk.DailyPnL(),
		"daily_trades", r.risk.DailyTrades(),
	)
}
