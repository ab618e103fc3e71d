package backtest

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/alejandrodnm/binarybot/config"
	"github.com/alejandrodnm/binarybot/internal/bandit"
	"github.com/alejandrodnm/binarybot/internal/domain"
	"github.com/alejandrodnm/binarybot/internal/features"
	"github.com/alejandrodnm/binarybot/internal/model"
	"github.com/alejandrodnm/binarybot/internal/risk"
	"github.com/alejandrodnm/binarybot/internal/strategy"
)

// Engine replays enriched bars through the full decision pipeline:
// strategies propose, the bandit arbitrates, the model scores, the risk
// manager gates, and the simulated broker resolves. All randomness (payout
// variation, slippage, bandit exploration) flows from one seeded RNG, so a
// run is fully reproducible from its config.
//
// An Engine is single-use: build one per run.
type Engine struct {
	cfg        *config.Config
	strategies []strategy.SignalStrategy
	model      model.OnlineModel
	bandit     *bandit.EpsilonGreedy
	risk       *risk.Manager
	rng        *rand.Rand
	log        *slog.Logger

	ran bool
}

// New wires an engine from a validated config.
func New(cfg *config.Config) (*Engine, error) {
	m, err := model.New(cfg.Model.Type, cfg.Model.Calibration)
	if err != nil {
		return nil, fmt.Errorf("backtest.New: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Backtest.Seed))

	e := &Engine{
		cfg:        cfg,
		strategies: strategy.Build(cfg),
		model:      m,
		risk:       risk.NewManager(cfg.Risk),
		rng:        rng,
		log:        slog.With("component", "backtest"),
	}
	if cfg.Bandit.Enabled {
		e.bandit = bandit.New(cfg.EnabledStrategies(), cfg.Bandit.Epsilon, rng)
	}
	return e, nil
}

// Run replays the bars in order and returns the full result: every trade,
// every evaluated opportunity, the bar-by-bar equity curve and the
// aggregate metrics. The bars must already be enriched.
func (e *Engine) Run(bars []domain.Bar) (*domain.Result, error) {
	if e.ran {
		return nil, fmt.Errorf("backtest.Run: engine already ran, build a new one")
	}
	e.ran = true

	if err := domain.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("backtest.Run: %w", err)
	}

	barSeconds := e.cfg.BarSeconds()
	exitOffset := (e.cfg.Expiry + barSeconds - 1) / barSeconds

	balance := e.cfg.Backtest.InitialBalance
	res := &domain.Result{
		EquityCurve: make([]float64, 1, len(bars)+1),
	}
	res.EquityCurve[0] = balance

	e.log.Info("run started",
		"symbol", e.cfg.Symbol,
		"bars", len(bars),
		"seed", e.cfg.Backtest.Seed,
		"expiry_bars", exitOffset,
	)

	// The risk manager's daily counters are never reset inside a run: a
	// tripped circuit breaker halts trading for the remainder of the
	// backtest. Only the live loop's day-boundary trigger resets them.
	for idx, bar := range bars {
		sig := e.pick(bars, idx, bar)
		if sig == nil {
			res.EquityCurve = append(res.EquityCurve, balance)
			continue
		}

		vec := features.Vector(bar, e.cfg)
		pWin := e.model.PredictProba(vec)
		payout := e.simulatePayout()

		ok, reason := e.risk.ShouldTrade(pWin, payout, balance)
		res.Opportunities = append(res.Opportunities, domain.Opportunity{
			Timestamp: bar.Timestamp,
			Strategy:  sig.Strategy,
			Direction: sig.Direction,
			PWin:      pWin,
			Payout:    payout,
			Accepted:  ok,
			Reason:    reason,
			Balance:   balance,
		})
		if !ok {
			res.EquityCurve = append(res.EquityCurve, balance)
			continue
		}

		stake := e.risk.CalculateStake(balance)
		entry := bar.Close

		exitIdx := idx + exitOffset
		if exitIdx >= len(bars) {
			exitIdx = len(bars) - 1
		}
		exit := bars[exitIdx].Close
		if s := e.cfg.Backtest.Slippage; s > 0 {
			sign := 1.0
			if e.rng.Float64() < 0.5 {
				sign = -1.0
			}
			exit += exit * s * sign
		}

		won := (sig.Direction == domain.DirectionCall && exit > entry) ||
			(sig.Direction == domain.DirectionPut && exit < entry)

		profit := -stake
		result := domain.ResultLoss
		label := 0
		if won {
			profit = stake * payout
			result = domain.ResultWin
			label = 1
		}
		balance += profit

		res.Trades = append(res.Trades, domain.Trade{
			ID:         uuid.NewString(),
			Symbol:     e.cfg.Symbol,
			Timestamp:  bar.Timestamp,
			Strategy:   sig.Strategy,
			Direction:  sig.Direction,
			EntryPrice: entry,
			ExitPrice:  exit,
			ExitTime:   bars[exitIdx].Timestamp,
			Stake:      stake,
			Payout:     payout,
			PWin:       pWin,
			Expiry:     e.cfg.Expiry,
			Result:     result,
			Profit:     profit,
			Balance:    balance,
		})

		e.model.Update(vec, label)
		if e.bandit != nil {
			e.bandit.Update(sig.Strategy, float64(label))
		}
		e.risk.UpdateDailyPnL(profit / stake)

		res.EquityCurve = append(res.EquityCurve, balance)
	}

	res.Metrics = computeMetrics(res.Trades, res.EquityCurve, e.cfg.Backtest.InitialBalance)

	e.log.Info("run finished",
		"trades", len(res.Trades),
		"opportunities", len(res.Opportunities),
		"final_balance", balance,
	)
	return res, nil
}

// pick collects this bar's signals and arbitrates between them. With the
// bandit enabled, the selected arm's signal wins when that strategy fired;
// otherwise the first firing strategy does.
func (e *Engine) pick(bars []domain.Bar, idx int, bar domain.Bar) *domain.Signal {
	type fired struct {
		name string
		sig  *domain.Signal
	}
	var signals []fired
	for _, s := range e.strategies {
		sig := s.GenerateSignal(bars, idx)
		if sig == nil {
			continue
		}
		if !sig.Direction.Valid() {
			e.log.Warn("dropping signal with invalid direction",
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

	if e.bandit != nil {
		chosen := e.bandit.SelectStrategy(bandit.Context{
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

// simulatePayout draws the broker payout for this bar: 0.85 plus a small
// uniform wobble, clipped to [0.70, 0.95].
func (e *Engine) simulatePayout() float64 {
	p := 0.85 + (e.rng.Float64()*2-1)*0.05
	return math.Min(0.95, math.Max(0.70, p))
}
