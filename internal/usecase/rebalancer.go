package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	"QuantPulse/internal/services/portfolio"
	"QuantPulse/pkg/logger"
	"QuantPulse/pkg/util"
)

const (
	// Trades below this dollar value are dropped from the trade list.
	minTradeValue = 10.0

	returnLookbackBars = 252
	defaultRiskFree    = 0.04
)

// Rebalancer runs portfolio optimizations and applies the accepted
// result atomically. Rebalances for the same portfolio never
// interleave; a per-portfolio lock serializes them.
type Rebalancer struct {
	portfolios domrepo.PortfolioStore
	bars       domrepo.BarStore
	optimizer  *portfolio.Optimizer
	metrics    domrepo.Metrics
	log        *logger.Logger

	riskFreeRate float64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRebalancer wires a rebalancer over the given stores.
func NewRebalancer(portfolios domrepo.PortfolioStore, bars domrepo.BarStore, opt *portfolio.Optimizer, metrics domrepo.Metrics, log *logger.Logger) *Rebalancer {
	return &Rebalancer{
		portfolios:   portfolios,
		bars:         bars,
		optimizer:    opt,
		metrics:      metrics,
		log:          log,
		riskFreeRate: defaultRiskFree,
		locks:        make(map[string]*sync.Mutex),
	}
}

// Optimize runs the named strategy over a portfolio's assets, writes
// the new weights plus a rebalance record in one transaction, and
// returns the record.
func (r *Rebalancer) Optimize(ctx context.Context, portfolioID, strategy, reason string) (*models.Rebalance, error) {
	lock := r.portfolioLock(portfolioID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()

	p, err := r.portfolios.Get(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}
	assets, err := r.portfolios.GetAssets(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	if len(assets) == 0 {
		return nil, portfolio.ErrEmptyBasket
	}

	basket, err := r.buildBasket(ctx, assets)
	if err != nil {
		return nil, err
	}

	result, err := r.runStrategy(strategy, basket)
	if err != nil {
		return nil, err
	}

	prev := make(map[string]float64, len(assets))
	prices := make(map[string]float64, len(assets))
	shares := make(map[string]float64, len(assets))
	for _, a := range assets {
		prev[a.Symbol] = a.Weight
		prices[a.Symbol] = a.CurrentPrice
	}

	value := portfolioValue(p, assets)
	trades := BuildTradeList(prev, result.Weights, prices, value)
	for sym, w := range result.Weights {
		if price := prices[sym]; price > 0 {
			shares[sym] = w * value / price
		}
	}

	rebalance := &models.Rebalance{
		ID:              uuid.NewString(),
		PortfolioID:     portfolioID,
		Date:            time.Now().UTC(),
		Strategy:        result.Strategy,
		PreviousWeights: prev,
		NewWeights:      result.Weights,
		Trades:          trades,
		Performance: models.PerformanceSnapshot{
			Return:     result.ExpectedReturn,
			Sharpe:     result.Sharpe,
			Volatility: result.Volatility,
		},
		Reason: reason,
	}

	if err := r.portfolios.ApplyRebalance(ctx, rebalance, result.Weights, shares); err != nil {
		r.metrics.RecordError("rebalance_apply")
		return nil, fmt.Errorf("apply rebalance: %w", err)
	}

	r.metrics.RecordLatency("rebalance", time.Since(started).Seconds())
	r.log.Info("portfolio rebalanced",
		logger.String("portfolio_id", portfolioID),
		logger.String("strategy", result.Strategy),
		logger.Int("trades", len(trades)))

	return rebalance, nil
}

// Frontier computes the efficient frontier for a portfolio's basket.
func (r *Rebalancer) Frontier(ctx context.Context, portfolioID string, points int) ([]models.FrontierPoint, error) {
	assets, err := r.portfolios.GetAssets(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	basket, err := r.buildBasket(ctx, assets)
	if err != nil {
		return nil, err
	}
	return r.optimizer.EfficientFrontier(basket, points, r.riskFreeRate)
}

func (r *Rebalancer) runStrategy(strategy string, basket []portfolio.Asset) (portfolio.Result, error) {
	switch strategy {
	case models.StrategyMaxSharpe, "":
		return r.optimizer.MaxSharpe(basket, r.riskFreeRate)
	case models.StrategyRiskParity:
		return r.optimizer.RiskParity(basket, r.riskFreeRate)
	case models.StrategyEqualWeight:
		return r.optimizer.EqualWeight(basket, r.riskFreeRate)
	default:
		return portfolio.Result{}, fmt.Errorf("unknown strategy %q", strategy)
	}
}

// buildBasket enriches each holding with its historical return series.
// A missing series is tolerated; the optimizer falls back to the
// stated volatility for that asset.
func (r *Rebalancer) buildBasket(ctx context.Context, assets []models.PortfolioAsset) ([]portfolio.Asset, error) {
	if len(assets) == 0 {
		return nil, portfolio.ErrEmptyBasket
	}

	basket := make([]portfolio.Asset, 0, len(assets))
	for _, a := range assets {
		asset := portfolio.Asset{
			Symbol:         a.Symbol,
			ExpectedReturn: a.ExpectedReturn,
			Volatility:     a.Volatility,
		}
		bars, err := r.bars.GetLatestNBars(ctx, a.Symbol, returnLookbackBars, domrepo.DefaultTimeframe())
		if err != nil {
			r.log.Warn("return series unavailable",
				logger.String("symbol", a.Symbol), logger.Error(err))
		} else if len(bars) > 1 {
			asset.Returns = models.CloseReturns(bars)
			if asset.Volatility == 0 {
				asset.Volatility = util.SampleStdDev(asset.Returns) * math.Sqrt(252)
			}
		}
		basket = append(basket, asset)
	}
	return basket, nil
}

// BuildTradeList converts a weight change into buy/sell deltas,
// dropping trades under the minimum dollar threshold.
func BuildTradeList(prev, next map[string]float64, prices map[string]float64, totalValue float64) []models.RebalanceTrade {
	var trades []models.RebalanceTrade
	for sym, target := range next {
		delta := (target - prev[sym]) * totalValue
		if math.Abs(delta) < minTradeValue {
			continue
		}
		action := "buy"
		if delta < 0 {
			action = "sell"
		}
		var shareDelta float64
		if price := prices[sym]; price > 0 {
			shareDelta = math.Abs(delta) / price
		}
		trades = append(trades, models.RebalanceTrade{
			Symbol: sym,
			Action: action,
			Shares: shareDelta,
			Value:  math.Abs(delta),
		})
	}
	// symbols dropped from the target are full sells
	for sym, w := range prev {
		if _, kept := next[sym]; kept || w == 0 {
			continue
		}
		value := w * totalValue
		if value < minTradeValue {
			continue
		}
		var shareDelta float64
		if price := prices[sym]; price > 0 {
			shareDelta = value / price
		}
		trades = append(trades, models.RebalanceTrade{
			Symbol: sym,
			Action: "sell",
			Shares: shareDelta,
			Value:  value,
		})
	}
	return trades
}

func (r *Rebalancer) portfolioLock(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[id] = lock
	}
	return lock
}

func portfolioValue(p *models.Portfolio, assets []models.PortfolioAsset) float64 {
	var value float64
	for _, a := range assets {
		value += a.Shares * a.CurrentPrice
	}
	if value == 0 {
		value = p.CurrentValue
	}
	if value == 0 {
		value = p.InitialCapital
	}
	return value
}
