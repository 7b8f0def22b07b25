package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	domsvc "QuantPulse/internal/domain/service"
	"QuantPulse/internal/services/risk"
	"QuantPulse/pkg/cache"
	"QuantPulse/pkg/logger"
)

// Confidence thresholds for signal classification.
const (
	tradeConfidence = 70.0
	alertConfidence = 50.0
)

const (
	atrLookbackBars = 50
	atrMultiplier   = 2.0
	cacheTTL        = 10 * time.Minute
)

// SignalBroadcaster pushes a freshly generated signal to connected
// clients. Delivery is best-effort.
type SignalBroadcaster interface {
	BroadcastSignal(sig *models.Signal)
}

// SessionClock reports the current market session.
type SessionClock interface {
	Session() string
}

// SignalGenerator runs the periodic generation cycle: one prediction
// per watch-list symbol, classified, persisted, broadcast, exported.
type SignalGenerator struct {
	clock       SessionClock
	watchlist   *Watchlist
	predictor   domsvc.Predictor
	notifier    domsvc.Notifier
	bars        domrepo.BarStore
	signals     domrepo.SignalStore
	publisher   domrepo.SignalPublisher
	broadcaster SignalBroadcaster
	cache       cache.Service
	metrics     domrepo.Metrics
	log         *logger.Logger

	horizonDays int
	throttle    time.Duration
	signalTTL   time.Duration
}

// SignalGeneratorDeps bundles the generator's collaborators.
type SignalGeneratorDeps struct {
	Clock       SessionClock
	Watchlist   *Watchlist
	Predictor   domsvc.Predictor
	Notifier    domsvc.Notifier
	Bars        domrepo.BarStore
	Signals     domrepo.SignalStore
	Publisher   domrepo.SignalPublisher
	Broadcaster SignalBroadcaster
	Cache       cache.Service
	Metrics     domrepo.Metrics
	Logger      *logger.Logger

	HorizonDays int
	Throttle    time.Duration
	SignalTTL   time.Duration
}

// NewSignalGenerator wires a generator. HorizonDays, Throttle and
// SignalTTL fall back to sane defaults when zero.
func NewSignalGenerator(deps SignalGeneratorDeps) *SignalGenerator {
	if deps.HorizonDays <= 0 {
		deps.HorizonDays = 5
	}
	if deps.Throttle <= 0 {
		deps.Throttle = 2 * time.Second
	}
	if deps.SignalTTL <= 0 {
		deps.SignalTTL = 24 * time.Hour
	}
	return &SignalGenerator{
		clock:       deps.Clock,
		watchlist:   deps.Watchlist,
		predictor:   deps.Predictor,
		notifier:    deps.Notifier,
		bars:        deps.Bars,
		signals:     deps.Signals,
		publisher:   deps.Publisher,
		broadcaster: deps.Broadcaster,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		log:         deps.Logger,
		horizonDays: deps.HorizonDays,
		throttle:    deps.Throttle,
		signalTTL:   deps.SignalTTL,
	}
}

// RunCycle generates one signal per watch-list symbol. A failure for
// one symbol is logged and the loop moves on; the cycle never aborts.
func (g *SignalGenerator) RunCycle(ctx context.Context) {
	if g.clock.Session() == SessionClosed {
		g.log.Debug("market closed, skipping generation cycle")
		return
	}

	symbols := g.watchlist.Symbols()
	g.log.Info("starting generation cycle", logger.Int("symbols", len(symbols)))

	for i, symbol := range symbols {
		started := time.Now()
		sig, err := g.GenerateForSymbol(ctx, symbol)
		if err != nil {
			g.metrics.RecordError("signal_generation")
			g.log.Error("signal generation failed",
				logger.String("symbol", symbol),
				logger.Error(err))
		} else {
			g.metrics.RecordLatency("signal_generation", time.Since(started).Seconds())
			g.log.Info("signal generated",
				logger.String("symbol", symbol),
				logger.String("signal_type", sig.SignalType),
				logger.Float64("confidence", sig.Confidence))
		}

		if i < len(symbols)-1 {
			select {
			case <-time.After(g.throttle):
			case <-ctx.Done():
				return
			}
		}
	}
}

// GenerateForSymbol produces, persists and distributes one signal.
func (g *SignalGenerator) GenerateForSymbol(ctx context.Context, symbol string) (*models.Signal, error) {
	pred, err := g.predictor.Generate(ctx, symbol, g.horizonDays)
	if err != nil {
		return nil, fmt.Errorf("prediction: %w", err)
	}

	sig := g.buildSignal(ctx, symbol, pred)

	if err := g.signals.Insert(ctx, sig); err != nil {
		return nil, fmt.Errorf("persist signal: %w", err)
	}
	g.metrics.RecordSignalGenerated(symbol, sig.SignalType)

	if g.cache != nil {
		key := cache.GenerateKey("signal:latest", symbol)
		if err := g.cache.Set(ctx, key, sig, cacheTTL); err != nil {
			g.log.Warn("cache latest signal", logger.String("symbol", symbol), logger.Error(err))
		}
	}

	if g.publisher != nil {
		if err := g.publisher.Publish(ctx, sig); err != nil {
			g.metrics.RecordError("signal_publish")
			g.log.Error("publish signal", logger.String("symbol", symbol), logger.Error(err))
		}
	}

	if g.broadcaster != nil {
		g.broadcaster.BroadcastSignal(sig)
	}

	g.maybeNotify(ctx, sig)
	return sig, nil
}

// buildSignal derives price, stop and target for the prediction and
// classifies it by confidence.
func (g *SignalGenerator) buildSignal(ctx context.Context, symbol string, pred models.Prediction) *models.Signal {
	now := time.Now().UTC()

	var lastClose float64
	stops := models.ATRStopResult{}
	bars, err := g.bars.GetLatestNBars(ctx, symbol, atrLookbackBars, domrepo.DefaultTimeframe())
	if err != nil || len(bars) == 0 {
		if err != nil {
			g.log.Warn("bar lookup failed, using percentage stops",
				logger.String("symbol", symbol), logger.Error(err))
		}
		if pred.PriceTarget > 0 {
			stops = risk.ATRStopsFromCloses([]float64{pred.PriceTarget}, risk.DefaultATRPeriod, atrMultiplier)
			lastClose = pred.PriceTarget
		}
	} else {
		stops = risk.ATRStops(bars, risk.DefaultATRPeriod, atrMultiplier)
		lastClose = bars[len(bars)-1].Close
	}

	target := pred.PriceTarget
	if target == 0 {
		target = stops.Target
	}

	riskLevel := pred.RiskLevel
	if riskLevel == "" {
		riskLevel = models.RiskMedium
	}

	return &models.Signal{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		SignalType:  classify(pred.Confidence, pred.Direction),
		Confidence:  pred.Confidence,
		Direction:   pred.Direction,
		Price:       lastClose,
		TargetPrice: target,
		StopLoss:    stops.StopLoss,
		LayerScores: pred.LayerBreakdown,
		KeyFactors:  flattenFactors(pred.KeyFactors),
		RiskLevel:   riskLevel,
		Source:      "prediction",
		IsActive:    true,
		ExpiresAt:   now.Add(g.signalTTL),
		CreatedAt:   now,
	}
}

// maybeNotify fires notifications for actionable signals. Delivery
// failures never fail generation.
func (g *SignalGenerator) maybeNotify(ctx context.Context, sig *models.Signal) {
	if g.notifier == nil || sig.Confidence < tradeConfidence || sig.SignalType == models.SignalHold {
		return
	}
	if err := g.notifier.SendToAllTargets(ctx, sig); err != nil {
		g.metrics.RecordError("notification")
		g.log.Error("notify targets", logger.String("symbol", sig.Symbol), logger.Error(err))
		return
	}
	sig.Notified = true
	if err := g.signals.MarkNotified(ctx, sig.ID); err != nil {
		g.log.Warn("mark notified", logger.String("signal_id", sig.ID), logger.Error(err))
	}
}

// ExpireStale deactivates signals past their expiry.
func (g *SignalGenerator) ExpireStale(ctx context.Context) {
	n, err := g.signals.ExpireStale(ctx, time.Now().UTC())
	if err != nil {
		g.metrics.RecordError("signal_expiry")
		g.log.Error("expire stale signals", logger.Error(err))
		return
	}
	if n > 0 {
		g.log.Info("expired stale signals", logger.Int64("count", n))
	}
}

func classify(confidence float64, direction string) string {
	switch {
	case confidence >= tradeConfidence && direction == models.DirectionUp:
		return models.SignalBuy
	case confidence >= tradeConfidence && direction == models.DirectionDown:
		return models.SignalSell
	case confidence >= alertConfidence:
		return models.SignalAlert
	default:
		return models.SignalHold
	}
}

func flattenFactors(kf models.KeyFactors) []string {
	out := make([]string, 0, len(kf.Bullish)+len(kf.Bearish))
	out = append(out, kf.Bullish...)
	out = append(out, kf.Bearish...)
	return out
}
