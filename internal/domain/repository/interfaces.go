package repository

import (
	"context"
	"time"

	"QuantPulse/internal/domain/models"
)

// BarStore provides read-only access to OHLCV series for the analyzers.
type BarStore interface {
	GetBars(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.PriceBar, error)
	GetLatestNBars(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.PriceBar, error)
}

// SignalStore is the system of record for generated signals.
type SignalStore interface {
	Insert(ctx context.Context, s *models.Signal) error
	List(ctx context.Context, symbol string, activeOnly bool, limit int) ([]models.Signal, error)
	MarkNotified(ctx context.Context, id string) error
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// PortfolioStore persists portfolios, their assets, and rebalance audit
// records. ApplyRebalance must write new weights and the rebalance row
// in a single transaction.
type PortfolioStore interface {
	Create(ctx context.Context, p *models.Portfolio) error
	Get(ctx context.Context, id string) (*models.Portfolio, error)
	List(ctx context.Context, ownerID string) ([]models.Portfolio, error)
	Update(ctx context.Context, p *models.Portfolio) error
	Delete(ctx context.Context, id string) error

	UpsertAsset(ctx context.Context, a *models.PortfolioAsset) error
	RemoveAsset(ctx context.Context, portfolioID, symbol string) error
	GetAssets(ctx context.Context, portfolioID string) ([]models.PortfolioAsset, error)

	ApplyRebalance(ctx context.Context, r *models.Rebalance, weights map[string]float64, shares map[string]float64) error
	ListRebalances(ctx context.Context, portfolioID string, limit int) ([]models.Rebalance, error)
}

// AlertStore persists risk alerts. Alerts are append-only; only the
// acknowledged flag ever changes.
type AlertStore interface {
	Insert(ctx context.Context, a *models.RiskAlert) error
	List(ctx context.Context, portfolioID string, unackedOnly bool) ([]models.RiskAlert, error)
	Acknowledge(ctx context.Context, id string) error
}

// SignalPublisher exports persisted signals to an event stream.
type SignalPublisher interface {
	Publish(ctx context.Context, s *models.Signal) error
	Close() error
}

// Metrics abstracts engine instrumentation.
type Metrics interface {
	RecordSignalGenerated(symbol, signalType string)
	RecordBroadcast(messageType string, clients int)
	RecordClientCount(n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
