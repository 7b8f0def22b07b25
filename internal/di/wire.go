//go:build wireinject
// +build wireinject

package di

import (
	"QuantPulse/pkg/config"
	"QuantPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvidePostgresClient,
		ProvideRedisClient,
		ProvideCache,
		ProvideSignalPublisher,

		// Repositories
		ProvideBarStore,
		ProvideSignalStore,
		ProvidePortfolioStore,
		ProvideAlertStore,

		// Domain services
		ProvidePredictor,
		ProvideNotifier,
		ProvideQueueConsumer,
		ProvideDomainNotifier,
		ProvideOptimizer,

		// Use cases
		ProvideWatchlist,
		ProvideSessionClock,
		ProvideHub,
		ProvideSignalGenerator,
		ProvideRebalancer,
		ProvideRiskMonitor,

		// HTTP surface and application server
		ProvideRouter,
		ProvideApp,
	)
	return &server.App{}, nil
}
