//go:build wireinject
// +build wireinject

package di

import (
	"FairVal/pkg/config"
	"FairVal/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideLimiter,

		// Providers
		ProvideFinnhub,
		ProvideYahoo,

		// Infrastructure
		ProvideCache,
		ProvideHistoryStore,
		ProvideClickHouseClient,
		ProvideSnapshotArchive,
		ProvideKafkaProducer,
		ProvideEventPublisher,

		// Use case and handler
		ProvideLookupUseCase,
		ProvideDashboardHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
