//go:build wireinject
// +build wireinject

package di

import (
	"github.com/123jlee/market-workflow-app/pkg/config"
	"github.com/123jlee/market-workflow-app/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideThresholds,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideLevelStore,
		ProvideMarketData,
		ProvidePriceStream,
		ProvideSignalPublisher,
		ProvideSignalHistory,

		// Use cases
		ProvideSnapshotUseCase,
		ProvideScanUseCase,
		ProvideTickCollector,
		ProvideKafkaSignalsHandler,

		// Delivery
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
