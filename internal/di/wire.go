//go:build wireinject
// +build wireinject

package di

import (
	"BrentCast/pkg/config"
	"BrentCast/pkg/server"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,

	// Infrastructure clients
	ProvideRedisClient,
	ProvideCache,
	ProvideClickHouseClient,
	ProvideKafkaProducer,
	ProvideHTTPClient,

	// Repositories
	ProvidePriceStore,
	ProvideEventPublisher,
	ProvidePriceSource,
	ProvideModelStore,

	// Use cases
	ProvideHistoryService,
	ProvideTrainerConfig,
	ProvideTrainer,
	ProvideComposer,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		coreSet,
		ProvideEventsHub,
		ProvideQueue,
		ProvideTrainDispatcher,
		ProvideHandlers,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeToolkit wires the use cases without the HTTP surface.
func InitializeToolkit(cfg *config.Config) (*Toolkit, func(), error) {
	wire.Build(
		coreSet,
		ProvideNoEventsHub,
		ProvideToolkit,
	)
	return nil, nil, nil
}
