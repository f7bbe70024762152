//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"notegraph/application/ports"
	"notegraph/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideTunables,
	ProvideMetrics,
	ProvideTracing,
	ProvideRemoteClient,
	ProvideStore,
	ProvideController,
	ProvideRenderer,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The cleanup shuts down
// tracing and flushes the logger.
func InitializeContainer(ctx context.Context, cfg *config.Config, notifier ports.Notifier) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
