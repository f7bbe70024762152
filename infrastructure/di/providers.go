package di

import (
	"context"
	"fmt"

	"notegraph/application/interaction"
	"notegraph/application/ports"
	"notegraph/application/state"
	domainconfig "notegraph/domain/config"
	"notegraph/infrastructure/config"
	"notegraph/infrastructure/remotesync"
	"notegraph/infrastructure/render"
	"notegraph/pkg/observability"

	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance. The cleanup flushes it.
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideTunables resolves the interaction and layout parameters
func ProvideTunables(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	return cfg.DomainConfig()
}

// ProvideMetrics creates the metrics collector
func ProvideMetrics() *observability.Metrics {
	return observability.NewMetrics("notegraph")
}

// ProvideTracing starts tracing when an OTLP endpoint is configured
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "notegraph",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRate:  cfg.TraceSampleRate,
		Insecure:    !cfg.IsProduction(),
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideRemoteClient creates the graph service client
func ProvideRemoteClient(
	cfg *config.Config,
	metrics *observability.Metrics,
	tp *observability.TracerProvider,
	logger *zap.Logger,
) (*remotesync.Client, error) {
	return remotesync.NewClient(cfg.APIURL,
		remotesync.WithTimeout(cfg.RequestTimeout),
		remotesync.WithMetrics(metrics),
		remotesync.WithTracer(tp.Tracer()),
		remotesync.WithLogger(logger.Named("remote")),
	)
}

// ProvideStore creates the local graph mirror
func ProvideStore() *state.GraphStateStore {
	return state.NewGraphStateStore()
}

// ProvideController creates the interaction controller
func ProvideController(
	store *state.GraphStateStore,
	client *remotesync.Client,
	notifier ports.Notifier,
	tunables *domainconfig.DomainConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*interaction.Controller, error) {
	return interaction.NewController(store, client, notifier, tunables, metrics, logger.Named("interaction"))
}

// ProvideRenderer creates the view for the configured mode
func ProvideRenderer(
	cfg *config.Config,
	tunables *domainconfig.DomainConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) render.View {
	return render.New(cfg.Mode, tunables,
		render.WithMetrics(metrics),
		render.WithLogger(logger.Named("render")),
	)
}
