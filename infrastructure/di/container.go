package di

import (
	"notegraph/application/interaction"
	"notegraph/application/state"
	domainconfig "notegraph/domain/config"
	"notegraph/infrastructure/config"
	"notegraph/infrastructure/remotesync"
	"notegraph/infrastructure/render"
	"notegraph/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all client dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Tunables   *domainconfig.DomainConfig
	Metrics    *observability.Metrics
	Tracing    *observability.TracerProvider
	Remote     *remotesync.Client
	Store      *state.GraphStateStore
	Controller *interaction.Controller
	Renderer   render.View
}
