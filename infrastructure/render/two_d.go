package render

import (
	"notegraph/application/ports"
	"notegraph/domain/config"
	"notegraph/domain/core/entities"
)

var _ ports.GraphRenderer = (*TwoDRenderer)(nil)

// TwoDRenderer is the network-diagram view: notes on a plane with labels,
// inferred connections dashed
type TwoDRenderer struct {
	*Renderer
}

// NewTwoDRenderer creates a 2D view. The configuration's dimensions are
// forced to 2.
func NewTwoDRenderer(cfg *config.DomainConfig, opts ...Option) *TwoDRenderer {
	cfg = cfg.Clone()
	cfg.Dimensions = 2
	return &TwoDRenderer{Renderer: newRenderer(cfg, twoDStyle{}, opts...)}
}

type twoDStyle struct{}

func (twoDStyle) Node(e entities.Entity) NodeStyle {
	return NodeStyle{Label: e.Title, Color: e.DisplayColor(), Size: 16}
}

func (twoDStyle) Link(c entities.Connection) LinkStyle {
	return LinkStyle{Color: "#848484", Width: 1, Dashed: c.Kind == entities.KindInferred}
}

// New creates the renderer for a mode, "2d" or "3d"
func New(mode string, cfg *config.DomainConfig, opts ...Option) View {
	if mode == config.ModeTwoD {
		return NewTwoDRenderer(cfg, opts...)
	}
	return NewThreeDRenderer(cfg, opts...)
}
