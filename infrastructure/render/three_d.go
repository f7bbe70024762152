package render

import (
	"notegraph/application/ports"
	"notegraph/domain/config"
	"notegraph/domain/core/entities"
)

var _ ports.GraphRenderer = (*ThreeDRenderer)(nil)

// ThreeDRenderer is the force-graph view: notes in 3D space, sized by content
type ThreeDRenderer struct {
	*Renderer
}

// NewThreeDRenderer creates a 3D view. The configuration's dimensions are
// forced to 3.
func NewThreeDRenderer(cfg *config.DomainConfig, opts ...Option) *ThreeDRenderer {
	cfg = cfg.Clone()
	cfg.Dimensions = 3
	return &ThreeDRenderer{Renderer: newRenderer(cfg, threeDStyle{}, opts...)}
}

type threeDStyle struct{}

func (threeDStyle) Node(e entities.Entity) NodeStyle {
	return NodeStyle{Label: e.Title, Color: e.DisplayColor(), Size: e.NodeValue()}
}

func (threeDStyle) Link(c entities.Connection) LinkStyle {
	if c.Kind == entities.KindManual {
		return LinkStyle{Color: "#ffffff", Width: 2}
	}
	return LinkStyle{Color: "#555555", Width: 1}
}
