package render

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"notegraph/application/ports"
	"notegraph/domain/config"
	"notegraph/domain/core/aggregates"
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
	pkgerrors "notegraph/pkg/errors"
	"notegraph/pkg/observability"
)

// NodeStyle is how a note is drawn
type NodeStyle struct {
	Label string
	Color string
	Size  float64
}

// LinkStyle is how a connection is drawn
type LinkStyle struct {
	Color  string
	Width  float64
	Dashed bool
}

// Styler decides the look of notes and connections for one view
type Styler interface {
	Node(e entities.Entity) NodeStyle
	Link(c entities.Connection) LinkStyle
}

// View is a renderer variant driven by the CLI
type View interface {
	ports.GraphRenderer

	Configure(cfg *config.DomainConfig)
	Tick() map[valueobjects.EntityID]valueobjects.Position
	Run(ctx context.Context, interval time.Duration) error
	Settle(max int) int
	Drag(id valueobjects.EntityID, pos valueobjects.Position) error
	Click(id valueobjects.EntityID) error
	Positions() map[valueobjects.EntityID]valueobjects.Position
	Alpha() float64
	Nodes() []NodeView
	Links() []LinkView
}

// Renderer is a headless graph view: it owns a force simulation, reports
// gestures through the registered callbacks and exposes the live layout.
// ThreeDRenderer and TwoDRenderer configure it for their view.
type Renderer struct {
	sim     *Simulation
	styler  Styler
	metrics *observability.Metrics
	logger  *zap.Logger

	mu        sync.RWMutex
	data      *aggregates.Snapshot
	onClick   ports.NodeClickFunc
	onDragEnd ports.DragEndFunc
	onTick    ports.TickFunc
}

// Option configures a Renderer
type Option func(*Renderer)

// WithMetrics records ticks and alpha
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Renderer) { r.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

func newRenderer(cfg *config.DomainConfig, styler Styler, opts ...Option) *Renderer {
	r := &Renderer{
		sim:    NewSimulation(cfg),
		styler: styler,
		logger: zap.NewNop(),
		data:   &aggregates.Snapshot{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetData loads a snapshot; notes already shown keep their live position
func (r *Renderer) SetData(snapshot *aggregates.Snapshot) {
	snapshot = snapshot.Clone()
	r.sim.Load(snapshot)

	r.mu.Lock()
	r.data = snapshot
	r.mu.Unlock()
}

// OnNodeClick implements ports.GraphRenderer
func (r *Renderer) OnNodeClick(fn ports.NodeClickFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onClick = fn
}

// OnDragEnd implements ports.GraphRenderer
func (r *Renderer) OnDragEnd(fn ports.DragEndFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDragEnd = fn
}

// OnTick implements ports.GraphRenderer
func (r *Renderer) OnTick(fn ports.TickFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onTick = fn
}

// TickForce implements ports.GraphRenderer
func (r *Renderer) TickForce(name string, fn ports.ForceFunc) {
	r.sim.SetForce(name, fn)
}

// Dimensions implements ports.GraphRenderer
func (r *Renderer) Dimensions() int {
	return r.sim.Dimensions()
}

// Place implements ports.GraphRenderer
func (r *Renderer) Place(id valueobjects.EntityID, pos valueobjects.Position) {
	r.sim.Place(id, pos)
}

// Configure applies new physical parameters. The view keeps its dimensions.
func (r *Renderer) Configure(cfg *config.DomainConfig) {
	cfg = cfg.Clone()
	cfg.Dimensions = r.sim.Dimensions()
	r.sim.Configure(cfg)
}

// Tick advances the simulation once and reports the positions
func (r *Renderer) Tick() map[valueobjects.EntityID]valueobjects.Position {
	positions, alpha := r.sim.Step()
	r.metrics.RecordTick(alpha)

	r.mu.RLock()
	fn := r.onTick
	r.mu.RUnlock()
	if fn != nil {
		fn(positions)
	}
	return positions
}

// Run ticks at the given interval until the context ends
func (r *Renderer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Settle ticks until the simulation cools down or max ticks have run.
// It returns the number of ticks taken.
func (r *Renderer) Settle(max int) int {
	n := 0
	for n < max && !r.sim.Settled() {
		r.Tick()
		n++
	}
	return n
}

// Drag performs a whole drag gesture: the note is pinned at pos, released,
// and the drag-end handler receives the final position.
func (r *Renderer) Drag(id valueobjects.EntityID, pos valueobjects.Position) error {
	if !r.sim.Pin(id, pos) {
		return pkgerrors.NewNotFoundError("node " + id.String())
	}
	final, _ := r.sim.Release(id)

	r.mu.RLock()
	fn := r.onDragEnd
	r.mu.RUnlock()
	if fn != nil {
		fn(id, final)
	}
	return nil
}

// Click reports a click on a note
func (r *Renderer) Click(id valueobjects.EntityID) error {
	if !r.sim.Has(id) {
		return pkgerrors.NewNotFoundError("node " + id.String())
	}

	r.mu.RLock()
	fn := r.onClick
	r.mu.RUnlock()
	if fn != nil {
		fn(id)
	}
	return nil
}

// Positions returns the live layout
func (r *Renderer) Positions() map[valueobjects.EntityID]valueobjects.Position {
	return r.sim.Positions()
}

// Alpha returns the simulation temperature
func (r *Renderer) Alpha() float64 {
	return r.sim.Alpha()
}

// NodeView is a note as currently drawn
type NodeView struct {
	Entity   entities.Entity
	Position valueobjects.Position
	Style    NodeStyle
}

// LinkView is a connection as currently drawn
type LinkView struct {
	Connection entities.Connection
	Style      LinkStyle
}

// Nodes returns the drawn notes in data order
func (r *Renderer) Nodes() []NodeView {
	positions := r.sim.Positions()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]NodeView, 0, len(r.data.Entities))
	for _, e := range r.data.Entities {
		out = append(out, NodeView{
			Entity:   e,
			Position: positions[e.ID],
			Style:    r.styler.Node(e),
		})
	}
	return out
}

// Links returns the drawn connections in data order
func (r *Renderer) Links() []LinkView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]LinkView, 0, len(r.data.Connections))
	for _, c := range r.data.Connections {
		out = append(out, LinkView{Connection: c, Style: r.styler.Link(c)})
	}
	return out
}
