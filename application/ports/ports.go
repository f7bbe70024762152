package ports

import (
	"context"

	"notegraph/domain/core/aggregates"
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
	"notegraph/domain/services"
)

// RemoteSync is the REST contract of the graph service.
// This is a port in hexagonal architecture - the application doesn't know about HTTP.
// Every method issues exactly one request; nothing is retried.
type RemoteSync interface {
	// FetchSnapshot retrieves notes, connections and clouds
	FetchSnapshot(ctx context.Context) (*aggregates.Snapshot, error)

	// CreateEntity creates a note; duplicate titles are rejected by the server
	CreateEntity(ctx context.Context, title string) (*entities.Entity, error)

	// UpdateEntity pushes any subset of content, color, cloud and position
	UpdateEntity(ctx context.Context, patch entities.EntityPatch) (*entities.Entity, error)

	// CreateConnection links two notes; invalid or duplicate pairs fail
	CreateConnection(ctx context.Context, sourceID, targetID valueobjects.EntityID) (*entities.Connection, error)

	// DeleteConnection removes a connection
	DeleteConnection(ctx context.Context, id valueobjects.ConnectionID) error

	// CreateGroup creates a cloud
	CreateGroup(ctx context.Context, name string) (*entities.Group, error)

	// DeleteGroup removes a cloud; its notes survive without a cloud
	DeleteGroup(ctx context.Context, id valueobjects.GroupID) error
}

// NodeClickFunc is called when a note is clicked
type NodeClickFunc func(id valueobjects.EntityID)

// DragEndFunc is called with the final position of a dragged note
type DragEndFunc func(id valueobjects.EntityID, pos valueobjects.Position)

// TickFunc receives the positions after a simulation tick
type TickFunc func(positions map[valueobjects.EntityID]valueobjects.Position)

// ForceFunc is a custom simulation force. It receives an atomic snapshot of the
// particles and the current alpha and returns velocity increments.
type ForceFunc func(alpha float64, particles []services.Particle) []services.Impulse

// GraphRenderer is the capability set shared by the 3D and 2D views
type GraphRenderer interface {
	// SetData loads a snapshot, keeping live positions of notes already shown
	SetData(snapshot *aggregates.Snapshot)

	// OnNodeClick registers the click handler
	OnNodeClick(fn NodeClickFunc)

	// OnDragEnd registers the drag-end handler
	OnDragEnd(fn DragEndFunc)

	// OnTick registers a handler run after every tick
	OnTick(fn TickFunc)

	// TickForce registers a named custom force; nil removes it
	TickForce(name string, fn ForceFunc)

	// Place moves a node and stops it
	Place(id valueobjects.EntityID, pos valueobjects.Position)

	// Dimensions is 3 for the force-graph view and 2 for the network view
	Dimensions() int
}

// Severity of a user notification
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Notifier surfaces outcomes to the user (the alert/toast of a UI)
type Notifier interface {
	Notify(severity Severity, message string)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(severity Severity, message string)

// Notify implements Notifier
func (f NotifierFunc) Notify(severity Severity, message string) {
	f(severity, message)
}
