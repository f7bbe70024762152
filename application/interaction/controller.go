package interaction

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.uber.org/zap"

	"notegraph/application/gestures"
	"notegraph/application/ports"
	"notegraph/application/state"
	"notegraph/domain/config"
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
	"notegraph/domain/services"
	pkgerrors "notegraph/pkg/errors"
)

// ClusterForce is the name the cluster force is registered under
const ClusterForce = "cluster"

// Controller turns gesture events into store mutations and remote calls
type Controller struct {
	store    *state.GraphStateStore
	remote   ports.RemoteSync
	notifier ports.Notifier
	layout   *services.ClusterLayout
	bus      *gestures.Bus
	recorder Recorder
	logger   *zap.Logger

	mu       sync.RWMutex
	cfg      *config.DomainConfig
	index    *services.SpatialIndex
	renderer ports.GraphRenderer
	editor   *editorSession
}

// NewController creates a controller and registers it for every gesture type
func NewController(
	store *state.GraphStateStore,
	remote ports.RemoteSync,
	notifier ports.Notifier,
	cfg *config.DomainConfig,
	recorder Recorder,
	logger *zap.Logger,
) (*Controller, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	if notifier == nil {
		notifier = ports.NotifierFunc(func(ports.Severity, string) {})
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Controller{
		store:    store,
		remote:   remote,
		notifier: notifier,
		layout:   services.NewClusterLayout(cfg.ClusterStrength),
		recorder: recorder,
		logger:   logger,
		cfg:      cfg.Clone(),
		index:    services.NewSpatialIndex(store, cfg.Dimensions),
	}

	c.bus = gestures.NewBus(
		gestures.LoggingMiddleware(logger),
		c.recordingMiddleware(),
	)
	err := c.bus.RegisterAll(c,
		gestures.EntityClicked{},
		gestures.DragEnded{},
		gestures.EntitySaved{},
		gestures.GroupCreated{},
		gestures.GroupDeleted{},
		gestures.NoteAdded{},
		gestures.EdgeDrawn{},
		gestures.ConnectionDeleted{},
		gestures.EditorClosed{},
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Dispatch validates and handles one gesture
func (c *Controller) Dispatch(ctx context.Context, event gestures.Event) error {
	return c.bus.Dispatch(ctx, event)
}

// Handle implements gestures.Handler
func (c *Controller) Handle(ctx context.Context, event gestures.Event) error {
	switch ev := event.(type) {
	case gestures.EntityClicked:
		return c.openEditor(ev.ID)
	case gestures.DragEnded:
		return c.dragEnded(ctx, ev)
	case gestures.EntitySaved:
		return c.save(ctx, ev.Patch)
	case gestures.GroupCreated:
		return c.createGroup(ctx, ev.Name)
	case gestures.GroupDeleted:
		return c.deleteGroup(ctx, ev.ID)
	case gestures.NoteAdded:
		return c.addNote(ctx, ev.Title)
	case gestures.EdgeDrawn:
		return c.drawEdge(ctx, ev.SourceID, ev.TargetID)
	case gestures.ConnectionDeleted:
		return c.deleteConnection(ctx, ev.ID)
	case gestures.EditorClosed:
		c.closeEditor()
		return nil
	default:
		return fmt.Errorf("%w: %T", gestures.ErrHandlerNotFound, event)
	}
}

// Attach binds a renderer: gestures flow in through its callbacks, live
// positions flow back into the store, and the cluster force is registered.
func (c *Controller) Attach(renderer ports.GraphRenderer) {
	c.mu.Lock()
	c.renderer = renderer
	c.index = services.NewSpatialIndex(c.store, renderer.Dimensions())
	c.mu.Unlock()

	renderer.OnNodeClick(func(id valueobjects.EntityID) {
		_ = c.Dispatch(context.Background(), gestures.EntityClicked{ID: id})
	})
	renderer.OnDragEnd(func(id valueobjects.EntityID, pos valueobjects.Position) {
		_ = c.Dispatch(context.Background(), gestures.DragEnded{ID: id, Position: pos})
	})
	renderer.OnTick(c.store.SyncPositions)
	renderer.TickForce(ClusterForce, c.layout.Apply)

	renderer.SetData(c.store.Snapshot())
}

// ApplyTunables swaps the interaction and layout parameters at runtime
func (c *Controller) ApplyTunables(cfg *config.DomainConfig) error {
	if err := cfg.Validate(); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	c.mu.Lock()
	c.cfg = cfg.Clone()
	c.mu.Unlock()

	c.layout.SetStrength(cfg.ClusterStrength)
	c.logger.Info("Tunables applied",
		zap.Float64("proximity_threshold", cfg.ProximityThreshold),
		zap.Float64("nudge_offset", cfg.NudgeOffset),
		zap.Float64("cluster_strength", cfg.ClusterStrength))
	return nil
}

// Tunables returns a copy of the current parameters
func (c *Controller) Tunables() *config.DomainConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Clone()
}

// Layout returns the cluster force
func (c *Controller) Layout() *services.ClusterLayout {
	return c.layout
}

// Store returns the state store the controller mutates
func (c *Controller) Store() *state.GraphStateStore {
	return c.store
}

// Editor returns the note the editor is open on
func (c *Controller) Editor() (entities.Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.editor == nil {
		return entities.Entity{}, false
	}
	return c.editor.entity, true
}

// Reload fetches the snapshot and replaces the local state. On failure the
// store is left untouched and the user is notified.
func (c *Controller) Reload(ctx context.Context) error {
	snapshot, err := c.remote.FetchSnapshot(ctx)
	if err != nil {
		c.recorder.RecordReload(err, 0)
		c.logger.Warn("Failed to load graph", zap.Error(err))
		c.notify(ports.SeverityError, "Error loading graph", err)
		return err
	}

	c.store.Replace(snapshot)
	c.recorder.RecordReload(nil, len(snapshot.Entities))
	c.logger.Debug("Graph reloaded",
		zap.Int("notes", len(snapshot.Entities)),
		zap.Int("connections", len(snapshot.Connections)),
		zap.Int("clouds", len(snapshot.Groups)))
	c.render()
	return nil
}

func (c *Controller) openEditor(id valueobjects.EntityID) error {
	entity, ok := c.store.GetEntity(id)
	if !ok {
		return pkgerrors.NewNotFoundError("note " + id.String())
	}

	c.mu.Lock()
	if c.editor != nil {
		c.editor.cancel()
	}
	c.editor = newEditorSession(entity)
	c.mu.Unlock()
	return nil
}

func (c *Controller) closeEditor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editor != nil {
		c.editor.cancel()
		c.editor = nil
	}
}

func (c *Controller) dragEnded(ctx context.Context, ev gestures.DragEnded) error {
	c.mu.RLock()
	cfg := c.cfg
	index := c.index
	c.mu.RUnlock()

	pos := ev.Position
	if index.Dimensions() == 2 {
		pos = pos.Flatten()
	}
	if !c.store.UpdatePosition(ev.ID, pos) {
		return pkgerrors.NewNotFoundError("note " + ev.ID.String())
	}

	var created *entities.Connection
	if target, ok := index.QueryNearby(pos, ev.ID, cfg.ProximityThreshold); ok {
		created = c.autoConnect(ctx, ev.ID, target, cfg)

		pos = nudge(pos, cfg.NudgeOffset, index.Dimensions())
		c.store.UpdatePosition(ev.ID, pos)
		if r := c.currentRenderer(); r != nil {
			r.Place(ev.ID, pos)
		}
	} else {
		c.recorder.RecordAutoConnect(AutoConnectNone)
	}

	if _, err := c.remote.UpdateEntity(ctx, entities.PositionPatch(ev.ID, pos)); err != nil {
		c.notify(ports.SeverityError, "Error saving position", err)
		return err
	}

	if created != nil {
		if err := c.store.UpsertConnection(*created); err != nil {
			c.logger.Warn("Server returned an unusable connection", zap.Error(err))
		}
		return c.Reload(ctx)
	}
	c.render()
	return nil
}

// autoConnect links a dropped note to its first neighbour. Failures are
// dropped: no local edge, no notification.
func (c *Controller) autoConnect(ctx context.Context, source, target valueobjects.EntityID, cfg *config.DomainConfig) *entities.Connection {
	if cfg.SkipKnownConnections && c.store.HasConnection(source, target) {
		c.recorder.RecordAutoConnect(AutoConnectKnown)
		return nil
	}

	conn, err := c.remote.CreateConnection(ctx, source, target)
	if err != nil {
		c.recorder.RecordAutoConnect(AutoConnectFailed)
		c.logger.Info("Auto-connect dropped",
			zap.Int64("source_id", int64(source)),
			zap.Int64("target_id", int64(target)),
			zap.Error(err))
		return nil
	}
	c.recorder.RecordAutoConnect(AutoConnectCreated)
	return conn
}

func (c *Controller) save(ctx context.Context, patch entities.EntityPatch) error {
	c.mu.RLock()
	session := c.editor
	c.mu.RUnlock()

	if session == nil || session.entity.ID != patch.ID {
		return pkgerrors.NewValidationError("no editor open for note " + patch.ID.String())
	}

	// Only the editor's fields are pushed
	editable := entities.EntityPatch{
		ID:      patch.ID,
		Content: patch.Content,
		Color:   patch.Color,
		GroupID: patch.GroupID,
	}
	if !editable.TouchesEditable() {
		return pkgerrors.NewValidationError("nothing to save")
	}

	reqCtx, cancel := session.requestContext(ctx)
	defer cancel()

	if _, err := c.remote.UpdateEntity(reqCtx, editable); err != nil {
		if reqCtx.Err() != nil && ctx.Err() == nil {
			c.logger.Debug("Save aborted by editor change", zap.Int64("note_id", int64(patch.ID)))
			return pkgerrors.NewCanceledError("save note").WithCause(err)
		}
		c.notify(ports.SeverityError, "Error saving note", err)
		return err
	}

	c.mu.Lock()
	if c.editor == session {
		c.editor.cancel()
		c.editor = nil
	}
	c.mu.Unlock()

	c.notify(ports.SeverityInfo, "Note saved", nil)
	return c.Reload(ctx)
}

func (c *Controller) createGroup(ctx context.Context, name string) error {
	group, err := c.remote.CreateGroup(ctx, strings.TrimSpace(name))
	if err != nil {
		c.notify(ports.SeverityError, "Error creating cloud", err)
		return err
	}
	if err := c.store.UpsertGroup(*group); err != nil {
		return err
	}
	c.render()
	return nil
}

func (c *Controller) deleteGroup(ctx context.Context, id valueobjects.GroupID) error {
	if err := c.remote.DeleteGroup(ctx, id); err != nil {
		c.notify(ports.SeverityError, "Error deleting cloud", err)
		return err
	}
	c.store.RemoveGroup(id)
	return c.Reload(ctx)
}

func (c *Controller) addNote(ctx context.Context, title string) error {
	if _, err := c.remote.CreateEntity(ctx, strings.TrimSpace(title)); err != nil {
		c.notify(ports.SeverityError, "Error creating note", err)
		return err
	}
	return c.Reload(ctx)
}

func (c *Controller) drawEdge(ctx context.Context, source, target valueobjects.EntityID) error {
	conn, err := c.remote.CreateConnection(ctx, source, target)
	if err != nil {
		c.notify(ports.SeverityError, "Error creating connection", err)
		return err
	}
	if err := c.store.UpsertConnection(*conn); err != nil {
		c.logger.Warn("Server returned an unusable connection", zap.Error(err))
	}
	return c.Reload(ctx)
}

func (c *Controller) deleteConnection(ctx context.Context, id valueobjects.ConnectionID) error {
	if err := c.remote.DeleteConnection(ctx, id); err != nil {
		c.notify(ports.SeverityError, "Error deleting connection", err)
		return err
	}
	c.store.RemoveConnection(id)
	c.render()
	return nil
}

func (c *Controller) currentRenderer() ports.GraphRenderer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.renderer
}

func (c *Controller) render() {
	if r := c.currentRenderer(); r != nil {
		r.SetData(c.store.Snapshot())
	}
}

func (c *Controller) notify(severity ports.Severity, message string, err error) {
	if err != nil {
		if appErr := pkgerrors.GetAppError(err); appErr != nil {
			message = fmt.Sprintf("%s: %s", message, appErr.Message)
		} else {
			message = fmt.Sprintf("%s: %v", message, err)
		}
	}
	c.notifier.Notify(severity, message)
}

func (c *Controller) recordingMiddleware() gestures.Middleware {
	return func(next gestures.Handler) gestures.Handler {
		return gestures.HandlerFunc(func(ctx context.Context, event gestures.Event) error {
			err := next.Handle(ctx, event)
			c.recorder.RecordGesture(reflect.TypeOf(event).Name(), err)
			return err
		})
	}
}

// nudge moves a position by offset on every active axis
func nudge(pos valueobjects.Position, offset float64, dims int) valueobjects.Position {
	dz := offset
	if dims == 2 {
		dz = 0
	}
	moved, err := pos.Translate(offset, offset, dz)
	if err != nil {
		return pos
	}
	return moved
}
