package interaction

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"notegraph/application/gestures"
	"notegraph/application/ports"
	"notegraph/application/state"
	"notegraph/domain/config"
	"notegraph/domain/core/aggregates"
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
	pkgerrors "notegraph/pkg/errors"
)

// Mock implementations for testing

type MockRemoteSync struct {
	mock.Mock
}

func (m *MockRemoteSync) FetchSnapshot(ctx context.Context) (*aggregates.Snapshot, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*aggregates.Snapshot).Clone(), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteSync) CreateEntity(ctx context.Context, title string) (*entities.Entity, error) {
	args := m.Called(ctx, title)
	if v := args.Get(0); v != nil {
		return v.(*entities.Entity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteSync) UpdateEntity(ctx context.Context, patch entities.EntityPatch) (*entities.Entity, error) {
	args := m.Called(ctx, patch)
	if v := args.Get(0); v != nil {
		return v.(*entities.Entity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteSync) CreateConnection(ctx context.Context, sourceID, targetID valueobjects.EntityID) (*entities.Connection, error) {
	args := m.Called(ctx, sourceID, targetID)
	if v := args.Get(0); v != nil {
		return v.(*entities.Connection), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteSync) DeleteConnection(ctx context.Context, id valueobjects.ConnectionID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRemoteSync) CreateGroup(ctx context.Context, name string) (*entities.Group, error) {
	args := m.Called(ctx, name)
	if v := args.Get(0); v != nil {
		return v.(*entities.Group), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteSync) DeleteGroup(ctx context.Context, id valueobjects.GroupID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	errors   int
}

func (n *recordingNotifier) Notify(severity ports.Severity, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	if severity == ports.SeverityError {
		n.errors++
	}
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.errors
}

type fakeRenderer struct {
	dims    int
	click   ports.NodeClickFunc
	dragEnd ports.DragEndFunc
	tick    ports.TickFunc
	forces  map[string]ports.ForceFunc
	placed  map[valueobjects.EntityID]valueobjects.Position
	data    []*aggregates.Snapshot
}

func newFakeRenderer(dims int) *fakeRenderer {
	return &fakeRenderer{
		dims:   dims,
		forces: make(map[string]ports.ForceFunc),
		placed: make(map[valueobjects.EntityID]valueobjects.Position),
	}
}

func (r *fakeRenderer) SetData(s *aggregates.Snapshot)         { r.data = append(r.data, s) }
func (r *fakeRenderer) OnNodeClick(fn ports.NodeClickFunc)     { r.click = fn }
func (r *fakeRenderer) OnDragEnd(fn ports.DragEndFunc)         { r.dragEnd = fn }
func (r *fakeRenderer) OnTick(fn ports.TickFunc)               { r.tick = fn }
func (r *fakeRenderer) TickForce(n string, fn ports.ForceFunc) { r.forces[n] = fn }
func (r *fakeRenderer) Dimensions() int                        { return r.dims }
func (r *fakeRenderer) Place(id valueobjects.EntityID, pos valueobjects.Position) {
	r.placed[id] = pos
}

func pos(x, y, z float64) valueobjects.Position {
	return valueobjects.MustPosition(x, y, z)
}

func positionIs(id valueobjects.EntityID, want valueobjects.Position) interface{} {
	return mock.MatchedBy(func(p entities.EntityPatch) bool {
		return p.ID == id && p.Position != nil && p.Position.Equals(want) && !p.TouchesEditable()
	})
}

type fixture struct {
	remote   *MockRemoteSync
	store    *state.GraphStateStore
	notifier *recordingNotifier
	ctrl     *Controller
}

func newFixture(t *testing.T, cfg *config.DomainConfig, snapshot *aggregates.Snapshot) *fixture {
	t.Helper()
	f := &fixture{
		remote:   new(MockRemoteSync),
		store:    state.NewGraphStateStore(),
		notifier: &recordingNotifier{},
	}
	f.store.Replace(snapshot)

	ctrl, err := NewController(f.store, f.remote, f.notifier, cfg, nil, zap.NewNop())
	require.NoError(t, err)
	f.ctrl = ctrl
	return f
}

func threeNotes() *aggregates.Snapshot {
	return &aggregates.Snapshot{
		Entities: []entities.Entity{
			{ID: 1, Title: "A", Position: pos(0, 0, 0)},
			{ID: 2, Title: "B", Position: pos(10, 0, 0)},
			{ID: 3, Title: "C", Position: pos(12, 0, 0)},
		},
	}
}

func TestDragEndAutoConnect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ThreeDDomainConfig(), threeNotes())

	conn := &entities.Connection{ID: 50, SourceID: 1, TargetID: 2, Kind: entities.KindManual}
	nudged := pos(70, 60, 60)

	after := threeNotes()
	after.Entities[0].Position = nudged
	after.Connections = []entities.Connection{*conn}

	f.remote.On("CreateConnection", mock.Anything, valueobjects.EntityID(1), valueobjects.EntityID(2)).Return(conn, nil).Once()
	f.remote.On("UpdateEntity", mock.Anything, positionIs(1, nudged)).Return(&entities.Entity{ID: 1}, nil).Once()
	f.remote.On("FetchSnapshot", mock.Anything).Return(after, nil).Once()

	require.NoError(t, f.ctrl.Dispatch(ctx, gestures.DragEnded{ID: 1, Position: pos(10, 0, 0)}))

	f.remote.AssertExpectations(t)
	f.remote.AssertNumberOfCalls(t, "CreateConnection", 1)
	f.remote.AssertNumberOfCalls(t, "UpdateEntity", 1)

	assert.True(t, f.store.HasConnection(1, 2))
	a, _ := f.store.GetEntity(1)
	assert.True(t, a.Position.Equals(nudged))
	assert.Zero(t, f.notifier.errorCount())
}

func TestDragEndWithoutNeighbour(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ThreeDDomainConfig(), &aggregates.Snapshot{
		Entities: []entities.Entity{
			{ID: 1, Position: pos(0, 0, 0)},
			{ID: 2, Position: pos(100, 0, 0)},
		},
	})

	f.remote.On("UpdateEntity", mock.Anything, positionIs(1, pos(5, 5, 5))).Return(&entities.Entity{ID: 1}, nil).Once()

	require.NoError(t, f.ctrl.Dispatch(ctx, gestures.DragEnded{ID: 1, Position: pos(5, 5, 5)}))

	f.remote.AssertExpectations(t)
	f.remote.AssertNotCalled(t, "CreateConnection", mock.Anything, mock.Anything, mock.Anything)
	f.remote.AssertNotCalled(t, "FetchSnapshot", mock.Anything)

	a, _ := f.store.GetEntity(1)
	assert.True(t, a.Position.Equals(pos(5, 5, 5)))
}

func TestDragEndFailedConnectIsDropped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ThreeDDomainConfig(), threeNotes())

	f.remote.On("CreateConnection", mock.Anything, valueobjects.EntityID(1), valueobjects.EntityID(2)).
		Return(nil, pkgerrors.FromStatus(409, "Connection already exists")).Once()
	f.remote.On("UpdateEntity", mock.Anything, positionIs(1, pos(70, 60, 60))).Return(&entities.Entity{ID: 1}, nil).Once()

	require.NoError(t, f.ctrl.Dispatch(ctx, gestures.DragEnded{ID: 1, Position: pos(10, 0, 0)}))

	f.remote.AssertExpectations(t)
	f.remote.AssertNotCalled(t, "FetchSnapshot", mock.Anything)
	assert.False(t, f.store.HasConnection(1, 2))
	assert.Zero(t, f.notifier.errorCount())
}

func TestDragEndSkipsKnownConnections(t *testing.T) {
	ctx := context.Background()
	cfg := config.ThreeDDomainConfig()
	cfg.SkipKnownConnections = true

	snap := threeNotes()
	snap.Connections = []entities.Connection{{ID: 9, SourceID: 2, TargetID: 1}}
	f := newFixture(t, cfg, snap)

	f.remote.On("UpdateEntity", mock.Anything, positionIs(1, pos(70, 60, 60))).Return(&entities.Entity{ID: 1}, nil).Once()

	require.NoError(t, f.ctrl.Dispatch(ctx, gestures.DragEnded{ID: 1, Position: pos(10, 0, 0)}))

	f.remote.AssertExpectations(t)
	f.remote.AssertNotCalled(t, "CreateConnection", mock.Anything, mock.Anything, mock.Anything)
}

func TestDragEndTwoD(t *testing.T) {
	f := newFixture(t, config.TwoDDomainConfig(), &aggregates.Snapshot{
		Entities: []entities.Entity{
			{ID: 1, Position: pos(0, 0, 0)},
			{ID: 2, Position: pos(30, 0, 0)},
		},
	})
	renderer := newFakeRenderer(2)
	f.ctrl.Attach(renderer)

	conn := &entities.Connection{ID: 5, SourceID: 1, TargetID: 2}
	f.remote.On("CreateConnection", mock.Anything, valueobjects.EntityID(1), valueobjects.EntityID(2)).Return(conn, nil).Once()
	f.remote.On("UpdateEntity", mock.Anything, positionIs(1, pos(85, 60, 0))).Return(&entities.Entity{ID: 1}, nil).Once()
	f.remote.On("FetchSnapshot", mock.Anything).Return(f.store.Snapshot(), nil).Once()

	// z is ignored by the 2D view
	renderer.dragEnd(1, pos(25, 0, 400))

	f.remote.AssertExpectations(t)
	assert.True(t, renderer.placed[1].Equals(pos(85, 60, 0)))
}

func TestDragEndPositionSaveFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ThreeDDomainConfig(), threeNotes())

	netErr := pkgerrors.NewNetworkError("connection refused", nil)
	f.remote.On("UpdateEntity", mock.Anything, mock.Anything).Return(nil, netErr).Once()

	err := f.ctrl.Dispatch(ctx, gestures.DragEnded{ID: 3, Position: pos(500, 0, 0)})
	assert.True(t, pkgerrors.IsNetwork(err))
	assert.Equal(t, 1, f.notifier.errorCount())
}

func TestClickOpensEditorOnLocalCopy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ThreeDDomainConfig(), threeNotes())

	require.NoError(t, f.ctrl.Dispatch(ctx, gestures.EntityClicked{ID: 2}))

	e, ok := f.ctrl.Editor()
	require.True(t, ok)
	assert.Equal(t, "B", e.Title)
	f.remote.AssertNotCalled(t, "FetchSnapshot", mock.Anything)

	err := f.ctrl.Dispatch(ctx, gestures.EntityClicked{ID: 99})
	assert.True(t, pkgerrors.IsNotFound(err))

	require.NoError(t, f.ctrl.Dispatch(ctx, gestures.EditorClosed{}))
	_, ok = f.ctrl.Editor()
	assert.False(t, ok)
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	content := "new body"
	color := "#ff0000"
	group := valueobjects.GroupOf(4)
	title := "ignored"

	t.Run("requires an open editor", func(t *testing.T) {
		f := newFixture(t, config.ThreeDDomainConfig(), threeNotes())
		err := f.ctrl.Dispatch(ctx, gestures.EntitySaved{Patch: entities.EntityPatch{ID: 1, Content: &content}})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("pushes editable fields and reloads", func(t *testing.T) {
		f := newFixture(t, config.ThreeDDomainConfig(), threeNotes())
		require.NoError(t, f.ctrl.Dispatch(ctx, gestures.EntityClicked{ID: 1}))

		after := threeNotes()
		after.Entities[0].Content = content
		after.Entities[0].Size = len(content)

		f.remote.On("UpdateEntity", mock.Anything, mock.MatchedBy(func(p entities.EntityPatch) bool {
			return p.ID == 1 && *p.Content == content && *p.Color == color && p.GroupID.Equals(group) &&
				p.Title == nil && p.Position == nil
		})).Return(&entities.Entity{ID: 1}, nil).Once()
		f.remote.On("FetchSnapshot", mock.Anything).Return(after, nil).Once()

		require.NoError(t, f.ctrl.Dispatch(ctx, gestures.EntitySaved{Patch: entities.EntityPatch{
			ID: 1, Title: &title, Content: &content, Color: &color, GroupID: &group,
		}}))

		f.remote.AssertExpectations(t)
		e, _ := f.store.GetEntity(1)
		assert.Equal(t, len(content), e.Size)
		_, open := f.ctrl.Editor()
		assert.False(t, open)
	})

	t.Run("failure alerts and leaves state unchanged", func(t *testing.T) {
		f := newFixture(t, config.ThreeDDomainConfig(), threeNotes())
		require.NoError(t, f.ctrl.Dispatch(ctx, gestures.EntityClicked{ID: 1}))
		before := f.store.Snapshot()

		f.remote.On("UpdateEntity", mock.Anything, mock.Anything).
			Return(nil, pkgerrors.FromStatus(400, "invalid color")).Once()

		err := f.ctrl.Dispatch(ctx, gestures.EntitySaved{Patch: entities.EntityPatch{ID: 1, Content: &content}})
		assert.True(t, pkgerrors.IsValidation(err))
		assert.Equal(t, before, f.store.Snapshot())
		assert.Equal(t, 1, f.notifier.errorCount())
		assert.Contains(t, f.notifier.messages[0], "invalid color")
		_, open := f.ctrl.Editor()
		assert.True(t, open)
	})
}

func TestSaveAbortedWhenAnotherNoteOpens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ThreeDDomainConfig(), threeNotes())
	require.NoError(t, f.ctrl.Dispatch(ctx, gestures.EntityClicked{ID: 1}))

	started := make(chan struct{})
	f.remote.On("UpdateEntity", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, pkgerrors.NewCanceledError("update note")).Once()

	content := "draft"
	done := make(chan error, 1)
	go func() {
		done <- f.ctrl.Dispatch(ctx, gestures.EntitySaved{Patch: entities.EntityPatch{ID: 1, Content: &content}})
	}()

	<-started
	require.NoError(t, f.ctrl.Dispatch(ctx, gestures.EntityClicked{ID: 2}))

	select {
	case err := <-done:
		assert.True(t, pkgerrors.IsCanceled(err))
	case <-time.After(2 * time.Second):
		t.Fatal("save was not aborted")
	}

	assert.Zero(t, f.notifier.errorCount())
	f.remote.AssertNotCalled(t, "FetchSnapshot", mock.Anything)
	e, _ := f.ctrl.Editor()
	assert.Equal(t, valueobjects.EntityID(2), e.ID)
}

func TestGroups(t *testing.T) {
	ctx := context.Background()

	t.Run("create is applied locally without reload", func(t *testing.T) {
		f := newFixture(t, config.ThreeDDomainConfig(), threeNotes())
		f.remote.On("CreateGroup", mock.Anything, "work").Return(&entities.Group{ID: 8, Name: "work"}, nil).Once()

		require.NoError(t, f.ctrl.Dispatch(ctx, gestures.GroupCreated{Name: " work "}))

		g, ok := f.store.GetGroup(8)
		require.True(t, ok)
		assert.Equal(t, "work", g.Name)
		f.remote.AssertNotCalled(t, "FetchSnapshot", mock.Anything)
	})

	t.Run("delete keeps notes and clears their cloud", func(t *testing.T) {
		snap := threeNotes()
		snap.Groups = []entities.Group{{ID: 8, Name: "work"}}
		snap.Entities[0].GroupID = valueobjects.GroupOf(8)
		snap.Entities[1].GroupID = valueobjects.GroupOf(8)
		f := newFixture(t, config.ThreeDDomainConfig(), snap)

		after := threeNotes()
		f.remote.On("DeleteGroup", mock.Anything, valueobjects.GroupID(8)).Return(nil).Once()
		f.remote.On("FetchSnapshot", mock.Anything).Return(after, nil).Once()

		require.NoError(t, f.ctrl.Dispatch(ctx, gestures.GroupDeleted{ID: 8}))

		f.remote.AssertExpectations(t)
		assert.Len(t, f.store.Entities(), 3)
		for _, e := range f.store.Entities() {
			assert.False(t, e.GroupID.IsSet())
		}
		assert.Empty(t, f.store.Groups())
	})

	t.Run("failed create alerts", func(t *testing.T) {
		f := newFixture(t, config.ThreeDDomainConfig(), threeNotes())
		f.remote.On("CreateGroup", mock.Anything, "x").Return(nil, pkgerrors.FromStatus(500, "")).Once()

		assert.Error(t, f.ctrl.Dispatch(ctx, gestures.GroupCreated{Name: "x"}))
		assert.Equal(t, 1, f.notifier.errorCount())
		assert.Empty(t, f.store.Groups())
	})
}

func TestAddNote(t *testing.T) {
	ctx := context.Background()

	t.Run("reloads on success", func(t *testing.T) {
		f := newFixture(t, config.ThreeDDomainConfig(), threeNotes())
		after := threeNotes()
		after.Entities = append(after.Entities, entities.Entity{ID: 4, Title: "D"})

		f.remote.On("CreateEntity", mock.Anything, "D").Return(&entities.Entity{ID: 4, Title: "D"}, nil).Once()
		f.remote.On("FetchSnapshot", mock.Anything).Return(after, nil).Once()

		require.NoError(t, f.ctrl.Dispatch(ctx, gestures.NoteAdded{Title: "  D "}))
		_, ok := f.store.GetEntity(4)
		assert.True(t, ok)
	})

	t.Run("duplicate title alerts", func(t *testing.T) {
		f := newFixture(t, config.ThreeDDomainConfig(), threeNotes())
		f.remote.On("CreateEntity", mock.Anything, "A").Return(nil, pkgerrors.FromStatus(400, "Note already exists")).Once()

		err := f.ctrl.Dispatch(ctx, gestures.NoteAdded{Title: "A"})
		assert.True(t, pkgerrors.IsValidation(err))
		require.Len(t, f.notifier.messages, 1)
		assert.Equal(t, "Error creating note: Note already exists", f.notifier.messages[0])
	})
}

func TestEdges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ThreeDDomainConfig(), threeNotes())

	conn := &entities.Connection{ID: 77, SourceID: 1, TargetID: 3}
	after := threeNotes()
	after.Connections = []entities.Connection{*conn}

	f.remote.On("CreateConnection", mock.Anything, valueobjects.EntityID(1), valueobjects.EntityID(3)).Return(conn, nil).Once()
	f.remote.On("FetchSnapshot", mock.Anything).Return(after, nil).Once()
	require.NoError(t, f.ctrl.Dispatch(ctx, gestures.EdgeDrawn{SourceID: 1, TargetID: 3}))
	assert.True(t, f.store.HasConnection(3, 1))

	f.remote.On("DeleteConnection", mock.Anything, valueobjects.ConnectionID(77)).Return(nil).Once()
	require.NoError(t, f.ctrl.Dispatch(ctx, gestures.ConnectionDeleted{ID: 77}))
	assert.False(t, f.store.HasConnection(1, 3))

	f.remote.AssertExpectations(t)
}

func TestReloadFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ThreeDDomainConfig(), threeNotes())
	before := f.store.Snapshot()

	f.remote.On("FetchSnapshot", mock.Anything).Return(nil, pkgerrors.NewNetworkError("dial tcp: refused", nil)).Once()

	err := f.ctrl.Reload(ctx)
	assert.True(t, pkgerrors.IsNetwork(err))
	assert.Equal(t, before, f.store.Snapshot())
	assert.Equal(t, 1, f.notifier.errorCount())
}

func TestAttach(t *testing.T) {
	snap := threeNotes()
	snap.Groups = []entities.Group{{ID: 1, Name: "g"}}
	snap.Entities[0].GroupID = valueobjects.GroupOf(1)
	snap.Entities[1].GroupID = valueobjects.GroupOf(1)
	f := newFixture(t, config.ThreeDDomainConfig(), snap)

	renderer := newFakeRenderer(3)
	f.ctrl.Attach(renderer)

	require.Len(t, renderer.data, 1)
	assert.Len(t, renderer.data[0].Entities, 3)
	require.Contains(t, renderer.forces, ClusterForce)

	t.Run("click callback opens the editor", func(t *testing.T) {
		renderer.click(3)
		e, ok := f.ctrl.Editor()
		require.True(t, ok)
		assert.Equal(t, valueobjects.EntityID(3), e.ID)
	})

	t.Run("tick callback syncs positions", func(t *testing.T) {
		renderer.tick(map[valueobjects.EntityID]valueobjects.Position{2: pos(1, 2, 3)})
		e, _ := f.store.GetEntity(2)
		assert.True(t, e.Position.Equals(pos(1, 2, 3)))
	})

	t.Run("cluster force follows tunables", func(t *testing.T) {
		cfg := config.ThreeDDomainConfig()
		cfg.ClusterStrength = 0.5
		require.NoError(t, f.ctrl.ApplyTunables(cfg))
		assert.Equal(t, 0.5, f.ctrl.Layout().Strength())
		assert.Equal(t, 0.5, f.ctrl.Tunables().ClusterStrength)

		bad := config.ThreeDDomainConfig()
		bad.ProximityThreshold = 0
		assert.True(t, pkgerrors.IsValidation(f.ctrl.ApplyTunables(bad)))
	})
}
