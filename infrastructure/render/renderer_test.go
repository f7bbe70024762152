package render

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notegraph/domain/config"
	"notegraph/domain/core/aggregates"
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
	"notegraph/domain/services"
	pkgerrors "notegraph/pkg/errors"
	"notegraph/pkg/observability"
)

func note(id valueobjects.EntityID, group valueobjects.GroupRef, x, y, z float64) entities.Entity {
	return entities.Entity{
		ID:       id,
		Title:    "note",
		GroupID:  group,
		Position: valueobjects.MustPosition(x, y, z),
	}
}

// quiet has no charge or springs so only custom forces move the notes
func quiet(dims int) *config.DomainConfig {
	cfg := config.ThreeDDomainConfig()
	cfg.Dimensions = dims
	cfg.ChargeStrength = 0
	return cfg
}

func TestRenderer_SetDataKeepsLivePositions(t *testing.T) {
	r := NewThreeDRenderer(quiet(3))
	snapshot := &aggregates.Snapshot{Entities: []entities.Entity{
		note(1, valueobjects.NoGroup(), 10, 0, 0),
		note(2, valueobjects.NoGroup(), 50, 0, 0),
	}}
	r.SetData(snapshot)

	r.Place(1, valueobjects.MustPosition(100, 0, 0))

	snapshot.Entities = append(snapshot.Entities, note(3, valueobjects.NoGroup(), 0, 0, 0))
	r.SetData(snapshot)

	positions := r.Positions()
	require.Len(t, positions, 3)
	assert.True(t, positions[1].Equals(valueobjects.MustPosition(100, 0, 0)))
	assert.True(t, positions[2].Equals(valueobjects.MustPosition(50, 0, 0)))
	assert.False(t, positions[3].Equals(valueobjects.Origin), "unpositioned notes are spread out")
}

func TestRenderer_SetDataDropsRemovedNotes(t *testing.T) {
	r := NewThreeDRenderer(quiet(3))
	r.SetData(&aggregates.Snapshot{Entities: []entities.Entity{
		note(1, valueobjects.NoGroup(), 10, 0, 0),
		note(2, valueobjects.NoGroup(), 50, 0, 0),
	}})
	r.SetData(&aggregates.Snapshot{Entities: []entities.Entity{
		note(2, valueobjects.NoGroup(), 50, 0, 0),
	}})

	positions := r.Positions()
	assert.Len(t, positions, 1)
	assert.Contains(t, positions, valueobjects.EntityID(2))
}

func TestTwoDRenderer_StaysOnPlane(t *testing.T) {
	r := NewTwoDRenderer(config.TwoDDomainConfig())
	assert.Equal(t, 2, r.Dimensions())

	r.SetData(&aggregates.Snapshot{
		Entities: []entities.Entity{
			note(1, valueobjects.NoGroup(), 0, 0, 30),
			note(2, valueobjects.NoGroup(), 40, 10, -30),
			note(3, valueobjects.NoGroup(), 0, 0, 0),
		},
		Connections: []entities.Connection{{ID: 1, SourceID: 1, TargetID: 2, Kind: entities.KindManual}},
	})

	for i := 0; i < 20; i++ {
		for id, pos := range r.Tick() {
			assert.Zero(t, pos.Z(), "note %d left the plane", id)
		}
	}
}

func TestThreeDRenderer_ForcesDimensions(t *testing.T) {
	r := NewThreeDRenderer(config.TwoDDomainConfig())
	assert.Equal(t, 3, r.Dimensions())
}

func TestRenderer_TickForce(t *testing.T) {
	r := NewThreeDRenderer(quiet(3))
	r.SetData(&aggregates.Snapshot{Entities: []entities.Entity{
		note(1, valueobjects.GroupOf(7), 1, 0, 0),
		note(2, valueobjects.NoGroup(), 100, 0, 0),
	}})

	var calls atomic.Int32
	var seen []services.Particle
	r.TickForce("push", func(alpha float64, particles []services.Particle) []services.Impulse {
		calls.Add(1)
		seen = particles
		return []services.Impulse{{ID: 1, Delta: services.Vector{X: 5}}}
	})

	positions := r.Tick()
	assert.Equal(t, int32(1), calls.Load())
	require.Len(t, seen, 2)
	assert.Equal(t, valueobjects.GroupOf(7), seen[0].Group)
	assert.True(t, seen[1].Position.Equals(valueobjects.MustPosition(100, 0, 0)))

	// 5 * (1 - velocity decay) toward the other note
	assert.InDelta(t, 96, positions[1].DistanceTo(positions[2], 3), 1e-9)

	r.TickForce("push", nil)
	r.Tick()
	assert.Equal(t, int32(1), calls.Load(), "removed force must not run")
}

func TestRenderer_ClusterForcePullsGroupTogether(t *testing.T) {
	r := NewThreeDRenderer(quiet(3))
	g := valueobjects.GroupOf(1)
	r.SetData(&aggregates.Snapshot{Entities: []entities.Entity{
		note(1, g, -100, 0, 0),
		note(2, g, 100, 0, 0),
		note(3, valueobjects.NoGroup(), 0, 300, 0),
	}})
	r.TickForce("cluster", services.NewClusterLayout(0.2).Apply)

	before := r.Positions()
	for i := 0; i < 50; i++ {
		r.Tick()
	}
	after := r.Positions()

	assert.Less(t, after[1].DistanceTo(after[2], 3), before[1].DistanceTo(before[2], 3))
	assert.InDelta(t, 300, after[3].DistanceTo(after[1].Midpoint(after[2]), 3), 1e-6,
		"ungrouped note is not pulled")
}

func TestRenderer_Drag(t *testing.T) {
	r := NewThreeDRenderer(config.ThreeDDomainConfig())
	r.SetData(&aggregates.Snapshot{Entities: []entities.Entity{
		note(1, valueobjects.NoGroup(), 0, 0, 0),
		note(2, valueobjects.NoGroup(), 40, 0, 0),
	}})

	var gotID valueobjects.EntityID
	var gotPos valueobjects.Position
	r.OnDragEnd(func(id valueobjects.EntityID, pos valueobjects.Position) {
		gotID, gotPos = id, pos
		// Handlers may call back into the renderer
		r.Place(id, pos)
	})

	target := valueobjects.MustPosition(10, 20, 30)
	require.NoError(t, r.Drag(1, target))
	assert.Equal(t, valueobjects.EntityID(1), gotID)
	assert.True(t, gotPos.Equals(target))
	assert.GreaterOrEqual(t, r.Alpha(), config.ThreeDDomainConfig().DragAlphaTarget)

	err := r.Drag(99, target)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRenderer_Click(t *testing.T) {
	r := NewTwoDRenderer(config.TwoDDomainConfig())
	r.SetData(&aggregates.Snapshot{Entities: []entities.Entity{note(1, valueobjects.NoGroup(), 0, 0, 0)}})

	var clicked []valueobjects.EntityID
	r.OnNodeClick(func(id valueobjects.EntityID) { clicked = append(clicked, id) })

	require.NoError(t, r.Click(1))
	assert.True(t, pkgerrors.IsNotFound(r.Click(2)))
	assert.Equal(t, []valueobjects.EntityID{1}, clicked)
}

func TestRenderer_TickReportsPositions(t *testing.T) {
	metrics := observability.NewMetrics("render_test")
	r := NewThreeDRenderer(config.ThreeDDomainConfig(), WithMetrics(metrics))
	r.SetData(&aggregates.Snapshot{Entities: []entities.Entity{
		note(1, valueobjects.NoGroup(), 0, 0, 0),
		note(2, valueobjects.NoGroup(), 5, 5, 5),
	}})

	var reported map[valueobjects.EntityID]valueobjects.Position
	r.OnTick(func(positions map[valueobjects.EntityID]valueobjects.Position) { reported = positions })

	returned := r.Tick()
	assert.Equal(t, returned, reported)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Ticks))
	assert.InDelta(t, r.Alpha(), testutil.ToFloat64(metrics.Alpha), 1e-12)
}

func TestRenderer_Settle(t *testing.T) {
	r := NewThreeDRenderer(config.ThreeDDomainConfig())
	r.SetData(&aggregates.Snapshot{Entities: []entities.Entity{
		note(1, valueobjects.NoGroup(), 0, 0, 0),
		note(2, valueobjects.NoGroup(), 5, 5, 5),
	}})

	n := r.Settle(1000)
	assert.Greater(t, n, 0)
	assert.Less(t, n, 1000)
	assert.Less(t, r.Alpha(), config.ThreeDDomainConfig().AlphaMin)
	assert.Zero(t, r.Settle(1000), "already settled")
}

func TestRenderer_RunStopsWithContext(t *testing.T) {
	r := NewTwoDRenderer(config.TwoDDomainConfig())
	r.SetData(&aggregates.Snapshot{Entities: []entities.Entity{note(1, valueobjects.NoGroup(), 0, 0, 0)}})

	var ticks atomic.Int32
	r.OnTick(func(map[valueobjects.EntityID]valueobjects.Position) { ticks.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Run(ctx, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, ticks.Load(), int32(0))
}

func TestStyles(t *testing.T) {
	manual := entities.Connection{ID: 1, SourceID: 1, TargetID: 2, Kind: entities.KindManual}
	inferred := entities.Connection{ID: 2, SourceID: 2, TargetID: 3, Kind: entities.KindInferred}

	tests := []struct {
		name     string
		styler   Styler
		conn     entities.Connection
		expected LinkStyle
	}{
		{"3d manual", threeDStyle{}, manual, LinkStyle{Color: "#ffffff", Width: 2}},
		{"3d inferred", threeDStyle{}, inferred, LinkStyle{Color: "#555555", Width: 1}},
		{"2d manual", twoDStyle{}, manual, LinkStyle{Color: "#848484", Width: 1}},
		{"2d inferred", twoDStyle{}, inferred, LinkStyle{Color: "#848484", Width: 1, Dashed: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.styler.Link(tt.conn))
		})
	}

	e := entities.Entity{ID: 1, Title: "Long", Size: 1000}
	node := threeDStyle{}.Node(e)
	assert.Equal(t, valueobjects.DefaultColor, node.Color)
	assert.Equal(t, e.NodeValue(), node.Size)
}

func TestRenderer_NodesAndLinks(t *testing.T) {
	r := New(config.ModeTwoD, config.TwoDDomainConfig())
	two, ok := r.(*TwoDRenderer)
	require.True(t, ok)

	two.SetData(&aggregates.Snapshot{
		Entities: []entities.Entity{
			note(2, valueobjects.NoGroup(), 10, 10, 0),
			note(1, valueobjects.NoGroup(), 0, 0, 0),
		},
		Connections: []entities.Connection{{ID: 5, SourceID: 1, TargetID: 2, Kind: entities.KindInferred}},
	})

	nodes := two.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, valueobjects.EntityID(2), nodes[0].Entity.ID)
	assert.True(t, nodes[0].Position.Equals(valueobjects.MustPosition(10, 10, 0)))

	links := two.Links()
	require.Len(t, links, 1)
	assert.True(t, links[0].Style.Dashed)

	_, ok = New(config.ModeThreeD, config.ThreeDDomainConfig()).(*ThreeDRenderer)
	assert.True(t, ok)
}

func TestRenderer_ConfigureKeepsDimensions(t *testing.T) {
	r := NewTwoDRenderer(config.TwoDDomainConfig())
	r.Configure(config.ThreeDDomainConfig())
	assert.Equal(t, 2, r.Dimensions())
}
