package entities

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"notegraph/domain/core/valueobjects"
)

func TestEntityPatch_Apply(t *testing.T) {
	base := Entity{
		ID:      1,
		Title:   "Title",
		Content: "old",
		Color:   "#ffffff",
		GroupID: valueobjects.GroupOf(3),
	}

	content := "new"
	clear := valueobjects.NoGroup()
	pos := valueobjects.MustPosition(1, 2, 3)

	tests := []struct {
		name  string
		patch EntityPatch
		check func(t *testing.T, got Entity)
	}{
		{
			name:  "empty patch changes nothing",
			patch: EntityPatch{ID: 1},
			check: func(t *testing.T, got Entity) { assert.Equal(t, base, got) },
		},
		{
			name:  "content only",
			patch: EntityPatch{ID: 1, Content: &content},
			check: func(t *testing.T, got Entity) {
				assert.Equal(t, "new", got.Content)
				assert.Equal(t, "#ffffff", got.Color)
				assert.True(t, got.GroupID.Equals(valueobjects.GroupOf(3)))
			},
		},
		{
			name:  "clearing the cloud",
			patch: EntityPatch{ID: 1, GroupID: &clear},
			check: func(t *testing.T, got Entity) { assert.False(t, got.GroupID.IsSet()) },
		},
		{
			name:  "position only",
			patch: PositionPatch(1, pos),
			check: func(t *testing.T, got Entity) { assert.True(t, got.Position.Equals(pos)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.patch.Apply(base))
		})
	}
}

func TestEntityPatch_Flags(t *testing.T) {
	assert.True(t, EntityPatch{ID: 1}.IsEmpty())

	pos := PositionPatch(1, valueobjects.Origin)
	assert.False(t, pos.IsEmpty())
	assert.False(t, pos.TouchesEditable())

	color := "#000"
	assert.True(t, EntityPatch{ID: 1, Color: &color}.TouchesEditable())
}

func TestEntity_NodeValue(t *testing.T) {
	assert.Equal(t, 5.0, Entity{Size: 0}.NodeValue())
	assert.InDelta(t, math.Log(101)*3+2, Entity{Size: 100}.NodeValue(), 1e-9)
}

func TestConnection_Pair(t *testing.T) {
	a := Connection{SourceID: 5, TargetID: 2}
	b := Connection{SourceID: 2, TargetID: 5}
	assert.Equal(t, a.Pair(), b.Pair())
	assert.Equal(t, Pair{Low: 2, High: 5}, PairOf(5, 2))
	assert.True(t, a.Touches(2))
	assert.False(t, a.Touches(3))
}

func TestParseConnectionKind(t *testing.T) {
	assert.Equal(t, KindInferred, ParseConnectionKind("text"))
	assert.Equal(t, KindInferred, ParseConnectionKind("Inferred"))
	assert.Equal(t, KindManual, ParseConnectionKind("manual"))
	assert.Equal(t, KindManual, ParseConnectionKind(""))
}
