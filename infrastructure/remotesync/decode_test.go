package remotesync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
)

func TestDecodeSnapshotAliases(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "current field names",
			body: `{
				"entities": [
					{"id": 1, "title": "Go", "content": "gopher", "color": "#44aaff", "group_id": 7, "x": 1, "y": 2, "z": 3, "size": 6},
					{"id": 2, "title": "Rust", "content": "", "group_id": null, "x": 0, "y": 0, "z": 0, "size": 0}
				],
				"connections": [{"id": 10, "source_id": 1, "target_id": 2, "kind": "manual"}],
				"groups": [{"id": 7, "name": "langs"}]
			}`,
		},
		{
			name: "legacy 2D field names",
			body: `{
				"nodes": [
					{"id": 1, "label": "Go", "content": "gopher", "color": "#44aaff", "cloud_id": 7, "position": {"x": 1, "y": 2, "z": 3}},
					{"id": 2, "label": "Rust", "content": ""}
				],
				"edges": [{"id": 10, "from": 1, "to": 2, "type": "manual"}],
				"clouds": [{"id": 7, "name": "langs"}]
			}`,
		},
		{
			name: "links with object endpoints",
			body: `{
				"nodes": [
					{"id": 1, "title": "Go", "content": "gopher", "color": "#44aaff", "group_id": 7, "x": 1, "y": 2, "z": 3},
					{"id": 2, "title": "Rust"}
				],
				"links": [{"id": 10, "source": {"id": 1}, "target": {"id": 2}}],
				"groups": [{"id": 7, "name": "langs"}]
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := decodeSnapshot([]byte(tt.body))
			require.NoError(t, err)

			require.Len(t, snap.Entities, 2)
			require.Len(t, snap.Connections, 1)
			require.Len(t, snap.Groups, 1)

			goEntity := snap.Entities[0]
			assert.Equal(t, valueobjects.EntityID(1), goEntity.ID)
			assert.Equal(t, "Go", goEntity.Title)
			assert.Equal(t, 6, goEntity.Size)
			assert.True(t, goEntity.GroupID.Equals(valueobjects.GroupOf(7)))
			assert.True(t, goEntity.Position.Equals(valueobjects.MustPosition(1, 2, 3)))

			assert.False(t, snap.Entities[1].GroupID.IsSet())

			conn := snap.Connections[0]
			assert.Equal(t, valueobjects.EntityID(1), conn.SourceID)
			assert.Equal(t, valueobjects.EntityID(2), conn.TargetID)
			assert.Equal(t, entities.KindManual, conn.Kind)

			assert.Equal(t, "langs", snap.Groups[0].Name)
		})
	}
}

func TestDecodeSnapshotMissingCollections(t *testing.T) {
	snap, err := decodeSnapshot([]byte(`{"nodes": []}`))
	require.NoError(t, err)
	assert.Empty(t, snap.Entities)
	assert.NotNil(t, snap.Connections)
	assert.NotNil(t, snap.Groups)
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ``},
		{"not json", `<html>oops</html>`},
		{"array root", `[]`},
		{"note without id", `{"entities": [{"title": "x"}]}`},
		{"connection without endpoints", `{"connections": [{"id": 3}]}`},
		{"cloud without id", `{"groups": [{"name": "x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeSnapshot([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestTextConnectionsAreInferred(t *testing.T) {
	conn, err := decodeConnection([]byte(`{"id": 4, "from": 1, "to": 2, "type": "text"}`))
	require.NoError(t, err)
	assert.Equal(t, entities.KindInferred, conn.Kind)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Note already exists", errorMessage([]byte(`{"error": "Note already exists"}`)))
	assert.Equal(t, "bad", errorMessage([]byte(`{"error": true, "message": "bad"}`)))
	assert.Equal(t, "", errorMessage([]byte(`Internal Server Error`)))
}
