package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRef(t *testing.T) {
	t.Run("zero value is no group", func(t *testing.T) {
		var ref GroupRef
		_, ok := ref.ID()
		assert.False(t, ok)
		assert.True(t, ref.Equals(NoGroup()))
		assert.Equal(t, "none", ref.String())
	})

	t.Run("non-positive id yields no group", func(t *testing.T) {
		assert.False(t, GroupOf(0).IsSet())
		assert.False(t, GroupOf(-3).IsSet())
	})

	t.Run("json null round trip", func(t *testing.T) {
		data, err := json.Marshal(NoGroup())
		require.NoError(t, err)
		assert.Equal(t, "null", string(data))

		data, err = json.Marshal(GroupOf(7))
		require.NoError(t, err)
		assert.Equal(t, "7", string(data))

		var ref GroupRef
		require.NoError(t, json.Unmarshal([]byte("12"), &ref))
		id, ok := ref.ID()
		assert.True(t, ok)
		assert.Equal(t, GroupID(12), id)

		require.NoError(t, json.Unmarshal([]byte("null"), &ref))
		assert.False(t, ref.IsSet())
	})
}

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: DefaultColor},
		{in: "#FF0000", want: "#ff0000"},
		{in: "#abc", want: "#abc"},
		{in: "red", wantErr: true},
		{in: "#12345", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
