package provenance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	t.Parallel()

	var root Chain
	assert.Equal(t, DirectTag, root.Tag())

	outer := root.Append("outer")
	inner := outer.Append("inner")
	assert.Equal(t, "outer", outer.Tag())
	assert.Equal(t, "outer/inner", inner.Tag())
	assert.Empty(t, root)

	// appending to a shared prefix never aliases the siblings
	a := inner.Append("a")
	b := inner.Append("b")
	assert.Equal(t, "outer/inner/a", a.Tag())
	assert.Equal(t, "outer/inner/b", b.Tag())
}

func TestTracker(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	tracker.Record("shared", "marketplace-b")
	tracker.Record("single", "marketplace-a")
	tracker.Record("shared", "marketplace-a")
	tracker.Record("shared", "marketplace-b")
	tracker.Record("repeated", "marketplace-a")
	tracker.Record("repeated", "marketplace-a")

	assert.Equal(t, 3, tracker.Len())
	assert.Equal(t, []string{"repeated", "shared", "single"}, tracker.Names())
	assert.Equal(t, []string{"marketplace-b", "marketplace-a", "marketplace-b"}, tracker.Tags("shared"))

	assert.Equal(t, Value{"marketplace-a", "marketplace-b"}, tracker.Value("shared"))
	assert.Equal(t, []string{"marketplace-a", "marketplace-b"}, tracker.Value("shared").Interface())
	assert.Equal(t, "marketplace-a", tracker.Value("single").Interface())
	assert.Equal(t, "marketplace-a", tracker.Value("repeated").Interface())
	assert.Empty(t, tracker.Value("unknown"))

	// reads never change what was recorded
	assert.Equal(t, []string{"marketplace-a", "marketplace-a"}, tracker.Tags("repeated"))
}

func TestValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		tags     []string
		wantJSON string
		wantStr  string
	}{
		{name: "single", tags: []string{"a"}, wantJSON: `"a"`, wantStr: "a"},
		{name: "duplicates collapse", tags: []string{"a", "a"}, wantJSON: `"a"`, wantStr: "a"},
		{name: "sorted list", tags: []string{"source-2", "source-1"}, wantJSON: `["source-1","source-2"]`, wantStr: "[source-1, source-2]"},
		{name: "empty", tags: nil, wantJSON: `[]`, wantStr: "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := NewValue(tt.tags)
			data, err := json.Marshal(v)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantJSON, string(data))
			assert.Equal(t, tt.wantStr, v.String())
		})
	}
}
