package filtering

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"

	"github.com/stacklok/marketplace-sync/internal/catalog"
)

func TestNewDefaultFilterService(t *testing.T) {
	t.Parallel()

	service := NewDefaultFilterService()
	assert.NotNil(t, service)
}

func TestNewFilterService(t *testing.T) {
	t.Parallel()

	nameFilter := NewDefaultNameFilter()
	service := NewFilterService(nameFilter)
	assert.NotNil(t, service)
	assert.Equal(t, nameFilter, service.(*defaultFilterService).nameFilter)
}

func TestDefaultFilterService_ApplyDenylist(t *testing.T) {
	t.Parallel()

	plugins := []catalog.Plugin{
		{"name": "x", "version": "1.0.0"},
		{"name": "y"},
		{"name": "z"},
		{"name": "x-extra"},
	}

	tests := []struct {
		name        string
		denylist    []string
		wantNames   []string
		wantDropped []string
	}{
		{
			name:      "no_denylist",
			denylist:  nil,
			wantNames: []string{"x", "y", "z", "x-extra"},
		},
		{
			name:        "single_entry",
			denylist:    []string{"z"},
			wantNames:   []string{"x", "y", "x-extra"},
			wantDropped: []string{"z"},
		},
		{
			name:        "exact_match_only",
			denylist:    []string{"x", "Y", "missing"},
			wantNames:   []string{"y", "z", "x-extra"},
			wantDropped: []string{"x"},
		},
		{
			name:        "everything_denied",
			denylist:    []string{"x", "y", "z", "x-extra"},
			wantNames:   []string{},
			wantDropped: []string{"x", "y", "z", "x-extra"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := logr.NewContext(t.Context(), logr.Discard())

			kept, dropped := NewDefaultFilterService().ApplyDenylist(ctx, plugins, tt.denylist)

			names := make([]string, 0, len(kept))
			for _, p := range kept {
				names = append(names, p.Name())
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantDropped, dropped)
		})
	}
}

func TestDefaultFilterService_ApplyDenylist_KeepsPayload(t *testing.T) {
	t.Parallel()

	plugins := []catalog.Plugin{{"name": "x", "nested": map[string]any{"k": "v"}}}
	kept, _ := NewDefaultFilterService().ApplyDenylist(t.Context(), plugins, []string{"other"})

	assert.Equal(t, plugins, kept)
}
