package filtering

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/stacklok/marketplace-sync/internal/catalog"
)

// FilterService applies the name filter to the plugins of a marketplace
type FilterService interface {
	// ApplyDenylist returns the plugins whose names are not denied, in their
	// original order, plus the names that were dropped
	ApplyDenylist(ctx context.Context, plugins []catalog.Plugin, denylist []string) ([]catalog.Plugin, []string)
}

// defaultFilterService implements FilterService on top of a NameFilter
type defaultFilterService struct {
	nameFilter NameFilter
}

// NewDefaultFilterService creates a new defaultFilterService with the default name filter
func NewDefaultFilterService() FilterService {
	return &defaultFilterService{
		nameFilter: NewDefaultNameFilter(),
	}
}

// NewFilterService creates a new defaultFilterService with a custom name filter
func NewFilterService(nameFilter NameFilter) FilterService {
	return &defaultFilterService{
		nameFilter: nameFilter,
	}
}

// ApplyDenylist drops every plugin whose name the filter rejects. Each
// decision is logged with its reason.
func (s *defaultFilterService) ApplyDenylist(
	ctx context.Context,
	plugins []catalog.Plugin,
	denylist []string,
) ([]catalog.Plugin, []string) {
	logger := logr.FromContextOrDiscard(ctx)

	kept := make([]catalog.Plugin, 0, len(plugins))
	var dropped []string
	for _, plugin := range plugins {
		name := plugin.Name()
		included, reason := s.nameFilter.ShouldInclude(name, denylist)
		if !included {
			dropped = append(dropped, name)
			logger.Info("Skipping denylisted plugin", "plugin", name, "reason", reason)
			continue
		}
		logger.V(1).Info("Including plugin", "plugin", name, "reason", reason)
		kept = append(kept, plugin)
	}

	logger.V(1).Info("Denylist applied", "included", len(kept), "excluded", len(dropped))
	return kept, dropped
}
