package sources

import (
	"fmt"

	"github.com/stacklok/marketplace-sync/internal/config"
	"github.com/stacklok/marketplace-sync/internal/filtering"
	"github.com/stacklok/marketplace-sync/internal/git"
)

// defaultSourceHandlerFactory is the default implementation of SourceHandlerFactory
type defaultSourceHandlerFactory struct {
	gitClient     git.Client
	filterService filtering.FilterService
}

var _ SourceHandlerFactory = (*defaultSourceHandlerFactory)(nil)

// NewSourceHandlerFactory creates a new source handler factory whose handlers fetch with gitClient
func NewSourceHandlerFactory(gitClient git.Client) SourceHandlerFactory {
	return &defaultSourceHandlerFactory{
		gitClient:     gitClient,
		filterService: filtering.NewDefaultFilterService(),
	}
}

// CreateHandler creates a source handler for the given source type
func (f *defaultSourceHandlerFactory) CreateHandler(sourceType string) (SourceHandler, error) {
	switch sourceType {
	case config.SourceTypeMarketplace:
		return NewMarketplaceSourceHandler(f.gitClient, f.filterService), nil
	case config.SourceTypeSkill:
		return NewSkillSourceHandler(f.gitClient), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, sourceType)
	}
}
