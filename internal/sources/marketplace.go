package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/stacklok/marketplace-sync/internal/catalog"
	"github.com/stacklok/marketplace-sync/internal/config"
	"github.com/stacklok/marketplace-sync/internal/filtering"
	"github.com/stacklok/marketplace-sync/internal/git"
)

// marketplaceSourceHandler imports the plugins listed by a marketplace repository
type marketplaceSourceHandler struct {
	fetcher       *repositoryFetcher
	filterService filtering.FilterService
}

// NewMarketplaceSourceHandler creates a new marketplace source handler
func NewMarketplaceSourceHandler(gitClient git.Client, filterService filtering.FilterService) SourceHandler {
	return &marketplaceSourceHandler{
		fetcher:       &repositoryFetcher{gitClient: gitClient},
		filterService: filterService,
	}
}

// Validate validates the marketplace source configuration
func (*marketplaceSourceHandler) Validate(source *config.SourceConfig) error {
	if source == nil {
		return fmt.Errorf("source configuration cannot be nil")
	}
	if source.Type != config.SourceTypeMarketplace {
		return fmt.Errorf("expected source type %s, got %s", config.SourceTypeMarketplace, source.Type)
	}
	if source.URL == "" {
		return fmt.Errorf("marketplace url cannot be empty")
	}
	if source.Branch == "" {
		return fmt.Errorf("marketplace branch cannot be empty")
	}
	if source.TagPrefix == "" {
		return fmt.Errorf("marketplace tag prefix cannot be empty")
	}
	return nil
}

// Process fetches the marketplace and returns its plugins minus the denylist.
// Relative "./" sources are rewritten to point into the upstream repository and
// every plugin is tagged with the chain extended by the source's tag prefix.
// Nested marketplaces listed as plugins are not followed.
func (h *marketplaceSourceHandler) Process(ctx context.Context, req *Request) *Result {
	src := req.Source
	if err := h.Validate(src); err != nil {
		return failedResult(src, ReasonInvalidSource, "marketplace source validation failed", fmt.Errorf("%w: %w", ErrInvalidSource, err))
	}

	logger := logr.FromContextOrDiscard(ctx).WithValues("marketplace", src.URL, "branch", src.Branch)
	ctx = logr.NewContext(ctx, logger)

	key := src.Key()
	if req.Processed != nil && !req.Processed.MarkProcessed(key) {
		logger.Info("Already processed, skipping", "key", key)
		return &Result{Source: src, Status: StatusSkippedAlreadyProcessed}
	}

	logger.Info("Processing marketplace")

	repoInfo, err := h.fetcher.fetch(ctx, src, req.WorkDir)
	if err != nil {
		return failedResult(src, ReasonFetchFailed, "failed to fetch marketplace", err)
	}
	defer h.fetcher.release(ctx, repoInfo)

	data, err := h.fetcher.gitClient.GetFileContent(repoInfo, catalog.DescriptorPath)
	if err != nil {
		if errors.Is(err, git.ErrFileNotFound) {
			logger.Error(err, "No marketplace descriptor found", "path", catalog.DescriptorPath)
		} else {
			logger.Error(err, "Failed to read marketplace descriptor", "path", catalog.DescriptorPath)
		}
		return failedResult(src, ReasonDescriptorMissing,
			fmt.Sprintf("no %s in %s", catalog.DescriptorPath, src.URL),
			fmt.Errorf("%w: %w", ErrMissingDescriptor, err))
	}

	descriptor, err := catalog.ParseDescriptor(data)
	if err != nil {
		logger.Error(err, "Invalid marketplace descriptor", "path", catalog.DescriptorPath)
		return failedResult(src, ReasonDescriptorInvalid,
			fmt.Sprintf("invalid %s in %s", catalog.DescriptorPath, src.URL), err)
	}

	plugins, skipped := h.filterService.ApplyDenylist(ctx, descriptor.Plugins, src.Denylist)

	tag := req.Chain.Append(src.TagPrefix).Tag()
	provenanceField := provenanceFieldOf(req.Settings)

	entries := make([]Entry, 0, len(plugins))
	for _, plugin := range plugins {
		record := plugin.Clone()
		rewriteRelativeSource(record, src)
		record[provenanceField] = tag

		logger.V(1).Info("Adding plugin", "plugin", record.Name(), "tag", tag)
		entries = append(entries, Entry{Plugin: record, Tag: tag})
	}

	logger.Info("Processed marketplace",
		"tag", tag,
		"listed", len(descriptor.Plugins),
		"added", len(entries),
		"denylisted", len(skipped))

	return okResult(src, entries, skipped)
}

// rewriteRelativeSource points a "./" source at the same path inside the upstream repository
func rewriteRelativeSource(record catalog.Plugin, src *config.SourceConfig) {
	ref, ok := record["source"].(string)
	if !ok || !git.IsRelativeReference(ref) {
		return
	}
	record["source"] = git.ResolveReference(src.URL, src.Branch, ref)
}
