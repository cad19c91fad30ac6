package sources

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/stacklok/marketplace-sync/internal/catalog"
	"github.com/stacklok/marketplace-sync/internal/config"
	"github.com/stacklok/marketplace-sync/internal/filtering"
	"github.com/stacklok/marketplace-sync/internal/fsutil"
	"github.com/stacklok/marketplace-sync/internal/git"
	"github.com/stacklok/marketplace-sync/internal/skill"
)

// skillSourceHandler copies a skill repository into the output tree and
// synthesizes a single plugin record for it
type skillSourceHandler struct {
	fetcher *repositoryFetcher
}

// NewSkillSourceHandler creates a new skill source handler
func NewSkillSourceHandler(gitClient git.Client) SourceHandler {
	return &skillSourceHandler{
		fetcher: &repositoryFetcher{gitClient: gitClient},
	}
}

// Validate validates the skill source configuration
func (*skillSourceHandler) Validate(source *config.SourceConfig) error {
	if source == nil {
		return fmt.Errorf("source configuration cannot be nil")
	}
	if source.Type != config.SourceTypeSkill {
		return fmt.Errorf("expected source type %s, got %s", config.SourceTypeSkill, source.Type)
	}
	if source.Name == "" {
		return fmt.Errorf("skill name cannot be empty")
	}
	if source.URL == "" {
		return fmt.Errorf("skill url cannot be empty")
	}
	if err := config.ValidateTargetPath(source.TargetPath); err != nil {
		return fmt.Errorf("invalid skill target: %w", err)
	}
	return nil
}

// containsPath reports whether child is parent or lies below it
func containsPath(parent, child string) bool {
	parentAbs, err := filepath.Abs(parent)
	if err != nil {
		return false
	}
	childAbs, err := filepath.Abs(child)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(parentAbs, childAbs)
	return err == nil && filepath.IsLocal(rel)
}

// Process replaces the skill's target directory with a fresh copy of the
// repository and returns the synthesized record
func (h *skillSourceHandler) Process(ctx context.Context, req *Request) *Result {
	src := req.Source
	if err := h.Validate(src); err != nil {
		return failedResult(src, ReasonInvalidSource, "skill source validation failed", fmt.Errorf("%w: %w", ErrInvalidSource, err))
	}

	logger := logr.FromContextOrDiscard(ctx).WithValues("skill", src.Name)
	ctx = logr.NewContext(ctx, logger)
	logger.Info("Processing skill", "repository", src.URL, "branch", src.Branch)

	target := filepath.Join(req.OutputRoot, filepath.FromSlash(src.TargetPath))
	if req.OutputPath != "" && containsPath(target, filepath.Dir(req.OutputPath)) {
		err := fmt.Errorf("%w: target %s contains the catalog directory %s", ErrInvalidSource, target, filepath.Dir(req.OutputPath))
		logger.Error(err, "Refusing to replace skill target")
		return failedResult(src, ReasonInvalidSource, fmt.Sprintf("skill %s would overwrite the catalog", src.Name), err)
	}

	var excludePatterns []string
	if req.Settings != nil {
		excludePatterns = req.Settings.ExcludePatterns
	}
	pathFilter, err := filtering.NewPathFilter(excludePatterns)
	if err != nil {
		return failedResult(src, ReasonCopyFailed, "invalid exclude patterns", fmt.Errorf("%w: %w", ErrCopy, err))
	}

	repoInfo, err := h.fetcher.fetch(ctx, src, req.WorkDir)
	if err != nil {
		return failedResult(src, ReasonFetchFailed, fmt.Sprintf("failed to fetch skill %s", src.Name), err)
	}
	defer h.fetcher.release(ctx, repoInfo)

	skip := func(rel string, _ fs.DirEntry) bool {
		excluded, reason := pathFilter.Excluded(rel)
		if excluded {
			logger.V(1).Info("Excluding path from skill copy", "path", rel, "reason", reason)
		}
		return excluded
	}
	if err := fsutil.ReplaceTree(repoInfo.Directory, target, skip); err != nil {
		logger.Error(err, "Failed to copy skill", "target", target)
		return failedResult(src, ReasonCopyFailed,
			fmt.Sprintf("failed to copy skill %s to %s", src.Name, src.TargetPath),
			fmt.Errorf("%w: %w", ErrCopy, err))
	}

	version, err := skill.ExtractVersionFromFile(filepath.Join(target, skill.DescriptorFile))
	if err != nil {
		logger.Error(err, "Failed to extract skill version, using default", "default", version)
	}

	tag := req.Chain.Tag()
	record := synthesizeSkillRecord(src, version, provenanceFieldOf(req.Settings), tag)

	logger.Info("Added skill", "version", version, "target", src.TargetPath)
	return okResult(src, []Entry{{Plugin: record, Tag: tag}}, nil)
}

func synthesizeSkillRecord(src *config.SourceConfig, version, provenanceField, tag string) catalog.Plugin {
	description := src.Description
	if description == "" {
		description = "Skill: " + src.Name
	}
	category := src.Category
	if category == "" {
		category = config.DefaultSkillCategory
	}

	return catalog.Plugin{
		"name":          src.Name,
		"description":   description,
		"version":       version,
		"source":        "./" + path.Clean(src.TargetPath),
		"category":      category,
		provenanceField: tag,
	}
}

func provenanceFieldOf(settings *config.SyncSettings) string {
	if settings != nil && settings.ProvenanceField != "" {
		return settings.ProvenanceField
	}
	return config.DefaultProvenanceField
}
