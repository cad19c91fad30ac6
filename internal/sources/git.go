package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"

	"github.com/stacklok/marketplace-sync/internal/config"
	"github.com/stacklok/marketplace-sync/internal/git"
)

// repositoryFetcher materializes source repositories in the scratch directory
type repositoryFetcher struct {
	gitClient git.Client
}

// fetch clones the source into a fresh directory under workDir. The caller
// must hand the result to release.
func (f *repositoryFetcher) fetch(ctx context.Context, src *config.SourceConfig, workDir string) (*git.RepositoryInfo, error) {
	logger := logr.FromContextOrDiscard(ctx)

	cloneRoot, err := os.MkdirTemp(workDir, src.Type+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create clone directory: %w", err)
	}

	cloneConfig := &git.CloneConfig{
		URL:       src.URL,
		Branch:    src.Branch,
		Directory: filepath.Join(cloneRoot, "repo"),
	}

	startTime := time.Now()
	logger.Info("Starting git clone", "repository", cloneConfig.URL, "branch", cloneConfig.Branch)

	repoInfo, err := f.gitClient.Clone(ctx, cloneConfig)
	cloneDuration := time.Since(startTime)
	if err != nil {
		_ = os.RemoveAll(cloneRoot)
		logger.Error(err, "Git clone failed",
			"repository", cloneConfig.URL,
			"branch", cloneConfig.Branch,
			"duration", cloneDuration.String())
		return nil, fmt.Errorf("%w: %s@%s: %w", ErrFetch, src.URL, src.Branch, err)
	}

	logger.Info("Git clone completed",
		"repository", cloneConfig.URL,
		"branch", repoInfo.Branch,
		"commit_sha", repoInfo.CommitSHA,
		"duration", cloneDuration.String())

	return repoInfo, nil
}

// release removes the working tree of a fetched repository
func (f *repositoryFetcher) release(ctx context.Context, repoInfo *git.RepositoryInfo) {
	if err := f.gitClient.Cleanup(ctx, repoInfo); err != nil {
		// Log error but don't fail the operation
		logr.FromContextOrDiscard(ctx).Error(err, "Failed to cleanup repository", "directory", repoInfo.Directory)
	}
	if repoInfo.Directory != "" {
		_ = os.RemoveAll(filepath.Dir(repoInfo.Directory))
	}
}
