// Package aggregator runs a sync: it processes every configured source in
// order, merges the results into one catalog and stores it.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/stacklok/marketplace-sync/internal/catalog"
	"github.com/stacklok/marketplace-sync/internal/config"
	"github.com/stacklok/marketplace-sync/internal/provenance"
	"github.com/stacklok/marketplace-sync/internal/sources"
	"github.com/stacklok/marketplace-sync/internal/versions"
)

// ErrAlreadyRun is returned when Run is called twice on the same Aggregator
var ErrAlreadyRun = errors.New("aggregator already ran")

// Option configures an Aggregator
type Option func(*Aggregator)

// WithOutputRoot sets the directory skill target paths are resolved against
func WithOutputRoot(root string) Option {
	return func(a *Aggregator) {
		a.outputRoot = root
	}
}

// WithOutputPath sets the output location reported in the summary
func WithOutputPath(path string) Option {
	return func(a *Aggregator) {
		a.outputPath = path
	}
}

// WithScratchBase sets the directory the run's scratch directory is created in.
// Defaults to the system temporary directory.
func WithScratchBase(dir string) Option {
	return func(a *Aggregator) {
		a.scratchBase = dir
	}
}

// Aggregator holds the state of a single run. Create a new one for every run.
type Aggregator struct {
	cfg     *config.Config
	factory sources.SourceHandlerFactory
	storage catalog.StorageManager

	outputRoot  string
	outputPath  string
	scratchBase string

	// run state, append-only until finalize
	workDir   string
	processed map[string]struct{}
	plugins   []catalog.Plugin
	tracker   *provenance.Tracker
	ran       bool
}

var _ sources.ProcessedSet = (*Aggregator)(nil)

// New creates an Aggregator for cfg that writes its catalog through storage
func New(cfg *config.Config, factory sources.SourceHandlerFactory, storage catalog.StorageManager, opts ...Option) *Aggregator {
	a := &Aggregator{
		cfg:       cfg,
		factory:   factory,
		storage:   storage,
		processed: make(map[string]struct{}),
		tracker:   provenance.NewTracker(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DefaultOutputRoot returns the repository root implied by an output path such
// as "<root>/.claude-plugin/marketplace.json"
func DefaultOutputRoot(outputPath string) string {
	return filepath.Dir(filepath.Dir(outputPath))
}

// MarkProcessed records a repository fetch key and reports whether it was new
func (a *Aggregator) MarkProcessed(key string) bool {
	if _, ok := a.processed[key]; ok {
		return false
	}
	a.processed[key] = struct{}{}
	return true
}

// Run processes every source in configuration order, then writes the
// deduplicated catalog. Marketplace failures are logged and skipped; a skill
// that is invalid or cannot be fetched or copied aborts the run before
// anything is written.
// The scratch directory is removed on every return path.
func (a *Aggregator) Run(ctx context.Context) (*Summary, error) {
	if a.ran {
		return nil, ErrAlreadyRun
	}
	a.ran = true

	logger := logr.FromContextOrDiscard(ctx)

	workDir, err := os.MkdirTemp(a.scratchBase, "marketplace-sync-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	a.workDir = workDir
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Error(err, "Failed to remove scratch directory", "directory", workDir)
		}
	}()

	logger.Info("Starting aggregation", "sources", len(a.cfg.Sources), "output", a.outputPath)

	summary := &Summary{OutputPath: a.outputPath}
	for i := range a.cfg.Sources {
		src := &a.cfg.Sources[i]
		result := a.ProcessSource(ctx, src, nil)
		summary.addSource(result)

		if err := checkResult(result); err != nil {
			logger.Error(err, "Aborting aggregation", "source", src.DisplayName())
			return summary, err
		}
	}

	out := a.finalize(ctx)
	if err := a.storage.Store(ctx, out); err != nil {
		return summary, err
	}

	summary.setCatalog(out, a.tracker)
	logger.Info("Marketplace aggregation complete", "plugins", summary.PluginCount)
	return summary, nil
}

// ProcessSource processes one source nested under chain and accumulates what it contributes
func (a *Aggregator) ProcessSource(ctx context.Context, src *config.SourceConfig, chain provenance.Chain) *sources.Result {
	logger := logr.FromContextOrDiscard(ctx)

	handler, err := a.factory.CreateHandler(src.Type)
	if err != nil {
		logger.Error(err, "Unknown source type, skipping", "type", src.Type, "source", src.DisplayName())
		return &sources.Result{
			Source: src,
			Status: sources.StatusFailed,
			Err: &sources.Error{
				Err:     err,
				Message: fmt.Sprintf("cannot process source %s", src.DisplayName()),
				Reason:  sources.ReasonUnsupportedType,
			},
		}
	}

	result := handler.Process(ctx, &sources.Request{
		Source:     src,
		Chain:      chain,
		Settings:   &a.cfg.SyncSettings,
		WorkDir:    a.workDir,
		OutputRoot: a.outputRoot,
		OutputPath: a.outputPath,
		Processed:  a,
	})
	if result == nil {
		result = &sources.Result{
			Source: src,
			Status: sources.StatusFailed,
			Err:    &sources.Error{Message: "handler returned no result", Reason: sources.ReasonFetchFailed},
		}
	}

	for _, entry := range result.Entries {
		name := entry.Plugin.Name()
		a.plugins = append(a.plugins, entry.Plugin)
		a.tracker.Record(name, entry.Tag)
	}

	if result.Status == sources.StatusFailed && result.Err != nil {
		logger.Error(result.Err, "Source failed", "source", src.DisplayName(), "reason", result.Err.Reason)
	}
	return result
}

// checkResult returns an error when a result must stop the run
func checkResult(result *sources.Result) error {
	if result.Status != sources.StatusFailed || result.Err == nil {
		return nil
	}
	if result.Source == nil || result.Source.Type != config.SourceTypeSkill {
		return nil
	}
	switch result.Err.Reason {
	case sources.ReasonFetchFailed, sources.ReasonCopyFailed, sources.ReasonInvalidSource:
		return fmt.Errorf("skill %s: %w", result.Source.Name, result.Err)
	}
	return nil
}

// finalize builds the catalog from the accumulated plugins
func (a *Aggregator) finalize(ctx context.Context) *catalog.Catalog {
	return &catalog.Catalog{
		Name:        a.cfg.Marketplace.Name,
		Version:     a.cfg.Marketplace.Version,
		Description: a.cfg.Marketplace.Description,
		Owner:       a.cfg.Marketplace.Owner,
		Plugins:     Deduplicate(ctx, a.plugins, a.tracker, a.cfg.SyncSettings.ProvenanceField),
	}
}

// Deduplicate keeps the first plugin of every name in insertion order and sets
// provenanceField on it to the merged provenance of that name. The merge covers
// every recorded tag, including those of discarded duplicates.
func Deduplicate(ctx context.Context, plugins []catalog.Plugin, tracker *provenance.Tracker, provenanceField string) []catalog.Plugin {
	logger := logr.FromContextOrDiscard(ctx)

	seen := make(map[string]catalog.Plugin, len(plugins))
	unique := make([]catalog.Plugin, 0, len(plugins))
	for _, plugin := range plugins {
		name := plugin.Name()
		if kept, dup := seen[name]; dup {
			logger.Info("Discarding duplicate plugin, first occurrence wins",
				"plugin", name,
				"discarded_provenance", plugin[provenanceField])
			if versions.IsNewer(plugin.Version(), kept.Version()) {
				logger.Info("Discarded duplicate has a newer version",
					"plugin", name,
					"kept_version", kept.Version(),
					"discarded_version", plugin.Version())
			}
			continue
		}
		seen[name] = plugin

		record := plugin.Clone()
		record[provenanceField] = tracker.Value(name).Interface()
		unique = append(unique, record)
	}
	return unique
}
