package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/stacklok/marketplace-sync/internal/fsutil"
)

// ErrOutputWrite wraps every failure to persist the aggregated catalog
var ErrOutputWrite = errors.New("failed to write catalog")

//go:generate mockgen -destination=mocks/mock_storage_manager.go -package=mocks -source=storage_manager.go StorageManager

// StorageManager defines the interface for catalog persistence
type StorageManager interface {
	// Store writes the catalog, replacing any previous one
	Store(ctx context.Context, catalog *Catalog) error

	// Get reads back the last stored catalog
	Get(ctx context.Context) (*Catalog, error)
}

// fileStorageManager implements StorageManager using a single JSON file
type fileStorageManager struct {
	path string
}

// NewFileStorageManager creates a storage manager writing the catalog to path
func NewFileStorageManager(path string) StorageManager {
	return &fileStorageManager{
		path: path,
	}
}

// Store writes the catalog as JSON with a fixed top-level key order, sorted
// nested keys, two-space indentation and a trailing newline, so an unchanged
// catalog produces identical bytes. A file that already holds those bytes is
// left untouched.
func (f *fileStorageManager) Store(ctx context.Context, catalog *Catalog) error {
	if catalog == nil {
		return fmt.Errorf("%w: catalog is nil", ErrOutputWrite)
	}

	data, err := Encode(catalog)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}

	logger := logr.FromContextOrDiscard(ctx).WithValues("path", f.path)

	//nolint:gosec // File path is internally managed by StorageManager, not user input
	if current, err := os.ReadFile(f.path); err == nil && bytes.Equal(current, data) {
		logger.Info("Catalog unchanged, skipping write", "plugins", len(catalog.Plugins))
		return nil
	}

	// Create parent directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil {
		return fmt.Errorf("%w: failed to create output directory: %w", ErrOutputWrite, err)
	}

	if err := fsutil.AtomicWrite(f.path, data, 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}

	logger.Info("Catalog written", "plugins", len(catalog.Plugins), "bytes", len(data))
	return nil
}

// Get reads and parses the catalog file
func (f *fileStorageManager) Get(_ context.Context) (*Catalog, error) {
	//nolint:gosec // File path is internally managed by StorageManager, not user input
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return Decode(data)
}

// Encode renders the catalog in its on-disk form
func Encode(catalog *Catalog) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(catalog.document()); err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses the on-disk form of a catalog
func Decode(data []byte) (*Catalog, error) {
	var raw document

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	catalog := &Catalog{
		Name:        raw.Name,
		Version:     raw.Version,
		Description: raw.Description,
		Owner:       raw.Owner,
		Plugins:     make([]Plugin, 0, len(raw.Plugins)),
	}
	for _, p := range raw.Plugins {
		catalog.Plugins = append(catalog.Plugins, Plugin(p))
	}
	return catalog, nil
}
