// Package config provides configuration loading and management for marketplace-sync.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pelletier/go-toml/v2"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/marketplace-sync/internal/git"
)

const (
	// SourceTypeMarketplace is the type for sources that publish a marketplace descriptor
	SourceTypeMarketplace = "marketplace"

	// SourceTypeSkill is the type for sources that are copied verbatim as a single skill
	SourceTypeSkill = "skill"
)

const (
	// DefaultBranch is the branch fetched when a source does not name one
	DefaultBranch = "main"

	// DefaultProvenanceField is the plugin key provenance is emitted under
	DefaultProvenanceField = "source_marketplace"

	// DefaultConfigPath is where the configuration is read from when no path is given
	DefaultConfigPath = ".sync-config.json"

	// DefaultSkillCategory is the category synthesized skill records receive
	DefaultSkillCategory = "skills"
)

// Marketplace metadata written when the configuration leaves it out
const (
	DefaultMarketplaceName        = "aggregated-marketplace"
	DefaultMarketplaceVersion     = "1.0.0"
	DefaultMarketplaceDescription = "Aggregated Claude Code marketplace"
	DefaultOwnerName              = "Marketplace Aggregator"
	DefaultOwnerEmail             = "noreply@example.com"
)

// DefaultExcludePatterns are applied to skill copies when sync_settings sets none
var DefaultExcludePatterns = []string{".git"}

// ErrConfig wraps every failure to read, parse or validate the configuration
var ErrConfig = errors.New("configuration error")

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a JSON, YAML or TOML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Sources are processed in the order they are listed
	Sources      []SourceConfig    `json:"sources" yaml:"sources" toml:"sources"`
	Marketplace  MarketplaceConfig `json:"marketplace" yaml:"marketplace" toml:"marketplace"`
	SyncSettings SyncSettings      `json:"sync_settings" yaml:"sync_settings" toml:"sync_settings"`
}

// SourceConfig describes one upstream repository. Type selects which fields apply.
type SourceConfig struct {
	// Type is either "marketplace" or "skill". Empty means "skill".
	Type   string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	URL    string `json:"url" yaml:"url" toml:"url"`
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty" toml:"branch,omitempty"`

	// Denylist holds exact plugin names dropped from a marketplace source
	Denylist []string `json:"denylist,omitempty" yaml:"denylist,omitempty" toml:"denylist,omitempty"`

	// TagPrefix is the provenance identifier of a marketplace source.
	// Defaults to the repository name inferred from URL.
	TagPrefix string `json:"tag_prefix,omitempty" yaml:"tag_prefix,omitempty" toml:"tag_prefix,omitempty"`

	// TargetPath is where a skill is copied, relative to the output root.
	// Defaults to skills/<name>.
	TargetPath  string `json:"target_path,omitempty" yaml:"target_path,omitempty" toml:"target_path,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`
}

// MarketplaceConfig holds the metadata of the aggregated catalog
type MarketplaceConfig struct {
	Name        string         `json:"name" yaml:"name" toml:"name"`
	Version     string         `json:"version" yaml:"version" toml:"version"`
	Description string         `json:"description" yaml:"description" toml:"description"`
	Owner       map[string]any `json:"owner" yaml:"owner" toml:"owner"`
}

// SyncSettings holds settings shared by every source
type SyncSettings struct {
	// ProvenanceField is the plugin key the provenance value is written to
	ProvenanceField string `json:"provenance_field" yaml:"provenance_field" toml:"provenance_field"`

	// ExcludePatterns are glob patterns of paths left out of skill copies
	ExcludePatterns []string `json:"exclude_patterns" yaml:"exclude_patterns" toml:"exclude_patterns"`
}

// LoadConfig loads, defaults and validates configuration from a file.
// The encoding is chosen by extension: .yaml/.yml, .toml, anything else is JSON
// with comments and trailing commas permitted.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrConfig)
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %w", ErrConfig, err)
	}

	config, err := Parse(data, filepath.Ext(loaderCfg.path))
	if err != nil {
		return nil, err
	}

	return config, nil
}

// Parse decodes data in the encoding named by ext, applies defaults and validates the result
func Parse(data []byte, ext string) (*Config, error) {
	var config Config
	if err := decode(data, strings.ToLower(ext), &config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid configuration: %w", ErrConfig, err)
	}

	return &config, nil
}

func decode(data []byte, ext string, config *Config) error {
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(standardized))
		if err := dec.Decode(config); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}
	return nil
}

// applyDefaults fills every optional field left empty by the document
func (c *Config) applyDefaults() {
	if c.Marketplace.Name == "" {
		c.Marketplace.Name = DefaultMarketplaceName
	}
	if c.Marketplace.Version == "" {
		c.Marketplace.Version = DefaultMarketplaceVersion
	}
	if c.Marketplace.Description == "" {
		c.Marketplace.Description = DefaultMarketplaceDescription
	}
	if c.Marketplace.Owner == nil {
		c.Marketplace.Owner = map[string]any{
			"name":  DefaultOwnerName,
			"email": DefaultOwnerEmail,
		}
	}

	if c.SyncSettings.ProvenanceField == "" {
		c.SyncSettings.ProvenanceField = DefaultProvenanceField
	}
	if c.SyncSettings.ExcludePatterns == nil {
		c.SyncSettings.ExcludePatterns = append([]string(nil), DefaultExcludePatterns...)
	}

	for i := range c.Sources {
		src := &c.Sources[i]
		if src.Type == "" {
			src.Type = SourceTypeSkill
		}
		if src.Branch == "" {
			src.Branch = DefaultBranch
		}
		switch src.Type {
		case SourceTypeMarketplace:
			if src.TagPrefix == "" && src.URL != "" {
				src.TagPrefix = git.RepoName(src.URL)
			}
		case SourceTypeSkill:
			if src.TargetPath == "" && src.Name != "" {
				src.TargetPath = path.Join("skills", src.Name)
			}
		}
	}
}

// validate performs validation on the configuration. Unknown source types are
// accepted here and reported when the source is processed.
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	for _, pattern := range c.SyncSettings.ExcludePatterns {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("sync_settings.exclude_patterns: invalid pattern %q: %w", pattern, err)
		}
	}

	for i := range c.Sources {
		if err := c.Sources[i].validate(i); err != nil {
			return err
		}
	}

	return nil
}

func (s *SourceConfig) validate(index int) error {
	prefix := fmt.Sprintf("sources[%d]", index)
	if s.Name != "" {
		prefix = fmt.Sprintf("sources[%d] (%s)", index, s.Name)
	}

	switch s.Type {
	case SourceTypeMarketplace:
		if s.URL == "" {
			return fmt.Errorf("%s: url is required", prefix)
		}
	case SourceTypeSkill:
		if s.Name == "" {
			return fmt.Errorf("%s: name is required", prefix)
		}
		if s.URL == "" {
			return fmt.Errorf("%s: url is required", prefix)
		}
		if err := ValidateTargetPath(s.TargetPath); err != nil {
			return fmt.Errorf("%s: %w", prefix, err)
		}
	}
	return nil
}

// ValidateTargetPath checks that a skill target names a directory strictly below
// the output root. The root itself and anything under .git are rejected, since
// the target is cleared before every copy.
func ValidateTargetPath(target string) error {
	if !filepath.IsLocal(filepath.FromSlash(target)) {
		return fmt.Errorf("target_path must be a relative path inside the output root, got %q", target)
	}
	cleaned := path.Clean(filepath.ToSlash(target))
	if cleaned == "." {
		return fmt.Errorf("target_path must not be the output root, got %q", target)
	}
	if first, _, _ := strings.Cut(cleaned, "/"); first == ".git" {
		return fmt.Errorf("target_path must not point into .git, got %q", target)
	}
	return nil
}

// Key identifies the fetch of a source within one run
func (s *SourceConfig) Key() string {
	return s.URL + "@" + s.Branch
}

// DisplayName returns the name shown in logs and summaries
func (s *SourceConfig) DisplayName() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.TagPrefix != "":
		return s.TagPrefix
	default:
		return s.URL
	}
}
