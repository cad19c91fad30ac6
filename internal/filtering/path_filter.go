package filtering

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// PathFilter matches paths inside a copied tree against exclude patterns
type PathFilter struct {
	patterns []pathPattern
}

type pathPattern struct {
	raw      string
	compiled glob.Glob
	// anchored patterns contain a "/" and match the whole relative path;
	// the others match the entry's base name at any depth
	anchored bool
}

// NewPathFilter compiles exclude patterns. A pattern without "/" is matched
// against the base name of every entry, so ".git" or "*.pyc" apply at any
// depth. A pattern with "/" is matched against the slash-separated path
// relative to the tree root, where "*" stays within one segment and "**"
// spans segments.
func NewPathFilter(patterns []string) (*PathFilter, error) {
	filter := &PathFilter{patterns: make([]pathPattern, 0, len(patterns))}
	for _, raw := range patterns {
		anchored := strings.Contains(raw, "/")

		var (
			compiled glob.Glob
			err      error
		)
		if anchored {
			compiled, err = glob.Compile(strings.TrimPrefix(raw, "/"), '/')
		} else {
			compiled, err = glob.Compile(raw)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern '%s': %w", raw, err)
		}

		filter.patterns = append(filter.patterns, pathPattern{raw: raw, compiled: compiled, anchored: anchored})
	}
	return filter, nil
}

// Excluded reports whether rel, a slash-separated path relative to the tree
// root, matches any exclude pattern, and which one
func (f *PathFilter) Excluded(rel string) (bool, string) {
	if f == nil {
		return false, ""
	}
	base := path.Base(rel)
	for _, p := range f.patterns {
		target := base
		if p.anchored {
			target = rel
		}
		if p.compiled.Match(target) {
			return true, fmt.Sprintf("excluded by pattern '%s'", p.raw)
		}
	}
	return false, ""
}

// Patterns returns the patterns the filter was built from
func (f *PathFilter) Patterns() []string {
	if f == nil {
		return nil
	}
	raw := make([]string, 0, len(f.patterns))
	for _, p := range f.patterns {
		raw = append(raw, p.raw)
	}
	return raw
}
