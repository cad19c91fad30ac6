package filtering

import (
	"fmt"
	"slices"
)

// NameFilter decides whether a plugin is kept based on its name
type NameFilter interface {
	// ShouldInclude determines if a plugin name should be included given a denylist
	// Returns (shouldInclude bool, reason string)
	ShouldInclude(name string, denylist []string) (bool, string)
}

// defaultNameFilter implements name filtering using exact, case-sensitive matching
type defaultNameFilter struct{}

var _ NameFilter = (*defaultNameFilter)(nil)

// NewDefaultNameFilter creates a new defaultNameFilter
func NewDefaultNameFilter() NameFilter {
	return &defaultNameFilter{}
}

// ShouldInclude excludes a name that is listed in denylist verbatim. Listing
// "foo" never excludes "foo-bar" or "Foo".
func (*defaultNameFilter) ShouldInclude(name string, denylist []string) (bool, string) {
	if len(denylist) == 0 {
		return true, "no denylist specified"
	}
	if slices.Contains(denylist, name) {
		return false, fmt.Sprintf("name '%s' is in denylist", name)
	}
	return true, fmt.Sprintf("no match in denylist %v", denylist)
}
