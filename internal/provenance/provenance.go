// Package provenance records which upstream sources every plugin came from.
package provenance

import (
	"encoding/json"
	"slices"
	"strings"
)

// DirectTag is the tag of a skill that is not nested in any other source
const DirectTag = "direct"

// Chain is the ordered list of source identifiers enclosing a source
type Chain []string

// Append returns a new chain extended with id. The receiver is not modified.
func (c Chain) Append(id string) Chain {
	next := make(Chain, 0, len(c)+1)
	next = append(next, c...)
	return append(next, id)
}

// Tag joins the chain with "/", or returns DirectTag for an empty chain
func (c Chain) Tag() string {
	if len(c) == 0 {
		return DirectTag
	}
	return strings.Join(c, "/")
}

// Tracker collects the tags of every plugin name in the order they were recorded.
// It is append-only; reads collapse the collected tags without changing them.
type Tracker struct {
	tags  map[string][]string
	order []string
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{tags: make(map[string][]string)}
}

// Record appends tag to the tags of name. Duplicates are kept.
func (t *Tracker) Record(name, tag string) {
	if _, ok := t.tags[name]; !ok {
		t.order = append(t.order, name)
	}
	t.tags[name] = append(t.tags[name], tag)
}

// Tags returns a copy of every tag recorded for name, in recording order
func (t *Tracker) Tags(name string) []string {
	return slices.Clone(t.tags[name])
}

// Value returns the collapsed provenance of name
func (t *Tracker) Value(name string) Value {
	return NewValue(t.tags[name])
}

// Names returns every tracked plugin name in sorted order
func (t *Tracker) Names() []string {
	names := slices.Clone(t.order)
	slices.Sort(names)
	return names
}

// Len returns the number of tracked plugin names
func (t *Tracker) Len() int {
	return len(t.order)
}

// Value is the distinct, sorted set of tags of one plugin
type Value []string

// NewValue deduplicates and sorts tags
func NewValue(tags []string) Value {
	v := slices.Clone(tags)
	slices.Sort(v)
	return Value(slices.Compact(v))
}

// Interface returns the emitted form: a bare string for a single tag, a list otherwise
func (v Value) Interface() any {
	if len(v) == 1 {
		return v[0]
	}
	return append([]string{}, v...)
}

// String renders the value for humans
func (v Value) String() string {
	if len(v) == 1 {
		return v[0]
	}
	return "[" + strings.Join(v, ", ") + "]"
}

// MarshalJSON encodes the value in its emitted form
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}
