// Package catalog holds the plugin catalog types, the marketplace descriptor
// parser and the storage the aggregated catalog is written to.
package catalog

import (
	"encoding/json"
	"maps"
)

// DescriptorPath is where a marketplace repository publishes its catalog
const DescriptorPath = ".claude-plugin/marketplace.json"

// Plugin is a single catalog entry. Only "name" is interpreted; every other
// field is carried through unchanged.
type Plugin map[string]any

// Name returns the plugin name, or "" when it is missing or not a string
func (p Plugin) Name() string {
	name, _ := p["name"].(string)
	return name
}

// Version returns the version field as text, or "" when it is absent
func (p Plugin) Version() string {
	switch v := p["version"].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Clone returns a copy whose top-level fields can be changed without touching p
func (p Plugin) Clone() Plugin {
	return maps.Clone(p)
}

// Catalog is the aggregated marketplace written at the end of a run
type Catalog struct {
	Name        string
	Version     string
	Description string
	Owner       map[string]any
	Plugins     []Plugin
}

// document is the on-disk layout: top-level keys in a fixed order, plugin and
// owner objects with sorted keys
type document struct {
	Name        string           `json:"name"`
	Version     string           `json:"version"`
	Description string           `json:"description"`
	Owner       map[string]any   `json:"owner"`
	Plugins     []map[string]any `json:"plugins"`
}

func (c *Catalog) document() document {
	plugins := make([]map[string]any, 0, len(c.Plugins))
	for _, p := range c.Plugins {
		plugins = append(plugins, map[string]any(p))
	}

	owner := c.Owner
	if owner == nil {
		owner = map[string]any{}
	}

	return document{
		Name:        c.Name,
		Version:     c.Version,
		Description: c.Description,
		Owner:       owner,
		Plugins:     plugins,
	}
}
