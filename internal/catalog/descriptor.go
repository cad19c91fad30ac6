package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalidDescriptor is returned when a marketplace descriptor is not valid JSON
// or does not have the expected shape
var ErrInvalidDescriptor = errors.New("invalid marketplace descriptor")

const schemaURL = "marketplace.schema.json"

//go:embed marketplace.schema.json
var schemaDocument []byte

var descriptorSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaDocument))
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to load descriptor schema: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// Descriptor is a parsed marketplace descriptor
type Descriptor struct {
	Name    string
	Plugins []Plugin
}

// ParseDescriptor validates data against the descriptor schema and returns its
// plugins in listed order. Numbers are kept as json.Number so they are written
// back exactly as read.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	schema, err := descriptorSchema()
	if err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}

	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}

	// the schema guarantees these shapes
	root := doc.(map[string]any)
	descriptor := &Descriptor{}
	descriptor.Name, _ = root["name"].(string)

	entries, _ := root["plugins"].([]any)
	descriptor.Plugins = make([]Plugin, 0, len(entries))
	for _, entry := range entries {
		descriptor.Plugins = append(descriptor.Plugins, Plugin(entry.(map[string]any)))
	}

	return descriptor, nil
}
