// Package skill reads metadata from skill descriptors (SKILL.md).
package skill

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

const (
	// DescriptorFile is the skill descriptor at the root of a skill tree
	DescriptorFile = "SKILL.md"

	// DefaultVersion is reported when a descriptor carries no usable version
	DefaultVersion = "1.0.0"
)

var (
	frontmatterDelimiter = []byte("---")

	// "## Skill Metadata" followed, anywhere later, by "version: x.y.z"
	metadataVersion = regexp.MustCompile(`(?is)##\s*Skill Metadata.*?version:\s*["']?([0-9][0-9A-Za-z.+-]*)["']?`)
)

// ExtractVersion returns the version declared in a SKILL.md document. The YAML
// frontmatter "version" key wins, then a "version:" line inside a "Skill Metadata"
// section. Anything that does not parse as a semantic version is ignored and
// DefaultVersion is returned.
func ExtractVersion(content []byte) string {
	if v, ok := frontmatterVersion(content); ok {
		return v
	}
	if m := metadataVersion.FindSubmatch(content); m != nil {
		if v := string(m[1]); isVersion(v) {
			return v
		}
	}
	return DefaultVersion
}

// ExtractVersionFromFile reads path and extracts its version. A missing file
// yields DefaultVersion without error.
func ExtractVersionFromFile(path string) (string, error) {
	content, err := os.ReadFile(path) //nolint:gosec // path is the descriptor of a tree we copied
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultVersion, nil
		}
		return DefaultVersion, fmt.Errorf("failed to read skill descriptor: %w", err)
	}
	return ExtractVersion(content), nil
}

// frontmatterVersion reads the "version" key of a leading "---" delimited YAML block
func frontmatterVersion(content []byte) (string, bool) {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))
	lines := bytes.SplitAfter(content, []byte("\n"))
	if len(lines) == 0 || !bytes.Equal(bytes.TrimSpace(lines[0]), frontmatterDelimiter) {
		return "", false
	}

	var block bytes.Buffer
	closed := false
	for _, line := range lines[1:] {
		if bytes.Equal(bytes.TrimSpace(line), frontmatterDelimiter) {
			closed = true
			break
		}
		block.Write(line)
	}
	if !closed {
		return "", false
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(block.Bytes(), &doc); err != nil || len(doc.Content) == 0 {
		return "", false
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return "", false
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		if key.Value != "version" || value.Kind != yaml.ScalarNode {
			continue
		}
		if isVersion(value.Value) {
			return value.Value, true
		}
		return "", false
	}
	return "", false
}

func isVersion(v string) bool {
	_, err := semver.NewVersion(v)
	return err == nil
}
