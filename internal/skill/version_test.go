package skill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "frontmatter",
			content: "---\nversion: 2.1.0\nname: pdf\n---\n# PDF\n",
			want:    "2.1.0",
		},
		{
			name:    "frontmatter_quoted",
			content: "---\nname: pdf\nversion: \"3.0.1\"\n---\n",
			want:    "3.0.1",
		},
		{
			name:    "frontmatter_number_literal",
			content: "---\nversion: 1.10\n---\n",
			want:    "1.10",
		},
		{
			name:    "frontmatter_prerelease",
			content: "---\nversion: 1.0.0-beta.1\n---\n",
			want:    "1.0.0-beta.1",
		},
		{
			name:    "metadata_section",
			content: "# Skill\n\nSome text.\n\n## Skill Metadata\n\n- author: someone\n- version: 1.5.0\n",
			want:    "1.5.0",
		},
		{
			name:    "metadata_section_case_insensitive",
			content: "## skill metadata\nVersion: '0.9.2'\n",
			want:    "0.9.2",
		},
		{
			name:    "frontmatter_wins_over_metadata",
			content: "---\nversion: 2.0.0\n---\n## Skill Metadata\nversion: 1.0.5\n",
			want:    "2.0.0",
		},
		{
			name:    "frontmatter_without_version_falls_back_to_metadata",
			content: "---\nname: pdf\n---\n## Skill Metadata\nversion: 4.2.0\n",
			want:    "4.2.0",
		},
		{
			name:    "version_outside_metadata_section_ignored",
			content: "# Skill\nversion: 9.9.9\n## Usage\n",
			want:    DefaultVersion,
		},
		{
			name:    "unterminated_frontmatter",
			content: "---\nversion: 2.0.0\n# no closing delimiter\n",
			want:    DefaultVersion,
		},
		{
			name:    "not_a_version",
			content: "---\nversion: latest\n---\n",
			want:    DefaultVersion,
		},
		{
			name:    "malformed_yaml",
			content: "---\nversion: [1.0\n---\n",
			want:    DefaultVersion,
		},
		{
			name:    "empty",
			content: "",
			want:    DefaultVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractVersion([]byte(tt.content)))
		})
	}
}

func TestExtractVersionFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DescriptorFile)
	require.NoError(t, os.WriteFile(path, []byte("---\nversion: 2.0.0\n---\n"), 0600))

	version, err := ExtractVersionFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", version)

	version, err = ExtractVersionFromFile(filepath.Join(dir, "missing", DescriptorFile))
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, version)

	// a directory where the file should be is a read error, recovered to the default
	version, err = ExtractVersionFromFile(dir)
	require.Error(t, err)
	assert.Equal(t, DefaultVersion, version)
}
