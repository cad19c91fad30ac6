package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/stacklok/marketplace-sync/internal/catalog"
	"github.com/stacklok/marketplace-sync/internal/config"
	"github.com/stacklok/marketplace-sync/internal/git"
	"github.com/stacklok/marketplace-sync/internal/versions"
)

// execute runs the root command with args and returns its stdout and stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestSync(t *testing.T) {
	t.Parallel()

	upstream := git.CreateTestRepo(t, git.TestRepoConfig{Files: map[string]string{
		catalog.DescriptorPath: `{"plugins": [{"name": "x", "source": "./plugins/x"}, {"name": "y"}, {"name": "z"}]}`,
	}})
	skillRepo := git.CreateTestRepo(t, git.TestRepoConfig{Files: map[string]string{
		"SKILL.md": "---\nname: pdf\nversion: 0.4.0\n---\n# PDF\n",
	}})

	root := t.TempDir()
	configPath := filepath.Join(root, ".sync-config.yaml")
	writeFile(t, configPath, `sources:
  - type: marketplace
    url: `+upstream+`
    tag_prefix: upstream
    denylist: [z]
  - name: pdf
    url: `+skillRepo+`
`)
	output := filepath.Join(root, ".claude-plugin", "marketplace.json")

	stdout, stderr, err := execute(t, "--config", configPath, "--output", output)
	require.NoError(t, err)
	assert.Empty(t, stderr)

	assert.Contains(t, stdout, "Total plugins: 3")
	assert.Contains(t, stdout, "Total marketplaces processed: 1")
	assert.Contains(t, stdout, "Total skills processed: 1")
	assert.Contains(t, stdout, "=== Provenance Summary ===")
	// progress is only printed in verbose mode
	assert.NotContains(t, stdout, "Processing marketplace")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y", "pdf"}, gjson.GetBytes(data, "plugins.#.name").Value())
	assert.Equal(t, "upstream", gjson.GetBytes(data, "plugins.0.source_marketplace").String())
	assert.Equal(t, upstream+"/tree/main/plugins/x", gjson.GetBytes(data, "plugins.0.source").String())
	assert.Equal(t, "0.4.0", gjson.GetBytes(data, "plugins.2.version").String())
	assert.Equal(t, "direct", gjson.GetBytes(data, "plugins.2.source_marketplace").String())
	assert.FileExists(t, filepath.Join(root, "skills", "pdf", "SKILL.md"))
}

func TestSync_Verbose(t *testing.T) {
	t.Parallel()

	upstream := git.CreateTestRepo(t, git.TestRepoConfig{Files: map[string]string{
		catalog.DescriptorPath: `{"plugins": [{"name": "x"}]}`,
	}})
	root := t.TempDir()
	configPath := filepath.Join(root, "config.json")
	writeFile(t, configPath, `{"sources": [{"type": "marketplace", "url": "`+upstream+`"}]}`)

	stdout, _, err := execute(t, "-v", "--config", configPath, "--output", filepath.Join(root, "out", "marketplace.json"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Processing marketplace")
	assert.Contains(t, stdout, "run_id")
	assert.FileExists(t, filepath.Join(root, "out", "marketplace.json"))
}

func TestSync_ExplicitRoot(t *testing.T) {
	t.Parallel()

	skillRepo := git.CreateTestRepo(t, git.TestRepoConfig{Files: map[string]string{"SKILL.md": "# skill"}})
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	writeFile(t, configPath, `{"sources": [{"name": "tool", "url": "`+skillRepo+`", "target_path": "vendor/tool"}]}`)
	root := filepath.Join(dir, "checkout")

	_, _, err := execute(t, "--config", configPath, "--output", filepath.Join(dir, "marketplace.json"), "--root", root)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "vendor", "tool", "SKILL.md"))
}

func TestSync_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	invalid := filepath.Join(dir, "invalid.json")
	writeFile(t, invalid, `{"sources": [{"type": "marketplace"}]}`)

	tests := []struct {
		name   string
		args   []string
		target error
	}{
		{name: "missing config", args: []string{"--config", filepath.Join(dir, "missing.json")}, target: config.ErrConfig},
		{name: "invalid config", args: []string{"--config", invalid}, target: config.ErrConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))
		})
	}

	t.Run("invalid log level", func(t *testing.T) {
		t.Parallel()
		_, _, err := execute(t, "--log-level", "chatty")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("skill fetch failure", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		configPath := filepath.Join(root, "config.json")
		writeFile(t, configPath, `{"sources": [{"name": "gone", "url": "`+filepath.Join(root, "missing")+`"}]}`)
		output := filepath.Join(root, ".claude-plugin", "marketplace.json")

		_, stderr, err := execute(t, "--config", configPath, "--output", output)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "skill gone")
		assert.Contains(t, stderr, "Aborting aggregation")
		assert.NoFileExists(t, output)
	})
}

// TestSync_EnvOverride cannot run in parallel because it sets environment variables
func TestSync_EnvOverride(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, "custom.json")
	writeFile(t, configPath, `{"marketplace": {"name": "from-env"}}`)
	output := filepath.Join(root, ".claude-plugin", "marketplace.json")

	t.Setenv("MARKETPLACE_SYNC_CONFIG", configPath)
	t.Setenv("MARKETPLACE_SYNC_OUTPUT", output)

	_, _, err := execute(t)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "from-env", gjson.GetBytes(data, "name").String())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, configPath, `{
  // comments are allowed
  "sources": [
    {"type": "marketplace", "url": "https://github.com/owner/upstream.git"},
    {"name": "pdf", "url": "https://github.com/owner/pdf-skill"},
  ]
}`)

	stdout, _, err := execute(t, "validate", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration is valid: 2 source(s)")
	assert.Contains(t, stdout, "upstream")
	assert.Contains(t, stdout, "skills/pdf")
	assert.Contains(t, stdout, "https://github.com/owner/pdf-skill")
}

func TestValidate_Invalid(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, configPath, "[[sources]]\ntype = \"skill\"\nurl = \"https://example.com/s\"\n")

	_, _, err := execute(t, "validate", "--config", configPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrConfig))
	assert.Contains(t, err.Error(), "name is required")
}

func TestVersion(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)

	var info versions.VersionInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, versions.GetVersionInfo(), info)

	stdout, _, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "marketplace-sync ")
	assert.Contains(t, stdout, "platform:")
}
