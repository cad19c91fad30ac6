package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func listTree(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestReplaceTree(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"SKILL.md":            "---\nversion: 2.0.0\n---\n",
		"scripts/run.sh":      "#!/bin/sh\n",
		".git/HEAD":           "ref: refs/heads/main\n",
		"cache/x.pyc":         "bytecode",
		"docs/guide/intro.md": "intro",
	})
	require.NoError(t, os.Chmod(filepath.Join(src, "scripts", "run.sh"), 0o755))

	dst := filepath.Join(t.TempDir(), "skills", "demo")
	writeTree(t, dst, map[string]string{"stale.txt": "old"})

	skip := func(rel string, _ fs.DirEntry) bool {
		return rel == ".git" || filepath.Ext(rel) == ".pyc"
	}
	require.NoError(t, ReplaceTree(src, dst, skip))

	assert.ElementsMatch(t, []string{"SKILL.md", "scripts/run.sh", "docs/guide/intro.md"}, listTree(t, dst))

	info, err := os.Stat(filepath.Join(dst, "scripts", "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o755), info.Mode().Perm())

	content, err := os.ReadFile(filepath.Join(dst, "docs", "guide", "intro.md"))
	require.NoError(t, err)
	assert.Equal(t, "intro", string(content))
}

func TestReplaceTree_Symlink(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeTree(t, src, map[string]string{"README.md": "readme"})
	require.NoError(t, os.Symlink("README.md", filepath.Join(src, "LINK.md")))

	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(t, ReplaceTree(src, dst, nil))

	link, err := os.Readlink(filepath.Join(dst, "LINK.md"))
	require.NoError(t, err)
	assert.Equal(t, "README.md", link)
}

func TestReplaceTree_SourceErrors(t *testing.T) {
	t.Parallel()

	dst := filepath.Join(t.TempDir(), "out")
	require.Error(t, ReplaceTree(filepath.Join(t.TempDir(), "missing"), dst, nil))

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	err := ReplaceTree(file, dst, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}
