package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TestRepoConfig contains configuration for creating a test repository
type TestRepoConfig struct {
	Files  map[string]string // Map of filename to content
	Author *object.Signature // Author for commits (uses default if nil)
}

// CreateTestRepo creates a Git repository on a "main" branch holding the given files
// in a single commit. The repository lives in a t.TempDir and is removed with the test.
func CreateTestRepo(t *testing.T, config TestRepoConfig) string {
	t.Helper()

	repoDir := t.TempDir()

	repo, err := git.PlainInitWithOptions(repoDir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	if err != nil {
		t.Fatalf("Failed to init repository: %v", err)
	}

	CommitFiles(t, repo, repoDir, config, "Initial commit")
	return repoDir
}

// CreateTestRepoWithBranches creates a test repository whose main branch holds mainCommit
// and where every entry of branches forks from main with its own extra commit.
func CreateTestRepoWithBranches(t *testing.T, mainCommit TestRepoConfig, branches map[string]TestRepoConfig) string {
	t.Helper()

	repoDir := CreateTestRepo(t, mainCommit)
	repo := openRepo(t, repoDir)

	workTree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}

	for branchName, branchConfig := range branches {
		if err := workTree.Checkout(&git.CheckoutOptions{Branch: plumbing.Main}); err != nil {
			t.Fatalf("Failed to checkout main: %v", err)
		}
		err = workTree.Checkout(&git.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName(branchName),
			Create: true,
		})
		if err != nil {
			t.Fatalf("Failed to create and checkout branch %s: %v", branchName, err)
		}
		CommitFiles(t, repo, repoDir, branchConfig, "Add "+branchName)
	}

	if err := workTree.Checkout(&git.CheckoutOptions{Branch: plumbing.Main}); err != nil {
		t.Fatalf("Failed to checkout main: %v", err)
	}
	return repoDir
}

// ReplaceTestRepoContent commits a new tree on the current branch: every tracked file
// is deleted and the files of config are written in its place.
func ReplaceTestRepoContent(t *testing.T, repoDir string, config TestRepoConfig) {
	t.Helper()

	repo := openRepo(t, repoDir)
	workTree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}

	idx, err := repo.Storer.Index()
	if err != nil {
		t.Fatalf("Failed to read index: %v", err)
	}
	tracked := make([]string, 0, len(idx.Entries))
	for _, entry := range idx.Entries {
		tracked = append(tracked, entry.Name)
	}
	for _, name := range tracked {
		if _, err := workTree.Remove(name); err != nil {
			t.Fatalf("Failed to remove tracked file %s: %v", name, err)
		}
	}

	CommitFiles(t, repo, repoDir, config, "Replace content")
}

// CommitFiles writes the files of config into the worktree and commits them
func CommitFiles(t *testing.T, repo *git.Repository, repoDir string, config TestRepoConfig, message string) {
	t.Helper()

	workTree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}

	author := config.Author
	if author == nil {
		author = &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
		}
	}

	for filename, content := range config.Files {
		filePath := filepath.Join(repoDir, filepath.FromSlash(filename))

		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", filename, err)
		}
		if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file %s: %v", filename, err)
		}
		if _, err := workTree.Add(filename); err != nil {
			t.Fatalf("Failed to add file %s: %v", filename, err)
		}
	}

	_, err = workTree.Commit(message, &git.CommitOptions{
		Author:            author,
		AllowEmptyCommits: true,
	})
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
}

func openRepo(t *testing.T, repoDir string) *git.Repository {
	t.Helper()

	repo, err := git.PlainOpen(repoDir)
	if err != nil {
		t.Fatalf("Failed to open repository %s: %v", repoDir, err)
	}
	return repo
}
