package git

import (
	"github.com/go-git/go-git/v5"
)

// CloneConfig contains configuration for cloning a repository
type CloneConfig struct {
	// URL is the repository URL to clone
	URL string

	// Branch is the branch to check out. Defaults to the remote HEAD when empty.
	Branch string

	// Directory is the local directory the working tree is materialized into.
	// It must not exist or be empty.
	Directory string
}

// RepositoryInfo contains information about a cloned Git repository
type RepositoryInfo struct {
	// Repository is the go-git repository instance
	Repository *git.Repository

	// Branch is the checked out branch name
	Branch string

	// RemoteURL is the remote repository URL
	RemoteURL string

	// Directory is the local working tree
	Directory string

	// CommitSHA is the commit HEAD points at after the clone
	CommitSHA string
}
