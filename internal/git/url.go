package git

import (
	"net/url"
	"path"
	"strings"
)

// RepoName extracts the repository name from a git URL.
//
//	https://github.com/owner/repo.git -> repo
//	git@github.com:owner/repo.git     -> repo
//	https://github.com/owner/repo/    -> repo
func RepoName(rawURL string) string {
	p := rawURL
	if strings.HasPrefix(rawURL, "http") {
		if u, err := url.Parse(rawURL); err == nil {
			p = u.Path
		}
	} else if i := strings.LastIndex(rawURL, ":"); i >= 0 {
		p = rawURL[i+1:]
	}

	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return strings.TrimSuffix(p, ".git")
}

// CanonicalURL returns the browsable location of a repository: scheme URLs lose
// credentials, the ".git" suffix and trailing slashes, and scp-style remotes
// (git@host:owner/repo.git) are rewritten to https. Anything else, such as a
// local path, is only trimmed.
func CanonicalURL(rawURL string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(rawURL, "/"), ".git")

	if u, err := url.Parse(trimmed); err == nil && u.Scheme != "" && u.Host != "" {
		switch u.Scheme {
		case "ssh", "git", "git+ssh":
			// the transport port means nothing over https
			u.Scheme = "https"
			u.Host = u.Hostname()
		}
		u.User = nil
		return strings.TrimRight(u.String(), "/")
	}

	if host, repoPath, ok := splitSCP(trimmed); ok {
		return "https://" + host + "/" + strings.TrimLeft(repoPath, "/")
	}

	return trimmed
}

// IsRelativeReference reports whether ref points inside the repository it was read from.
func IsRelativeReference(ref string) bool {
	return strings.HasPrefix(ref, "./")
}

// ResolveReference turns a "./"-relative path read from a repository into a
// fully-qualified reference built from the repository's canonical location,
// the branch, and the path.
func ResolveReference(repoURL, branch, ref string) string {
	base := CanonicalURL(repoURL)
	rel := path.Clean(strings.TrimPrefix(ref, "./"))

	resolved := base + treeSegment(base) + branch
	if rel != "." && rel != "/" {
		resolved += "/" + strings.TrimLeft(rel, "/")
	}
	return resolved
}

// treeSegment returns the path segment that precedes a ref in browse URLs for the host.
func treeSegment(base string) string {
	host := ""
	if u, err := url.Parse(base); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	switch {
	case strings.Contains(host, "gitlab"):
		return "/-/tree/"
	case strings.Contains(host, "bitbucket"):
		return "/src/"
	default:
		return "/tree/"
	}
}

// splitSCP parses scp-like remotes of the form [user@]host:path.
func splitSCP(remote string) (host, repoPath string, ok bool) {
	if strings.Contains(remote, "://") {
		return "", "", false
	}
	colon := strings.Index(remote, ":")
	if colon <= 0 {
		return "", "", false
	}
	hostPart := remote[:colon]
	if strings.Contains(hostPart, "/") {
		return "", "", false
	}
	if at := strings.LastIndex(hostPart, "@"); at >= 0 {
		hostPart = hostPart[at+1:]
	}
	if hostPart == "" {
		return "", "", false
	}
	return hostPart, remote[colon+1:], true
}
