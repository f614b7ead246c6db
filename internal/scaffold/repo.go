package scaffold

import (
	"fmt"
	"strings"
)

// NormalizeRepoURL expands an owner/repo shorthand into a GitHub URL. Values
// that already carry an http or https scheme are returned unchanged.
func NormalizeRepoURL(repo string) string {
	if strings.HasPrefix(repo, "http://") || strings.HasPrefix(repo, "https://") {
		return repo
	}
	return "https://github.com/" + repo
}

// ParseRepo returns the owner and repository name from a repository URL or
// shorthand. The last two path segments are used.
func ParseRepo(repoURL string) (owner, repo string, err error) {
	parts := strings.Split(strings.TrimRight(repoURL, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid repository URL: %s", repoURL)
	}
	owner = parts[len(parts)-2]
	repo = strings.TrimSuffix(parts[len(parts)-1], ".git")
	if owner == "" || repo == "" || strings.HasSuffix(owner, ":") {
		return "", "", fmt.Errorf("invalid repository URL: %s", repoURL)
	}
	return owner, repo, nil
}
