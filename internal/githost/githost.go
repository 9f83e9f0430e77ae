// Package githost abstracts the Git hosting platforms repositories live on.
// Implementations: GitHub (cloud and Enterprise) and GitLab (cloud and
// self-hosted).
package githost

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codeguardian-ai/codeguardian/internal/config"
)

// ErrFileTooLarge is returned by GetFileContent when the host reports the
// file exceeds the fetchable size.
var ErrFileTooLarge = errors.New("file too large to fetch")

// TreeEntry is one blob in a repository tree listing.
type TreeEntry struct {
	// Path is the file path relative to the repository root.
	Path string
	// Size is the blob size in bytes. Zero when the host omits it.
	Size int64
}

// Client exposes the read operations the scan pipeline needs against a
// hosting platform, plus webhook registration for push-triggered scans.
type Client interface {
	// Name identifies the provider ("github" or "gitlab").
	Name() string

	// ListTree returns every blob in the repository tree at ref, recursively.
	ListTree(ctx context.Context, owner, repo, ref string) ([]TreeEntry, error)

	// GetFileContent fetches one file's decoded content at ref.
	GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error)

	// DefaultBranch returns the repository's default branch name.
	DefaultBranch(ctx context.Context, owner, repo string) (string, error)

	// CreateWebhook registers a push webhook pointing at callbackURL,
	// signed with secret. Idempotent on the GitHub side; GitLab may
	// register duplicates, callers should check first.
	CreateWebhook(ctx context.Context, owner, repo, callbackURL, secret string) error
}

// New returns a Client for the given provider authenticated with token.
func New(provider, token string, cfg config.GitConfig) (Client, error) {
	switch strings.ToLower(provider) {
	case "github", "":
		return NewGitHub(token)
	case "gitlab":
		return NewGitLab(token, cfg.GitLabHost)
	default:
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}
}

// SplitFullName splits "owner/name" into its halves.
func SplitFullName(fullName string) (owner, name string) {
	if i := strings.IndexByte(fullName, '/'); i >= 0 {
		return fullName[:i], fullName[i+1:]
	}
	return fullName, ""
}
