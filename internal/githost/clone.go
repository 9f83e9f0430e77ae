package githost

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// CloneResult describes a completed shallow clone.
type CloneResult struct {
	LocalPath string
	Owner     string
	Repo      string
	Branch    string
	Commit    string
	tmpDir    bool
}

// CloneManager shallow-clones repositories to temporary directories. Used by
// the one-shot CLI scan, which reads files from disk instead of the host API.
type CloneManager struct{}

func NewCloneManager() *CloneManager { return &CloneManager{} }

// Clone clones repoURL to a temp directory at depth 1. token authenticates
// HTTPS; branch is optional (defaults to HEAD).
func (cm *CloneManager) Clone(ctx context.Context, repoURL, token, branch string) (*CloneResult, error) {
	tmpDir, err := os.MkdirTemp("", "codeguardian-clone-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}

	cloneOpts := &gogit.CloneOptions{
		URL:   repoURL,
		Depth: 1,
	}
	if token != "" {
		cloneOpts.Auth = &githttp.BasicAuth{
			Username: "codeguardian",
			Password: token,
		}
	}
	if branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		cloneOpts.SingleBranch = true
	}

	slog.Debug("cloning repository", "url", repoURL, "branch", branch, "dest", tmpDir)

	repo, err := gogit.PlainCloneContext(ctx, tmpDir, false, cloneOpts)
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("cloning %s: %w", repoURL, err)
	}

	head, err := repo.Head()
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	resolvedBranch := head.Name().Short()
	if resolvedBranch == "" {
		resolvedBranch = branch
	}

	owner, repoName := parseOwnerRepo(repoURL)
	return &CloneResult{
		LocalPath: tmpDir,
		Owner:     owner,
		Repo:      repoName,
		Branch:    resolvedBranch,
		Commit:    head.Hash().String(),
		tmpDir:    true,
	}, nil
}

// Cleanup removes the temp directory created by Clone.
func (cm *CloneManager) Cleanup(result *CloneResult) {
	if result == nil || !result.tmpDir {
		return
	}
	if err := os.RemoveAll(result.LocalPath); err != nil {
		slog.Warn("failed to clean up clone directory", "path", result.LocalPath, "error", err)
	}
}

func parseOwnerRepo(repoURL string) (string, string) {
	s := strings.TrimSuffix(repoURL, ".git")
	s = strings.TrimSuffix(s, "/")
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[i+1:]
		s = strings.Replace(s, ":", "/", 1)
	}
	parts := strings.Split(s, "/")
	if len(parts) >= 3 {
		return parts[len(parts)-2], parts[len(parts)-1]
	}
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", s
}
