package githost

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	gogithub "github.com/google/go-github/v68/github"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
)

// GitHubClient implements Client for GitHub using the REST API: tree listing
// via the Git Data API and content fetches via the Contents API, so the
// pipeline never needs a local checkout.
type GitHubClient struct {
	client *gogithub.Client
}

// NewGitHub creates a GitHubClient authenticated with token. Requests retry
// transient failures and rate limits with backoff.
func NewGitHub(token string) (*GitHubClient, error) {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, rc.StandardClient())
	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		hc = oauth2.NewClient(ctx, ts)
	} else {
		hc = rc.StandardClient()
	}

	return &GitHubClient{client: gogithub.NewClient(hc)}, nil
}

func (g *GitHubClient) Name() string { return "github" }

func (g *GitHubClient) ListTree(ctx context.Context, owner, repo, ref string) ([]TreeEntry, error) {
	if ref == "" {
		ref = "HEAD"
	}
	tree, _, err := g.client.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		return nil, fmt.Errorf("listing tree of %s/%s@%s: %w", owner, repo, ref, err)
	}

	entries := make([]TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e.GetType() != "blob" {
			continue
		}
		entries = append(entries, TreeEntry{
			Path: e.GetPath(),
			Size: int64(e.GetSize()),
		})
	}
	return entries, nil
}

func (g *GitHubClient) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	opts := &gogithub.RepositoryContentGetOptions{Ref: ref}
	file, _, _, err := g.client.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return "", fmt.Errorf("fetching %s from %s/%s: %w", path, owner, repo, err)
	}
	if file == nil {
		return "", fmt.Errorf("fetching %s from %s/%s: path is a directory", path, owner, repo)
	}
	content, err := file.GetContent()
	if err != nil {
		// The Contents API returns no content for blobs over its size limit.
		if strings.Contains(err.Error(), "unsupported content encoding") {
			return "", ErrFileTooLarge
		}
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return content, nil
}

func (g *GitHubClient) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	r, _, err := g.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("getting repo %s/%s: %w", owner, repo, err)
	}
	branch := r.GetDefaultBranch()
	if branch == "" {
		branch = "main"
	}
	return branch, nil
}

func (g *GitHubClient) CreateWebhook(ctx context.Context, owner, repo, callbackURL, secret string) error {
	hook := &gogithub.Hook{
		Events: []string{"push"},
		Active: gogithub.Ptr(true),
		Config: &gogithub.HookConfig{
			URL:         gogithub.Ptr(callbackURL),
			ContentType: gogithub.Ptr("json"),
			Secret:      gogithub.Ptr(secret),
		},
	}
	_, resp, err := g.client.Repositories.CreateHook(ctx, owner, repo, hook)
	if err != nil {
		// 422 means an identical hook already exists.
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			return nil
		}
		return fmt.Errorf("creating webhook on %s/%s: %w", owner, repo, err)
	}
	return nil
}
