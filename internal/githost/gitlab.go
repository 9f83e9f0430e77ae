package githost

import (
	"context"
	"fmt"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// GitLabClient implements Client for GitLab cloud and self-hosted instances.
type GitLabClient struct {
	client *gitlab.Client
	host   string
}

// NewGitLab creates a GitLabClient. host overrides gitlab.com for self-hosted
// instances.
func NewGitLab(token, host string) (*GitLabClient, error) {
	opts := []gitlab.ClientOptionFunc{}
	if host != "" && host != "gitlab.com" {
		opts = append(opts, gitlab.WithBaseURL(fmt.Sprintf("https://%s/api/v4/", host)))
	}

	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating GitLab client: %w", err)
	}
	return &GitLabClient{client: client, host: host}, nil
}

func (g *GitLabClient) Name() string { return "gitlab" }

func (g *GitLabClient) ListTree(ctx context.Context, owner, repo, ref string) ([]TreeEntry, error) {
	pid := owner + "/" + repo
	recursive := true
	opts := &gitlab.ListTreeOptions{
		Recursive:   &recursive,
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}
	if ref != "" {
		opts.Ref = &ref
	}

	var entries []TreeEntry
	for {
		nodes, resp, err := g.client.Repositories.ListTree(pid, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing tree of %s@%s: %w", pid, ref, err)
		}
		for _, n := range nodes {
			if n.Type != "blob" {
				continue
			}
			// The tree API does not report blob sizes.
			entries = append(entries, TreeEntry{Path: n.Path})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return entries, nil
}

func (g *GitLabClient) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	pid := owner + "/" + repo
	opts := &gitlab.GetRawFileOptions{}
	if ref != "" {
		opts.Ref = &ref
	}
	raw, _, err := g.client.RepositoryFiles.GetRawFile(pid, path, opts, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("fetching %s from %s: %w", path, pid, err)
	}
	return string(raw), nil
}

func (g *GitLabClient) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	pid := owner + "/" + repo
	proj, _, err := g.client.Projects.GetProject(pid, nil, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("getting project %s: %w", pid, err)
	}
	if proj.DefaultBranch == "" {
		return "main", nil
	}
	return proj.DefaultBranch, nil
}

func (g *GitLabClient) CreateWebhook(ctx context.Context, owner, repo, callbackURL, secret string) error {
	pid := owner + "/" + repo
	push := true
	_, _, err := g.client.Projects.AddProjectHook(pid, &gitlab.AddProjectHookOptions{
		URL:        &callbackURL,
		PushEvents: &push,
		Token:      &secret,
	}, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("creating webhook on %s: %w", pid, err)
	}
	return nil
}
