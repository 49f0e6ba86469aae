package github

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jlrickert/ontokit/pkg/internal"
	"github.com/jlrickert/ontokit/pkg/remote"
)

// Repository is a repository visible to the authenticated user.
type Repository struct {
	FullName      string `json:"full_name"`
	Name          string `json:"name"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// Branch is a branch of the selected repository.
type Branch struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
	Protected bool `json:"protected"`
}

// WorkflowRun is one GitHub Actions run.
type WorkflowRun struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	HeadBranch string    `json:"head_branch"`
	HeadSHA    string    `json:"head_sha"`
	HTMLURL    string    `json:"html_url"`
	CreatedAt  time.Time `json:"created_at"`
}

type runsResponse struct {
	TotalCount   int           `json:"total_count"`
	WorkflowRuns []WorkflowRun `json:"workflow_runs"`
}

// getList reads a list endpoint through its ETag cache and decodes it.
func getList[T any](ctx context.Context, c *Client, template string, o Override, op string) (T, error) {
	var out T
	u, ok := c.resolver.Resolve(template, o)
	if !ok {
		return out, fmt.Errorf("%s: %w", op, remote.ErrNoSelection)
	}
	raw, _, err := c.listCache(u, op).Get(ctx)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, remote.NewBackendError(backendName, op, 200, "unexpected response body", fmt.Errorf("%w: %w", remote.ErrParse, err), false)
	}
	return out, nil
}

// ListRepositories returns the repositories of the authenticated user. No
// selection is required.
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	return getList[[]Repository](ctx, c, TemplateUserRepos, Override{}, "ListRepositories")
}

// ListBranches returns the branches of the override or selected repository.
// A repository the API does not know has no branches.
func (c *Client) ListBranches(ctx context.Context, o Override) ([]Branch, error) {
	branches, err := getList[[]Branch](ctx, c, TemplateBranches, o, "ListBranches")
	if remote.IsNotExist(err) {
		internal.LoggerFromContext(ctx).Debug("no branches", "repository", o.Repository, "err", err)
		return []Branch{}, nil
	}
	return branches, err
}

// ListWorkflowRuns returns the Actions runs for the selected repository and
// branch. A 404 yields no runs.
func (c *Client) ListWorkflowRuns(ctx context.Context, o Override) ([]WorkflowRun, error) {
	resp, err := getList[runsResponse](ctx, c, TemplateRuns+"?branch={branch}", o, "ListWorkflowRuns")
	if remote.IsNotExist(err) {
		internal.LoggerFromContext(ctx).Debug("no workflow runs", "repository", o.Repository, "err", err)
		return []WorkflowRun{}, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.WorkflowRuns, nil
}
