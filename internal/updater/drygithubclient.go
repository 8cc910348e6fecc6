package updater

import (
	"context"

	"go.uber.org/zap"

	"github.com/simplesurance/prsync/internal/githubclt"
)

// DryGithubClient is a github-client that does not do any changes on
// github. Operations that would cause a change are simulated and always
// succeed, all other operations are forwarded to the wrapped client.
type DryGithubClient struct {
	clt    GithubClient
	logger *zap.Logger
}

func NewDryGithubClient(clt GithubClient, logger *zap.Logger) *DryGithubClient {
	return &DryGithubClient{
		clt:    clt,
		logger: logger.Named("dry_github_client"),
	}
}

func (c *DryGithubClient) BranchBehindBy(ctx context.Context, owner, repo, headLabel, baseLabel string) (int, error) {
	return c.clt.BranchBehindBy(ctx, owner, repo, headLabel, baseLabel)
}

func (c *DryGithubClient) BranchIsProtected(ctx context.Context, owner, repo, branch string) (bool, error) {
	return c.clt.BranchIsProtected(ctx, owner, repo, branch)
}

func (c *DryGithubClient) MergeBranches(_ context.Context, req *githubclt.MergeRequest) (*githubclt.MergeResult, error) {
	c.logger.Info("simulated merging base branch into pull request branch, no merge commit created",
		zap.String("git.base_branch", req.Head),
		zap.String("git.head_branch", req.Base),
	)

	return &githubclt.MergeResult{AlreadyUpToDate: true}, nil
}

func (c *DryGithubClient) ListPullRequests(ctx context.Context, owner, repo, baseRef string) githubclt.SummaryIterator {
	return c.clt.ListPullRequests(ctx, owner, repo, baseRef)
}

func (c *DryGithubClient) ListPullRequestsGraphQL(ctx context.Context, owner, repo, baseRef string) githubclt.SummaryIterator {
	return c.clt.ListPullRequestsGraphQL(ctx, owner, repo, baseRef)
}
