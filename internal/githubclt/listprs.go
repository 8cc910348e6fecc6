package githubclt

import (
	"context"

	"github.com/google/go-github/v59/github"
	"go.uber.org/zap"

	"github.com/simplesurance/prsync/internal/logfields"
)

const listPageSize = 100

// SummaryIterator lazily yields pull request summaries.
// The sequence is finite and can not be restarted.
type SummaryIterator interface {
	// Next returns the next pull request.
	// When the last result was returned a nil summary is returned.
	Next() (*PullRequestSummary, error)
}

type prIter struct {
	clt *Client

	ctx   context.Context
	owner string
	repo  string
	base  string

	unseen []*PullRequestSummary

	nextPage int
	finished bool
}

func (it *prIter) Next() (*PullRequestSummary, error) {
	if len(it.unseen) > 0 {
		result := it.unseen[0]
		it.unseen = it.unseen[1:]

		return result, nil
	}

	if it.finished {
		return nil, nil
	}

	prs, resp, err := it.clt.restClt.PullRequests.List(it.ctx, it.owner, it.repo, &github.PullRequestListOptions{
		State:     StateOpen,
		Base:      it.base,
		Sort:      "updated",
		Direction: "desc",
		ListOptions: github.ListOptions{
			Page:    it.nextPage,
			PerPage: listPageSize,
		},
	})
	if err != nil {
		return nil, it.clt.wrapRetryableErrors(err)
	}

	if resp.NextPage == 0 || len(prs) == 0 {
		it.finished = true
	} else {
		it.nextPage = resp.NextPage
	}

	for _, pr := range prs {
		it.unseen = append(it.unseen, SummaryFromPullRequest(pr))
	}

	return it.Next()
}

// ListPullRequests returns an iterator over the open pull requests that
// have baseRef as base branch, most recently updated first.
// When baseRef does not denote a branch or the repository identity is
// missing, the iteration is empty and no API call is made.
func (clt *Client) ListPullRequests(ctx context.Context, owner, repo, baseRef string) SummaryIterator { // interface is returned to make the method mockable
	base, ok := branchForListing(clt.logger, owner, repo, baseRef)
	if !ok {
		return &prIter{finished: true}
	}

	return &prIter{
		clt:      clt,
		ctx:      ctx,
		owner:    owner,
		repo:     repo,
		base:     base,
		nextPage: 1,
	}
}

func branchForListing(logger *zap.Logger, owner, repo, baseRef string) (string, bool) {
	if owner == "" || repo == "" {
		logger.Warn(
			"pull request listing skipped, repository owner or name is unknown",
			logfields.Event("github_pr_listing_skipped"),
			logfields.RepositoryOwner(owner),
			logfields.Repository(repo),
		)

		return "", false
	}

	base, ok := BranchName(baseRef)
	if !ok {
		logger.Warn(
			"pull request listing skipped, ref does not denote a branch",
			logfields.Event("github_pr_listing_skipped"),
			zap.String("git.ref", baseRef),
		)

		return "", false
	}

	return base, true
}
