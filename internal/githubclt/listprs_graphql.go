package githubclt

import (
	"context"
	"strings"

	"github.com/shurcooL/githubv4"

	"github.com/simplesurance/prsync/internal/logfields"
)

type prListNode struct {
	Number    int
	State     githubv4.PullRequestState
	Merged    bool
	Mergeable githubv4.MergeableState
	IsDraft   bool

	Labels struct {
		Nodes []struct {
			Name string
		}
	} `graphql:"labels(first: 100)"`

	BaseRef *struct {
		Name   string
		Target struct {
			Oid string
		}
	}

	HeadRef *struct {
		Name   string
		Target struct {
			Oid string
		}
	}

	HeadRepository *struct {
		Name  string
		Owner struct {
			Login string
		}
	}
}

type prListQuery struct {
	Repository struct {
		PullRequests struct {
			PageInfo struct {
				EndCursor   githubv4.String
				HasNextPage bool
			}
			Nodes []prListNode
		} `graphql:"pullRequests(first: $prFirst, after: $cursor, states: OPEN, baseRefName: $base, orderBy: {field: UPDATED_AT, direction: DESC})"`
	} `graphql:"repository(owner: $owner, name: $repo)"`
}

type graphPRIter struct {
	clt *Client

	ctx   context.Context
	owner string
	repo  string
	base  string

	cursor *githubv4.String
	unseen []*PullRequestSummary

	finished bool
}

func (it *graphPRIter) Next() (*PullRequestSummary, error) {
	if len(it.unseen) > 0 {
		result := it.unseen[0]
		it.unseen = it.unseen[1:]

		return result, nil
	}

	if it.finished {
		return nil, nil
	}

	var q prListQuery

	vars := map[string]any{
		"owner":   githubv4.String(it.owner),
		"repo":    githubv4.String(it.repo),
		"base":    githubv4.String(it.base),
		"prFirst": githubv4.Int(listPageSize),
		"cursor":  it.cursor,
	}

	if err := it.clt.graphQLClt.Query(it.ctx, &q, vars); err != nil {
		return nil, it.clt.wrapGraphQLRetryableErrors(err)
	}

	prs := q.Repository.PullRequests
	if !prs.PageInfo.HasNextPage || len(prs.Nodes) == 0 {
		it.finished = true
	} else {
		cursor := prs.PageInfo.EndCursor
		it.cursor = &cursor
	}

	for i := range prs.Nodes {
		node := &prs.Nodes[i]

		if node.HeadRef == nil {
			// happens when the fork holding the head branch was deleted
			it.clt.logger.Warn(
				"pull request dropped from listing, head branch reference does not exist anymore",
				logfields.PullRequest(node.Number),
				logfields.Event("github_pr_head_ref_missing"),
			)

			continue
		}

		it.unseen = append(it.unseen, it.summaryFromNode(node))
	}

	return it.Next()
}

func (it *graphPRIter) summaryFromNode(node *prListNode) *PullRequestSummary {
	result := PullRequestSummary{
		Number: node.Number,
		State:  strings.ToLower(string(node.State)),
		Merged: node.Merged,
		Draft:  node.IsDraft,
	}

	for _, label := range node.Labels.Nodes {
		result.Labels = append(result.Labels, label.Name)
	}

	if node.BaseRef != nil {
		result.Base = Branch{
			Ref:   node.BaseRef.Name,
			Label: branchLabel(it.owner, node.BaseRef.Name),
			SHA:   node.BaseRef.Target.Oid,
		}
	} else {
		result.Base = Branch{
			Ref:   it.base,
			Label: branchLabel(it.owner, it.base),
		}
	}

	head := Branch{
		Ref: node.HeadRef.Name,
		SHA: node.HeadRef.Target.Oid,
	}

	if node.HeadRepository != nil {
		result.Head.Repo = &Repository{
			Name:       node.HeadRepository.Name,
			OwnerLogin: node.HeadRepository.Owner.Login,
		}
		head.Label = branchLabel(node.HeadRepository.Owner.Login, head.Ref)
	} else {
		head.Label = head.Ref
	}

	result.Head.Branch = head

	return &result
}

// ListPullRequestsGraphQL returns an iterator with the same contract as
// ListPullRequests, backed by a cursor-paginated GraphQL query.
func (clt *Client) ListPullRequestsGraphQL(ctx context.Context, owner, repo, baseRef string) SummaryIterator {
	base, ok := branchForListing(clt.logger, owner, repo, baseRef)
	if !ok {
		return &graphPRIter{finished: true}
	}

	return &graphPRIter{
		clt:   clt,
		ctx:   ctx,
		owner: owner,
		repo:  repo,
		base:  base,
	}
}
