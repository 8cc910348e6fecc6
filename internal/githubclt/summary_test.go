package githubclt

import (
	"testing"

	"github.com/google/go-github/v59/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryFromPullRequest(t *testing.T) {
	pr := github.PullRequest{
		Number: github.Int(17),
		State:  github.String("open"),
		Merged: github.Bool(false),
		Draft:  github.Bool(true),
		Labels: []*github.Label{
			{Name: github.String("wip")},
			{Name: github.String("autoupdate")},
		},
		Base: &github.PullRequestBranch{
			Ref:   github.String("main"),
			Label: github.String("owner:main"),
			SHA:   github.String("basesha"),
			Repo: &github.Repository{
				Name:  github.String("repo"),
				Owner: &github.User{Login: github.String("owner")},
			},
		},
		Head: &github.PullRequestBranch{
			Ref:   github.String("topic"),
			Label: github.String("forker:topic"),
			SHA:   github.String("headsha"),
			Repo: &github.Repository{
				Name:  github.String("repo"),
				Owner: &github.User{Login: github.String("forker")},
			},
		},
		AutoMerge: &github.PullRequestAutoMerge{},
	}

	summary := SummaryFromPullRequest(&pr)

	assert.Equal(t, 17, summary.Number)
	assert.Equal(t, StateOpen, summary.State)
	assert.False(t, summary.Merged)
	assert.True(t, summary.Draft)
	assert.Equal(t, []string{"wip", "autoupdate"}, summary.Labels)
	assert.True(t, summary.HasAutoMerge)

	assert.Equal(t, Branch{Ref: "main", Label: "owner:main", SHA: "basesha"}, summary.Base)

	require.NotNil(t, summary.Head.Repo)
	assert.Equal(t, "repo", summary.Head.Repo.Name)
	assert.Equal(t, "forker", summary.Head.Repo.OwnerLogin)
	assert.Equal(t, Branch{Ref: "topic", Label: "forker:topic", SHA: "headsha"}, summary.Head.Branch)

	assert.True(t, summary.HasLabel("wip"))
	assert.False(t, summary.HasLabel("hold"))
}

func TestSummaryFromPullRequestDeletedFork(t *testing.T) {
	pr := github.PullRequest{
		Number: github.Int(3),
		State:  github.String("open"),
		Base: &github.PullRequestBranch{
			Ref: github.String("main"),
			Repo: &github.Repository{
				Name:  github.String("repo"),
				Owner: &github.User{Login: github.String("owner")},
			},
		},
		Head: &github.PullRequestBranch{
			Ref: github.String("topic"),
			// Repo is missing, the fork was deleted
		},
	}

	summary := SummaryFromPullRequest(&pr)

	assert.Nil(t, summary.Head.Repo)
	assert.Equal(t, "topic", summary.Head.Label, "label falls back to the bare ref without an owner")
	assert.Equal(t, "owner:main", summary.Base.Label, "base label is derived from the base repository owner")
}

func TestSummaryFromPullRequestLabelFallback(t *testing.T) {
	pr := github.PullRequest{
		Number: github.Int(4),
		Base: &github.PullRequestBranch{
			Ref: github.String("main"),
			Repo: &github.Repository{
				Name:  github.String("repo"),
				Owner: &github.User{Login: github.String("owner")},
			},
		},
		Head: &github.PullRequestBranch{
			Ref: github.String("topic"),
			Repo: &github.Repository{
				Name:  github.String("repo"),
				Owner: &github.User{Login: github.String("forker")},
			},
		},
	}

	summary := SummaryFromPullRequest(&pr)

	assert.Equal(t, "owner:main", summary.Base.Label)
	assert.Equal(t, "forker:topic", summary.Head.Label)
}

func TestBranchName(t *testing.T) {
	testcases := []struct {
		ref      string
		branch   string
		isBranch bool
	}{
		{ref: "main", branch: "main", isBranch: true},
		{ref: "refs/heads/main", branch: "main", isBranch: true},
		{ref: "refs/heads/feat/nested", branch: "feat/nested", isBranch: true},
		{ref: "refs/tags/v1.0.0", isBranch: false},
		{ref: "refs/pull/7/merge", isBranch: false},
		{ref: "", isBranch: false},
	}

	for _, tc := range testcases {
		t.Run(tc.ref, func(t *testing.T) {
			branch, ok := BranchName(tc.ref)
			assert.Equal(t, tc.isBranch, ok)
			assert.Equal(t, tc.branch, branch)
		})
	}
}
