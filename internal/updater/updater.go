// Package updater keeps the branches of open pull requests current with
// their base branch.
// Per trigger event the affected pull requests are enumerated, an
// ordered guard chain decides per pull request if it must be updated
// and a retrying merge operation performs the update.
package updater

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/simplesurance/prsync/internal/cfg"
	"github.com/simplesurance/prsync/internal/githubclt"
	"github.com/simplesurance/prsync/internal/logfields"
)

const loggerName = "updater"

//go:generate mockgen -package mocks -destination mocks/githubclient_mock.go github.com/simplesurance/prsync/internal/updater GithubClient

// GithubClient is the github API surface the updater needs.
type GithubClient interface {
	BranchBehindBy(ctx context.Context, owner, repo, headLabel, baseLabel string) (int, error)
	BranchIsProtected(ctx context.Context, owner, repo, branch string) (bool, error)
	MergeBranches(ctx context.Context, req *githubclt.MergeRequest) (*githubclt.MergeResult, error)
	ListPullRequests(ctx context.Context, owner, repo, baseRef string) githubclt.SummaryIterator
	ListPullRequestsGraphQL(ctx context.Context, owner, repo, baseRef string) githubclt.SummaryIterator
}

// OutputWriter records the named outputs of a run.
type OutputWriter interface {
	SetConflicted(val bool) error
}

// Updater orchestrates enumerating, deciding and merging per trigger
// event. Pull requests are processed strictly one at a time, in
// enumeration order.
type Updater struct {
	ghClient GithubClient
	out      OutputWriter
	config   *cfg.Config
	logger   *zap.Logger
}

func New(ghClient GithubClient, out OutputWriter, config *cfg.Config) *Updater {
	logger := zap.L().Named(loggerName)

	if config.DryRun {
		ghClient = NewDryGithubClient(ghClient, logger)
	}

	return &Updater{
		ghClient: ghClient,
		out:      out,
		config:   config,
		logger:   logger,
	}
}

func (u *Updater) listPullRequests(ctx context.Context, owner, repo, baseRef string) githubclt.SummaryIterator {
	if u.config.UseGraphQL {
		return u.ghClient.ListPullRequestsGraphQL(ctx, owner, repo, baseRef)
	}

	return u.ghClient.ListPullRequests(ctx, owner, repo, baseRef)
}

// UpdateBranches updates all open pull requests that have baseRef as
// base branch in the given repository.
// A fatal merge error ends the run early, the returned RunResult then
// still contains the counts accumulated before the failure.
func (u *Updater) UpdateBranches(ctx context.Context, owner, repo, baseRef string) (*RunResult, error) {
	result := &RunResult{}

	logger := u.logger.With(
		logfields.RepositoryOwner(owner),
		logfields.Repository(repo),
		logfields.BaseBranch(baseRef),
	)

	engine := NewDecisionEngine(u.ghClient, owner, repo, u.config)
	merger := NewMerger(u.ghClient, u.out, u.config)

	it := u.listPullRequests(ctx, owner, repo, baseRef)
	for {
		pr, err := it.Next()
		if err != nil {
			u.logEnumerationAbort(logger, err)
			break
		}

		if pr == nil { // iteration finished, no more results
			break
		}

		result.Seen++
		metrics.PullRequestsSeenInc()

		if !engine.NeedsUpdate(ctx, pr) {
			result.Skipped++
			continue
		}

		if err := u.updatePR(ctx, merger, owner, pr, result); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (u *Updater) updatePR(ctx context.Context, merger *Merger, eventOwner string, pr *githubclt.PullRequestSummary, result *RunResult) error {
	err := merger.Merge(ctx, eventOwner, pr)
	if err == nil {
		result.Updated++
		metrics.BranchesUpdatedInc()

		return nil
	}

	// terminal for the pull request only, the merger already logged it
	if errors.Is(err, ErrAuthDenied) || errors.Is(err, ErrConflictSkipped) {
		result.Skipped++
		return nil
	}

	return err
}

// logEnumerationAbort logs why fetching further pull requests stopped.
// The pull requests processed before the failure are kept, the abort is
// not fatal for the run.
func (u *Updater) logEnumerationAbort(logger *zap.Logger, err error) {
	switch {
	case githubclt.IsRateLimitError(err):
		logger.Error(
			"aborting pull request listing, API rate limit exceeded, keeping results processed so far",
			logfields.Event("pr_listing_rate_limited"),
			zap.Error(err),
		)

	case githubclt.IsAuthorizationError(err):
		logger.Error(
			"aborting pull request listing, authorization failed, keeping results processed so far",
			logfields.Event("pr_listing_unauthorized"),
			zap.Error(err),
		)

	default:
		logger.Error(
			"aborting pull request listing, keeping results processed so far",
			logfields.Event("pr_listing_failed"),
			zap.Error(err),
		)
	}
}
