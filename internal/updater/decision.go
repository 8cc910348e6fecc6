package updater

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/simplesurance/prsync/internal/cfg"
	"github.com/simplesurance/prsync/internal/githubclt"
	"github.com/simplesurance/prsync/internal/logfields"
)

// guardResult is the tagged outcome of one eligibility check.
type guardResult struct {
	Skip   bool
	Reason string
}

var pass = guardResult{}

func skip(reason string) guardResult {
	return guardResult{Skip: true, Reason: reason}
}

// guard evaluates one eligibility condition for a pull request.
// A returned error means the condition could not be evaluated, the
// pull request is then skipped and the run continues.
type guard struct {
	name  string
	check func(ctx context.Context, pr *githubclt.PullRequestSummary) (guardResult, error)
}

// DecisionEngine decides if the branch of a pull request must be
// updated with its base branch.
// The checks run in a fixed order, the first one that rules the pull
// request out wins. The branch comparison and the branch protection
// lookup are each issued at most once per decision.
type DecisionEngine struct {
	ghClient GithubClient
	logger   *zap.Logger

	// owner and repo identify the repository the triggering event
	// belongs to, the base side of the pull requests.
	owner string
	repo  string

	excludedLabels map[string]struct{}
	readyState     string
	prFilter       string
	prLabels       map[string]struct{}

	guards []guard
}

func NewDecisionEngine(ghClient GithubClient, owner, repo string, config *cfg.Config) *DecisionEngine {
	e := DecisionEngine{
		ghClient:       ghClient,
		logger:         zap.L().Named("decision_engine"),
		owner:          owner,
		repo:           repo,
		excludedLabels: toStrSet(config.ExcludedLabels),
		readyState:     config.PRReadyState,
		prFilter:       config.PRFilter,
		prLabels:       toStrSet(config.PRLabels),
	}

	e.guards = []guard{
		{name: "merged", check: e.guardNotMerged},
		{name: "state", check: e.guardOpen},
		{name: "fork_exists", check: e.guardForkExists},
		{name: "behind_base", check: e.guardBehindBase},
		{name: "excluded_labels", check: e.guardNoExcludedLabel},
		{name: "ready_state", check: e.guardReadyState},
		{name: "pr_filter", check: e.guardPRFilter},
	}

	return &e
}

// NeedsUpdate returns true when the pull request branch must be updated
// with its base branch.
// A failing comparison or branch protection lookup is logged as an
// error and results in false, it never fails the run.
func (e *DecisionEngine) NeedsUpdate(ctx context.Context, pr *githubclt.PullRequestSummary) bool {
	logger := e.logger.With(logfields.PullRequest(pr.Number))

	for _, g := range e.guards {
		result, err := g.check(ctx, pr)
		if err != nil {
			logger.Error(
				"skipping pull request, eligibility check failed",
				logfields.Event("pr_eligibility_check_failed"),
				zap.String("github.update_guard", g.name),
				zap.Error(err),
			)
			metrics.SkipsInc(g.name)

			return false
		}

		if result.Skip {
			logger.Info(
				"pull request does not need an update",
				logfields.Event("pr_update_skipped"),
				zap.String("github.update_guard", g.name),
				zap.String("reason", result.Reason),
			)
			metrics.SkipsInc(g.name)

			return false
		}
	}

	return true
}

func (e *DecisionEngine) guardNotMerged(_ context.Context, pr *githubclt.PullRequestSummary) (guardResult, error) {
	if pr.Merged {
		return skip("pull request is already merged"), nil
	}

	return pass, nil
}

func (e *DecisionEngine) guardOpen(_ context.Context, pr *githubclt.PullRequestSummary) (guardResult, error) {
	if pr.State != githubclt.StateOpen {
		return skip(fmt.Sprintf("pull request state is %q", pr.State)), nil
	}

	return pass, nil
}

func (e *DecisionEngine) guardForkExists(_ context.Context, pr *githubclt.PullRequestSummary) (guardResult, error) {
	if pr.Head.Repo == nil {
		return skip("the fork containing the head branch was deleted"), nil
	}

	return pass, nil
}

// guardBehindBase compares head.Label against base.Label in the
// direction head...base and skips when the head branch misses nothing.
// The direction intentionally differs from the merge direction, the
// check answers if merging the base branch into the head branch would
// bring new content.
func (e *DecisionEngine) guardBehindBase(ctx context.Context, pr *githubclt.PullRequestSummary) (guardResult, error) {
	behindBy, err := e.ghClient.BranchBehindBy(
		ctx,
		pr.Head.Repo.OwnerLogin, pr.Head.Repo.Name,
		pr.Head.Label, pr.Base.Label,
	)
	if err != nil {
		return pass, fmt.Errorf("comparing branches failed: %w", err)
	}

	if behindBy == 0 {
		return skip("head branch contains all changes of the base branch"), nil
	}

	e.logger.Debug(
		"head branch is behind its base branch",
		logfields.PullRequest(pr.Number),
		zap.Int("github.behind_by", behindBy),
	)

	return pass, nil
}

func (e *DecisionEngine) guardNoExcludedLabel(_ context.Context, pr *githubclt.PullRequestSummary) (guardResult, error) {
	for _, label := range pr.Labels {
		if _, exist := e.excludedLabels[label]; exist {
			return skip(fmt.Sprintf("label %q is excluded from updates", label)), nil
		}
	}

	return pass, nil
}

func (e *DecisionEngine) guardReadyState(_ context.Context, pr *githubclt.PullRequestSummary) (guardResult, error) {
	switch e.readyState {
	case cfg.ReadyStateDraft:
		if !pr.Draft {
			return skip("pull request is not a draft"), nil
		}

	case cfg.ReadyStateReadyForReview:
		if pr.Draft {
			return skip("pull request is a draft"), nil
		}
	}

	return pass, nil
}

func (e *DecisionEngine) guardPRFilter(ctx context.Context, pr *githubclt.PullRequestSummary) (guardResult, error) {
	switch e.prFilter {
	case cfg.PRFilterLabelled:
		if len(e.prLabels) == 0 {
			return skip("pull request label allow-list is empty"), nil
		}

		if len(pr.Labels) == 0 {
			return skip("pull request has no labels"), nil
		}

		for _, label := range pr.Labels {
			if _, exist := e.prLabels[label]; exist {
				return pass, nil
			}
		}

		return skip("no pull request label matches the allow-list"), nil

	case cfg.PRFilterProtected:
		protected, err := e.ghClient.BranchIsProtected(ctx, e.owner, e.repo, pr.Base.Ref)
		if err != nil {
			return pass, fmt.Errorf("evaluating branch protection failed: %w", err)
		}

		if !protected {
			return skip("base branch is not protected"), nil
		}

	case cfg.PRFilterAutoMerge:
		if !pr.HasAutoMerge {
			return skip("auto-merge is not enabled for the pull request"), nil
		}
	}

	return pass, nil
}
