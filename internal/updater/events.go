package updater

import (
	"context"

	"github.com/google/go-github/v59/github"
	"go.uber.org/zap"

	"github.com/simplesurance/prsync/internal/event"
	"github.com/simplesurance/prsync/internal/githubclt"
	"github.com/simplesurance/prsync/internal/logfields"
)

var logFieldEventIgnored = logfields.Event("event_ignored")

// ProcessEvent runs the update pipeline for one trigger event.
func (u *Updater) ProcessEvent(ctx context.Context, ev *event.Event) (*RunResult, error) {
	metrics.ProcessedEventsInc()

	logger := u.logger.With(ev.LogFields...)

	switch ghEv := ev.Event.(type) {
	case *github.PushEvent:
		return u.UpdateBranches(ctx, repoOwner(ghEv.GetRepo().GetOwner()), ghEv.GetRepo().GetName(), ghEv.GetRef())

	case *github.PullRequestEvent:
		return u.updateSinglePR(ctx, logger, ghEv.GetRepo(), ghEv.GetPullRequest())

	case *github.PullRequestTargetEvent:
		return u.updateSinglePR(ctx, logger, ghEv.GetRepo(), ghEv.GetPullRequest())

	case *github.WorkflowRunEvent:
		return u.UpdateBranches(ctx, repoOwner(ghEv.GetRepo().GetOwner()), ghEv.GetRepo().GetName(), ghEv.GetWorkflowRun().GetHeadBranch())

	case *github.WorkflowDispatchEvent:
		ref := ghEv.GetRef()
		if ref == "" {
			ref = ev.Ref
		}

		return u.UpdateBranches(ctx, repoOwner(ghEv.GetRepo().GetOwner()), ghEv.GetRepo().GetName(), ref)

	default:
		if ev.Type == event.TypeSchedule {
			return u.UpdateBranches(ctx, ev.Owner, ev.Repo, ev.Ref)
		}

		logger.Info("ignoring event, event type is unsupported", logFieldEventIgnored)

		return &RunResult{}, nil
	}
}

// updateSinglePR runs the decide-and-merge cycle for the pull request
// carried in a pull_request event payload.
func (u *Updater) updateSinglePR(ctx context.Context, logger *zap.Logger, repo *github.Repository, ghPR *github.PullRequest) (*RunResult, error) {
	result := &RunResult{}

	if ghPR == nil {
		logger.Warn(
			"ignoring event, payload contains no pull request",
			logFieldEventIgnored,
		)

		return result, nil
	}

	owner := repoOwner(repo.GetOwner())
	pr := githubclt.SummaryFromPullRequest(ghPR)

	result.Seen++
	metrics.PullRequestsSeenInc()

	engine := NewDecisionEngine(u.ghClient, owner, repo.GetName(), u.config)
	if !engine.NeedsUpdate(ctx, pr) {
		result.Skipped++
		return result, nil
	}

	merger := NewMerger(u.ghClient, u.out, u.config)
	if err := u.updatePR(ctx, merger, owner, pr, result); err != nil {
		return result, err
	}

	return result, nil
}

// repoOwner returns the login of a repository owner.
// Push event payloads carry the owner login in the Name field.
func repoOwner(owner *github.User) string {
	if login := owner.GetLogin(); login != "" {
		return login
	}

	return owner.GetName()
}
