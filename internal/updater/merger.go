package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/simplesurance/prsync/internal/cfg"
	"github.com/simplesurance/prsync/internal/githubclt"
	"github.com/simplesurance/prsync/internal/logfields"
)

// mergeState is the state of a merge attempt sequence.
// stateAttempting is the initial state, all others are terminal.
type mergeState int

const (
	stateAttempting mergeState = iota
	stateSucceeded
	stateConflictSkipped
	stateAuthDenied
	stateConflictFatal
	stateRetryExhausted
)

func (s mergeState) String() string {
	switch s {
	case stateAttempting:
		return "attempting"
	case stateSucceeded:
		return "succeeded"
	case stateConflictSkipped:
		return "conflict_skipped"
	case stateAuthDenied:
		return "auth_denied"
	case stateConflictFatal:
		return "conflict_fatal"
	case stateRetryExhausted:
		return "retry_exhausted"
	default:
		return "unknown"
	}
}

// Merger merges the base branch of a pull request into its head branch
// and classifies failures.
type Merger struct {
	ghClient GithubClient
	out      OutputWriter
	logger   *zap.Logger

	maxRetries     uint
	retryDelay     time.Duration
	conflictAction string
	commitMessage  string
}

func NewMerger(ghClient GithubClient, out OutputWriter, config *cfg.Config) *Merger {
	return &Merger{
		ghClient:       ghClient,
		out:            out,
		logger:         zap.L().Named("merger"),
		maxRetries:     config.MergeRetries,
		retryDelay:     config.MergeRetrySleep(),
		conflictAction: config.MergeConflictAction,
		commitMessage:  config.MergeMsg,
	}
}

// Merge updates the head branch of pr with the content of its base
// branch.
// eventOwner is the owner login of the repository the triggering event
// belongs to. A forbidden response while merging into a fork that
// eventOwner does not own is terminal for the pull request, not fatal.
// The returned error wraps ErrAuthDenied or ErrConflictSkipped for the
// per-pull-request terminal outcomes, any other non-nil error is fatal
// for the run. The conflicted output is recorded exactly once per call.
func (m *Merger) Merge(ctx context.Context, eventOwner string, pr *githubclt.PullRequestSummary) error {
	req := githubclt.MergeRequest{
		Owner:         pr.Head.Repo.OwnerLogin,
		Repo:          pr.Head.Repo.Name,
		Base:          pr.Head.Ref,
		Head:          pr.Base.Ref,
		CommitMessage: m.commitMessage,
	}

	logger := m.logger.With(
		logfields.PullRequest(pr.Number),
		logfields.RepositoryOwner(req.Owner),
		logfields.Repository(req.Repo),
		logfields.BaseBranch(pr.Base.Ref),
		logfields.HeadBranch(pr.Head.Ref),
	)

	bo := backoff.NewConstantBackOff(m.retryDelay)

	var tryCnt uint
	var mergeErr error

	state := stateAttempting
	for state == stateAttempting {
		tryCnt++

		result, err := m.ghClient.MergeBranches(ctx, &req)
		if err == nil {
			if result.AlreadyUpToDate {
				logger.Debug(
					"head branch already contains all changes of the base branch",
					logfields.Event("merge_noop"),
				)
			} else {
				logger.Debug(
					"merge commit created",
					logfields.Event("merge_commit_created"),
					logfields.Commit(result.SHA),
				)
			}

			state = stateSucceeded
			break
		}

		switch {
		case githubclt.IsForbiddenError(err) && eventOwner != req.Owner:
			state = stateAuthDenied
			mergeErr = err

		case githubclt.IsMergeConflictError(err):
			if m.conflictAction == cfg.ConflictActionIgnore {
				state = stateConflictSkipped
			} else {
				state = stateConflictFatal
			}
			mergeErr = err

		default:
			if tryCnt <= m.maxRetries {
				logger.Warn(
					"merge attempt failed, retry scheduled",
					logfields.Event("merge_retry_scheduled"),
					zap.Uint("try_count", tryCnt),
					zap.Duration("retry_in", m.retryDelay),
					zap.Error(err),
				)
				metrics.MergeRetriesInc()

				if err := sleep(ctx, bo.NextBackOff()); err != nil {
					return err
				}

				continue
			}

			state = stateRetryExhausted
			mergeErr = err
		}
	}

	return m.finish(logger, state, tryCnt, mergeErr)
}

// finish records the conflicted output for the terminal state and maps
// the state to the error contract of Merge.
func (m *Merger) finish(logger *zap.Logger, state mergeState, tryCnt uint, mergeErr error) error {
	conflicted := state == stateConflictSkipped || state == stateConflictFatal

	if err := m.out.SetConflicted(conflicted); err != nil {
		logger.Warn(
			"recording conflicted output failed",
			logfields.Event("recording_output_failed"),
			zap.Error(err),
		)
	}

	logger = logger.With(zap.Stringer("merge_state", state), zap.Uint("try_count", tryCnt))

	switch state {
	case stateSucceeded:
		logger.Info(
			"pull request branch updated with its base branch",
			logfields.Event("branch_updated"),
		)

		return nil

	case stateAuthDenied:
		logger.Warn(
			"branch not updated, merging into the foreign fork is forbidden",
			logfields.Event("merge_auth_denied"),
			zap.Error(mergeErr),
		)

		return fmt.Errorf("%w: %s", ErrAuthDenied, mergeErr)

	case stateConflictSkipped:
		metrics.MergeConflictsInc()
		logger.Warn(
			"branch not updated, branches conflict",
			logfields.Event("merge_conflict_ignored"),
			zap.Error(mergeErr),
		)

		return fmt.Errorf("%w: %s", ErrConflictSkipped, mergeErr)

	case stateConflictFatal:
		metrics.MergeConflictsInc()
		logger.Error(
			"branch can not be updated, branches conflict",
			logfields.Event("merge_conflict"),
			zap.Error(mergeErr),
		)

		return fmt.Errorf("merge conflict: %w", mergeErr)

	case stateRetryExhausted:
		logger.Error(
			"giving up updating branch, retries are exhausted",
			logfields.Event("merge_retries_exhausted"),
			zap.Error(mergeErr),
		)

		return fmt.Errorf("updating branch failed after %d attempts: %w", tryCnt, mergeErr)

	default:
		return fmt.Errorf("merge ended in unexpected state %s: %w", state, mergeErr)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
