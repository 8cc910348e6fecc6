// Package githubclt provides a github API client.
package githubclt

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v59/github"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/simplesurance/prsync/internal/logfields"
	"github.com/simplesurance/prsync/internal/syncerr"
)

const DefaultHTTPClientTimeout = time.Minute

const loggerName = "github_client"

// New returns a new github api client.
func New(oauthAPItoken string) *Client {
	httpClient := newHTTPClient(oauthAPItoken)
	return &Client{
		restClt:    github.NewClient(httpClient),
		graphQLClt: githubv4.NewClient(httpClient),
		logger:     zap.L().Named(loggerName),
	}
}

func newHTTPClient(apiToken string) *http.Client {
	if apiToken == "" {
		return &http.Client{
			Timeout: DefaultHTTPClientTimeout,
		}
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: apiToken},
	)

	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = DefaultHTTPClientTimeout

	return tc
}

// Client is a github API client.
// All methods return a syncerr.RetryableError when an operation can be
// retried. This can be e.g. the case when the API ratelimit is exceeded.
type Client struct {
	restClt    *github.Client
	graphQLClt *githubv4.Client
	logger     *zap.Logger
}

// BranchBehindBy returns how many commits headLabel is missing from
// baseLabel.
// The comparison is issued in the direction headLabel...baseLabel and
// the BehindBy field of the result is evaluated. The direction is
// deliberate, the caller wants to know if merging the base branch into
// the head branch would bring new content.
func (clt *Client) BranchBehindBy(ctx context.Context, owner, repo, headLabel, baseLabel string) (behindBy int, err error) {
	cmp, _, err := clt.restClt.Repositories.CompareCommits(ctx, owner, repo, headLabel, baseLabel, &github.ListOptions{PerPage: 1})
	if err != nil {
		return 0, clt.wrapRetryableErrors(err)
	}

	if cmp.BehindBy == nil {
		return 0, syncerr.NewRetryableAnytimeError(errors.New("github returned a nil BehindBy field"))
	}

	return *cmp.BehindBy, nil
}

// BranchIsProtected returns true if the branch has a branch protection
// rule.
func (clt *Client) BranchIsProtected(ctx context.Context, owner, repo, branch string) (bool, error) {
	b, _, err := clt.restClt.Repositories.GetBranch(ctx, owner, repo, branch, 0)
	if err != nil {
		return false, clt.wrapRetryableErrors(err)
	}

	return b.GetProtected(), nil
}

// MergeRequest describes merging the branch Head into the branch Base in
// the given repository.
// When a pull request branch is updated, Owner and Repo identify the
// repository of the pull request head side, Base is the pull request
// head ref and Head the pull request base ref. The swap is intentional,
// the content of the target branch is merged into the source branch.
type MergeRequest struct {
	Owner         string
	Repo          string
	Base          string
	Head          string
	CommitMessage string
}

// MergeResult is the outcome of a successful merge call.
// AlreadyUpToDate is true when github answered that there was nothing to
// merge and no commit was created.
type MergeResult struct {
	SHA             string
	AlreadyUpToDate bool
}

// MergeBranches merges req.Head into req.Base.
func (clt *Client) MergeBranches(ctx context.Context, req *MergeRequest) (*MergeResult, error) {
	ghReq := github.RepositoryMergeRequest{
		Base: github.String(req.Base),
		Head: github.String(req.Head),
	}
	if req.CommitMessage != "" {
		ghReq.CommitMessage = github.String(req.CommitMessage)
	}

	commit, resp, err := clt.restClt.Repositories.Merge(ctx, req.Owner, req.Repo, &ghReq)
	if err != nil {
		return nil, clt.wrapRetryableErrors(err)
	}

	if resp.StatusCode == http.StatusNoContent || commit == nil {
		clt.logger.Debug(
			"branches are already up to date, nothing merged",
			logfields.RepositoryOwner(req.Owner),
			logfields.Repository(req.Repo),
			logfields.Event("github_merge_noop"),
		)

		return &MergeResult{AlreadyUpToDate: true}, nil
	}

	return &MergeResult{SHA: commit.GetSHA()}, nil
}

func (clt *Client) wrapRetryableErrors(err error) error {
	switch v := err.(type) {
	case *github.RateLimitError:
		clt.logger.Info(
			"rate limit exceeded",
			logfields.Event("github_api_rate_limit_exceeded"),
			zap.Int("github_api_rate_limit", v.Rate.Limit),
			zap.Time("github_api_rate_limit_reset_time", v.Rate.Reset.Time),
		)

		return syncerr.NewRetryableError(err, v.Rate.Reset.Time)

	case *github.ErrorResponse:
		if v.Response.StatusCode >= 500 && v.Response.StatusCode < 600 {
			return syncerr.NewRetryableAnytimeError(err)
		}
	}

	return err
}

var graphQlHTTPStatusErrRe = regexp.MustCompile(`^non-200 OK status code: ([0-9]+) .*`)

func (clt *Client) wrapGraphQLRetryableErrors(err error) error {
	errcode := graphQLHTTPStatus(err)
	if errcode == 0 {
		return err
	}

	if errcode >= 500 && errcode < 600 {
		return syncerr.NewRetryableAnytimeError(err)
	}

	return err
}

// graphQLHTTPStatus extracts the http status code from an error of the
// githubv4 client, 0 if the error carries none.
func graphQLHTTPStatus(err error) int {
	if err == nil {
		return 0
	}

	matches := graphQlHTTPStatusErrRe.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	errcode, atoiErr := strconv.Atoi(matches[1])
	if atoiErr != nil {
		return 0
	}

	return errcode
}

// HTTPStatus returns the http status code that an API error carries, 0
// when the error has none.
func HTTPStatus(err error) int {
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return respErr.Response.StatusCode
	}

	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return http.StatusTooManyRequests
	}

	return graphQLHTTPStatus(err)
}

// IsAuthorizationError returns true for unauthorized and forbidden API
// responses.
func IsAuthorizationError(err error) bool {
	status := HTTPStatus(err)
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// IsForbiddenError returns true for forbidden API responses.
func IsForbiddenError(err error) bool {
	return HTTPStatus(err) == http.StatusForbidden
}

// IsRateLimitError returns true when the API ratelimit was exceeded.
func IsRateLimitError(err error) bool {
	return HTTPStatus(err) == http.StatusTooManyRequests
}

// IsMergeConflictError returns true when a merge call failed because the
// branches conflict.
func IsMergeConflictError(err error) bool {
	if HTTPStatus(err) == http.StatusConflict {
		return true
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		return strings.Contains(strings.ToLower(respErr.Message), "merge conflict")
	}

	return false
}
