package githubclt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v59/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/simplesurance/prsync/internal/syncerr"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rest := github.NewClient(nil)
	baseURL, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	rest.BaseURL = baseURL
	rest.UploadURL = baseURL

	return &Client{
		restClt: rest,
		logger:  zaptest.NewLogger(t).Named(t.Name()),
	}
}

func respErrWithStatus(statusCode int) *github.ErrorResponse {
	return &github.ErrorResponse{
		Response: &http.Response{
			StatusCode: statusCode,
			Request:    &http.Request{Method: http.MethodGet, URL: &url.URL{}},
		},
	}
}

func TestBranchBehindBy(t *testing.T) {
	clt := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/repos/owner/repo/compare/")

		fmt.Fprint(w, `{"status": "behind", "behind_by": 3}`)
	}))

	behindBy, err := clt.BranchBehindBy(context.Background(), "owner", "repo", "forker:topic", "owner:main")
	require.NoError(t, err)
	assert.Equal(t, 3, behindBy)
}

func TestBranchBehindByNilFieldIsRetryable(t *testing.T) {
	clt := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status": "identical"}`)
	}))

	_, err := clt.BranchBehindBy(context.Background(), "owner", "repo", "forker:topic", "owner:main")
	require.Error(t, err)

	var retryable *syncerr.RetryableError
	assert.ErrorAs(t, err, &retryable)
}

func TestBranchIsProtected(t *testing.T) {
	testcases := []struct {
		name      string
		response  string
		protected bool
	}{
		{
			name:      "protected",
			response:  `{"name": "main", "protected": true}`,
			protected: true,
		},
		{
			name:      "unprotected",
			response:  `{"name": "main", "protected": false}`,
			protected: false,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			clt := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/owner/repo/branches/main", r.URL.Path)

				fmt.Fprint(w, tc.response)
			}))

			protected, err := clt.BranchIsProtected(context.Background(), "owner", "repo", "main")
			require.NoError(t, err)
			assert.Equal(t, tc.protected, protected)
		})
	}
}

func TestMergeBranches(t *testing.T) {
	clt := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/forker/repo/merges", r.URL.Path)

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"sha": "mergesha"}`)
	}))

	result, err := clt.MergeBranches(context.Background(), &MergeRequest{
		Owner:         "forker",
		Repo:          "repo",
		Base:          "topic",
		Head:          "main",
		CommitMessage: "merge main into topic",
	})
	require.NoError(t, err)

	assert.False(t, result.AlreadyUpToDate)
	assert.Equal(t, "mergesha", result.SHA)
}

func TestMergeBranchesNothingToMerge(t *testing.T) {
	clt := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	result, err := clt.MergeBranches(context.Background(), &MergeRequest{
		Owner: "forker",
		Repo:  "repo",
		Base:  "topic",
		Head:  "main",
	})
	require.NoError(t, err)

	assert.True(t, result.AlreadyUpToDate)
}

func TestMergeBranchesConflict(t *testing.T) {
	clt := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"message": "Merge conflict"}`)
	}))

	_, err := clt.MergeBranches(context.Background(), &MergeRequest{
		Owner: "forker",
		Repo:  "repo",
		Base:  "topic",
		Head:  "main",
	})
	require.Error(t, err)

	assert.True(t, IsMergeConflictError(err))
	assert.False(t, IsRateLimitError(err))
}

func TestWrapRetryableErrors(t *testing.T) {
	clt := &Client{logger: zaptest.NewLogger(t).Named(t.Name())}

	t.Run("rateLimit", func(t *testing.T) {
		resetTime := time.Now().Add(time.Hour)

		err := clt.wrapRetryableErrors(&github.RateLimitError{
			Rate: github.Rate{Limit: 5000, Reset: github.Timestamp{Time: resetTime}},
		})

		var retryable *syncerr.RetryableError
		require.ErrorAs(t, err, &retryable)
		assert.Equal(t, resetTime, retryable.After)
	})

	t.Run("serverError", func(t *testing.T) {
		err := clt.wrapRetryableErrors(respErrWithStatus(http.StatusBadGateway))

		var retryable *syncerr.RetryableError
		require.ErrorAs(t, err, &retryable)
		assert.True(t, retryable.After.IsZero())
	})

	t.Run("clientErrorIsNotRetryable", func(t *testing.T) {
		in := respErrWithStatus(http.StatusNotFound)
		err := clt.wrapRetryableErrors(in)

		var retryable *syncerr.RetryableError
		assert.False(t, errors.As(err, &retryable))
		assert.Same(t, error(in), err)
	})
}

func TestWrapGraphQLRetryableErrors(t *testing.T) {
	clt := &Client{logger: zaptest.NewLogger(t).Named(t.Name())}

	t.Run("serverError", func(t *testing.T) {
		in := errors.New(`non-200 OK status code: 502 Bad Gateway body: ""`)
		err := clt.wrapGraphQLRetryableErrors(in)

		var retryable *syncerr.RetryableError
		require.ErrorAs(t, err, &retryable)
	})

	t.Run("clientError", func(t *testing.T) {
		in := errors.New(`non-200 OK status code: 401 Unauthorized body: ""`)
		err := clt.wrapGraphQLRetryableErrors(in)

		assert.Same(t, in, err)
	})

	t.Run("otherError", func(t *testing.T) {
		in := errors.New("connection reset")
		assert.Same(t, in, clt.wrapGraphQLRetryableErrors(in))
	})
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 0, HTTPStatus(nil))
	assert.Equal(t, 0, HTTPStatus(errors.New("some error")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(respErrWithStatus(http.StatusForbidden)))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(&github.RateLimitError{}))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(errors.New(`non-200 OK status code: 502 Bad Gateway body: ""`)))
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsAuthorizationError(respErrWithStatus(http.StatusUnauthorized)))
	assert.True(t, IsAuthorizationError(respErrWithStatus(http.StatusForbidden)))
	assert.False(t, IsAuthorizationError(respErrWithStatus(http.StatusNotFound)))

	assert.True(t, IsForbiddenError(respErrWithStatus(http.StatusForbidden)))
	assert.False(t, IsForbiddenError(respErrWithStatus(http.StatusUnauthorized)))

	assert.True(t, IsRateLimitError(&github.RateLimitError{}))
	assert.False(t, IsRateLimitError(respErrWithStatus(http.StatusForbidden)))

	assert.True(t, IsMergeConflictError(respErrWithStatus(http.StatusConflict)))
	assert.False(t, IsMergeConflictError(respErrWithStatus(http.StatusForbidden)))

	conflictByMsg := respErrWithStatus(http.StatusMethodNotAllowed)
	conflictByMsg.Message = "Merge Conflict"
	assert.True(t, IsMergeConflictError(conflictByMsg))
}
