package cfg

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	config := Default()
	require.NoError(t, config.Validate())
}

func TestLoad(t *testing.T) {
	const tomlCfg = `
github_api_token = "tokentoken"
dry_run = true
merge_retries = 3
merge_retry_sleep_ms = 100
merge_msg = "chore: update branch"
merge_conflict_action = "ignore"
excluded_labels = ["wip", "hold"]
pr_ready_state = "ready_for_review"
pr_filter = "labelled"
pr_labels = ["autoupdate"]
use_graphql = true
`

	config, err := Load(strings.NewReader(tomlCfg))
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	assert.Equal(t, "tokentoken", config.GithubAPIToken)
	assert.True(t, config.DryRun)
	assert.Equal(t, uint(3), config.MergeRetries)
	assert.Equal(t, uint(100), config.MergeRetrySleepMs)
	assert.Equal(t, "chore: update branch", config.MergeMsg)
	assert.Equal(t, ConflictActionIgnore, config.MergeConflictAction)
	assert.Equal(t, []string{"wip", "hold"}, config.ExcludedLabels)
	assert.Equal(t, ReadyStateReadyForReview, config.PRReadyState)
	assert.Equal(t, PRFilterLabelled, config.PRFilter)
	assert.Equal(t, []string{"autoupdate"}, config.PRLabels)
	assert.True(t, config.UseGraphQL)
}

func TestLoadKeepsDefaultsForUnsetKeys(t *testing.T) {
	config, err := Load(strings.NewReader(`dry_run = true`))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.MergeRetries, config.MergeRetries)
	assert.Equal(t, def.MergeConflictAction, config.MergeConflictAction)
	assert.Equal(t, def.PRReadyState, config.PRReadyState)
	assert.Equal(t, def.PRFilter, config.PRFilter)
	assert.Equal(t, def.HTTPWebhookEndpoint, config.HTTPWebhookEndpoint)
}

func TestMarshalLoadRoundtrip(t *testing.T) {
	in := Default()
	in.GithubAPIToken = "tok"
	in.ExcludedLabels = []string{"wip"}

	var buf strings.Builder
	require.NoError(t, in.Marshal(&buf))

	out, err := Load(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, in.GithubAPIToken, out.GithubAPIToken)
	assert.Equal(t, in.ExcludedLabels, out.ExcludedLabels)
	assert.Equal(t, in.MergeRetries, out.MergeRetries)
	assert.Equal(t, in.MergeConflictAction, out.MergeConflictAction)
}

func TestApplyEnvOverridesFileValues(t *testing.T) {
	env := map[string]string{
		"GITHUB_TOKEN":          "envtoken",
		"DRY_RUN":               "true",
		"MERGE_RETRIES":         "2",
		"MERGE_RETRY_SLEEP":     "250",
		"MERGE_MSG":             "merge it",
		"MERGE_CONFLICT_ACTION": "ignore",
		"EXCLUDED_LABELS":       "wip, hold ,,",
		"PR_READY_STATE":        "draft",
		"PR_FILTER":             "protected",
		"PR_LABELS":             "one,two",
		"USE_GRAPHQL":           "1",
		"FILTER_QUERY":          `.ref == "refs/heads/main"`,
	}

	config := Default()
	config.GithubAPIToken = "filetoken"

	require.NoError(t, config.ApplyEnv(func(k string) string { return env[k] }))
	require.NoError(t, config.Validate())

	assert.Equal(t, "envtoken", config.GithubAPIToken)
	assert.True(t, config.DryRun)
	assert.Equal(t, uint(2), config.MergeRetries)
	assert.Equal(t, uint(250), config.MergeRetrySleepMs)
	assert.Equal(t, "merge it", config.MergeMsg)
	assert.Equal(t, ConflictActionIgnore, config.MergeConflictAction)
	assert.Equal(t, []string{"wip", "hold"}, config.ExcludedLabels)
	assert.Equal(t, ReadyStateDraft, config.PRReadyState)
	assert.Equal(t, PRFilterProtected, config.PRFilter)
	assert.Equal(t, []string{"one", "two"}, config.PRLabels)
	assert.True(t, config.UseGraphQL)
	assert.Equal(t, `.ref == "refs/heads/main"`, config.FilterQuery)
}

func TestApplyEnvKeepsValuesForUnsetVariables(t *testing.T) {
	config := Default()
	config.GithubAPIToken = "filetoken"
	config.MergeRetries = 9

	require.NoError(t, config.ApplyEnv(func(string) string { return "" }))

	assert.Equal(t, "filetoken", config.GithubAPIToken)
	assert.Equal(t, uint(9), config.MergeRetries)
}

func TestApplyEnvInvalidValues(t *testing.T) {
	testcases := []struct {
		envVar string
		value  string
	}{
		{envVar: "DRY_RUN", value: "yesplease"},
		{envVar: "USE_GRAPHQL", value: "nope"},
		{envVar: "MERGE_RETRIES", value: "-1"},
		{envVar: "MERGE_RETRY_SLEEP", value: "1.5"},
	}

	for _, tc := range testcases {
		t.Run(tc.envVar, func(t *testing.T) {
			config := Default()
			err := config.ApplyEnv(func(k string) string {
				if k == tc.envVar {
					return tc.value
				}

				return ""
			})

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.envVar)
		})
	}
}

func TestValidateRejectsUnknownEnumValues(t *testing.T) {
	testcases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "readyState",
			mutate: func(c *Config) { c.PRReadyState = "sleepy" },
		},
		{
			name:   "prFilter",
			mutate: func(c *Config) { c.PRFilter = "everything" },
		},
		{
			name:   "conflictAction",
			mutate: func(c *Config) { c.MergeConflictAction = "retry" },
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			config := Default()
			tc.mutate(config)
			require.Error(t, config.Validate())
		})
	}
}

func TestMergeRetrySleep(t *testing.T) {
	config := Default()
	config.MergeRetrySleepMs = 1500

	assert.Equal(t, 1500*time.Millisecond, config.MergeRetrySleep())
}
