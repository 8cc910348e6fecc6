// Package cfg loads the prsync configuration.
// A configuration is built once at process start from an optional TOML
// file and the process environment, the environment has precedence.
package cfg

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
)

// Recognized values for the ready-state filter.
const (
	ReadyStateAll            = "all"
	ReadyStateDraft          = "draft"
	ReadyStateReadyForReview = "ready_for_review"
)

// Recognized values for the pull-request filter.
const (
	PRFilterAll       = "all"
	PRFilterLabelled  = "labelled"
	PRFilterProtected = "protected"
	PRFilterAutoMerge = "auto_merge"
)

// Recognized values for the merge-conflict action.
const (
	ConflictActionFail   = "fail"
	ConflictActionIgnore = "ignore"
)

type Config struct {
	GithubAPIToken string `toml:"github_api_token"`
	DryRun         bool   `toml:"dry_run"`

	MergeRetries        uint   `toml:"merge_retries"`
	MergeRetrySleepMs   uint   `toml:"merge_retry_sleep_ms"`
	MergeMsg            string `toml:"merge_msg"`
	MergeConflictAction string `toml:"merge_conflict_action"`

	ExcludedLabels []string `toml:"excluded_labels"`
	PRReadyState   string   `toml:"pr_ready_state"`
	PRFilter       string   `toml:"pr_filter"`
	PRLabels       []string `toml:"pr_labels"`

	// UseGraphQL selects the GraphQL pull-request listing instead of the
	// REST one. The GraphQL listing does not return auto-merge
	// information, pr_filter=auto_merge matches no pull request with it.
	UseGraphQL bool `toml:"use_graphql"`

	// FilterQuery is an optional jq expression that is evaluated against
	// the raw event payload, the event is ignored when it does not
	// evaluate to true.
	FilterQuery string `toml:"filter_query"`

	HTTPListenAddr      string `toml:"http_server_listen_addr"`
	HTTPWebhookEndpoint string `toml:"github_webhook_endpoint"`
	GithubWebhookSecret string `toml:"github_webhook_secret"`

	LogFormat  string `toml:"log_format"`
	LogLevel   string `toml:"log_level"`
	LogTimeKey string `toml:"log_time_key"`
}

func Default() *Config {
	return &Config{
		MergeRetries:        5,
		MergeRetrySleepMs:   5000,
		MergeConflictAction: ConflictActionFail,
		PRReadyState:        ReadyStateAll,
		PRFilter:            PRFilterAll,
		HTTPWebhookEndpoint: "/listener/github",
		LogFormat:           "logfmt",
		LogLevel:            "info",
		LogTimeKey:          "time",
	}
}

// Load reads a TOML configuration on top of the defaults.
func Load(reader io.Reader) (*Config, error) {
	result := Default()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, result); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Config) Marshal(writer io.Writer) error {
	return toml.NewEncoder(writer).Encode(c)
}

// ApplyEnv overrides fields for which an environment variable is set.
// The variable names are the input names of the action environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("GITHUB_TOKEN"); v != "" {
		c.GithubAPIToken = v
	}

	if v := getenv("MERGE_MSG"); v != "" {
		c.MergeMsg = v
	}

	if v := getenv("MERGE_CONFLICT_ACTION"); v != "" {
		c.MergeConflictAction = v
	}

	if v := getenv("PR_READY_STATE"); v != "" {
		c.PRReadyState = v
	}

	if v := getenv("PR_FILTER"); v != "" {
		c.PRFilter = v
	}

	if v := getenv("FILTER_QUERY"); v != "" {
		c.FilterQuery = v
	}

	if v := getenv("EXCLUDED_LABELS"); v != "" {
		c.ExcludedLabels = splitList(v)
	}

	if v := getenv("PR_LABELS"); v != "" {
		c.PRLabels = splitList(v)
	}

	var err error

	if v := getenv("DRY_RUN"); v != "" {
		if c.DryRun, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("environment variable DRY_RUN: %w", err)
		}
	}

	if v := getenv("USE_GRAPHQL"); v != "" {
		if c.UseGraphQL, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("environment variable USE_GRAPHQL: %w", err)
		}
	}

	if v := getenv("MERGE_RETRIES"); v != "" {
		if c.MergeRetries, err = parseUint(v); err != nil {
			return fmt.Errorf("environment variable MERGE_RETRIES: %w", err)
		}
	}

	if v := getenv("MERGE_RETRY_SLEEP"); v != "" {
		if c.MergeRetrySleepMs, err = parseUint(v); err != nil {
			return fmt.Errorf("environment variable MERGE_RETRY_SLEEP: %w", err)
		}
	}

	return nil
}

func (c *Config) Validate() error {
	switch c.PRReadyState {
	case ReadyStateAll, ReadyStateDraft, ReadyStateReadyForReview:
	default:
		return fmt.Errorf("pr_ready_state: unsupported value: %q", c.PRReadyState)
	}

	switch c.PRFilter {
	case PRFilterAll, PRFilterLabelled, PRFilterProtected, PRFilterAutoMerge:
	default:
		return fmt.Errorf("pr_filter: unsupported value: %q", c.PRFilter)
	}

	switch c.MergeConflictAction {
	case ConflictActionFail, ConflictActionIgnore:
	default:
		return fmt.Errorf("merge_conflict_action: unsupported value: %q", c.MergeConflictAction)
	}

	return nil
}

// MergeRetrySleep returns the pause between merge attempts.
func (c *Config) MergeRetrySleep() time.Duration {
	return time.Duration(c.MergeRetrySleepMs) * time.Millisecond
}

func splitList(in string) []string {
	var result []string

	for _, elem := range strings.Split(in, ",") {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			continue
		}

		result = append(result, elem)
	}

	return result
}

func parseUint(in string) (uint, error) {
	v, err := strconv.ParseUint(in, 10, 32)
	if err != nil {
		return 0, err
	}

	return uint(v), nil
}
