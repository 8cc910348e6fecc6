// Package event provides the trigger inputs of prsync.
// An event either originates from the action environment of a single
// run or from a github webhook request in listener mode.
package event

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/go-github/v59/github"
	"go.uber.org/zap"

	"github.com/simplesurance/prsync/internal/logfields"
)

// Event types that trigger branch updates.
const (
	TypePush              = "push"
	TypePullRequest       = "pull_request"
	TypePullRequestTarget = "pull_request_target"
	TypeWorkflowRun       = "workflow_run"
	TypeWorkflowDispatch  = "workflow_dispatch"
	TypeSchedule          = "schedule"
)

// Event is a preprocessed trigger event.
type Event struct {
	// Type is the github event type.
	Type string
	// DeliveryID is the unique github ID of a webhook event, empty for
	// events read from the environment.
	DeliveryID string
	// JSON is the raw event payload.
	JSON []byte
	// Event is the parsed payload as the struct type returned by
	// github.ParseWebHook(). It is nil for schedule events.
	Event any

	// Owner, Repo and Ref are the repository identity and git ref of
	// the run environment. They serve as fallback for event types whose
	// payload does not carry them.
	Owner string
	Repo  string
	Ref   string

	LogFields []zap.Field
}

// ReadFromEnvironment builds the event for a single run from the action
// environment (GITHUB_EVENT_NAME, GITHUB_EVENT_PATH, GITHUB_REPOSITORY,
// GITHUB_REF).
func ReadFromEnvironment(getenv func(string) string) (*Event, error) {
	evType := getenv("GITHUB_EVENT_NAME")
	if evType == "" {
		return nil, fmt.Errorf("environment variable GITHUB_EVENT_NAME is not set")
	}

	owner, repo := splitRepository(getenv("GITHUB_REPOSITORY"))

	ev := Event{
		Type:  evType,
		Owner: owner,
		Repo:  repo,
		Ref:   getenv("GITHUB_REF"),
		LogFields: []zap.Field{
			logfields.EventProvider("github"),
			zap.String("github.event_type", evType),
		},
	}

	payloadPath := getenv("GITHUB_EVENT_PATH")
	if payloadPath == "" {
		return &ev, nil
	}

	payload, err := os.ReadFile(payloadPath)
	if err != nil {
		return nil, fmt.Errorf("reading event payload failed: %w", err)
	}

	ev.JSON = payload

	// schedule events carry no webhook payload type
	if evType == TypeSchedule {
		return &ev, nil
	}

	parsed, err := github.ParseWebHook(evType, payload)
	if err != nil {
		return nil, fmt.Errorf("parsing %s event payload failed: %w", evType, err)
	}

	ev.Event = parsed

	return &ev, nil
}

func splitRepository(in string) (owner, repo string) {
	owner, repo, found := strings.Cut(in, "/")
	if !found {
		return "", ""
	}

	return owner, repo
}
