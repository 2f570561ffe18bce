package github

import (
	"encoding/json"
	"fmt"
	"os"
)

// Ref is one side of a pull request.
type Ref struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// PullRequest holds the fields covdiff reads from a pull_request payload.
type PullRequest struct {
	Number int `json:"number"`
	Base   Ref `json:"base"`
	Head   Ref `json:"head"`
}

// Event is the webhook payload the Actions runner writes to GITHUB_EVENT_PATH.
type Event struct {
	Number      int          `json:"number"`
	PullRequest *PullRequest `json:"pull_request"`
}

// LoadPullRequest reads the event payload at path and returns its pull
// request. It fails for events that are not pull request events.
func LoadPullRequest(path string) (PullRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PullRequest{}, fmt.Errorf("reading event payload: %w", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return PullRequest{}, fmt.Errorf("parsing event payload: %w", err)
	}
	if ev.PullRequest == nil {
		return PullRequest{}, fmt.Errorf("event payload %s has no pull_request", path)
	}
	pr := *ev.PullRequest
	if pr.Number == 0 {
		pr.Number = ev.Number
	}
	return pr, nil
}
