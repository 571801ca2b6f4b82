package app

import (
	"context"
	"time"
)

const (
	// CheckStatusQueued defines the check run status for the builds that didn't start yet.
	CheckStatusQueued = "queued"
	// CheckStatusInProgress defines the check run status for the running builds.
	CheckStatusInProgress = "in_progress"
	// CheckStatusCompleted defines the check run status for the finished builds.
	CheckStatusCompleted = "completed"

	// ConclusionSuccess defines the conclusion of the succeeded build.
	ConclusionSuccess = "success"
	// ConclusionFailure defines the conclusion of the failed build or the failed orchestration step.
	ConclusionFailure = "failure"
	// ConclusionCancelled defines the conclusion of the canceled build.
	ConclusionCancelled = "cancelled"
	// ConclusionNeutral defines the conclusion for the cases when the result is unknown or CI didn't run.
	ConclusionNeutral = "neutral"
)

// DefaultCheckName is the name of the check run that is created when the matrix is not available.
const DefaultCheckName = "UnityCI"

// GithubToken is a data type for storing the GitHub API token, used for DI.
type GithubToken string

// GithubAPIURL is a data type for storing the GitHub API base URL, used for DI.
type GithubAPIURL string

// GithubWebhookSecret is a data type for storing the GitHub webhook secret, used for DI.
type GithubWebhookSecret string

// RepoRef identifies the GitHub repository.
type RepoRef struct {
	Owner          string `json:"owner"`
	Name           string `json:"name"`
	InstallationID int64  `json:"installationId,omitempty"`
}

// CheckReport contains the presentation of the build status on the check run.
type CheckReport struct {
	Status     string
	Conclusion string
	Title      string
	Summary    string
}

// CheckRunOptions contains the fields for creating or updating a check run.
type CheckRunOptions struct {
	Name        string
	HeadSHA     string
	ExternalID  string
	Status      string
	Conclusion  string
	Title       string
	Summary     string
	DetailsURL  string
	CompletedAt *time.Time
}

// CheckRun is a model that represents the GitHub check run.
type CheckRun struct {
	ID         int64
	Name       string
	ExternalID string
	Status     string
	Conclusion string
}

// GithubSvc describes the interactions with the GitHub REST API.
type GithubSvc interface {
	CreateCheckRun(ctx context.Context, repo RepoRef, opts CheckRunOptions) (CheckRun, error)
	UpdateCheckRun(ctx context.Context, repo RepoRef, id int64, opts CheckRunOptions) error
	ListCheckRunsForRef(ctx context.Context, repo RepoRef, ref string) ([]CheckRun, error)
	GetContent(ctx context.Context, repo RepoRef, path, ref string) ([]byte, error)
}
