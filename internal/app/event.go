package app

import "context"

// LifetimeCtx is a data type for storing the context that is canceled when the application stops, used for DI.
type LifetimeCtx context.Context

// PullRequestEvent contains the data of the pull_request webhook needed to run the builds.
type PullRequestEvent struct {
	Action  string
	Number  int
	Repo    RepoRef
	HeadRef string
	HeadSHA string
}

// CheckRunEvent contains the data of the check_run webhook.
type CheckRunEvent struct {
	Action     string
	Repo       RepoRef
	CheckRunID int64
	ExternalID string
	HeadSHA    string
}

// EventSvc describes the service that reacts on GitHub and UCB events.
type EventSvc interface {
	PullRequestOpened(ctx context.Context, e PullRequestEvent) error
	CheckRunRerequested(ctx context.Context, e CheckRunEvent) error
	BuildStatusChanged(ctx context.Context, r BuildResult) error
	SweepJob(ctx context.Context) error
	Drain()
}
