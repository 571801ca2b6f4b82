package app

import (
	"context"
	"time"
)

const (
	// BuildStatusQueued defines the status that means the build is waiting for a builder.
	BuildStatusQueued BuildStatus = "queued"
	// BuildStatusSentToBuilder defines the status that means the build is handed to a builder.
	BuildStatusSentToBuilder BuildStatus = "sentToBuilder"
	// BuildStatusStarted defines the status that means the builder is running the build.
	BuildStatusStarted BuildStatus = "started"
	// BuildStatusRestarted defines the status that means the build was restarted by UCB.
	BuildStatusRestarted BuildStatus = "restarted"
	// BuildStatusSuccess defines the status that means the build succeeded.
	BuildStatusSuccess BuildStatus = "success"
	// BuildStatusFailure defines the status that means the build failed.
	BuildStatusFailure BuildStatus = "failure"
	// BuildStatusCanceled defines the status that means the build was canceled.
	BuildStatusCanceled BuildStatus = "canceled"
	// BuildStatusUnknown defines the status that is reported when UCB returns anything else.
	BuildStatusUnknown BuildStatus = "unknown"
)

// BuildStatus is a status of the Unity Cloud Build build.
type BuildStatus string

// ParseBuildStatus converts the raw UCB value to the known status; unrecognized values become unknown.
func ParseBuildStatus(s string) BuildStatus {
	switch st := BuildStatus(s); st {
	case BuildStatusQueued, BuildStatusSentToBuilder, BuildStatusStarted, BuildStatusRestarted,
		BuildStatusSuccess, BuildStatusFailure, BuildStatusCanceled:
		return st
	}
	return BuildStatusUnknown
}

// IsTerminal tells whether the build will not change its status anymore.
func (s BuildStatus) IsTerminal() bool {
	switch s {
	case BuildStatusQueued, BuildStatusSentToBuilder, BuildStatusStarted, BuildStatusRestarted:
		return false
	}
	return true
}

// BuildTargetID returns the identity of the build target for the branch and platform.
// It is used as the UCB build target ID and as the external ID of the check run.
func BuildTargetID(branch, platform string) string {
	return branch + "-" + platform
}

// BuildResult is a model that represents the reported state of a single build.
type BuildResult struct {
	OrgID         string      `json:"orgId"`
	ProjectID     string      `json:"projectId"`
	BuildTargetID string      `json:"buildTargetId"`
	BuildNumber   int         `json:"buildNumber"`
	BuildStatus   BuildStatus `json:"buildStatus"`
}

// Key returns the correlation key of the build target the result belongs to.
func (r BuildResult) Key() CorrelationKey {
	return CorrelationKey{OrgID: r.OrgID, ProjectID: r.ProjectID, BuildTargetID: r.BuildTargetID}
}

// BuildMode is a data type for storing the way the build completion is detected, used for DI.
type BuildMode string

const (
	// BuildModeWebhook waits for the UCB webhook to report the completion.
	BuildModeWebhook BuildMode = "webhook"
	// BuildModePoll polls UCB until the build is completed.
	BuildModePoll BuildMode = "poll"
)

// PollInterval is a data type for storing the delay between build polls, used for DI.
type PollInterval time.Duration

// BuildSvc describes the build orchestration service.
type BuildSvc interface {
	PrepareBuildTarget(ctx context.Context, cfg BuildMatrixConfig, branch, platform string) (UcbResponse, error)
	ClearBuildTarget(ctx context.Context, cfg BuildMatrixConfig, branch, platform string) (UcbResponse, error)
	CancelBuilds(ctx context.Context, cfg BuildMatrixConfig, buildTargetID string) (UcbResponse, error)
	StartBuild(ctx context.Context, cfg BuildMatrixConfig, buildTargetID, commit string) (UcbBuild, UcbResponse, error)
	WaitBuild(ctx context.Context, cfg BuildMatrixConfig, buildTargetID string, number int) (UcbBuild, error)
	RegisterWebhook(ctx context.Context, cfg BuildMatrixConfig, url WebhookURL, secret WebhookSecret) error
}
