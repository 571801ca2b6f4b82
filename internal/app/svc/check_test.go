package svc

import (
	"github.com/karasusan/UnityCI/internal/app"
	"strings"
	"testing"
)

func TestFormatCheck(t *testing.T) {
	tests := []struct {
		status     app.BuildStatus
		checkState string
		conclusion string
	}{
		{app.BuildStatusQueued, app.CheckStatusQueued, ""},
		{app.BuildStatusSentToBuilder, app.CheckStatusInProgress, ""},
		{app.BuildStatusStarted, app.CheckStatusInProgress, ""},
		{app.BuildStatusRestarted, app.CheckStatusInProgress, ""},
		{app.BuildStatusSuccess, app.CheckStatusCompleted, app.ConclusionSuccess},
		{app.BuildStatusFailure, app.CheckStatusCompleted, app.ConclusionFailure},
		{app.BuildStatusCanceled, app.CheckStatusCompleted, app.ConclusionCancelled},
		{app.BuildStatusUnknown, app.CheckStatusCompleted, app.ConclusionNeutral},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			r := app.BuildResult{OrgID: "acme", ProjectID: "p", BuildTargetID: "master-ios", BuildNumber: 4, BuildStatus: tt.status}
			got := FormatCheck(r)
			if got.Status != tt.checkState || got.Conclusion != tt.conclusion {
				t.Errorf("got %s/%s, want %s/%s", got.Status, got.Conclusion, tt.checkState, tt.conclusion)
			}
			if got.Title == "" {
				t.Error("empty title")
			}
			if !strings.HasPrefix(got.Summary, "[This Build]("+BuildLogURL(r)+")") {
				t.Errorf("summary = %q", got.Summary)
			}
		})
	}
}

func TestBuildLogURL(t *testing.T) {
	got := BuildLogURL(app.BuildResult{OrgID: "acme", ProjectID: "p", BuildTargetID: "master-ios", BuildNumber: 4})
	want := "https://developer.cloud.unity3d.com/build/orgs/acme/projects/p/buildtargets/master-ios/builds/4/log/compact/"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
