package svc

import (
	"fmt"
	"github.com/karasusan/UnityCI/internal/app"
)

// DashboardURL is the root of the UCB dashboard the check summaries link to.
const DashboardURL = "https://developer.cloud.unity3d.com/build"

// BuildLogURL returns the link to the compact log of the build.
func BuildLogURL(r app.BuildResult) string {
	return fmt.Sprintf("%s/orgs/%s/projects/%s/buildtargets/%s/builds/%d/log/compact/",
		DashboardURL, r.OrgID, r.ProjectID, r.BuildTargetID, r.BuildNumber)
}

// FormatCheck maps the build status to its check run presentation.
func FormatCheck(r app.BuildResult) app.CheckReport {
	link := fmt.Sprintf("[This Build](%s)", BuildLogURL(r))
	switch r.BuildStatus {
	case app.BuildStatusQueued:
		return app.CheckReport{
			Status:  app.CheckStatusQueued,
			Title:   "Build queued",
			Summary: link + " is queued.",
		}
	case app.BuildStatusSentToBuilder, app.BuildStatusStarted, app.BuildStatusRestarted:
		return app.CheckReport{
			Status:  app.CheckStatusInProgress,
			Title:   "Build in progress",
			Summary: link + " in progress.",
		}
	case app.BuildStatusSuccess:
		return app.CheckReport{
			Status:     app.CheckStatusCompleted,
			Conclusion: app.ConclusionSuccess,
			Title:      "Build succeeded",
			Summary:    link + " succeeded.",
		}
	case app.BuildStatusFailure:
		return app.CheckReport{
			Status:     app.CheckStatusCompleted,
			Conclusion: app.ConclusionFailure,
			Title:      "Build failed",
			Summary:    link + " failed.",
		}
	case app.BuildStatusCanceled:
		return app.CheckReport{
			Status:     app.CheckStatusCompleted,
			Conclusion: app.ConclusionCancelled,
			Title:      "Build canceled",
			Summary:    link + " was canceled.",
		}
	}
	return app.CheckReport{
		Status:     app.CheckStatusCompleted,
		Conclusion: app.ConclusionNeutral,
		Title:      "Build status unknown",
		Summary:    link + " finished with an unknown status.",
	}
}
