package gh

import (
	"github.com/google/go-github/v66/github"
	"github.com/karasusan/UnityCI/internal/app"
)

// PullRequestEvent converts the go-github webhook payload.
func PullRequestEvent(e *github.PullRequestEvent) app.PullRequestEvent {
	head := e.GetPullRequest().GetHead()
	return app.PullRequestEvent{
		Action:  e.GetAction(),
		Number:  e.GetNumber(),
		Repo:    repoRef(e.GetRepo(), e.GetInstallation()),
		HeadRef: head.GetRef(),
		HeadSHA: head.GetSHA(),
	}
}

// CheckRunEvent converts the go-github webhook payload.
func CheckRunEvent(e *github.CheckRunEvent) app.CheckRunEvent {
	cr := e.GetCheckRun()
	return app.CheckRunEvent{
		Action:     e.GetAction(),
		Repo:       repoRef(e.GetRepo(), e.GetInstallation()),
		CheckRunID: cr.GetID(),
		ExternalID: cr.GetExternalID(),
		HeadSHA:    cr.GetHeadSHA(),
	}
}

func repoRef(r *github.Repository, i *github.Installation) app.RepoRef {
	return app.RepoRef{
		Owner:          r.GetOwner().GetLogin(),
		Name:           r.GetName(),
		InstallationID: i.GetID(),
	}
}
