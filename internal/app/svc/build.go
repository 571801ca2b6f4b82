package svc

import (
	"context"
	"fmt"
	"github.com/beldeveloper/go-errors-context"
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/errtype"
	"log"
	"net/http"
	"time"
)

// DefaultPollInterval defines the delay between the build status requests in the poll mode.
const DefaultPollInterval = 60 * time.Second

// webhookEvents lists the UCB project events that are delivered to the webhook.
var webhookEvents = []string{
	"ProjectBuildQueued",
	"ProjectBuildStarted",
	"ProjectBuildRestarted",
	"ProjectBuildSuccess",
	"ProjectBuildFailure",
	"ProjectBuildCanceled",
}

// NewBuild creates a new instance of the build orchestration service.
func NewBuild(ucbFactory app.UcbFactory, interval app.PollInterval) app.BuildSvc {
	if interval <= 0 {
		interval = app.PollInterval(DefaultPollInterval)
	}
	return Build{ucbFactory: ucbFactory, interval: time.Duration(interval)}
}

// Build is a service that drives the UCB build targets and builds.
type Build struct {
	ucbFactory app.UcbFactory
	interval   time.Duration
}

// PrepareBuildTarget creates the build target of the branch and platform or updates the existing one.
func (s Build) PrepareBuildTarget(ctx context.Context, cfg app.BuildMatrixConfig, branch, platform string) (app.UcbResponse, error) {
	id := app.BuildTargetID(branch, platform)
	params := errors.Params{"buildTarget": id}
	c := s.client(cfg)
	targets, resp, err := c.ListBuildTargets(ctx, cfg.OrgID, cfg.ProjectID)
	if err != nil {
		return resp, errors.WrapContext(err, errors.Context{Path: "svc.Build.PrepareBuildTarget.ListBuildTargets", Params: params})
	}
	if resp.StatusCode != http.StatusOK {
		return resp, errors.WrapContext(statusError(resp), errors.Context{Path: "svc.Build.PrepareBuildTarget.ListBuildTargets", Params: params})
	}
	opts := app.UcbBuildTargetOptions{
		Name:     id,
		Platform: platform,
		Enabled:  true,
		Settings: app.UcbBuildTargetSetup{
			AutoBuild:    false,
			UnityVersion: cfg.UnityVersion,
			Scm:          app.UcbScm{Type: "git", Branch: branch},
		},
	}
	path := "svc.Build.PrepareBuildTarget.AddBuildTarget"
	if hasBuildTarget(targets, id) {
		path = "svc.Build.PrepareBuildTarget.UpdateBuildTarget"
		resp, err = c.UpdateBuildTarget(ctx, cfg.OrgID, cfg.ProjectID, id, opts)
	} else {
		resp, err = c.AddBuildTarget(ctx, cfg.OrgID, cfg.ProjectID, opts)
	}
	if err == nil {
		err = expectStatus(resp, http.StatusOK, http.StatusCreated, http.StatusAccepted)
	}
	return resp, errors.WrapContext(err, errors.Context{Path: path, Params: params})
}

// ClearBuildTarget removes the build target of the branch and platform.
func (s Build) ClearBuildTarget(ctx context.Context, cfg app.BuildMatrixConfig, branch, platform string) (app.UcbResponse, error) {
	id := app.BuildTargetID(branch, platform)
	params := errors.Params{"buildTarget": id}
	c := s.client(cfg)
	targets, resp, err := c.ListBuildTargets(ctx, cfg.OrgID, cfg.ProjectID)
	if err == nil && resp.StatusCode != http.StatusOK {
		err = statusError(resp)
	}
	if err != nil {
		return resp, errors.WrapContext(err, errors.Context{Path: "svc.Build.ClearBuildTarget.ListBuildTargets", Params: params})
	}
	if !hasBuildTarget(targets, id) {
		return resp, errors.WrapContext(errtype.ErrNotFound, errors.Context{Path: "svc.Build.ClearBuildTarget", Params: params})
	}
	resp, err = c.DeleteBuildTarget(ctx, cfg.OrgID, cfg.ProjectID, id)
	if err == nil {
		err = expectStatus(resp, http.StatusNoContent)
	}
	return resp, errors.WrapContext(err, errors.Context{Path: "svc.Build.ClearBuildTarget.DeleteBuildTarget", Params: params})
}

// CancelBuilds cancels the builds of the build target that are still running.
func (s Build) CancelBuilds(ctx context.Context, cfg app.BuildMatrixConfig, buildTargetID string) (app.UcbResponse, error) {
	resp, err := s.client(cfg).CancelBuilds(ctx, cfg.OrgID, cfg.ProjectID, buildTargetID)
	if err == nil {
		err = expectStatus(resp, http.StatusNoContent)
	}
	return resp, errors.WrapContext(err, errors.Context{
		Path:   "svc.Build.CancelBuilds",
		Params: errors.Params{"buildTarget": buildTargetID},
	})
}

// StartBuild starts a new build of the build target and returns its descriptor.
func (s Build) StartBuild(ctx context.Context, cfg app.BuildMatrixConfig, buildTargetID, commit string) (app.UcbBuild, app.UcbResponse, error) {
	params := errors.Params{"buildTarget": buildTargetID, "commit": commit}
	builds, resp, err := s.client(cfg).StartBuilds(ctx, cfg.OrgID, cfg.ProjectID, buildTargetID, app.UcbStartBuildOptions{
		Clean:  cfg.Clean,
		Commit: commit,
	})
	if err == nil {
		err = expectStatus(resp, http.StatusAccepted)
	}
	if err != nil {
		return app.UcbBuild{}, resp, errors.WrapContext(err, errors.Context{Path: "svc.Build.StartBuild.StartBuilds", Params: params})
	}
	if len(builds) == 0 {
		return app.UcbBuild{}, resp, errors.WrapContext(
			fmt.Errorf("%w: no build was started", errtype.ErrUnexpectedStatus),
			errors.Context{Path: "svc.Build.StartBuild", Params: params},
		)
	}
	b := builds[0]
	if b.Error != "" {
		resp.Message = b.Error
		return b, resp, errors.WrapContext(
			fmt.Errorf("%w: %s", errtype.ErrUnexpectedStatus, b.Error),
			errors.Context{Path: "svc.Build.StartBuild", Params: params},
		)
	}
	return b, resp, nil
}

// WaitBuild polls the build until it reaches the terminal status.
func (s Build) WaitBuild(ctx context.Context, cfg app.BuildMatrixConfig, buildTargetID string, number int) (app.UcbBuild, error) {
	params := errors.Params{"buildTarget": buildTargetID, "build": number}
	c := s.client(cfg)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		b, resp, err := c.GetBuild(ctx, cfg.OrgID, cfg.ProjectID, buildTargetID, number)
		if err == nil {
			err = expectStatus(resp, http.StatusOK)
		}
		if err != nil {
			return b, errors.WrapContext(err, errors.Context{Path: "svc.Build.WaitBuild.GetBuild", Params: params})
		}
		if app.ParseBuildStatus(b.BuildStatus).IsTerminal() {
			return b, nil
		}
		select {
		case <-ctx.Done():
			return b, errors.WrapContext(ctx.Err(), errors.Context{Path: "svc.Build.WaitBuild", Params: params})
		case <-t.C:
		}
	}
}

// RegisterWebhook adds the project hook delivering the build events to the url unless it is already registered.
func (s Build) RegisterWebhook(ctx context.Context, cfg app.BuildMatrixConfig, url app.WebhookURL, secret app.WebhookSecret) error {
	params := errors.Params{"org": cfg.OrgID, "project": cfg.ProjectID, "url": string(url)}
	c := s.client(cfg)
	hooks, resp, err := c.ListProjectHooks(ctx, cfg.OrgID, cfg.ProjectID)
	if err == nil {
		err = expectStatus(resp, http.StatusOK)
	}
	if err != nil {
		return errors.WrapContext(err, errors.Context{Path: "svc.Build.RegisterWebhook.ListProjectHooks", Params: params})
	}
	for _, h := range hooks {
		if h.Config.URL == string(url) {
			return nil
		}
	}
	resp, err = c.AddProjectHook(ctx, cfg.OrgID, cfg.ProjectID, app.UcbHook{
		HookType: "web",
		Events:   webhookEvents,
		Config: app.UcbHookConfig{
			URL:       string(url),
			Encoding:  "json",
			SslVerify: true,
			Secret:    string(secret),
		},
		Active: true,
	})
	if err == nil {
		err = expectStatus(resp, http.StatusOK, http.StatusCreated)
	}
	if err != nil {
		return errors.WrapContext(err, errors.Context{Path: "svc.Build.RegisterWebhook.AddProjectHook", Params: params})
	}
	log.Printf("The webhook %s is registered for the project %s\n", url, cfg.ProjectID)
	return nil
}

func (s Build) client(cfg app.BuildMatrixConfig) app.UcbClient {
	return s.ucbFactory(cfg.URL, app.UcbAPIKey(cfg.APIKey))
}

func hasBuildTarget(targets []app.UcbBuildTarget, id string) bool {
	for _, t := range targets {
		if t.BuildTargetID == id || t.Name == id {
			return true
		}
	}
	return false
}

func expectStatus(resp app.UcbResponse, codes ...int) error {
	for _, c := range codes {
		if resp.StatusCode == c {
			return nil
		}
	}
	return statusError(resp)
}

func statusError(resp app.UcbResponse) error {
	if resp.Message == "" {
		return fmt.Errorf("%w: %d", errtype.ErrUnexpectedStatus, resp.StatusCode)
	}
	return fmt.Errorf("%w: %d: %s", errtype.ErrUnexpectedStatus, resp.StatusCode, resp.Message)
}
