package svc

import (
	"context"
	"fmt"
	"github.com/beldeveloper/go-errors-context"
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/errtype"
	"log"
	"sync"
	"time"
)

// DefaultCorrelationTTL defines how long the build may stay unreported before its check run is closed.
const DefaultCorrelationTTL = 24 * time.Hour

// reportTimeout limits the check run update made after the service is stopped.
const reportTimeout = 10 * time.Second

// NewEvent creates a new instance of the event service.
func NewEvent(
	configSvc app.ConfigSvc,
	buildSvc app.BuildSvc,
	githubSvc app.GithubSvc,
	corrRepo app.CorrelationRepo,
	mode app.BuildMode,
	webhookURL app.WebhookURL,
	webhookSecret app.WebhookSecret,
	ttl app.CorrelationTTL,
	lifetime app.LifetimeCtx,
) app.EventSvc {
	if mode == "" {
		mode = app.BuildModeWebhook
	}
	if ttl <= 0 {
		ttl = app.CorrelationTTL(DefaultCorrelationTTL)
	}
	if lifetime == nil {
		lifetime = context.Background()
	}
	return Event{
		configSvc:     configSvc,
		buildSvc:      buildSvc,
		githubSvc:     githubSvc,
		corrRepo:      corrRepo,
		mode:          mode,
		webhookURL:    webhookURL,
		webhookSecret: webhookSecret,
		ttl:           time.Duration(ttl),
		lifetime:      lifetime,
		now:           time.Now,
		wg:            &sync.WaitGroup{},
		locks:         newKeyLocks(),
	}
}

// Event is a service that turns the pull requests into UCB builds and reports the builds back as check runs.
type Event struct {
	configSvc     app.ConfigSvc
	buildSvc      app.BuildSvc
	githubSvc     app.GithubSvc
	corrRepo      app.CorrelationRepo
	mode          app.BuildMode
	webhookURL    app.WebhookURL
	webhookSecret app.WebhookSecret
	ttl           time.Duration
	lifetime      context.Context
	now           func() time.Time
	wg            *sync.WaitGroup
	locks         *keyLocks
}

// PullRequestOpened creates a check run per matrix entry and starts the builds in background.
func (s Event) PullRequestOpened(ctx context.Context, e app.PullRequestEvent) error {
	if e.Action != "opened" && e.Action != "reopened" {
		return nil
	}
	params := errors.Params{"repo": e.Repo.Owner + "/" + e.Repo.Name, "pr": e.Number}
	cfg, err := s.configSvc.Load(ctx, e.Repo, e.HeadSHA)
	if err != nil {
		var opts app.CheckRunOptions
		switch {
		case errors.Is(err, errtype.ErrBadInput):
			opts = s.checkOptions(app.DefaultCheckName, "", app.CheckReport{
				Status:     app.CheckStatusCompleted,
				Conclusion: app.ConclusionFailure,
				Title:      "Invalid UnityCI configuration",
				Summary:    fmt.Sprintf("The configuration can't be used: %v", err),
			})
		case errors.Is(err, errtype.ErrConfigNotFound):
			opts = s.checkOptions(app.DefaultCheckName, "", app.CheckReport{
				Status:     app.CheckStatusCompleted,
				Conclusion: app.ConclusionNeutral,
				Title:      "UnityCI did not run",
				Summary:    "The repository has no UnityCI configuration, so no build was started.",
			})
		default:
			log.Println(errors.WrapContext(err, errors.Context{Path: "svc.Event.PullRequestOpened.Load", Params: params}))
			opts = s.checkOptions(app.DefaultCheckName, "", app.CheckReport{
				Status:     app.CheckStatusCompleted,
				Conclusion: app.ConclusionNeutral,
				Title:      "UnityCI did not run",
				Summary:    fmt.Sprintf("The UnityCI configuration can't be loaded, so no build was started: %v", err),
			})
		}
		opts.HeadSHA = e.HeadSHA
		_, err = s.githubSvc.CreateCheckRun(ctx, e.Repo, opts)
		return errors.WrapContext(err, errors.Context{Path: "svc.Event.PullRequestOpened.noBuild", Params: params})
	}
	checks := make([]app.CheckRun, len(cfg.Matrix))
	for i, m := range cfg.Matrix {
		checks[i], err = s.githubSvc.CreateCheckRun(ctx, e.Repo, app.CheckRunOptions{
			Name:       m.Name,
			HeadSHA:    e.HeadSHA,
			ExternalID: app.BuildTargetID(e.HeadRef, m.Platform),
			Status:     app.CheckStatusQueued,
		})
		if err != nil {
			for j, prev := range cfg.Matrix[:i] {
				s.fail(ctx, e.Repo, checks[j], app.BuildTargetID(e.HeadRef, prev.Platform), "create all check runs", app.UcbResponse{}, err)
			}
			return errors.WrapContext(err, errors.Context{
				Path:   "svc.Event.PullRequestOpened.CreateCheckRun",
				Params: errors.Params{"repo": e.Repo.Owner + "/" + e.Repo.Name, "pr": e.Number, "name": m.Name},
			})
		}
	}
	if s.mode == app.BuildModeWebhook && s.webhookURL != "" {
		err = s.buildSvc.RegisterWebhook(ctx, cfg, s.webhookURL, s.webhookSecret)
		if err != nil {
			for i, m := range cfg.Matrix {
				s.fail(ctx, e.Repo, checks[i], app.BuildTargetID(e.HeadRef, m.Platform), "register the UCB webhook", app.UcbResponse{}, err)
			}
			return errors.WrapContext(err, errors.Context{Path: "svc.Event.PullRequestOpened.RegisterWebhook", Params: params})
		}
	}
	for i, m := range cfg.Matrix {
		s.wg.Add(1)
		go s.runEntry(s.lifetime, e, cfg, m, checks[i])
	}
	log.Printf("The pull request %s/%s#%d started %d builds\n", e.Repo.Owner, e.Repo.Name, e.Number, len(cfg.Matrix))
	return nil
}

// CheckRunRerequested is called when a user asks to re-run the check; rerunning isn't supported.
func (s Event) CheckRunRerequested(ctx context.Context, e app.CheckRunEvent) error {
	log.Printf("The rerun of the check run #%d (%s) is requested, but it's not supported; reopen the pull request to rebuild\n",
		e.CheckRunID, e.ExternalID)
	return nil
}

// BuildStatusChanged reports the build status received from UCB to the check run that started the build.
func (s Event) BuildStatusChanged(ctx context.Context, r app.BuildResult) error {
	params := errors.Params{"buildTarget": r.BuildTargetID, "build": r.BuildNumber, "status": r.BuildStatus}
	unlock := s.locks.Lock(r.Key().Hash())
	defer unlock()
	c, err := s.corrRepo.Find(ctx, r.Key())
	if err != nil {
		if errors.Is(err, errtype.ErrNotFound) {
			log.Printf("No check run is waiting for the build %s #%d; the event is dropped\n", r.BuildTargetID, r.BuildNumber)
			return nil
		}
		return errors.WrapContext(err, errors.Context{Path: "svc.Event.BuildStatusChanged.Find", Params: params})
	}
	if r.BuildNumber < c.Context.BuildNumber {
		log.Printf("The build %s #%d is superseded by #%d; the event is dropped\n",
			r.BuildTargetID, r.BuildNumber, c.Context.BuildNumber)
		return nil
	}
	id := s.findCheckRun(ctx, c)
	opts := s.checkOptions(c.Context.CheckName, r.BuildTargetID, FormatCheck(r))
	err = s.githubSvc.UpdateCheckRun(ctx, c.Context.Repo, id, opts)
	if err != nil {
		return errors.WrapContext(err, errors.Context{Path: "svc.Event.BuildStatusChanged.UpdateCheckRun", Params: params})
	}
	if !r.BuildStatus.IsTerminal() {
		return nil
	}
	err = s.corrRepo.Delete(ctx, r.Key())
	if err != nil && !errors.Is(err, errtype.ErrNotFound) {
		return errors.WrapContext(err, errors.Context{Path: "svc.Event.BuildStatusChanged.Delete", Params: params})
	}
	log.Printf("The build %s #%d is completed; status=%s\n", r.BuildTargetID, r.BuildNumber, r.BuildStatus)
	return nil
}

// SweepJob closes the check runs of the builds that were not reported within the TTL.
func (s Event) SweepJob(ctx context.Context) error {
	list, err := s.corrRepo.FindOlderThan(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return errors.WrapContext(err, errors.Context{Path: "svc.Event.SweepJob.FindOlderThan"})
	}
	for _, c := range list {
		if err = s.sweep(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (s Event) sweep(ctx context.Context, c app.Correlation) error {
	params := errors.Params{"buildTarget": c.Key.BuildTargetID, "checkRun": c.Context.CheckRunID}
	unlock := s.locks.Lock(c.Key.Hash())
	defer unlock()
	cur, err := s.corrRepo.Find(ctx, c.Key)
	if errors.Is(err, errtype.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.WrapContext(err, errors.Context{Path: "svc.Event.SweepJob.Find", Params: params})
	}
	if cur.Context.BuildNumber != c.Context.BuildNumber {
		// a newer build was started meanwhile
		return nil
	}
	opts := s.checkOptions(c.Context.CheckName, c.Key.BuildTargetID, app.CheckReport{
		Status:     app.CheckStatusCompleted,
		Conclusion: app.ConclusionNeutral,
		Title:      "Build result was not received",
		Summary:    fmt.Sprintf("UCB didn't report the build #%d within %s.", c.Context.BuildNumber, s.ttl),
	})
	err = s.githubSvc.UpdateCheckRun(ctx, c.Context.Repo, c.Context.CheckRunID, opts)
	if err != nil {
		log.Println(errors.WrapContext(err, errors.Context{Path: "svc.Event.SweepJob.UpdateCheckRun", Params: params}))
	}
	err = s.corrRepo.Delete(ctx, c.Key)
	if err != nil && !errors.Is(err, errtype.ErrNotFound) {
		return errors.WrapContext(err, errors.Context{Path: "svc.Event.SweepJob.Delete", Params: params})
	}
	log.Printf("The build %s #%d expired\n", c.Key.BuildTargetID, c.Context.BuildNumber)
	return nil
}

// Drain waits until the background builds of all handled pull requests are started or, in the poll mode, completed.
func (s Event) Drain() {
	s.wg.Wait()
}

func (s Event) runEntry(ctx context.Context, e app.PullRequestEvent, cfg app.BuildMatrixConfig, m app.MatrixEntry, cr app.CheckRun) {
	defer s.wg.Done()
	id := app.BuildTargetID(e.HeadRef, m.Platform)
	s.update(ctx, e.Repo, cr.ID, s.checkOptions(m.Name, id, app.CheckReport{
		Status:  app.CheckStatusInProgress,
		Title:   "Preparing build target",
		Summary: fmt.Sprintf("Preparing the build target %s.", id),
	}))
	resp, err := s.buildSvc.PrepareBuildTarget(ctx, cfg, e.HeadRef, m.Platform)
	if err != nil {
		s.fail(ctx, e.Repo, cr, id, "prepare the build target", resp, err)
		return
	}
	resp, err = s.buildSvc.CancelBuilds(ctx, cfg, id)
	if err != nil {
		s.fail(ctx, e.Repo, cr, id, "cancel the previous builds", resp, err)
		return
	}
	b, resp, err := s.buildSvc.StartBuild(ctx, cfg, id, e.HeadSHA)
	if err != nil {
		s.fail(ctx, e.Repo, cr, id, "start the build", resp, err)
		return
	}
	r := app.BuildResult{
		OrgID:         cfg.OrgID,
		ProjectID:     cfg.ProjectID,
		BuildTargetID: id,
		BuildNumber:   b.Build,
		BuildStatus:   app.BuildStatusStarted,
	}
	log.Printf("The build %s #%d is started\n", id, b.Build)
	if s.mode != app.BuildModePoll {
		s.awaitWebhook(ctx, e, m, cr, r)
		return
	}
	s.update(ctx, e.Repo, cr.ID, s.checkOptions(m.Name, id, FormatCheck(r)))
	final, err := s.buildSvc.WaitBuild(ctx, cfg, id, b.Build)
	if err != nil {
		s.fail(ctx, e.Repo, cr, id, "get the build status", app.UcbResponse{}, err)
		return
	}
	r.BuildStatus = app.ParseBuildStatus(final.BuildStatus)
	s.update(ctx, e.Repo, cr.ID, s.checkOptions(m.Name, id, FormatCheck(r)))
	log.Printf("The build %s #%d is completed; status=%s\n", id, b.Build, r.BuildStatus)
}

// awaitWebhook remembers the started build and reports it as in progress.
// Both steps hold the key lock, so a webhook for the build is applied after them.
func (s Event) awaitWebhook(ctx context.Context, e app.PullRequestEvent, m app.MatrixEntry, cr app.CheckRun, r app.BuildResult) {
	unlock := s.locks.Lock(r.Key().Hash())
	defer unlock()
	err := s.corrRepo.Save(ctx, app.Correlation{
		Key: r.Key(),
		Context: app.EventContext{
			Repo:        e.Repo,
			HeadRef:     e.HeadRef,
			HeadSHA:     e.HeadSHA,
			CheckRunID:  cr.ID,
			CheckName:   m.Name,
			BuildNumber: r.BuildNumber,
			CreatedAt:   s.now(),
		},
	})
	if err != nil {
		s.fail(ctx, e.Repo, cr, r.BuildTargetID, "remember the build", app.UcbResponse{}, err)
		return
	}
	s.update(ctx, e.Repo, cr.ID, s.checkOptions(m.Name, r.BuildTargetID, FormatCheck(r)))
}

func (s Event) fail(ctx context.Context, repo app.RepoRef, cr app.CheckRun, id, step string, resp app.UcbResponse, err error) {
	if ctx.Err() != nil {
		// the service is stopping; the check run still has to be closed
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
		defer cancel()
	}
	log.Println(errors.WrapContext(err, errors.Context{
		Path:   "svc.Event.fail",
		Params: errors.Params{"buildTarget": id, "step": step, "status": resp.StatusCode},
	}))
	summary := fmt.Sprintf("Can't %s: %v", step, err)
	if resp.StatusCode != 0 {
		summary = fmt.Sprintf("Can't %s; UCB responded with HTTP %d", step, resp.StatusCode)
		if resp.Message != "" {
			summary += ": " + resp.Message
		}
	}
	s.update(ctx, repo, cr.ID, s.checkOptions(cr.Name, id, app.CheckReport{
		Status:     app.CheckStatusCompleted,
		Conclusion: app.ConclusionFailure,
		Title:      "Build failed to start",
		Summary:    summary,
	}))
}

func (s Event) update(ctx context.Context, repo app.RepoRef, id int64, opts app.CheckRunOptions) {
	err := s.githubSvc.UpdateCheckRun(ctx, repo, id, opts)
	if err != nil {
		log.Println(errors.WrapContext(err, errors.Context{
			Path:   "svc.Event.update",
			Params: errors.Params{"checkRun": id, "status": opts.Status},
		}))
	}
}

// findCheckRun looks the check run up by its external ID and falls back to the ID stored with the correlation.
func (s Event) findCheckRun(ctx context.Context, c app.Correlation) int64 {
	list, err := s.githubSvc.ListCheckRunsForRef(ctx, c.Context.Repo, c.Context.HeadSHA)
	if err != nil {
		log.Println(errors.WrapContext(err, errors.Context{
			Path:   "svc.Event.findCheckRun.ListCheckRunsForRef",
			Params: errors.Params{"ref": c.Context.HeadSHA},
		}))
		return c.Context.CheckRunID
	}
	for _, cr := range list {
		if cr.ExternalID == c.Key.BuildTargetID && cr.ID == c.Context.CheckRunID {
			return cr.ID
		}
	}
	for _, cr := range list {
		if cr.ExternalID == c.Key.BuildTargetID {
			return cr.ID
		}
	}
	return c.Context.CheckRunID
}

func (s Event) checkOptions(name, externalID string, r app.CheckReport) app.CheckRunOptions {
	opts := app.CheckRunOptions{
		Name:       name,
		ExternalID: externalID,
		Status:     r.Status,
		Conclusion: r.Conclusion,
		Title:      r.Title,
		Summary:    r.Summary,
	}
	if r.Conclusion != "" {
		now := s.now()
		opts.CompletedAt = &now
	}
	return opts
}
