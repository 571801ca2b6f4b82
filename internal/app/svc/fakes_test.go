package svc

import (
	"context"
	"errors"
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/errtype"
	"sync"
)

type checkUpdate struct {
	ID   int64
	Opts app.CheckRunOptions
}

type fakeGithub struct {
	mu        sync.Mutex
	nextID    int64
	created   []app.CheckRunOptions
	updates   []checkUpdate
	contents  map[string][]byte
	listed    []app.CheckRun
	listErr   error
	createErr error
	// createFailAfter makes the creation fail once that many check runs exist.
	createFailAfter int
}

func (f *fakeGithub) CreateCheckRun(ctx context.Context, repo app.RepoRef, opts app.CheckRunOptions) (app.CheckRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return app.CheckRun{}, f.createErr
	}
	if f.createFailAfter > 0 && len(f.created) >= f.createFailAfter {
		return app.CheckRun{}, errors.New("secondary rate limit")
	}
	f.nextID++
	f.created = append(f.created, opts)
	return app.CheckRun{
		ID:         f.nextID,
		Name:       opts.Name,
		ExternalID: opts.ExternalID,
		Status:     opts.Status,
		Conclusion: opts.Conclusion,
	}, nil
}

func (f *fakeGithub) UpdateCheckRun(ctx context.Context, repo app.RepoRef, id int64, opts app.CheckRunOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, checkUpdate{ID: id, Opts: opts})
	return nil
}

func (f *fakeGithub) ListCheckRunsForRef(ctx context.Context, repo app.RepoRef, ref string) ([]app.CheckRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listed, f.listErr
}

func (f *fakeGithub) GetContent(ctx context.Context, repo app.RepoRef, path, ref string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.contents[path]
	if !ok {
		return nil, errtype.ErrNotFound
	}
	return data, nil
}

// updatesOf returns the updates of the check run in the order they were made.
func (f *fakeGithub) updatesOf(id int64) []app.CheckRunOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]app.CheckRunOptions, 0)
	for _, u := range f.updates {
		if u.ID == id {
			res = append(res, u.Opts)
		}
	}
	return res
}

type fakeConfig struct {
	cfg app.BuildMatrixConfig
	err error
}

func (f fakeConfig) Load(ctx context.Context, repo app.RepoRef, ref string) (app.BuildMatrixConfig, error) {
	return f.cfg, f.err
}

func (f fakeConfig) Parse(data []byte) (app.BuildMatrixConfig, error) {
	return f.cfg, f.err
}

type fakeBuild struct {
	mu          sync.Mutex
	nextBuild   int
	prepared    []string
	canceled    []string
	started     []string
	waited      []string
	hooks       []app.WebhookURL
	prepareErr  map[string]error
	hookErr     error
	finalStatus app.BuildStatus
	blockWait   bool
}

func (f *fakeBuild) PrepareBuildTarget(ctx context.Context, cfg app.BuildMatrixConfig, branch, platform string) (app.UcbResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := app.BuildTargetID(branch, platform)
	f.prepared = append(f.prepared, id)
	if err := f.prepareErr[platform]; err != nil {
		return app.UcbResponse{StatusCode: 400, Message: "bad target"}, err
	}
	return app.UcbResponse{StatusCode: 201}, nil
}

func (f *fakeBuild) ClearBuildTarget(ctx context.Context, cfg app.BuildMatrixConfig, branch, platform string) (app.UcbResponse, error) {
	return app.UcbResponse{StatusCode: 204}, nil
}

func (f *fakeBuild) CancelBuilds(ctx context.Context, cfg app.BuildMatrixConfig, buildTargetID string) (app.UcbResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = append(f.canceled, buildTargetID)
	return app.UcbResponse{StatusCode: 204}, nil
}

func (f *fakeBuild) StartBuild(ctx context.Context, cfg app.BuildMatrixConfig, buildTargetID, commit string) (app.UcbBuild, app.UcbResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, buildTargetID)
	f.nextBuild++
	return app.UcbBuild{Build: f.nextBuild, BuildTargetID: buildTargetID, BuildStatus: "queued"}, app.UcbResponse{StatusCode: 202}, nil
}

func (f *fakeBuild) WaitBuild(ctx context.Context, cfg app.BuildMatrixConfig, buildTargetID string, number int) (app.UcbBuild, error) {
	f.mu.Lock()
	f.waited = append(f.waited, buildTargetID)
	f.mu.Unlock()
	if f.blockWait {
		<-ctx.Done()
		return app.UcbBuild{}, ctx.Err()
	}
	return app.UcbBuild{Build: number, BuildTargetID: buildTargetID, BuildStatus: string(f.finalStatus)}, nil
}

func (f *fakeBuild) RegisterWebhook(ctx context.Context, cfg app.BuildMatrixConfig, url app.WebhookURL, secret app.WebhookSecret) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks = append(f.hooks, url)
	return f.hookErr
}
