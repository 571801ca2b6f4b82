// Package gh adapts the go-github client to the GitHub interactions of the application.
package gh

import (
	"context"
	"github.com/beldeveloper/go-errors-context"
	"github.com/google/go-github/v66/github"
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/errtype"
	"golang.org/x/oauth2"
	"net/http"
	"strings"
)

// NewClient creates a go-github client authenticated with the token.
// A non-empty apiURL points the client to the GitHub Enterprise API.
func NewClient(token app.GithubToken, apiURL app.GithubAPIURL) (*github.Client, error) {
	var httpClient *http.Client
	if token != "" {
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: string(token),
		}))
	}
	c := github.NewClient(httpClient)
	if apiURL == "" {
		return c, nil
	}
	u := strings.TrimRight(string(apiURL), "/") + "/"
	c, err := c.WithEnterpriseURLs(u, u)
	return c, errors.WrapContext(err, errors.Context{
		Path:   "gh.NewClient.WithEnterpriseURLs",
		Params: errors.Params{"url": u},
	})
}

// NewGithub creates a new instance of the GitHub service.
func NewGithub(client *github.Client) app.GithubSvc {
	return Github{client: client}
}

// Github implements the GitHub service on top of go-github.
type Github struct {
	client *github.Client
}

// CreateCheckRun creates a check run on the commit.
func (s Github) CreateCheckRun(ctx context.Context, repo app.RepoRef, opts app.CheckRunOptions) (app.CheckRun, error) {
	req := github.CreateCheckRunOptions{
		Name:        opts.Name,
		HeadSHA:     opts.HeadSHA,
		ExternalID:  optional(opts.ExternalID),
		Status:      optional(opts.Status),
		Conclusion:  optional(opts.Conclusion),
		DetailsURL:  optional(opts.DetailsURL),
		CompletedAt: timestamp(opts),
		Output:      output(opts),
	}
	cr, _, err := s.client.Checks.CreateCheckRun(ctx, repo.Owner, repo.Name, req)
	if err != nil {
		return app.CheckRun{}, errors.WrapContext(err, errors.Context{
			Path:   "gh.Github.CreateCheckRun",
			Params: errors.Params{"repo": repo.Owner + "/" + repo.Name, "name": opts.Name},
		})
	}
	return checkRun(cr), nil
}

// UpdateCheckRun modifies the check run.
func (s Github) UpdateCheckRun(ctx context.Context, repo app.RepoRef, id int64, opts app.CheckRunOptions) error {
	req := github.UpdateCheckRunOptions{
		Name:        opts.Name,
		ExternalID:  optional(opts.ExternalID),
		Status:      optional(opts.Status),
		Conclusion:  optional(opts.Conclusion),
		DetailsURL:  optional(opts.DetailsURL),
		CompletedAt: timestamp(opts),
		Output:      output(opts),
	}
	_, _, err := s.client.Checks.UpdateCheckRun(ctx, repo.Owner, repo.Name, id, req)
	return errors.WrapContext(err, errors.Context{
		Path:   "gh.Github.UpdateCheckRun",
		Params: errors.Params{"repo": repo.Owner + "/" + repo.Name, "checkRun": id},
	})
}

// ListCheckRunsForRef returns all check runs of the commit.
func (s Github) ListCheckRunsForRef(ctx context.Context, repo app.RepoRef, ref string) ([]app.CheckRun, error) {
	opts := &github.ListCheckRunsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var res []app.CheckRun
	for {
		page, resp, err := s.client.Checks.ListCheckRunsForRef(ctx, repo.Owner, repo.Name, ref, opts)
		if err != nil {
			return nil, errors.WrapContext(err, errors.Context{
				Path:   "gh.Github.ListCheckRunsForRef",
				Params: errors.Params{"repo": repo.Owner + "/" + repo.Name, "ref": ref},
			})
		}
		for _, cr := range page.CheckRuns {
			res = append(res, checkRun(cr))
		}
		if resp.NextPage == 0 {
			return res, nil
		}
		opts.Page = resp.NextPage
	}
}

// GetContent returns the decoded content of the file at the ref.
func (s Github) GetContent(ctx context.Context, repo app.RepoRef, path, ref string) ([]byte, error) {
	file, _, resp, err := s.client.Repositories.GetContents(ctx, repo.Owner, repo.Name, path,
		&github.RepositoryContentGetOptions{Ref: ref})
	params := errors.Params{"repo": repo.Owner + "/" + repo.Name, "path": path, "ref": ref}
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			err = errtype.ErrNotFound
		}
		return nil, errors.WrapContext(err, errors.Context{Path: "gh.Github.GetContent.GetContents", Params: params})
	}
	if file == nil {
		return nil, errors.WrapContext(errtype.ErrNotFound, errors.Context{Path: "gh.Github.GetContent.directory", Params: params})
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, errors.WrapContext(err, errors.Context{Path: "gh.Github.GetContent.GetContent", Params: params})
	}
	return []byte(content), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return github.String(s)
}

func timestamp(opts app.CheckRunOptions) *github.Timestamp {
	if opts.CompletedAt == nil {
		return nil
	}
	return &github.Timestamp{Time: *opts.CompletedAt}
}

func output(opts app.CheckRunOptions) *github.CheckRunOutput {
	if opts.Title == "" && opts.Summary == "" {
		return nil
	}
	return &github.CheckRunOutput{
		Title:   github.String(opts.Title),
		Summary: github.String(opts.Summary),
	}
}

func checkRun(cr *github.CheckRun) app.CheckRun {
	return app.CheckRun{
		ID:         cr.GetID(),
		Name:       cr.GetName(),
		ExternalID: cr.GetExternalID(),
		Status:     cr.GetStatus(),
		Conclusion: cr.GetConclusion(),
	}
}
