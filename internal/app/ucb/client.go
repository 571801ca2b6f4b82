// Package ucb implements a thin client of the Unity Cloud Build REST API.
package ucb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/beldeveloper/go-errors-context"
	"github.com/karasusan/UnityCI/internal/app"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
)

// maxBodySize limits the size of the response body that is read from UCB.
const maxBodySize = 8 * 1024 * 1024

// NewFactory creates a factory of the UCB clients sharing the HTTP client.
func NewFactory(httpClient *http.Client) app.UcbFactory {
	return func(baseURL string, apiKey app.UcbAPIKey) app.UcbClient {
		return NewClient(httpClient, baseURL, apiKey)
	}
}

// NewClient creates a new instance of the UCB client.
func NewClient(httpClient *http.Client, baseURL string, apiKey app.UcbAPIKey) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = app.DefaultUcbURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     string(apiKey),
	}
}

// Client implements the UCB REST API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// ListBuildTargets returns all build targets of the project.
func (c *Client) ListBuildTargets(ctx context.Context, orgID, projectID string) ([]app.UcbBuildTarget, app.UcbResponse, error) {
	var res []app.UcbBuildTarget
	resp, err := c.do(ctx, http.MethodGet, buildTargetsPath(orgID, projectID), nil, &res)
	return res, resp, errors.WrapContext(err, errors.Context{
		Path:   "ucb.Client.ListBuildTargets",
		Params: errors.Params{"org": orgID, "project": projectID},
	})
}

// AddBuildTarget creates a build target for the project.
func (c *Client) AddBuildTarget(ctx context.Context, orgID, projectID string, opts app.UcbBuildTargetOptions) (app.UcbResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, buildTargetsPath(orgID, projectID), opts, nil)
	return resp, errors.WrapContext(err, errors.Context{
		Path:   "ucb.Client.AddBuildTarget",
		Params: errors.Params{"org": orgID, "project": projectID, "name": opts.Name},
	})
}

// UpdateBuildTarget modifies the existing build target.
func (c *Client) UpdateBuildTarget(ctx context.Context, orgID, projectID, buildTargetID string, opts app.UcbBuildTargetOptions) (app.UcbResponse, error) {
	resp, err := c.do(ctx, http.MethodPut, buildTargetPath(orgID, projectID, buildTargetID), opts, nil)
	return resp, errors.WrapContext(err, errors.Context{
		Path:   "ucb.Client.UpdateBuildTarget",
		Params: errors.Params{"org": orgID, "project": projectID, "buildTarget": buildTargetID},
	})
}

// DeleteBuildTarget removes the build target.
func (c *Client) DeleteBuildTarget(ctx context.Context, orgID, projectID, buildTargetID string) (app.UcbResponse, error) {
	resp, err := c.do(ctx, http.MethodDelete, buildTargetPath(orgID, projectID, buildTargetID), nil, nil)
	return resp, errors.WrapContext(err, errors.Context{
		Path:   "ucb.Client.DeleteBuildTarget",
		Params: errors.Params{"org": orgID, "project": projectID, "buildTarget": buildTargetID},
	})
}

// StartBuilds starts the build of the build target.
func (c *Client) StartBuilds(ctx context.Context, orgID, projectID, buildTargetID string, opts app.UcbStartBuildOptions) ([]app.UcbBuild, app.UcbResponse, error) {
	var res []app.UcbBuild
	resp, err := c.do(ctx, http.MethodPost, buildsPath(orgID, projectID, buildTargetID), opts, &res)
	return res, resp, errors.WrapContext(err, errors.Context{
		Path:   "ucb.Client.StartBuilds",
		Params: errors.Params{"org": orgID, "project": projectID, "buildTarget": buildTargetID},
	})
}

// CancelBuilds cancels all builds of the build target that are in progress.
func (c *Client) CancelBuilds(ctx context.Context, orgID, projectID, buildTargetID string) (app.UcbResponse, error) {
	resp, err := c.do(ctx, http.MethodDelete, buildsPath(orgID, projectID, buildTargetID), nil, nil)
	return resp, errors.WrapContext(err, errors.Context{
		Path:   "ucb.Client.CancelBuilds",
		Params: errors.Params{"org": orgID, "project": projectID, "buildTarget": buildTargetID},
	})
}

// GetBuild returns the build by its number.
func (c *Client) GetBuild(ctx context.Context, orgID, projectID, buildTargetID string, number int) (app.UcbBuild, app.UcbResponse, error) {
	var res app.UcbBuild
	p := fmt.Sprintf("%s/%d", buildsPath(orgID, projectID, buildTargetID), number)
	resp, err := c.do(ctx, http.MethodGet, p, nil, &res)
	return res, resp, errors.WrapContext(err, errors.Context{
		Path:   "ucb.Client.GetBuild",
		Params: errors.Params{"org": orgID, "project": projectID, "buildTarget": buildTargetID, "build": number},
	})
}

// ListProjectHooks returns the project level webhooks.
func (c *Client) ListProjectHooks(ctx context.Context, orgID, projectID string) ([]app.UcbHook, app.UcbResponse, error) {
	var res []app.UcbHook
	resp, err := c.do(ctx, http.MethodGet, projectPath(orgID, projectID)+"/hooks", nil, &res)
	return res, resp, errors.WrapContext(err, errors.Context{
		Path:   "ucb.Client.ListProjectHooks",
		Params: errors.Params{"org": orgID, "project": projectID},
	})
}

// AddProjectHook adds a webhook triggered by the events of the project.
func (c *Client) AddProjectHook(ctx context.Context, orgID, projectID string, h app.UcbHook) (app.UcbResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, projectPath(orgID, projectID)+"/hooks", h, nil)
	return resp, errors.WrapContext(err, errors.Context{
		Path:   "ucb.Client.AddProjectHook",
		Params: errors.Params{"org": orgID, "project": projectID},
	})
}

// ListOrgHooks returns the org level webhooks.
func (c *Client) ListOrgHooks(ctx context.Context, orgID string) ([]app.UcbHook, app.UcbResponse, error) {
	var res []app.UcbHook
	resp, err := c.do(ctx, http.MethodGet, orgPath(orgID)+"/hooks", nil, &res)
	return res, resp, errors.WrapContext(err, errors.Context{
		Path:   "ucb.Client.ListOrgHooks",
		Params: errors.Params{"org": orgID},
	})
}

// AddOrgHook adds a webhook triggered by the events of all projects of the org.
func (c *Client) AddOrgHook(ctx context.Context, orgID string, h app.UcbHook) (app.UcbResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, orgPath(orgID)+"/hooks", h, nil)
	return resp, errors.WrapContext(err, errors.Context{
		Path:   "ucb.Client.AddOrgHook",
		Params: errors.Params{"org": orgID},
	})
}

// do sends the request. Non-2xx responses are not errors: the status and the UCB message are returned to the caller.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (app.UcbResponse, error) {
	var resp app.UcbResponse
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return resp, errors.WrapContext(err, errors.Context{Path: "ucb.Client.do.Marshal"})
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return resp, errors.WrapContext(err, errors.Context{Path: "ucb.Client.do.NewRequest"})
	}
	req.Header.Set("Authorization", "Basic "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	log.Printf("Call %s %s\n", method, path)
	res, err := c.httpClient.Do(req)
	if err != nil {
		return resp, errors.WrapContext(err, errors.Context{
			Path:   "ucb.Client.do.Do",
			Params: errors.Params{"method": method, "path": path},
		})
	}
	defer res.Body.Close()
	resp.StatusCode = res.StatusCode
	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return resp, errors.WrapContext(err, errors.Context{Path: "ucb.Client.do.ReadAll"})
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		resp.Message = errorMessage(data)
		return resp, nil
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return resp, nil
	}
	err = json.Unmarshal(data, out)
	return resp, errors.WrapContext(err, errors.Context{
		Path:   "ucb.Client.do.Unmarshal",
		Params: errors.Params{"method": method, "path": path},
	})
}

func errorMessage(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}

func orgPath(orgID string) string {
	return "/orgs/" + url.PathEscape(orgID)
}

func projectPath(orgID, projectID string) string {
	return orgPath(orgID) + "/projects/" + url.PathEscape(projectID)
}

func buildTargetsPath(orgID, projectID string) string {
	return projectPath(orgID, projectID) + "/buildtargets"
}

func buildTargetPath(orgID, projectID, buildTargetID string) string {
	return buildTargetsPath(orgID, projectID) + "/" + url.PathEscape(buildTargetID)
}

func buildsPath(orgID, projectID, buildTargetID string) string {
	return buildTargetPath(orgID, projectID, buildTargetID) + "/builds"
}
