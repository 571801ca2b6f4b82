package app

import "context"

// UcbAPIKey is a data type for storing the UCB API key, used for DI.
type UcbAPIKey string

// UcbResponse contains the outcome of a single UCB request.
type UcbResponse struct {
	StatusCode int
	// Message is the "error" field UCB returns on failed requests.
	Message string
}

// UcbBuildTarget is a model that represents the UCB build target.
type UcbBuildTarget struct {
	BuildTargetID string              `json:"buildtargetid"`
	Name          string              `json:"name"`
	Platform      string              `json:"platform"`
	Enabled       bool                `json:"enabled"`
	Settings      UcbBuildTargetSetup `json:"settings"`
}

// UcbBuildTargetSetup contains the settings of the build target.
type UcbBuildTargetSetup struct {
	AutoBuild    bool   `json:"autoBuild"`
	UnityVersion string `json:"unityVersion,omitempty"`
	Scm          UcbScm `json:"scm"`
}

// UcbScm describes which source the build target is built from.
type UcbScm struct {
	Type   string `json:"type"`
	Branch string `json:"branch"`
}

// UcbBuildTargetOptions contains the options for the build target create/update.
type UcbBuildTargetOptions struct {
	Name     string              `json:"name"`
	Platform string              `json:"platform"`
	Enabled  bool                `json:"enabled"`
	Settings UcbBuildTargetSetup `json:"settings"`
}

// UcbStartBuildOptions contains the options for the build start.
type UcbStartBuildOptions struct {
	Clean  bool   `json:"clean"`
	Delay  int    `json:"delay"`
	Commit string `json:"commit,omitempty"`
}

// UcbBuild is a model that represents the UCB build.
type UcbBuild struct {
	Build         int    `json:"build"`
	BuildTargetID string `json:"buildtargetid"`
	BuildStatus   string `json:"buildStatus"`
	Platform      string `json:"platform"`
	Error         string `json:"error,omitempty"`
}

// UcbHook is a model that represents the UCB project or org webhook.
type UcbHook struct {
	ID       string        `json:"id,omitempty"`
	HookType string        `json:"hookType"`
	Events   []string      `json:"events"`
	Config   UcbHookConfig `json:"config"`
	Active   bool          `json:"active"`
}

// UcbHookConfig contains the delivery settings of the webhook.
type UcbHookConfig struct {
	URL       string `json:"url"`
	Encoding  string `json:"encoding"`
	SslVerify bool   `json:"sslVerify"`
	Secret    string `json:"secret,omitempty"`
}

// UcbClient describes the interactions with the Unity Cloud Build REST API.
type UcbClient interface {
	ListBuildTargets(ctx context.Context, orgID, projectID string) ([]UcbBuildTarget, UcbResponse, error)
	AddBuildTarget(ctx context.Context, orgID, projectID string, opts UcbBuildTargetOptions) (UcbResponse, error)
	UpdateBuildTarget(ctx context.Context, orgID, projectID, buildTargetID string, opts UcbBuildTargetOptions) (UcbResponse, error)
	DeleteBuildTarget(ctx context.Context, orgID, projectID, buildTargetID string) (UcbResponse, error)
	StartBuilds(ctx context.Context, orgID, projectID, buildTargetID string, opts UcbStartBuildOptions) ([]UcbBuild, UcbResponse, error)
	CancelBuilds(ctx context.Context, orgID, projectID, buildTargetID string) (UcbResponse, error)
	GetBuild(ctx context.Context, orgID, projectID, buildTargetID string, number int) (UcbBuild, UcbResponse, error)
	ListProjectHooks(ctx context.Context, orgID, projectID string) ([]UcbHook, UcbResponse, error)
	AddProjectHook(ctx context.Context, orgID, projectID string, h UcbHook) (UcbResponse, error)
	ListOrgHooks(ctx context.Context, orgID string) ([]UcbHook, UcbResponse, error)
	AddOrgHook(ctx context.Context, orgID string, h UcbHook) (UcbResponse, error)
}

// UcbFactory creates a UCB client for the base URL and API key taken from the repository configuration.
type UcbFactory func(baseURL string, apiKey UcbAPIKey) UcbClient
