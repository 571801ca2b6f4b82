package app

import "context"

// DefaultUcbURL is the base path of the Unity Cloud Build REST API.
const DefaultUcbURL = "https://build-api.cloud.unity3d.com/api/v1"

// DefaultUnityVersion is used when the configuration doesn't pin the Unity version.
const DefaultUnityVersion = "latest"

// Platforms lists the build target platforms supported by UCB.
var Platforms = []string{
	"ios",
	"android",
	"webplayer",
	"webgl",
	"standaloneosxintel",
	"standaloneosxintel64",
	"standaloneosxuniversal",
	"standalonewindows",
	"standalonewindows64",
	"standalonelinux",
	"standalonelinux64",
	"standalonelinuxuniversal",
}

// ConfigPath is a data type for storing the path of the configuration file inside the repository, used for DI.
type ConfigPath string

// WebhookURL is a data type for storing the callback URL registered in UCB, used for DI.
type WebhookURL string

// WebhookSecret is a data type for storing the secret of the UCB webhook, used for DI.
type WebhookSecret string

// UcbVerifySignature is a data type for storing whether the UCB webhook signature is required, used for DI.
type UcbVerifySignature bool

// BuildMatrixConfig is a model that represents the repository CI configuration.
type BuildMatrixConfig struct {
	URL          string        `yaml:"url"`
	OrgID        string        `yaml:"orgid"`
	ProjectID    string        `yaml:"projectid"`
	APIKey       string        `yaml:"apikey"`
	UnityVersion string        `yaml:"unityversion"`
	Clean        bool          `yaml:"clean"`
	Matrix       []MatrixEntry `yaml:"matrix"`
}

// MatrixEntry is one platform of the build matrix.
type MatrixEntry struct {
	Name     string `yaml:"name"`
	Platform string `yaml:"platform"`
}

// ConfigSvc describes the service that loads the repository CI configuration.
type ConfigSvc interface {
	Load(ctx context.Context, repo RepoRef, ref string) (BuildMatrixConfig, error)
	Parse(data []byte) (BuildMatrixConfig, error)
}
