package svc

import (
	"bytes"
	"context"
	"fmt"
	"github.com/beldeveloper/go-errors-context"
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/errtype"
	"gopkg.in/yaml.v3"
	"strings"
)

// DefaultConfigPath is the location of the CI configuration inside the repository.
const DefaultConfigPath = ".github/unityci.yml"

// NewConfig creates a new instance of the repository configuration service.
func NewConfig(githubSvc app.GithubSvc, path app.ConfigPath) app.ConfigSvc {
	if path == "" {
		path = DefaultConfigPath
	}
	return Config{githubSvc: githubSvc, path: string(path)}
}

// Config is a service that loads the CI configuration committed to the repository.
type Config struct {
	githubSvc app.GithubSvc
	path      string
}

// Load fetches the configuration at the ref and validates it.
func (s Config) Load(ctx context.Context, repo app.RepoRef, ref string) (app.BuildMatrixConfig, error) {
	data, err := s.githubSvc.GetContent(ctx, repo, s.path, ref)
	if err != nil {
		if errors.Is(err, errtype.ErrNotFound) {
			err = errtype.ErrConfigNotFound
		}
		return app.BuildMatrixConfig{}, errors.WrapContext(err, errors.Context{
			Path:   "svc.Config.Load.GetContent",
			Params: errors.Params{"repo": repo.Owner + "/" + repo.Name, "ref": ref, "path": s.path},
		})
	}
	cfg, err := s.Parse(data)
	return cfg, errors.WrapContext(err, errors.Context{
		Path:   "svc.Config.Load.Parse",
		Params: errors.Params{"repo": repo.Owner + "/" + repo.Name, "ref": ref},
	})
}

// Parse decodes the YAML configuration, applies the defaults and validates it.
func (s Config) Parse(data []byte) (app.BuildMatrixConfig, error) {
	var cfg app.BuildMatrixConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: invalid YAML: %v", errtype.ErrBadInput, err)
	}
	if cfg.URL == "" {
		cfg.URL = app.DefaultUcbURL
	}
	if cfg.UnityVersion == "" {
		cfg.UnityVersion = app.DefaultUnityVersion
	}
	return cfg, validateConfig(cfg)
}

func validateConfig(cfg app.BuildMatrixConfig) error {
	if strings.TrimSpace(cfg.OrgID) == "" {
		return fmt.Errorf("%w: orgid must not be empty", errtype.ErrBadInput)
	}
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return fmt.Errorf("%w: projectid must not be empty", errtype.ErrBadInput)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return fmt.Errorf("%w: apikey must not be empty", errtype.ErrBadInput)
	}
	if len(cfg.Matrix) == 0 {
		return fmt.Errorf("%w: matrix must contain at least one entry", errtype.ErrBadInput)
	}
	names := make(map[string]bool, len(cfg.Matrix))
	for i, e := range cfg.Matrix {
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("%w: matrix[%d]: name must not be empty", errtype.ErrBadInput, i)
		}
		if names[e.Name] {
			return fmt.Errorf("%w: matrix[%d]: duplicated name %q", errtype.ErrBadInput, i, e.Name)
		}
		names[e.Name] = true
		if !isPlatform(e.Platform) {
			return fmt.Errorf("%w: matrix[%d]: platform %q is invalid; allowed values: %s",
				errtype.ErrBadInput, i, e.Platform, strings.Join(app.Platforms, ", "))
		}
	}
	return nil
}

func isPlatform(p string) bool {
	for _, v := range app.Platforms {
		if v == p {
			return true
		}
	}
	return false
}
