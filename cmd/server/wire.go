//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/gh"
	"github.com/karasusan/UnityCI/internal/app/http"
	"github.com/karasusan/UnityCI/internal/app/svc"
	"github.com/karasusan/UnityCI/internal/app/ucb"
)

func initializeContainer(lifetime app.LifetimeCtx) (container, error) {
	wire.Build(
		gh.NewClient,
		gh.NewGithub,
		ucb.NewFactory,
		svc.NewConfig,
		svc.NewBuild,
		svc.NewEvent,
		http.NewHandler,
		http.NewRouter,
		newContainer,
		newWatcher,
		newCorrelationRepo,
		newHttpClient,
		githubToken,
		githubAPIURL,
		githubWebhookSecret,
		configPath,
		webhookURL,
		webhookSecret,
		verifyUcbSignature,
		buildMode,
		pollInterval,
		correlationTTL,
		storeKind,
	)
	return container{}, nil
}
