package main

import (
	"context"
	"fmt"
	goredis "github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/julienschmidt/httprouter"
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/memory"
	"github.com/karasusan/UnityCI/internal/app/postgres"
	"github.com/karasusan/UnityCI/internal/app/redis"
	"github.com/karasusan/UnityCI/internal/app/svc"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

func main() {
	// the lifetime context stops the watcher and the background builds
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// get watcher, router and event service using DI wire
	c, err := initializeContainer(app.LifetimeCtx(ctx))
	if err != nil {
		log.Fatalf("main: %v\n", err)
	}
	if proxy := os.Getenv("UNITYCI_WEBHOOK_PROXY_URL"); proxy != "" {
		log.Printf("The webhook proxy %s is expected to forward the UCB webhooks to /webhook\n", proxy)
	}
	// run watcher that closes the stale check runs in background
	go c.watcher.Watch(ctx)
	// run http server
	runHttpServer(c.router)
	cancel()
	log.Print("Waiting for the started builds...\n")
	c.eventSvc.Drain()
}

type container struct {
	watcher  svc.Watcher
	router   *httprouter.Router
	eventSvc app.EventSvc
}

func newContainer(watcher svc.Watcher, router *httprouter.Router, eventSvc app.EventSvc) container {
	return container{
		watcher:  watcher,
		router:   router,
		eventSvc: eventSvc,
	}
}

func githubToken() app.GithubToken {
	return app.GithubToken(os.Getenv("GITHUB_TOKEN"))
}

func githubAPIURL() app.GithubAPIURL {
	return app.GithubAPIURL(os.Getenv("GITHUB_API_URL"))
}

func githubWebhookSecret() app.GithubWebhookSecret {
	return app.GithubWebhookSecret(os.Getenv("GITHUB_WEBHOOK_SECRET"))
}

func configPath() app.ConfigPath {
	return app.ConfigPath(os.Getenv("UNITYCI_CONFIG_PATH"))
}

func webhookURL() app.WebhookURL {
	return app.WebhookURL(os.Getenv("UNITYCI_WEBHOOK_URL"))
}

func webhookSecret() app.WebhookSecret {
	return app.WebhookSecret(os.Getenv("UNITYCI_WEBHOOK_SECRET"))
}

func verifyUcbSignature() app.UcbVerifySignature {
	v, _ := strconv.ParseBool(os.Getenv("UNITYCI_UCB_VERIFY_SIGNATURE"))
	return app.UcbVerifySignature(v)
}

func buildMode() app.BuildMode {
	switch m := app.BuildMode(os.Getenv("UNITYCI_BUILD_MODE")); m {
	case "", app.BuildModeWebhook:
		return app.BuildModeWebhook
	case app.BuildModePoll:
		return m
	default:
		log.Fatalf("main.buildMode: unknown build mode %q\n", m)
	}
	return ""
}

func pollInterval() app.PollInterval {
	return app.PollInterval(envDuration("UNITYCI_POLL_INTERVAL", svc.DefaultPollInterval))
}

func correlationTTL() app.CorrelationTTL {
	return app.CorrelationTTL(envDuration("UNITYCI_CORRELATION_TTL", svc.DefaultCorrelationTTL))
}

func storeKind() app.StoreKind {
	return app.StoreKind(os.Getenv("UNITYCI_STORE"))
}

func envDuration(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("main.envDuration: %v; %s = %s\n", err, name, v)
	}
	return d
}

func newHttpClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func newWatcher(event app.EventSvc) svc.Watcher {
	return svc.NewWatcher([]app.WatcherJob{
		{
			Name: "sweepCorrelations",
			Do:   event.SweepJob,
		},
	}, svc.WatchJobDelay)
}

func newCorrelationRepo(kind app.StoreKind) app.CorrelationRepo {
	switch kind {
	case "", app.StoreMemory:
		return memory.NewCorrelation()
	case app.StorePostgres:
		repo := postgres.NewCorrelation(newPostgresConn())
		if err := repo.Migrate(context.Background()); err != nil {
			log.Fatalf("main.newCorrelationRepo: %v\n", err)
		}
		return repo
	case app.StoreRedis:
		return redis.NewCorrelation(newRedisClient())
	}
	log.Fatalf("main.newCorrelationRepo: unknown store %q\n", kind)
	return nil
}

func newPostgresConn() *pgxpool.Pool {
	pgs := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("UNITYCI_DB_HOST"),
		os.Getenv("UNITYCI_DB_PORT"),
		os.Getenv("UNITYCI_DB_USER"),
		os.Getenv("UNITYCI_DB_PASSWORD"),
		os.Getenv("UNITYCI_DB_NAME"),
	)
	conn, err := pgxpool.Connect(context.Background(), pgs)
	if err != nil {
		log.Fatalf("main.newPostgresConn: %v\n", err)
	}
	return conn
}

func newRedisClient() *goredis.Client {
	db, _ := strconv.Atoi(os.Getenv("UNITYCI_REDIS_DB"))
	addr := os.Getenv("UNITYCI_REDIS_ADDR")
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: os.Getenv("UNITYCI_REDIS_PASSWORD"),
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("main.newRedisClient: ping: %v; addr=%s\n", err, addr)
	}
	return client
}

func runHttpServer(router *httprouter.Router) {
	httpPort := os.Getenv("UNITYCI_HTTP_PORT")
	if httpPort == "" {
		httpPort = "3000"
	}
	crtFile := os.Getenv("UNITYCI_HTTPS_CRT")
	keyFile := os.Getenv("UNITYCI_HTTPS_KEY")
	srv := &http.Server{
		Addr:              ":" + httpPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		var err error
		if len(crtFile) > 0 {
			err = srv.ListenAndServeTLS(crtFile, keyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("main.runHttpServer: serve http: %v; port = %s\n", err, httpPort)
		}
	}()
	log.Printf("Listening :%s for HTTP connections...\n", httpPort)
	<-done
	// the next signal terminates the process
	signal.Stop(done)
	log.Print("Stopping the application...\n")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("main.runHttpServer: server shutdown: %v\n", err)
	}
}
