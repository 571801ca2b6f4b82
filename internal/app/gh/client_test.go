package gh

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/google/go-github/v66/github"
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/errtype"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

var testRepo = app.RepoRef{Owner: "octo", Name: "game"}

func newTestGithub(t *testing.T, mux *http.ServeMux) app.GithubSvc {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := github.NewClient(srv.Client())
	u, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	c.BaseURL = u
	return NewGithub(c)
}

func TestCreateCheckRun(t *testing.T) {
	mux := http.NewServeMux()
	var body map[string]interface{}
	mux.HandleFunc("/repos/octo/game/check-runs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&body)
		fmt.Fprint(w, `{"id":42,"name":"WebGL","external_id":"master-webgl","status":"queued"}`)
	})
	svc := newTestGithub(t, mux)
	cr, err := svc.CreateCheckRun(context.Background(), testRepo, app.CheckRunOptions{
		Name:       "WebGL",
		HeadSHA:    "abc",
		ExternalID: "master-webgl",
		Status:     app.CheckStatusQueued,
	})
	if err != nil {
		t.Fatalf("CreateCheckRun: %v", err)
	}
	if cr.ID != 42 || cr.ExternalID != "master-webgl" {
		t.Errorf("check run = %+v", cr)
	}
	if body["head_sha"] != "abc" || body["external_id"] != "master-webgl" || body["status"] != "queued" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["conclusion"]; ok {
		t.Errorf("conclusion must be omitted: %v", body)
	}
	if _, ok := body["output"]; ok {
		t.Errorf("output must be omitted: %v", body)
	}
}

func TestUpdateCheckRunCompleted(t *testing.T) {
	mux := http.NewServeMux()
	var body map[string]interface{}
	mux.HandleFunc("/repos/octo/game/check-runs/42", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&body)
		fmt.Fprint(w, `{"id":42}`)
	})
	svc := newTestGithub(t, mux)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := svc.UpdateCheckRun(context.Background(), testRepo, 42, app.CheckRunOptions{
		Name:        "WebGL",
		Status:      app.CheckStatusCompleted,
		Conclusion:  app.ConclusionSuccess,
		Title:       "Build succeeded",
		Summary:     "done",
		CompletedAt: &now,
	})
	if err != nil {
		t.Fatalf("UpdateCheckRun: %v", err)
	}
	if body["conclusion"] != "success" || body["completed_at"] != "2026-01-02T03:04:05Z" {
		t.Errorf("body = %v", body)
	}
	out, _ := body["output"].(map[string]interface{})
	if out["title"] != "Build succeeded" || out["summary"] != "done" {
		t.Errorf("output = %v", out)
	}
}

func TestListCheckRunsForRefFollowsPages(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/repos/octo/game/commits/abc/check-runs", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"total_count":2,"check_runs":[{"id":2,"external_id":"master-ios"}]}`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octo/game/commits/abc/check-runs?page=2>; rel="next"`, srvURL))
		fmt.Fprint(w, `{"total_count":2,"check_runs":[{"id":1,"external_id":"master-webgl"}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL
	c := github.NewClient(srv.Client())
	c.BaseURL, _ = url.Parse(srv.URL + "/")
	res, err := NewGithub(c).ListCheckRunsForRef(context.Background(), testRepo, "abc")
	if err != nil {
		t.Fatalf("ListCheckRunsForRef: %v", err)
	}
	if len(res) != 2 || res[0].ExternalID != "master-webgl" || res[1].ExternalID != "master-ios" {
		t.Errorf("check runs = %+v", res)
	}
}

func TestGetContent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/game/contents/.github/unityci.yml", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ref") != "feature" {
			t.Errorf("ref = %q", r.URL.Query().Get("ref"))
		}
		fmt.Fprintf(w, `{"type":"file","encoding":"base64","content":%q}`,
			base64.StdEncoding.EncodeToString([]byte("orgid: org\n")))
	})
	svc := newTestGithub(t, mux)
	data, err := svc.GetContent(context.Background(), testRepo, ".github/unityci.yml", "feature")
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if string(data) != "orgid: org\n" {
		t.Errorf("content = %q", data)
	}
}

func TestGetContentNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/game/contents/.github/unityci.yml", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	svc := newTestGithub(t, mux)
	_, err := svc.GetContent(context.Background(), testRepo, ".github/unityci.yml", "master")
	if !errors.Is(err, errtype.ErrNotFound) {
		t.Fatalf("GetContent: got %v, want ErrNotFound", err)
	}
}

func TestPullRequestEvent(t *testing.T) {
	payload := []byte(`{
		"action": "opened",
		"number": 5,
		"pull_request": {"head": {"ref": "feature/x", "sha": "abc"}},
		"repository": {"name": "game", "owner": {"login": "octo"}},
		"installation": {"id": 9}
	}`)
	parsed, err := github.ParseWebHook("pull_request", payload)
	if err != nil {
		t.Fatalf("ParseWebHook: %v", err)
	}
	e := PullRequestEvent(parsed.(*github.PullRequestEvent))
	want := app.PullRequestEvent{
		Action:  "opened",
		Number:  5,
		Repo:    app.RepoRef{Owner: "octo", Name: "game", InstallationID: 9},
		HeadRef: "feature/x",
		HeadSHA: "abc",
	}
	if e != want {
		t.Errorf("event = %+v, want %+v", e, want)
	}
}

func TestCheckRunEvent(t *testing.T) {
	payload := []byte(`{
		"action": "rerequested",
		"check_run": {"id": 3, "external_id": "master-webgl", "head_sha": "abc"},
		"repository": {"name": "game", "owner": {"login": "octo"}}
	}`)
	parsed, err := github.ParseWebHook("check_run", payload)
	if err != nil {
		t.Fatalf("ParseWebHook: %v", err)
	}
	e := CheckRunEvent(parsed.(*github.CheckRunEvent))
	if e.Action != "rerequested" || e.CheckRunID != 3 || e.ExternalID != "master-webgl" || e.Repo.Owner != "octo" {
		t.Errorf("event = %+v", e)
	}
}
