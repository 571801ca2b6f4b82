package http

import (
	"fmt"
	"github.com/beldeveloper/go-errors-context"
	"github.com/google/go-github/v66/github"
	"github.com/julienschmidt/httprouter"
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/errtype"
	"github.com/karasusan/UnityCI/internal/app/gh"
	"github.com/karasusan/UnityCI/pkg"
	"io"
	"log"
	"net/http"
)

const (
	// UcbEventHeader is the header UCB sets on every webhook request.
	UcbEventHeader = "X-Unity-Event"
	// UcbSignatureHeader is the header carrying the HMAC-SHA256 signature of the UCB webhook body.
	UcbSignatureHeader = "X-UnityCloudBuild-Signature"
	maxBodySize        = 1 << 20
)

// NewHandler creates a new instance of the webhook handler.
func NewHandler(
	eventSvc app.EventSvc,
	githubSecret app.GithubWebhookSecret,
	ucbSecret app.WebhookSecret,
	verifyUcb app.UcbVerifySignature,
) Handler {
	return Handler{
		eventSvc:     eventSvc,
		githubSecret: []byte(githubSecret),
		ucbSecret:    []byte(ucbSecret),
		verifyUcb:    bool(verifyUcb),
	}
}

// Handler handles the webhooks sent by GitHub and Unity Cloud Build.
type Handler struct {
	eventSvc     app.EventSvc
	githubSecret []byte
	ucbSecret    []byte
	verifyUcb    bool
}

// GithubWebhook dispatches the GitHub App webhook events.
func (h Handler) GithubWebhook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	payload, err := github.ValidatePayload(r, h.githubSecret)
	if err != nil {
		apiError(w, errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrUnauthorized, err), errors.Context{
			Path: "http.Handler.GithubWebhook.ValidatePayload",
		}))
		return
	}
	eventType := github.WebHookType(r)
	if eventType != "pull_request" && eventType != "check_run" {
		log.Printf("The GitHub event %q is ignored\n", eventType)
		apiSuccess(w, nil)
		return
	}
	event, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		apiError(w, errors.WrapContext(fmt.Errorf("%w: %v", errtype.ErrBadInput, err), errors.Context{
			Path:   "http.Handler.GithubWebhook.ParseWebHook",
			Params: errors.Params{"event": eventType},
		}))
		return
	}
	switch e := event.(type) {
	case *github.PullRequestEvent:
		err = h.eventSvc.PullRequestOpened(r.Context(), gh.PullRequestEvent(e))
	case *github.CheckRunEvent:
		if e.GetAction() == "rerequested" {
			err = h.eventSvc.CheckRunRerequested(r.Context(), gh.CheckRunEvent(e))
		}
	}
	if err != nil {
		apiError(w, err)
		return
	}
	apiSuccess(w, nil)
}

// UcbWebhook reports the build status sent by Unity Cloud Build.
func (h Handler) UcbWebhook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if r.Header.Get(UcbEventHeader) == "" {
		apiError(w, fmt.Errorf("%w: the %s header is missing", errtype.ErrBadInput, UcbEventHeader))
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		apiError(w, fmt.Errorf("%w: can't read the body: %v", errtype.ErrBadInput, err))
		return
	}
	if h.verifyUcb {
		err = pkg.VerifySignature(h.ucbSecret, body, r.Header.Get(UcbSignatureHeader))
		if err != nil {
			apiError(w, fmt.Errorf("%w: %v", errtype.ErrUnauthorized, err))
			return
		}
	}
	rep, err := pkg.ParseUcbWebhook(body)
	if err != nil {
		apiError(w, fmt.Errorf("%w: %v", errtype.ErrBadInput, err))
		return
	}
	err = h.eventSvc.BuildStatusChanged(r.Context(), app.BuildResult{
		OrgID:         rep.OrgID,
		ProjectID:     rep.ProjectID,
		BuildTargetID: rep.BuildTargetID,
		BuildNumber:   rep.BuildNumber,
		BuildStatus:   app.ParseBuildStatus(rep.BuildStatus),
	})
	if err != nil {
		apiError(w, err)
		return
	}
	apiSuccess(w, nil)
}

// Health reports that the application is running.
func (h Handler) Health(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	apiSuccess(w, map[string]string{"status": "ok"})
}
