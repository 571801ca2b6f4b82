package pkg

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	// ErrMalformedPayload is returned when the UCB webhook payload can't be parsed.
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrSignatureMismatch is returned when the UCB webhook signature is missing or invalid.
	ErrSignatureMismatch = errors.New("webhook signature mismatch")
)

// UcbWebhookLink contains a single link of the UCB webhook payload.
type UcbWebhookLink struct {
	Method string `json:"method"`
	Href   string `json:"href"`
}

// UcbWebhookLinks contains the links of the UCB webhook payload.
type UcbWebhookLinks struct {
	APISelf UcbWebhookLink `json:"api_self"`
}

// UcbWebhookPayload contains the part of the UCB webhook payload the app uses.
type UcbWebhookPayload struct {
	ProjectName     string          `json:"projectName"`
	BuildTargetName string          `json:"buildTargetName"`
	BuildNumber     int             `json:"buildNumber"`
	BuildStatus     string          `json:"buildStatus"`
	Platform        string          `json:"platform"`
	Links           UcbWebhookLinks `json:"links"`
}

// UcbBuildReport contains the identity and the status of the build reported by UCB.
type UcbBuildReport struct {
	OrgID         string
	ProjectID     string
	BuildTargetID string
	BuildNumber   int
	BuildStatus   string
}

// ParseUcbWebhook decodes the UCB webhook payload.
// The identity of the build is taken from the self link of the form
// .../orgs/{orgId}/projects/{projectId}/buildtargets/{buildTargetId}/builds/{buildNumber}.
func ParseUcbWebhook(body []byte) (UcbBuildReport, error) {
	var p UcbWebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return UcbBuildReport{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	r, err := ParseBuildLink(p.Links.APISelf.Href)
	if err != nil {
		return r, err
	}
	if p.BuildStatus == "" {
		return r, fmt.Errorf("%w: buildStatus is empty", ErrMalformedPayload)
	}
	r.BuildStatus = p.BuildStatus
	return r, nil
}

// ParseBuildLink extracts the build identity from the UCB build link.
func ParseBuildLink(href string) (UcbBuildReport, error) {
	var r UcbBuildReport
	u, err := url.Parse(href)
	if err != nil {
		return r, fmt.Errorf("%w: invalid link %q: %v", ErrMalformedPayload, href, err)
	}
	segs := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	i := 0
	for i < len(segs) && segs[i] != "orgs" {
		i++
	}
	segs = segs[i:]
	if len(segs) < 8 || segs[2] != "projects" || segs[4] != "buildtargets" || segs[6] != "builds" {
		return r, fmt.Errorf("%w: unexpected link %q", ErrMalformedPayload, href)
	}
	ids := make([]string, 0, 4)
	for _, s := range []string{segs[1], segs[3], segs[5], segs[7]} {
		v, err := url.PathUnescape(s)
		if err != nil || v == "" {
			return r, fmt.Errorf("%w: unexpected link %q", ErrMalformedPayload, href)
		}
		ids = append(ids, v)
	}
	n, err := strconv.Atoi(ids[3])
	if err != nil {
		return r, fmt.Errorf("%w: invalid build number %q", ErrMalformedPayload, ids[3])
	}
	r.OrgID, r.ProjectID, r.BuildTargetID, r.BuildNumber = ids[0], ids[1], ids[2], n
	return r, nil
}

// SignPayload returns the hex encoded HMAC-SHA256 of the body.
func SignPayload(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the hex encoded HMAC-SHA256 signature of the body.
// The "sha256=" prefix of the signature is optional.
func VerifySignature(secret, body []byte, signature string) error {
	if len(secret) == 0 || signature == "" {
		return ErrSignatureMismatch
	}
	got, err := hex.DecodeString(strings.TrimPrefix(signature, "sha256="))
	if err != nil {
		return fmt.Errorf("%w: invalid hex: %v", ErrSignatureMismatch, err)
	}
	want, _ := hex.DecodeString(SignPayload(secret, body))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}
