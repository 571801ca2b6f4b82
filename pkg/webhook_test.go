package pkg

import (
	"errors"
	"testing"
)

func TestParseUcbWebhook(t *testing.T) {
	body := []byte(`{
		"projectName": "game",
		"buildTargetName": "master-webgl",
		"buildNumber": 12,
		"buildStatus": "success",
		"links": {
			"api_self": {
				"method": "get",
				"href": "/api/orgs/acme/projects/p-1/buildtargets/master-webgl/builds/12"
			}
		}
	}`)
	got, err := ParseUcbWebhook(body)
	if err != nil {
		t.Fatalf("ParseUcbWebhook: %v", err)
	}
	want := UcbBuildReport{
		OrgID:         "acme",
		ProjectID:     "p-1",
		BuildTargetID: "master-webgl",
		BuildNumber:   12,
		BuildStatus:   "success",
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParseUcbWebhookMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":     `{`,
		"no link":      `{"buildStatus":"success"}`,
		"short link":   `{"buildStatus":"success","links":{"api_self":{"href":"/api/orgs/acme/projects/p"}}}`,
		"wrong names":  `{"buildStatus":"success","links":{"api_self":{"href":"/orgs/a/apps/p/buildtargets/b/builds/1"}}}`,
		"bad number":   `{"buildStatus":"success","links":{"api_self":{"href":"/orgs/a/projects/p/buildtargets/b/builds/x"}}}`,
		"no status":    `{"links":{"api_self":{"href":"/orgs/a/projects/p/buildtargets/b/builds/1"}}}`,
		"empty org id": `{"buildStatus":"success","links":{"api_self":{"href":"/orgs//projects/p/buildtargets/b/builds/1"}}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseUcbWebhook([]byte(body))
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("got %v, want ErrMalformedPayload", err)
			}
		})
	}
}

func TestParseBuildLink(t *testing.T) {
	got, err := ParseBuildLink("https://build-api.cloud.unity3d.com/api/v1/orgs/acme/projects/p/buildtargets/feature%2Fx-ios/builds/3")
	if err != nil {
		t.Fatalf("ParseBuildLink: %v", err)
	}
	if got.BuildTargetID != "feature/x-ios" || got.BuildNumber != 3 || got.OrgID != "acme" || got.ProjectID != "p" {
		t.Errorf("got %+v", got)
	}
}

func TestVerifySignature(t *testing.T) {
	secret := []byte("s3cr3t")
	body := []byte(`{"buildStatus":"success"}`)
	sig := SignPayload(secret, body)

	if err := VerifySignature(secret, body, sig); err != nil {
		t.Errorf("valid signature: %v", err)
	}
	if err := VerifySignature(secret, body, "sha256="+sig); err != nil {
		t.Errorf("prefixed signature: %v", err)
	}
	if err := VerifySignature(secret, []byte(`{}`), sig); !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("tampered body: got %v", err)
	}
	if err := VerifySignature(secret, body, ""); !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("missing signature: got %v", err)
	}
	if err := VerifySignature(secret, body, "zz"); !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("bad hex: got %v", err)
	}
	if err := VerifySignature(nil, body, sig); !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("empty secret: got %v", err)
	}
}
