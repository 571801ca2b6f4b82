package app

import "testing"

func TestBuildTargetID(t *testing.T) {
	if got := BuildTargetID("master", "webgl"); got != "master-webgl" {
		t.Errorf("got %s", got)
	}
	if BuildTargetID("feature/x", "ios") != BuildTargetID("feature/x", "ios") {
		t.Error("the identity is not deterministic")
	}
}

func TestParseBuildStatus(t *testing.T) {
	tests := map[string]BuildStatus{
		"queued":        BuildStatusQueued,
		"sentToBuilder": BuildStatusSentToBuilder,
		"started":       BuildStatusStarted,
		"restarted":     BuildStatusRestarted,
		"success":       BuildStatusSuccess,
		"failure":       BuildStatusFailure,
		"canceled":      BuildStatusCanceled,
		"":              BuildStatusUnknown,
		"exploded":      BuildStatusUnknown,
	}
	for in, want := range tests {
		if got := ParseBuildStatus(in); got != want {
			t.Errorf("ParseBuildStatus(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestBuildStatusIsTerminal(t *testing.T) {
	for _, s := range []BuildStatus{BuildStatusQueued, BuildStatusSentToBuilder, BuildStatusStarted, BuildStatusRestarted} {
		if s.IsTerminal() {
			t.Errorf("%s is terminal", s)
		}
	}
	for _, s := range []BuildStatus{BuildStatusSuccess, BuildStatusFailure, BuildStatusCanceled, BuildStatusUnknown} {
		if !s.IsTerminal() {
			t.Errorf("%s is not terminal", s)
		}
	}
}

func TestCorrelationKeyHash(t *testing.T) {
	k := CorrelationKey{OrgID: "acme", ProjectID: "p", BuildTargetID: "master-ios"}
	if k.Hash() != (CorrelationKey{OrgID: "acme", ProjectID: "p", BuildTargetID: "master-ios"}).Hash() {
		t.Error("the hash is not stable")
	}
	others := []CorrelationKey{
		{OrgID: "acme2", ProjectID: "p", BuildTargetID: "master-ios"},
		{OrgID: "acme", ProjectID: "p2", BuildTargetID: "master-ios"},
		{OrgID: "acme", ProjectID: "p", BuildTargetID: "master-webgl"},
	}
	for _, o := range others {
		if o.Hash() == k.Hash() {
			t.Errorf("%+v has the same hash as %+v", o, k)
		}
	}
	if len(k.Hash()) != 64 {
		t.Errorf("hash length = %d", len(k.Hash()))
	}
	r := BuildResult{OrgID: "acme", ProjectID: "p", BuildTargetID: "master-ios", BuildNumber: 1}
	if r.Key() != k {
		t.Errorf("Key() = %+v", r.Key())
	}
}
