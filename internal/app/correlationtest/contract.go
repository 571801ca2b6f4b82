// Package correlationtest provides contract tests for [app.CorrelationRepo]
// implementations.
package correlationtest

import (
	"context"
	"errors"
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/errtype"
	"testing"
	"time"
)

// Factory creates a fresh [app.CorrelationRepo] for each test invocation.
type Factory func(t *testing.T) app.CorrelationRepo

var key = app.CorrelationKey{OrgID: "org", ProjectID: "proj", BuildTargetID: "master-webgl"}

func correlation(k app.CorrelationKey, build int, createdAt time.Time) app.Correlation {
	return app.Correlation{
		Key: k,
		Context: app.EventContext{
			Repo:        app.RepoRef{Owner: "octo", Name: "game", InstallationID: 7},
			HeadRef:     "master",
			HeadSHA:     "abc",
			CheckRunID:  42,
			CheckName:   "WebGL",
			BuildNumber: build,
			CreatedAt:   createdAt,
		},
	}
}

// Run exercises the [app.CorrelationRepo] contract.
func Run(t *testing.T, factory Factory) {
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("SaveAndFind", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		if err := repo.Save(ctx, correlation(key, 3, now)); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := repo.Find(ctx, app.CorrelationKey{OrgID: "org", ProjectID: "proj", BuildTargetID: "master-webgl"})
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if got.Key != key {
			t.Errorf("Key = %+v, want %+v", got.Key, key)
		}
		if got.Context.CheckRunID != 42 || got.Context.BuildNumber != 3 || got.Context.Repo.Owner != "octo" {
			t.Errorf("Context = %+v", got.Context)
		}
		if !got.Context.CreatedAt.Equal(now) {
			t.Errorf("CreatedAt = %v, want %v", got.Context.CreatedAt, now)
		}
	})

	t.Run("FindDifferentKey", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		if err := repo.Save(ctx, correlation(key, 1, now)); err != nil {
			t.Fatalf("Save: %v", err)
		}
		others := []app.CorrelationKey{
			{OrgID: "other", ProjectID: "proj", BuildTargetID: "master-webgl"},
			{OrgID: "org", ProjectID: "other", BuildTargetID: "master-webgl"},
			{OrgID: "org", ProjectID: "proj", BuildTargetID: "master-ios"},
		}
		for _, k := range others {
			if _, err := repo.Find(ctx, k); !errors.Is(err, errtype.ErrNotFound) {
				t.Errorf("Find(%+v): got %v, want ErrNotFound", k, err)
			}
		}
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		if err := repo.Save(ctx, correlation(key, 1, now)); err != nil {
			t.Fatalf("first Save: %v", err)
		}
		if err := repo.Save(ctx, correlation(key, 2, now)); err != nil {
			t.Fatalf("second Save: %v", err)
		}
		got, err := repo.Find(ctx, key)
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if got.Context.BuildNumber != 2 {
			t.Errorf("BuildNumber = %d, want 2", got.Context.BuildNumber)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		if err := repo.Save(ctx, correlation(key, 1, now)); err != nil {
			t.Fatal(err)
		}
		if err := repo.Delete(ctx, key); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.Find(ctx, key); !errors.Is(err, errtype.ErrNotFound) {
			t.Fatalf("Find after Delete: got %v, want ErrNotFound", err)
		}
	})

	t.Run("DeleteNotFound", func(t *testing.T) {
		repo := factory(t)
		err := repo.Delete(context.Background(), key)
		if !errors.Is(err, errtype.ErrNotFound) {
			t.Fatalf("Delete: got %v, want ErrNotFound", err)
		}
	})

	t.Run("FindOlderThan", func(t *testing.T) {
		repo := factory(t)
		ctx := context.Background()
		old := app.CorrelationKey{OrgID: "org", ProjectID: "proj", BuildTargetID: "master-ios"}
		if err := repo.Save(ctx, correlation(old, 1, now.Add(-2*time.Hour))); err != nil {
			t.Fatal(err)
		}
		if err := repo.Save(ctx, correlation(key, 1, now)); err != nil {
			t.Fatal(err)
		}
		got, err := repo.FindOlderThan(ctx, now.Add(-time.Hour))
		if err != nil {
			t.Fatalf("FindOlderThan: %v", err)
		}
		if len(got) != 1 || got[0].Key != old {
			t.Fatalf("FindOlderThan = %+v, want only %+v", got, old)
		}
	})
}
