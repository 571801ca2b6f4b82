package postgres_test

import (
	"context"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/correlationtest"
	"github.com/karasusan/UnityCI/internal/app/postgres"
	"os"
	"testing"
)

func TestCorrelation(t *testing.T) {
	dsn := os.Getenv("UNITYCI_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("UNITYCI_TEST_DB_DSN is not set")
	}
	correlationtest.Run(t, func(t *testing.T) app.CorrelationRepo {
		ctx := context.Background()
		conn, err := pgxpool.Connect(ctx, dsn)
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		t.Cleanup(conn.Close)
		repo := postgres.NewCorrelation(conn)
		if err := repo.Migrate(ctx); err != nil {
			t.Fatalf("Migrate: %v", err)
		}
		if _, err := conn.Exec(ctx, `TRUNCATE "correlations"`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return repo
	})
}
