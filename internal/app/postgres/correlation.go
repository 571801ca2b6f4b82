package postgres

import (
	"context"
	"github.com/beldeveloper/go-errors-context"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/errtype"
	"time"
)

// CorrelationSchema creates the table of the correlation store.
const CorrelationSchema = `CREATE TABLE IF NOT EXISTS "correlations" (
	"hash" TEXT PRIMARY KEY,
	"org_id" TEXT NOT NULL,
	"project_id" TEXT NOT NULL,
	"build_target_id" TEXT NOT NULL,
	"context" JSONB NOT NULL,
	"created_at" TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS "correlations_created_at_idx" ON "correlations" ("created_at")`

// NewCorrelation creates a new instance of the repository.
func NewCorrelation(conn *pgxpool.Pool) *Correlation {
	return &Correlation{conn: conn}
}

// Correlation implements a correlation repository.
type Correlation struct {
	conn *pgxpool.Pool
}

// Migrate creates the table if it doesn't exist.
func (r *Correlation) Migrate(ctx context.Context) error {
	_, err := r.conn.Exec(ctx, CorrelationSchema)
	return errors.WrapContext(err, errors.Context{Path: "postgres.Correlation.Migrate.Exec"})
}

// Save inserts the correlation or replaces the existing one with the same key.
func (r *Correlation) Save(ctx context.Context, c app.Correlation) error {
	q := `INSERT INTO "correlations" ("hash", "org_id", "project_id", "build_target_id", "context", "created_at")
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ("hash") DO UPDATE SET "context" = EXCLUDED."context", "created_at" = EXCLUDED."created_at"`
	_, err := r.conn.Exec(ctx, q, c.Key.Hash(), c.Key.OrgID, c.Key.ProjectID, c.Key.BuildTargetID,
		c.Context, c.Context.CreatedAt)
	return errors.WrapContext(err, errors.Context{
		Path:   "postgres.Correlation.Save.Exec",
		Params: errors.Params{"buildTarget": c.Key.BuildTargetID},
	})
}

// Find returns the correlation by its key.
func (r *Correlation) Find(ctx context.Context, k app.CorrelationKey) (app.Correlation, error) {
	var c app.Correlation
	q := `SELECT "org_id", "project_id", "build_target_id", "context" FROM "correlations" WHERE "hash" = $1`
	err := r.conn.QueryRow(ctx, q, k.Hash()).Scan(&c.Key.OrgID, &c.Key.ProjectID, &c.Key.BuildTargetID, &c.Context)
	if err == pgx.ErrNoRows {
		err = errtype.ErrNotFound
	}
	return c, errors.WrapContext(err, errors.Context{
		Path:   "postgres.Correlation.Find.Scan",
		Params: errors.Params{"buildTarget": k.BuildTargetID},
	})
}

// Delete removes the correlation.
func (r *Correlation) Delete(ctx context.Context, k app.CorrelationKey) error {
	q := `DELETE FROM "correlations" WHERE "hash" = $1`
	tag, err := r.conn.Exec(ctx, q, k.Hash())
	if err == nil && tag.RowsAffected() == 0 {
		err = errtype.ErrNotFound
	}
	return errors.WrapContext(err, errors.Context{
		Path:   "postgres.Correlation.Delete.Exec",
		Params: errors.Params{"buildTarget": k.BuildTargetID},
	})
}

// FindOlderThan returns the correlations created before t, oldest first.
func (r *Correlation) FindOlderThan(ctx context.Context, t time.Time) ([]app.Correlation, error) {
	q := `SELECT "org_id", "project_id", "build_target_id", "context" FROM "correlations"
		WHERE "created_at" < $1 ORDER BY "created_at"`
	rows, err := r.conn.Query(ctx, q, t)
	if err != nil {
		return nil, errors.WrapContext(err, errors.Context{Path: "postgres.Correlation.FindOlderThan.Query"})
	}
	defer rows.Close()
	res := make([]app.Correlation, 0)
	for rows.Next() {
		var c app.Correlation
		err = rows.Scan(&c.Key.OrgID, &c.Key.ProjectID, &c.Key.BuildTargetID, &c.Context)
		if err != nil {
			return nil, errors.WrapContext(err, errors.Context{Path: "postgres.Correlation.FindOlderThan.Scan"})
		}
		res = append(res, c)
	}
	return res, errors.WrapContext(rows.Err(), errors.Context{Path: "postgres.Correlation.FindOlderThan.Err"})
}
