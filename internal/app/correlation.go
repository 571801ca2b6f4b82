package app

import (
	"context"
	"encoding/hex"
	"github.com/zeebo/blake3"
	"time"
)

// CorrelationTTL is a data type for storing how long a build may stay unreported, used for DI.
type CorrelationTTL time.Duration

// StoreKind is a data type for storing the selected correlation store, used for DI.
type StoreKind string

const (
	// StoreMemory keeps correlations in the process memory.
	StoreMemory StoreKind = "memory"
	// StorePostgres keeps correlations in PostgreSQL.
	StorePostgres StoreKind = "postgres"
	// StoreRedis keeps correlations in Redis.
	StoreRedis StoreKind = "redis"
)

// CorrelationKey identifies the build target whose builds are reported by the UCB webhook.
type CorrelationKey struct {
	OrgID         string `json:"orgId"`
	ProjectID     string `json:"projectId"`
	BuildTargetID string `json:"buildTargetId"`
}

// Hash returns the stable hash of the key.
func (k CorrelationKey) Hash() string {
	sum := blake3.Sum256([]byte(k.OrgID + "/" + k.ProjectID + "/" + k.BuildTargetID))
	return hex.EncodeToString(sum[:])
}

// EventContext contains the GitHub event data needed to update the check run later.
type EventContext struct {
	Repo        RepoRef   `json:"repo"`
	HeadRef     string    `json:"headRef"`
	HeadSHA     string    `json:"headSha"`
	CheckRunID  int64     `json:"checkRunId"`
	CheckName   string    `json:"checkName"`
	BuildNumber int       `json:"buildNumber"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Correlation is a stored pair of the key and the event context.
type Correlation struct {
	Key     CorrelationKey `json:"key"`
	Context EventContext   `json:"context"`
}

// CorrelationRepo describes interactions with the correlation store.
type CorrelationRepo interface {
	Save(ctx context.Context, c Correlation) error
	Find(ctx context.Context, k CorrelationKey) (Correlation, error)
	Delete(ctx context.Context, k CorrelationKey) error
	FindOlderThan(ctx context.Context, t time.Time) ([]Correlation, error)
}
