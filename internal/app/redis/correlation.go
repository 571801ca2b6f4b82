package redis

import (
	"context"
	"encoding/json"
	"github.com/beldeveloper/go-errors-context"
	goredis "github.com/go-redis/redis/v8"
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/errtype"
	"log"
	"strconv"
	"time"
)

const (
	keyPrefix = "unityci:correlation:"
	byDateKey = "unityci:correlations:by_date"
)

// NewCorrelation creates a new instance of the repository.
func NewCorrelation(client *goredis.Client) *Correlation {
	return &Correlation{client: client}
}

// Correlation implements a correlation repository on top of Redis.
// The entries are indexed by the creation time in a sorted set.
type Correlation struct {
	client *goredis.Client
}

// Save stores the correlation, replacing the previous one of the same key.
func (r *Correlation) Save(ctx context.Context, c app.Correlation) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.WrapContext(err, errors.Context{Path: "redis.Correlation.Save.Marshal"})
	}
	h := c.Key.Hash()
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, keyPrefix+h, data, 0)
	pipe.ZAdd(ctx, byDateKey, &goredis.Z{
		Score:  float64(c.Context.CreatedAt.UnixMilli()),
		Member: h,
	})
	_, err = pipe.Exec(ctx)
	return errors.WrapContext(err, errors.Context{
		Path:   "redis.Correlation.Save.Exec",
		Params: errors.Params{"buildTarget": c.Key.BuildTargetID},
	})
}

// Find returns the correlation by its key.
func (r *Correlation) Find(ctx context.Context, k app.CorrelationKey) (app.Correlation, error) {
	c, err := r.get(ctx, k.Hash())
	return c, errors.WrapContext(err, errors.Context{
		Path:   "redis.Correlation.Find",
		Params: errors.Params{"buildTarget": k.BuildTargetID},
	})
}

// Delete removes the correlation.
func (r *Correlation) Delete(ctx context.Context, k app.CorrelationKey) error {
	h := k.Hash()
	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, keyPrefix+h)
	pipe.ZRem(ctx, byDateKey, h)
	_, err := pipe.Exec(ctx)
	if err == nil && del.Val() == 0 {
		err = errtype.ErrNotFound
	}
	return errors.WrapContext(err, errors.Context{
		Path:   "redis.Correlation.Delete.Exec",
		Params: errors.Params{"buildTarget": k.BuildTargetID},
	})
}

// FindOlderThan returns the correlations created before t, oldest first.
func (r *Correlation) FindOlderThan(ctx context.Context, t time.Time) ([]app.Correlation, error) {
	hashes, err := r.client.ZRangeByScore(ctx, byDateKey, &goredis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(t.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, errors.WrapContext(err, errors.Context{Path: "redis.Correlation.FindOlderThan.ZRangeByScore"})
	}
	res := make([]app.Correlation, 0, len(hashes))
	for _, h := range hashes {
		c, err := r.get(ctx, h)
		if errors.Is(err, errtype.ErrNotFound) {
			// the value is gone, drop the index entry as well
			if err := r.client.ZRem(ctx, byDateKey, h).Err(); err != nil {
				log.Println(errors.WrapContext(err, errors.Context{
					Path:   "redis.Correlation.FindOlderThan.ZRem",
					Params: errors.Params{"hash": h},
				}))
			}
			continue
		}
		if err != nil {
			return nil, errors.WrapContext(err, errors.Context{Path: "redis.Correlation.FindOlderThan.Get"})
		}
		res = append(res, c)
	}
	return res, nil
}

func (r *Correlation) get(ctx context.Context, hash string) (app.Correlation, error) {
	var c app.Correlation
	data, err := r.client.Get(ctx, keyPrefix+hash).Bytes()
	if err == goredis.Nil {
		return c, errtype.ErrNotFound
	}
	if err != nil {
		return c, err
	}
	err = json.Unmarshal(data, &c)
	return c, err
}
