// Package memory implements the stores that keep the data in the process memory.
package memory

import (
	"context"
	"github.com/beldeveloper/go-errors-context"
	"github.com/karasusan/UnityCI/internal/app"
	"github.com/karasusan/UnityCI/internal/app/errtype"
	"sort"
	"sync"
	"time"
)

// NewCorrelation creates a new instance of the in-memory correlation store.
func NewCorrelation() app.CorrelationRepo {
	return &Correlation{items: make(map[string]app.Correlation)}
}

// Correlation implements a correlation store; the entries are lost on restart.
type Correlation struct {
	mu    sync.RWMutex
	items map[string]app.Correlation
}

// Save stores the correlation, replacing the previous one of the same key.
func (r *Correlation) Save(ctx context.Context, c app.Correlation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[c.Key.Hash()] = c
	return nil
}

// Find returns the correlation by its key.
func (r *Correlation) Find(ctx context.Context, k app.CorrelationKey) (app.Correlation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[k.Hash()]
	if !ok {
		return c, errors.WrapContext(errtype.ErrNotFound, errors.Context{
			Path:   "memory.Correlation.Find",
			Params: errors.Params{"buildTarget": k.BuildTargetID},
		})
	}
	return c, nil
}

// Delete removes the correlation.
func (r *Correlation) Delete(ctx context.Context, k app.CorrelationKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := k.Hash()
	if _, ok := r.items[h]; !ok {
		return errors.WrapContext(errtype.ErrNotFound, errors.Context{
			Path:   "memory.Correlation.Delete",
			Params: errors.Params{"buildTarget": k.BuildTargetID},
		})
	}
	delete(r.items, h)
	return nil
}

// FindOlderThan returns the correlations created before t, oldest first.
func (r *Correlation) FindOlderThan(ctx context.Context, t time.Time) ([]app.Correlation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]app.Correlation, 0)
	for _, c := range r.items {
		if c.Context.CreatedAt.Before(t) {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Context.CreatedAt.Before(res[j].Context.CreatedAt)
	})
	return res, nil
}
