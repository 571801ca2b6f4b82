package svc

import (
	"context"
	"github.com/beldeveloper/go-errors-context"
	"github.com/karasusan/UnityCI/internal/app"
	"log"
	"time"
)

// WatchJobDelay defines the default delay between jobs.
const WatchJobDelay = time.Minute

// NewWatcher creates a new instance of the watcher service.
func NewWatcher(jobs []app.WatcherJob, delay time.Duration) Watcher {
	if delay <= 0 {
		delay = WatchJobDelay
	}
	return Watcher{jobs: jobs, delay: delay}
}

// Watcher is a service that runs the sequences of jobs in a loop.
type Watcher struct {
	jobs  []app.WatcherJob
	delay time.Duration
}

// Watch runs the watcher until the context is done.
func (s Watcher) Watch(ctx context.Context) {
	if len(s.jobs) == 0 {
		<-ctx.Done()
		return
	}
	t := time.NewTicker(s.delay)
	defer t.Stop()
	for {
		for _, j := range s.jobs {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			err := j.Do(ctx)
			if err != nil {
				log.Println(errors.WrapContext(err, errors.Context{
					Path:   "svc.Watcher.Watch",
					Params: errors.Params{"job": j.Name},
				}))
			}
		}
	}
}
