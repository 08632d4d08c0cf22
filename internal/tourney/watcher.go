package tourney

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// watcher polls for rounds that outlived their time limit. Expiry never runs
// on the command path.
type watcher struct {
	sched gocron.Scheduler
}

func newWatcher(m *Manager, interval time.Duration) (*watcher, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			m.CheckExpiredRounds(context.Background(), time.Now().UTC())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule expiry check: %w", err)
	}
	sched.Start()
	return &watcher{sched: sched}, nil
}

func (w *watcher) Close() {
	_ = w.sched.Shutdown()
}
