package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// jobTimeout bounds a single run so a hung job cannot pile up behind
// the next tick.
const jobTimeout = 5 * time.Minute

// Runner schedules the recurring maintenance jobs.
type Runner struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{cron: cron.New(), logger: logger}
}

// Register adds a job under a standard 5-field cron spec.
func (r *Runner) Register(spec, name string, fn func(ctx context.Context) error) error {
	_, err := r.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			r.logger.Error().Err(err).Str("job", name).Msg("scheduled job failed")
			return
		}
		r.logger.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("scheduled job done")
	})
	return err
}

func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}
