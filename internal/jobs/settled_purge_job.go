package jobs

import (
	"context"
	"log/slog"

	"fueltrack/internal/core/application/dispatch"

	"github.com/robfig/cron/v3"
)

// SettledPurgeJob drops terminal assignments from dispatch memory. Settled
// assignments linger so that a racing accept or cancel gets a precise
// conflict answer instead of not-found; once a minute is late enough for
// any such race to have resolved.
type SettledPurgeJob struct {
	engine *dispatch.Engine
	cron   *cron.Cron
	logger *slog.Logger
}

// NewSettledPurgeJob creates the settled purge over the dispatch engine.
func NewSettledPurgeJob(engine *dispatch.Engine, logger *slog.Logger) *SettledPurgeJob {
	return &SettledPurgeJob{
		engine: engine,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.With("component", "settled_purge_job"),
	}
}

// Start begins the settled purge to run every minute.
func (j *SettledPurgeJob) Start() error {
	_, err := j.cron.AddFunc("0 * * * * *", func() {
		purged := j.engine.PurgeSettled()
		if purged > 0 {
			j.logger.InfoContext(context.Background(), "settled assignments purged",
				"count", purged)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Settled purge job started (running every minute)")
	return nil
}

// Stop stops the settled purge job.
func (j *SettledPurgeJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Settled purge job stopped")
}
