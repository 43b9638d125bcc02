package jobs

import (
	"context"
	"log/slog"
	"time"

	"fueltrack/internal/core/application/locationstore"

	"github.com/robfig/cron/v3"
)

// StalenessSweepJob demotes drivers whose last position fix has aged past
// the staleness threshold and evicts records that stayed offline too long.
// Runs every second so a silent driver drops out of dispatch promptly.
type StalenessSweepJob struct {
	store  *locationstore.Store
	cron   *cron.Cron
	logger *slog.Logger
}

// NewStalenessSweepJob creates the staleness sweep over the location store.
func NewStalenessSweepJob(store *locationstore.Store, logger *slog.Logger) *StalenessSweepJob {
	return &StalenessSweepJob{
		store:  store,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.With("component", "staleness_sweep_job"),
	}
}

// Start begins the staleness sweep to run every second.
func (j *StalenessSweepJob) Start() error {
	_, err := j.cron.AddFunc("* * * * * *", func() {
		demoted := j.store.SweepStale(time.Now())
		if len(demoted) > 0 {
			j.logger.InfoContext(context.Background(), "stale drivers demoted",
				"count", len(demoted))
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Staleness sweep job started (running every second)")
	return nil
}

// Stop stops the staleness sweep job.
func (j *StalenessSweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Staleness sweep job stopped")
}
