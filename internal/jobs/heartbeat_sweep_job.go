package jobs

import (
	"context"
	"log/slog"
	"time"

	"fueltrack/internal/core/application/registry"

	"github.com/robfig/cron/v3"
)

// HeartbeatSweepJob force-deregisters connections that stopped sending
// heartbeats. Deregistration fires the registry listeners, which take care
// of subscriber cleanup and driver-offline handling. Runs every 5 seconds;
// the heartbeat timeout itself is the registry's configuration.
type HeartbeatSweepJob struct {
	registry *registry.Registry
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewHeartbeatSweepJob creates the heartbeat sweep over the connection
// registry.
func NewHeartbeatSweepJob(reg *registry.Registry, logger *slog.Logger) *HeartbeatSweepJob {
	return &HeartbeatSweepJob{
		registry: reg,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "heartbeat_sweep_job"),
	}
}

// Start begins the heartbeat sweep to run every 5 seconds.
func (j *HeartbeatSweepJob) Start() error {
	_, err := j.cron.AddFunc("*/5 * * * * *", func() {
		removed := j.registry.SweepExpired(time.Now())
		if len(removed) > 0 {
			j.logger.InfoContext(context.Background(), "silent connections deregistered",
				"count", len(removed))
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Heartbeat sweep job started (running every 5 seconds)")
	return nil
}

// Stop stops the heartbeat sweep job.
func (j *HeartbeatSweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Heartbeat sweep job stopped")
}
