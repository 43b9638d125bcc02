package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"fueltrack/internal/core/application/dispatch"
	"fueltrack/internal/core/application/locationstore"
	"fueltrack/internal/core/application/registry"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	stalenessSweepJob *StalenessSweepJob
	offerExpiryJob    *OfferExpiryJob
	dispatchRetryJob  *DispatchRetryJob
	heartbeatSweepJob *HeartbeatSweepJob
	settledPurgeJob   *SettledPurgeJob
}

// NewJobManager creates a job manager with all required jobs.
//
// Parameters:
//   - store: location store swept for stale driver records
//   - engine: dispatch engine driving offer expiry, retry and purge
//   - reg: connection registry swept for silent connections
//   - retryInterval: dispatch retry poll interval; non-positive uses the default
//   - logger: structured logger shared by all jobs
func NewJobManager(
	store *locationstore.Store,
	engine *dispatch.Engine,
	reg *registry.Registry,
	retryInterval time.Duration,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		stalenessSweepJob: NewStalenessSweepJob(store, logger),
		offerExpiryJob:    NewOfferExpiryJob(engine, logger),
		dispatchRetryJob:  NewDispatchRetryJob(engine, retryInterval, logger),
		heartbeatSweepJob: NewHeartbeatSweepJob(reg, logger),
		settledPurgeJob:   NewSettledPurgeJob(engine, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start; already started jobs are
// stopped again.
func (jm *JobManager) StartAll() error {
	started := make([]interface{ Stop() }, 0, 5)

	for _, job := range []struct {
		name  string
		start func() error
		stop  interface{ Stop() }
	}{
		{"staleness sweep", jm.stalenessSweepJob.Start, jm.stalenessSweepJob},
		{"offer expiry", jm.offerExpiryJob.Start, jm.offerExpiryJob},
		{"dispatch retry", jm.dispatchRetryJob.Start, jm.dispatchRetryJob},
		{"heartbeat sweep", jm.heartbeatSweepJob.Start, jm.heartbeatSweepJob},
		{"settled purge", jm.settledPurgeJob.Start, jm.settledPurgeJob},
	} {
		if err := job.start(); err != nil {
			for _, s := range started {
				s.Stop()
			}
			return fmt.Errorf("failed to start %s job: %w", job.name, err)
		}
		started = append(started, job.stop)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.stalenessSweepJob.Stop()
	jm.offerExpiryJob.Stop()
	jm.dispatchRetryJob.Stop()
	jm.heartbeatSweepJob.Stop()
	jm.settledPurgeJob.Stop()
}
