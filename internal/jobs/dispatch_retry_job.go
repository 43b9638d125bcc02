package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fueltrack/internal/core/application/dispatch"

	"github.com/robfig/cron/v3"
)

// defaultRetryInterval is applied when the configured interval is unset.
const defaultRetryInterval = 5 * time.Second

// DispatchRetryJob periodically retries queued orders that had no eligible
// driver when submitted. Queued orders are also retried the moment a driver
// becomes available; this poll is the bounded fallback for drivers that
// turned dispatchable without an availability event, such as a record
// recovering from a missed fix.
type DispatchRetryJob struct {
	engine   *dispatch.Engine
	interval time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewDispatchRetryJob creates the retry poll over the dispatch engine.
// A non-positive interval falls back to 5 seconds.
func NewDispatchRetryJob(engine *dispatch.Engine, interval time.Duration, logger *slog.Logger) *DispatchRetryJob {
	if interval <= 0 {
		interval = defaultRetryInterval
	}
	return &DispatchRetryJob{
		engine:   engine,
		interval: interval,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "dispatch_retry_job"),
	}
}

// Start begins the dispatch retry job on the configured interval.
func (j *DispatchRetryJob) Start() error {
	seconds := int(j.interval.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	_, err := j.cron.AddFunc(fmt.Sprintf("*/%d * * * * *", seconds), func() {
		dispatched := j.engine.RetryPending(time.Now())
		if dispatched > 0 {
			j.logger.InfoContext(context.Background(), "queued orders dispatched",
				"count", dispatched)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Dispatch retry job started",
		"intervalSeconds", seconds)
	return nil
}

// Stop stops the dispatch retry job.
func (j *DispatchRetryJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Dispatch retry job stopped")
}
