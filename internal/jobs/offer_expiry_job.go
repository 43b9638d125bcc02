package jobs

import (
	"context"
	"log/slog"
	"time"

	"fueltrack/internal/core/application/dispatch"

	"github.com/robfig/cron/v3"
)

// OfferExpiryJob times out dispatch offers whose window elapsed with no
// driver response, so the order moves on to the next candidate. Runs every
// second; the engine itself decides which offers are actually overdue.
type OfferExpiryJob struct {
	engine *dispatch.Engine
	cron   *cron.Cron
	logger *slog.Logger
}

// NewOfferExpiryJob creates the offer expiry job over the dispatch engine.
func NewOfferExpiryJob(engine *dispatch.Engine, logger *slog.Logger) *OfferExpiryJob {
	return &OfferExpiryJob{
		engine: engine,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger.With("component", "offer_expiry_job"),
	}
}

// Start begins the offer expiry job to run every second.
func (j *OfferExpiryJob) Start() error {
	_, err := j.cron.AddFunc("* * * * * *", func() {
		ctx := context.Background()
		expired := j.engine.ExpireOffers(ctx, time.Now())
		if len(expired) > 0 {
			j.logger.InfoContext(ctx, "offers expired", "count", len(expired))
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Offer expiry job started (running every second)")
	return nil
}

// Stop stops the offer expiry job.
func (j *OfferExpiryJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Offer expiry job stopped")
}
