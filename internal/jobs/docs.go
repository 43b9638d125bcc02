// Package jobs provides the timer-driven background tasks of the tracking
// and dispatch subsystem.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
// Every job only moves state forward: a sweep never resurrects a terminal
// assignment or an evicted driver record.
//
// # Available Jobs
//
// 1. StalenessSweepJob - demotes drivers with aged position fixes to Offline
// and evicts long-gone records
// 2. OfferExpiryJob - times out unanswered dispatch offers so orders
// re-offer to the next candidate
// 3. DispatchRetryJob - retries queued orders that had no eligible driver
// 4. HeartbeatSweepJob - force-deregisters connections that stopped
// heartbeating
// 5. SettledPurgeJob - drops terminal assignments from dispatch memory
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(store, engine, connRegistry, cfg, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Error Handling
//
// The sweeps report what they did through counts, not errors: an empty sweep
// is a normal outcome and is not logged. Failed job starts stop any already
// running jobs.
package jobs
