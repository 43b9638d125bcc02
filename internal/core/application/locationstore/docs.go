// Package locationstore provides the authoritative in-memory store of
// driver positions and availability.
//
// The store owns concurrency control over DriverLocationRecord aggregates
// with per-driver locking: one driver's update never stalls another's. It
// accepts position fixes from driver connection handlers, answers proximity
// queries for the dispatch engine, and demotes stale records on a
// timer-driven sweep.
//
// Out-of-order and out-of-area fixes are dropped as Ignored: counted and
// debug-logged, never surfaced as errors to the sending driver.
package locationstore
