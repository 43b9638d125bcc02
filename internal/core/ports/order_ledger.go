package ports

import (
	"context"

	"fueltrack/internal/core/domain/model/assignment"
)

// OrderLedger is the durable external store of order outcomes.
// The core records dispatch milestones here; the ledger is the system of
// record for what happened to an order, while the dispatch engine's
// in-memory state is authoritative only for what is happening right now.
//
// Ledger failures on terminal transitions are logged and retried by the
// caller where possible, but never roll back in-memory core state.
type OrderLedger interface {
	// RecordSubmitted persists a new order entering dispatch scope,
	// together with its Pending milestone event.
	RecordSubmitted(ctx context.Context, a *assignment.OrderAssignment) error

	// RecordTransition persists an assignment state change and appends
	// the corresponding milestone event. Called on Accepted (dispatched),
	// InTransit, Delivered, Cancelled and DispatchFailed transitions.
	RecordTransition(ctx context.Context, a *assignment.OrderAssignment, event assignment.DeliveryEvent) error
}
