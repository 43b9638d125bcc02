package ports

import (
	"context"

	"fueltrack/internal/core/domain/model/assignment"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each ledger write.
// This ensures proper isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents one ledger transaction boundary: an order record
// change and its milestone event are committed or rolled back together.
// Client code must explicitly manage the transaction lifecycle.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	// Returns error if no active transaction or rollback fails.
	Rollback(ctx context.Context) error

	// OrderRecordRepository returns an OrderRecordRepository bound to the
	// current transaction.
	OrderRecordRepository() OrderRecordRepository

	// DeliveryEventRepository returns a DeliveryEventRepository bound to the
	// current transaction.
	DeliveryEventRepository() DeliveryEventRepository
}

// OrderRecordRepository persists the durable view of order assignments.
// The ledger is write-mostly: reads happen through dedicated query handlers,
// not through this repository.
type OrderRecordRepository interface {
	// Add persists a new order record for an assignment entering dispatch scope.
	Add(ctx context.Context, a *assignment.OrderAssignment) error

	// Update persists the current status and driver of an existing order record.
	Update(ctx context.Context, a *assignment.OrderAssignment) error
}

// DeliveryEventRepository appends dispatch milestone events.
// Events are immutable once written.
type DeliveryEventRepository interface {
	// Append persists a milestone event.
	Append(ctx context.Context, event assignment.DeliveryEvent) error
}
