package assignment

import (
	"errors"
	"time"

	"fueltrack/internal/core/domain/model/kernel"
)

// ErrOccurredAtIsRequired is returned when a delivery event carries a zero timestamp.
var ErrOccurredAtIsRequired = errors.New("occurredAt is required")

// DeliveryEvent is an immutable record of a dispatch milestone for one order:
// submitted, dispatched, in transit, delivered, cancelled or dispatch failed.
// Events are appended to the durable order ledger and never updated.
type DeliveryEvent struct {
	orderID    kernel.UUID
	status     Status
	driverID   *kernel.UUID
	occurredAt time.Time
}

// NewDeliveryEvent creates a DeliveryEvent for a dispatch milestone.
//
// Parameters:
//   - orderID: The order the milestone belongs to (must be a valid UUID)
//   - status: The assignment status reached (must be a valid Status)
//   - driverID: The driver involved, nil for milestones without one
//   - occurredAt: The milestone time (must be non-zero)
//
// Returns:
//   - DeliveryEvent: The immutable event value
//   - error: Validation error if any parameter is invalid
func NewDeliveryEvent(
	orderID kernel.UUID,
	status Status,
	driverID *kernel.UUID,
	occurredAt time.Time,
) (DeliveryEvent, error) {
	if err := orderID.Validate(); err != nil {
		return DeliveryEvent{}, err
	}
	if err := status.Validate(); err != nil {
		return DeliveryEvent{}, err
	}
	if driverID != nil {
		if err := driverID.Validate(); err != nil {
			return DeliveryEvent{}, err
		}
	}
	if occurredAt.IsZero() {
		return DeliveryEvent{}, ErrOccurredAtIsRequired
	}

	return DeliveryEvent{
		orderID:    orderID,
		status:     status,
		driverID:   driverID,
		occurredAt: occurredAt,
	}, nil
}

// OrderID returns the order the milestone belongs to.
func (e DeliveryEvent) OrderID() kernel.UUID {
	return e.orderID
}

// Status returns the assignment status reached at the milestone.
func (e DeliveryEvent) Status() Status {
	return e.status
}

// DriverID returns the driver involved in the milestone, or nil.
func (e DeliveryEvent) DriverID() *kernel.UUID {
	return e.driverID
}

// OccurredAt returns the milestone time.
func (e DeliveryEvent) OccurredAt() time.Time {
	return e.occurredAt
}
