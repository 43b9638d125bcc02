package ports

import (
	"context"

	"fueltrack/internal/core/domain/model/kernel"
)

// NotificationKind identifies the business transition a notification reports.
type NotificationKind string

const (
	// NotificationDriverEnRoute is emitted when the driver departs with the fuel.
	NotificationDriverEnRoute NotificationKind = "driver_en_route"
	// NotificationOrderDelivered is emitted when the delivery is confirmed.
	NotificationOrderDelivered NotificationKind = "order_delivered"
	// NotificationDispatchFailed is emitted when no driver accepted the order.
	NotificationDispatchFailed NotificationKind = "dispatch_failed"
)

// Notification is a fire-and-forget notification request handed to the
// external notification service on key transitions.
type Notification struct {
	Kind       NotificationKind
	OrderID    kernel.UUID
	CustomerID kernel.UUID
	DriverID   *kernel.UUID
}

// Notifier delivers notification requests to the external notification
// service (push, SMS, whatever it chooses). Delivery is best-effort:
// callers log a Notify error and move on, core state is never rolled back
// because a notification failed.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}
