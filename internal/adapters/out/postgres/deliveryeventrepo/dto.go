// Package deliveryeventrepo provides data transfer objects and mapping
// functions for dispatch milestone events. Events form the append-only
// history behind the delivery history query.
package deliveryeventrepo

import (
	"time"

	"fueltrack/internal/core/domain/model/assignment"

	"github.com/google/uuid"
)

// DeliveryEventDTO represents the database structure for persisting milestone
// events. Rows are append-only, ordered per order by occurrence time.
type DeliveryEventDTO struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID  `gorm:"type:uuid;index"`
	Status     int        `gorm:"index"`
	DriverID   *uuid.UUID `gorm:"type:uuid"`
	OccurredAt time.Time  `gorm:"index"`
}

// TableName specifies the database table name for delivery events.
func (DeliveryEventDTO) TableName() string {
	return "delivery_events"
}

// fromDomain converts a delivery event to its database representation.
// Each row gets a fresh identifier since events carry none of their own.
func fromDomain(event assignment.DeliveryEvent) DeliveryEventDTO {
	var driverID *uuid.UUID
	if id := event.DriverID(); id != nil {
		raw := id.Bytes()
		driverID = &raw
	}

	return DeliveryEventDTO{
		ID:         uuid.New(),
		OrderID:    event.OrderID().Bytes(),
		Status:     int(event.Status()),
		DriverID:   driverID,
		OccurredAt: event.OccurredAt(),
	}
}
