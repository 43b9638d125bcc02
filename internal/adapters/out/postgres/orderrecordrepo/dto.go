// Package orderrecordrepo provides data transfer objects and mapping functions
// for the durable order record. This package implements the write side of the
// order ledger, converting order assignments to their database representation.
package orderrecordrepo

import (
	"time"

	"fueltrack/internal/core/domain/model/assignment"

	"github.com/google/uuid"
)

// OrderRecordDTO represents the database structure for persisting order
// records. Indexed by customer and status for the history and monitoring
// queries.
type OrderRecordDTO struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID  `gorm:"type:uuid;index"`
	DriverID   *uuid.UUID `gorm:"type:uuid;index"`
	Latitude   float64
	Longitude  float64
	Address    string
	FuelLiters float64
	Status     int `gorm:"index"`
	OfferRound int
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the database table name for order records.
func (OrderRecordDTO) TableName() string {
	return "order_records"
}

// fromDomain converts an order assignment to its database representation.
// The offered driver and exclusion set are transient dispatch state and are
// deliberately not persisted; only the accepted driver is.
func fromDomain(a *assignment.OrderAssignment) OrderRecordDTO {
	var driverID *uuid.UUID
	if id := a.DriverID(); id != nil {
		raw := id.Bytes()
		driverID = &raw
	}

	destination := a.Destination()
	return OrderRecordDTO{
		ID:         a.OrderID().Bytes(),
		CustomerID: a.CustomerID().Bytes(),
		DriverID:   driverID,
		Latitude:   destination.Latitude(),
		Longitude:  destination.Longitude(),
		Address:    a.Address(),
		FuelLiters: a.FuelLiters(),
		Status:     int(a.Status()),
		OfferRound: a.OfferRound(),
	}
}
