package queries

import (
	"context"
	"time"

	"fueltrack/internal/core/domain/model/assignment"
	"fueltrack/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetCustomerOrdersQueryHandler reads a customer's order records from the
// ledger.
type GetCustomerOrdersQueryHandler struct {
	db *gorm.DB
}

// NewGetCustomerOrdersQueryHandler creates a handler for customer order
// queries. Requires a GORM database connection for query execution.
func NewGetCustomerOrdersQueryHandler(db *gorm.DB) GetCustomerOrdersQueryHandler {
	return GetCustomerOrdersQueryHandler{db: db}
}

// Handle executes the query and returns the customer's order records newest
// first. A customer with no orders yields an empty slice, not an error.
func (h GetCustomerOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetCustomerOrdersQuery,
) ([]GetCustomerOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders := make([]GetCustomerOrdersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			status,
			driver_id,
			address,
			fuel_liters,
			created_at,
			updated_at
		FROM order_records
		WHERE customer_id = ?
		ORDER BY created_at DESC
	`, query.CustomerID().Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rawOrderID  uuid.UUID
			status      int
			rawDriverID *uuid.UUID
			address     string
			fuelLiters  float64
			createdAt   time.Time
			updatedAt   time.Time
		)

		err = rows.Scan(
			&rawOrderID, &status, &rawDriverID, &address, &fuelLiters, &createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(rawOrderID[:])
		if idErr != nil {
			return nil, idErr
		}

		var driverID *kernel.UUID
		if rawDriverID != nil {
			id, driverErr := kernel.UUIDFromBytes((*rawDriverID)[:])
			if driverErr != nil {
				return nil, driverErr
			}
			driverID = &id
		}

		orders = append(orders, GetCustomerOrdersQueryResponse{
			OrderID:    orderID,
			Status:     assignment.Status(status).String(),
			DriverID:   driverID,
			Address:    address,
			FuelLiters: fuelLiters,
			CreatedAt:  createdAt,
			UpdatedAt:  updatedAt,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
