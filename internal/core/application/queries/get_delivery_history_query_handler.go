package queries

import (
	"context"
	"time"

	"fueltrack/internal/core/domain/model/assignment"
	"fueltrack/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetDeliveryHistoryQueryHandler reads an order's milestone events from the
// ledger in occurrence order.
type GetDeliveryHistoryQueryHandler struct {
	db *gorm.DB
}

// NewGetDeliveryHistoryQueryHandler creates a handler for delivery history
// queries. Requires a GORM database connection for query execution.
func NewGetDeliveryHistoryQueryHandler(db *gorm.DB) GetDeliveryHistoryQueryHandler {
	return GetDeliveryHistoryQueryHandler{db: db}
}

// Handle executes the query and returns the order's milestones oldest first.
// An order with no recorded events yields an empty slice, not an error.
func (h GetDeliveryHistoryQueryHandler) Handle(
	ctx context.Context,
	query GetDeliveryHistoryQuery,
) ([]GetDeliveryHistoryQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	history := make([]GetDeliveryHistoryQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			order_id,
			status,
			driver_id,
			occurred_at
		FROM delivery_events
		WHERE order_id = ?
		ORDER BY occurred_at
	`, query.OrderID().Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rawOrderID  uuid.UUID
			status      int
			rawDriverID *uuid.UUID
			occurredAt  time.Time
		)

		if err = rows.Scan(&rawOrderID, &status, &rawDriverID, &occurredAt); err != nil {
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

		history = append(history, GetDeliveryHistoryQueryResponse{
			OrderID:    orderID,
			Status:     assignment.Status(status).String(),
			DriverID:   driverID,
			OccurredAt: occurredAt,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return history, nil
}
