// Package queries contains the read side of the order ledger: query objects
// and their handlers running raw SQL against the ledger tables. Live dispatch
// state is served from memory by the dispatch engine and location store;
// these queries cover what already happened.
package queries

import (
	"errors"
	"time"

	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/pkg/errs"
	"fueltrack/internal/pkg/guard"
)

var (
	ErrGetDeliveryHistoryQueryIsNotConstructed = errors.New(
		"GetDeliveryHistoryQuery must be created via NewGetDeliveryHistoryQuery constructor",
	)
)

// GetDeliveryHistoryQuery retrieves the full milestone history of one order:
// every recorded status change in occurrence order.
type GetDeliveryHistoryQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetDeliveryHistoryQuery creates a query for an order's milestone history.
//
// Returns an error when orderID is not a valid identifier.
func NewGetDeliveryHistoryQuery(orderID kernel.UUID) (GetDeliveryHistoryQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetDeliveryHistoryQuery{}, errs.NewValueIsInvalidErrorWithCause("orderID is invalid", err)
	}

	return GetDeliveryHistoryQuery{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetDeliveryHistoryQuery) Validate() error {
	return q.guard.Validate(ErrGetDeliveryHistoryQueryIsNotConstructed)
}

// OrderID returns the order whose history is requested.
func (q GetDeliveryHistoryQuery) OrderID() kernel.UUID {
	return q.orderID
}

// GetDeliveryHistoryQueryResponse is one milestone in an order's history.
type GetDeliveryHistoryQueryResponse struct {
	OrderID    kernel.UUID
	Status     string
	DriverID   *kernel.UUID
	OccurredAt time.Time
}
