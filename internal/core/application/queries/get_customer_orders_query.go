package queries

import (
	"errors"
	"time"

	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/pkg/errs"
	"fueltrack/internal/pkg/guard"
)

var (
	ErrGetCustomerOrdersQueryIsNotConstructed = errors.New(
		"GetCustomerOrdersQuery must be created via NewGetCustomerOrdersQuery constructor",
	)
)

// GetCustomerOrdersQuery retrieves every order record a customer has
// submitted, newest first.
type GetCustomerOrdersQuery struct {
	customerID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetCustomerOrdersQuery creates a query for a customer's order records.
//
// Returns an error when customerID is not a valid identifier.
func NewGetCustomerOrdersQuery(customerID kernel.UUID) (GetCustomerOrdersQuery, error) {
	if err := customerID.Validate(); err != nil {
		return GetCustomerOrdersQuery{}, errs.NewValueIsInvalidErrorWithCause("customerID is invalid", err)
	}

	return GetCustomerOrdersQuery{
		customerID: customerID,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetCustomerOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetCustomerOrdersQueryIsNotConstructed)
}

// CustomerID returns the customer whose orders are requested.
func (q GetCustomerOrdersQuery) CustomerID() kernel.UUID {
	return q.customerID
}

// GetCustomerOrdersQueryResponse is one order record in a customer's history.
type GetCustomerOrdersQueryResponse struct {
	OrderID    kernel.UUID
	Status     string
	DriverID   *kernel.UUID
	Address    string
	FuelLiters float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
