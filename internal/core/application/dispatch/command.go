package dispatch

import (
	"errors"
	"fmt"

	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/pkg/errs"
	"fueltrack/internal/pkg/guard"
)

// ErrSubmitOrderCommandIsNotConstructed is returned when attempting to use an
// improperly initialized SubmitOrderCommand.
var ErrSubmitOrderCommandIsNotConstructed = errs.NewValueIsRequiredError(
	"submit order command must be created via NewSubmitOrderCommand constructor")

// SubmitOrderCommand carries a customer's request to have fuel delivered to a
// location.
type SubmitOrderCommand struct {
	orderID     kernel.UUID
	customerID  kernel.UUID
	destination kernel.GeoPoint
	address     string
	fuelLiters  float64

	guard guard.ConstructorGuard
}

// NewSubmitOrderCommand creates a validated submit order command.
//
// Parameters:
//   - orderID: externally assigned order identifier.
//   - customerID: the ordering customer.
//   - latitude, longitude: delivery destination coordinates.
//   - address: free-form delivery address.
//   - fuelLiters: requested fuel volume, must be positive.
//
// Returns:
//   - SubmitOrderCommand: a valid command.
//   - error: if any parameter fails validation.
func NewSubmitOrderCommand(
	orderID kernel.UUID,
	customerID kernel.UUID,
	latitude float64,
	longitude float64,
	address string,
	fuelLiters float64,
) (SubmitOrderCommand, error) {
	cmd := SubmitOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setCustomerID(customerID),
		cmd.setDestination(latitude, longitude),
		cmd.setAddress(address),
		cmd.setFuelLiters(fuelLiters),
	)
	if err != nil {
		return SubmitOrderCommand{}, err
	}

	return cmd, nil
}

// Validate checks that the command was properly constructed.
func (c SubmitOrderCommand) Validate() error {
	return c.guard.Validate(ErrSubmitOrderCommandIsNotConstructed)
}

// OrderID returns the order identifier.
func (c SubmitOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// CustomerID returns the ordering customer.
func (c SubmitOrderCommand) CustomerID() kernel.UUID {
	return c.customerID
}

// Destination returns the delivery destination point.
func (c SubmitOrderCommand) Destination() kernel.GeoPoint {
	return c.destination
}

// Address returns the delivery address.
func (c SubmitOrderCommand) Address() string {
	return c.address
}

// FuelLiters returns the requested fuel volume.
func (c SubmitOrderCommand) FuelLiters() float64 {
	return c.fuelLiters
}

func (c *SubmitOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("orderID is invalid", err)
	}
	c.orderID = orderID
	return nil
}

func (c *SubmitOrderCommand) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("customerID is invalid", err)
	}
	c.customerID = customerID
	return nil
}

func (c *SubmitOrderCommand) setDestination(latitude, longitude float64) error {
	point, err := kernel.NewGeoPoint(latitude, longitude)
	if err != nil {
		return err
	}
	c.destination = point
	return nil
}

func (c *SubmitOrderCommand) setAddress(address string) error {
	if address == "" {
		return errs.NewValueIsRequiredError("address")
	}
	c.address = address
	return nil
}

func (c *SubmitOrderCommand) setFuelLiters(fuelLiters float64) error {
	if fuelLiters <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"fuelLiters is invalid",
			fmt.Errorf("%v is not greater than 0", fuelLiters),
		)
	}
	c.fuelLiters = fuelLiters
	return nil
}
