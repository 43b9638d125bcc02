package assignment

import (
	"errors"
	"fmt"
	"time"

	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/pkg/errs"
	"fueltrack/internal/pkg/guard"
)

// Domain errors for order assignment operations.
var (
	// ErrStaleOffer is returned when an accept or decline refers to an offer
	// that is no longer current: the offer expired, moved to another driver,
	// or the caller was never the offered driver.
	ErrStaleOffer = errors.New("offer is stale")

	// ErrAlreadyTerminal is returned when an operation targets an assignment
	// that already reached a terminal status. The caller should treat the
	// assignment as settled.
	ErrAlreadyTerminal = errors.New("assignment is already terminal")

	// ErrOfferExpiresAtIsRequired is returned when an offer carries a zero deadline.
	ErrOfferExpiresAtIsRequired = errs.NewValueIsRequiredError("offerExpiresAt")

	// ErrAssignmentIsNotConstructed is returned when using an improperly
	// initialized OrderAssignment.
	ErrAssignmentIsNotConstructed = errors.New("OrderAssignment must be created via NewOrderAssignment constructor")
)

// OrderAssignment represents one fuel order moving through dispatch.
// It is an aggregate root that owns the offer protocol and the assignment
// state machine for a single order.
//
// Key responsibilities:
//   - Holding order identity, customer identity and the drop-off destination
//   - Running time-bounded offer rounds against individual drivers
//   - Tracking drivers excluded for this order (declined or timed out)
//   - Enforcing that at most one driver holds the offer at any instant
//   - Guaranteeing terminal statuses are immutable once reached
//
// Business rules:
//   - Accept succeeds only for the currently offered driver before the deadline
//   - A declined or expired offer excludes that driver and requeues the order
//   - Cancel is valid from any non-terminal status
//   - Fuel quantity is positive, measured in liters
type OrderAssignment struct {
	// orderID uniquely identifies the order being dispatched
	orderID kernel.UUID
	// customerID identifies the customer who placed the order
	customerID kernel.UUID
	// destination is the drop-off coordinate used for distance ordering and ETA
	destination kernel.GeoPoint
	// address is the human-readable drop-off address
	address string
	// fuelLiters is the ordered fuel quantity in liters
	fuelLiters float64
	// status is the current state in the dispatch lifecycle
	status Status
	// driverID is the driver who accepted the order (nil until accepted)
	driverID *kernel.UUID
	// offeredDriverID is the driver currently holding the offer (nil outside Offered)
	offeredDriverID *kernel.UUID
	// offerExpiresAt is the deadline of the current offer
	offerExpiresAt time.Time
	// offerRound counts how many offers have been made for this order
	offerRound int
	// excluded holds drivers no longer eligible for this order
	excluded map[kernel.UUID]struct{}
	// guard ensures the assignment was properly constructed
	guard guard.ConstructorGuard
}

// NewOrderAssignment creates a new OrderAssignment in the Pending status.
// This is the only way to create a valid assignment instance.
//
// Parameters:
//   - orderID: Unique identifier of the order (must be a valid UUID)
//   - customerID: Unique identifier of the ordering customer (must be a valid UUID)
//   - destination: Drop-off coordinate (must be a valid GeoPoint)
//   - address: Human-readable drop-off address (may be empty)
//   - fuelLiters: Ordered fuel quantity in liters (must be positive)
//
// Returns:
//   - *OrderAssignment: A fully initialized assignment in Pending status
//   - error: Validation error if any parameter is invalid (aggregated errors for multiple issues)
func NewOrderAssignment(
	orderID kernel.UUID,
	customerID kernel.UUID,
	destination kernel.GeoPoint,
	address string,
	fuelLiters float64,
) (*OrderAssignment, error) {
	a := &OrderAssignment{
		status:   Pending,
		excluded: make(map[kernel.UUID]struct{}),
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		a.setOrderID(orderID),
		a.setCustomerID(customerID),
		a.setDestination(destination),
		a.setFuelLiters(fuelLiters),
	); err != nil {
		return nil, err
	}

	a.address = address
	return a, nil
}

// IsEqual compares two assignments for equality based on their order identifiers.
func (a *OrderAssignment) IsEqual(other *OrderAssignment) bool {
	if other == nil {
		return false
	}
	return a.orderID.IsEqual(other.orderID)
}

// Validate checks if the assignment was properly constructed using the constructor.
// The zero value of OrderAssignment is invalid and will fail this validation.
func (a *OrderAssignment) Validate() error {
	if a == nil {
		return ErrAssignmentIsNotConstructed
	}
	return a.guard.Validate(ErrAssignmentIsNotConstructed)
}

// OrderID returns the unique identifier of the order.
func (a *OrderAssignment) OrderID() kernel.UUID {
	return a.orderID
}

// CustomerID returns the unique identifier of the ordering customer.
func (a *OrderAssignment) CustomerID() kernel.UUID {
	return a.customerID
}

// Destination returns the drop-off coordinate.
func (a *OrderAssignment) Destination() kernel.GeoPoint {
	return a.destination
}

// Address returns the human-readable drop-off address.
func (a *OrderAssignment) Address() string {
	return a.address
}

// FuelLiters returns the ordered fuel quantity in liters.
func (a *OrderAssignment) FuelLiters() float64 {
	return a.fuelLiters
}

// Status returns the current dispatch status.
func (a *OrderAssignment) Status() Status {
	return a.status
}

// IsTerminal reports whether the assignment reached a final status.
func (a *OrderAssignment) IsTerminal() bool {
	return a.status.IsTerminal()
}

// DriverID returns the driver who accepted the order.
// Returns nil until the assignment is accepted.
func (a *OrderAssignment) DriverID() *kernel.UUID {
	return a.driverID
}

// OfferedDriverID returns the driver currently holding the offer.
// Returns nil outside the Offered status.
func (a *OrderAssignment) OfferedDriverID() *kernel.UUID {
	return a.offeredDriverID
}

// OfferExpiresAt returns the deadline of the current offer.
// The zero time means no offer is outstanding.
func (a *OrderAssignment) OfferExpiresAt() time.Time {
	return a.offerExpiresAt
}

// OfferRound returns how many offers have been made for this order.
func (a *OrderAssignment) OfferRound() int {
	return a.offerRound
}

// HeldDriver returns the driver currently bound to this assignment: the
// accepted driver once accepted, otherwise the offered driver, otherwise nil.
// The dispatch engine uses it to release the driver on cancellation.
func (a *OrderAssignment) HeldDriver() *kernel.UUID {
	if a.driverID != nil {
		return a.driverID
	}
	return a.offeredDriverID
}

// IsExcluded reports whether the driver declined or timed out on this order
// and is no longer eligible for it.
func (a *OrderAssignment) IsExcluded(driverID kernel.UUID) bool {
	_, ok := a.excluded[driverID]
	return ok
}

// ExcludedDrivers returns the drivers no longer eligible for this order.
// The returned slice is a copy to prevent external modification.
func (a *OrderAssignment) ExcludedDrivers() []kernel.UUID {
	out := make([]kernel.UUID, 0, len(a.excluded))
	for driverID := range a.excluded {
		out = append(out, driverID)
	}
	return out
}

// Offer offers the order to a driver with a deadline and advances the
// offer round counter.
//
// Business rules:
//   - Assignment must be Pending
//   - The driver must not be excluded for this order
//   - The deadline must be non-zero
//
// Parameters:
//   - driverID: The driver to offer the order to
//   - expiresAt: Deadline after which the offer is stale
//
// Returns:
//   - error: ErrAlreadyTerminal if the assignment is terminal, validation
//     error if the driver is excluded or parameters are invalid
func (a *OrderAssignment) Offer(driverID kernel.UUID, expiresAt time.Time) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if err := driverID.Validate(); err != nil {
		return err
	}
	if expiresAt.IsZero() {
		return ErrOfferExpiresAtIsRequired
	}
	if a.IsExcluded(driverID) {
		return errs.NewValueIsInvalidErrorWithCause(
			"driverId is invalid",
			fmt.Errorf("driver %s is excluded for order %s", driverID, a.orderID),
		)
	}

	newStatus, err := a.status.Offer()
	if err != nil {
		return err
	}

	a.status = newStatus
	a.offeredDriverID = &driverID
	a.offerExpiresAt = expiresAt
	a.offerRound++
	return nil
}

// Accept records the offered driver's acceptance.
//
// The acceptance wins only when the caller is the currently offered driver
// and the offer deadline has not passed. A losing accept observes
// ErrStaleOffer (offer moved on) or ErrAlreadyTerminal (order settled),
// never a crash.
//
// Parameters:
//   - driverID: The accepting driver
//   - now: The time of the acceptance attempt
//
// Returns:
//   - error: ErrAlreadyTerminal, ErrStaleOffer, or nil on success
func (a *OrderAssignment) Accept(driverID kernel.UUID, now time.Time) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := driverID.Validate(); err != nil {
		return err
	}
	if a.status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if a.status != Offered || a.offeredDriverID == nil || !a.offeredDriverID.IsEqual(driverID) {
		return ErrStaleOffer
	}
	if now.After(a.offerExpiresAt) {
		return ErrStaleOffer
	}

	newStatus, err := a.status.Accept()
	if err != nil {
		return err
	}

	a.status = newStatus
	a.driverID = &driverID
	a.clearOffer()
	return nil
}

// Decline records the offered driver's rejection: the driver is excluded
// for this order and the assignment returns to Pending for the next round.
//
// Parameters:
//   - driverID: The declining driver
//
// Returns:
//   - error: ErrAlreadyTerminal if settled, ErrStaleOffer if the caller
//     does not hold the current offer, nil on success
func (a *OrderAssignment) Decline(driverID kernel.UUID) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := driverID.Validate(); err != nil {
		return err
	}
	if a.status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if a.status != Offered || a.offeredDriverID == nil || !a.offeredDriverID.IsEqual(driverID) {
		return ErrStaleOffer
	}

	newStatus, err := a.status.Requeue()
	if err != nil {
		return err
	}

	a.excluded[driverID] = struct{}{}
	a.status = newStatus
	a.clearOffer()
	return nil
}

// ExpireOffer requeues the assignment when the current offer deadline has
// passed, excluding the unresponsive driver.
//
// The method is safe to call on any assignment: it reports expired=false
// without touching state when there is no outstanding offer or the deadline
// has not passed yet. Timer-driven sweeps call it periodically.
//
// Parameters:
//   - now: The sweep time
//
// Returns:
//   - bool: true if the offer was expired and the assignment requeued
//   - error: Validation error if the assignment is not constructed
func (a *OrderAssignment) ExpireOffer(now time.Time) (bool, error) {
	if err := a.Validate(); err != nil {
		return false, err
	}
	if a.status != Offered || a.offeredDriverID == nil {
		return false, nil
	}
	if !now.After(a.offerExpiresAt) {
		return false, nil
	}

	newStatus, err := a.status.Requeue()
	if err != nil {
		return false, err
	}

	a.excluded[*a.offeredDriverID] = struct{}{}
	a.status = newStatus
	a.clearOffer()
	return true, nil
}

// StartTransit records that the accepted driver departed with the fuel.
//
// Parameters:
//   - driverID: The departing driver, must be the accepted driver
//
// Returns:
//   - error: ErrAlreadyTerminal if settled, validation error if the caller
//     is not the accepted driver or the assignment is not Accepted
func (a *OrderAssignment) StartTransit(driverID kernel.UUID) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if err := a.validateAssignedDriver(driverID); err != nil {
		return err
	}

	newStatus, err := a.status.Start()
	if err != nil {
		return err
	}

	a.status = newStatus
	return nil
}

// Complete records the delivery confirmation from the accepted driver.
//
// Parameters:
//   - driverID: The confirming driver, must be the accepted driver
//
// Returns:
//   - error: ErrAlreadyTerminal if settled, validation error if the caller
//     is not the accepted driver or the assignment is not InTransit
func (a *OrderAssignment) Complete(driverID kernel.UUID) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if err := a.validateAssignedDriver(driverID); err != nil {
		return err
	}

	newStatus, err := a.status.Complete()
	if err != nil {
		return err
	}

	a.status = newStatus
	return nil
}

// Cancel transitions the assignment to Cancelled from any non-terminal status.
//
// Cancel racing an in-flight Accept is resolved by whichever mutation is
// applied first under the engine's per-order lock; the loser observes
// ErrAlreadyTerminal or ErrStaleOffer.
//
// Returns:
//   - error: ErrAlreadyTerminal if the assignment already settled, nil on success
func (a *OrderAssignment) Cancel() error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.status.IsTerminal() {
		return ErrAlreadyTerminal
	}

	newStatus, err := a.status.Cancel()
	if err != nil {
		return err
	}

	a.status = newStatus
	a.clearOffer()
	return nil
}

// FailDispatch transitions the assignment to DispatchFailed after the
// offer rounds are exhausted with no acceptance.
//
// Returns:
//   - error: ErrAlreadyTerminal if settled, validation error if the
//     assignment is not Pending
func (a *OrderAssignment) FailDispatch() error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.status.IsTerminal() {
		return ErrAlreadyTerminal
	}

	newStatus, err := a.status.Fail()
	if err != nil {
		return err
	}

	a.status = newStatus
	return nil
}

// validateAssignedDriver checks that the caller is the accepted driver.
func (a *OrderAssignment) validateAssignedDriver(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}
	if a.driverID == nil || !a.driverID.IsEqual(driverID) {
		return errs.NewValueIsInvalidErrorWithCause(
			"driverId is invalid",
			fmt.Errorf("driver %s is not assigned to order %s", driverID, a.orderID),
		)
	}
	return nil
}

// clearOffer drops the outstanding offer state.
func (a *OrderAssignment) clearOffer() {
	a.offeredDriverID = nil
	a.offerExpiresAt = time.Time{}
}

// setOrderID sets the order identifier with validation.
// This is an internal setter used during assignment construction.
func (a *OrderAssignment) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	a.orderID = orderID
	return nil
}

// setCustomerID sets the customer identifier with validation.
// This is an internal setter used during assignment construction.
func (a *OrderAssignment) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return err
	}

	a.customerID = customerID
	return nil
}

// setDestination sets the drop-off coordinate with validation.
// This is an internal setter used during assignment construction.
func (a *OrderAssignment) setDestination(destination kernel.GeoPoint) error {
	if err := destination.Validate(); err != nil {
		return err
	}

	a.destination = destination
	return nil
}

// setFuelLiters sets the fuel quantity with validation.
// This is an internal setter used during assignment construction.
func (a *OrderAssignment) setFuelLiters(fuelLiters float64) error {
	if fuelLiters <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"fuelLiters is invalid",
			fmt.Errorf("%v is not greater than 0", fuelLiters),
		)
	}

	a.fuelLiters = fuelLiters
	return nil
}
