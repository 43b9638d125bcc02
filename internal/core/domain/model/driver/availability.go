package driver

import (
	"fmt"

	"fueltrack/internal/pkg/errs"
)

// Availability represents the dispatch eligibility of a driver.
// It implements a state machine with defined transitions so drivers
// move through the delivery workflow in the correct order.
//
// State transitions:
//
//	Offline ──> Available ──> Busy ──> EnRoute
//	   ^            ^          │          │
//	   │            └──────────┴──────────┘
//	   │                (release)
//	   └──────── any valid state (go offline)
//
// Availability is a value object that validates state transitions
// and provides string representations for persistence and display.
type Availability int

const (
	// Unknown represents an invalid or undefined availability.
	// This value (0) helps catch uninitialized Availability values.
	Unknown Availability = iota

	// Offline indicates the driver has no live connection.
	// Offline drivers are never considered for dispatch.
	Offline

	// Available indicates the driver is connected with a fresh location
	// and can receive dispatch offers.
	Available

	// Busy indicates the driver holds an accepted assignment that has not
	// yet departed. Busy drivers receive no further offers.
	Busy

	// EnRoute indicates the driver is in transit on an active delivery.
	EnRoute
)

// getAvailabilityStrings returns a map of Availability values to their string representations.
// All values are included for string conversion.
func getAvailabilityStrings() map[Availability]string {
	return map[Availability]string{
		Unknown:   "Unknown",
		Offline:   "Offline",
		Available: "Available",
		Busy:      "Busy",
		EnRoute:   "EnRoute",
	}
}

// getValidAvailabilityStrings returns a map of only valid Availability values.
// Only valid values are included to support validation.
func getValidAvailabilityStrings() map[Availability]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Availability]string{
		Offline:   "Offline",
		Available: "Available",
		Busy:      "Busy",
		EnRoute:   "EnRoute",
	}
}

// Validate checks if the Availability value is valid.
//
// Valid values are: Offline, Available, Busy, EnRoute.
// Unknown (0) and any other values are invalid.
//
// Returns:
//   - nil if the availability is valid
//   - error with details if the availability is invalid
func (a Availability) Validate() error {
	if _, ok := getValidAvailabilityStrings()[a]; !ok {
		return errs.NewValueIsInvalidErrorWithCause(
			"availability is invalid",
			fmt.Errorf("%d is not a valid availability", a),
		)
	}
	return nil
}

// String returns the human-readable name of the availability.
//
// This method implements the fmt.Stringer interface and is safe
// to call on any Availability value, including invalid ones.
func (a Availability) String() string {
	if str, ok := getAvailabilityStrings()[a]; ok {
		return str
	}
	return "Unknown"
}

// IsDispatchable reports whether a driver in this state may receive offers.
// Only Available drivers are dispatchable.
func (a Availability) IsDispatchable() bool {
	return a == Available
}

// GoOnline transitions the availability to Available.
//
// Valid transitions:
//   - Offline -> Available (driver connects)
//   - Available -> Available (reconnect, idempotent)
//
// Invalid transitions:
//   - Busy, EnRoute -> Available (must release the assignment first)
//   - Unknown -> Available (invalid initial state)
//
// Returns:
//   - (Available, nil) on valid transition
//   - (0, error) if transition is not allowed from current availability
func (a Availability) GoOnline() (Availability, error) {
	if a != Offline && a != Available {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"availability is invalid",
			fmt.Errorf("%s is not a valid availability to go online", a.String()),
		)
	}

	return Available, nil
}

// Engage transitions the availability to Busy.
//
// Valid transitions:
//   - Available -> Busy (driver accepts an assignment)
//
// Returns:
//   - (Busy, nil) on valid transition
//   - (0, error) if transition is not allowed from current availability
func (a Availability) Engage() (Availability, error) {
	if a != Available {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"availability is invalid",
			fmt.Errorf("%s is not a valid availability to engage", a.String()),
		)
	}

	return Busy, nil
}

// Depart transitions the availability to EnRoute.
//
// Valid transitions:
//   - Busy -> EnRoute (driver starts the delivery run)
//
// Returns:
//   - (EnRoute, nil) on valid transition
//   - (0, error) if transition is not allowed from current availability
func (a Availability) Depart() (Availability, error) {
	if a != Busy {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"availability is invalid",
			fmt.Errorf("%s is not a valid availability to depart", a.String()),
		)
	}

	return EnRoute, nil
}

// Release transitions the availability back to Available.
//
// Valid transitions:
//   - Busy -> Available (assignment cancelled before departure)
//   - EnRoute -> Available (delivery completed or cancelled)
//
// Returns:
//   - (Available, nil) on valid transition
//   - (0, error) if transition is not allowed from current availability
func (a Availability) Release() (Availability, error) {
	if a != Busy && a != EnRoute {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"availability is invalid",
			fmt.Errorf("%s is not a valid availability to release", a.String()),
		)
	}

	return Available, nil
}

// GoOffline transitions the availability to Offline.
//
// Valid from any valid state: a driver can disconnect at any time,
// including mid-delivery. Going offline from Offline is idempotent so
// the staleness sweep can apply it without checking first.
//
// Returns:
//   - (Offline, nil) on valid transition
//   - (0, error) if the current availability is itself invalid
func (a Availability) GoOffline() (Availability, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}

	return Offline, nil
}
