package assignment

import (
	"fmt"

	"fueltrack/internal/pkg/errs"
)

// Status represents the lifecycle state of an order assignment.
// It implements a state machine with defined transitions to ensure
// assignments follow the correct dispatch workflow.
//
// State transitions:
//
//	Pending ──> Offered ──> Accepted ──> InTransit ──> Delivered
//	   ^           │
//	   └───────────┘
//	  (offer declined or expired, next round)
//
//	Pending ──> DispatchFailed          (offer rounds exhausted)
//	any non-terminal ──> Cancelled
//
// Delivered, Cancelled and DispatchFailed are terminal: no transition
// ever leaves them.
//
// Status is a value object that validates state transitions
// and provides string representations for persistence and display.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status when an order enters dispatch scope.
	// Pending assignments are waiting for an eligible driver.
	Pending

	// Offered indicates the order is currently offered to exactly one driver
	// with a deadline. The offer either gets accepted or the assignment
	// returns to Pending for the next round.
	Offered

	// Accepted indicates the offered driver accepted the order.
	// A tracking session is opened at this point.
	Accepted

	// InTransit indicates the driver departed and the delivery run is live.
	InTransit

	// Delivered indicates the order was successfully delivered.
	// This is a final state with no further transitions allowed.
	Delivered

	// Cancelled indicates the order was cancelled before delivery.
	// This is a final state with no further transitions allowed.
	Cancelled

	// DispatchFailed indicates no driver accepted within the allowed
	// number of offer rounds. This is a final state handed to the
	// order ledger for manual handling.
	DispatchFailed
)

// getStatusStrings returns a map of Status values to their string representations.
// All statuses are included for string conversion.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:        "Unknown",
		Pending:        "Pending",
		Offered:        "Offered",
		Accepted:       "Accepted",
		InTransit:      "InTransit",
		Delivered:      "Delivered",
		Cancelled:      "Cancelled",
		DispatchFailed: "DispatchFailed",
	}
}

// getValidStatusStrings returns a map of only valid Status values.
// Only valid statuses are included to support validation.
func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Pending:        "Pending",
		Offered:        "Offered",
		Accepted:       "Accepted",
		InTransit:      "InTransit",
		Delivered:      "Delivered",
		Cancelled:      "Cancelled",
		DispatchFailed: "DispatchFailed",
	}
}

// Validate checks if the Status value is valid.
//
// Valid statuses are: Pending, Offered, Accepted, InTransit, Delivered,
// Cancelled, DispatchFailed. Unknown (0) and any other values are invalid.
//
// Returns:
//   - nil if the status is valid
//   - error with details if the status is invalid
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the human-readable name of the status.
//
// This method implements the fmt.Stringer interface and is safe
// to call on any Status value, including invalid ones.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether the status is final.
// Terminal statuses are Delivered, Cancelled and DispatchFailed.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled || s == DispatchFailed
}

// Offer transitions the status to Offered.
//
// Valid transitions:
//   - Pending -> Offered (a driver is selected for this round)
//
// Returns:
//   - (Offered, nil) on valid transition
//   - (0, error) if transition is not allowed from current status
func (s Status) Offer() (Status, error) {
	if s != Pending {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to offer", s.String()),
		)
	}

	return Offered, nil
}

// Accept transitions the status to Accepted.
//
// Valid transitions:
//   - Offered -> Accepted (the offered driver accepted in time)
//
// Returns:
//   - (Accepted, nil) on valid transition
//   - (0, error) if transition is not allowed from current status
func (s Status) Accept() (Status, error) {
	if s != Offered {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to accept", s.String()),
		)
	}

	return Accepted, nil
}

// Requeue transitions the status back to Pending for the next offer round.
//
// Valid transitions:
//   - Offered -> Pending (offer declined or expired)
//
// Returns:
//   - (Pending, nil) on valid transition
//   - (0, error) if transition is not allowed from current status
func (s Status) Requeue() (Status, error) {
	if s != Offered {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to requeue", s.String()),
		)
	}

	return Pending, nil
}

// Start transitions the status to InTransit.
//
// Valid transitions:
//   - Accepted -> InTransit (driver departed)
//
// Returns:
//   - (InTransit, nil) on valid transition
//   - (0, error) if transition is not allowed from current status
func (s Status) Start() (Status, error) {
	if s != Accepted {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to start transit", s.String()),
		)
	}

	return InTransit, nil
}

// Complete transitions the status to Delivered.
//
// Valid transitions:
//   - InTransit -> Delivered (delivery confirmed)
//
// Returns:
//   - (Delivered, nil) on valid transition
//   - (0, error) if transition is not allowed from current status
func (s Status) Complete() (Status, error) {
	if s != InTransit {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to complete", s.String()),
		)
	}

	return Delivered, nil
}

// Cancel transitions the status to Cancelled.
//
// Valid from any non-terminal status. Cancelling a terminal assignment
// is rejected by the aggregate with ErrAlreadyTerminal before this
// method is reached.
//
// Returns:
//   - (Cancelled, nil) on valid transition
//   - (0, error) if the current status is terminal or invalid
func (s Status) Cancel() (Status, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	if s.IsTerminal() {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to cancel", s.String()),
		)
	}

	return Cancelled, nil
}

// Fail transitions the status to DispatchFailed.
//
// Valid transitions:
//   - Pending -> DispatchFailed (offer rounds exhausted with no acceptance)
//
// Returns:
//   - (DispatchFailed, nil) on valid transition
//   - (0, error) if transition is not allowed from current status
func (s Status) Fail() (Status, error) {
	if s != Pending {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to fail dispatch", s.String()),
		)
	}

	return DispatchFailed, nil
}
