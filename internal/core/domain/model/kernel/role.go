package kernel

import (
	"fmt"

	"fueltrack/internal/pkg/errs"
)

// Role represents the kind of actor behind a live connection.
// It is a value object used for connection authorization decisions:
// drivers stream positions, customers and admins subscribe to sessions.
type Role int

const (
	// RoleUnknown represents an invalid or undefined role.
	// This value (0) helps catch uninitialized Role values.
	RoleUnknown Role = iota

	// RoleDriver identifies a fuel truck driver connection.
	RoleDriver

	// RoleCustomer identifies an ordering customer connection.
	RoleCustomer

	// RoleAdmin identifies an admin dashboard connection.
	RoleAdmin
)

// getRoleStrings returns a map of Role values to their string representations.
func getRoleStrings() map[Role]string {
	return map[Role]string{
		RoleUnknown:  "Unknown",
		RoleDriver:   "Driver",
		RoleCustomer: "Customer",
		RoleAdmin:    "Admin",
	}
}

// getValidRoleStrings returns a map of only valid Role values.
func getValidRoleStrings() map[Role]string {
	//nolint:exhaustive // RoleUnknown is intentionally excluded as it's invalid
	return map[Role]string{
		RoleDriver:   "Driver",
		RoleCustomer: "Customer",
		RoleAdmin:    "Admin",
	}
}

// RoleFromString parses a role name as carried in verified tokens.
// Parsing is exact and case-sensitive ("Driver", "Customer", "Admin").
func RoleFromString(value string) (Role, error) {
	for role, name := range getValidRoleStrings() {
		if name == value {
			return role, nil
		}
	}

	return RoleUnknown, errs.NewValueIsInvalidErrorWithCause(
		"role is invalid",
		fmt.Errorf("%q is not a valid role", value),
	)
}

// Validate checks if the Role value is valid.
//
// Valid roles are: Driver, Customer, Admin.
// RoleUnknown (0) and any other values are invalid.
func (r Role) Validate() error {
	if _, ok := getValidRoleStrings()[r]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("role is invalid", fmt.Errorf("%d is not a valid role", r))
	}
	return nil
}

// String returns the human-readable name of the role.
//
// This method implements the fmt.Stringer interface and is safe
// to call on any Role value, including invalid ones.
func (r Role) String() string {
	if str, ok := getRoleStrings()[r]; ok {
		return str
	}
	return "Unknown"
}

// IsObserver reports whether the role subscribes to tracking sessions
// rather than producing position data.
func (r Role) IsObserver() bool {
	return r == RoleCustomer || r == RoleAdmin
}
