package driver

import (
	"errors"
	"time"

	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/pkg/errs"
	"fueltrack/internal/pkg/guard"
)

const (
	// HeadingMin is the minimum valid compass heading in degrees.
	HeadingMin = 0.0
	// HeadingMax is the maximum valid compass heading in degrees.
	HeadingMax = 360.0
)

// Domain errors for driver location record operations.
var (
	// ErrRecordedAtIsRequired is returned when a location fix carries a zero timestamp.
	ErrRecordedAtIsRequired = errs.NewValueIsRequiredError("recordedAt")
	// ErrRecordIsNotConstructed is returned when using an improperly initialized DriverLocationRecord.
	ErrRecordIsNotConstructed = errors.New("DriverLocationRecord must be created via NewDriverLocationRecord constructor")
)

// DriverLocationRecord represents the live state of a single driver.
// It is an aggregate root that holds the latest accepted GPS fix together
// with the driver's availability for dispatch.
//
// Key responsibilities:
//   - Keeping the newest position, heading, speed and accuracy reported by the driver
//   - Rejecting out-of-order fixes so stale GPS data never overwrites fresh data
//   - Enforcing the availability state machine through named transitions
//   - Answering staleness and dispatch-eligibility questions
//
// Business rules:
//   - The fix timestamp is monotonically non-decreasing
//   - Heading is a compass bearing in [0, 360] degrees
//   - Speed and accuracy are non-negative
//   - Only Available drivers with a fresh fix are eligible for dispatch
//
// Example usage:
//
//	position, _ := kernel.NewGeoPoint(12.9716, 77.5946)
//	record, err := NewDriverLocationRecord(driverID, position, 90, 40, 5, time.Now())
//	if err != nil {
//	    // Handle construction error
//	}
//	// Record starts Available and ready for fixes
type DriverLocationRecord struct {
	// driverID uniquely identifies the driver
	driverID kernel.UUID
	// position is the latest accepted GPS coordinate
	position kernel.GeoPoint
	// heading is the compass bearing in degrees at the latest fix
	heading float64
	// speedKmh is the reported ground speed in km/h at the latest fix
	speedKmh float64
	// accuracyM is the reported GPS accuracy radius in meters
	accuracyM float64
	// recordedAt is the driver-reported time of the latest accepted fix
	recordedAt time.Time
	// availability is the driver's current dispatch eligibility state
	availability Availability
	// guard ensures the record was properly constructed
	guard guard.ConstructorGuard
}

// NewDriverLocationRecord creates a new DriverLocationRecord from the first
// location fix of a connecting driver. This is the only way to create a valid
// record instance.
//
// The record starts in the Available state: a driver that just reported a
// position is online and eligible for dispatch.
//
// Parameters:
//   - driverID: Unique identifier of the driver (must be a valid UUID)
//   - position: Initial GPS coordinate (must be a valid GeoPoint)
//   - heading: Compass bearing in degrees, [0, 360]
//   - speedKmh: Ground speed in km/h, non-negative
//   - accuracyM: GPS accuracy radius in meters, non-negative
//   - recordedAt: Driver-reported fix time (must be non-zero)
//
// Returns:
//   - *DriverLocationRecord: A fully initialized record in the Available state
//   - error: Validation error if any parameter is invalid (aggregated errors for multiple issues)
func NewDriverLocationRecord(
	driverID kernel.UUID,
	position kernel.GeoPoint,
	heading float64,
	speedKmh float64,
	accuracyM float64,
	recordedAt time.Time,
) (*DriverLocationRecord, error) {
	record := &DriverLocationRecord{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		record.setDriverID(driverID),
		record.setPosition(position),
		record.setHeading(heading),
		record.setSpeedKmh(speedKmh),
		record.setAccuracyM(accuracyM),
		record.setRecordedAt(recordedAt),
	); err != nil {
		return nil, err
	}

	record.availability = Available
	return record, nil
}

// RestoreDriverLocationRecord reconstructs a DriverLocationRecord from a
// persisted or snapshotted state, including its availability. Unlike
// NewDriverLocationRecord, which always starts Available, this constructor
// restores the record exactly as it was captured.
//
// Returns:
//   - *DriverLocationRecord: Restored record aggregate
//   - error: Validation error if any parameter is invalid
func RestoreDriverLocationRecord(
	driverID kernel.UUID,
	position kernel.GeoPoint,
	heading float64,
	speedKmh float64,
	accuracyM float64,
	recordedAt time.Time,
	availability Availability,
) (*DriverLocationRecord, error) {
	record := &DriverLocationRecord{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		record.setDriverID(driverID),
		record.setPosition(position),
		record.setHeading(heading),
		record.setSpeedKmh(speedKmh),
		record.setAccuracyM(accuracyM),
		record.setRecordedAt(recordedAt),
		record.setAvailability(availability),
	); err != nil {
		return nil, err
	}

	return record, nil
}

// IsEqual compares two records for equality based on their driver identifiers.
// Two records are considered equal if they belong to the same driver,
// regardless of position or availability.
func (r *DriverLocationRecord) IsEqual(other *DriverLocationRecord) bool {
	if other == nil {
		return false
	}
	return r.driverID.IsEqual(other.driverID)
}

// Validate checks if the record was properly constructed using a constructor.
// The zero value of DriverLocationRecord is invalid and will fail this validation.
//
// Returns:
//   - error: ErrRecordIsNotConstructed if improperly initialized, nil if valid
func (r *DriverLocationRecord) Validate() error {
	if r == nil {
		return ErrRecordIsNotConstructed
	}
	return r.guard.Validate(ErrRecordIsNotConstructed)
}

// DriverID returns the unique identifier of the driver.
func (r *DriverLocationRecord) DriverID() kernel.UUID {
	return r.driverID
}

// Position returns the latest accepted GPS coordinate.
func (r *DriverLocationRecord) Position() kernel.GeoPoint {
	return r.position
}

// Heading returns the compass bearing in degrees at the latest fix.
func (r *DriverLocationRecord) Heading() float64 {
	return r.heading
}

// SpeedKmh returns the ground speed in km/h at the latest fix.
func (r *DriverLocationRecord) SpeedKmh() float64 {
	return r.speedKmh
}

// AccuracyM returns the GPS accuracy radius in meters at the latest fix.
func (r *DriverLocationRecord) AccuracyM() float64 {
	return r.accuracyM
}

// RecordedAt returns the driver-reported time of the latest accepted fix.
func (r *DriverLocationRecord) RecordedAt() time.Time {
	return r.recordedAt
}

// Availability returns the driver's current dispatch eligibility state.
func (r *DriverLocationRecord) Availability() Availability {
	return r.availability
}

// ApplyFix updates the record with a new location fix.
//
// Fixes are ordered by their driver-reported timestamp. A fix older than the
// currently held one is silently ignored: the method reports applied=false
// and leaves the record unchanged. A fix with an equal or newer timestamp
// replaces the held telemetry.
//
// Parameters:
//   - position: New GPS coordinate (must be a valid GeoPoint)
//   - heading: Compass bearing in degrees, [0, 360]
//   - speedKmh: Ground speed in km/h, non-negative
//   - accuracyM: GPS accuracy radius in meters, non-negative
//   - recordedAt: Driver-reported fix time (must be non-zero)
//
// Returns:
//   - bool: true if the fix was applied, false if it was ignored as out of order
//   - error: Validation error if any parameter is invalid; the record is unchanged on error
func (r *DriverLocationRecord) ApplyFix(
	position kernel.GeoPoint,
	heading float64,
	speedKmh float64,
	accuracyM float64,
	recordedAt time.Time,
) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}

	if recordedAt.IsZero() {
		return false, ErrRecordedAtIsRequired
	}

	if recordedAt.Before(r.recordedAt) {
		return false, nil
	}

	// Validate everything before mutating so a bad fix cannot leave the
	// record half updated.
	candidate := DriverLocationRecord{guard: guard.NewConstructorGuard()}
	if err := errors.Join(
		candidate.setPosition(position),
		candidate.setHeading(heading),
		candidate.setSpeedKmh(speedKmh),
		candidate.setAccuracyM(accuracyM),
		candidate.setRecordedAt(recordedAt),
	); err != nil {
		return false, err
	}

	r.position = candidate.position
	r.heading = candidate.heading
	r.speedKmh = candidate.speedKmh
	r.accuracyM = candidate.accuracyM
	r.recordedAt = candidate.recordedAt
	return true, nil
}

// IsStale reports whether the latest fix is older than maxAge at the given time.
// Stale records are excluded from dispatch until a fresh fix arrives.
func (r *DriverLocationRecord) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(r.recordedAt) > maxAge
}

// IsDispatchable reports whether the driver may receive dispatch offers at
// the given time: the driver must be Available and the fix must be fresh.
func (r *DriverLocationRecord) IsDispatchable(now time.Time, maxAge time.Duration) bool {
	return r.availability.IsDispatchable() && !r.IsStale(now, maxAge)
}

// GoOnline marks the driver as Available.
//
// Valid from Offline (driver connects) and Available (reconnect).
//
// Returns:
//   - error: Transition error if the driver holds an active assignment
func (r *DriverLocationRecord) GoOnline() error {
	if err := r.Validate(); err != nil {
		return err
	}

	availability, err := r.availability.GoOnline()
	if err != nil {
		return err
	}

	r.availability = availability
	return nil
}

// Engage marks the driver as Busy after accepting an assignment.
//
// Valid only from Available.
//
// Returns:
//   - error: Transition error if the driver is not Available
func (r *DriverLocationRecord) Engage() error {
	if err := r.Validate(); err != nil {
		return err
	}

	availability, err := r.availability.Engage()
	if err != nil {
		return err
	}

	r.availability = availability
	return nil
}

// Depart marks the driver as EnRoute when the delivery run starts.
//
// Valid only from Busy.
//
// Returns:
//   - error: Transition error if the driver is not Busy
func (r *DriverLocationRecord) Depart() error {
	if err := r.Validate(); err != nil {
		return err
	}

	availability, err := r.availability.Depart()
	if err != nil {
		return err
	}

	r.availability = availability
	return nil
}

// Release returns the driver to Available after the active assignment ends,
// either delivered or cancelled.
//
// Valid from Busy and EnRoute.
//
// Returns:
//   - error: Transition error if the driver holds no active assignment
func (r *DriverLocationRecord) Release() error {
	if err := r.Validate(); err != nil {
		return err
	}

	availability, err := r.availability.Release()
	if err != nil {
		return err
	}

	r.availability = availability
	return nil
}

// GoOffline marks the driver as Offline. Valid from any state, including
// mid-delivery, and idempotent when already Offline.
func (r *DriverLocationRecord) GoOffline() error {
	if err := r.Validate(); err != nil {
		return err
	}

	availability, err := r.availability.GoOffline()
	if err != nil {
		return err
	}

	r.availability = availability
	return nil
}

// setDriverID sets the driver identifier with validation.
// This is an internal setter used during record construction.
func (r *DriverLocationRecord) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	r.driverID = driverID
	return nil
}

// setPosition sets the GPS coordinate with validation.
// This is an internal setter used during construction and fix application.
func (r *DriverLocationRecord) setPosition(position kernel.GeoPoint) error {
	if err := position.Validate(); err != nil {
		return err
	}

	r.position = position
	return nil
}

// setHeading sets the compass bearing with range validation.
// This is an internal setter used during construction and fix application.
func (r *DriverLocationRecord) setHeading(heading float64) error {
	if heading < HeadingMin || heading > HeadingMax {
		return errs.NewValueIsOutOfRangeError("heading", heading, HeadingMin, HeadingMax)
	}

	r.heading = heading
	return nil
}

// setSpeedKmh sets the ground speed with validation.
// This is an internal setter used during construction and fix application.
func (r *DriverLocationRecord) setSpeedKmh(speedKmh float64) error {
	if speedKmh < 0 {
		return errs.NewValueIsInvalidError("speedKmh")
	}

	r.speedKmh = speedKmh
	return nil
}

// setAccuracyM sets the GPS accuracy radius with validation.
// This is an internal setter used during construction and fix application.
func (r *DriverLocationRecord) setAccuracyM(accuracyM float64) error {
	if accuracyM < 0 {
		return errs.NewValueIsInvalidError("accuracyM")
	}

	r.accuracyM = accuracyM
	return nil
}

// setRecordedAt sets the fix timestamp with validation.
// This is an internal setter used during construction and fix application.
func (r *DriverLocationRecord) setRecordedAt(recordedAt time.Time) error {
	if recordedAt.IsZero() {
		return ErrRecordedAtIsRequired
	}

	r.recordedAt = recordedAt
	return nil
}

// setAvailability sets the availability with validation.
// Used during record restoration to establish the state from a snapshot.
func (r *DriverLocationRecord) setAvailability(availability Availability) error {
	if err := availability.Validate(); err != nil {
		return err
	}

	r.availability = availability
	return nil
}
