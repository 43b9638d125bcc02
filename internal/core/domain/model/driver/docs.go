// Package driver contains the DriverLocationRecord aggregate and the
// Availability state machine.
//
// A DriverLocationRecord is the authoritative in-memory view of one driver:
// the latest accepted GPS fix (position, heading, speed, accuracy), the time
// it was recorded, and the driver's availability for dispatch. Records
// enforce two invariants:
//
//   - The recorded timestamp is monotonically non-decreasing: an out-of-order
//     fix is ignored, never overwrites newer data.
//   - Availability only moves along the defined transitions
//     (Offline -> Available -> Busy -> EnRoute -> Available, any -> Offline).
//
// Records are plain domain objects with no internal locking; the location
// store owns concurrency control around them.
package driver
