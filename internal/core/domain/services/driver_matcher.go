package services

import (
	"errors"
	"math"
	"time"

	"fueltrack/internal/core/domain/model/assignment"
	"fueltrack/internal/core/domain/model/driver"
	"fueltrack/internal/core/domain/model/kernel"
)

// ErrDriverNotFound is returned when no suitable driver is available for an
// order offer. This occurs when no candidates are provided, or every
// candidate is busy, stale, too far away, or already excluded for the order.
var ErrDriverNotFound = errors.New("driver not found")

// fallbackSpeedKmh is the assumed travel speed when a driver reports no
// usable speed, matching typical urban fuel-truck movement.
const fallbackSpeedKmh = 30.0

// DriverMatcher is a domain service responsible for selecting the driver to
// offer an order to, based on proximity to the drop-off destination.
//
// Key responsibilities:
//   - Filtering candidates down to dispatchable drivers (Available, fresh fix)
//   - Skipping drivers already excluded for the order
//   - Selecting the nearest driver by great-circle distance
//   - Breaking distance ties by most recent location fix
//
// The matcher only selects; making the offer (and owning the per-order lock)
// is the dispatch engine's job.
//
// Example usage:
//
//	matcher := NewDriverMatcher(90 * time.Second)
//	best, err := matcher.Match(orderAssignment, records, time.Now())
//	if errors.Is(err, ErrDriverNotFound) {
//	    // No eligible driver right now, the order stays queued
//	    return
//	}
type DriverMatcher struct {
	// staleAfter is the location freshness threshold for dispatch eligibility
	staleAfter time.Duration
}

// NewDriverMatcher creates a new DriverMatcher.
//
// Parameters:
//   - staleAfter: Location fixes older than this are treated as Offline
//
// Returns:
//   - DriverMatcher: A new instance ready for matching operations
func NewDriverMatcher(staleAfter time.Duration) DriverMatcher {
	return DriverMatcher{staleAfter: staleAfter}
}

// Match selects the best driver for the given order assignment.
//
// Parameters:
//   - a: The assignment to match (must be valid)
//   - candidates: Driver records to consider, typically the store's available set
//   - now: The matching time, used for staleness checks
//
// Returns:
//   - *driver.DriverLocationRecord: The selected driver's record
//   - error: ErrDriverNotFound if no eligible driver exists, or validation errors
//
// Selection algorithm:
//   - Validates the assignment and each candidate record
//   - Drops candidates that are not dispatchable or are excluded for this order
//   - Selects minimum haversine distance to the drop-off destination
//   - On equal distance, prefers the most recently updated record
func (m DriverMatcher) Match(
	a *assignment.OrderAssignment,
	candidates []*driver.DriverLocationRecord,
	now time.Time,
) (*driver.DriverLocationRecord, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	var (
		best         *driver.DriverLocationRecord
		bestDistance = math.MaxFloat64
	)

	for _, record := range candidates {
		if err := record.Validate(); err != nil {
			return nil, err
		}

		if !record.IsDispatchable(now, m.staleAfter) {
			continue
		}
		if a.IsExcluded(record.DriverID()) {
			continue
		}

		distance, err := record.Position().DistanceKm(a.Destination())
		if err != nil {
			return nil, err
		}

		if distance < bestDistance || (distance == bestDistance && m.isFresher(record, best)) {
			bestDistance = distance
			best = record
		}
	}

	if best == nil {
		return nil, ErrDriverNotFound
	}

	return best, nil
}

// isFresher reports whether record has a more recent fix than current.
func (m DriverMatcher) isFresher(record, current *driver.DriverLocationRecord) bool {
	if current == nil {
		return true
	}
	return record.RecordedAt().After(current.RecordedAt())
}

// EstimateTravelTime estimates the travel time between two points at the
// given ground speed. When the speed is not usable (zero or negative, e.g.
// a parked truck), the urban fallback speed is assumed. The estimate is a
// straight-line haversine approximation, not a routed one.
//
// Parameters:
//   - from: Current position
//   - to: Destination
//   - speedKmh: Last reported ground speed in km/h
//
// Returns:
//   - time.Duration: Estimated travel time
//   - error: Validation error if either point is invalid
func EstimateTravelTime(from, to kernel.GeoPoint, speedKmh float64) (time.Duration, error) {
	distanceKm, err := from.DistanceKm(to)
	if err != nil {
		return 0, err
	}

	if speedKmh <= 0 {
		speedKmh = fallbackSpeedKmh
	}

	hours := distanceKm / speedKmh
	return time.Duration(hours * float64(time.Hour)), nil
}
