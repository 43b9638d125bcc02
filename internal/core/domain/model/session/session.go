package session

import (
	"errors"
	"time"

	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/pkg/guard"
)

// Domain errors for tracking session operations.
var (
	// ErrSessionIsClosed is returned when subscribing to a closed session.
	ErrSessionIsClosed = errors.New("tracking session is closed")

	// ErrCreatedAtIsRequired is returned when a session carries a zero creation time.
	ErrCreatedAtIsRequired = errors.New("createdAt is required")

	// ErrSessionIsNotConstructed is returned when using an improperly
	// initialized TrackingSession.
	ErrSessionIsNotConstructed = errors.New("TrackingSession must be created via NewTrackingSession constructor")
)

// TrackingSession represents the live tracking subscription for one order.
// It is an aggregate root binding the accepted order's driver to the set of
// connections entitled to observe the driver's position stream.
//
// Business rules:
//   - Subscribing is idempotent: adding an existing subscriber changes nothing
//   - A closed session accepts no new subscribers
//   - Closing is idempotent and drops all subscribers
//
// Sessions are plain domain objects with no internal locking; the tracking
// session manager owns concurrency control around them.
type TrackingSession struct {
	// id uniquely identifies the session
	id kernel.UUID
	// orderID is the order this session tracks
	orderID kernel.UUID
	// driverID is the driver whose position stream the session exposes
	driverID kernel.UUID
	// subscribers are the connections entitled to receive session events
	subscribers map[kernel.UUID]struct{}
	// createdAt is the time the session was opened
	createdAt time.Time
	// closed marks the session as terminated
	closed bool
	// guard ensures the session was properly constructed
	guard guard.ConstructorGuard
}

// NewTrackingSession creates a new open TrackingSession for an accepted order.
// This is the only way to create a valid session instance.
//
// Parameters:
//   - orderID: The accepted order (must be a valid UUID)
//   - driverID: The driver bound to the order (must be a valid UUID)
//   - createdAt: Opening time (must be non-zero)
//
// Returns:
//   - *TrackingSession: A fully initialized open session with no subscribers
//   - error: Validation error if any parameter is invalid
func NewTrackingSession(orderID, driverID kernel.UUID, createdAt time.Time) (*TrackingSession, error) {
	s := &TrackingSession{
		id:          kernel.NewUUID(),
		subscribers: make(map[kernel.UUID]struct{}),
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		s.setOrderID(orderID),
		s.setDriverID(driverID),
		s.setCreatedAt(createdAt),
	); err != nil {
		return nil, err
	}

	return s, nil
}

// Validate checks if the session was properly constructed using the constructor.
// The zero value of TrackingSession is invalid and will fail this validation.
func (s *TrackingSession) Validate() error {
	if s == nil {
		return ErrSessionIsNotConstructed
	}
	return s.guard.Validate(ErrSessionIsNotConstructed)
}

// ID returns the unique identifier of the session.
func (s *TrackingSession) ID() kernel.UUID {
	return s.id
}

// OrderID returns the order this session tracks.
func (s *TrackingSession) OrderID() kernel.UUID {
	return s.orderID
}

// DriverID returns the driver whose position stream the session exposes.
func (s *TrackingSession) DriverID() kernel.UUID {
	return s.driverID
}

// CreatedAt returns the time the session was opened.
func (s *TrackingSession) CreatedAt() time.Time {
	return s.createdAt
}

// IsClosed reports whether the session has been terminated.
func (s *TrackingSession) IsClosed() bool {
	return s.closed
}

// Subscribers returns the connections currently entitled to session events.
// The returned slice is a copy to prevent external modification.
func (s *TrackingSession) Subscribers() []kernel.UUID {
	out := make([]kernel.UUID, 0, len(s.subscribers))
	for connectionID := range s.subscribers {
		out = append(out, connectionID)
	}
	return out
}

// IsSubscribed reports whether the connection is a subscriber of this session.
func (s *TrackingSession) IsSubscribed(connectionID kernel.UUID) bool {
	_, ok := s.subscribers[connectionID]
	return ok
}

// Subscribe adds a connection to the session's subscriber set.
// Subscribing an existing subscriber is idempotent.
//
// Parameters:
//   - connectionID: The connection to subscribe (must be a valid UUID)
//
// Returns:
//   - error: ErrSessionIsClosed on a closed session, validation error on
//     an invalid connection ID, nil on success
func (s *TrackingSession) Subscribe(connectionID kernel.UUID) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := connectionID.Validate(); err != nil {
		return err
	}
	if s.closed {
		return ErrSessionIsClosed
	}

	s.subscribers[connectionID] = struct{}{}
	return nil
}

// Unsubscribe removes a connection from the session's subscriber set.
//
// Parameters:
//   - connectionID: The connection to remove
//
// Returns:
//   - bool: true if the connection was subscribed, false otherwise
func (s *TrackingSession) Unsubscribe(connectionID kernel.UUID) bool {
	if _, ok := s.subscribers[connectionID]; !ok {
		return false
	}

	delete(s.subscribers, connectionID)
	return true
}

// Close terminates the session and drops all subscribers.
// Closing an already closed session is idempotent.
//
// Returns:
//   - []kernel.UUID: The subscribers removed by this call, in no particular order
func (s *TrackingSession) Close() []kernel.UUID {
	if s.closed {
		return nil
	}

	removed := s.Subscribers()
	s.subscribers = make(map[kernel.UUID]struct{})
	s.closed = true
	return removed
}

// setOrderID sets the order identifier with validation.
// This is an internal setter used during session construction.
func (s *TrackingSession) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	s.orderID = orderID
	return nil
}

// setDriverID sets the driver identifier with validation.
// This is an internal setter used during session construction.
func (s *TrackingSession) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	s.driverID = driverID
	return nil
}

// setCreatedAt sets the opening time with validation.
// This is an internal setter used during session construction.
func (s *TrackingSession) setCreatedAt(createdAt time.Time) error {
	if createdAt.IsZero() {
		return ErrCreatedAtIsRequired
	}

	s.createdAt = createdAt
	return nil
}
