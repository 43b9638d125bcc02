package tracking

import (
	"log/slog"
	"sync"
	"time"

	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/core/domain/model/session"
	"fueltrack/internal/pkg/errs"
)

// ErrSessionAlreadyOpen is returned when a tracking session is opened for an
// order that already has one.
var ErrSessionAlreadyOpen = errs.NewValueIsInvalidError(
	"order already has an open tracking session")

// Snapshot is a read-only view of a live tracking session.
type Snapshot struct {
	SessionID   kernel.UUID
	OrderID     kernel.UUID
	DriverID    kernel.UUID
	Subscribers []kernel.UUID
}

// Manager owns the lifecycle of tracking sessions.
//
// A session opens when a driver accepts an order and closes when the delivery
// reaches a terminal state. At most one session exists per order, and a driver
// drives at most one active delivery, so both lookups are unique. Close
// listeners fire outside the manager lock.
type Manager struct {
	logger *slog.Logger

	mu       sync.RWMutex
	byOrder  map[kernel.UUID]*session.TrackingSession
	byDriver map[kernel.UUID]kernel.UUID

	onClose []func(orderID kernel.UUID, subscribers []kernel.UUID)
}

// NewManager creates an empty session manager. A nil logger falls back to the
// default slog logger.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		logger:   logger.With("component", "tracking_manager"),
		byOrder:  make(map[kernel.UUID]*session.TrackingSession),
		byDriver: make(map[kernel.UUID]kernel.UUID),
	}
}

// OnClose registers a listener fired when a session closes. Listeners must be
// registered before the manager is in use.
func (m *Manager) OnClose(fn func(orderID kernel.UUID, subscribers []kernel.UUID)) {
	m.onClose = append(m.onClose, fn)
}

// Open creates a tracking session binding a driver to an order.
//
// Returns ErrSessionAlreadyOpen when the order already has a session.
func (m *Manager) Open(orderID, driverID kernel.UUID, now time.Time) (kernel.UUID, error) {
	sess, err := session.NewTrackingSession(orderID, driverID, now)
	if err != nil {
		return kernel.UUID{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byOrder[orderID]; exists {
		return kernel.UUID{}, ErrSessionAlreadyOpen
	}
	m.byOrder[orderID] = sess
	m.byDriver[driverID] = orderID

	m.logger.Debug("tracking session opened",
		"session_id", sess.ID(), "order_id", orderID, "driver_id", driverID)
	return sess.ID(), nil
}

// Subscribe adds a connection to an order's tracking session. Subscribing the
// same connection twice is a no-op.
func (m *Manager) Subscribe(orderID, connID kernel.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.byOrder[orderID]
	if !ok {
		return errs.NewObjectNotFoundError("tracking session", orderID)
	}
	return sess.Subscribe(connID)
}

// Unsubscribe removes a connection from an order's tracking session. It
// reports whether the connection was subscribed.
func (m *Manager) Unsubscribe(orderID, connID kernel.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.byOrder[orderID]
	if !ok {
		return false
	}
	return sess.Unsubscribe(connID)
}

// RemoveSubscriberEverywhere drops a connection from every session it is
// subscribed to. Used when a client disconnects.
func (m *Manager) RemoveSubscriberEverywhere(connID kernel.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sess := range m.byOrder {
		sess.Unsubscribe(connID)
	}
}

// Close ends the session for an order, returning the subscribers that were
// attached. It reports whether a session existed. Close listeners fire after
// the manager lock is released.
func (m *Manager) Close(orderID kernel.UUID) ([]kernel.UUID, bool) {
	m.mu.Lock()
	sess, ok := m.byOrder[orderID]
	var subscribers []kernel.UUID
	if ok {
		subscribers = sess.Close()
		delete(m.byOrder, orderID)
		delete(m.byDriver, sess.DriverID())
	}
	m.mu.Unlock()

	if !ok {
		return nil, false
	}

	for _, fn := range m.onClose {
		fn(orderID, subscribers)
	}
	m.logger.Debug("tracking session closed",
		"order_id", orderID, "subscriber_count", len(subscribers))
	return subscribers, true
}

// ActiveForOrder returns a snapshot of the session tracking an order.
func (m *Manager) ActiveForOrder(orderID kernel.UUID) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.byOrder[orderID]
	if !ok {
		return Snapshot{}, false
	}
	return snapshotOf(sess), true
}

// ActiveForDriver returns a snapshot of the session the driver is currently
// being tracked on.
func (m *Manager) ActiveForDriver(driverID kernel.UUID) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orderID, ok := m.byDriver[driverID]
	if !ok {
		return Snapshot{}, false
	}
	sess, ok := m.byOrder[orderID]
	if !ok {
		return Snapshot{}, false
	}
	return snapshotOf(sess), true
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byOrder)
}

func snapshotOf(sess *session.TrackingSession) Snapshot {
	return Snapshot{
		SessionID:   sess.ID(),
		OrderID:     sess.OrderID(),
		DriverID:    sess.DriverID(),
		Subscribers: sess.Subscribers(),
	}
}
