package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"fueltrack/internal/core/application/tracking"
	"fueltrack/internal/core/domain/model/assignment"
	"fueltrack/internal/core/domain/model/driver"
	"fueltrack/internal/core/domain/model/kernel"
)

// Event types carried in the envelope's Type field.
const (
	EventDriverPosition = "driver_position"
	EventOrderStatus    = "order_status"
	EventDeliveryOffer  = "delivery_offer"
	EventDispatchFailed = "dispatch_failed"
)

const defaultMaxSendFailures = 3

// Envelope is the JSON frame every outbound event is wrapped in.
//
// Seq is a per-session counter so clients can detect gaps and reordering;
// direct messages (offers, dispatch failures) carry no session and no Seq.
type Envelope struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	OrderID   string    `json:"order_id"`
	Seq       uint64    `json:"seq,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// PositionPayload is the body of a driver_position event.
type PositionPayload struct {
	DriverID   string    `json:"driver_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Heading    float64   `json:"heading"`
	SpeedKmh   float64   `json:"speed_kmh"`
	AccuracyM  float64   `json:"accuracy_m"`
	RecordedAt time.Time `json:"recorded_at"`
}

// StatusPayload is the body of an order_status event.
type StatusPayload struct {
	Status   string `json:"status"`
	DriverID string `json:"driver_id,omitempty"`
}

// OfferPayload is the body of a delivery_offer event sent to a driver.
type OfferPayload struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Address    string    `json:"address"`
	FuelLiters float64   `json:"fuel_liters"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Offer describes a delivery offer to present to a driver. It is a plain
// value so publishers can hand it over without sharing mutable state.
type Offer struct {
	OrderID     kernel.UUID
	Destination kernel.GeoPoint
	Address     string
	FuelLiters  float64
	ExpiresAt   time.Time
}

// Sessions is the slice of the tracking manager the router needs.
type Sessions interface {
	ActiveForDriver(driverID kernel.UUID) (tracking.Snapshot, bool)
	ActiveForOrder(orderID kernel.UUID) (tracking.Snapshot, bool)
	Unsubscribe(orderID, connID kernel.UUID) bool
}

// Transport delivers marshaled frames to client connections.
type Transport interface {
	Send(connID kernel.UUID, payload []byte) error
	SendToActor(actorID kernel.UUID, payload []byte) int
}

// Config tunes router behavior.
type Config struct {
	// MaxSendFailures is how many consecutive failed sends a subscriber
	// survives before it is dropped from the session. Zero means 3.
	MaxSendFailures int
}

// Router fans tracking events out to session subscribers and routes direct
// messages to individual actors.
//
// Every session event is stamped with a monotonically increasing per-session
// sequence number, and frames reach each subscriber in that order even when
// publishers race. A send failure never aborts the fan-out: the failing
// subscriber is skipped, and after MaxSendFailures consecutive failures it is
// unsubscribed so one dead client cannot degrade the session.
type Router struct {
	cfg       Config
	logger    *slog.Logger
	sessions  Sessions
	transport Transport

	mu       sync.Mutex
	seq      map[kernel.UUID]uint64
	failures map[kernel.UUID]int
}

// NewRouter creates a router over the given session and transport layers.
// A nil logger falls back to the default slog logger.
func NewRouter(cfg Config, sessions Sessions, transport Transport, logger *slog.Logger) *Router {
	if cfg.MaxSendFailures <= 0 {
		cfg.MaxSendFailures = defaultMaxSendFailures
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Router{
		cfg:       cfg,
		logger:    logger.With("component", "broadcast_router"),
		sessions:  sessions,
		transport: transport,
		seq:       make(map[kernel.UUID]uint64),
		failures:  make(map[kernel.UUID]int),
	}
}

// PublishPosition fans a driver's position out to the subscribers of the
// session the driver is being tracked on. Positions for drivers without an
// active session are dropped. Returns the number of subscribers reached.
func (r *Router) PublishPosition(record *driver.DriverLocationRecord) int {
	snapshot, ok := r.sessions.ActiveForDriver(record.DriverID())
	if !ok {
		return 0
	}

	position := record.Position()
	return r.fanOut(snapshot, EventDriverPosition, record.RecordedAt(), PositionPayload{
		DriverID:   record.DriverID().String(),
		Latitude:   position.Latitude(),
		Longitude:  position.Longitude(),
		Heading:    record.Heading(),
		SpeedKmh:   record.SpeedKmh(),
		AccuracyM:  record.AccuracyM(),
		RecordedAt: record.RecordedAt(),
	})
}

// PublishStatus fans an order status change out to the order's session
// subscribers. Orders without an open session are dropped. Returns the number
// of subscribers reached.
func (r *Router) PublishStatus(event assignment.DeliveryEvent) int {
	snapshot, ok := r.sessions.ActiveForOrder(event.OrderID())
	if !ok {
		return 0
	}

	payload := StatusPayload{Status: event.Status().String()}
	if driverID := event.DriverID(); driverID != nil {
		payload.DriverID = driverID.String()
	}
	return r.fanOut(snapshot, EventOrderStatus, event.OccurredAt(), payload)
}

// OfferToDriver sends a delivery offer directly to every live connection of a
// driver. Returns the number of connections reached.
func (r *Router) OfferToDriver(driverID kernel.UUID, offer Offer, now time.Time) int {
	frame, err := json.Marshal(Envelope{
		Type:      EventDeliveryOffer,
		OrderID:   offer.OrderID.String(),
		Timestamp: now,
		Payload: OfferPayload{
			Latitude:   offer.Destination.Latitude(),
			Longitude:  offer.Destination.Longitude(),
			Address:    offer.Address,
			FuelLiters: offer.FuelLiters,
			ExpiresAt:  offer.ExpiresAt,
		},
	})
	if err != nil {
		r.logger.Error("marshal offer frame failed", "order_id", offer.OrderID, "error", err)
		return 0
	}
	return r.transport.SendToActor(driverID, frame)
}

// NotifyDispatchFailed informs a customer's live connections that no driver
// could be found for their order. Returns the number of connections reached.
func (r *Router) NotifyDispatchFailed(orderID, customerID kernel.UUID, now time.Time) int {
	frame, err := json.Marshal(Envelope{
		Type:      EventDispatchFailed,
		OrderID:   orderID.String(),
		Timestamp: now,
		Payload:   StatusPayload{Status: assignment.DispatchFailed.String()},
	})
	if err != nil {
		r.logger.Error("marshal dispatch failure frame failed", "order_id", orderID, "error", err)
		return 0
	}
	return r.transport.SendToActor(customerID, frame)
}

// ReleaseOrder discards the sequence counter of a closed session. Wired to
// the tracking manager's close listener.
func (r *Router) ReleaseOrder(orderID kernel.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seq, orderID)
}

// fanOut stamps the next per-session sequence number and delivers the frame
// to every subscriber. The lock stays held across the sends: two publishers
// racing on the same session would otherwise be free to reach a subscriber in
// inverted sequence order. Transport sends are non-blocking enqueues, so the
// critical section never waits on a peer.
func (r *Router) fanOut(snapshot tracking.Snapshot, eventType string, timestamp time.Time, payload any) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq[snapshot.OrderID]++
	frame, err := json.Marshal(Envelope{
		Type:      eventType,
		SessionID: snapshot.SessionID.String(),
		OrderID:   snapshot.OrderID.String(),
		Seq:       r.seq[snapshot.OrderID],
		Timestamp: timestamp,
		Payload:   payload,
	})
	if err != nil {
		r.logger.Error("marshal session frame failed",
			"order_id", snapshot.OrderID, "type", eventType, "error", err)
		return 0
	}

	delivered := 0
	for _, connID := range snapshot.Subscribers {
		if err := r.transport.Send(connID, frame); err != nil {
			r.recordFailure(snapshot.OrderID, connID, err)
			continue
		}
		delete(r.failures, connID)
		delivered++
	}
	return delivered
}

// recordFailure runs with r.mu held.
func (r *Router) recordFailure(orderID, connID kernel.UUID, cause error) {
	r.failures[connID]++
	count := r.failures[connID]
	if count < r.cfg.MaxSendFailures {
		r.logger.Debug("subscriber send failed",
			"order_id", orderID, "connection_id", connID, "error", cause)
		return
	}

	delete(r.failures, connID)
	r.sessions.Unsubscribe(orderID, connID)
	r.logger.Warn("dropped unresponsive subscriber",
		"order_id", orderID, "connection_id", connID, "failures", count)
}
