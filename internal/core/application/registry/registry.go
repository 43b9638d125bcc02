package registry

import (
	"log/slog"
	"sync"
	"time"

	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/pkg/errs"
)

const defaultHeartbeatTimeout = 45 * time.Second

// Config tunes registry behavior.
type Config struct {
	// HeartbeatTimeout is the maximum silence tolerated before a connection
	// is considered dead. Zero means the 45 second default.
	HeartbeatTimeout time.Duration
}

// Registry tracks every live client connection and its authenticated actor.
//
// It enforces the single-connection rule for drivers: a driver reconnecting
// displaces their previous connection. Observers may hold any number of
// concurrent connections. Deregistration listeners fire outside the registry
// lock so they may call back into the registry.
type Registry struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.RWMutex
	conns   map[kernel.UUID]*Connection
	byActor map[kernel.UUID]map[kernel.UUID]struct{}

	onDeregister []func(conn *Connection)
}

// NewRegistry creates an empty registry. A nil logger falls back to the
// default slog logger.
func NewRegistry(cfg Config, logger *slog.Logger) *Registry {
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = defaultHeartbeatTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		cfg:     cfg,
		logger:  logger.With("component", "connection_registry"),
		conns:   make(map[kernel.UUID]*Connection),
		byActor: make(map[kernel.UUID]map[kernel.UUID]struct{}),
	}
}

// OnDeregister registers a listener fired whenever a connection leaves the
// registry, whether by explicit deregistration, displacement or expiry.
// Listeners must be registered before the registry is in use.
func (r *Registry) OnDeregister(fn func(conn *Connection)) {
	r.onDeregister = append(r.onDeregister, fn)
}

// Register adds a connection for an authenticated actor.
//
// A driver registering while already connected displaces the old connection:
// the old sink is closed and deregistration listeners fire for it. Observers
// simply accumulate connections.
func (r *Registry) Register(actorID kernel.UUID, role kernel.Role, sink Sink, now time.Time) (*Connection, error) {
	conn, err := NewConnection(actorID, role, sink, now)
	if err != nil {
		return nil, err
	}

	var displaced []*Connection

	r.mu.Lock()
	if role == kernel.RoleDriver {
		for connID := range r.byActor[actorID] {
			if old, ok := r.conns[connID]; ok {
				displaced = append(displaced, old)
				r.removeLocked(old)
			}
		}
	}
	r.conns[conn.ID()] = conn
	actorConns, ok := r.byActor[actorID]
	if !ok {
		actorConns = make(map[kernel.UUID]struct{})
		r.byActor[actorID] = actorConns
	}
	actorConns[conn.ID()] = struct{}{}
	r.mu.Unlock()

	for _, old := range displaced {
		r.logger.Info("displaced stale driver connection",
			"driver_id", old.ActorID(), "connection_id", old.ID())
		r.finalize(old)
	}
	r.logger.Debug("connection registered",
		"connection_id", conn.ID(), "actor_id", actorID, "role", role.String())

	return conn, nil
}

// Heartbeat records liveness for a connection.
func (r *Registry) Heartbeat(connID kernel.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return errs.NewObjectNotFoundError("connection", connID)
	}
	conn.Touch(now)
	return nil
}

// Deregister removes a connection, closes its sink and fires deregistration
// listeners. It reports whether the connection was present.
func (r *Registry) Deregister(connID kernel.UUID) bool {
	r.mu.Lock()
	conn, ok := r.conns[connID]
	if ok {
		r.removeLocked(conn)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	r.finalize(conn)
	r.logger.Debug("connection deregistered",
		"connection_id", connID, "actor_id", conn.ActorID())
	return true
}

// SweepExpired removes every connection whose last heartbeat is older than
// the configured timeout and returns the identifiers of removed connections.
func (r *Registry) SweepExpired(now time.Time) []kernel.UUID {
	var expired []*Connection

	r.mu.Lock()
	for _, conn := range r.conns {
		if conn.IsExpired(now, r.cfg.HeartbeatTimeout) {
			expired = append(expired, conn)
		}
	}
	for _, conn := range expired {
		r.removeLocked(conn)
	}
	r.mu.Unlock()

	removed := make([]kernel.UUID, 0, len(expired))
	for _, conn := range expired {
		removed = append(removed, conn.ID())
		r.finalize(conn)
	}
	if len(removed) > 0 {
		r.logger.Info("expired silent connections", "count", len(removed))
	}
	return removed
}

// Get returns a live connection by identifier.
func (r *Registry) Get(connID kernel.UUID) (*Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connID]
	if !ok {
		return nil, errs.NewObjectNotFoundError("connection", connID)
	}
	return conn, nil
}

// ConnectionsForActor returns every live connection held by an actor.
func (r *Registry) ConnectionsForActor(actorID kernel.UUID) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connIDs, ok := r.byActor[actorID]
	if !ok {
		return nil
	}
	conns := make([]*Connection, 0, len(connIDs))
	for connID := range connIDs {
		if conn, found := r.conns[connID]; found {
			conns = append(conns, conn)
		}
	}
	return conns
}

// Send delivers a payload to a single connection's sink.
func (r *Registry) Send(connID kernel.UUID, payload []byte) error {
	conn, err := r.Get(connID)
	if err != nil {
		return err
	}
	return conn.Sink().Send(payload)
}

// SendToActor delivers a payload to every live connection held by an actor
// and returns how many sinks accepted it.
func (r *Registry) SendToActor(actorID kernel.UUID, payload []byte) int {
	conns := r.ConnectionsForActor(actorID)

	delivered := 0
	for _, conn := range conns {
		if err := conn.Sink().Send(payload); err != nil {
			r.logger.Debug("send to actor connection failed",
				"actor_id", actorID, "connection_id", conn.ID(), "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// removeLocked drops a connection from both indexes. Caller holds r.mu.
func (r *Registry) removeLocked(conn *Connection) {
	delete(r.conns, conn.ID())
	if actorConns, ok := r.byActor[conn.ActorID()]; ok {
		delete(actorConns, conn.ID())
		if len(actorConns) == 0 {
			delete(r.byActor, conn.ActorID())
		}
	}
}

// finalize closes the sink and fires listeners. Called without r.mu held.
func (r *Registry) finalize(conn *Connection) {
	if err := conn.Sink().Close(); err != nil {
		r.logger.Debug("sink close failed",
			"connection_id", conn.ID(), "error", err)
	}
	for _, fn := range r.onDeregister {
		fn(conn)
	}
}
