package registry

import (
	"errors"
	"time"

	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/pkg/errs"
	"fueltrack/internal/pkg/guard"
)

var (
	// ErrSinkIsRequired is returned when a connection is created without a transport sink.
	ErrSinkIsRequired = errs.NewValueIsRequiredError("sink")

	// ErrConnectedAtIsRequired is returned when a connection is created with a zero timestamp.
	ErrConnectedAtIsRequired = errs.NewValueIsRequiredError("connectedAt")

	// ErrConnectionIsNotConstructed is returned when attempting to use an improperly
	// initialized Connection.
	ErrConnectionIsNotConstructed = errs.NewValueIsRequiredError(
		"connection must be created via NewConnection constructor")
)

// Sink is the outbound half of a client connection. Send must be safe to call
// from multiple goroutines; Close releases the underlying transport.
type Sink interface {
	Send(payload []byte) error
	Close() error
}

// Connection represents a single live client connection with its authenticated
// identity and liveness state.
//
// A driver may hold at most one connection at a time; observers (customers and
// admins) may hold several. The registry enforces that rule, the connection
// itself only tracks identity and heartbeats.
type Connection struct {
	id            kernel.UUID
	actorID       kernel.UUID
	role          kernel.Role
	sink          Sink
	connectedAt   time.Time
	lastHeartbeat time.Time

	guard guard.ConstructorGuard
}

// NewConnection creates a connection for an authenticated actor.
//
// Parameters:
//   - actorID: identity of the authenticated actor.
//   - role: the actor's role, must be a valid Role.
//   - sink: outbound transport for the connection.
//   - now: connection time, also the initial heartbeat.
//
// Returns:
//   - *Connection: a valid connection with a fresh identifier.
//   - error: if any parameter fails validation.
func NewConnection(actorID kernel.UUID, role kernel.Role, sink Sink, now time.Time) (*Connection, error) {
	conn := &Connection{
		id:    kernel.NewUUID(),
		guard: guard.NewConstructorGuard(),
	}

	err := errors.Join(
		conn.setActorID(actorID),
		conn.setRole(role),
		conn.setSink(sink),
		conn.setConnectedAt(now),
	)
	if err != nil {
		return nil, err
	}
	conn.lastHeartbeat = now

	return conn, nil
}

// Validate checks that the connection was properly constructed.
func (c *Connection) Validate() error {
	return c.guard.Validate(ErrConnectionIsNotConstructed)
}

// ID returns the connection identifier.
func (c *Connection) ID() kernel.UUID {
	return c.id
}

// ActorID returns the authenticated actor behind the connection.
func (c *Connection) ActorID() kernel.UUID {
	return c.actorID
}

// Role returns the actor's role.
func (c *Connection) Role() kernel.Role {
	return c.role
}

// Sink returns the outbound transport.
func (c *Connection) Sink() Sink {
	return c.sink
}

// ConnectedAt returns when the connection was registered.
func (c *Connection) ConnectedAt() time.Time {
	return c.connectedAt
}

// LastHeartbeat returns the time of the most recent heartbeat.
func (c *Connection) LastHeartbeat() time.Time {
	return c.lastHeartbeat
}

// Touch records a heartbeat. Heartbeats older than the last recorded one are
// ignored so delayed frames cannot roll liveness backwards.
func (c *Connection) Touch(now time.Time) {
	if now.After(c.lastHeartbeat) {
		c.lastHeartbeat = now
	}
}

// IsExpired reports whether the connection has gone longer than maxSilence
// without a heartbeat. A connection exactly at the limit is still alive.
func (c *Connection) IsExpired(now time.Time, maxSilence time.Duration) bool {
	return now.Sub(c.lastHeartbeat) > maxSilence
}

func (c *Connection) setActorID(actorID kernel.UUID) error {
	if err := actorID.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("actorID is invalid", err)
	}
	c.actorID = actorID
	return nil
}

func (c *Connection) setRole(role kernel.Role) error {
	if err := role.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("role is invalid", err)
	}
	c.role = role
	return nil
}

func (c *Connection) setSink(sink Sink) error {
	if sink == nil {
		return ErrSinkIsRequired
	}
	c.sink = sink
	return nil
}

func (c *Connection) setConnectedAt(now time.Time) error {
	if now.IsZero() {
		return ErrConnectedAtIsRequired
	}
	c.connectedAt = now
	return nil
}
