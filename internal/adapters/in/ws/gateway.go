package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fueltrack/internal/core/application/dispatch"
	"fueltrack/internal/core/application/locationstore"
	"fueltrack/internal/core/application/registry"
	"fueltrack/internal/core/application/tracking"
	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/core/ports"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Gateway upgrades HTTP requests into registered websocket connections and
// pumps their inbound messages into the core components. Each connection is
// served by its own read loop; outbound traffic goes through the registered
// sink and never blocks on a slow peer.
type Gateway struct {
	logger   *slog.Logger
	identity ports.IdentityProvider
	registry *registry.Registry
	store    *locationstore.Store
	engine   *dispatch.Engine
	tracking *tracking.Manager
	upgrader websocket.Upgrader
}

// NewGateway creates the websocket gateway.
//
// Parameters:
//   - logger: structured logger; nil falls back to slog.Default()
//   - identity: token verifier for the handshake
//   - reg: connection registry the gateway registers accepted peers with
//   - store: location store receiving driver position fixes
//   - engine: dispatch engine receiving driver order commands
//   - trackingManager: tracking sessions for observer subscriptions
func NewGateway(
	logger *slog.Logger,
	identity ports.IdentityProvider,
	reg *registry.Registry,
	store *locationstore.Store,
	engine *dispatch.Engine,
	trackingManager *tracking.Manager,
) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		logger:   logger.With("component", "ws_gateway"),
		identity: identity,
		registry: reg,
		store:    store,
		engine:   engine,
		tracking: trackingManager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handle serves GET /ws. The bearer token comes from the "token" query
// parameter or the Authorization header; an unverifiable token is rejected
// before the upgrade so the client gets a plain HTTP status.
func (g *Gateway) Handle(c echo.Context) error {
	token := bearerToken(c)
	identity, err := g.identity.Verify(c.Request().Context(), token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	conn, err := g.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written its own error response.
		return nil
	}

	client := newClient(conn)
	go client.writePump()

	registered, err := g.registry.Register(identity.ActorID, identity.Role, client, time.Now())
	if err != nil {
		_ = client.Close()
		return nil
	}

	g.logger.Info("connection established",
		"connectionId", registered.ID().String(),
		"actorId", identity.ActorID.String(),
		"role", identity.Role.String())

	g.sendJSON(client, ackMessage{
		Type:         "connected",
		ConnectionID: registered.ID().String(),
		ActorID:      identity.ActorID.String(),
		Role:         identity.Role.String(),
	})

	clean := g.readLoop(c.Request().Context(), registered, client)

	// Deregister closes the sink and fires the offline listeners wired in
	// the composition root.
	g.registry.Deregister(registered.ID())

	// A clean close is an explicit sign-off: the driver's record is evicted
	// instead of lingering until the staleness sweep. A connection displaced
	// by a reconnect is not a sign-off, so the record stays.
	if clean && registered.Role() == kernel.RoleDriver &&
		len(g.registry.ConnectionsForActor(registered.ActorID())) == 0 {
		g.store.Evict(registered.ActorID())
	}
	return nil
}

// readLoop pumps inbound frames until the connection dies. It reports whether
// the peer closed cleanly with a normal-closure or going-away frame.
func (g *Gateway) readLoop(ctx context.Context, conn *registry.Connection, client *Client) bool {
	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				g.logger.Warn("read failed",
					"connectionId", conn.ID().String(), "error", err)
			}
			return websocket.IsCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway)
		}

		now := time.Now()
		// Any inbound traffic proves liveness.
		_ = g.registry.Heartbeat(conn.ID(), now)

		var msg inboundMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			g.sendError(client, "malformed message")
			continue
		}

		g.dispatchMessage(ctx, conn, client, msg, now)
	}
}

func (g *Gateway) dispatchMessage(
	ctx context.Context,
	conn *registry.Connection,
	client *Client,
	msg inboundMessage,
	now time.Time,
) {
	switch msg.Type {
	case MessageTypeHeartbeat:
		// Heartbeat is already recorded for every inbound message.

	case MessageTypePosition:
		g.handlePosition(conn, client, msg.Data)

	case MessageTypeAccept, MessageTypeDecline, MessageTypeStartTransit, MessageTypeMarkDelivered:
		g.handleOrderCommand(ctx, conn, client, msg.Type, msg.Data, now)

	case MessageTypeSubscribe, MessageTypeUnsubscribe:
		g.handleSubscription(conn, client, msg.Type, msg.Data)

	default:
		g.sendError(client, "unknown message type: "+msg.Type)
	}
}

func (g *Gateway) handlePosition(conn *registry.Connection, client *Client, data json.RawMessage) {
	if conn.Role() != kernel.RoleDriver {
		g.sendError(client, "position messages are driver-only")
		return
	}

	var msg positionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		g.sendError(client, "malformed position message")
		return
	}

	position, err := kernel.NewGeoPoint(msg.Latitude, msg.Longitude)
	if err != nil {
		g.sendError(client, err.Error())
		return
	}

	// A dropped fix (stale, out of order, outside the service area) is a
	// normal outcome, not an error to the driver.
	_, err = g.store.Upsert(
		conn.ActorID(), position, msg.Heading, msg.SpeedKmh, msg.AccuracyM, msg.RecordedAt)
	if err != nil {
		g.sendError(client, err.Error())
	}
}

func (g *Gateway) handleOrderCommand(
	ctx context.Context,
	conn *registry.Connection,
	client *Client,
	msgType string,
	data json.RawMessage,
	now time.Time,
) {
	if conn.Role() != kernel.RoleDriver {
		g.sendError(client, msgType+" messages are driver-only")
		return
	}

	orderID, ok := g.parseOrderID(client, data)
	if !ok {
		return
	}

	var err error
	switch msgType {
	case MessageTypeAccept:
		err = g.engine.Accept(ctx, orderID, conn.ActorID(), now)
	case MessageTypeDecline:
		err = g.engine.Decline(ctx, orderID, conn.ActorID(), now)
	case MessageTypeStartTransit:
		err = g.engine.StartTransit(ctx, orderID, conn.ActorID(), now)
	case MessageTypeMarkDelivered:
		err = g.engine.MarkDelivered(ctx, orderID, conn.ActorID(), now)
	}
	if err != nil {
		// Conflicts (stale offer, already settled) are the driver's to
		// handle; the subsystem state is unchanged.
		g.logger.Debug("order command rejected",
			"type", msgType,
			"orderId", orderID.String(),
			"driverId", conn.ActorID().String(),
			"error", err)
		g.sendError(client, err.Error())
	}
}

func (g *Gateway) handleSubscription(
	conn *registry.Connection,
	client *Client,
	msgType string,
	data json.RawMessage,
) {
	if !conn.Role().IsObserver() {
		g.sendError(client, msgType+" messages are customer/admin-only")
		return
	}

	orderID, ok := g.parseOrderID(client, data)
	if !ok {
		return
	}

	if msgType == MessageTypeUnsubscribe {
		g.tracking.Unsubscribe(orderID, conn.ID())
		return
	}

	if err := g.tracking.Subscribe(orderID, conn.ID()); err != nil {
		g.sendError(client, err.Error())
	}
}

func (g *Gateway) parseOrderID(client *Client, data json.RawMessage) (kernel.UUID, bool) {
	var msg orderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		g.sendError(client, "malformed order message")
		return kernel.UUID{}, false
	}

	orderID, err := kernel.UUIDFromString(msg.OrderID)
	if err != nil {
		g.sendError(client, "orderId is invalid")
		return kernel.UUID{}, false
	}
	return orderID, true
}

func (g *Gateway) sendError(client *Client, reason string) {
	g.sendJSON(client, errorMessage{Type: "error", Reason: reason})
}

func (g *Gateway) sendJSON(client *Client, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = client.Send(payload)
}

func bearerToken(c echo.Context) string {
	if token := c.QueryParam("token"); token != "" {
		return token
	}
	header := c.Request().Header.Get("Authorization")
	return strings.TrimPrefix(header, "Bearer ")
}
