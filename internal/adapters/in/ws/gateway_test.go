package ws_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fueltrack/internal/adapters/in/ws"
	"fueltrack/internal/core/application/dispatch"
	"fueltrack/internal/core/application/locationstore"
	"fueltrack/internal/core/application/registry"
	"fueltrack/internal/core/application/tracking"
	"fueltrack/internal/core/domain/model/assignment"
	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/core/domain/services"
	"fueltrack/internal/core/ports"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIdentityProvider struct {
	identities map[string]ports.Identity
}

func (p *fakeIdentityProvider) Verify(_ context.Context, token string) (ports.Identity, error) {
	identity, ok := p.identities[token]
	if !ok {
		return ports.Identity{}, errors.New("unknown token")
	}
	return identity, nil
}

type noopLedger struct{}

func (noopLedger) RecordSubmitted(context.Context, *assignment.OrderAssignment) error {
	return nil
}

func (noopLedger) RecordTransition(context.Context, *assignment.OrderAssignment, assignment.DeliveryEvent) error {
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, ports.Notification) error { return nil }

type gatewayHarness struct {
	identity *fakeIdentityProvider
	registry *registry.Registry
	store    *locationstore.Store
	engine   *dispatch.Engine
	tracking *tracking.Manager
	server   *httptest.Server
}

func newGatewayHarness(t *testing.T) *gatewayHarness {
	t.Helper()

	identity := &fakeIdentityProvider{identities: make(map[string]ports.Identity)}
	reg := registry.NewRegistry(registry.Config{}, nil)
	store := locationstore.NewStore(locationstore.Config{StaleAfter: 90 * time.Second}, nil)
	engine := dispatch.NewEngine(
		dispatch.Config{},
		services.NewDriverMatcher(90*time.Second),
		store,
		noopLedger{},
		noopNotifier{},
		nil,
	)
	trackingManager := tracking.NewManager(nil)

	gateway := ws.NewGateway(nil, identity, reg, store, engine, trackingManager)

	e := echo.New()
	e.GET("/ws", gateway.Handle)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	return &gatewayHarness{
		identity: identity,
		registry: reg,
		store:    store,
		engine:   engine,
		tracking: trackingManager,
		server:   server,
	}
}

func (h *gatewayHarness) allowToken(token string, actorID kernel.UUID, role kernel.Role) {
	h.identity.identities[token] = ports.Identity{ActorID: actorID, Role: role}
}

func (h *gatewayHarness) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(payload, &frame))
	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": msgType,
		"data": json.RawMessage(raw),
	}))
}

func TestGateway_Handshake(t *testing.T) {
	t.Run("unknown token is rejected before the upgrade", func(t *testing.T) {
		// Given
		h := newGatewayHarness(t)

		// When
		url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws?token=bogus"
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)

		// Then
		require.Error(t, err)
		require.Nil(t, conn)
		require.NotNil(t, resp)
		assert.Equal(t, 401, resp.StatusCode)
		assert.Equal(t, 0, h.registry.Count())
	})

	t.Run("verified driver gets an ack and a registry entry", func(t *testing.T) {
		// Given
		h := newGatewayHarness(t)
		driverID := kernel.NewUUID()
		h.allowToken("driver-token", driverID, kernel.RoleDriver)

		// When
		conn := h.dial(t, "driver-token")
		ack := readFrame(t, conn)

		// Then
		assert.Equal(t, "connected", ack["type"])
		assert.Equal(t, driverID.String(), ack["actor_id"])
		assert.Equal(t, "Driver", ack["role"])
		assert.NotEmpty(t, ack["connection_id"])
		assert.Equal(t, 1, h.registry.Count())
	})

	t.Run("closing the socket deregisters the connection", func(t *testing.T) {
		// Given
		h := newGatewayHarness(t)
		h.allowToken("driver-token", kernel.NewUUID(), kernel.RoleDriver)
		conn := h.dial(t, "driver-token")
		readFrame(t, conn)
		require.Equal(t, 1, h.registry.Count())

		// When
		require.NoError(t, conn.Close())

		// Then
		require.Eventually(t, func() bool {
			return h.registry.Count() == 0
		}, 5*time.Second, 10*time.Millisecond)
	})
}

func TestGateway_DriverMessages(t *testing.T) {
	t.Run("position fix lands in the location store", func(t *testing.T) {
		// Given
		h := newGatewayHarness(t)
		driverID := kernel.NewUUID()
		h.allowToken("driver-token", driverID, kernel.RoleDriver)
		conn := h.dial(t, "driver-token")
		readFrame(t, conn)

		// When
		writeFrame(t, conn, ws.MessageTypePosition, map[string]any{
			"latitude":    12.97,
			"longitude":   77.59,
			"heading":     45.0,
			"speed_kmh":   30.0,
			"accuracy_m":  5.0,
			"recorded_at": time.Now().Format(time.RFC3339Nano),
		})

		// Then
		require.Eventually(t, func() bool {
			_, err := h.store.Get(driverID)
			return err == nil
		}, 5*time.Second, 10*time.Millisecond)

		record, err := h.store.Get(driverID)
		require.NoError(t, err)
		assert.InDelta(t, 12.97, record.Position().Latitude(), 1e-9)
		assert.InDelta(t, 77.59, record.Position().Longitude(), 1e-9)
	})

	t.Run("malformed position yields an error frame, not a dropped connection", func(t *testing.T) {
		// Given
		h := newGatewayHarness(t)
		h.allowToken("driver-token", kernel.NewUUID(), kernel.RoleDriver)
		conn := h.dial(t, "driver-token")
		readFrame(t, conn)

		// When
		writeFrame(t, conn, ws.MessageTypePosition, map[string]any{
			"latitude":  200.0,
			"longitude": 77.59,
		})

		// Then
		frame := readFrame(t, conn)
		assert.Equal(t, "error", frame["type"])
		assert.Equal(t, 1, h.registry.Count())
	})

	t.Run("accept for an unknown order reports the conflict to the driver", func(t *testing.T) {
		// Given
		h := newGatewayHarness(t)
		h.allowToken("driver-token", kernel.NewUUID(), kernel.RoleDriver)
		conn := h.dial(t, "driver-token")
		readFrame(t, conn)

		// When
		writeFrame(t, conn, ws.MessageTypeAccept, map[string]any{
			"order_id": kernel.NewUUID().String(),
		})

		// Then
		frame := readFrame(t, conn)
		assert.Equal(t, "error", frame["type"])
	})

	t.Run("subscribe from a driver is refused", func(t *testing.T) {
		// Given
		h := newGatewayHarness(t)
		h.allowToken("driver-token", kernel.NewUUID(), kernel.RoleDriver)
		conn := h.dial(t, "driver-token")
		readFrame(t, conn)

		// When
		writeFrame(t, conn, ws.MessageTypeSubscribe, map[string]any{
			"order_id": kernel.NewUUID().String(),
		})

		// Then
		frame := readFrame(t, conn)
		assert.Equal(t, "error", frame["type"])
		assert.Contains(t, frame["reason"], "customer/admin-only")
	})
}

func TestGateway_DriverDisconnect(t *testing.T) {
	sendPosition := func(t *testing.T, conn *websocket.Conn) {
		t.Helper()
		writeFrame(t, conn, ws.MessageTypePosition, map[string]any{
			"latitude":    12.97,
			"longitude":   77.59,
			"heading":     45.0,
			"speed_kmh":   30.0,
			"accuracy_m":  5.0,
			"recorded_at": time.Now().Format(time.RFC3339Nano),
		})
	}

	t.Run("clean close evicts the driver's location record", func(t *testing.T) {
		// Given: a connected driver with a known position
		h := newGatewayHarness(t)
		driverID := kernel.NewUUID()
		h.allowToken("driver-token", driverID, kernel.RoleDriver)
		conn := h.dial(t, "driver-token")
		readFrame(t, conn)
		sendPosition(t, conn)
		require.Eventually(t, func() bool {
			_, err := h.store.Get(driverID)
			return err == nil
		}, 5*time.Second, 10*time.Millisecond)

		// When: the driver signs off with a close frame
		require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

		// Then: the record is gone, not waiting out the staleness window
		require.Eventually(t, func() bool {
			_, err := h.store.Get(driverID)
			return err != nil
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("dropped connection keeps the record for the staleness sweep", func(t *testing.T) {
		// Given
		h := newGatewayHarness(t)
		driverID := kernel.NewUUID()
		h.allowToken("driver-token", driverID, kernel.RoleDriver)
		conn := h.dial(t, "driver-token")
		readFrame(t, conn)
		sendPosition(t, conn)
		require.Eventually(t, func() bool {
			_, err := h.store.Get(driverID)
			return err == nil
		}, 5*time.Second, 10*time.Millisecond)

		// When: the socket dies without a close frame
		require.NoError(t, conn.Close())
		require.Eventually(t, func() bool {
			return h.registry.Count() == 0
		}, 5*time.Second, 10*time.Millisecond)

		// Then
		_, err := h.store.Get(driverID)
		require.NoError(t, err)
	})
}

func TestGateway_ObserverMessages(t *testing.T) {
	t.Run("subscribe joins the open tracking session", func(t *testing.T) {
		// Given
		h := newGatewayHarness(t)
		customerID := kernel.NewUUID()
		h.allowToken("customer-token", customerID, kernel.RoleCustomer)
		orderID := kernel.NewUUID()
		_, err := h.tracking.Open(orderID, kernel.NewUUID(), time.Now())
		require.NoError(t, err)

		conn := h.dial(t, "customer-token")
		ack := readFrame(t, conn)
		connID, err := kernel.UUIDFromString(ack["connection_id"].(string))
		require.NoError(t, err)

		// When
		writeFrame(t, conn, ws.MessageTypeSubscribe, map[string]any{
			"order_id": orderID.String(),
		})

		// Then
		require.Eventually(t, func() bool {
			snapshot, ok := h.tracking.ActiveForOrder(orderID)
			if !ok {
				return false
			}
			for _, subscriber := range snapshot.Subscribers {
				if subscriber.IsEqual(connID) {
					return true
				}
			}
			return false
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("subscribe without a session yields an error frame", func(t *testing.T) {
		// Given
		h := newGatewayHarness(t)
		h.allowToken("customer-token", kernel.NewUUID(), kernel.RoleCustomer)
		conn := h.dial(t, "customer-token")
		readFrame(t, conn)

		// When
		writeFrame(t, conn, ws.MessageTypeSubscribe, map[string]any{
			"order_id": kernel.NewUUID().String(),
		})

		// Then
		frame := readFrame(t, conn)
		assert.Equal(t, "error", frame["type"])
	})

	t.Run("unsubscribe after subscribe leaves the session", func(t *testing.T) {
		// Given
		h := newGatewayHarness(t)
		h.allowToken("admin-token", kernel.NewUUID(), kernel.RoleAdmin)
		orderID := kernel.NewUUID()
		_, err := h.tracking.Open(orderID, kernel.NewUUID(), time.Now())
		require.NoError(t, err)

		conn := h.dial(t, "admin-token")
		readFrame(t, conn)
		writeFrame(t, conn, ws.MessageTypeSubscribe, map[string]any{
			"order_id": orderID.String(),
		})
		require.Eventually(t, func() bool {
			snapshot, ok := h.tracking.ActiveForOrder(orderID)
			return ok && len(snapshot.Subscribers) == 1
		}, 5*time.Second, 10*time.Millisecond)

		// When
		writeFrame(t, conn, ws.MessageTypeUnsubscribe, map[string]any{
			"order_id": orderID.String(),
		})

		// Then
		require.Eventually(t, func() bool {
			snapshot, ok := h.tracking.ActiveForOrder(orderID)
			return ok && len(snapshot.Subscribers) == 0
		}, 5*time.Second, 10*time.Millisecond)
	})
}

func TestGateway_UnknownMessageType(t *testing.T) {
	// Given
	h := newGatewayHarness(t)
	h.allowToken("driver-token", kernel.NewUUID(), kernel.RoleDriver)
	conn := h.dial(t, "driver-token")
	readFrame(t, conn)

	// When
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"teleport"}`)))

	// Then
	frame := readFrame(t, conn)
	assert.Equal(t, "error", frame["type"])
	assert.Contains(t, frame["reason"], "unknown message type")
}
