package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "fueltrack/internal/adapters/in/http"
	"fueltrack/internal/core/application/dispatch"
	"fueltrack/internal/core/application/locationstore"
	"fueltrack/internal/core/application/queries"
	"fueltrack/internal/core/domain/model/assignment"
	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/core/domain/services"
	"fueltrack/internal/core/ports"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLedger struct{}

func (noopLedger) RecordSubmitted(context.Context, *assignment.OrderAssignment) error {
	return nil
}

func (noopLedger) RecordTransition(context.Context, *assignment.OrderAssignment, assignment.DeliveryEvent) error {
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, ports.Notification) error { return nil }

type serverHarness struct {
	echo   *echo.Echo
	store  *locationstore.Store
	engine *dispatch.Engine
	offers []dispatch.OfferNotice
}

func newServerHarness(t *testing.T) *serverHarness {
	t.Helper()

	store := locationstore.NewStore(locationstore.Config{StaleAfter: 90 * time.Second}, nil)
	engine := dispatch.NewEngine(
		dispatch.Config{},
		services.NewDriverMatcher(90*time.Second),
		store,
		noopLedger{},
		noopNotifier{},
		nil,
	)

	h := &serverHarness{store: store, engine: engine}
	engine.OnOfferIssued(func(notice dispatch.OfferNotice, _ time.Time) {
		h.offers = append(h.offers, notice)
	})

	server := httpadapter.NewServer(
		engine,
		store,
		queries.NewGetDeliveryHistoryQueryHandler(nil),
		queries.NewGetCustomerOrdersQueryHandler(nil),
	)

	e := echo.New()
	server.RegisterRoutes(e)
	h.echo = e
	return h
}

func (h *serverHarness) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)
	return rec
}

func (h *serverHarness) addAvailableDriver(t *testing.T, lat, lon float64) kernel.UUID {
	t.Helper()

	driverID := kernel.NewUUID()
	position, err := kernel.NewGeoPoint(lat, lon)
	require.NoError(t, err)
	result, err := h.store.Upsert(driverID, position, 0, 35, 5, time.Now())
	require.NoError(t, err)
	require.Equal(t, locationstore.UpsertApplied, result)
	return driverID
}

func submitBody(customerID kernel.UUID) string {
	return `{"customer_id":"` + customerID.String() +
		`","latitude":12.9716,"longitude":77.5946,"address":"12 Brigade Rd","fuel_liters":20}`
}

func TestServer_SubmitOrder(t *testing.T) {
	t.Run("valid order is accepted and queued when no driver is available", func(t *testing.T) {
		// Given
		h := newServerHarness(t)

		// When
		rec := h.request(t, http.MethodPost, "/api/v1/orders", submitBody(kernel.NewUUID()))

		// Then
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["order_id"])
		assert.Equal(t, 1, h.engine.PendingCount())
	})

	t.Run("order goes straight to the closest driver when one is available", func(t *testing.T) {
		// Given
		h := newServerHarness(t)
		driverID := h.addAvailableDriver(t, 12.97, 77.59)

		// When
		rec := h.request(t, http.MethodPost, "/api/v1/orders", submitBody(kernel.NewUUID()))

		// Then
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, h.offers, 1)
		assert.True(t, h.offers[0].DriverID.IsEqual(driverID))
	})

	t.Run("resubmitting the same order id is a conflict", func(t *testing.T) {
		// Given
		h := newServerHarness(t)
		orderID := kernel.NewUUID()
		body := `{"order_id":"` + orderID.String() + `","customer_id":"` + kernel.NewUUID().String() +
			`","latitude":12.9716,"longitude":77.5946,"address":"12 Brigade Rd","fuel_liters":20}`
		require.Equal(t, http.StatusCreated, h.request(t, http.MethodPost, "/api/v1/orders", body).Code)

		// When
		rec := h.request(t, http.MethodPost, "/api/v1/orders", body)

		// Then
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("malformed customer id is rejected", func(t *testing.T) {
		h := newServerHarness(t)

		rec := h.request(t, http.MethodPost, "/api/v1/orders",
			`{"customer_id":"not-a-uuid","latitude":1,"longitude":1,"address":"x","fuel_liters":5}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-positive fuel volume is rejected", func(t *testing.T) {
		h := newServerHarness(t)

		rec := h.request(t, http.MethodPost, "/api/v1/orders",
			`{"customer_id":"`+kernel.NewUUID().String()+
				`","latitude":1,"longitude":1,"address":"x","fuel_liters":0}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_CancelOrder(t *testing.T) {
	t.Run("pending order cancels", func(t *testing.T) {
		// Given
		h := newServerHarness(t)
		orderID := kernel.NewUUID()
		body := `{"order_id":"` + orderID.String() + `","customer_id":"` + kernel.NewUUID().String() +
			`","latitude":12.9716,"longitude":77.5946,"address":"12 Brigade Rd","fuel_liters":20}`
		require.Equal(t, http.StatusCreated, h.request(t, http.MethodPost, "/api/v1/orders", body).Code)

		// When
		rec := h.request(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", "")

		// Then
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, 0, h.engine.PendingCount())
	})

	t.Run("cancelling twice is a conflict", func(t *testing.T) {
		// Given
		h := newServerHarness(t)
		orderID := kernel.NewUUID()
		body := `{"order_id":"` + orderID.String() + `","customer_id":"` + kernel.NewUUID().String() +
			`","latitude":12.9716,"longitude":77.5946,"address":"12 Brigade Rd","fuel_liters":20}`
		require.Equal(t, http.StatusCreated, h.request(t, http.MethodPost, "/api/v1/orders", body).Code)
		require.Equal(t, http.StatusNoContent,
			h.request(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", "").Code)

		// When
		rec := h.request(t, http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", "")

		// Then
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		h := newServerHarness(t)

		rec := h.request(t, http.MethodPost, "/api/v1/orders/"+kernel.NewUUID().String()+"/cancel", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_GetActiveAssignments(t *testing.T) {
	// Given
	h := newServerHarness(t)
	driverID := h.addAvailableDriver(t, 12.97, 77.59)
	require.Equal(t, http.StatusCreated,
		h.request(t, http.MethodPost, "/api/v1/orders", submitBody(kernel.NewUUID())).Code)

	// When
	rec := h.request(t, http.MethodGet, "/api/v1/orders/active", "")

	// Then
	require.Equal(t, http.StatusOK, rec.Code)

	var views []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Offered", views[0]["status"])
	assert.Equal(t, driverID.String(), views[0]["offered_driver_id"])
	assert.Equal(t, "12 Brigade Rd", views[0]["address"])
}

func TestServer_GetFleet(t *testing.T) {
	t.Run("available driver appears with fix age and no eta", func(t *testing.T) {
		// Given
		h := newServerHarness(t)
		driverID := h.addAvailableDriver(t, 12.97, 77.59)

		// When
		rec := h.request(t, http.MethodGet, "/api/v1/fleet", "")

		// Then
		require.Equal(t, http.StatusOK, rec.Code)

		var views []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
		require.Len(t, views, 1)
		assert.Equal(t, driverID.String(), views[0]["driver_id"])
		assert.Equal(t, "Available", views[0]["availability"])
		assert.GreaterOrEqual(t, views[0]["seconds_since_update"].(float64), 0.0)
		assert.NotContains(t, views[0], "eta_seconds")
	})

	t.Run("busy driver carries an eta to the drop-off", func(t *testing.T) {
		// Given
		h := newServerHarness(t)
		driverID := h.addAvailableDriver(t, 12.90, 77.50)
		require.Equal(t, http.StatusCreated,
			h.request(t, http.MethodPost, "/api/v1/orders", submitBody(kernel.NewUUID())).Code)
		require.Len(t, h.offers, 1)
		require.NoError(t,
			h.engine.Accept(context.Background(), h.offers[0].OrderID, driverID, time.Now()))

		// When
		rec := h.request(t, http.MethodGet, "/api/v1/fleet", "")

		// Then
		require.Equal(t, http.StatusOK, rec.Code)

		var views []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
		require.Len(t, views, 1)
		assert.Equal(t, "Busy", views[0]["availability"])
		require.Contains(t, views[0], "eta_seconds")
		assert.Greater(t, views[0]["eta_seconds"].(float64), 0.0)
	})
}
