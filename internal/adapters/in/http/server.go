// Package http is the request/response surface of the subsystem: order
// submission and cancellation, fleet and assignment views for the admin
// dashboard, and the ledger-backed history queries. Live streaming goes
// over the websocket gateway, not here.
package http

import (
	"errors"
	"net/http"
	"time"

	"fueltrack/internal/core/application/dispatch"
	"fueltrack/internal/core/application/locationstore"
	"fueltrack/internal/core/application/queries"
	"fueltrack/internal/core/domain/model/assignment"
	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/core/domain/services"
	"fueltrack/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server coordinates between HTTP handlers, the dispatch engine, the
// location store and the ledger query handlers.
type Server struct {
	engine                *dispatch.Engine
	store                 *locationstore.Store
	historyHandler        queries.GetDeliveryHistoryQueryHandler
	customerOrdersHandler queries.GetCustomerOrdersQueryHandler
}

// NewServer creates the HTTP server over the live components and query
// handlers.
func NewServer(
	engine *dispatch.Engine,
	store *locationstore.Store,
	historyHandler queries.GetDeliveryHistoryQueryHandler,
	customerOrdersHandler queries.GetCustomerOrdersQueryHandler,
) *Server {
	return &Server{
		engine:                engine,
		store:                 store,
		historyHandler:        historyHandler,
		customerOrdersHandler: customerOrdersHandler,
	}
}

// RegisterRoutes mounts all order and fleet endpoints under /api/v1.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.POST("/orders", s.SubmitOrder)
	api.POST("/orders/:orderId/cancel", s.CancelOrder)
	api.GET("/orders/active", s.GetActiveAssignments)
	api.GET("/orders/:orderId/history", s.GetDeliveryHistory)
	api.GET("/customers/:customerId/orders", s.GetCustomerOrders)
	api.GET("/fleet", s.GetFleet)
}

// SubmitOrder handles POST /api/v1/orders - puts a fuel order into
// dispatch scope.
func (s *Server) SubmitOrder(ctx echo.Context) error {
	var req SubmitOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	orderID := kernel.NewUUID()
	if req.OrderID != "" {
		parsed, err := kernel.UUIDFromString(req.OrderID)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, Error{
				Code:    http.StatusBadRequest,
				Message: "Invalid order id",
			})
		}
		orderID = parsed
	}

	customerID, err := kernel.UUIDFromString(req.CustomerID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid customer id",
		})
	}

	cmd, err := dispatch.NewSubmitOrderCommand(
		orderID, customerID, req.Latitude, req.Longitude, req.Address, req.FuelLiters)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid order data: " + err.Error(),
		})
	}

	if err := s.engine.Submit(ctx.Request().Context(), cmd, time.Now()); err != nil {
		if errors.Is(err, dispatch.ErrOrderAlreadyInDispatch) {
			return ctx.JSON(http.StatusConflict, Error{
				Code:    http.StatusConflict,
				Message: "Order is already in dispatch",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to submit order",
		})
	}

	return ctx.JSON(http.StatusCreated, SubmitOrderResponse{OrderID: orderID.String()})
}

// CancelOrder handles POST /api/v1/orders/:orderId/cancel - cancels a
// non-terminal order and releases any held driver.
func (s *Server) CancelOrder(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("orderId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid order id",
		})
	}

	if err := s.engine.Cancel(ctx.Request().Context(), orderID, time.Now()); err != nil {
		var notFound *errs.ObjectNotFoundError
		switch {
		case errors.As(err, &notFound):
			return ctx.JSON(http.StatusNotFound, Error{
				Code:    http.StatusNotFound,
				Message: "Order not found",
			})
		case errors.Is(err, assignment.ErrAlreadyTerminal):
			return ctx.JSON(http.StatusConflict, Error{
				Code:    http.StatusConflict,
				Message: "Order is already settled",
			})
		default:
			return ctx.JSON(http.StatusInternalServerError, Error{
				Code:    http.StatusInternalServerError,
				Message: "Failed to cancel order",
			})
		}
	}

	return ctx.NoContent(http.StatusNoContent)
}

// GetActiveAssignments handles GET /api/v1/orders/active - all assignments
// currently in dispatch scope.
func (s *Server) GetActiveAssignments(ctx echo.Context) error {
	snapshots := s.engine.ActiveAssignments()

	response := make([]AssignmentView, len(snapshots))
	for i, snapshot := range snapshots {
		response[i] = assignmentView(snapshot)
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetDeliveryHistory handles GET /api/v1/orders/:orderId/history - the
// order's recorded milestones, oldest first.
func (s *Server) GetDeliveryHistory(ctx echo.Context) error {
	orderID, err := kernel.UUIDFromString(ctx.Param("orderId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid order id",
		})
	}

	query, err := queries.NewGetDeliveryHistoryQuery(orderID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid query: " + err.Error(),
		})
	}

	milestones, err := s.historyHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve delivery history",
		})
	}

	response := make([]MilestoneView, len(milestones))
	for i, milestone := range milestones {
		view := MilestoneView{
			OrderID:    milestone.OrderID.String(),
			Status:     milestone.Status,
			OccurredAt: milestone.OccurredAt,
		}
		if milestone.DriverID != nil {
			view.DriverID = milestone.DriverID.String()
		}
		response[i] = view
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetCustomerOrders handles GET /api/v1/customers/:customerId/orders - the
// customer's order records, newest first.
func (s *Server) GetCustomerOrders(ctx echo.Context) error {
	customerID, err := kernel.UUIDFromString(ctx.Param("customerId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid customer id",
		})
	}

	query, err := queries.NewGetCustomerOrdersQuery(customerID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid query: " + err.Error(),
		})
	}

	orders, err := s.customerOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve customer orders",
		})
	}

	response := make([]CustomerOrderView, len(orders))
	for i, order := range orders {
		view := CustomerOrderView{
			OrderID:    order.OrderID.String(),
			Status:     order.Status,
			Address:    order.Address,
			FuelLiters: order.FuelLiters,
			CreatedAt:  order.CreatedAt,
			UpdatedAt:  order.UpdatedAt,
		}
		if order.DriverID != nil {
			view.DriverID = order.DriverID.String()
		}
		response[i] = view
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetFleet handles GET /api/v1/fleet - every tracked driver with fix age
// and, for engaged drivers, the travel time estimate to their order's
// drop-off.
func (s *Server) GetFleet(ctx echo.Context) error {
	records, err := s.store.ListAll()
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to list fleet",
		})
	}

	destinations := make(map[kernel.UUID]kernel.GeoPoint)
	for _, snapshot := range s.engine.ActiveAssignments() {
		if snapshot.DriverID != nil {
			destinations[*snapshot.DriverID] = snapshot.Destination
		}
	}

	now := time.Now()
	response := make([]FleetDriverView, len(records))
	for i, record := range records {
		view := FleetDriverView{
			DriverID:           record.DriverID().String(),
			Availability:       record.Availability().String(),
			Latitude:           record.Position().Latitude(),
			Longitude:          record.Position().Longitude(),
			Heading:            record.Heading(),
			SpeedKmh:           record.SpeedKmh(),
			AccuracyM:          record.AccuracyM(),
			SecondsSinceUpdate: now.Sub(record.RecordedAt()).Seconds(),
		}

		if destination, ok := destinations[record.DriverID()]; ok {
			eta, etaErr := services.EstimateTravelTime(record.Position(), destination, record.SpeedKmh())
			if etaErr == nil {
				seconds := eta.Seconds()
				view.EtaSeconds = &seconds
			}
		}

		response[i] = view
	}

	return ctx.JSON(http.StatusOK, response)
}

func assignmentView(snapshot dispatch.Snapshot) AssignmentView {
	view := AssignmentView{
		OrderID:    snapshot.OrderID.String(),
		CustomerID: snapshot.CustomerID.String(),
		Status:     snapshot.Status.String(),
		OfferRound: snapshot.OfferRound,
		Latitude:   snapshot.Destination.Latitude(),
		Longitude:  snapshot.Destination.Longitude(),
		Address:    snapshot.Address,
		FuelLiters: snapshot.FuelLiters,
	}
	if snapshot.DriverID != nil {
		view.DriverID = snapshot.DriverID.String()
	}
	if snapshot.OfferedDriverID != nil {
		view.OfferedDriverID = snapshot.OfferedDriverID.String()
	}
	return view
}
