package cmd

import (
	"context"
	"log/slog"
	"time"

	httpadapter "fueltrack/internal/adapters/in/http"
	"fueltrack/internal/adapters/in/ws"
	amqpadapter "fueltrack/internal/adapters/out/amqp"
	"fueltrack/internal/adapters/out/identity"
	"fueltrack/internal/adapters/out/postgres"
	"fueltrack/internal/core/application/broadcast"
	"fueltrack/internal/core/application/dispatch"
	"fueltrack/internal/core/application/locationstore"
	"fueltrack/internal/core/application/queries"
	"fueltrack/internal/core/application/registry"
	"fueltrack/internal/core/application/tracking"
	"fueltrack/internal/core/domain/model/assignment"
	"fueltrack/internal/core/domain/model/driver"
	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/core/domain/services"
	"fueltrack/internal/jobs"

	"gorm.io/gorm"
)

// CompositionRoot builds the whole subsystem: the in-memory core, its
// adapters, and the listener wiring between them. Listener registration
// happens here, before anything starts serving traffic.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	store       *locationstore.Store
	connections *registry.Registry
	engine      *dispatch.Engine
	sessions    *tracking.Manager
	router      *broadcast.Router
	notifier    *amqpadapter.Notifier
	gateway     *ws.Gateway
	httpServer  *httpadapter.Server
	jobManager  *jobs.JobManager
}

// NewCompositionRoot constructs and wires every component.
//
// Returns an error when an external dependency (the message broker) is
// unreachable.
func NewCompositionRoot(cfg Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	if logger == nil {
		logger = slog.Default()
	}

	notifier, err := amqpadapter.NewNotifier(cfg.AmqpURL, cfg.NotificationExchange, logger)
	if err != nil {
		return nil, err
	}

	storeCfg := locationstore.Config{StaleAfter: cfg.StaleAfter}
	if cfg.HasServiceArea() {
		storeCfg.ServiceArea = &locationstore.Bounds{
			MinLatitude:  cfg.ServiceAreaMinLatitude,
			MaxLatitude:  cfg.ServiceAreaMaxLatitude,
			MinLongitude: cfg.ServiceAreaMinLongitude,
			MaxLongitude: cfg.ServiceAreaMaxLongitude,
		}
	}
	store := locationstore.NewStore(storeCfg, logger)

	connections := registry.NewRegistry(registry.Config{
		HeartbeatTimeout: cfg.HeartbeatTimeout,
	}, logger)

	ledger := postgres.NewLedger(postgres.NewGormUnitOfWorkFactory(gormDB))

	engine := dispatch.NewEngine(
		dispatch.Config{
			OfferWindow:    cfg.OfferWindow,
			MaxOfferRounds: cfg.MaxOfferRounds,
			SearchRadiusKm: cfg.SearchRadiusKm,
		},
		services.NewDriverMatcher(store.StaleAfter()),
		store,
		ledger,
		notifier,
		logger,
	)

	sessions := tracking.NewManager(logger)
	router := broadcast.NewRouter(broadcast.Config{}, sessions, connections, logger)

	root := &CompositionRoot{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		connections: connections,
		engine:      engine,
		sessions:    sessions,
		router:      router,
		notifier:    notifier,
		gateway: ws.NewGateway(
			logger,
			identity.NewJWTProvider(cfg.JWTSecret),
			connections,
			store,
			engine,
			sessions,
		),
		httpServer: httpadapter.NewServer(
			engine,
			store,
			queries.NewGetDeliveryHistoryQueryHandler(gormDB),
			queries.NewGetCustomerOrdersQueryHandler(gormDB),
		),
		jobManager: jobs.NewJobManager(store, engine, connections, cfg.DispatchRetryInterval, logger),
	}

	root.wire()
	return root, nil
}

// wire connects the core components through their listener hooks. The flow
// mirrors the runtime control path: store events feed the engine and
// router, engine events open and close tracking sessions and broadcast
// status, registry deregistration cleans up after the connection.
func (c *CompositionRoot) wire() {
	c.store.OnDriverAvailable(func(driverID kernel.UUID) {
		c.engine.HandleDriverAvailable(driverID, time.Now())
	})
	c.store.OnDriverOffline(func(driverID kernel.UUID) {
		c.engine.HandleDriverOffline(context.Background(), driverID, time.Now())
	})
	c.store.OnPositionApplied(func(record *driver.DriverLocationRecord) {
		c.router.PublishPosition(record)
	})

	c.engine.OnOfferIssued(func(notice dispatch.OfferNotice, now time.Time) {
		c.router.OfferToDriver(notice.DriverID, broadcast.Offer{
			OrderID:     notice.OrderID,
			Destination: notice.Destination,
			Address:     notice.Address,
			FuelLiters:  notice.FuelLiters,
			ExpiresAt:   notice.ExpiresAt,
		}, now)
	})
	c.engine.OnAccepted(func(orderID, driverID kernel.UUID, now time.Time) {
		if _, err := c.sessions.Open(orderID, driverID, now); err != nil {
			c.logger.Error("failed to open tracking session",
				"orderId", orderID.String(), "error", err)
		}
	})
	c.engine.OnStatusChanged(func(event assignment.DeliveryEvent) {
		c.router.PublishStatus(event)
	})
	c.engine.OnDispatchFailed(func(orderID, customerID kernel.UUID, now time.Time) {
		c.router.NotifyDispatchFailed(orderID, customerID, now)
	})
	c.engine.OnClosed(func(orderID kernel.UUID) {
		c.sessions.Close(orderID)
	})

	c.sessions.OnClose(func(orderID kernel.UUID, _ []kernel.UUID) {
		c.router.ReleaseOrder(orderID)
	})

	c.connections.OnDeregister(func(conn *registry.Connection) {
		c.sessions.RemoveSubscriberEverywhere(conn.ID())
		if conn.Role() != kernel.RoleDriver {
			return
		}

		driverID := conn.ActorID()
		if len(c.connections.ConnectionsForActor(driverID)) > 0 {
			// A reconnect displaced this connection; the driver is still
			// online. Repeat any standing offer in case the frame died with
			// the old connection.
			if notice, ok := c.engine.StandingOffer(driverID); ok {
				c.router.OfferToDriver(driverID, broadcast.Offer{
					OrderID:     notice.OrderID,
					Destination: notice.Destination,
					Address:     notice.Address,
					FuelLiters:  notice.FuelLiters,
					ExpiresAt:   notice.ExpiresAt,
				}, time.Now())
			}
			return
		}

		// Last connection gone: revoke any standing offer so dispatch moves
		// on. The location record is left to the staleness sweep so an
		// accepted delivery survives a brief reconnect; an explicit sign-off
		// evicts the record in the gateway instead.
		c.engine.HandleDriverOffline(context.Background(), driverID, time.Now())
	})
}

// Gateway returns the websocket gateway.
func (c *CompositionRoot) Gateway() *ws.Gateway {
	return c.gateway
}

// HTTPServer returns the HTTP server.
func (c *CompositionRoot) HTTPServer() *httpadapter.Server {
	return c.httpServer
}

// JobManager returns the background job manager.
func (c *CompositionRoot) JobManager() *jobs.JobManager {
	return c.jobManager
}

// Shutdown stops the background jobs and closes external connections.
func (c *CompositionRoot) Shutdown() {
	c.jobManager.StopAll()
	c.notifier.Close()
}
