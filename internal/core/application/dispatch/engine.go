package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fueltrack/internal/core/domain/model/assignment"
	"fueltrack/internal/core/domain/model/driver"
	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/core/domain/services"
	"fueltrack/internal/core/ports"
	"fueltrack/internal/pkg/errs"
)

const (
	defaultOfferWindow    = 30 * time.Second
	defaultMaxOfferRounds = 3
)

// ErrOrderAlreadyInDispatch is returned when an order is submitted twice.
var ErrOrderAlreadyInDispatch = errs.NewValueIsInvalidError(
	"order is already in dispatch")

// Fleet is the slice of the location store the engine needs: candidate
// lookup and driver availability transitions.
type Fleet interface {
	ListAvailable(center kernel.GeoPoint, withinRadiusKm float64, now time.Time) ([]*driver.DriverLocationRecord, error)
	MarkEngaged(driverID kernel.UUID) error
	MarkDeparted(driverID kernel.UUID) error
	MarkReleased(driverID kernel.UUID) error
}

// Config tunes dispatch behavior.
type Config struct {
	// OfferWindow is how long a driver has to accept an offer.
	// Zero means the 30 second default.
	OfferWindow time.Duration

	// MaxOfferRounds caps how many drivers are tried before the order is
	// marked DispatchFailed. Zero means 3.
	MaxOfferRounds int

	// SearchRadiusKm bounds the candidate search around the destination.
	// Zero means unlimited.
	SearchRadiusKm float64
}

// OfferNotice describes an offer the engine issued. It is a plain value
// handed to offer listeners, safe to use after the engine moves on.
type OfferNotice struct {
	OrderID     kernel.UUID
	DriverID    kernel.UUID
	Destination kernel.GeoPoint
	Address     string
	FuelLiters  float64
	ExpiresAt   time.Time
	Round       int
}

// Snapshot is a read-only view of an assignment in dispatch scope.
type Snapshot struct {
	OrderID         kernel.UUID
	CustomerID      kernel.UUID
	Status          assignment.Status
	DriverID        *kernel.UUID
	OfferedDriverID *kernel.UUID
	OfferExpiresAt  time.Time
	OfferRound      int
	Destination     kernel.GeoPoint
	Address         string
	FuelLiters      float64
}

// Engine drives fuel orders from submission to a terminal state.
//
// It holds in-flight assignments in memory, offers each order to the closest
// available driver, requeues on decline or offer expiry, and gives up after
// MaxOfferRounds attempts. Orders with no candidate wait in a FIFO queue
// retried whenever a driver becomes available. Settled assignments linger
// until PurgeSettled so racing operations get a precise answer.
//
// Locking is per order, like the location store's per-driver entries: the
// engine-level lock only guards the assignment map, each assignment has its
// own lock, and the pending queue and offered-driver set sit behind a
// separate coordination lock that is never held across I/O. Ledger writes
// happen under the affected order's lock, so the ledger never observes an
// assignment mid-transition and a slow write stalls only that one order.
// Listeners fire after all locks are released and receive value snapshots.
//
// Lock order: an order's entry lock before dispatchMu, never the reverse.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	matcher  services.DriverMatcher
	fleet    Fleet
	ledger   ports.OrderLedger
	notifier ports.Notifier

	mu      sync.RWMutex
	entries map[kernel.UUID]*orderEntry

	dispatchMu     sync.Mutex
	pending        []kernel.UUID
	offeredDrivers map[kernel.UUID]kernel.UUID

	onOfferIssued    []func(notice OfferNotice, now time.Time)
	onAccepted       []func(orderID, driverID kernel.UUID, now time.Time)
	onStatusChanged  []func(event assignment.DeliveryEvent)
	onDispatchFailed []func(orderID, customerID kernel.UUID, now time.Time)
	onClosed         []func(orderID kernel.UUID)
}

type orderEntry struct {
	mu sync.Mutex
	a  *assignment.OrderAssignment
}

// NewEngine creates a dispatch engine over the given fleet, matcher and
// outbound ports. A nil logger falls back to the default slog logger.
func NewEngine(
	cfg Config,
	matcher services.DriverMatcher,
	fleet Fleet,
	ledger ports.OrderLedger,
	notifier ports.Notifier,
	logger *slog.Logger,
) *Engine {
	if cfg.OfferWindow <= 0 {
		cfg.OfferWindow = defaultOfferWindow
	}
	if cfg.MaxOfferRounds <= 0 {
		cfg.MaxOfferRounds = defaultMaxOfferRounds
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		cfg:            cfg,
		logger:         logger.With("component", "dispatch_engine"),
		matcher:        matcher,
		fleet:          fleet,
		ledger:         ledger,
		notifier:       notifier,
		entries:        make(map[kernel.UUID]*orderEntry),
		offeredDrivers: make(map[kernel.UUID]kernel.UUID),
	}
}

// OnOfferIssued registers a listener fired whenever an offer goes out to a
// driver. Listeners must be registered before the engine is in use.
func (e *Engine) OnOfferIssued(fn func(notice OfferNotice, now time.Time)) {
	e.onOfferIssued = append(e.onOfferIssued, fn)
}

// OnAccepted registers a listener fired when a driver accepts an order.
func (e *Engine) OnAccepted(fn func(orderID, driverID kernel.UUID, now time.Time)) {
	e.onAccepted = append(e.onAccepted, fn)
}

// OnStatusChanged registers a listener fired on every recorded assignment
// transition.
func (e *Engine) OnStatusChanged(fn func(event assignment.DeliveryEvent)) {
	e.onStatusChanged = append(e.onStatusChanged, fn)
}

// OnDispatchFailed registers a listener fired when an order exhausts its
// offer rounds.
func (e *Engine) OnDispatchFailed(fn func(orderID, customerID kernel.UUID, now time.Time)) {
	e.onDispatchFailed = append(e.onDispatchFailed, fn)
}

// OnClosed registers a listener fired when an assignment leaves dispatch
// scope: delivered, cancelled or failed.
func (e *Engine) OnClosed(fn func(orderID kernel.UUID)) {
	e.onClosed = append(e.onClosed, fn)
}

// Submit takes a new order into dispatch scope, persists it and immediately
// tries to offer it to the closest available driver. Without a candidate the
// order waits in the pending queue.
func (e *Engine) Submit(ctx context.Context, cmd SubmitOrderCommand, now time.Time) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	a, err := assignment.NewOrderAssignment(
		cmd.OrderID(), cmd.CustomerID(), cmd.Destination(), cmd.Address(), cmd.FuelLiters())
	if err != nil {
		return err
	}

	// The entry is published locked so concurrent operations on this order
	// wait for the initial ledger write instead of seeing a half-born order.
	entry := &orderEntry{a: a}
	entry.mu.Lock()

	e.mu.Lock()
	if _, exists := e.entries[a.OrderID()]; exists {
		e.mu.Unlock()
		return ErrOrderAlreadyInDispatch
	}
	e.entries[a.OrderID()] = entry
	e.mu.Unlock()

	if err := e.ledger.RecordSubmitted(ctx, a); err != nil {
		entry.mu.Unlock()
		e.removeEntry(a.OrderID())
		return fmt.Errorf("record submitted order: %w", err)
	}

	_, after := e.tryDispatchLocked(a, now)
	entry.mu.Unlock()

	e.logger.Info("order submitted",
		"order_id", a.OrderID(), "customer_id", a.CustomerID())
	runAll(after)
	return nil
}

// Accept records a driver's acceptance of an offered order.
//
// Returns assignment.ErrStaleOffer when the offer expired or was superseded
// and assignment.ErrAlreadyTerminal when the order was cancelled first.
func (e *Engine) Accept(ctx context.Context, orderID, driverID kernel.UUID, now time.Time) error {
	entry, ok := e.lookup(orderID)
	if !ok {
		return errs.NewObjectNotFoundError("order", orderID)
	}

	entry.mu.Lock()
	a := entry.a
	if err := a.Accept(driverID, now); err != nil {
		entry.mu.Unlock()
		return err
	}
	e.releaseOffer(driverID)

	if err := e.fleet.MarkEngaged(driverID); err != nil {
		e.logger.Error("mark driver engaged failed",
			"driver_id", driverID, "order_id", orderID, "error", err)
	}

	// Acceptance listeners run before status listeners so the tracking
	// session exists when the status change is broadcast.
	var after []func()
	for _, fn := range e.onAccepted {
		fn := fn
		after = append(after, func() { fn(orderID, driverID, now) })
	}
	if event, ok := e.newEvent(a.OrderID(), assignment.Accepted, &driverID, now); ok {
		e.record(ctx, a, event)
		after = append(after, e.statusEffects(event)...)
	}
	entry.mu.Unlock()

	e.logger.Info("offer accepted", "order_id", orderID, "driver_id", driverID)
	runAll(after)
	return nil
}

// Decline records a driver's rejection of an offered order. The driver is
// excluded from future offers for this order and dispatch moves on.
func (e *Engine) Decline(ctx context.Context, orderID, driverID kernel.UUID, now time.Time) error {
	entry, ok := e.lookup(orderID)
	if !ok {
		return errs.NewObjectNotFoundError("order", orderID)
	}

	entry.mu.Lock()
	a := entry.a
	if err := a.Decline(driverID); err != nil {
		entry.mu.Unlock()
		return err
	}
	e.releaseOffer(driverID)

	after := e.afterOfferLostLocked(ctx, a, now)
	entry.mu.Unlock()

	e.logger.Info("offer declined", "order_id", orderID, "driver_id", driverID)
	runAll(after)
	return nil
}

// Cancel withdraws an order from dispatch on the customer's behalf.
//
// Returns assignment.ErrAlreadyTerminal when the order already finished:
// cancellation raced against delivery and lost.
func (e *Engine) Cancel(ctx context.Context, orderID kernel.UUID, now time.Time) error {
	entry, ok := e.lookup(orderID)
	if !ok {
		return errs.NewObjectNotFoundError("order", orderID)
	}

	entry.mu.Lock()
	a := entry.a
	previous := a.Status()
	held := copyID(a.HeldDriver())
	if err := a.Cancel(); err != nil {
		entry.mu.Unlock()
		return err
	}

	var after []func()
	switch previous {
	case assignment.Pending:
		e.removePending(orderID)
	case assignment.Offered:
		if held != nil {
			e.releaseOffer(*held)
		}
		held = nil
	case assignment.Accepted, assignment.InTransit:
		if held != nil {
			after = append(after, e.releaseDriver(orderID, *held))
		}
	}

	if event, ok := e.newEvent(orderID, assignment.Cancelled, held, now); ok {
		e.record(ctx, a, event)
		after = append(after, e.statusEffects(event)...)
	}
	after = append(after, e.closeEffects(orderID)...)
	entry.mu.Unlock()

	e.logger.Info("order cancelled", "order_id", orderID, "previous_status", previous.String())
	runAll(after)
	return nil
}

// StartTransit records that the accepted driver departed with the fuel.
func (e *Engine) StartTransit(ctx context.Context, orderID, driverID kernel.UUID, now time.Time) error {
	entry, ok := e.lookup(orderID)
	if !ok {
		return errs.NewObjectNotFoundError("order", orderID)
	}

	entry.mu.Lock()
	a := entry.a
	if err := a.StartTransit(driverID); err != nil {
		entry.mu.Unlock()
		return err
	}

	if err := e.fleet.MarkDeparted(driverID); err != nil {
		e.logger.Error("mark driver departed failed",
			"driver_id", driverID, "order_id", orderID, "error", err)
	}

	var after []func()
	if event, ok := e.newEvent(orderID, assignment.InTransit, &driverID, now); ok {
		e.record(ctx, a, event)
		after = e.statusEffects(event)
	}
	customerID := a.CustomerID()
	entry.mu.Unlock()

	e.notify(ctx, ports.Notification{
		Kind:       ports.NotificationDriverEnRoute,
		OrderID:    orderID,
		CustomerID: customerID,
		DriverID:   &driverID,
	})
	runAll(after)
	return nil
}

// MarkDelivered records delivery confirmation from the assigned driver and
// closes the assignment.
func (e *Engine) MarkDelivered(ctx context.Context, orderID, driverID kernel.UUID, now time.Time) error {
	entry, ok := e.lookup(orderID)
	if !ok {
		return errs.NewObjectNotFoundError("order", orderID)
	}

	entry.mu.Lock()
	a := entry.a
	if err := a.Complete(driverID); err != nil {
		entry.mu.Unlock()
		return err
	}

	after := []func(){e.releaseDriver(orderID, driverID)}
	if event, ok := e.newEvent(orderID, assignment.Delivered, &driverID, now); ok {
		e.record(ctx, a, event)
		after = append(after, e.statusEffects(event)...)
	}
	after = append(after, e.closeEffects(orderID)...)
	customerID := a.CustomerID()
	entry.mu.Unlock()

	e.logger.Info("order delivered", "order_id", orderID, "driver_id", driverID)
	e.notify(ctx, ports.Notification{
		Kind:       ports.NotificationOrderDelivered,
		OrderID:    orderID,
		CustomerID: customerID,
		DriverID:   &driverID,
	})
	runAll(after)
	return nil
}

// ExpireOffers requeues every offer whose acceptance window has passed and
// returns the affected order identifiers. Intended to run on a tick.
func (e *Engine) ExpireOffers(ctx context.Context, now time.Time) []kernel.UUID {
	var expired []kernel.UUID
	var after []func()

	for orderID, entry := range e.snapshotEntries() {
		entry.mu.Lock()
		a := entry.a
		offered := copyID(a.OfferedDriverID())
		wasExpired, err := a.ExpireOffer(now)
		if err != nil {
			entry.mu.Unlock()
			e.logger.Error("expire offer failed", "order_id", orderID, "error", err)
			continue
		}
		if !wasExpired {
			entry.mu.Unlock()
			continue
		}
		if offered != nil {
			e.releaseOffer(*offered)
		}
		after = append(after, e.afterOfferLostLocked(ctx, a, now)...)
		entry.mu.Unlock()
		expired = append(expired, orderID)
	}

	if len(expired) > 0 {
		e.logger.Info("expired offers requeued", "count", len(expired))
	}
	runAll(after)
	return expired
}

// RetryPending walks the pending queue in submission order and offers every
// order that now has a candidate driver. Returns how many offers went out.
func (e *Engine) RetryPending(now time.Time) int {
	e.dispatchMu.Lock()
	queue := e.pending
	e.pending = nil
	e.dispatchMu.Unlock()

	dispatched := 0
	var after []func()
	for _, orderID := range queue {
		entry, ok := e.lookup(orderID)
		if !ok {
			continue
		}
		entry.mu.Lock()
		if entry.a.Status() != assignment.Pending {
			entry.mu.Unlock()
			continue
		}
		offered, effects := e.tryDispatchLocked(entry.a, now)
		entry.mu.Unlock()
		after = append(after, effects...)
		if offered {
			dispatched++
		}
	}

	runAll(after)
	return dispatched
}

// HandleDriverAvailable reacts to a driver coming online or being released:
// pending orders get another dispatch attempt.
func (e *Engine) HandleDriverAvailable(driverID kernel.UUID, now time.Time) {
	if n := e.RetryPending(now); n > 0 {
		e.logger.Debug("pending orders dispatched on driver availability",
			"driver_id", driverID, "count", n)
	}
}

// HandleDriverOffline revokes any outstanding offer held by a driver that
// dropped off, requeueing the order for the next candidate.
func (e *Engine) HandleDriverOffline(ctx context.Context, driverID kernel.UUID, now time.Time) {
	e.dispatchMu.Lock()
	orderID, ok := e.offeredDrivers[driverID]
	e.dispatchMu.Unlock()
	if !ok {
		return
	}

	entry, found := e.lookup(orderID)
	if !found {
		e.releaseOffer(driverID)
		return
	}

	entry.mu.Lock()
	a := entry.a
	// Recheck under the order lock: the offer may have settled since the
	// offered-driver lookup.
	if offered := a.OfferedDriverID(); offered == nil || !offered.IsEqual(driverID) {
		entry.mu.Unlock()
		return
	}

	var after []func()
	if err := a.Decline(driverID); err != nil {
		e.logger.Error("revoke offer from offline driver failed",
			"driver_id", driverID, "order_id", orderID, "error", err)
	} else {
		after = e.afterOfferLostLocked(ctx, a, now)
	}
	e.releaseOffer(driverID)
	entry.mu.Unlock()

	e.logger.Info("offer revoked from offline driver",
		"driver_id", driverID, "order_id", orderID)
	runAll(after)
}

// Get returns a snapshot of an assignment in dispatch scope.
func (e *Engine) Get(orderID kernel.UUID) (Snapshot, error) {
	entry, ok := e.lookup(orderID)
	if !ok {
		return Snapshot{}, errs.NewObjectNotFoundError("order", orderID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return snapshotOf(entry.a), nil
}

// StandingOffer returns the offer a driver currently holds, if any. Used to
// repeat an offer on a fresh connection after a reconnect.
func (e *Engine) StandingOffer(driverID kernel.UUID) (OfferNotice, bool) {
	e.dispatchMu.Lock()
	orderID, ok := e.offeredDrivers[driverID]
	e.dispatchMu.Unlock()
	if !ok {
		return OfferNotice{}, false
	}

	entry, found := e.lookup(orderID)
	if !found {
		return OfferNotice{}, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	a := entry.a
	if offered := a.OfferedDriverID(); offered == nil || !offered.IsEqual(driverID) {
		return OfferNotice{}, false
	}
	return OfferNotice{
		OrderID:     a.OrderID(),
		DriverID:    driverID,
		Destination: a.Destination(),
		Address:     a.Address(),
		FuelLiters:  a.FuelLiters(),
		ExpiresAt:   a.OfferExpiresAt(),
		Round:       a.OfferRound(),
	}, true
}

// ActiveAssignments returns snapshots of every non-terminal assignment in
// dispatch scope.
func (e *Engine) ActiveAssignments() []Snapshot {
	entries := e.snapshotEntries()
	snapshots := make([]Snapshot, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		if !entry.a.IsTerminal() {
			snapshots = append(snapshots, snapshotOf(entry.a))
		}
		entry.mu.Unlock()
	}
	return snapshots
}

// PurgeSettled drops terminal assignments from memory and returns how many
// were removed. Terminal assignments are kept around until the purge so a
// late accept or cancel is answered with the terminal-state error instead of
// a not-found. The durable history lives in the ledger.
func (e *Engine) PurgeSettled() int {
	// Terminal is forever, so identifying settled orders under their entry
	// locks and deleting them afterwards cannot resurrect one.
	var settled []kernel.UUID
	for orderID, entry := range e.snapshotEntries() {
		entry.mu.Lock()
		terminal := entry.a.IsTerminal()
		entry.mu.Unlock()
		if terminal {
			settled = append(settled, orderID)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	purged := 0
	for _, orderID := range settled {
		if _, ok := e.entries[orderID]; ok {
			delete(e.entries, orderID)
			purged++
		}
	}
	return purged
}

// PendingCount returns how many orders are waiting for a candidate driver.
func (e *Engine) PendingCount() int {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()
	return len(e.pending)
}

// tryDispatchLocked offers the assignment to the best candidate or parks it
// in the pending queue. Caller holds the order's entry lock. Reports whether
// an offer went out; returned effects run after unlock.
func (e *Engine) tryDispatchLocked(a *assignment.OrderAssignment, now time.Time) (bool, []func()) {
	candidates, err := e.fleet.ListAvailable(a.Destination(), e.cfg.SearchRadiusKm, now)
	if err != nil {
		e.logger.Error("list available drivers failed", "order_id", a.OrderID(), "error", err)
		e.park(a.OrderID())
		return false, nil
	}

	e.dispatchMu.Lock()
	free := candidates[:0]
	for _, record := range candidates {
		if _, busy := e.offeredDrivers[record.DriverID()]; busy {
			continue
		}
		free = append(free, record)
	}

	best, err := e.matcher.Match(a, free, now)
	if err != nil {
		e.dispatchMu.Unlock()
		if !errors.Is(err, services.ErrDriverNotFound) {
			e.logger.Error("driver match failed", "order_id", a.OrderID(), "error", err)
		}
		e.park(a.OrderID())
		return false, nil
	}

	driverID := best.DriverID()
	expiresAt := now.Add(e.cfg.OfferWindow)
	if err := a.Offer(driverID, expiresAt); err != nil {
		e.dispatchMu.Unlock()
		e.logger.Error("offer failed", "order_id", a.OrderID(), "driver_id", driverID, "error", err)
		e.park(a.OrderID())
		return false, nil
	}
	e.offeredDrivers[driverID] = a.OrderID()
	e.dispatchMu.Unlock()

	notice := OfferNotice{
		OrderID:     a.OrderID(),
		DriverID:    driverID,
		Destination: a.Destination(),
		Address:     a.Address(),
		FuelLiters:  a.FuelLiters(),
		ExpiresAt:   expiresAt,
		Round:       a.OfferRound(),
	}
	e.logger.Info("offer issued",
		"order_id", notice.OrderID, "driver_id", driverID, "round", notice.Round)

	effects := make([]func(), 0, len(e.onOfferIssued))
	for _, fn := range e.onOfferIssued {
		fn := fn
		effects = append(effects, func() { fn(notice, now) })
	}
	return true, effects
}

// afterOfferLostLocked decides what happens to an order whose offer was
// declined, expired or revoked: fail when the rounds are spent, otherwise
// try the next candidate. Caller holds the order's entry lock.
func (e *Engine) afterOfferLostLocked(ctx context.Context, a *assignment.OrderAssignment, now time.Time) []func() {
	if a.OfferRound() >= e.cfg.MaxOfferRounds {
		return e.failDispatchLocked(ctx, a, now)
	}
	_, effects := e.tryDispatchLocked(a, now)
	return effects
}

// failDispatchLocked marks the assignment DispatchFailed and closes it.
// Caller holds the order's entry lock.
func (e *Engine) failDispatchLocked(ctx context.Context, a *assignment.OrderAssignment, now time.Time) []func() {
	orderID := a.OrderID()
	customerID := a.CustomerID()
	if err := a.FailDispatch(); err != nil {
		e.logger.Error("fail dispatch failed", "order_id", orderID, "error", err)
		return nil
	}

	var after []func()
	if event, ok := e.newEvent(orderID, assignment.DispatchFailed, nil, now); ok {
		e.record(ctx, a, event)
		after = e.statusEffects(event)
	}
	for _, fn := range e.onDispatchFailed {
		fn := fn
		after = append(after, func() { fn(orderID, customerID, now) })
	}
	after = append(after, e.closeEffects(orderID)...)

	e.logger.Warn("dispatch failed, no driver accepted",
		"order_id", orderID, "rounds", a.OfferRound())

	notification := ports.Notification{
		Kind:       ports.NotificationDispatchFailed,
		OrderID:    orderID,
		CustomerID: customerID,
	}
	after = append(after, func() { e.notify(ctx, notification) })
	return after
}

func (e *Engine) newEvent(
	orderID kernel.UUID,
	status assignment.Status,
	driverID *kernel.UUID,
	now time.Time,
) (assignment.DeliveryEvent, bool) {
	event, err := assignment.NewDeliveryEvent(orderID, status, driverID, now)
	if err != nil {
		e.logger.Error("build delivery event failed",
			"order_id", orderID, "status", status.String(), "error", err)
		return assignment.DeliveryEvent{}, false
	}
	return event, true
}

func (e *Engine) record(ctx context.Context, a *assignment.OrderAssignment, event assignment.DeliveryEvent) {
	if err := e.ledger.RecordTransition(ctx, a, event); err != nil {
		e.logger.Error("record transition failed",
			"order_id", a.OrderID(), "status", event.Status().String(), "error", err)
	}
}

func (e *Engine) notify(ctx context.Context, notification ports.Notification) {
	if err := e.notifier.Notify(ctx, notification); err != nil {
		e.logger.Error("notification failed",
			"order_id", notification.OrderID, "kind", string(notification.Kind), "error", err)
	}
}

func (e *Engine) statusEffects(event assignment.DeliveryEvent) []func() {
	effects := make([]func(), 0, len(e.onStatusChanged))
	for _, fn := range e.onStatusChanged {
		fn := fn
		effects = append(effects, func() { fn(event) })
	}
	return effects
}

func (e *Engine) closeEffects(orderID kernel.UUID) []func() {
	effects := make([]func(), 0, len(e.onClosed))
	for _, fn := range e.onClosed {
		fn := fn
		effects = append(effects, func() { fn(orderID) })
	}
	return effects
}

// lookup returns the order's entry without touching its lock.
func (e *Engine) lookup(orderID kernel.UUID) (*orderEntry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, ok := e.entries[orderID]
	return entry, ok
}

// snapshotEntries copies the entry map so iteration happens outside the
// engine lock.
func (e *Engine) snapshotEntries() map[kernel.UUID]*orderEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[kernel.UUID]*orderEntry, len(e.entries))
	for orderID, entry := range e.entries {
		out[orderID] = entry
	}
	return out
}

func (e *Engine) removeEntry(orderID kernel.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.entries, orderID)
}

func (e *Engine) releaseOffer(driverID kernel.UUID) {
	e.dispatchMu.Lock()
	delete(e.offeredDrivers, driverID)
	e.dispatchMu.Unlock()
}

func (e *Engine) park(orderID kernel.UUID) {
	e.dispatchMu.Lock()
	e.pending = append(e.pending, orderID)
	e.dispatchMu.Unlock()
}

func (e *Engine) removePending(orderID kernel.UUID) {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()
	for i, id := range e.pending {
		if id.IsEqual(orderID) {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return
		}
	}
}

// releaseDriver returns the driver to the available pool as a post-unlock
// effect: the store fires availability listeners synchronously and those
// re-enter the engine.
func (e *Engine) releaseDriver(orderID, driverID kernel.UUID) func() {
	return func() {
		if err := e.fleet.MarkReleased(driverID); err != nil {
			e.logger.Error("release driver failed",
				"driver_id", driverID, "order_id", orderID, "error", err)
		}
	}
}

func snapshotOf(a *assignment.OrderAssignment) Snapshot {
	return Snapshot{
		OrderID:         a.OrderID(),
		CustomerID:      a.CustomerID(),
		Status:          a.Status(),
		DriverID:        copyID(a.DriverID()),
		OfferedDriverID: copyID(a.OfferedDriverID()),
		OfferExpiresAt:  a.OfferExpiresAt(),
		OfferRound:      a.OfferRound(),
		Destination:     a.Destination(),
		Address:         a.Address(),
		FuelLiters:      a.FuelLiters(),
	}
}

func copyID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func runAll(effects []func()) {
	for _, fn := range effects {
		fn()
	}
}
