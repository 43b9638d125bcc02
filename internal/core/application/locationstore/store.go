package locationstore

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"fueltrack/internal/core/domain/model/driver"
	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/pkg/errs"
)

// UpsertResult reports how the store handled a position fix.
type UpsertResult int

const (
	// UpsertApplied means the fix replaced the stored record state.
	UpsertApplied UpsertResult = iota + 1
	// UpsertIgnored means the fix was dropped: out of order or out of the
	// service area. Ignored fixes are counted, not errors.
	UpsertIgnored
)

// Bounds is a latitude/longitude bounding box limiting the service area.
type Bounds struct {
	MinLatitude  float64
	MaxLatitude  float64
	MinLongitude float64
	MaxLongitude float64
}

// Contains reports whether the point lies inside the bounding box.
func (b Bounds) Contains(point kernel.GeoPoint) bool {
	return point.Latitude() >= b.MinLatitude && point.Latitude() <= b.MaxLatitude &&
		point.Longitude() >= b.MinLongitude && point.Longitude() <= b.MaxLongitude
}

// Config holds the store's tuning parameters.
type Config struct {
	// StaleAfter is the fix age beyond which a record is treated as Offline.
	StaleAfter time.Duration
	// ServiceArea limits accepted positions; nil accepts the whole world.
	ServiceArea *Bounds
}

// defaultStaleAfter is applied when the configuration leaves StaleAfter unset.
const defaultStaleAfter = 90 * time.Second

// evictAfterFactor times StaleAfter is how long an Offline record lingers
// before the sweep evicts it entirely.
const evictAfterFactor = 2

// Store is the authoritative in-memory map of driver location records.
//
// Locking is per driver: the store-level lock only guards the map itself,
// each record has its own lock. Listener callbacks are invoked outside all
// locks so listeners may call back into the store.
//
// Listeners must be registered during composition, before concurrent use.
type Store struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[kernel.UUID]*entry

	ignored atomic.Uint64

	onOffline         []func(driverID kernel.UUID)
	onAvailable       []func(driverID kernel.UUID)
	onPositionApplied []func(record *driver.DriverLocationRecord)
}

type entry struct {
	mu     sync.Mutex
	record *driver.DriverLocationRecord
}

// NewStore creates a Store with the given configuration.
// A zero StaleAfter falls back to 90 seconds.
func NewStore(cfg Config, logger *slog.Logger) *Store {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaultStaleAfter
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		cfg:     cfg,
		logger:  logger.With("component", "location_store"),
		entries: make(map[kernel.UUID]*entry),
	}
}

// OnDriverOffline registers a listener fired when a driver goes offline
// through eviction or the staleness sweep.
func (s *Store) OnDriverOffline(fn func(driverID kernel.UUID)) {
	s.onOffline = append(s.onOffline, fn)
}

// OnDriverAvailable registers a listener fired when a driver becomes
// available for dispatch: first fix, reconnect, or assignment release.
func (s *Store) OnDriverAvailable(fn func(driverID kernel.UUID)) {
	s.onAvailable = append(s.onAvailable, fn)
}

// OnPositionApplied registers a listener fired with a record snapshot after
// every applied fix. The broadcast router uses it to stream positions.
func (s *Store) OnPositionApplied(fn func(record *driver.DriverLocationRecord)) {
	s.onPositionApplied = append(s.onPositionApplied, fn)
}

// IgnoredCount returns how many fixes were dropped as out of order or out
// of the service area since the store was created.
func (s *Store) IgnoredCount() uint64 {
	return s.ignored.Load()
}

// StaleAfter returns the configured staleness threshold.
func (s *Store) StaleAfter() time.Duration {
	return s.cfg.StaleAfter
}

// Upsert applies a position fix for a driver.
//
// A fix older than the stored one, or outside the service area, is dropped
// with UpsertIgnored. A first fix creates the record in the Available state.
// An applied fix on an Offline record brings the driver back online.
//
// Returns:
//   - UpsertResult: UpsertApplied or UpsertIgnored
//   - error: Validation error on malformed input; the record is unchanged
func (s *Store) Upsert(
	driverID kernel.UUID,
	position kernel.GeoPoint,
	heading float64,
	speedKmh float64,
	accuracyM float64,
	recordedAt time.Time,
) (UpsertResult, error) {
	if err := driverID.Validate(); err != nil {
		return 0, err
	}
	if err := position.Validate(); err != nil {
		return 0, err
	}

	if s.cfg.ServiceArea != nil && !s.cfg.ServiceArea.Contains(position) {
		s.ignored.Add(1)
		s.logger.Debug("position outside service area ignored",
			"driverId", driverID.String(), "position", position.String())
		return UpsertIgnored, nil
	}

	e := s.entry(driverID)

	var (
		becameAvailable bool
		snapshot        *driver.DriverLocationRecord
	)

	e.mu.Lock()
	if e.record == nil {
		record, err := driver.NewDriverLocationRecord(
			driverID, position, heading, speedKmh, accuracyM, recordedAt)
		if err != nil {
			e.mu.Unlock()
			return 0, err
		}
		e.record = record
		becameAvailable = true
	} else {
		applied, err := e.record.ApplyFix(position, heading, speedKmh, accuracyM, recordedAt)
		if err != nil {
			e.mu.Unlock()
			return 0, err
		}
		if !applied {
			e.mu.Unlock()
			s.ignored.Add(1)
			s.logger.Debug("out-of-order position ignored",
				"driverId", driverID.String(), "recordedAt", recordedAt)
			return UpsertIgnored, nil
		}
		if e.record.Availability() == driver.Offline {
			if err := e.record.GoOnline(); err != nil {
				e.mu.Unlock()
				return 0, err
			}
			becameAvailable = true
		}
	}
	snapshot, snapErr := restoreSnapshot(e.record)
	e.mu.Unlock()

	if snapErr != nil {
		return 0, snapErr
	}

	if becameAvailable {
		s.fireAvailable(driverID)
	}
	s.firePositionApplied(snapshot)

	return UpsertApplied, nil
}

// Get returns a snapshot of the driver's record.
//
// Returns:
//   - *driver.DriverLocationRecord: An independent copy of the record
//   - error: ObjectNotFoundError when the driver has no record
func (s *Store) Get(driverID kernel.UUID) (*driver.DriverLocationRecord, error) {
	s.mu.RLock()
	e, ok := s.entries[driverID]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("driver", driverID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.record == nil {
		return nil, errs.NewObjectNotFoundError("driver", driverID)
	}
	return restoreSnapshot(e.record)
}

// ListAvailable returns snapshots of dispatchable drivers within the radius
// of center, ordered by ascending great-circle distance; ties are broken by
// the most recent fix. A non-positive radius means unlimited.
func (s *Store) ListAvailable(
	center kernel.GeoPoint,
	withinRadiusKm float64,
	now time.Time,
) ([]*driver.DriverLocationRecord, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}

	type candidate struct {
		record     *driver.DriverLocationRecord
		distanceKm float64
	}

	var candidates []candidate
	for _, e := range s.snapshotEntries() {
		e.mu.Lock()
		record := e.record
		if record == nil || !record.IsDispatchable(now, s.cfg.StaleAfter) {
			e.mu.Unlock()
			continue
		}

		distanceKm, err := record.Position().DistanceKm(center)
		if err != nil {
			e.mu.Unlock()
			return nil, err
		}
		if withinRadiusKm > 0 && distanceKm > withinRadiusKm {
			e.mu.Unlock()
			continue
		}

		snapshot, err := restoreSnapshot(record)
		e.mu.Unlock()
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate{record: snapshot, distanceKm: distanceKm})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distanceKm != candidates[j].distanceKm {
			return candidates[i].distanceKm < candidates[j].distanceKm
		}
		return candidates[i].record.RecordedAt().After(candidates[j].record.RecordedAt())
	})

	out := make([]*driver.DriverLocationRecord, len(candidates))
	for i, c := range candidates {
		out[i] = c.record
	}
	return out, nil
}

// ListAll returns snapshots of every known record, in no particular order.
// Fleet read endpoints use it.
func (s *Store) ListAll() ([]*driver.DriverLocationRecord, error) {
	var out []*driver.DriverLocationRecord
	for _, e := range s.snapshotEntries() {
		e.mu.Lock()
		if e.record == nil {
			e.mu.Unlock()
			continue
		}
		snapshot, err := restoreSnapshot(e.record)
		e.mu.Unlock()
		if err != nil {
			return nil, err
		}
		out = append(out, snapshot)
	}
	return out, nil
}

// MarkEngaged flips the driver to Busy after accepting an assignment.
func (s *Store) MarkEngaged(driverID kernel.UUID) error {
	return s.transition(driverID, (*driver.DriverLocationRecord).Engage)
}

// MarkDeparted flips the driver to EnRoute when the delivery run starts.
func (s *Store) MarkDeparted(driverID kernel.UUID) error {
	return s.transition(driverID, (*driver.DriverLocationRecord).Depart)
}

// MarkReleased flips the driver back to Available after the assignment ends
// and fires the driver-available listeners.
func (s *Store) MarkReleased(driverID kernel.UUID) error {
	if err := s.transition(driverID, (*driver.DriverLocationRecord).Release); err != nil {
		return err
	}

	s.fireAvailable(driverID)
	return nil
}

// Evict removes the driver's record on explicit disconnect and fires the
// driver-offline listeners.
//
// Returns:
//   - bool: true if a record existed
func (s *Store) Evict(driverID kernel.UUID) bool {
	s.mu.Lock()
	_, ok := s.entries[driverID]
	if ok {
		delete(s.entries, driverID)
	}
	s.mu.Unlock()

	if ok {
		s.fireOffline(driverID)
	}
	return ok
}

// SweepStale demotes records with stale fixes to Offline, firing the
// driver-offline listeners, and evicts records that stayed Offline well past
// the staleness threshold.
//
// Returns:
//   - []kernel.UUID: The drivers demoted to Offline by this sweep
func (s *Store) SweepStale(now time.Time) []kernel.UUID {
	var demoted []kernel.UUID

	for driverID, e := range s.snapshotEntryMap() {
		e.mu.Lock()
		record := e.record
		if record == nil || !record.IsStale(now, s.cfg.StaleAfter) {
			e.mu.Unlock()
			continue
		}

		if record.Availability() != driver.Offline {
			if err := record.GoOffline(); err != nil {
				e.mu.Unlock()
				s.logger.Error("stale record demotion failed",
					"driverId", driverID.String(), "error", err)
				continue
			}
			e.mu.Unlock()
			demoted = append(demoted, driverID)
			continue
		}

		expired := record.IsStale(now, evictAfterFactor*s.cfg.StaleAfter)
		e.mu.Unlock()
		if expired {
			s.mu.Lock()
			delete(s.entries, driverID)
			s.mu.Unlock()
		}
	}

	for _, driverID := range demoted {
		s.fireOffline(driverID)
	}

	if len(demoted) > 0 {
		s.logger.Info("stale drivers demoted to offline", "count", len(demoted))
	}
	return demoted
}

// entry returns the driver's entry, creating it if needed.
func (s *Store) entry(driverID kernel.UUID) *entry {
	s.mu.RLock()
	e, ok := s.entries[driverID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[driverID]; ok {
		return e
	}
	e = &entry{}
	s.entries[driverID] = e
	return e
}

// transition applies an availability transition to the driver's record
// under its entry lock.
func (s *Store) transition(
	driverID kernel.UUID,
	apply func(*driver.DriverLocationRecord) error,
) error {
	s.mu.RLock()
	e, ok := s.entries[driverID]
	s.mu.RUnlock()
	if !ok {
		return errs.NewObjectNotFoundError("driver", driverID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.record == nil {
		return errs.NewObjectNotFoundError("driver", driverID)
	}
	return apply(e.record)
}

// snapshotEntries copies the entry list so iteration happens outside the
// store lock.
func (s *Store) snapshotEntries() []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// snapshotEntryMap copies the entry map so iteration happens outside the
// store lock.
func (s *Store) snapshotEntryMap() map[kernel.UUID]*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[kernel.UUID]*entry, len(s.entries))
	for driverID, e := range s.entries {
		out[driverID] = e
	}
	return out
}

func (s *Store) fireAvailable(driverID kernel.UUID) {
	for _, fn := range s.onAvailable {
		fn(driverID)
	}
}

func (s *Store) fireOffline(driverID kernel.UUID) {
	for _, fn := range s.onOffline {
		fn(driverID)
	}
}

func (s *Store) firePositionApplied(record *driver.DriverLocationRecord) {
	for _, fn := range s.onPositionApplied {
		fn(record)
	}
}

// restoreSnapshot builds an independent copy of a record.
func restoreSnapshot(record *driver.DriverLocationRecord) (*driver.DriverLocationRecord, error) {
	return driver.RestoreDriverLocationRecord(
		record.DriverID(),
		record.Position(),
		record.Heading(),
		record.SpeedKmh(),
		record.AccuracyM(),
		record.RecordedAt(),
		record.Availability(),
	)
}
