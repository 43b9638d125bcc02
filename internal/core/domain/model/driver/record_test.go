package driver_test

import (
	"testing"
	"time"

	"fueltrack/internal/core/domain/model/driver"
	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGeoPoint(t *testing.T, latitude, longitude float64) kernel.GeoPoint {
	t.Helper()
	point, err := kernel.NewGeoPoint(latitude, longitude)
	require.NoError(t, err)
	return point
}

func assertSamePoint(t *testing.T, expected, actual kernel.GeoPoint) {
	t.Helper()
	equal, err := actual.IsEqual(expected)
	require.NoError(t, err)
	assert.True(t, equal)
}

func newTestRecord(t *testing.T) *driver.DriverLocationRecord {
	t.Helper()
	record, err := driver.NewDriverLocationRecord(
		kernel.NewUUID(),
		mustGeoPoint(t, 12.9716, 77.5946),
		90,
		40,
		5,
		time.Now(),
	)
	require.NoError(t, err)
	return record
}

func TestNewDriverLocationRecord(t *testing.T) {
	t.Run("should create record with valid parameters", func(t *testing.T) {
		// Given
		driverID := kernel.NewUUID()
		position := mustGeoPoint(t, 12.9716, 77.5946)
		recordedAt := time.Now()

		// When
		record, err := driver.NewDriverLocationRecord(driverID, position, 45, 30, 8, recordedAt)

		// Then
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.True(t, record.DriverID().IsEqual(driverID))
		assertSamePoint(t, position, record.Position())
		assert.InDelta(t, 45.0, record.Heading(), 1e-9)
		assert.InDelta(t, 30.0, record.SpeedKmh(), 1e-9)
		assert.InDelta(t, 8.0, record.AccuracyM(), 1e-9)
		assert.Equal(t, recordedAt, record.RecordedAt())
		assert.Equal(t, driver.Available, record.Availability())
		require.NoError(t, record.Validate())
	})

	t.Run("should reject empty driver ID", func(t *testing.T) {
		record, err := driver.NewDriverLocationRecord(
			kernel.UUID{},
			mustGeoPoint(t, 12.9716, 77.5946),
			0, 0, 0,
			time.Now(),
		)

		require.Error(t, err)
		assert.Nil(t, record)
	})

	t.Run("should reject invalid position", func(t *testing.T) {
		record, err := driver.NewDriverLocationRecord(
			kernel.NewUUID(),
			kernel.GeoPoint{},
			0, 0, 0,
			time.Now(),
		)

		require.Error(t, err)
		assert.Nil(t, record)
	})

	t.Run("should reject heading out of range", func(t *testing.T) {
		testCases := []float64{-0.1, 360.1, 720}

		for _, heading := range testCases {
			record, err := driver.NewDriverLocationRecord(
				kernel.NewUUID(),
				mustGeoPoint(t, 12.9716, 77.5946),
				heading, 0, 0,
				time.Now(),
			)

			require.Error(t, err)
			assert.Nil(t, record)

			var rangeErr *errs.ValueIsOutOfRangeError
			require.ErrorAs(t, err, &rangeErr)
			assert.Contains(t, err.Error(), "heading")
		}
	})

	t.Run("should accept heading boundary values", func(t *testing.T) {
		for _, heading := range []float64{0, 360} {
			record, err := driver.NewDriverLocationRecord(
				kernel.NewUUID(),
				mustGeoPoint(t, 12.9716, 77.5946),
				heading, 0, 0,
				time.Now(),
			)

			require.NoError(t, err)
			assert.InDelta(t, heading, record.Heading(), 1e-9)
		}
	})

	t.Run("should reject negative speed", func(t *testing.T) {
		record, err := driver.NewDriverLocationRecord(
			kernel.NewUUID(),
			mustGeoPoint(t, 12.9716, 77.5946),
			0, -1, 0,
			time.Now(),
		)

		require.Error(t, err)
		assert.Nil(t, record)
		assert.Contains(t, err.Error(), "speedKmh")
	})

	t.Run("should reject negative accuracy", func(t *testing.T) {
		record, err := driver.NewDriverLocationRecord(
			kernel.NewUUID(),
			mustGeoPoint(t, 12.9716, 77.5946),
			0, 0, -5,
			time.Now(),
		)

		require.Error(t, err)
		assert.Nil(t, record)
		assert.Contains(t, err.Error(), "accuracyM")
	})

	t.Run("should reject zero timestamp", func(t *testing.T) {
		record, err := driver.NewDriverLocationRecord(
			kernel.NewUUID(),
			mustGeoPoint(t, 12.9716, 77.5946),
			0, 0, 0,
			time.Time{},
		)

		require.Error(t, err)
		assert.Nil(t, record)
		require.ErrorIs(t, err, driver.ErrRecordedAtIsRequired)
	})

	t.Run("should aggregate multiple validation errors", func(t *testing.T) {
		record, err := driver.NewDriverLocationRecord(
			kernel.UUID{},
			kernel.GeoPoint{},
			-10, -1, -1,
			time.Time{},
		)

		require.Error(t, err)
		assert.Nil(t, record)
		assert.Contains(t, err.Error(), "heading")
		assert.Contains(t, err.Error(), "speedKmh")
		assert.Contains(t, err.Error(), "recordedAt")
	})
}

func TestRestoreDriverLocationRecord(t *testing.T) {
	t.Run("should restore record with given availability", func(t *testing.T) {
		driverID := kernel.NewUUID()
		position := mustGeoPoint(t, 13.0827, 80.2707)
		recordedAt := time.Now().Add(-time.Minute)

		record, err := driver.RestoreDriverLocationRecord(
			driverID, position, 180, 55, 4, recordedAt, driver.EnRoute)

		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, driver.EnRoute, record.Availability())
		assert.Equal(t, recordedAt, record.RecordedAt())
		require.NoError(t, record.Validate())
	})

	t.Run("should reject invalid availability", func(t *testing.T) {
		record, err := driver.RestoreDriverLocationRecord(
			kernel.NewUUID(),
			mustGeoPoint(t, 13.0827, 80.2707),
			0, 0, 0,
			time.Now(),
			driver.Unknown,
		)

		require.Error(t, err)
		assert.Nil(t, record)
		assert.Contains(t, err.Error(), "availability is invalid")
	})
}

func TestDriverLocationRecord_Validate(t *testing.T) {
	t.Run("should reject zero value record", func(t *testing.T) {
		var record driver.DriverLocationRecord

		err := record.Validate()

		require.Error(t, err)
		require.ErrorIs(t, err, driver.ErrRecordIsNotConstructed)
	})

	t.Run("should reject nil record", func(t *testing.T) {
		var record *driver.DriverLocationRecord

		err := record.Validate()

		require.Error(t, err)
		require.ErrorIs(t, err, driver.ErrRecordIsNotConstructed)
	})
}

func TestDriverLocationRecord_ApplyFix(t *testing.T) {
	t.Run("should apply newer fix", func(t *testing.T) {
		// Given
		record := newTestRecord(t)
		newPosition := mustGeoPoint(t, 12.9352, 77.6245)
		newTime := record.RecordedAt().Add(5 * time.Second)

		// When
		applied, err := record.ApplyFix(newPosition, 270, 60, 3, newTime)

		// Then
		require.NoError(t, err)
		assert.True(t, applied)
		assertSamePoint(t, newPosition, record.Position())
		assert.InDelta(t, 270.0, record.Heading(), 1e-9)
		assert.InDelta(t, 60.0, record.SpeedKmh(), 1e-9)
		assert.InDelta(t, 3.0, record.AccuracyM(), 1e-9)
		assert.Equal(t, newTime, record.RecordedAt())
	})

	t.Run("should apply fix with equal timestamp", func(t *testing.T) {
		record := newTestRecord(t)
		newPosition := mustGeoPoint(t, 12.9352, 77.6245)

		applied, err := record.ApplyFix(newPosition, 10, 10, 10, record.RecordedAt())

		require.NoError(t, err)
		assert.True(t, applied)
		assertSamePoint(t, newPosition, record.Position())
	})

	t.Run("should ignore older fix without error", func(t *testing.T) {
		// Given
		record := newTestRecord(t)
		originalPosition := record.Position()
		originalTime := record.RecordedAt()
		stalePosition := mustGeoPoint(t, 12.9352, 77.6245)

		// When
		applied, err := record.ApplyFix(stalePosition, 0, 0, 0, originalTime.Add(-time.Second))

		// Then
		require.NoError(t, err)
		assert.False(t, applied)
		assertSamePoint(t, originalPosition, record.Position())
		assert.Equal(t, originalTime, record.RecordedAt())
	})

	t.Run("should reject invalid fix and leave record unchanged", func(t *testing.T) {
		record := newTestRecord(t)
		originalPosition := record.Position()
		originalHeading := record.Heading()
		newTime := record.RecordedAt().Add(time.Second)

		applied, err := record.ApplyFix(kernel.GeoPoint{}, 500, -1, 0, newTime)

		require.Error(t, err)
		assert.False(t, applied)
		assertSamePoint(t, originalPosition, record.Position())
		assert.InDelta(t, originalHeading, record.Heading(), 1e-9)
		assert.NotEqual(t, newTime, record.RecordedAt())
	})

	t.Run("should reject fix with zero timestamp", func(t *testing.T) {
		record := newTestRecord(t)

		applied, err := record.ApplyFix(record.Position(), 0, 0, 0, time.Time{})

		require.Error(t, err)
		assert.False(t, applied)
		require.ErrorIs(t, err, driver.ErrRecordedAtIsRequired)
	})

	t.Run("should reject fix on unconstructed record", func(t *testing.T) {
		var record driver.DriverLocationRecord

		applied, err := record.ApplyFix(mustGeoPoint(t, 1, 1), 0, 0, 0, time.Now())

		require.Error(t, err)
		assert.False(t, applied)
		require.ErrorIs(t, err, driver.ErrRecordIsNotConstructed)
	})
}

func TestDriverLocationRecord_Staleness(t *testing.T) {
	t.Run("should report fresh fix as not stale", func(t *testing.T) {
		record := newTestRecord(t)
		now := record.RecordedAt().Add(30 * time.Second)

		assert.False(t, record.IsStale(now, 90*time.Second))
	})

	t.Run("should report old fix as stale", func(t *testing.T) {
		record := newTestRecord(t)
		now := record.RecordedAt().Add(91 * time.Second)

		assert.True(t, record.IsStale(now, 90*time.Second))
	})

	t.Run("should treat fix exactly at threshold as fresh", func(t *testing.T) {
		record := newTestRecord(t)
		now := record.RecordedAt().Add(90 * time.Second)

		assert.False(t, record.IsStale(now, 90*time.Second))
	})
}

func TestDriverLocationRecord_IsDispatchable(t *testing.T) {
	t.Run("should be dispatchable when Available with fresh fix", func(t *testing.T) {
		record := newTestRecord(t)
		now := record.RecordedAt().Add(time.Second)

		assert.True(t, record.IsDispatchable(now, 90*time.Second))
	})

	t.Run("should not be dispatchable when fix is stale", func(t *testing.T) {
		record := newTestRecord(t)
		now := record.RecordedAt().Add(2 * time.Minute)

		assert.False(t, record.IsDispatchable(now, 90*time.Second))
	})

	t.Run("should not be dispatchable when Busy", func(t *testing.T) {
		record := newTestRecord(t)
		require.NoError(t, record.Engage())
		now := record.RecordedAt().Add(time.Second)

		assert.False(t, record.IsDispatchable(now, 90*time.Second))
	})

	t.Run("should not be dispatchable when Offline", func(t *testing.T) {
		record := newTestRecord(t)
		require.NoError(t, record.GoOffline())
		now := record.RecordedAt().Add(time.Second)

		assert.False(t, record.IsDispatchable(now, 90*time.Second))
	})
}

func TestDriverLocationRecord_Transitions(t *testing.T) {
	t.Run("should walk the full delivery workflow", func(t *testing.T) {
		record := newTestRecord(t)
		assert.Equal(t, driver.Available, record.Availability())

		require.NoError(t, record.Engage())
		assert.Equal(t, driver.Busy, record.Availability())

		require.NoError(t, record.Depart())
		assert.Equal(t, driver.EnRoute, record.Availability())

		require.NoError(t, record.Release())
		assert.Equal(t, driver.Available, record.Availability())

		require.NoError(t, record.GoOffline())
		assert.Equal(t, driver.Offline, record.Availability())

		require.NoError(t, record.GoOnline())
		assert.Equal(t, driver.Available, record.Availability())
	})

	t.Run("should reject engage when not Available", func(t *testing.T) {
		record := newTestRecord(t)
		require.NoError(t, record.Engage())

		err := record.Engage()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Busy is not a valid availability to engage")
		assert.Equal(t, driver.Busy, record.Availability())
	})

	t.Run("should reject depart when not Busy", func(t *testing.T) {
		record := newTestRecord(t)

		err := record.Depart()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Available is not a valid availability to depart")
	})

	t.Run("should reject go online while engaged", func(t *testing.T) {
		record := newTestRecord(t)
		require.NoError(t, record.Engage())

		err := record.GoOnline()

		require.Error(t, err)
		assert.Equal(t, driver.Busy, record.Availability())
	})

	t.Run("should allow going offline mid-delivery", func(t *testing.T) {
		record := newTestRecord(t)
		require.NoError(t, record.Engage())
		require.NoError(t, record.Depart())

		require.NoError(t, record.GoOffline())

		assert.Equal(t, driver.Offline, record.Availability())
	})
}

func TestDriverLocationRecord_IsEqual(t *testing.T) {
	t.Run("should be equal for same driver regardless of state", func(t *testing.T) {
		driverID := kernel.NewUUID()
		first, err := driver.NewDriverLocationRecord(
			driverID, mustGeoPoint(t, 10, 10), 0, 0, 0, time.Now())
		require.NoError(t, err)
		second, err := driver.NewDriverLocationRecord(
			driverID, mustGeoPoint(t, 20, 20), 90, 50, 5, time.Now())
		require.NoError(t, err)

		assert.True(t, first.IsEqual(second))
	})

	t.Run("should not be equal for different drivers", func(t *testing.T) {
		first := newTestRecord(t)
		second := newTestRecord(t)

		assert.False(t, first.IsEqual(second))
	})

	t.Run("should not be equal to nil", func(t *testing.T) {
		record := newTestRecord(t)

		assert.False(t, record.IsEqual(nil))
	})
}
