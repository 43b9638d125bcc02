package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueltrack/internal/core/domain/model/kernel"
	"fueltrack/internal/pkg/errs"
)

func mustNewGeoPoint(t *testing.T, lat, lng float64) kernel.GeoPoint {
	t.Helper()
	point, err := kernel.NewGeoPoint(lat, lng)
	require.NoError(t, err)
	return point
}

func TestNewGeoPoint(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
		errType error
	}{
		{
			name:    "valid point",
			lat:     12.9716,
			lng:     77.5946,
			wantErr: false,
		},
		{
			name:    "valid point at min bounds",
			lat:     kernel.LatitudeMin,
			lng:     kernel.LongitudeMin,
			wantErr: false,
		},
		{
			name:    "valid point at max bounds",
			lat:     kernel.LatitudeMax,
			lng:     kernel.LongitudeMax,
			wantErr: false,
		},
		{
			name:    "latitude too small",
			lat:     -90.5,
			lng:     0,
			wantErr: true,
			errType: errs.NewValueIsOutOfRangeError("latitude", -90.5, kernel.LatitudeMin, kernel.LatitudeMax),
		},
		{
			name:    "latitude too large",
			lat:     90.5,
			lng:     0,
			wantErr: true,
			errType: errs.NewValueIsOutOfRangeError("latitude", 90.5, kernel.LatitudeMin, kernel.LatitudeMax),
		},
		{
			name:    "longitude too small",
			lat:     0,
			lng:     -180.5,
			wantErr: true,
			errType: errs.NewValueIsOutOfRangeError("longitude", -180.5, kernel.LongitudeMin, kernel.LongitudeMax),
		},
		{
			name:    "longitude too large",
			lat:     0,
			lng:     180.5,
			wantErr: true,
			errType: errs.NewValueIsOutOfRangeError("longitude", 180.5, kernel.LongitudeMin, kernel.LongitudeMax),
		},
		{
			name:    "both coordinates invalid",
			lat:     -91,
			lng:     181,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			point, err := kernel.NewGeoPoint(tt.lat, tt.lng)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Zero(t, point)
				if tt.errType != nil {
					assert.ErrorAs(t, err, &tt.errType)
				}
			} else {
				require.NoError(t, err)
				assert.InDelta(t, tt.lat, point.Latitude(), 0.000001)
				assert.InDelta(t, tt.lng, point.Longitude(), 0.000001)
				assert.NoError(t, point.Validate())
			}
		})
	}
}

func TestGeoPoint_Validate(t *testing.T) {
	t.Run("valid point", func(t *testing.T) {
		point, err := kernel.NewGeoPoint(12.9716, 77.5946)
		require.NoError(t, err)
		assert.NoError(t, point.Validate())
	})

	t.Run("zero value point", func(t *testing.T) {
		var point kernel.GeoPoint
		err := point.Validate()
		assert.Error(t, err)
		assert.Equal(t, kernel.ErrGeoPointIsNotConstructed, err)
	})
}

func TestGeoPoint_String(t *testing.T) {
	point := mustNewGeoPoint(t, 12.9716, 77.5946)
	assert.Equal(t, "GeoPoint(12.971600,77.594600)", point.String())
}

func TestGeoPoint_IsEqual(t *testing.T) {
	tests := []struct {
		name    string
		p1      kernel.GeoPoint
		p2      kernel.GeoPoint
		want    bool
		wantErr bool
	}{
		{
			name: "equal points",
			p1:   mustNewGeoPoint(t, 12.9716, 77.5946),
			p2:   mustNewGeoPoint(t, 12.9716, 77.5946),
			want: true,
		},
		{
			name: "different latitude",
			p1:   mustNewGeoPoint(t, 12.9716, 77.5946),
			p2:   mustNewGeoPoint(t, 13.0827, 77.5946),
			want: false,
		},
		{
			name: "different longitude",
			p1:   mustNewGeoPoint(t, 12.9716, 77.5946),
			p2:   mustNewGeoPoint(t, 12.9716, 80.2707),
			want: false,
		},
		{
			name:    "first point invalid",
			p1:      kernel.GeoPoint{},
			p2:      mustNewGeoPoint(t, 12.9716, 77.5946),
			wantErr: true,
		},
		{
			name:    "second point invalid",
			p1:      mustNewGeoPoint(t, 12.9716, 77.5946),
			p2:      kernel.GeoPoint{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			equal, err := tt.p1.IsEqual(tt.p2)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, equal)
			}
		})
	}
}

func TestGeoPoint_DistanceKm(t *testing.T) {
	t.Run("distance to itself is zero", func(t *testing.T) {
		point := mustNewGeoPoint(t, 12.9716, 77.5946)

		km, err := point.DistanceKm(point)

		require.NoError(t, err)
		assert.InDelta(t, 0, km, 0.0001)
	})

	t.Run("known distance between cities", func(t *testing.T) {
		// Bengaluru to Chennai, roughly 290 km great-circle
		blr := mustNewGeoPoint(t, 12.9716, 77.5946)
		maa := mustNewGeoPoint(t, 13.0827, 80.2707)

		km, err := blr.DistanceKm(maa)

		require.NoError(t, err)
		assert.InDelta(t, 290, km, 10)
	})

	t.Run("distance is symmetric", func(t *testing.T) {
		p1 := mustNewGeoPoint(t, 12.9716, 77.5946)
		p2 := mustNewGeoPoint(t, 13.0827, 80.2707)

		d1, err := p1.DistanceKm(p2)
		require.NoError(t, err)
		d2, err := p2.DistanceKm(p1)
		require.NoError(t, err)

		assert.InDelta(t, d1, d2, 0.0001)
	})

	t.Run("invalid point fails validation", func(t *testing.T) {
		var invalid kernel.GeoPoint
		point := mustNewGeoPoint(t, 12.9716, 77.5946)

		_, err := point.DistanceKm(invalid)

		assert.Error(t, err)
	})
}
