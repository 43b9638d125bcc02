package cmd

import "time"

// Config carries everything the composition root needs: transport
// endpoints, credentials and the tuning parameters of the tracking and
// dispatch subsystem. All values come from the environment; zero values
// fall back to the component defaults.
type Config struct {
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	AmqpURL              string
	NotificationExchange string

	JWTSecret string

	// StaleAfter is the fix age beyond which a driver counts as offline.
	StaleAfter time.Duration
	// OfferWindow is how long a driver has to answer a dispatch offer.
	OfferWindow time.Duration
	// MaxOfferRounds caps offer attempts before an order fails dispatch.
	MaxOfferRounds int
	// SearchRadiusKm bounds the candidate search around the drop-off.
	SearchRadiusKm float64
	// HeartbeatTimeout is the silence after which a connection is dropped.
	HeartbeatTimeout time.Duration
	// DispatchRetryInterval is the queued-order retry poll interval.
	DispatchRetryInterval time.Duration

	// Service area bounds; all four zero means worldwide.
	ServiceAreaMinLatitude  float64
	ServiceAreaMaxLatitude  float64
	ServiceAreaMinLongitude float64
	ServiceAreaMaxLongitude float64
}

// HasServiceArea reports whether a bounding box was configured.
func (c Config) HasServiceArea() bool {
	return c.ServiceAreaMinLatitude != 0 || c.ServiceAreaMaxLatitude != 0 ||
		c.ServiceAreaMinLongitude != 0 || c.ServiceAreaMaxLongitude != 0
}
