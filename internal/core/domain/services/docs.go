// Package services provides domain services that orchestrate business operations
// across multiple domain entities in the tracking subsystem. It implements
// business workflows that don't naturally belong to a single aggregate root.
//
// The package includes:
//   - DriverMatcher: A domain service selecting the best driver for an order offer
//   - EstimateTravelTime: A haversine-based arrival estimate used by read endpoints
//
// Domain services coordinate between aggregates, implementing business logic that
// spans multiple bounded contexts following Domain-Driven Design principles.
package services
