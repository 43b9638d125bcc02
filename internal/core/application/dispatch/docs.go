// Package dispatch assigns fuel orders to drivers.
//
// The Engine is the in-memory heart of order fulfillment: it takes submitted
// orders, finds the closest available driver through the domain matcher,
// issues time-boxed offers and walks each assignment through its lifecycle.
// Declined and expired offers requeue the order for the next candidate until
// the configured number of rounds is exhausted, at which point the order is
// marked as failed and the customer is told.
//
// Durable state goes through the OrderLedger port; the engine itself is
// rebuilt empty on restart, matching the rest of the real-time layer.
package dispatch
