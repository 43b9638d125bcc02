// Package broadcast fans real-time events out to connected clients.
//
// The Router is the single outbound surface of the tracking subsystem: driver
// positions and order status changes go to the subscribers of the relevant
// tracking session, delivery offers and dispatch failure notices go straight
// to the affected actor's connections. Session events carry per-session
// sequence numbers, and subscribers that keep failing are dropped so the rest
// of the session is unaffected.
package broadcast
