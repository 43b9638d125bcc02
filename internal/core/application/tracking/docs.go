// Package tracking manages live tracking sessions.
//
// A tracking session opens when a driver accepts an order and closes when the
// delivery ends. While it is open, customers and admins subscribe their
// connections to it and the broadcast layer fans driver positions out to the
// subscribers. The Manager keeps the unique order-to-session and
// driver-to-session lookups consistent under concurrent access.
package tracking
