// Package session contains the TrackingSession aggregate.
//
// A TrackingSession is the live subscription binding between an accepted
// order's driver and its observers (the ordering customer and admin
// dashboards). Session membership is the sole authorization gate for
// receiving live position data: a connection that is not subscribed to a
// session never observes that driver's stream.
//
// One session exists per active order. It is created when the order is
// accepted and closed on the order's terminal transition; a session never
// outlives its order.
package session
