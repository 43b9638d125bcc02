// Package assignment contains the OrderAssignment aggregate and the
// assignment Status state machine.
//
// An OrderAssignment tracks one fuel order through dispatch: from Pending,
// through time-bounded offers to individual drivers, to an accepted delivery
// run and a terminal outcome (Delivered, Cancelled or DispatchFailed).
//
// The aggregate carries the whole offer protocol itself: the currently
// offered driver, the offer deadline, the set of drivers already excluded
// for this order, and the offer round counter. At most one driver holds an
// offer at any instant, and terminal states are immutable once reached.
//
// Assignments are plain domain objects with no internal locking; the
// dispatch engine owns concurrency control around them.
package assignment
